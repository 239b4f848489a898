package collect

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
)

const defaultMaxPerFeed = 20

// FeedEntry is one usable item from a feed.
type FeedEntry struct {
	URL        string
	Title      string
	Published  time.Time // zero when the feed gives no date
	Content    string
	Source     string
	Scope      string
	Categories []string
	ImageURL   string
}

// FeedConfig describes a feed to ingest.
type FeedConfig struct {
	URL   string
	Name  string
	Scope string
}

// FeedParser parses RSS/Atom feeds.
type FeedParser struct {
	feeds      []FeedConfig
	maxPerFeed int
	parser     *gofeed.Parser
	logger     zerolog.Logger
}

// NewFeedParser creates a FeedParser. maxPerFeed <= 0 uses the default of 20.
func NewFeedParser(feeds []FeedConfig, maxPerFeed int, logger zerolog.Logger) *FeedParser {
	if maxPerFeed <= 0 {
		maxPerFeed = defaultMaxPerFeed
	}
	return &FeedParser{
		feeds:      feeds,
		maxPerFeed: maxPerFeed,
		parser:     gofeed.NewParser(),
		logger:     logger,
	}
}

// ParseAll fetches every configured feed. A feed that fails is logged and
// skipped; the returned count says how many failed.
func (fp *FeedParser) ParseAll(ctx context.Context) ([]FeedEntry, int) {
	var all []FeedEntry
	failed := 0

	for _, fc := range fp.feeds {
		name := fc.Name
		if name == "" {
			name = extractSourceName(fc.URL)
		}

		feed, err := fp.parser.ParseURLWithContext(fc.URL, ctx)
		if err != nil {
			failed++
			fp.logger.Warn().Err(err).Str("feed", fc.URL).Msg("failed to parse feed")
			continue
		}
		entries := fp.entries(feed, name, fc.Scope)
		all = append(all, entries...)
		fp.logger.Info().Int("entries", len(entries)).Str("source", name).Msg("parsed feed")
	}

	return all, failed
}

// entries converts at most maxPerFeed usable items of a parsed feed.
func (fp *FeedParser) entries(feed *gofeed.Feed, source, scope string) []FeedEntry {
	var entries []FeedEntry
	for _, item := range feed.Items {
		if len(entries) >= fp.maxPerFeed {
			break
		}
		if entry := parseItem(item, source, scope); entry != nil {
			entries = append(entries, *entry)
		}
	}
	return entries
}

func parseItem(item *gofeed.Item, source, scope string) *FeedEntry {
	itemURL := item.Link
	if itemURL == "" {
		itemURL = item.GUID
	}
	if itemURL == "" {
		return nil
	}

	title := strings.TrimSpace(item.Title)
	if title == "" {
		return nil
	}

	entry := &FeedEntry{
		URL:        itemURL,
		Title:      title,
		Source:     source,
		Scope:      scope,
		Categories: normalizeTags(item.Categories),
	}

	if item.PublishedParsed != nil {
		entry.Published = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		entry.Published = *item.UpdatedParsed
	}

	if item.Content != "" {
		entry.Content = htmlToText(item.Content)
	} else if item.Description != "" {
		entry.Content = htmlToText(item.Description)
	}

	if item.Image != nil && item.Image.URL != "" {
		entry.ImageURL = item.Image.URL
	} else {
		for _, enc := range item.Enclosures {
			if enc != nil && strings.HasPrefix(enc.Type, "image/") {
				entry.ImageURL = enc.URL
				break
			}
		}
	}

	return entry
}

// normalizeTags lowercases and trims categories, dropping blanks and repeats.
func normalizeTags(categories []string) []string {
	seen := make(map[string]struct{}, len(categories))
	var tags []string
	for _, c := range categories {
		tag := strings.ToLower(strings.TrimSpace(c))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

// htmlToText extracts the visible text of an HTML fragment with collapsed
// whitespace.
func htmlToText(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.Join(strings.Fields(fragment), " ")
	}
	doc.Find("script, style").Remove()
	doc.Find("br, p, div, li").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func extractSourceName(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil || u.Hostname() == "" {
		return feedURL
	}
	host := strings.ToLower(u.Hostname())

	for _, prefix := range []string{"www.", "blog.", "blogs.", "rss.", "feeds."} {
		host = strings.TrimPrefix(host, prefix)
	}

	parts := strings.Split(host, ".")
	name := host
	if len(parts) >= 2 {
		name = parts[len(parts)-2]
	}
	if name == "" {
		return feedURL
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
