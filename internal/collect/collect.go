package collect

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/TobiSchelling/socialrank/internal/config"
	"github.com/TobiSchelling/socialrank/internal/database"
	"github.com/TobiSchelling/socialrank/internal/metrics"
)

// Store is what the collector writes to.
type Store interface {
	InsertArticle(a database.Article) (string, error)
	SetArticleTags(articleID string, tags []string) error
	AddPhoto(articleID, url string, position int) error
}

// Result holds the results of a collection run.
type Result struct {
	TotalFound  int
	NewArticles int
	Duplicates  int
	Errors      int
	FailedFeeds int
	Sources     map[string]int
}

// Collector turns feed entries into articles authored by the publisher user.
type Collector struct {
	store       Store
	feedParser  *FeedParser
	publisherID string
	logger      zerolog.Logger
}

// NewCollector creates a collector for the configured feeds.
func NewCollector(cfg *config.Config, store Store, logger zerolog.Logger) *Collector {
	logger = logger.With().Str("component", "collect").Logger()
	feeds := make([]FeedConfig, len(cfg.Sources.Feeds))
	for i, f := range cfg.Sources.Feeds {
		feeds[i] = FeedConfig{URL: f.URL, Name: f.Name, Scope: f.Scope}
	}
	return &Collector{
		store:       store,
		feedParser:  NewFeedParser(feeds, cfg.Ingest.MaxPerFeed, logger),
		publisherID: cfg.Ingest.PublisherID,
		logger:      logger,
	}
}

// Collect fetches every feed and stores the new entries.
func (c *Collector) Collect(ctx context.Context) *Result {
	entries, failed := c.feedParser.ParseAll(ctx)
	r := c.storeEntries(entries)
	r.FailedFeeds = failed

	c.logger.Info().
		Int("found", r.TotalFound).
		Int("new", r.NewArticles).
		Int("duplicates", r.Duplicates).
		Int("errors", r.Errors).
		Msg("collection complete")
	return r
}

func (c *Collector) storeEntries(entries []FeedEntry) *Result {
	r := &Result{TotalFound: len(entries), Sources: make(map[string]int)}

	for _, entry := range entries {
		sourceURL := entry.URL
		article := database.Article{
			AuthorID:  c.publisherID,
			Title:     entry.Title,
			Body:      entry.Content,
			Scope:     entry.Scope,
			SourceURL: &sourceURL,
		}
		if !entry.Published.IsZero() {
			article.CreatedAt = entry.Published.UnixMilli()
		}

		id, err := c.store.InsertArticle(article)
		if err != nil {
			r.Errors++
			metrics.IngestArticles.WithLabelValues("error").Inc()
			c.logger.Warn().Err(err).Str("url", entry.URL).Msg("failed to store article")
			continue
		}
		if id == "" {
			r.Duplicates++
			metrics.IngestArticles.WithLabelValues("duplicate").Inc()
			continue
		}

		r.NewArticles++
		r.Sources[entry.Source]++
		metrics.IngestArticles.WithLabelValues("new").Inc()

		if len(entry.Categories) > 0 {
			if err := c.store.SetArticleTags(id, entry.Categories); err != nil {
				c.logger.Warn().Err(err).Str("article_id", id).Msg("failed to store tags")
			}
		}
		if entry.ImageURL != "" {
			if err := c.store.AddPhoto(id, entry.ImageURL, 0); err != nil {
				c.logger.Warn().Err(err).Str("article_id", id).Msg("failed to store photo")
			}
		}
	}
	return r
}
