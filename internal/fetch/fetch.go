package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/rs/zerolog"

	"github.com/TobiSchelling/socialrank/internal/database"
)

const (
	userAgent      = "SocialRank/1.0 (article ingest)"
	minTextLength  = 100
	maxBodyBytes   = 5 << 20
	defaultTimeout = 15 * time.Second
)

// Store is what the fetcher reads from and writes to.
type Store interface {
	GetArticlesNeedingFetch(ctx context.Context) ([]database.Article, error)
	UpdateArticleBody(articleID, body string) error
	MarkArticleFetchAttempted(articleID string) error
}

// Result holds the results of a content fetch run.
type Result struct {
	Fetched int
	Failed  int
}

// ContentFetcher fills empty article bodies from their source pages using
// readability extraction.
type ContentFetcher struct {
	store  Store
	client *http.Client
	logger zerolog.Logger
}

// NewContentFetcher creates a new content fetcher.
func NewContentFetcher(store Store, timeout time.Duration, logger zerolog.Logger) *ContentFetcher {
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &ContentFetcher{
		store: store,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		logger: logger.With().Str("component", "fetch").Logger(),
	}
}

// FetchMissingContent fetches bodies for articles that have none. After an
// HTTP error status from a domain, remaining articles from it are skipped.
func (f *ContentFetcher) FetchMissingContent(ctx context.Context) (*Result, error) {
	articles, err := f.store.GetArticlesNeedingFetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing articles to fetch: %w", err)
	}

	result := &Result{}
	if len(articles) == 0 {
		f.logger.Info().Msg("no articles need content fetching")
		return result, nil
	}

	failedDomains := make(map[string]struct{})
	for _, article := range articles {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if article.SourceURL == nil {
			continue
		}
		sourceURL := *article.SourceURL
		domain := ""
		if u, err := url.Parse(sourceURL); err == nil {
			domain = strings.ToLower(u.Host)
		}

		if _, failed := failedDomains[domain]; failed {
			f.markAttempted(article.ID)
			result.Failed++
			continue
		}

		content, httpErr := f.fetchArticleContent(ctx, sourceURL)
		if httpErr != nil {
			f.markAttempted(article.ID)
			result.Failed++
			if domain != "" {
				failedDomains[domain] = struct{}{}
			}
			f.logger.Warn().Err(httpErr).Str("url", sourceURL).Str("domain", domain).
				Msg("HTTP error, skipping remaining articles from domain")
			continue
		}

		if content == "" {
			f.markAttempted(article.ID)
			result.Failed++
			f.logger.Debug().Str("url", sourceURL).Msg("no extractable content")
			continue
		}

		if err := f.store.UpdateArticleBody(article.ID, content); err != nil {
			return result, fmt.Errorf("storing body for %s: %w", article.ID, err)
		}
		result.Fetched++
		f.logger.Debug().Str("title", article.Title).Msg("fetched content")
	}

	f.logger.Info().Int("fetched", result.Fetched).Int("failed", result.Failed).Msg("content fetch complete")
	return result, nil
}

func (f *ContentFetcher) markAttempted(articleID string) {
	if err := f.store.MarkArticleFetchAttempted(articleID); err != nil {
		f.logger.Warn().Err(err).Str("article_id", articleID).Msg("failed to mark fetch attempt")
	}
}

// fetchArticleContent returns the readable text of a page. Only HTTP error
// statuses are reported as errors; network and extraction problems yield "".
func (f *ContentFetcher) fetchArticleContent(ctx context.Context, articleURL string) (string, error) {
	parsedURL, err := url.Parse(articleURL)
	if err != nil {
		return "", nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, articleURL, nil)
	if err != nil {
		return "", nil
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &httpError{code: resp.StatusCode}
	}

	article, err := readability.FromReader(io.LimitReader(resp.Body, maxBodyBytes), parsedURL)
	if err != nil {
		return "", nil
	}

	text := strings.TrimSpace(article.TextContent)
	if len(text) > minTextLength {
		return text, nil
	}
	return "", nil
}

type httpError struct {
	code int
}

func (e *httpError) Error() string {
	return fmt.Sprintf("%d %s", e.code, http.StatusText(e.code))
}
