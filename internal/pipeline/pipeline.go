package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/TobiSchelling/socialrank/internal/collect"
	"github.com/TobiSchelling/socialrank/internal/config"
	"github.com/TobiSchelling/socialrank/internal/database"
	"github.com/TobiSchelling/socialrank/internal/fetch"
)

// ErrNoPublisher is returned when ingest.publisher_id is unset or unknown.
var ErrNoPublisher = errors.New("ingest publisher is not a known user")

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	Steps []StepResult
}

// Failed reports whether any step returned an error.
func (r *Result) Failed() bool {
	for _, s := range r.Steps {
		if s.Err != nil {
			return true
		}
	}
	return false
}

// Pipeline runs ingest: collect feed entries, then fetch missing bodies.
type Pipeline struct {
	cfg    *config.Config
	db     *database.DB
	logger zerolog.Logger
}

// New creates a new pipeline.
func New(cfg *config.Config, db *database.DB, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		db:     db,
		logger: logger.With().Str("component", "pipeline").Logger(),
	}
}

// Run executes both steps. Fetch is skipped when collect fails.
func (p *Pipeline) Run(ctx context.Context) *Result {
	r := &Result{}

	step := p.runCollect(ctx)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	r.Steps = append(r.Steps, p.runFetch(ctx))
	return r
}

// DryRun shows what would be done without executing.
func (p *Pipeline) DryRun(ctx context.Context) *Result {
	r := &Result{}

	collectStep := StepResult{
		Name:    "Collect",
		Summary: fmt.Sprintf("[dry-run] would read %d feeds (up to %d entries each)", len(p.cfg.Sources.Feeds), p.cfg.Ingest.MaxPerFeed),
	}
	if err := p.checkPublisher(ctx); err != nil {
		collectStep.Err = err
	}
	r.Steps = append(r.Steps, collectStep)

	needing, err := p.db.GetArticlesNeedingFetch(ctx)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Fetch",
		Summary: fmt.Sprintf("[dry-run] %d articles need content fetching", len(needing)),
		Err:     err,
	})

	return r
}

func (p *Pipeline) checkPublisher(ctx context.Context) error {
	id := p.cfg.Ingest.PublisherID
	if id == "" {
		return fmt.Errorf("%w: ingest.publisher_id is empty", ErrNoPublisher)
	}
	u, err := p.db.GetUser(ctx, id)
	if err != nil {
		return fmt.Errorf("looking up publisher: %w", err)
	}
	if u == nil {
		return fmt.Errorf("%w: %s", ErrNoPublisher, id)
	}
	return nil
}

func (p *Pipeline) runCollect(ctx context.Context) StepResult {
	p.logger.Info().Msg("step 1/2: collecting articles")
	if err := p.checkPublisher(ctx); err != nil {
		return StepResult{Name: "Collect", Err: err}
	}
	collector := collect.NewCollector(p.cfg, p.db, p.logger)
	result := collector.Collect(ctx)
	return StepResult{
		Name: "Collect",
		Summary: fmt.Sprintf("Found %d new articles (%d total, %d duplicates, %d failed feeds)",
			result.NewArticles, result.TotalFound, result.Duplicates, result.FailedFeeds),
	}
}

func (p *Pipeline) runFetch(ctx context.Context) StepResult {
	p.logger.Info().Msg("step 2/2: fetching article content")
	fetcher := fetch.NewContentFetcher(p.db, p.cfg.FetchTimeout(), p.logger)
	result, err := fetcher.FetchMissingContent(ctx)
	if err != nil {
		return StepResult{Name: "Fetch", Err: err}
	}
	return StepResult{
		Name:    "Fetch",
		Summary: fmt.Sprintf("Fetched %d articles, %d failed", result.Fetched, result.Failed),
	}
}
