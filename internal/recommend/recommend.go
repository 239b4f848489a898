// Package recommend ranks articles for a user by blending tag affinity,
// social-circle activity, comment engagement and freshness.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/TobiSchelling/socialrank/internal/database"
	"github.com/TobiSchelling/socialrank/internal/metrics"
)

// ScoreDetail is the per-article breakdown of a ranking score.
type ScoreDetail struct {
	ArticleID          string  `json:"article_id"`
	ContentScore       float64 `json:"content_score"`
	CollaborativeScore float64 `json:"collaborative_score"`
	CommentScore       float64 `json:"comment_score"`
	FinalScore         float64 `json:"final_score"`
	DecayFactor        float64 `json:"decay_factor"`
	NewArticleBoost    float64 `json:"new_article_boost"`
}

// Result is one page of recommendations.
type Result struct {
	Articles    []database.HydratedArticle `json:"articles"`
	Total       int                        `json:"total"`
	TotalPages  int                        `json:"total_pages"`
	CurrentPage int                        `json:"current_page"`
	Details     []ScoreDetail              `json:"details"`
}

// Recommender scores every visible article for a user and returns a page.
// It holds no per-request state and is safe for concurrent use.
type Recommender struct {
	store  Store
	cfg    Config
	logger zerolog.Logger
	now    func() time.Time
}

// NewRecommender creates a Recommender over the given store.
func NewRecommender(store Store, cfg Config, logger zerolog.Logger) (*Recommender, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Recommender{
		store:  store,
		cfg:    cfg,
		logger: logger.With().Str("component", "recommend").Logger(),
		now:    time.Now,
	}, nil
}

// SetClock replaces the clock used for article age. Tests pin it.
func (r *Recommender) SetClock(now func() time.Time) {
	r.now = now
}

// Config returns the scoring settings in use.
func (r *Recommender) Config() Config {
	return r.cfg
}

type requestIDKey struct{}

// WithRequestID attaches a request ID that Recommend will log with.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

// Recommend ranks the articles visible to userID and returns the requested
// page. page < 1 means the first page. limit < 1 means the default limit and
// limits above the maximum are clamped.
func (r *Recommender) Recommend(ctx context.Context, userID string, page, limit int) (*Result, error) {
	start := time.Now()
	logger := r.logger.With().
		Str("request_id", requestID(ctx)).
		Str("user_id", userID).
		Logger()

	res, err := r.recommend(ctx, logger, userID, page, limit)

	metrics.RecommendDuration.Observe(time.Since(start).Seconds())
	switch {
	case err == nil:
		metrics.RecommendRequests.WithLabelValues("ok").Inc()
	case errors.Is(err, ErrUserNotFound):
		metrics.RecommendRequests.WithLabelValues("not_found").Inc()
		logger.Debug().Msg("user not found")
	default:
		metrics.RecommendRequests.WithLabelValues("error").Inc()
		logger.Error().Err(err).Msg("recommendation failed")
	}
	return res, err
}

func (r *Recommender) recommend(ctx context.Context, logger zerolog.Logger, userID string, page, limit int) (*Result, error) {
	page, limit = r.normalizePaging(page, limit)

	user, err := r.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading user %s: %w", userID, err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}

	friends := make(map[string]struct{}, len(user.Friends))
	for _, id := range user.Friends {
		friends[id] = struct{}{}
	}

	var (
		visible     []database.Article
		skipped     int
		tagProfiles map[string]*database.TagProfile
		userProfile UserTagProfile
		collab      map[string]float64
		commented   map[string]struct{}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		articles, err := r.store.ListActiveArticles(gctx)
		if err != nil {
			return fmt.Errorf("loading articles: %w", err)
		}
		visible, skipped = FilterVisible(user.ID, friends, articles)
		if len(visible) == 0 {
			return nil
		}
		ids := make([]string, len(visible))
		for i, a := range visible {
			ids[i] = a.ID
		}
		tagProfiles, err = r.store.GetTagProfiles(gctx, ids)
		if err != nil {
			return fmt.Errorf("loading article tags: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		userProfile, err = BuildUserTagProfile(gctx, r.store, user.ID)
		if err != nil {
			return fmt.Errorf("building tag profile: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		collab, err = CollaborativeScores(gctx, r.store, user.ID, user.Friends, user.Following)
		if err != nil {
			return fmt.Errorf("collaborative scores: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		comments, err := r.store.GetCommentsByAuthor(gctx, user.ID)
		if err != nil {
			return fmt.Errorf("loading comments: %w", err)
		}
		commented = make(map[string]struct{}, len(comments))
		for _, c := range comments {
			commented[c.ArticleID] = struct{}{}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ranked := r.score(visible, tagProfiles, userProfile, collab, commented)

	total := len(ranked)
	res := &Result{
		Articles:    []database.HydratedArticle{},
		Total:       total,
		TotalPages:  (total + limit - 1) / limit,
		CurrentPage: page,
		Details:     []ScoreDetail{},
	}

	if page > res.TotalPages {
		logger.Debug().Int("total", total).Int("page", page).Msg("page past end")
		return res, nil
	}
	lo := (page - 1) * limit
	hi := min(lo+limit, total)
	res.Details = ranked[lo:hi]

	ids := make([]string, len(res.Details))
	for i, d := range res.Details {
		ids[i] = d.ArticleID
	}
	hydrated, err := r.store.HydrateArticles(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrating articles: %w", err)
	}
	byID := make(map[string]database.HydratedArticle, len(hydrated))
	for _, h := range hydrated {
		byID[h.ID] = h
	}
	for _, id := range ids {
		if h, ok := byID[id]; ok {
			res.Articles = append(res.Articles, h)
		}
	}

	logger.Debug().
		Int("visible", total).
		Int("skipped", skipped).
		Int("page", page).
		Int("returned", len(res.Articles)).
		Msg("recommendation complete")

	return res, nil
}

// score computes a ScoreDetail per article and sorts them by final score,
// highest first. Ties keep the input order.
func (r *Recommender) score(
	articles []database.Article,
	tagProfiles map[string]*database.TagProfile,
	userProfile UserTagProfile,
	collab map[string]float64,
	commented map[string]struct{},
) []ScoreDetail {
	now := r.now()
	details := make([]ScoreDetail, 0, len(articles))

	for _, a := range articles {
		content := ContentScore(tagProfiles[a.ID], userProfile)
		collaborative := collab[a.ID]
		var comment float64
		if _, ok := commented[a.ID]; ok {
			comment = r.cfg.CommentBoost
		}

		age := now.Sub(time.UnixMilli(a.CreatedAt))
		decay := r.cfg.Decay(age)
		boost := r.cfg.NewBoost(age)

		details = append(details, ScoreDetail{
			ArticleID:          a.ID,
			ContentScore:       content,
			CollaborativeScore: collaborative,
			CommentScore:       comment,
			FinalScore:         r.cfg.FinalScore(content, collaborative, comment, decay, boost),
			DecayFactor:        decay,
			NewArticleBoost:    boost,
		})
	}

	sort.SliceStable(details, func(i, j int) bool {
		return details[i].FinalScore > details[j].FinalScore
	})
	return details
}

func (r *Recommender) normalizePaging(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = r.cfg.DefaultLimit
	}
	if limit > r.cfg.MaxLimit {
		limit = r.cfg.MaxLimit
	}
	return page, limit
}
