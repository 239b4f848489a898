package recommend

import (
	"context"

	"github.com/TobiSchelling/socialrank/internal/database"
)

// UserGraph loads a user with their social graph. Returns nil, nil when the
// user does not exist.
type UserGraph interface {
	GetUser(ctx context.Context, userID string) (*database.User, error)
}

// ArticleSource lists every article that is not soft-deleted, in a stable order.
type ArticleSource interface {
	ListActiveArticles(ctx context.Context) ([]database.Article, error)
}

// InteractionLog returns all interactions performed by the given users.
type InteractionLog interface {
	GetInteractionsForUsers(ctx context.Context, userIDs []string) ([]database.Interaction, error)
}

// TagStore returns tag profiles keyed by article ID. Untagged articles are absent.
type TagStore interface {
	GetTagProfiles(ctx context.Context, articleIDs []string) (map[string]*database.TagProfile, error)
}

// CommentStore returns all comments written by a user.
type CommentStore interface {
	GetCommentsByAuthor(ctx context.Context, authorID string) ([]database.Comment, error)
}

// Hydrator expands article IDs into full documents. Order is not guaranteed
// and IDs that no longer resolve are omitted.
type Hydrator interface {
	HydrateArticles(ctx context.Context, articleIDs []string) ([]database.HydratedArticle, error)
}

// Store is everything the recommender reads. *database.DB satisfies it.
type Store interface {
	UserGraph
	ArticleSource
	InteractionLog
	TagStore
	CommentStore
	Hydrator
}

var _ Store = (*database.DB)(nil)
