package recommend

import (
	"github.com/TobiSchelling/socialrank/internal/database"
	"github.com/TobiSchelling/socialrank/internal/logging"
	"github.com/TobiSchelling/socialrank/internal/metrics"
)

// FilterVisible keeps the articles the requester may see, preserving order.
// An unset scope counts as public. Unknown scopes are hidden. Articles whose
// author does not resolve are dropped with a warning and counted in the
// returned skip count.
func FilterVisible(requesterID string, friends map[string]struct{}, articles []database.Article) ([]database.Article, int) {
	visible := make([]database.Article, 0, len(articles))
	skipped := 0

	for _, a := range articles {
		if a.AuthorID == "" {
			skipped++
			metrics.ArticlesSkipped.WithLabelValues("missing_author").Inc()
			logging.Warn().
				Str("component", "recommend").
				Str("article_id", a.ID).
				Msg("skipping article with unresolved author")
			continue
		}
		if canSee(requesterID, friends, a) {
			visible = append(visible, a)
		}
	}
	return visible, skipped
}

func canSee(requesterID string, friends map[string]struct{}, a database.Article) bool {
	switch a.Scope {
	case "", database.ScopePublic:
		return true
	case database.ScopeFriends:
		_, ok := friends[a.AuthorID]
		return ok
	case database.ScopePrivate:
		return a.AuthorID == requesterID
	default:
		return false
	}
}
