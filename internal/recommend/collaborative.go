package recommend

import (
	"context"
	"fmt"

	"github.com/TobiSchelling/socialrank/internal/database"
)

const (
	viewWeight     = 1.0
	likeWeight     = 2.0
	selfMultiplier = 2.0
	peerMultiplier = 0.5
)

// CollaborativeScores sums weighted interactions per article across the
// requester, their friends and the users they follow. Likes count double
// views, and the requester's own actions count four times a peer's.
func CollaborativeScores(ctx context.Context, log InteractionLog, requesterID string, friends, following []string) (map[string]float64, error) {
	users := socialCircle(requesterID, friends, following)

	interactions, err := log.GetInteractionsForUsers(ctx, users)
	if err != nil {
		return nil, fmt.Errorf("loading interactions: %w", err)
	}

	scores := make(map[string]float64)
	for _, i := range interactions {
		w := actionWeight(i.Action)
		if w == 0 {
			continue
		}
		if i.UserID == requesterID {
			w *= selfMultiplier
		} else {
			w *= peerMultiplier
		}
		scores[i.ArticleID] += w
	}
	return scores, nil
}

// socialCircle returns the requester followed by friends and followees,
// without duplicates.
func socialCircle(requesterID string, friends, following []string) []string {
	seen := map[string]struct{}{requesterID: {}}
	users := []string{requesterID}
	for _, list := range [][]string{friends, following} {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			users = append(users, id)
		}
	}
	return users
}

func actionWeight(action string) float64 {
	switch action {
	case database.ActionView:
		return viewWeight
	case database.ActionLike:
		return likeWeight
	default:
		return 0
	}
}
