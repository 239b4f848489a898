package recommend

import (
	"context"
	"fmt"

	"github.com/TobiSchelling/socialrank/internal/database"
)

// UserTagProfile maps a tag to the user's accumulated affinity for it.
type UserTagProfile map[string]float64

// ProfileSource is what BuildUserTagProfile reads.
type ProfileSource interface {
	InteractionLog
	TagStore
}

// BuildUserTagProfile derives tag affinities from the articles a user has
// interacted with. Each distinct article counts once regardless of how many
// interactions point at it: +1 per plain tag and +weight per image tag.
func BuildUserTagProfile(ctx context.Context, store ProfileSource, userID string) (UserTagProfile, error) {
	interactions, err := store.GetInteractionsForUsers(ctx, []string{userID})
	if err != nil {
		return nil, fmt.Errorf("loading interactions: %w", err)
	}

	seen := make(map[string]struct{}, len(interactions))
	articleIDs := make([]string, 0, len(interactions))
	for _, i := range interactions {
		if _, ok := seen[i.ArticleID]; ok {
			continue
		}
		seen[i.ArticleID] = struct{}{}
		articleIDs = append(articleIDs, i.ArticleID)
	}

	profile := make(UserTagProfile)
	if len(articleIDs) == 0 {
		return profile, nil
	}

	tagProfiles, err := store.GetTagProfiles(ctx, articleIDs)
	if err != nil {
		return nil, fmt.Errorf("loading tag profiles: %w", err)
	}
	for _, id := range articleIDs {
		tp, ok := tagProfiles[id]
		if !ok || tp == nil {
			continue
		}
		for _, tag := range tp.Tags {
			profile[tag]++
		}
		for _, it := range tp.ImageTags {
			profile[it.Tag] += it.Weight
		}
	}
	return profile, nil
}

// ContentScore rates an article against the user's tag affinities.
func ContentScore(article *database.TagProfile, user UserTagProfile) float64 {
	if article == nil || len(user) == 0 {
		return 0
	}
	var score float64
	for _, tag := range article.Tags {
		score += user[tag]
	}
	for _, it := range article.ImageTags {
		score += user[it.Tag] * it.Weight
	}
	return score
}
