package database

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrInvalidWeight is returned for NaN, infinite or negative image tag weights.
var ErrInvalidWeight = errors.New("invalid image tag weight")

// ValidWeight reports whether w can be stored as an image tag weight.
func ValidWeight(w float64) bool {
	return !math.IsNaN(w) && !math.IsInf(w, 0) && w >= 0
}

// SetArticleTags replaces the plain tags of an article.
func (db *DB) SetArticleTags(articleID string, tags []string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM article_tags WHERE article_id = ?", articleID); err != nil {
		return err
	}
	for _, tag := range tags {
		if _, err := tx.Exec(
			"INSERT OR IGNORE INTO article_tags (article_id, tag) VALUES (?, ?)",
			articleID, tag,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SetImageTags replaces the image tags of an article. Weights must be finite
// and non-negative.
func (db *DB) SetImageTags(articleID string, tags []ImageTag) error {
	for _, it := range tags {
		if !ValidWeight(it.Weight) {
			return fmt.Errorf("%w: %q has weight %v", ErrInvalidWeight, it.Tag, it.Weight)
		}
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM article_image_tags WHERE article_id = ?", articleID); err != nil {
		return err
	}
	for _, it := range tags {
		if _, err := tx.Exec(
			`INSERT INTO article_image_tags (article_id, tag, weight) VALUES (?, ?, ?)
			ON CONFLICT(article_id, tag) DO UPDATE SET weight = excluded.weight`,
			articleID, it.Tag, it.Weight,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetTagProfiles returns the tag profile of each given article that has at
// least one tag. Articles without tags are absent from the map.
func (db *DB) GetTagProfiles(ctx context.Context, articleIDs []string) (map[string]*TagProfile, error) {
	profiles := make(map[string]*TagProfile)
	if len(articleIDs) == 0 {
		return profiles, nil
	}
	ids, err := idList(articleIDs)
	if err != nil {
		return nil, err
	}

	profile := func(id string) *TagProfile {
		p, ok := profiles[id]
		if !ok {
			p = &TagProfile{ArticleID: id}
			profiles[id] = p
		}
		return p
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT article_id, tag FROM article_tags WHERE article_id IN `+inIDs+` ORDER BY rowid`, ids,
	)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var id, tag string
		if err := rows.Scan(&id, &tag); err != nil {
			rows.Close()
			return nil, err
		}
		p := profile(id)
		p.Tags = append(p.Tags, tag)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	rows, err = db.conn.QueryContext(ctx,
		`SELECT article_id, tag, weight FROM article_image_tags WHERE article_id IN `+inIDs+` ORDER BY rowid`, ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var it ImageTag
		if err := rows.Scan(&id, &it.Tag, &it.Weight); err != nil {
			return nil, err
		}
		p := profile(id)
		p.ImageTags = append(p.ImageTags, it)
	}
	return profiles, rows.Err()
}

// ListTags returns every distinct plain tag with its article count, most used first.
func (db *DB) ListTags(ctx context.Context) ([]TagCount, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT tag, COUNT(*) FROM article_tags GROUP BY tag`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TagCount
	for rows.Next() {
		var tc TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	return out, nil
}
