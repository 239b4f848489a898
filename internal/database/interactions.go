package database

import (
	"context"
	"time"
)

// RecordInteraction stores a view or like. Returns the interaction ID.
func (db *DB) RecordInteraction(userID, articleID, action string) (string, error) {
	id := newID()
	_, err := db.conn.Exec(
		`INSERT INTO interactions (id, user_id, article_id, action, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		id, userID, articleID, action, time.Now().UnixMilli(),
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetInteractionsForUsers returns every interaction performed by any of the
// given users, oldest first.
func (db *DB) GetInteractionsForUsers(ctx context.Context, userIDs []string) ([]Interaction, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	ids, err := idList(userIDs)
	if err != nil {
		return nil, err
	}
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, article_id, action, created_at FROM interactions
		WHERE user_id IN `+inIDs+` ORDER BY rowid`, ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Interaction
	for rows.Next() {
		var i Interaction
		if err := rows.Scan(&i.ID, &i.UserID, &i.ArticleID, &i.Action, &i.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}
