package database

import (
	"context"
	"time"
)

// InsertComment stores a comment and returns its ID.
func (db *DB) InsertComment(authorID, articleID, body string) (string, error) {
	id := newID()
	_, err := db.conn.Exec(
		`INSERT INTO comments (id, author_id, article_id, body, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, authorID, articleID, body, time.Now().UnixMilli(),
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetCommentsByAuthor returns all comments written by a user, oldest first.
func (db *DB) GetCommentsByAuthor(ctx context.Context, authorID string) ([]Comment, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, author_id, article_id, body, created_at FROM comments
		WHERE author_id = ? ORDER BY rowid`, authorID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.AuthorID, &c.ArticleID, &c.Body, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
