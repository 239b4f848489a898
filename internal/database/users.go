package database

import (
	"context"
	"database/sql"
	"fmt"
)

// InsertUser creates a user. An empty id gets a generated one.
// Returns the user ID.
func (db *DB) InsertUser(id, name string, avatarURL *string) (string, error) {
	if id == "" {
		id = newID()
	}
	_, err := db.conn.Exec(
		`INSERT INTO users (id, name, avatar_url) VALUES (?, ?, ?)`,
		id, name, avatarURL,
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// AddFriendship links two users as friends in both directions.
func (db *DB) AddFriendship(userID, friendID string) error {
	if userID == friendID {
		return fmt.Errorf("user %s cannot befriend themselves", userID)
	}
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, pair := range [][2]string{{userID, friendID}, {friendID, userID}} {
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO friendships (user_id, friend_id) VALUES (?, ?)`,
			pair[0], pair[1],
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Follow records that follower follows followee. Following is one-directional.
func (db *DB) Follow(followerID, followeeID string) error {
	if followerID == followeeID {
		return fmt.Errorf("user %s cannot follow themselves", followerID)
	}
	_, err := db.conn.Exec(
		`INSERT OR IGNORE INTO follows (follower_id, followee_id) VALUES (?, ?)`,
		followerID, followeeID,
	)
	return err
}

// InsertGroup creates a group or page. Returns the new ID.
func (db *DB) InsertGroup(name, kind string) (string, error) {
	id := newID()
	_, err := db.conn.Exec(
		`INSERT INTO communities (id, name, kind) VALUES (?, ?, ?)`,
		id, name, kind,
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// JoinGroup adds a user to a group or page.
func (db *DB) JoinGroup(groupID, userID string) error {
	_, err := db.conn.Exec(
		`INSERT OR IGNORE INTO community_members (community_id, user_id) VALUES (?, ?)`,
		groupID, userID,
	)
	return err
}

// GetUser returns a user with friends, following, groups and pages loaded.
// Returns nil, nil when the user does not exist.
func (db *DB) GetUser(ctx context.Context, userID string) (*User, error) {
	var u User
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, avatar_url, created_at FROM users WHERE id = ?`, userID,
	).Scan(&u.ID, &u.Name, &u.AvatarURL, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if u.Friends, err = db.queryIDs(ctx,
		`SELECT friend_id FROM friendships WHERE user_id = ? ORDER BY rowid`, userID); err != nil {
		return nil, fmt.Errorf("loading friends: %w", err)
	}
	if u.Following, err = db.queryIDs(ctx,
		`SELECT followee_id FROM follows WHERE follower_id = ? ORDER BY rowid`, userID); err != nil {
		return nil, fmt.Errorf("loading following: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT c.id, c.kind FROM communities c
		JOIN community_members m ON m.community_id = c.id
		WHERE m.user_id = ? ORDER BY m.rowid`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("loading memberships: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, kind string
		if err := rows.Scan(&id, &kind); err != nil {
			return nil, err
		}
		if kind == KindPage {
			u.Pages = append(u.Pages, id)
		} else {
			u.Groups = append(u.Groups, id)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &u, nil
}

func (db *DB) queryIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
