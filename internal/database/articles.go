package database

import (
	"context"
	"database/sql"
	"time"
)

const articleColumns = `a.id, a.author_id, a.title, a.body, a.scope, a.source_url,
	a.group_id, a.place_id, a.content_fetched, a.created_at, a.deleted_at`

// InsertArticle stores an article and returns its ID. An empty ID is generated
// and a zero CreatedAt becomes now. Returns "" without error when an article
// with the same SourceURL already exists.
func (db *DB) InsertArticle(a Article) (string, error) {
	if a.ID == "" {
		a.ID = newID()
	}
	if a.CreatedAt == 0 {
		a.CreatedAt = time.Now().UnixMilli()
	}
	var scope *string
	if a.Scope != "" {
		scope = &a.Scope
	}

	res, err := db.conn.Exec(
		`INSERT INTO articles (id, author_id, title, body, scope, source_url, group_id, place_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_url) DO NOTHING`,
		a.ID, a.AuthorID, a.Title, a.Body, scope, a.SourceURL, a.GroupID, a.PlaceID, a.CreatedAt,
	)
	if err != nil {
		return "", err
	}
	if n, err := res.RowsAffected(); err != nil {
		return "", err
	} else if n == 0 {
		return "", nil
	}
	return a.ID, nil
}

// AddPhoto attaches a photo URL to an article.
func (db *DB) AddPhoto(articleID, url string, position int) error {
	_, err := db.conn.Exec(
		`INSERT INTO article_photos (article_id, url, position) VALUES (?, ?, ?)`,
		articleID, url, position,
	)
	return err
}

// InsertPlace creates a place and returns its ID.
func (db *DB) InsertPlace(name string, latitude, longitude *float64) (string, error) {
	id := newID()
	_, err := db.conn.Exec(
		`INSERT INTO places (id, name, latitude, longitude) VALUES (?, ?, ?, ?)`,
		id, name, latitude, longitude,
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// SoftDeleteArticle marks an article deleted at the given epoch millis.
// Deleting an already deleted article keeps the first timestamp.
func (db *DB) SoftDeleteArticle(articleID string, at int64) error {
	_, err := db.conn.Exec(
		`UPDATE articles SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		at, articleID,
	)
	return err
}

// GetArticleByID returns a single article, deleted or not.
// Returns nil, nil when it does not exist.
func (db *DB) GetArticleByID(ctx context.Context, articleID string) (*Article, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles a WHERE a.id = ?`, articleID,
	)
	a, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListActiveArticles returns every article that is not soft-deleted, in
// insertion order. AuthorID is blanked when the author no longer exists.
func (db *DB) ListActiveArticles(ctx context.Context) ([]Article, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+articleColumns+`, u.id
		FROM articles a LEFT JOIN users u ON u.id = a.author_id
		WHERE a.deleted_at IS NULL
		ORDER BY a.rowid`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		var r articleRow
		var resolved *string
		if err := rows.Scan(append(r.dest(), &resolved)...); err != nil {
			return nil, err
		}
		a := r.article()
		if resolved == nil {
			a.AuthorID = ""
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// GetArticlesNeedingFetch returns live articles with a source URL and an empty
// body that have not been fetched yet.
func (db *DB) GetArticlesNeedingFetch(ctx context.Context) ([]Article, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+articleColumns+` FROM articles a
		WHERE a.body = '' AND a.source_url IS NOT NULL
		AND a.content_fetched = 0 AND a.deleted_at IS NULL
		ORDER BY a.created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArticles(rows)
}

// UpdateArticleBody stores fetched content and marks the article fetched.
func (db *DB) UpdateArticleBody(articleID, body string) error {
	_, err := db.conn.Exec(
		"UPDATE articles SET body = ?, content_fetched = 1 WHERE id = ?",
		body, articleID,
	)
	return err
}

// MarkArticleFetchAttempted marks that we tried to fetch content.
func (db *DB) MarkArticleFetchAttempted(articleID string) error {
	_, err := db.conn.Exec(
		"UPDATE articles SET content_fetched = 1 WHERE id = ?", articleID,
	)
	return err
}

// HydrateArticles loads live articles by ID with author, photos, group and
// place expanded. The result order is unspecified; missing IDs are omitted.
func (db *DB) HydrateArticles(ctx context.Context, articleIDs []string) ([]HydratedArticle, error) {
	if len(articleIDs) == 0 {
		return nil, nil
	}

	ids, err := idList(articleIDs)
	if err != nil {
		return nil, err
	}
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+articleColumns+`,
			u.id, u.name, u.avatar_url,
			c.id, c.name, c.kind,
			p.id, p.name, p.latitude, p.longitude
		FROM articles a
		LEFT JOIN users u ON u.id = a.author_id
		LEFT JOIN communities c ON c.id = a.group_id
		LEFT JOIN places p ON p.id = a.place_id
		WHERE a.deleted_at IS NULL AND a.id IN `+inIDs, ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HydratedArticle
	index := make(map[string]int, len(articleIDs))
	for rows.Next() {
		var r articleRow
		var authorID, authorName, groupID, groupName, groupKind, placeID, placeName *string
		var avatar *string
		var lat, lng *float64
		dest := append(r.dest(),
			&authorID, &authorName, &avatar,
			&groupID, &groupName, &groupKind,
			&placeID, &placeName, &lat, &lng,
		)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		h := HydratedArticle{Article: r.article(), Photos: []Photo{}}

		if authorID != nil {
			h.Author = &AuthorSummary{ID: *authorID, Name: deref(authorName), AvatarURL: avatar}
		} else {
			h.AuthorID = ""
		}
		if groupID != nil {
			h.Group = &Group{ID: *groupID, Name: deref(groupName), Kind: deref(groupKind)}
		}
		if placeID != nil {
			h.Place = &Place{ID: *placeID, Name: deref(placeName), Latitude: lat, Longitude: lng}
		}
		index[h.ID] = len(out)
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	photoRows, err := db.conn.QueryContext(ctx,
		`SELECT id, article_id, url, position FROM article_photos
		WHERE article_id IN `+inIDs+` ORDER BY position, id`, ids,
	)
	if err != nil {
		return nil, err
	}
	defer photoRows.Close()

	for photoRows.Next() {
		var p Photo
		var articleID string
		if err := photoRows.Scan(&p.ID, &articleID, &p.URL, &p.Position); err != nil {
			return nil, err
		}
		if i, ok := index[articleID]; ok {
			out[i].Photos = append(out[i].Photos, p)
		}
	}
	return out, photoRows.Err()
}

// articleRow holds scan targets for articleColumns.
type articleRow struct {
	a       Article
	scope   *string
	fetched int
}

func (r *articleRow) dest() []any {
	return []any{&r.a.ID, &r.a.AuthorID, &r.a.Title, &r.a.Body, &r.scope, &r.a.SourceURL,
		&r.a.GroupID, &r.a.PlaceID, &r.fetched, &r.a.CreatedAt, &r.a.DeletedAt}
}

func (r *articleRow) article() Article {
	a := r.a
	if r.scope != nil {
		a.Scope = *r.scope
	}
	a.ContentFetched = r.fetched != 0
	return a
}

func scanArticles(rows *sql.Rows) ([]Article, error) {
	var articles []Article
	for rows.Next() {
		var r articleRow
		if err := rows.Scan(r.dest()...); err != nil {
			return nil, err
		}
		articles = append(articles, r.article())
	}
	return articles, rows.Err()
}

func scanArticle(row *sql.Row) (*Article, error) {
	var r articleRow
	if err := row.Scan(r.dest()...); err != nil {
		return nil, err
	}
	a := r.article()
	return &a, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
