package database

// GetStats returns row counts across the main tables.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}
	queries := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM users", &s.Users},
		{"SELECT COUNT(*) FROM articles WHERE deleted_at IS NULL", &s.Articles},
		{"SELECT COUNT(*) FROM articles WHERE deleted_at IS NOT NULL", &s.DeletedArticles},
		{`SELECT COUNT(*) FROM (
			SELECT article_id FROM article_tags
			UNION SELECT article_id FROM article_image_tags)`, &s.TaggedArticles},
		{"SELECT COUNT(*) FROM interactions", &s.Interactions},
		{"SELECT COUNT(*) FROM comments", &s.Comments},
	}
	for _, q := range queries {
		if err := db.conn.QueryRow(q.query).Scan(q.dest); err != nil {
			return nil, err
		}
	}
	return s, nil
}
