//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS pages_fts USING fts5(
			href UNINDEXED,
			title,
			txt,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, href, title, txt string) error {
	_, _ = tx.Exec(`DELETE FROM pages_fts WHERE href = ?`, href)
	_, err := tx.Exec(`INSERT INTO pages_fts (href, title, txt) VALUES (?, ?, ?)`, href, title, txt)
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, href string) {
	_, _ = tx.Exec(`DELETE FROM pages_fts WHERE href = ?`, href)
}

// Search performs an FTS5 full-text search and returns hits with snippets.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT href,
		       title,
		       snippet(pages_fts, 2, '<b>', '</b>', '...', 64)
		FROM pages_fts
		WHERE pages_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Href, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
