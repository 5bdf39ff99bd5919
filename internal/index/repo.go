package index

import (
	"fmt"
	"time"

	"github.com/starford/vellum/internal/models"
	"github.com/starford/vellum/internal/render"
)

// PageRow represents a row in the pages table.
type PageRow struct {
	Href      string    `json:"href"`
	Title     string    `json:"title,omitempty"`
	File      string    `json:"file,omitempty"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SearchResult represents one search hit.
type SearchResult struct {
	Href    string `json:"href"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// UpsertPage inserts or replaces a page, its FTS entry and its outgoing
// links within a transaction. Link order is kept.
func (db *DB) UpsertPage(p PageRow, txt string, links []models.LinkRef) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO pages (href, title, file, checksum, txt, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(href) DO UPDATE SET
			title      = excluded.title,
			file       = excluded.file,
			checksum   = excluded.checksum,
			txt        = excluded.txt,
			updated_at = excluded.updated_at
	`, p.Href, p.Title, p.File, p.Checksum, txt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert page: %w", err)
	}

	if err := ftsUpsert(tx, p.Href, p.Title, txt); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM links WHERE source = ?`, p.Href); err != nil {
		return fmt.Errorf("index: clear links: %w", err)
	}
	if len(links) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO links (source, seq, target, title, text) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare link insert: %w", err)
		}
		defer stmt.Close()
		for i, l := range links {
			if _, err := stmt.Exec(p.Href, i, l.Href, l.Title, l.Text); err != nil {
				return fmt.Errorf("index: insert link: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeletePage removes a page, its FTS entry and its outgoing links.
func (db *DB) DeletePage(href string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, href)
	if _, err := tx.Exec(`DELETE FROM links WHERE source = ?`, href); err != nil {
		return fmt.Errorf("index: delete links %s: %w", href, err)
	}
	if _, err := tx.Exec(`DELETE FROM pages WHERE href = ?`, href); err != nil {
		return fmt.Errorf("index: delete page %s: %w", href, err)
	}

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a page, or "" if not found.
func (db *DB) GetChecksum(href string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM pages WHERE href = ?`, href).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// AllChecksums returns the checksum of every indexed page by href.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT href, checksum FROM pages`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var h, cs string
		if err := rows.Scan(&h, &cs); err != nil {
			return nil, err
		}
		out[h] = cs
	}
	return out, rows.Err()
}

// ListPages returns every indexed page ordered by href.
func (db *DB) ListPages() ([]PageRow, error) {
	rows, err := db.conn.Query(`SELECT href, title, file, checksum, updated_at FROM pages ORDER BY href`)
	if err != nil {
		return nil, fmt.Errorf("index: list pages: %w", err)
	}
	defer rows.Close()
	var out []PageRow
	for rows.Next() {
		var r PageRow
		if err := rows.Scan(&r.Href, &r.Title, &r.File, &r.Checksum, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LinksFrom returns the links of a page in document order.
func (db *DB) LinksFrom(source string) ([]models.LinkRef, error) {
	rows, err := db.conn.Query(`SELECT target, title, text FROM links WHERE source = ? ORDER BY seq`, source)
	if err != nil {
		return nil, fmt.Errorf("index: links from: %w", err)
	}
	defer rows.Close()
	var out []models.LinkRef
	for rows.Next() {
		var l models.LinkRef
		if err := rows.Scan(&l.Href, &l.Title, &l.Text); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Backlinks returns the distinct hrefs of pages that link to target.
func (db *DB) Backlinks(target string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT DISTINCT source FROM links WHERE target = ? ORDER BY source`, target)
	if err != nil {
		return nil, fmt.Errorf("index: backlinks: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ReplaceImages replaces the stored image inventory with inv.
func (db *DB) ReplaceImages(inv render.Inventory) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM images`); err != nil {
		return fmt.Errorf("index: clear images: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO images (url, seq, page) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("index: prepare image insert: %w", err)
	}
	defer stmt.Close()
	for url, pages := range inv {
		for i, page := range pages {
			if _, err := stmt.Exec(url, i, page); err != nil {
				return fmt.Errorf("index: insert image: %w", err)
			}
		}
	}
	return tx.Commit()
}

// ImageRefs returns the pages referencing url in scan order.
func (db *DB) ImageRefs(url string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT page FROM images WHERE url = ? ORDER BY seq`, url)
	if err != nil {
		return nil, fmt.Errorf("index: image refs: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Images returns the stored inventory.
func (db *DB) Images() (render.Inventory, error) {
	rows, err := db.conn.Query(`SELECT url, page FROM images ORDER BY url, seq`)
	if err != nil {
		return nil, fmt.Errorf("index: images: %w", err)
	}
	defer rows.Close()
	inv := render.Inventory{}
	for rows.Next() {
		var url, page string
		if err := rows.Scan(&url, &page); err != nil {
			return nil, err
		}
		inv[url] = append(inv[url], page)
	}
	return inv, rows.Err()
}
