//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"

	"github.com/starford/knt/internal/models"
)

func initFTS(_ *sql.DB) error {
	// Without FTS5 search runs LIKE over notes.name and notes.body.
	return nil
}

func ftsReplace(_ *sql.Tx, _ string, _ []models.NoteRecord) error {
	return nil
}

func ftsDelete(_ *sql.Tx, _ string) {}

// Search matches query as a substring of note names and bodies.
func (db *DB) Search(query string, limit int) ([]models.SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT path, note_id, node, name, substr(body, 1, 200)
		FROM notes
		WHERE name LIKE ? OR body LIKE ?
		ORDER BY path, rowid
		LIMIT ?
	`, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []models.SearchResult
	for rows.Next() {
		var r models.SearchResult
		if err := rows.Scan(&r.Path, &r.NoteID, &r.Node, &r.Name, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
