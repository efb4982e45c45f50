package index

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/knt/internal/apperr"
	"github.com/starford/knt/internal/models"
)

// UpsertFile replaces the catalog entry of one file and all of its note
// rows within a transaction.
func (db *DB) UpsertFile(f models.FileSummary, notes []models.NoteRecord) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO files (path, checksum, format, description, note_count, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			checksum    = excluded.checksum,
			format      = excluded.format,
			description = excluded.description,
			note_count  = excluded.note_count,
			updated_at  = excluded.updated_at
	`, f.Path, f.Checksum, f.Format, f.Description, f.NoteCount, f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert file: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM notes WHERE path = ?`, f.Path); err != nil {
		return fmt.Errorf("index: clear notes: %w", err)
	}
	if len(notes) > 0 {
		stmt, err := tx.Prepare(`
			INSERT OR REPLACE INTO notes (path, note_id, node, name, kind, level, body)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare note insert: %w", err)
		}
		defer stmt.Close()
		for _, n := range notes {
			if _, err := stmt.Exec(f.Path, n.NoteID, n.Node, n.Name, n.Kind, n.Level, n.Body); err != nil {
				return fmt.Errorf("index: insert note: %w", err)
			}
		}
	}

	// No-op when FTS5 is not compiled in.
	if err := ftsReplace(tx, f.Path, notes); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteFile removes a file and its notes from the catalog.
func (db *DB) DeleteFile(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	if _, err := tx.Exec(`DELETE FROM notes WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete notes: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM files WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete file: %w", err)
	}
	return tx.Commit()
}

// GetChecksum returns the stored checksum of a file, or "" when the file
// is not catalogued.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM files WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums returns path → checksum for every catalogued file.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM files`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

const fileColumns = `path, checksum, format, description, note_count, updated_at`

func scanFile(s interface{ Scan(...any) error }) (models.FileSummary, error) {
	var f models.FileSummary
	err := s.Scan(&f.Path, &f.Checksum, &f.Format, &f.Description, &f.NoteCount, &f.UpdatedAt)
	return f, err
}

// GetFile returns the catalog entry of one file.
func (db *DB) GetFile(path string) (*models.FileSummary, error) {
	f, err := scanFile(db.conn.QueryRow(`SELECT `+fileColumns+` FROM files WHERE path = ?`, path))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: file %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get file: %w", err)
	}
	return &f, nil
}

// ListFiles returns every catalogued file ordered by path.
func (db *DB) ListFiles() ([]models.FileSummary, error) {
	rows, err := db.conn.Query(`SELECT ` + fileColumns + ` FROM files ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("index: list files: %w", err)
	}
	defer rows.Close()

	var out []models.FileSummary
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// ListNotes returns the note rows of one file in document order.
func (db *DB) ListNotes(path string) ([]models.NoteRecord, error) {
	rows, err := db.conn.Query(`
		SELECT path, note_id, node, name, kind, level, body
		FROM notes WHERE path = ?
		ORDER BY rowid`, path)
	if err != nil {
		return nil, fmt.Errorf("index: list notes: %w", err)
	}
	defer rows.Close()

	var out []models.NoteRecord
	for rows.Next() {
		var n models.NoteRecord
		if err := rows.Scan(&n.Path, &n.NoteID, &n.Node, &n.Name, &n.Kind, &n.Level, &n.Body); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
