// Package index keeps a SQLite catalog of the note files in a library,
// with optional FTS5 full-text search over note bodies.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS files (
	path        TEXT PRIMARY KEY,
	checksum    TEXT NOT NULL DEFAULT '',
	format      TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	note_count  INTEGER NOT NULL DEFAULT 0,
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS notes (
	path    TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
	note_id INTEGER NOT NULL,
	node    INTEGER NOT NULL DEFAULT -1,
	name    TEXT NOT NULL DEFAULT '',
	kind    TEXT NOT NULL DEFAULT 'flat',
	level   INTEGER NOT NULL DEFAULT 0,
	body    TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (path, note_id, node)
);

CREATE INDEX IF NOT EXISTS idx_notes_path ON notes(path);
`

// DB wraps a sql.DB with catalog operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
