// Package testutil provides shared test helpers for note libraries and
// catalogs.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/knt/internal/index"
	"github.com/starford/knt/internal/storage"
)

// SampleNote is a small plain KeyNote file with one flat and one tree note.
const SampleNote = "GFKNT 2.0\n" +
	"#D Sample library file\n" +
	"#$ 0\n" +
	"#!RTF!#\n%-\nTT=Inbox\nID=1\n%+\nTT=Today\n%:\nbuy milk\n" +
	"#!TRE!#\n%-\nTT=Projects\nID=2\n" +
	"#!BeginNode!#\nND=Garden\nLV=0\n%:\nplant tomatoes\n#!EndNode!#\n" +
	"#!BeginNode!#\nND=Seeds\nLV=1\n%:\norder seeds\n#!EndNode!#\n" +
	"%%\n"

// TestDB creates a temporary SQLite catalog that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "knt-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestLibrary creates a temporary library directory with a storage.Provider.
func TestLibrary(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// WriteFile writes content to rel under dir, creating parents.
func WriteFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
