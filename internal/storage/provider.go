// Package storage defines the note library file-system abstraction.
package storage

import (
	"path/filepath"
	"strings"

	"github.com/starford/knt/internal/models"
)

// Extensions recognized as note files.
var Extensions = []string{".knt", ".kne", ".dnt"}

// IsNoteFile reports whether name carries a note file extension.
func IsNoteFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Provider is the interface for library file operations. Paths are
// relative to the library root.
type Provider interface {
	// List returns metadata for every note file under dir.
	List(dir string) ([]models.FileInfo, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically replaces the file at path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Move renames oldPath to newPath.
	Move(oldPath, newPath string) error
}
