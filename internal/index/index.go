package index

import "github.com/starford/knt/internal/models"

// Catalog is the read/write surface of the note catalog. Consumers depend
// on it rather than on *DB.
type Catalog interface {
	UpsertFile(f models.FileSummary, notes []models.NoteRecord) error
	DeleteFile(path string) error
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	GetFile(path string) (*models.FileSummary, error)
	ListFiles() ([]models.FileSummary, error)
	ListNotes(path string) ([]models.NoteRecord, error)
	Search(query string, limit int) ([]models.SearchResult, error)
	Close() error
}

var _ Catalog = (*DB)(nil)
