package index

import (
	"bytes"
	"errors"
	"log/slog"
	"time"

	"github.com/starford/knt/internal/apperr"
	"github.com/starford/knt/internal/checksum"
	"github.com/starford/knt/internal/models"
	"github.com/starford/knt/internal/notefile"
	"github.com/starford/knt/internal/storage"
)

// Loader decodes the bytes of a library file.
type Loader func(path string, data []byte) (*models.Document, error)

// NewLoader returns a Loader that decodes through notefile with opts, for
// example a passphrase for encrypted files.
func NewLoader(opts ...notefile.Option) Loader {
	return func(_ string, data []byte) (*models.Document, error) {
		return notefile.Load(bytes.NewReader(data), opts...)
	}
}

// Sync walks the library and brings the catalog up to date:
//   - new and changed files are decoded and upserted
//   - files gone from disk are removed
func Sync(db *DB, store storage.Provider, load Loader, logger *slog.Logger) error {
	files, err := store.List("")
	if err != nil {
		return err
	}
	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(files))
	for _, f := range files {
		disk[f.Path] = struct{}{}
		if checksums[f.Path] == f.Checksum {
			continue
		}
		data, err := store.Read(f.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", f.Path), slog.String("error", err.Error()))
			continue
		}
		if err := IndexFile(db, load, f.Path, data, f.UpdatedAt); err != nil {
			logger.Warn("sync: index failed", slog.String("path", f.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", f.Path))
		}
	}

	for p := range checksums {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := db.DeleteFile(p); err != nil {
			logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: removed stale", slog.String("path", p))
		}
	}
	return nil
}

// IndexFile decodes data and replaces the catalog entry of path. An
// encrypted file that cannot be opened without a passphrase is
// catalogued without notes.
func IndexFile(db Catalog, load Loader, path string, data []byte, updated time.Time) error {
	if load == nil {
		load = NewLoader()
	}
	if updated.IsZero() {
		updated = time.Now()
	}
	sum := checksum.Sum(data)
	doc, err := load(path, data)
	if errors.Is(err, apperr.ErrPassphraseRequired) {
		locked := models.NewDocument()
		locked.Format = models.FormatEncrypted
		return db.UpsertFile(Summary(path, sum, locked, updated), nil)
	}
	if err != nil {
		return err
	}
	return db.UpsertFile(Summary(path, sum, doc, updated), Records(path, doc))
}
