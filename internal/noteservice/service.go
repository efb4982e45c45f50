// Package noteservice answers questions about the note files of a library.
// Every call loads its own copy of a document; nothing is cached between
// calls.
package noteservice

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/starford/knt/internal/apperr"
	"github.com/starford/knt/internal/checksum"
	"github.com/starford/knt/internal/index"
	"github.com/starford/knt/internal/models"
	"github.com/starford/knt/internal/notefile"
	"github.com/starford/knt/internal/storage"
)

// Service coordinates storage, decoding and catalog operations.
type Service struct {
	store storage.Provider
	db    index.Catalog
	opts  []notefile.Option
}

// NewService creates a new note service. opts are passed to every load and
// save, typically a passphrase provider and a logger.
func NewService(store storage.Provider, db index.Catalog, opts ...notefile.Option) *Service {
	return &Service{store: store, db: db, opts: opts}
}

// load reads path and decodes it, returning the raw bytes alongside.
func (s *Service) load(p string) (*models.Document, []byte, error) {
	data, err := s.store.Read(p)
	if err != nil {
		return nil, nil, err
	}
	doc, err := notefile.Load(bytes.NewReader(data), s.opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", p, err)
	}
	return doc, data, nil
}

// GetDocument returns the summary of one note file.
func (s *Service) GetDocument(_ context.Context, p string) (*DocumentDetail, error) {
	doc, data, err := s.load(p)
	if err != nil {
		return nil, err
	}
	return documentDetail(p, checksum.Sum(data), doc), nil
}

// GetNote returns note id of file p with display text and raw content.
func (s *Service) GetNote(_ context.Context, p string, id int) (*NoteDetail, error) {
	doc, _, err := s.load(p)
	if err != nil {
		return nil, err
	}
	n := doc.NoteByID(id)
	if n == nil {
		return nil, fmt.Errorf("%s: note %d: %w", p, id, apperr.ErrNotFound)
	}
	return noteDetail(p, n, s.resolver(p, doc)), nil
}

// Outline returns the note and node hierarchy of file p.
func (s *Service) Outline(_ context.Context, p string) ([]OutlineNote, error) {
	doc, _, err := s.load(p)
	if err != nil {
		return nil, err
	}
	return outline(doc), nil
}

// ListFiles returns every catalogued file.
func (s *Service) ListFiles(_ context.Context) ([]models.FileSummary, error) {
	files, err := s.db.ListFiles()
	if err != nil {
		return nil, err
	}
	return nonNilSlice(files), nil
}

// Search delegates full-text search to the catalog.
func (s *Service) Search(_ context.Context, query string, limit int) ([]models.SearchResult, error) {
	if query == "" {
		return nil, fmt.Errorf("search: empty query: %w", apperr.ErrInvalidInput)
	}
	res, err := s.db.Search(query, limit)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(res), nil
}

// IndexFile decodes data and upserts it into the catalog.
// Exported so that writers outside the watcher can reuse it.
func (s *Service) IndexFile(p string, data []byte) error {
	return index.IndexFile(s.db, index.NewLoader(s.opts...), p, data, time.Now())
}

// SetBookmark stores b in slot of file p and saves the file. ifMatch, when
// set, must equal the checksum of the file on disk.
func (s *Service) SetBookmark(_ context.Context, p string, slot int, b models.Bookmark, ifMatch string) (*DocumentDetail, error) {
	if slot < 0 || slot >= models.MaxBookmarks {
		return nil, fmt.Errorf("bookmark slot %d: %w", slot, apperr.ErrInvalidInput)
	}
	return s.update(p, ifMatch, func(doc *models.Document) error {
		if doc.NoteByID(b.NoteID) == nil {
			return fmt.Errorf("%s: note %d: %w", p, b.NoteID, apperr.ErrNotFound)
		}
		doc.SetBookmark(slot, b)
		return nil
	})
}

// ClearBookmark empties slot of file p and saves the file.
func (s *Service) ClearBookmark(_ context.Context, p string, slot int, ifMatch string) (*DocumentDetail, error) {
	if slot < 0 || slot >= models.MaxBookmarks {
		return nil, fmt.Errorf("bookmark slot %d: %w", slot, apperr.ErrInvalidInput)
	}
	return s.update(p, ifMatch, func(doc *models.Document) error {
		doc.ClearBookmark(slot)
		return nil
	})
}

// update loads p, applies fn, saves and re-indexes the file.
func (s *Service) update(p, ifMatch string, fn func(*models.Document) error) (*DocumentDetail, error) {
	doc, data, err := s.load(p)
	if err != nil {
		return nil, err
	}
	if !checksum.Matches(data, ifMatch) {
		return nil, fmt.Errorf("%s: %w", p, apperr.ErrConflict)
	}
	// DartNotes has no bookmark table and flattens notes on save.
	if doc.Format == models.FormatDartNotes {
		return nil, fmt.Errorf("%s: %w: DartNotes files cannot be modified", p, apperr.ErrReadOnly)
	}
	if err := fn(doc); err != nil {
		return nil, err
	}
	if err := notefile.Save(s.store, p, doc, s.opts...); err != nil {
		return nil, err
	}
	saved, err := s.store.Read(p)
	if err != nil {
		return nil, err
	}
	if err := s.IndexFile(p, saved); err != nil {
		return nil, err
	}
	return documentDetail(p, checksum.Sum(saved), doc), nil
}

// resolver serves virtual node content. Mirror sources name another node
// of the same document; linked sources are library files next to p.
func (s *Service) resolver(p string, doc *models.Document) models.VirtualResolver {
	return models.ResolverFunc(func(source string) (string, bool) {
		for _, n := range doc.Notes {
			if n.Tree == nil {
				continue
			}
			if node := n.Tree.FindByName(source); node != nil && !node.IsVirtual() {
				return node.Content, true
			}
		}
		data, err := s.store.Read(path.Join(path.Dir(p), source))
		if err != nil {
			return "", false
		}
		return string(data), true
	})
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
