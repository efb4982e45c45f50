// Package notefile loads and saves note files in any supported container:
// plain KeyNote, encrypted KeyNote and DartNotes.
package notefile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/starford/knt/internal/apperr"
	"github.com/starford/knt/internal/crypt"
	"github.com/starford/knt/internal/dartnotes"
	"github.com/starford/knt/internal/format"
	"github.com/starford/knt/internal/models"
	"github.com/starford/knt/internal/parser"
	"github.com/starford/knt/internal/storage"
)

// Load decodes a whole note file. Identifiers are verified and the active
// note index is normalized before the document is returned.
func Load(r io.Reader, opts ...Option) (*models.Document, error) {
	o := newOptions(opts)
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("notefile: read: %w", err)
	}
	doc, err := decode(data, o)
	if err != nil {
		return nil, err
	}
	assigned := doc.VerifyNoteIDs()
	doc.NormalizeActiveNote()
	o.logger.Debug("note file decoded",
		slog.String("format", doc.Format.String()),
		slog.String("version", doc.Version.String()),
		slog.Int("notes", doc.NoteCount()),
		slog.Int("assigned_ids", assigned),
	)
	return doc, nil
}

// Open loads the file at path.
func Open(path string, opts ...Option) (*models.Document, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("notefile: open %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("notefile: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f, opts...)
}

// Read loads the library file at path through store.
func Read(store storage.Provider, path string, opts ...Option) (*models.Document, error) {
	data, err := store.Read(path)
	if err != nil {
		return nil, err
	}
	doc, err := Load(bytes.NewReader(data), opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

func window(data []byte) []byte {
	if len(data) > format.HeaderSize {
		return data[:format.HeaderSize]
	}
	return data
}

func decode(data []byte, o *options) (*models.Document, error) {
	f, err := format.Detect(window(data))
	if err != nil {
		return nil, fmt.Errorf("notefile: %w", err)
	}
	switch f {
	case models.FormatEncrypted:
		return decodeEncrypted(data, o)
	case models.FormatDartNotes:
		doc, err := dartnotes.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("notefile: %w", err)
		}
		return doc, nil
	}
	return decodePlain(data, o)
}

func decodePlain(data []byte, o *options) (*models.Document, error) {
	v, err := format.CheckVersion(window(data))
	if err != nil {
		return nil, fmt.Errorf("notefile: %w", err)
	}
	doc, err := parser.Parse(bytes.NewReader(data),
		parser.WithObserver(o.observer),
		parser.WithClock(o.now),
	)
	if err != nil {
		return nil, fmt.Errorf("notefile: %w", err)
	}
	doc.Format = models.FormatKeyNote
	doc.Version = v
	return doc, nil
}

// decodeEncrypted opens "GFKNE x.y\n" followed by the crypt container. The
// plaintext must itself be a KeyNote stream.
func decodeEncrypted(data []byte, o *options) (*models.Document, error) {
	if _, err := format.CheckVersion(window(data)); err != nil {
		return nil, fmt.Errorf("notefile: %w", err)
	}
	pass, ok := o.passphrase.Passphrase()
	if !ok || pass == "" {
		return nil, fmt.Errorf("notefile: %w", apperr.ErrPassphraseRequired)
	}
	_, payload, found := bytes.Cut(data, []byte("\n"))
	if !found {
		return nil, fmt.Errorf("notefile: %w: missing payload", apperr.ErrDecryptionFailed)
	}

	plain, err := crypt.Decrypt(payload, pass)
	if err != nil {
		return nil, fmt.Errorf("notefile: decrypt: %w", err)
	}
	defer clear(plain)

	if f, err := format.Detect(window(plain)); err != nil || f != models.FormatKeyNote {
		return nil, fmt.Errorf("notefile: decrypt: %w: plaintext is not a KeyNote stream", apperr.ErrDecryptionFailed)
	}
	doc, err := decodePlain(plain, o)
	if err != nil {
		return nil, err
	}
	doc.Format = models.FormatEncrypted
	doc.CryptMethod = crypt.Method
	return doc, nil
}

// Encode writes doc in the container selected by doc.Format.
func Encode(w io.Writer, doc *models.Document, opts ...Option) error {
	o := newOptions(opts)
	switch doc.Format {
	case models.FormatDartNotes:
		if err := dartnotes.Encode(w, doc); err != nil {
			return fmt.Errorf("notefile: %w", err)
		}
		return nil
	case models.FormatEncrypted:
		return encodeEncrypted(w, doc, o)
	}
	if err := parser.Encode(w, doc); err != nil {
		return fmt.Errorf("notefile: %w", err)
	}
	return nil
}

func encodeEncrypted(w io.Writer, doc *models.Document, o *options) error {
	pass, ok := o.passphrase.Passphrase()
	if !ok || pass == "" {
		return fmt.Errorf("notefile: %w", apperr.ErrPassphraseRequired)
	}
	var plain bytes.Buffer
	if err := parser.Encode(&plain, doc); err != nil {
		return fmt.Errorf("notefile: %w", err)
	}
	sealed, err := crypt.Encrypt(plain.Bytes(), pass)
	clear(plain.Bytes())
	if err != nil {
		return fmt.Errorf("notefile: encrypt: %w", err)
	}

	header := format.HeaderLine(models.FormatEncrypted, models.CurrentVersion()) + "\n"
	if _, err := io.WriteString(w, header); err != nil {
		return fmt.Errorf("notefile: write: %w", err)
	}
	if _, err := w.Write(sealed); err != nil {
		return fmt.Errorf("notefile: write: %w", err)
	}
	return nil
}

// Save encodes doc and writes it atomically to path through store.
func Save(store storage.Provider, path string, doc *models.Document, opts ...Option) error {
	if doc.ReadOnly {
		return fmt.Errorf("notefile: save %s: %w", path, apperr.ErrReadOnly)
	}
	var buf bytes.Buffer
	if err := Encode(&buf, doc, opts...); err != nil {
		return err
	}
	if err := store.Write(path, buf.Bytes()); err != nil {
		return fmt.Errorf("notefile: save %s: %w", path, err)
	}
	newOptions(opts).logger.Debug("note file saved",
		slog.String("path", path),
		slog.String("format", doc.Format.String()),
		slog.Int("bytes", buf.Len()),
	)
	return nil
}
