package notefile

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/knt/internal/apperr"
	"github.com/starford/knt/internal/models"
	"github.com/starford/knt/internal/storage"
)

const sample = "GFKNT 2.0\n#D My file\n%-\nTT=Note1\n%+\nTT=Sec1\nhello\n%-\n%%\n"

func load(t *testing.T, s string, opts ...Option) *models.Document {
	t.Helper()
	doc, err := Load(strings.NewReader(s), opts...)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return doc
}

func TestLoad_PlainKeyNote(t *testing.T) {
	doc := load(t, sample)
	if doc.Format != models.FormatKeyNote || doc.Version != models.CurrentVersion() {
		t.Errorf("format/version = %s %s", doc.Format, doc.Version)
	}
	if doc.Description != "My file" || doc.NoteCount() != 1 {
		t.Fatalf("doc = %q with %d notes", doc.Description, doc.NoteCount())
	}
	n := doc.Notes[0]
	if n.Name != "Note1" || n.ID != 1 {
		t.Errorf("note = %q id %d", n.Name, n.ID)
	}
	if len(n.Sections) != 1 || n.Sections[0].Title != "Sec1" || n.Sections[0].Content != "hello" {
		t.Errorf("sections = %+v", n.Sections)
	}
}

func TestLoad_AssignsMissingIDs(t *testing.T) {
	doc := load(t, "GFKNT 2.0\n%-\nTT=a\n%-\nTT=b\nID=5\n%-\nTT=c\nID=0\n%%\n")
	want := []int{6, 5, 7}
	for i, n := range doc.Notes {
		if n.ID != want[i] {
			t.Errorf("note %s id = %d, want %d", n.Name, n.ID, want[i])
		}
	}
}

func TestLoad_NormalizesActiveNote(t *testing.T) {
	doc := load(t, "GFKNT 2.0\n#$ 4\n%-\nTT=a\n%%\n")
	if doc.ActiveNote != models.NoActiveNote {
		t.Errorf("active = %d, want none", doc.ActiveNote)
	}
}

func TestLoad_Errors(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want error
	}{
		{"garbage", "this is not a note file at all", apperr.ErrUnrecognizedFormat},
		{"empty", "", apperr.ErrUnrecognizedFormat},
		{"newer major", "GFKNT 3.0\n%%\n", apperr.ErrIncompatibleVersion},
		{"dart header", "5\nhello", apperr.ErrInvalidContainerHeader},
		{"dart length overflow", "16\n_DART_ID\x001\x00\x000\n999999999999999999\n", apperr.ErrMalformedRecord},
		{"encrypted without passphrase", "GFKNE 2.0\n" + strings.Repeat("x", 32), apperr.ErrPassphraseRequired},
	}
	for _, c := range cases {
		if _, err := Load(strings.NewReader(c.in)); !errors.Is(err, c.want) {
			t.Errorf("%s: err = %v, want %v", c.name, err, c.want)
		}
	}
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.knt"))
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func encrypted(t *testing.T, pass string) []byte {
	t.Helper()
	doc := load(t, sample)
	doc.Format = models.FormatEncrypted
	var buf bytes.Buffer
	if err := Encode(&buf, doc, WithPassphrase(pass)); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return buf.Bytes()
}

func TestEncrypted_RoundTrip(t *testing.T) {
	data := encrypted(t, "open sesame")
	if !bytes.HasPrefix(data, []byte("GFKNE 2.0\n")) {
		t.Fatalf("missing tag line: %q", data[:12])
	}
	if bytes.Contains(data, []byte("Note1")) {
		t.Fatal("plaintext leaked into the encrypted file")
	}

	asked := 0
	provider := PassphraseFunc(func() (string, bool) {
		asked++
		return "open sesame", true
	})
	doc, err := Load(bytes.NewReader(data), WithPassphraseProvider(provider))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if asked != 1 {
		t.Errorf("passphrase asked %d times", asked)
	}
	if doc.Format != models.FormatEncrypted || doc.CryptMethod != "AES-256-CBC" {
		t.Errorf("format = %s method = %q", doc.Format, doc.CryptMethod)
	}
	if doc.NoteCount() != 1 || doc.Notes[0].Sections[0].Content != "hello" {
		t.Errorf("notes = %+v", doc.Notes)
	}
}

func TestEncrypted_WrongPassphrase(t *testing.T) {
	data := encrypted(t, "right")
	_, err := Load(bytes.NewReader(data), WithPassphrase("wrong"))
	if !errors.Is(err, apperr.ErrDecryptionFailed) {
		t.Errorf("err = %v, want ErrDecryptionFailed", err)
	}
}

func TestEncrypted_DeclinedPrompt(t *testing.T) {
	data := encrypted(t, "right")
	declined := PassphraseFunc(func() (string, bool) { return "", false })
	if _, err := Load(bytes.NewReader(data), WithPassphraseProvider(declined)); !errors.Is(err, apperr.ErrPassphraseRequired) {
		t.Errorf("err = %v, want ErrPassphraseRequired", err)
	}
}

func TestPlain_DoesNotAskForPassphrase(t *testing.T) {
	provider := PassphraseFunc(func() (string, bool) {
		t.Error("passphrase requested for a plain file")
		return "", false
	})
	load(t, sample, WithPassphraseProvider(provider))
}

func TestEncode_EncryptedNeedsPassphrase(t *testing.T) {
	doc := models.NewDocument()
	doc.Format = models.FormatEncrypted
	if err := Encode(&bytes.Buffer{}, doc); !errors.Is(err, apperr.ErrPassphraseRequired) {
		t.Errorf("err = %v, want ErrPassphraseRequired", err)
	}
}

func TestDartNotes_ThroughLoad(t *testing.T) {
	doc := load(t, sample)
	doc.Format = models.FormatDartNotes
	var buf bytes.Buffer
	if err := Encode(&buf, doc); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, err := Load(&buf)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if out.Format != models.FormatDartNotes || out.NoteCount() != 1 || out.Notes[0].ID != 1 {
		t.Fatalf("doc = %s %d notes", out.Format, out.NoteCount())
	}
	if got := out.Notes[0].Sections[0].Content; got != "hello" {
		t.Errorf("content = %q", got)
	}
}

func TestSaveAndRead(t *testing.T) {
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	doc := load(t, sample)
	doc.Notes[0].AddSection("Sec2", "world")
	if err := Save(store, "sub/notes.knt", doc); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out, err := Read(store, "sub/notes.knt")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(out.Notes[0].Sections) != 2 || out.Notes[0].Sections[1].Content != "world" {
		t.Errorf("sections = %+v", out.Notes[0].Sections)
	}

	if _, err := Read(store, "absent.knt"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSave_ReadOnly(t *testing.T) {
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	doc := load(t, "GFKNT 2.0\n#^ 1000\n%-\nTT=a\n%%\n")
	if !doc.ReadOnly {
		t.Fatal("document should be read-only")
	}
	if err := Save(store, "ro.knt", doc); !errors.Is(err, apperr.ErrReadOnly) {
		t.Errorf("err = %v, want ErrReadOnly", err)
	}
}
