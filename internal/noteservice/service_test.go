package noteservice

import (
	"context"
	"errors"
	"testing"

	"github.com/starford/knt/internal/apperr"
	"github.com/starford/knt/internal/checksum"
	"github.com/starford/knt/internal/index"
	"github.com/starford/knt/internal/models"
	"github.com/starford/knt/internal/storage"
	"github.com/starford/knt/internal/testutil"
)

func setup(t *testing.T) (*Service, storage.Provider, *index.DB, string) {
	t.Helper()
	dir, store := testutil.TestLibrary(t)
	db := testutil.TestDB(t)
	testutil.WriteFile(t, dir, "sample.knt", testutil.SampleNote)
	return NewService(store, db), store, db, dir
}

func TestGetDocument(t *testing.T) {
	svc, _, _, _ := setup(t)
	doc, err := svc.GetDocument(context.Background(), "sample.knt")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if doc.Format != "keynote" || doc.Version != "2.0" || doc.Description != "Sample library file" {
		t.Errorf("doc = %+v", doc)
	}
	if doc.Checksum != checksum.Sum([]byte(testutil.SampleNote)) {
		t.Errorf("checksum = %q", doc.Checksum)
	}
	if len(doc.Notes) != 2 || doc.Notes[1].Kind != "tree" || doc.Notes[1].Nodes != 2 {
		t.Errorf("notes = %+v", doc.Notes)
	}
	if doc.ActiveNote != 0 || len(doc.Bookmarks) != 0 {
		t.Errorf("active = %d bookmarks = %+v", doc.ActiveNote, doc.Bookmarks)
	}
}

func TestGetDocument_Missing(t *testing.T) {
	svc, _, _, _ := setup(t)
	if _, err := svc.GetDocument(context.Background(), "nope.knt"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGetNote(t *testing.T) {
	svc, _, _, _ := setup(t)
	ctx := context.Background()

	flat, err := svc.GetNote(ctx, "sample.knt", 1)
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if flat.Name != "Inbox" || len(flat.Sections) != 1 {
		t.Fatalf("flat = %+v", flat)
	}
	if s := flat.Sections[0]; s.Title != "Today" || s.Text != "buy milk" || s.RTF {
		t.Errorf("section = %+v", s)
	}

	tree, err := svc.GetNote(ctx, "sample.knt", 2)
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if len(tree.Nodes) != 2 {
		t.Fatalf("nodes = %+v", tree.Nodes)
	}
	if n := tree.Nodes[1]; n.Name != "Seeds" || n.Level != 1 || n.Parent != tree.Nodes[0].ID || n.Text != "order seeds" {
		t.Errorf("child = %+v", n)
	}

	if _, err := svc.GetNote(ctx, "sample.knt", 99); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGetNote_VirtualNodes(t *testing.T) {
	svc, _, _, dir := setup(t)
	testutil.WriteFile(t, dir, "docs/linked.txt", "from disk")
	testutil.WriteFile(t, dir, "docs/virtual.knt", "GFKNT 2.0\n#!TRE!#\n%-\nTT=t\nID=1\n"+
		"#!BeginNode!#\nND=Source\n%:\noriginal\n#!EndNode!#\n"+
		"#!BeginNode!#\nND=Copy\nVM=mirror\nVF=Source\n%:\nstale\n#!EndNode!#\n"+
		"#!BeginNode!#\nND=File\n#!VirtualNode!#\nVF=linked.txt\n#!EndNode!#\n"+
		"#!BeginNode!#\nND=Gone\n#!VirtualNode!#\nVF=missing.txt\n%:\nkept\n#!EndNode!#\n%%\n")

	n, err := svc.GetNote(context.Background(), "docs/virtual.knt", 1)
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	want := map[string]string{"Source": "original", "Copy": "original", "File": "from disk", "Gone": "kept"}
	for _, node := range n.Nodes {
		if node.Text != want[node.Name] {
			t.Errorf("%s text = %q, want %q", node.Name, node.Text, want[node.Name])
		}
	}
	if n.Nodes[1].Virtual != "mirror" || n.Nodes[1].Source != "Source" {
		t.Errorf("copy = %+v", n.Nodes[1])
	}
}

func TestOutline(t *testing.T) {
	svc, _, _, _ := setup(t)
	out, err := svc.Outline(context.Background(), "sample.knt")
	if err != nil {
		t.Fatalf("Outline: %v", err)
	}
	if len(out) != 2 || len(out[0].Nodes) != 0 {
		t.Fatalf("outline = %+v", out)
	}
	roots := out[1].Nodes
	if len(roots) != 1 || roots[0].Name != "Garden" || len(roots[0].Children) != 1 || roots[0].Children[0].Name != "Seeds" {
		t.Errorf("tree outline = %+v", roots)
	}
}

func TestListFilesAndSearch(t *testing.T) {
	svc, _, _, _ := setup(t)
	ctx := context.Background()

	files, err := svc.ListFiles(ctx)
	if err != nil || files == nil || len(files) != 0 {
		t.Fatalf("ListFiles before indexing = %v, %v", files, err)
	}
	if err := svc.IndexFile("sample.knt", []byte(testutil.SampleNote)); err != nil {
		t.Fatalf("IndexFile: %v", err)
	}
	files, _ = svc.ListFiles(ctx)
	if len(files) != 1 || files[0].NoteCount != 2 {
		t.Errorf("files = %+v", files)
	}

	hits, err := svc.Search(ctx, "tomatoes", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].Name != "Garden" || hits[0].NoteID != 2 {
		t.Errorf("hits = %+v", hits)
	}
	if _, err := svc.Search(ctx, "", 10); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestSetBookmark(t *testing.T) {
	svc, store, db, _ := setup(t)
	ctx := context.Background()

	doc, err := svc.SetBookmark(ctx, "sample.knt", 3, models.Bookmark{Name: "seeds", NoteID: 2, Position: 7}, "")
	if err != nil {
		t.Fatalf("SetBookmark: %v", err)
	}
	if len(doc.Bookmarks) != 1 || doc.Bookmarks[0].Slot != 3 || doc.Bookmarks[0].Name != "seeds" {
		t.Errorf("bookmarks = %+v", doc.Bookmarks)
	}

	data, _ := store.Read("sample.knt")
	if cs, _ := db.GetChecksum("sample.knt"); cs != checksum.Sum(data) {
		t.Errorf("catalog checksum %q does not match saved file", cs)
	}
	again, _ := svc.GetDocument(ctx, "sample.knt")
	if len(again.Bookmarks) != 1 || again.Bookmarks[0].Position != 7 {
		t.Errorf("bookmark not persisted: %+v", again.Bookmarks)
	}

	cleared, err := svc.ClearBookmark(ctx, "sample.knt", 3, again.Checksum)
	if err != nil {
		t.Fatalf("ClearBookmark: %v", err)
	}
	if len(cleared.Bookmarks) != 0 {
		t.Errorf("bookmarks = %+v", cleared.Bookmarks)
	}
}

func TestSetBookmark_Errors(t *testing.T) {
	svc, _, _, dir := setup(t)
	ctx := context.Background()
	cases := []struct {
		name  string
		path  string
		slot  int
		note  int
		match string
		want  error
	}{
		{"slot too high", "sample.knt", models.MaxBookmarks, 1, "", apperr.ErrInvalidInput},
		{"negative slot", "sample.knt", -1, 1, "", apperr.ErrInvalidInput},
		{"unknown note", "sample.knt", 0, 42, "", apperr.ErrNotFound},
		{"stale checksum", "sample.knt", 0, 1, "deadbeef", apperr.ErrConflict},
		{"missing file", "none.knt", 0, 1, "", apperr.ErrNotFound},
		{"read-only", "ro.knt", 0, 1, "", apperr.ErrReadOnly},
	}
	testutil.WriteFile(t, dir, "ro.knt", "GFKNT 2.0\n#^ 1000\n%-\nTT=a\nID=1\n%%\n")
	for _, c := range cases {
		_, err := svc.SetBookmark(ctx, c.path, c.slot, models.Bookmark{NoteID: c.note}, c.match)
		if !errors.Is(err, c.want) {
			t.Errorf("%s: err = %v, want %v", c.name, err, c.want)
		}
	}
}

const dartFile = "13\n_DART_ID\x001\x00\x000" + "2\na\x00" + "5\nhello"

func TestSetBookmark_DartNotesRefused(t *testing.T) {
	svc, store, _, dir := setup(t)
	ctx := context.Background()
	testutil.WriteFile(t, dir, "d.dnt", dartFile)

	if _, err := svc.SetBookmark(ctx, "d.dnt", 3, models.Bookmark{Name: "x", NoteID: 1}, ""); !errors.Is(err, apperr.ErrReadOnly) {
		t.Fatalf("SetBookmark err = %v, want ErrReadOnly", err)
	}
	if _, err := svc.ClearBookmark(ctx, "d.dnt", 3, ""); !errors.Is(err, apperr.ErrReadOnly) {
		t.Errorf("ClearBookmark err = %v, want ErrReadOnly", err)
	}
	data, err := store.Read("d.dnt")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != dartFile {
		t.Errorf("file rewritten: %q", data)
	}
}
