package parser

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/starford/knt/internal/models"
)

// fatalf is satisfied by both *testing.T and *rapid.T.
type fatalf interface {
	Helper()
	Fatalf(format string, args ...any)
}

func roundTrip(t fatalf, doc *models.Document) *models.Document {
	t.Helper()
	var buf bytes.Buffer
	if err := Encode(&buf, doc); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, err := Parse(&buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return out
}

func sampleDocument() *models.Document {
	doc := models.NewDocument()
	doc.Description = "Sample"
	doc.Created = time.Date(2021, 3, 4, 5, 6, 7, 0, time.Local)
	doc.Flags = models.Flags{ShowIcons: true, NoMultiBackup: true}
	doc.FormatSettings = "tabs=4"

	flat := models.NewNote("Flat")
	flat.Flags = "0100"
	flat.SetExtra("ZZ", "kept")
	flat.AddSection("Intro", "first line\n\n  indented\n")
	flat.AddSection("", "{\\rtf1\\ansi\n{\\b bold}\n%%\n}")
	flat.AddSection("Empty", "")
	doc.AddNote(flat)

	tree := models.NewTreeNote("Tree")
	root, _ := tree.Tree.Add(models.NoParent, models.TreeNode{Name: "root", Content: "r"})
	child, _ := tree.Tree.Add(root, models.TreeNode{Name: "child", Content: "c\nc2"})
	tree.Tree.Add(child, models.TreeNode{Name: "grandchild", Virtual: models.VirtualMirror, VirtualSource: "Flat"})
	tree.Tree.Add(models.NoParent, models.TreeNode{Name: "second"})
	doc.AddNote(tree)

	doc.ActiveNote = 1
	doc.SetBookmark(0, models.Bookmark{Name: "start", NoteID: 1, Position: 0})
	doc.SetBookmark(9, models.Bookmark{Name: "end, really", NoteID: 2, Position: 42})
	return doc
}

func TestEncode_RoundTrip(t *testing.T) {
	in := sampleDocument()
	out := roundTrip(t, in)

	if out.Description != in.Description || !out.Created.Equal(in.Created) {
		t.Errorf("header = %q %v", out.Description, out.Created)
	}
	if out.Flags != in.Flags || out.FormatSettings != in.FormatSettings || out.ActiveNote != 1 {
		t.Errorf("flags/settings/active = %+v %q %d", out.Flags, out.FormatSettings, out.ActiveNote)
	}
	for _, i := range []int{0, 9} {
		want, _ := in.Bookmark(i)
		got, ok := out.Bookmark(i)
		if !ok || got != want {
			t.Errorf("bookmark %d = %+v, want %+v", i, got, want)
		}
	}
	if len(out.Notes) != 2 {
		t.Fatalf("notes = %d", len(out.Notes))
	}

	flat := out.Notes[0]
	if flat.Name != "Flat" || flat.ID != 1 || flat.Flags != "0100" || flat.Extra["ZZ"] != "kept" {
		t.Errorf("flat note = %+v", flat)
	}
	if len(flat.Sections) != 3 {
		t.Fatalf("sections = %d", len(flat.Sections))
	}
	for i, s := range in.Notes[0].Sections {
		if flat.Sections[i] != s {
			t.Errorf("section %d = %q, want %q", i, flat.Sections[i], s)
		}
	}

	tree := out.Notes[1]
	if tree.Kind != models.KindTree || tree.ID != 2 {
		t.Fatalf("tree note = %+v", tree)
	}
	var got []string
	tree.Tree.Walk(func(n *models.TreeNode, depth int) {
		got = append(got, strings.Repeat(">", depth)+n.Name+"="+n.Content+"/"+n.Virtual.String())
	})
	want := []string{"root=r/none", ">child=c\nc2/none", ">>grandchild=/mirror", "second=/none"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("tree = %q, want %q", got, want)
	}
	if src := tree.Tree.FindByName("grandchild").VirtualSource; src != "Flat" {
		t.Errorf("virtual source = %q", src)
	}
}

func TestEncode_ReadOnlyWritesFlag(t *testing.T) {
	doc := models.NewDocument()
	doc.ReadOnly = true
	var buf bytes.Buffer
	if err := Encode(&buf, doc); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(buf.String(), "#^ 1000\n") {
		t.Errorf("output = %q", buf.String())
	}
	if !strings.HasPrefix(buf.String(), "GFKNT 2.0\n") {
		t.Errorf("missing tag line: %q", buf.String())
	}
}

var (
	nameGen = rapid.StringMatching(`[A-Za-z0-9]([A-Za-z0-9 _.-]{0,10}[A-Za-z0-9])?`)
	lineGen = rapid.StringMatching(`[A-Za-z0-9 =#%:.,-]{0,20}`)
)

func contentGen() *rapid.Generator[string] {
	return rapid.Custom(func(t *rapid.T) string {
		lines := rapid.SliceOfN(lineGen, 0, 6).Filter(func(ls []string) bool {
			for _, l := range ls {
				if IsMarker(strings.TrimSpace(l)) {
					return false
				}
			}
			return true
		}).Draw(t, "lines")
		return strings.Join(lines, "\n")
	})
}

func TestEncode_RoundTripProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		doc := models.NewDocument()
		doc.Created = time.Date(2022, 1, 2, 3, 4, 5, 0, time.Local)
		doc.Description = rapid.OneOf(rapid.Just(""), nameGen).Draw(t, "description")

		type flatSpec struct {
			name     string
			sections []models.Section
		}
		sectionGen := rapid.Custom(func(t *rapid.T) models.Section {
			return models.Section{
				Title:   rapid.OneOf(rapid.Just(""), nameGen).Draw(t, "title"),
				Content: contentGen().Draw(t, "content"),
			}
		})
		notes := rapid.SliceOfN(rapid.Custom(func(t *rapid.T) flatSpec {
			return flatSpec{
				name:     nameGen.Draw(t, "name"),
				sections: rapid.SliceOfN(sectionGen, 0, 4).Draw(t, "sections"),
			}
		}), 0, 5).Draw(t, "notes")

		for _, ns := range notes {
			n := models.NewNote(ns.name)
			n.Sections = ns.sections
			doc.AddNote(n)
		}

		out := roundTrip(t, doc)
		if out.Description != doc.Description {
			t.Fatalf("description = %q, want %q", out.Description, doc.Description)
		}
		if len(out.Notes) != len(doc.Notes) {
			t.Fatalf("notes = %d, want %d", len(out.Notes), len(doc.Notes))
		}
		for i, n := range doc.Notes {
			got := out.Notes[i]
			if got.Name != n.Name || got.ID != n.ID || len(got.Sections) != len(n.Sections) {
				t.Fatalf("note %d = %+v, want %+v", i, got, n)
			}
			for j, s := range n.Sections {
				if got.Sections[j] != s {
					t.Fatalf("note %d section %d = %q, want %q", i, j, got.Sections[j], s)
				}
			}
		}
	})
}
