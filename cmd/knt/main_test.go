package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/starford/knt/internal/apperr"
	"github.com/starford/knt/internal/models"
	"github.com/starford/knt/internal/notefile"
	"github.com/starford/knt/internal/testutil"
)

func sampleFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.knt")
	if err := os.WriteFile(path, []byte(testutil.SampleNote), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = prev })

	if err := newCommand().Run(context.Background(), append([]string{"knt"}, args...)); err != nil {
		t.Fatalf("knt %s: %v", strings.Join(args, " "), err)
	}
	return buf.String()
}

func TestShow(t *testing.T) {
	out := runCLI(t, "show", sampleFile(t))
	for _, want := range []string{
		"format:      keynote 2.0",
		"description: Sample library file",
		"[1] Inbox (flat) *",
		"  ## Today",
		"  buy milk",
		"[2] Projects (tree)",
		"  - Garden",
		"    plant tomatoes",
		"    - Seeds",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteDocument_StripsRTFAndMarksVirtual(t *testing.T) {
	doc := models.NewDocument()
	flat := models.NewNote("Rich")
	flat.ID = 1
	flat.AddSection("", `{\rtf1\ansi hello\par world}`)
	doc.Notes = append(doc.Notes, flat)

	tree := models.NewTreeNote("Tree")
	tree.ID = 2
	if _, err := tree.Tree.Add(models.NoParent, models.TreeNode{Name: "Link", Virtual: models.VirtualLinked, VirtualSource: "a.txt"}); err != nil {
		t.Fatal(err)
	}
	doc.Notes = append(doc.Notes, tree)

	var buf bytes.Buffer
	writeDocument(&buf, "x.knt", doc)
	out := buf.String()
	if strings.Contains(out, `\rtf1`) || !strings.Contains(out, "hello") {
		t.Errorf("rtf not stripped:\n%s", out)
	}
	if !strings.Contains(out, "- Link -> a.txt (linked)") {
		t.Errorf("virtual node not marked:\n%s", out)
	}
}

func TestExport_JSON(t *testing.T) {
	out := runCLI(t, "export", "--format", "json", sampleFile(t))
	var got exportDocument
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("json: %v\n%s", err, out)
	}
	if got.Format != "keynote" || got.Version != "2.0" || len(got.Notes) != 2 {
		t.Fatalf("export = %+v", got)
	}
	if s := got.Notes[0].Sections; len(s) != 1 || s[0].Title != "Today" || s[0].Content != "buy milk" {
		t.Errorf("sections = %+v", s)
	}
	nodes := got.Notes[1].Nodes
	if len(nodes) != 2 || nodes[1].Name != "Seeds" || nodes[1].Parent != nodes[0].ID {
		t.Errorf("nodes = %+v", nodes)
	}
}

func TestExport_YAML(t *testing.T) {
	out := runCLI(t, "export", sampleFile(t))
	var got map[string]any
	if err := yaml.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("yaml: %v\n%s", err, out)
	}
	if got["format"] != "keynote" || got["description"] != "Sample library file" {
		t.Errorf("export = %v", got)
	}
}

func TestWriteExport_UnknownFormat(t *testing.T) {
	if err := writeExport(&bytes.Buffer{}, models.NewDocument(), "xml"); err == nil {
		t.Fatal("expected error")
	}
}

func TestConvert_Containers(t *testing.T) {
	in := sampleFile(t)
	dir := t.TempDir()

	for _, to := range []string{"dartnotes", "encrypted", "keynote"} {
		out := filepath.Join(dir, "out", to+".bin")
		opts := []notefile.Option{notefile.WithPassphrase("pw")}
		if err := convertFile(in, out, to, false, opts); err != nil {
			t.Fatalf("convert to %s: %v", to, err)
		}
		doc, err := notefile.Open(out, opts...)
		if err != nil {
			t.Fatalf("reopen %s: %v", to, err)
		}
		if doc.Format.String() != to {
			t.Errorf("format = %s, want %s", doc.Format, to)
		}
		if doc.NoteCount() == 0 {
			t.Errorf("%s: no notes", to)
		}
	}
}

func TestConvert_Errors(t *testing.T) {
	dir := t.TempDir()
	in := sampleFile(t)

	if err := convertFile(in, filepath.Join(dir, "x.knt"), "pdf", false, nil); err == nil {
		t.Error("unknown target should fail")
	}
	if err := convertFile(in, filepath.Join(dir, "x.kne"), "encrypted", false, nil); !errors.Is(err, apperr.ErrPassphraseRequired) {
		t.Errorf("err = %v, want ErrPassphraseRequired", err)
	}
	if err := convertFile(filepath.Join(dir, "absent.knt"), filepath.Join(dir, "x.knt"), "keynote", false, nil); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}

	ro := filepath.Join(dir, "ro.knt")
	if err := os.WriteFile(ro, []byte("GFKNT 2.0\n#^ 1000\n%-\nTT=a\n%:\ntext\n%%\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := convertFile(ro, filepath.Join(dir, "copy.knt"), "keynote", false, nil); !errors.Is(err, apperr.ErrReadOnly) {
		t.Errorf("err = %v, want ErrReadOnly", err)
	}
	copyPath := filepath.Join(dir, "copy.knt")
	if err := convertFile(ro, copyPath, "keynote", true, nil); err != nil {
		t.Fatalf("forced convert: %v", err)
	}
	doc, err := notefile.Open(copyPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if doc.ReadOnly {
		t.Error("forced copy should be writable")
	}
}

func TestIndexAndSearch(t *testing.T) {
	lib := t.TempDir()
	if err := os.WriteFile(filepath.Join(lib, "a.knt"), []byte(testutil.SampleNote), 0o644); err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	cfg := "library:\n  path: " + lib + "\nsqlite:\n  path: " + filepath.Join(t.TempDir(), "knt.db") + "\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	out := runCLI(t, "--config", cfgPath, "index")
	if !strings.Contains(out, "a.knt") || !strings.Contains(out, "1 files, 2 notes") {
		t.Errorf("index output:\n%s", out)
	}

	out = runCLI(t, "--config", cfgPath, "search", "tomatoes")
	if !strings.Contains(out, "a.knt") || !strings.Contains(out, "Garden") {
		t.Errorf("search output:\n%s", out)
	}
}

func TestPrompter_Fixed(t *testing.T) {
	p := newPrompter("secret")
	if pass, ok := p.Passphrase(); !ok || pass != "secret" {
		t.Errorf("got %q %v", pass, ok)
	}
	none := &prompter{}
	if _, ok := none.Passphrase(); ok {
		t.Error("prompter without input should decline")
	}
}
