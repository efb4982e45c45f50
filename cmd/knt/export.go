package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/knt/internal/models"
)

type exportDocument struct {
	Format      string           `json:"format" yaml:"format"`
	Version     string           `json:"version" yaml:"version"`
	Created     time.Time        `json:"created" yaml:"created"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
	ReadOnly    bool             `json:"read_only" yaml:"read_only"`
	ActiveNote  int              `json:"active_note" yaml:"active_note"`
	Bookmarks   []exportBookmark `json:"bookmarks,omitempty" yaml:"bookmarks,omitempty"`
	Notes       []exportNote     `json:"notes" yaml:"notes"`
}

type exportBookmark struct {
	Slot            int `json:"slot" yaml:"slot"`
	models.Bookmark `yaml:",inline"`
}

type exportNote struct {
	ID       int             `json:"id" yaml:"id"`
	Name     string          `json:"name" yaml:"name"`
	Kind     string          `json:"kind" yaml:"kind"`
	Level    int             `json:"level" yaml:"level"`
	Created  string          `json:"created,omitempty" yaml:"created,omitempty"`
	Sections []exportSection `json:"sections,omitempty" yaml:"sections,omitempty"`
	Nodes    []exportNode    `json:"nodes,omitempty" yaml:"nodes,omitempty"`
}

type exportSection struct {
	Title   string `json:"title,omitempty" yaml:"title,omitempty"`
	Content string `json:"content" yaml:"content"`
	Text    string `json:"text,omitempty" yaml:"text,omitempty"`
}

type exportNode struct {
	ID      int    `json:"id" yaml:"id"`
	Parent  int    `json:"parent" yaml:"parent"`
	Name    string `json:"name" yaml:"name"`
	Level   int    `json:"level" yaml:"level"`
	Virtual string `json:"virtual,omitempty" yaml:"virtual,omitempty"`
	Source  string `json:"source,omitempty" yaml:"source,omitempty"`
	Content string `json:"content" yaml:"content"`
	Text    string `json:"text,omitempty" yaml:"text,omitempty"`
}

// text is set only when it differs from the stored content.
func text(content string) string {
	if p := plain(content); p != content {
		return p
	}
	return ""
}

func newExport(doc *models.Document) exportDocument {
	out := exportDocument{
		Format:      doc.Format.String(),
		Version:     doc.Version.String(),
		Created:     doc.Created,
		Description: doc.Description,
		ReadOnly:    doc.ReadOnly,
		ActiveNote:  doc.ActiveNote,
		Notes:       make([]exportNote, 0, len(doc.Notes)),
	}
	doc.Bookmarks(func(i int, b models.Bookmark) {
		out.Bookmarks = append(out.Bookmarks, exportBookmark{Slot: i, Bookmark: b})
	})
	for _, n := range doc.Notes {
		en := exportNote{ID: n.ID, Name: n.Name, Kind: n.Kind.String(), Level: n.Level, Created: n.Created}
		for _, s := range n.Sections {
			en.Sections = append(en.Sections, exportSection{Title: s.Title, Content: s.Content, Text: text(s.Content)})
		}
		if n.Tree != nil {
			n.Tree.Walk(func(node *models.TreeNode, _ int) {
				xn := exportNode{
					ID:      int(node.ID),
					Parent:  int(node.Parent),
					Name:    node.Name,
					Level:   node.Level,
					Content: node.Content,
					Text:    text(node.Content),
				}
				if node.IsVirtual() {
					xn.Virtual = node.Virtual.String()
					xn.Source = node.VirtualSource
				}
				en.Nodes = append(en.Nodes, xn)
			})
		}
		out.Notes = append(out.Notes, en)
	}
	return out
}

// writeExport encodes doc as yaml or json.
func writeExport(w io.Writer, doc *models.Document, format string) error {
	v := newExport(doc)
	switch strings.ToLower(format) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("export: yaml: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("export: json: %w", err)
		}
		return nil
	}
	return fmt.Errorf("export: unknown format %q (want yaml or json)", format)
}
