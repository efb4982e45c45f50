package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/starford/knt/internal/models"
	"github.com/starford/knt/internal/rtf"
)

// plain returns content as display text.
func plain(content string) string {
	if rtf.IsRTF(content) {
		return rtf.Strip(content)
	}
	return content
}

func writeIndented(w io.Writer, indent, text string) {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return
	}
	for line := range strings.SplitSeq(text, "\n") {
		fmt.Fprintf(w, "%s%s\n", indent, line)
	}
}

// writeDocument prints a human-readable view of doc.
func writeDocument(w io.Writer, name string, doc *models.Document) {
	fmt.Fprintf(w, "file:        %s\n", name)
	fmt.Fprintf(w, "format:      %s %s\n", doc.Format, doc.Version)
	if doc.Description != "" {
		fmt.Fprintf(w, "description: %s\n", doc.Description)
	}
	if !doc.Created.IsZero() {
		fmt.Fprintf(w, "created:     %s\n", doc.Created.Format("2006-01-02 15:04:05"))
	}
	if doc.ReadOnly {
		fmt.Fprintln(w, "read-only:   yes")
	}
	fmt.Fprintf(w, "notes:       %d\n", doc.NoteCount())
	doc.Bookmarks(func(i int, b models.Bookmark) {
		fmt.Fprintf(w, "bookmark %d:  %s (note %d, pos %d)\n", i, b.Name, b.NoteID, b.Position)
	})

	for i, n := range doc.Notes {
		active := ""
		if i == doc.ActiveNote {
			active = " *"
		}
		fmt.Fprintf(w, "\n[%d] %s (%s)%s\n", n.ID, n.Name, n.Kind, active)
		if n.Kind == models.KindTree && n.Tree != nil {
			n.Tree.Walk(func(node *models.TreeNode, depth int) {
				indent := strings.Repeat("  ", depth+1)
				label := node.Name
				if node.IsVirtual() {
					label = fmt.Sprintf("%s -> %s (%s)", label, node.VirtualSource, node.Virtual)
				}
				fmt.Fprintf(w, "%s- %s\n", indent, label)
				writeIndented(w, indent+"  ", plain(node.Content))
			})
			continue
		}
		for _, s := range n.Sections {
			if s.Title != "" {
				fmt.Fprintf(w, "  ## %s\n", s.Title)
			}
			writeIndented(w, "  ", plain(s.Content))
		}
	}
}
