package index

import (
	"strings"
	"time"

	"github.com/starford/knt/internal/models"
	"github.com/starford/knt/internal/rtf"
)

// KindNode marks catalog rows that describe a node of a tree note.
const KindNode = "node"

// NoNode is the node column of rows describing a whole note.
const NoNode = -1

// Records flattens doc into catalog rows: one per note, plus one per node
// of every tree note. Bodies hold display text with RTF stripped.
func Records(path string, doc *models.Document) []models.NoteRecord {
	var out []models.NoteRecord
	for _, n := range doc.Notes {
		out = append(out, models.NoteRecord{
			Path:   path,
			NoteID: n.ID,
			Node:   NoNode,
			Name:   n.Name,
			Kind:   n.Kind.String(),
			Level:  n.Level,
			Body:   sectionText(n.Sections),
		})
		if n.Tree == nil {
			continue
		}
		n.Tree.Walk(func(node *models.TreeNode, depth int) {
			out = append(out, models.NoteRecord{
				Path:   path,
				NoteID: n.ID,
				Node:   int(node.ID),
				Name:   node.Name,
				Kind:   KindNode,
				Level:  depth,
				Body:   rtf.Strip(node.Content),
			})
		})
	}
	return out
}

func sectionText(sections []models.Section) string {
	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		text := rtf.Strip(s.Content)
		if s.Title != "" {
			text = strings.TrimSpace(s.Title + "\n" + text)
		}
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Summary builds the files row of doc.
func Summary(path, sum string, doc *models.Document, updated time.Time) models.FileSummary {
	return models.FileSummary{
		Path:        path,
		Checksum:    sum,
		Format:      doc.Format.String(),
		Description: doc.Description,
		NoteCount:   doc.NoteCount(),
		UpdatedAt:   updated,
	}
}
