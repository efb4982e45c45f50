package noteservice

import (
	"time"

	"github.com/starford/knt/internal/models"
	"github.com/starford/knt/internal/rtf"
)

// DocumentDetail summarizes one note file.
type DocumentDetail struct {
	Path           string         `json:"path"`
	Checksum       string         `json:"checksum"`
	Format         string         `json:"format"`
	Version        string         `json:"version"`
	Description    string         `json:"description,omitempty"`
	Created        time.Time      `json:"created"`
	ActiveNote     int            `json:"active_note"`
	ReadOnly       bool           `json:"read_only"`
	CryptMethod    string         `json:"crypt_method,omitempty"`
	FormatSettings string         `json:"format_settings,omitempty"`
	Bookmarks      []BookmarkItem `json:"bookmarks"`
	Notes          []NoteItem     `json:"notes"`
}

// BookmarkItem is an occupied bookmark slot.
type BookmarkItem struct {
	Slot int `json:"slot"`
	models.Bookmark
}

// NoteItem is a lightweight note entry of a document.
type NoteItem struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Level    int    `json:"level"`
	Created  string `json:"created,omitempty"`
	Sections int    `json:"sections"`
	Nodes    int    `json:"nodes"`
}

// NoteDetail is the full representation of a note.
type NoteDetail struct {
	Path     string            `json:"path"`
	ID       int               `json:"id"`
	Name     string            `json:"name"`
	Kind     string            `json:"kind"`
	Level    int               `json:"level"`
	Created  string            `json:"created,omitempty"`
	Flags    string            `json:"flags,omitempty"`
	Extra    map[string]string `json:"extra,omitempty"`
	Sections []SectionDetail   `json:"sections,omitempty"`
	Nodes    []NodeDetail      `json:"nodes,omitempty"`
}

// SectionDetail carries both the stored and the display form of a section.
type SectionDetail struct {
	Title string `json:"title,omitempty"`
	Text  string `json:"text"`
	Raw   string `json:"raw"`
	RTF   bool   `json:"rtf"`
}

// NodeDetail is one tree node in walk order.
type NodeDetail struct {
	ID      int    `json:"id"`
	Parent  int    `json:"parent"`
	Name    string `json:"name"`
	Level   int    `json:"level"`
	Virtual string `json:"virtual,omitempty"`
	Source  string `json:"source,omitempty"`
	Text    string `json:"text"`
	Raw     string `json:"raw"`
	RTF     bool   `json:"rtf"`
}

// OutlineNote is a note with its node hierarchy.
type OutlineNote struct {
	ID    int           `json:"id"`
	Name  string        `json:"name"`
	Kind  string        `json:"kind"`
	Nodes []OutlineNode `json:"nodes,omitempty"`
}

// OutlineNode is a node with its children.
type OutlineNode struct {
	ID       int           `json:"id"`
	Name     string        `json:"name"`
	Virtual  bool          `json:"virtual,omitempty"`
	Children []OutlineNode `json:"children,omitempty"`
}

func documentDetail(path, sum string, doc *models.Document) *DocumentDetail {
	d := &DocumentDetail{
		Path:           path,
		Checksum:       sum,
		Format:         doc.Format.String(),
		Version:        doc.Version.String(),
		Description:    doc.Description,
		Created:        doc.Created,
		ActiveNote:     doc.ActiveNote,
		ReadOnly:       doc.ReadOnly,
		CryptMethod:    doc.CryptMethod,
		FormatSettings: doc.FormatSettings,
		Bookmarks:      []BookmarkItem{},
		Notes:          make([]NoteItem, 0, len(doc.Notes)),
	}
	doc.Bookmarks(func(i int, b models.Bookmark) {
		d.Bookmarks = append(d.Bookmarks, BookmarkItem{Slot: i, Bookmark: b})
	})
	for _, n := range doc.Notes {
		item := NoteItem{
			ID:       n.ID,
			Name:     n.Name,
			Kind:     n.Kind.String(),
			Level:    n.Level,
			Created:  n.Created,
			Sections: len(n.Sections),
		}
		if n.Tree != nil {
			item.Nodes = n.Tree.Len()
		}
		d.Notes = append(d.Notes, item)
	}
	return d
}

func noteDetail(path string, n *models.Note, r models.VirtualResolver) *NoteDetail {
	d := &NoteDetail{
		Path:    path,
		ID:      n.ID,
		Name:    n.Name,
		Kind:    n.Kind.String(),
		Level:   n.Level,
		Created: n.Created,
		Flags:   n.Flags,
		Extra:   n.Extra,
	}
	for _, s := range n.Sections {
		d.Sections = append(d.Sections, SectionDetail{
			Title: s.Title,
			Text:  rtf.Strip(s.Content),
			Raw:   s.Content,
			RTF:   s.IsRTF(),
		})
	}
	if n.Tree == nil {
		return d
	}
	n.Tree.Walk(func(node *models.TreeNode, depth int) {
		content := n.Tree.EffectiveContent(node.ID, r)
		nd := NodeDetail{
			ID:     int(node.ID),
			Parent: int(node.Parent),
			Name:   node.Name,
			Level:  depth,
			Text:   rtf.Strip(content),
			Raw:    content,
			RTF:    rtf.IsRTF(content),
		}
		if node.IsVirtual() {
			nd.Virtual = node.Virtual.String()
			nd.Source = node.VirtualSource
		}
		d.Nodes = append(d.Nodes, nd)
	})
	return d
}

func outline(doc *models.Document) []OutlineNote {
	out := make([]OutlineNote, 0, len(doc.Notes))
	for _, n := range doc.Notes {
		o := OutlineNote{ID: n.ID, Name: n.Name, Kind: n.Kind.String()}
		if n.Tree != nil {
			o.Nodes = outlineNodes(n.Tree, n.Tree.Roots())
		}
		out = append(out, o)
	}
	return out
}

func outlineNodes(t *models.Tree, nodes []*models.TreeNode) []OutlineNode {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]OutlineNode, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, OutlineNode{
			ID:       int(n.ID),
			Name:     n.Name,
			Virtual:  n.IsVirtual(),
			Children: outlineNodes(t, t.Children(n.ID)),
		})
	}
	return out
}
