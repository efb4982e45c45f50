package parser

import (
	"strconv"
	"strings"

	"github.com/starford/knt/internal/models"
)

// text accumulates content lines. The last line carries no separator.
type text struct {
	b     strings.Builder
	lines int
}

func (t *text) add(s string) {
	if t.lines > 0 {
		t.b.WriteByte('\n')
	}
	t.b.WriteString(s)
	t.lines++
}

func (t *text) String() string { return t.b.String() }

type sectionBuilder struct {
	title string
	body  text
}

type nodeBuilder struct {
	node     models.TreeNode
	level    int
	explicit bool
	body     text
}

// noteBuilder collects the pieces of one note until its end marker.
type noteBuilder struct {
	note     *models.Note
	observer Observer
	touched  bool

	section *sectionBuilder

	nodes []*nodeBuilder
	node  *nodeBuilder
	depth int
}

func newNoteBuilder(kind models.NoteKind, o Observer) *noteBuilder {
	n := models.NewNote("")
	if kind == models.KindTree {
		n = models.NewTreeNote("")
	}
	return &noteBuilder{note: n, observer: o}
}

func (b *noteBuilder) isTree() bool { return b.note.Kind == models.KindTree }

func (b *noteBuilder) startSection() {
	b.touched = true
	if b.isTree() {
		b.closeNode()
		b.openNode(b.depth)
		return
	}
	b.closeSection()
	b.section = &sectionBuilder{}
}

// openContent makes sure there is a section or node to receive content.
func (b *noteBuilder) openContent() {
	b.touched = true
	if b.isTree() {
		if b.node == nil {
			b.openNode(b.depth)
		}
		return
	}
	if b.section == nil {
		b.section = &sectionBuilder{}
	}
}

func (b *noteBuilder) appendContent(s string) {
	b.openContent()
	if b.isTree() {
		b.node.body.add(s)
		return
	}
	b.section.body.add(s)
}

func (b *noteBuilder) beginNode() {
	b.touched = true
	if !b.isTree() {
		b.startSection()
		return
	}
	b.closeNode()
	b.openNode(b.depth)
	b.depth++
}

func (b *noteBuilder) endNode() {
	if !b.isTree() {
		return
	}
	b.closeNode()
	if b.depth > 0 {
		b.depth--
	}
}

func (b *noteBuilder) markVirtual() {
	if !b.isTree() {
		return
	}
	if b.node == nil {
		b.beginNode()
	}
	b.node.node.Virtual = models.VirtualLinked
}

func (b *noteBuilder) openNode(level int) {
	b.node = &nodeBuilder{level: level, node: models.TreeNode{Parent: models.NoParent}}
	b.nodes = append(b.nodes, b.node)
}

func (b *noteBuilder) closeNode() {
	b.node = nil
}

func (b *noteBuilder) closeSection() {
	if b.section == nil {
		return
	}
	s := models.Section{Title: b.section.title, Content: b.section.body.String()}
	b.note.Sections = append(b.note.Sections, s)
	b.section = nil
	b.observer.SectionFinished(b.note, s)
}

// property applies a CODE=value line to the innermost open scope. ND, ID,
// LV, DC and FL always describe the note of a flat note; TT titles the open
// section when there is one.
func (b *noteBuilder) property(code, value string) {
	b.touched = true
	if b.node != nil {
		b.nodeProperty(code, value)
		return
	}
	n := b.note
	switch code {
	case "TT":
		if b.section != nil {
			b.section.title = strings.TrimSpace(value)
			return
		}
		n.Name = strings.TrimSpace(value)
	case "ND":
		n.Name = value
	case "ID":
		if id, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			n.ID = id
		}
	case "LV":
		if lv, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			n.Level = lv
		}
	case "DC":
		n.Created = value
	case "FL":
		n.Flags = value
	default:
		n.SetExtra(code, value)
	}
}

func (b *noteBuilder) nodeProperty(code, value string) {
	nb := b.node
	switch code {
	case "ND":
		nb.node.Name = value
	case "TT":
		nb.node.Name = strings.TrimSpace(value)
	case "LV":
		if lv, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			nb.level = lv
			nb.explicit = true
		}
	case "VM":
		if mode, ok := models.ParseVirtualMode(value); ok {
			nb.node.Virtual = mode
		}
	case "VF":
		nb.node.VirtualSource = strings.TrimSpace(value)
	default:
		if nb.node.Extra == nil {
			nb.node.Extra = make(map[string]string)
		}
		nb.node.Extra[code] = value
	}
}

// build finalizes the note. Notes that never received a property, section
// or content line are dropped.
func (b *noteBuilder) build() *models.Note {
	b.closeSection()
	b.closeNode()
	if !b.touched {
		return nil
	}
	if b.isTree() {
		b.buildTree()
	}
	return b.note
}

// buildTree links the collected nodes: a node at level L becomes a child of
// the latest node seen at level L-1. Levels deeper than one past the current
// depth are clamped.
func (b *noteBuilder) buildTree() {
	tree := b.note.Tree
	var last []models.NodeID
	for _, nb := range b.nodes {
		nb.node.Content = nb.body.String()
		level := nb.level
		if level < 0 {
			level = 0
		}
		if level > len(last) {
			level = len(last)
		}
		parent := models.NoParent
		if level > 0 {
			parent = last[level-1]
		}
		id, err := tree.Add(parent, nb.node)
		if err != nil {
			continue
		}
		last = append(last[:level], id)
		b.observer.NodeFinished(b.note, tree.Node(id))
	}
}
