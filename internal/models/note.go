package models

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/knt/internal/rtf"
)

// NoteKind selects between the flat and the tree variant of a note.
type NoteKind int

const (
	KindFlat NoteKind = iota
	KindTree
)

func (k NoteKind) String() string {
	if k == KindTree {
		return "tree"
	}
	return "flat"
}

// Note is a single note of a document. Flat notes carry Sections, tree
// notes carry Tree.
type Note struct {
	ID      int
	Name    string
	Kind    NoteKind
	Level   int
	Created string
	Flags   string
	// Extra holds property codes the parser does not recognize.
	Extra    map[string]string
	Sections []Section
	Tree     *Tree
}

// NewNote returns an empty flat note.
func NewNote(name string) *Note {
	return &Note{Name: name, Kind: KindFlat}
}

// NewTreeNote returns an empty tree note.
func NewTreeNote(name string) *Note {
	return &Note{Name: name, Kind: KindTree, Tree: NewTree()}
}

// Section is a titled block of raw text inside a flat note.
type Section struct {
	Title   string
	Content string
}

// IsRTF reports whether the section content is an embedded RTF block.
func (s Section) IsRTF() bool {
	return rtf.IsRTF(s.Content)
}

// AddSection appends a section.
func (n *Note) AddSection(title, content string) {
	n.Sections = append(n.Sections, Section{Title: title, Content: content})
}

// SetExtra records an unrecognized property code.
func (n *Note) SetExtra(code, value string) {
	if n.Extra == nil {
		n.Extra = make(map[string]string)
	}
	n.Extra[code] = value
}

// IsRTF reports whether any section or node holds RTF content.
func (n *Note) IsRTF() bool {
	for _, s := range n.Sections {
		if s.IsRTF() {
			return true
		}
	}
	if n.Tree != nil {
		for i := range n.Tree.nodes {
			if rtf.IsRTF(n.Tree.nodes[i].Content) {
				return true
			}
		}
	}
	return false
}

// Validate checks the note invariants.
func (n *Note) Validate() error {
	return validation.ValidateStruct(n,
		validation.Field(&n.ID, validation.Required, validation.Min(1)),
		validation.Field(&n.Kind, validation.In(KindFlat, KindTree)),
		validation.Field(&n.Tree, validation.When(n.Kind == KindTree, validation.NotNil)),
	)
}
