// Package models defines the in-memory document model of a KeyNote file.
package models

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// FileFormat identifies the outer container of a note file.
type FileFormat int

const (
	FormatKeyNote FileFormat = iota
	FormatEncrypted
	FormatDartNotes
)

func (f FileFormat) String() string {
	switch f {
	case FormatKeyNote:
		return "keynote"
	case FormatEncrypted:
		return "encrypted"
	case FormatDartNotes:
		return "dartnotes"
	}
	return fmt.Sprintf("format(%d)", int(f))
}

// ParseFileFormat is the inverse of FileFormat.String.
func ParseFileFormat(s string) (FileFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "keynote", "knt", "":
		return FormatKeyNote, nil
	case "encrypted":
		return FormatEncrypted, nil
	case "dartnotes", "dart":
		return FormatDartNotes, nil
	}
	return 0, fmt.Errorf("unknown file format %q", s)
}

// Supported file format version.
const (
	VersionMajor = 2
	VersionMinor = 0
)

// Version is the major.minor revision read from a file header.
type Version struct {
	Major int
	Minor int
}

// CurrentVersion is the version written by this implementation.
func CurrentVersion() Version {
	return Version{Major: VersionMajor, Minor: VersionMinor}
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// NoActiveNote marks a document without a selected note.
const NoActiveNote = -1

// Document is a whole loaded note file.
type Document struct {
	Format         FileFormat
	Version        Version
	Created        time.Time
	Description    string
	ActiveNote     int
	ReadOnly       bool
	Flags          Flags
	FormatSettings string
	CryptMethod    string
	// ContainerVersion and ContainerReserved carry the DartNotes header
	// record fields through a decode/encode cycle.
	ContainerVersion  string
	ContainerReserved string
	Notes             []*Note

	bookmarks bookmarkTable
}

// NewDocument returns an empty plain KeyNote document.
func NewDocument() *Document {
	return &Document{
		Format:     FormatKeyNote,
		Version:    CurrentVersion(),
		Created:    time.Now(),
		ActiveNote: NoActiveNote,
	}
}

// NoteCount returns the number of notes.
func (d *Document) NoteCount() int {
	return len(d.Notes)
}

// Note returns the note at index i, or nil when out of range.
func (d *Document) Note(i int) *Note {
	if i < 0 || i >= len(d.Notes) {
		return nil
	}
	return d.Notes[i]
}

// NoteByID returns the first note with the given identifier.
func (d *Document) NoteByID(id int) *Note {
	for _, n := range d.Notes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// FindNoteByName returns the first note whose name matches case-insensitively.
func (d *Document) FindNoteByName(name string) *Note {
	for _, n := range d.Notes {
		if strings.EqualFold(n.Name, name) {
			return n
		}
	}
	return nil
}

// HasTreeNotes reports whether any note is a tree note.
func (d *Document) HasTreeNotes() bool {
	for _, n := range d.Notes {
		if n.Kind == KindTree {
			return true
		}
	}
	return false
}

// HasVirtualNodes reports whether any tree note holds a virtual node.
func (d *Document) HasVirtualNodes() bool {
	return d.HasVirtualNodeSource("", nil)
}

// HasVirtualNodeSource reports whether a virtual node other than except
// refers to source. An empty source matches any virtual node.
func (d *Document) HasVirtualNodeSource(source string, except *TreeNode) bool {
	for _, n := range d.Notes {
		if n.Tree == nil {
			continue
		}
		for i := range n.Tree.nodes {
			node := &n.Tree.nodes[i]
			if node == except || node.Virtual == VirtualNone {
				continue
			}
			if source == "" || node.VirtualSource == source {
				return true
			}
		}
	}
	return false
}

// NormalizeActiveNote resets an out-of-range active note index to none.
func (d *Document) NormalizeActiveNote() {
	if d.ActiveNote < 0 || d.ActiveNote >= len(d.Notes) {
		d.ActiveNote = NoActiveNote
	}
}

// Validate checks the structural invariants of the document.
func (d *Document) Validate() error {
	if err := validation.ValidateStruct(d,
		validation.Field(&d.Format, validation.In(FormatKeyNote, FormatEncrypted, FormatDartNotes)),
		validation.Field(&d.Notes),
	); err != nil {
		return err
	}
	if d.ActiveNote != NoActiveNote && (d.ActiveNote < 0 || d.ActiveNote >= len(d.Notes)) {
		return fmt.Errorf("active note %d out of range [0,%d)", d.ActiveNote, len(d.Notes))
	}
	seen := make(map[int]struct{}, len(d.Notes))
	for _, n := range d.Notes {
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("duplicate note id %d", n.ID)
		}
		seen[n.ID] = struct{}{}
	}
	return nil
}
