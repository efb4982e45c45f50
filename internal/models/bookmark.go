package models

// MaxBookmarks is the capacity of the bookmark table (slots 0..9).
const MaxBookmarks = 10

// Bookmark points at a position inside a note.
type Bookmark struct {
	Name     string `json:"name" yaml:"name"`
	NoteID   int    `json:"note_id" yaml:"note_id"`
	Position int    `json:"position" yaml:"position"`
}

type bookmarkTable struct {
	slots [MaxBookmarks]*Bookmark
}

// SetBookmark stores b in slot i. An index outside [0, MaxBookmarks) is
// ignored and the table stays unchanged.
func (d *Document) SetBookmark(i int, b Bookmark) {
	if i < 0 || i >= MaxBookmarks {
		return
	}
	d.bookmarks.slots[i] = &b
}

// Bookmark returns the bookmark in slot i.
func (d *Document) Bookmark(i int) (Bookmark, bool) {
	if i < 0 || i >= MaxBookmarks || d.bookmarks.slots[i] == nil {
		return Bookmark{}, false
	}
	return *d.bookmarks.slots[i], true
}

// ClearBookmark empties slot i.
func (d *Document) ClearBookmark(i int) {
	if i < 0 || i >= MaxBookmarks {
		return
	}
	d.bookmarks.slots[i] = nil
}

// ClearBookmarks empties the whole table.
func (d *Document) ClearBookmarks() {
	d.bookmarks = bookmarkTable{}
}

// Bookmarks calls fn for each occupied slot in index order.
func (d *Document) Bookmarks(fn func(i int, b Bookmark)) {
	for i, b := range d.bookmarks.slots {
		if b != nil {
			fn(i, *b)
		}
	}
}
