package models

import "time"

// FileInfo is a note file of a library as returned by list operations.
type FileInfo struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FileSummary is the catalog record of one indexed note file.
type FileSummary struct {
	Path        string    `json:"path"`
	Checksum    string    `json:"checksum"`
	Format      string    `json:"format"`
	Description string    `json:"description,omitempty"`
	NoteCount   int       `json:"note_count"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NoteRecord is the catalog record of one note, or one node of a tree note.
type NoteRecord struct {
	Path   string `json:"path"`
	NoteID int    `json:"note_id"`
	Node   int    `json:"node"`
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Level  int    `json:"level"`
	Body   string `json:"body,omitempty"`
}

// SearchResult is a single hit of a catalog search.
type SearchResult struct {
	Path    string `json:"path"`
	NoteID  int    `json:"note_id"`
	Node    int    `json:"node"`
	Name    string `json:"name"`
	Snippet string `json:"snippet"`
}
