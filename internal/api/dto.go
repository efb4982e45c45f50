package api

import (
	"github.com/starford/knt/internal/models"
	"github.com/starford/knt/internal/noteservice"
)

// BookmarkRequest is the request body of PUT /bookmarks/{slot}.
type BookmarkRequest struct {
	Name     string `json:"name" example:"chapter 2"`
	NoteID   int    `json:"note_id" example:"3" validate:"required"`
	Position int    `json:"position" example:"120"`
}

// DocumentDetail is the document summary (aliased from the domain layer).
type DocumentDetail = noteservice.DocumentDetail

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// FileListResponse wraps the catalogued files.
type FileListResponse struct {
	Files []models.FileSummary `json:"files" validate:"required"`
	Total int                  `json:"total" example:"12" validate:"required"`
}

// OutlineResponse wraps the note hierarchy of one file.
type OutlineResponse struct {
	Path  string                    `json:"path" example:"work/projects.knt" validate:"required"`
	Notes []noteservice.OutlineNote `json:"notes" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []models.SearchResult `json:"results" validate:"required"`
}
