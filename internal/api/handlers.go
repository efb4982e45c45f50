package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/knt/internal/apperr"
	"github.com/starford/knt/internal/models"
	"github.com/starford/knt/internal/noteservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// filePath extracts the library path from the URL (everything after
// /files/). Encoded slashes (work%2Fa.knt) are accepted.
func filePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// statusFor maps domain errors to HTTP status codes and client messages.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, apperr.ErrInvalidInput):
		return http.StatusBadRequest, "invalid input"
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict, "checksum mismatch"
	case errors.Is(err, apperr.ErrReadOnly):
		return http.StatusForbidden, "document is read-only"
	case errors.Is(err, apperr.ErrPassphraseRequired):
		return http.StatusLocked, "file is encrypted"
	case errors.Is(err, apperr.ErrDecryptionFailed):
		return http.StatusForbidden, "decryption failed"
	case errors.Is(err, apperr.ErrUnrecognizedFormat),
		errors.Is(err, apperr.ErrIncompatibleVersion),
		errors.Is(err, apperr.ErrInvalidContainerHeader),
		errors.Is(err, apperr.ErrMalformedRecord):
		return http.StatusUnprocessableEntity, err.Error()
	}
	return http.StatusInternalServerError, "internal error"
}

func writeError(w http.ResponseWriter, r *http.Request, op string, err error, attrs ...slog.Attr) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		attrs = append(attrs, slog.String("error", err.Error()))
		slog.LogAttrs(r.Context(), slog.LevelError, op+" failed", attrs...)
	}
	writeJSON(w, status, errorBody(msg))
}

// ListFiles handles GET /api/files.
//
//	@Summary		List catalogued note files
//	@Tags			files
//	@Produce		json
//	@Success		200	{object}	FileListResponse
//	@Security		BearerAuth
//	@Router			/files [get]
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.svc.ListFiles(r.Context())
	if err != nil {
		writeError(w, r, "list files", err)
		return
	}
	writeJSON(w, http.StatusOK, FileListResponse{Files: files, Total: len(files)})
}

// GetDocument handles GET /api/files/*.
//
//	@Summary		Get the summary of one note file
//	@Tags			files
//	@Produce		json
//	@Param			path	path		string	true	"Library path"
//	@Success		200		{object}	DocumentDetail
//	@Failure		404		{object}	errResponse
//	@Failure		423		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/files/{path} [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	path := filePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	doc, err := h.svc.GetDocument(r.Context(), path)
	if err != nil {
		writeError(w, r, "get document", err, slog.String("path", path))
		return
	}
	w.Header().Set("ETag", `"`+doc.Checksum+`"`)
	writeJSON(w, http.StatusOK, doc)
}

// GetNote handles GET /api/notes.
//
//	@Summary		Get one note with display text and raw content
//	@Tags			notes
//	@Produce		json
//	@Param			path	query		string	true	"Library path"
//	@Param			id		query		int		true	"Note id"
//	@Success		200		{object}	NoteDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	path := q.Get("path")
	id, err := strconv.Atoi(q.Get("id"))
	if path == "" || err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("path and numeric id are required"))
		return
	}
	note, err := h.svc.GetNote(r.Context(), path, id)
	if err != nil {
		writeError(w, r, "get note", err, slog.String("path", path), slog.Int("id", id))
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// Outline handles GET /api/outline.
//
//	@Summary		Get the note and node hierarchy of a file
//	@Tags			notes
//	@Produce		json
//	@Param			path	query		string	true	"Library path"
//	@Success		200		{object}	OutlineResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/outline [get]
func (h *Handler) Outline(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'path' is required"))
		return
	}
	notes, err := h.svc.Outline(r.Context(), path)
	if err != nil {
		writeError(w, r, "outline", err, slog.String("path", path))
		return
	}
	writeJSON(w, http.StatusOK, OutlineResponse{Path: path, Notes: notes})
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across notes and nodes
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, r, "search", err, slog.String("query", q))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// bookmarkSlot parses the {slot} URL parameter.
func bookmarkSlot(r *http.Request) (int, bool) {
	slot, err := strconv.Atoi(chi.URLParam(r, "slot"))
	return slot, err == nil && slot >= 0 && slot < models.MaxBookmarks
}

// SetBookmark handles PUT /api/bookmarks/{slot}. Read-only and DartNotes
// files answer 403.
//
//	@Summary		Store a bookmark and save the file
//	@Tags			bookmarks
//	@Accept			json
//	@Produce		json
//	@Param			slot		path	int				true	"Bookmark slot 0-9"
//	@Param			path		query	string			true	"Library path"
//	@Param			If-Match	header	string			false	"SHA-256 checksum for optimistic concurrency"
//	@Param			body		body	BookmarkRequest	true	"Bookmark"
//	@Success		200		{object}	DocumentDetail
//	@Failure		400		{object}	errResponse
//	@Failure		403		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/bookmarks/{slot} [put]
func (h *Handler) SetBookmark(w http.ResponseWriter, r *http.Request) {
	slot, ok := bookmarkSlot(r)
	path := r.URL.Query().Get("path")
	if !ok || path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("slot 0-9 and query parameter 'path' are required"))
		return
	}
	var req BookmarkRequest
	if err := readJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	b := models.Bookmark{Name: req.Name, NoteID: req.NoteID, Position: req.Position}
	doc, err := h.svc.SetBookmark(r.Context(), path, slot, b, r.Header.Get("If-Match"))
	if err != nil {
		writeError(w, r, "set bookmark", err, slog.String("path", path), slog.Int("slot", slot))
		return
	}
	w.Header().Set("ETag", `"`+doc.Checksum+`"`)
	writeJSON(w, http.StatusOK, doc)
}

// ClearBookmark handles DELETE /api/bookmarks/{slot}.
//
//	@Summary		Empty a bookmark slot and save the file
//	@Tags			bookmarks
//	@Produce		json
//	@Param			slot		path	int		true	"Bookmark slot 0-9"
//	@Param			path		query	string	true	"Library path"
//	@Param			If-Match	header	string	false	"SHA-256 checksum for optimistic concurrency"
//	@Success		200		{object}	DocumentDetail
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/bookmarks/{slot} [delete]
func (h *Handler) ClearBookmark(w http.ResponseWriter, r *http.Request) {
	slot, ok := bookmarkSlot(r)
	path := r.URL.Query().Get("path")
	if !ok || path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("slot 0-9 and query parameter 'path' are required"))
		return
	}
	doc, err := h.svc.ClearBookmark(r.Context(), path, slot, r.Header.Get("If-Match"))
	if err != nil {
		writeError(w, r, "clear bookmark", err, slog.String("path", path), slog.Int("slot", slot))
		return
	}
	w.Header().Set("ETag", `"`+doc.Checksum+`"`)
	writeJSON(w, http.StatusOK, doc)
}
