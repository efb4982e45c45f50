package api

import (
	"bytes"
	"log/slog"
	"net/http"
	"path"
	"time"

	"github.com/starford/knt/internal/checksum"
	"github.com/starford/knt/internal/storage"
)

// RawHandler serves note files byte for byte, for clients that decode
// them on their own.
type RawHandler struct {
	store storage.Provider
}

// NewRawHandler creates a handler reading through store.
func NewRawHandler(store storage.Provider) *RawHandler {
	return &RawHandler{store: store}
}

// ServeFile handles GET /api/raw/*.
//
//	@Summary		Download a note file unchanged
//	@Tags			files
//	@Produce		octet-stream
//	@Param			path	path	string	true	"Library path"
//	@Success		200		{file}	binary
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/raw/{path} [get]
func (h *RawHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	p := filePath(r)
	if p == "" || !storage.IsNoteFile(p) {
		writeJSON(w, http.StatusBadRequest, errorBody("a note file path is required"))
		return
	}
	data, err := h.store.Read(p)
	if err != nil {
		writeError(w, r, "raw file", err, slog.String("path", p))
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+path.Base(p)+`"`)
	w.Header().Set("ETag", `"`+checksum.Sum(data)+`"`)
	http.ServeContent(w, r, path.Base(p), time.Time{}, bytes.NewReader(data))
}
