package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/tendant/lost-and-found/pkg/lostfound"
)

// FilesHandler serves stored images under /files
type FilesHandler struct {
	assets lostfound.AssetStore
}

// NewFilesHandler creates a handler serving assets from store
func NewFilesHandler(store lostfound.AssetStore) *FilesHandler {
	return &FilesHandler{assets: store}
}

// Routes returns the router for file endpoints
func (h *FilesHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{filename}", h.ServeFile)
	r.Head("/{filename}", h.ServeFile)
	return r
}

// ServeFile streams a stored image
func (h *FilesHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	content, info, err := h.assets.Open(r.Context(), filename)
	if err != nil {
		if errors.Is(err, lostfound.ErrAssetNotFound) || errors.Is(err, lostfound.ErrInvalidAssetName) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, MessageResponse{Message: "File not found"})
			return
		}
		slog.Error("Failed to open asset", "image", filename, "error", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, MessageResponse{Message: "Error fetching file"})
		return
	}
	defer content.Close()

	if info.ContentType != "" {
		w.Header().Set("Content-Type", info.ContentType)
	}

	if rs, ok := content.(io.ReadSeeker); ok {
		http.ServeContent(w, r, info.Name, info.ModTime, rs)
		return
	}

	if info.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	if !info.ModTime.IsZero() {
		w.Header().Set("Last-Modified", info.ModTime.UTC().Format(http.TimeFormat))
	}
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, content); err != nil {
		slog.Warn("Failed to stream asset", "image", filename, "error", err)
	}
}
