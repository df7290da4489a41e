package api

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/clovern/internal/models"
)

const maxWallpaperBytes = 5 << 20

// ListFolders handles GET /api/folders.
func (h *Handler) ListFolders(w http.ResponseWriter, r *http.Request) {
	counts := h.store.FolderCounts()
	folders := h.store.Folders()
	items := make([]FolderListItem, len(folders))
	for i, f := range folders {
		items[i] = FolderListItem{Folder: f, Count: counts[f.ID]}
	}
	writeJSON(w, http.StatusOK, FolderListResponse{Folders: items, Total: counts[""]})
}

// CreateFolder handles POST /api/folders.
func (h *Handler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req FolderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	f, err := h.store.CreateFolder(r.Context(), req.Name, req.Color, req.Wallpaper)
	if err != nil {
		writeError(w, "create folder", err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// UpdateFolder handles PUT /api/folders/{id}.
func (h *Handler) UpdateFolder(w http.ResponseWriter, r *http.Request) {
	var req FolderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	f, err := h.store.UpdateFolder(r.Context(), chi.URLParam(r, "id"), req.Name, req.Color, req.Wallpaper)
	if err != nil {
		writeError(w, "update folder", err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// DeleteFolder handles DELETE /api/folders/{id}. Applications in the folder
// are unfiled, never deleted.
func (h *Handler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteFolder(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete folder", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReorderFolder handles POST /api/folders/{id}/reorder.
func (h *Handler) ReorderFolder(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.store.ReorderFolder(r.Context(), chi.URLParam(r, "id"), req.TargetID); err != nil {
		writeError(w, "reorder folder", err)
		return
	}
	writeJSON(w, http.StatusOK, h.store.Folders())
}

// UploadWallpaper handles POST /api/folders/{id}/wallpaper (multipart/form-data, field "file").
// The image is embedded in the document as a data URI.
func (h *Handler) UploadWallpaper(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWallpaperBytes+4096)
	if err := r.ParseMultipartForm(maxWallpaperBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxWallpaperBytes+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}
	if len(data) > maxWallpaperBytes {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large"))
		return
	}
	uri, ok := models.WallpaperDataURI(data)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("content is not a PNG, JPEG, GIF, or WebP image"))
		return
	}

	f, err := h.store.SetFolderWallpaper(r.Context(), chi.URLParam(r, "id"), uri)
	if err != nil {
		writeError(w, "set wallpaper", err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// ClearWallpaper handles DELETE /api/folders/{id}/wallpaper.
func (h *Handler) ClearWallpaper(w http.ResponseWriter, r *http.Request) {
	f, err := h.store.SetFolderWallpaper(r.Context(), chi.URLParam(r, "id"), "")
	if err != nil {
		writeError(w, "clear wallpaper", err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}
