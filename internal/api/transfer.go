package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/clovern/internal/importer"
	"github.com/starford/clovern/internal/models"
	"github.com/starford/clovern/internal/sheet"
	"github.com/starford/clovern/internal/view"
)

const maxImportBytes = 20 << 20

// StartImport handles POST /api/import (multipart/form-data, field "file").
// The file is decoded and a pending import is returned for mapping review;
// nothing is written until it is confirmed.
func (h *Handler) StartImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes+4096)
	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}
	s, err := h.imports.Start(header.Filename, data)
	if err != nil {
		writeError(w, "start import", err)
		return
	}
	h.writePreview(w, http.StatusCreated, s.ID)
}

// GetImport handles GET /api/import/{id}.
func (h *Handler) GetImport(w http.ResponseWriter, r *http.Request) {
	h.writePreview(w, http.StatusOK, chi.URLParam(r, "id"))
}

// UpdateImportMapping handles PUT /api/import/{id}/mapping.
func (h *Handler) UpdateImportMapping(w http.ResponseWriter, r *http.Request) {
	var req MappingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	targets := importer.Targets(h.store.Settings().CustomColumns)
	if err := h.imports.Assign(id, req.Mapping, targets); err != nil {
		writeError(w, "update import mapping", err)
		return
	}
	if req.FolderID.Set {
		if req.FolderID.Value != nil {
			if _, err := h.store.Folder(*req.FolderID.Value); err != nil {
				writeError(w, "update import folder", fmt.Errorf("folder %s: %w", *req.FolderID.Value, err))
				return
			}
		}
		if err := h.imports.SetFolder(id, req.FolderID.Value); err != nil {
			writeError(w, "update import folder", err)
			return
		}
	}
	h.writePreview(w, http.StatusOK, id)
}

// ConfirmImport handles POST /api/import/{id}/confirm.
func (h *Handler) ConfirmImport(w http.ResponseWriter, r *http.Request) {
	added, err := h.imports.Confirm(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "confirm import", err)
		return
	}
	if added == nil {
		added = []models.JobApplication{}
	}
	writeJSON(w, http.StatusCreated, ImportResponse{Imported: len(added), Applications: added})
}

// CancelImport handles DELETE /api/import/{id}.
func (h *Handler) CancelImport(w http.ResponseWriter, r *http.Request) {
	if err := h.imports.Cancel(chi.URLParam(r, "id")); err != nil {
		writeError(w, "cancel import", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writePreview(w http.ResponseWriter, status int, id string) {
	p, err := h.imports.Preview(id, h.store.Settings().CustomColumns)
	if err != nil {
		writeError(w, "import preview", err)
		return
	}
	writeJSON(w, status, p)
}

// Export handles GET /api/export?format=csv|xlsx. It encodes the visible
// columns of the rows currently shown.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("format")
	if name == "" {
		name = string(sheet.CSV)
	}
	format, err := sheet.ParseFormat(name)
	if err != nil {
		writeError(w, "export", err)
		return
	}

	var buf bytes.Buffer
	if err := sheet.Encode(&buf, format, h.store.Rows(), view.VisibleColumns(h.store.Settings())); err != nil {
		writeError(w, "export", err)
		return
	}
	filename := fmt.Sprintf("job-applications-%s.%s", time.Now().Format(models.DateLayout), format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
