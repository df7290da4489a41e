package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/clovern/internal/models"
	"github.com/starford/clovern/internal/view"
)

// GetSettings handles GET /api/settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s := h.store.Settings()
	writeJSON(w, http.StatusOK, SettingsResponse{
		Settings: s,
		Theme:    s.Theme(),
		Columns:  view.VisibleColumns(s),
		Builtin:  models.DefaultColumns,
	})
}

// UpdateTheme handles PUT /api/settings.
func (h *Handler) UpdateTheme(w http.ResponseWriter, r *http.Request) {
	req := h.store.Settings().Theme()
	if !decodeJSON(w, r, &req) {
		return
	}
	theme, err := h.store.UpdateTheme(r.Context(), req)
	if err != nil {
		writeError(w, "update theme", err)
		return
	}
	writeJSON(w, http.StatusOK, theme)
}

// ToggleColumn handles POST /api/settings/columns/{id}/toggle.
func (h *Handler) ToggleColumn(w http.ResponseWriter, r *http.Request) {
	visible, err := h.store.ToggleColumn(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "toggle column", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"visibleColumns": visible})
}

// AddCustomColumn handles POST /api/settings/custom-columns.
func (h *Handler) AddCustomColumn(w http.ResponseWriter, r *http.Request) {
	var req CustomColumnRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Type == "" {
		req.Type = models.FieldText
	}
	col, err := h.store.AddCustomColumn(r.Context(), req.Label, req.Type, req.Options)
	if err != nil {
		writeError(w, "add custom column", err)
		return
	}
	writeJSON(w, http.StatusCreated, col)
}

// ReplaceCustomColumns handles PUT /api/settings/custom-columns.
func (h *Handler) ReplaceCustomColumns(w http.ResponseWriter, r *http.Request) {
	var req []models.CustomColumn
	if !decodeJSON(w, r, &req) {
		return
	}
	cols, err := h.store.UpdateCustomColumns(r.Context(), req)
	if err != nil {
		writeError(w, "update custom columns", err)
		return
	}
	writeJSON(w, http.StatusOK, cols)
}

// DeleteCustomColumn handles DELETE /api/settings/custom-columns/{id}.
func (h *Handler) DeleteCustomColumn(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteCustomColumn(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete custom column", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleCustomColumn handles POST /api/settings/custom-columns/{id}/toggle.
func (h *Handler) ToggleCustomColumn(w http.ResponseWriter, r *http.Request) {
	col, err := h.store.ToggleCustomColumn(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "toggle custom column", err)
		return
	}
	writeJSON(w, http.StatusOK, col)
}
