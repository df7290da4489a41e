package api

import (
	"net/http"

	"github.com/starford/clovern/internal/view"
)

func (h *Handler) viewResponse() ViewResponse {
	return ViewResponse{
		State:   h.store.ViewState(),
		Columns: view.VisibleColumns(h.store.Settings()),
		Rows:    h.store.Rows(),
		Counts:  h.store.FolderCounts(),
	}
}

// GetView handles GET /api/view.
func (h *Handler) GetView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.viewResponse())
}

// UpdateView handles PUT /api/view.
func (h *Handler) UpdateView(w http.ResponseWriter, r *http.Request) {
	var req ViewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.FolderID.Set {
		if err := h.store.SetFolderContext(req.FolderID.Value); err != nil {
			writeError(w, "set folder context", err)
			return
		}
	}
	if req.Query != nil {
		h.store.SetQuery(*req.Query)
	}
	writeJSON(w, http.StatusOK, h.viewResponse())
}

// ToggleSort handles POST /api/view/sort.
func (h *Handler) ToggleSort(w http.ResponseWriter, r *http.Request) {
	var req SortRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Key == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("key is required"))
		return
	}
	var s view.Sort
	if req.Desc != nil {
		s = view.Sort{Key: req.Key, Desc: *req.Desc}
		h.store.SetSort(s)
	} else {
		s = h.store.ToggleSort(req.Key)
	}
	writeJSON(w, http.StatusOK, s)
}

// GetSelection handles GET /api/view/selection.
func (h *Handler) GetSelection(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SelectionResponse{Selected: h.store.Selected()})
}

// ToggleSelection handles POST /api/view/selection.
func (h *Handler) ToggleSelection(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.store.ToggleSelect(req.ID); err != nil {
		writeError(w, "toggle selection", err)
		return
	}
	writeJSON(w, http.StatusOK, SelectionResponse{Selected: h.store.Selected()})
}

// ClearSelection handles DELETE /api/view/selection.
func (h *Handler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	h.store.ClearSelection()
	writeJSON(w, http.StatusOK, SelectionResponse{Selected: []string{}})
}

// SelectAll handles POST /api/view/select-all.
func (h *Handler) SelectAll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SelectionResponse{Selected: h.store.ToggleSelectAll()})
}
