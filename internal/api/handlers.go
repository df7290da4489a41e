package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/clovern/internal/importer"
	"github.com/starford/clovern/internal/models"
	"github.com/starford/clovern/internal/tracker"
)

// Handler holds API route handlers.
type Handler struct {
	store   *tracker.Store
	imports *importer.Manager
}

// NewHandler creates a new Handler.
func NewHandler(store *tracker.Store, imports *importer.Manager) *Handler {
	return &Handler{store: store, imports: imports}
}

// ListApplications handles GET /api/applications.
//
//	@Summary	List the rows of the current view
//	@Tags		applications
//	@Produce	json
//	@Success	200	{object}	ApplicationListResponse
//	@Security	BearerAuth
//	@Router		/applications [get]
func (h *Handler) ListApplications(w http.ResponseWriter, r *http.Request) {
	rows := h.store.Rows()
	writeJSON(w, http.StatusOK, ApplicationListResponse{Applications: rows, Total: len(rows)})
}

// GetApplication handles GET /api/applications/{id}.
func (h *Handler) GetApplication(w http.ResponseWriter, r *http.Request) {
	app, err := h.store.Application(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get application", err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// CreateApplication handles POST /api/applications.
//
//	@Summary	Create an application
//	@Tags		applications
//	@Accept		json
//	@Produce	json
//	@Param		body	body		models.ApplicationFields	true	"Application fields"
//	@Success	201		{object}	models.JobApplication
//	@Failure	400		{object}	errResponse
//	@Failure	503		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/applications [post]
func (h *Handler) CreateApplication(w http.ResponseWriter, r *http.Request) {
	var req models.ApplicationFields
	if !decodeJSON(w, r, &req) {
		return
	}
	app, err := h.store.CreateApplication(r.Context(), req)
	if err != nil {
		writeError(w, "create application", err)
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

// UpdateApplication handles PATCH /api/applications/{id}.
//
//	@Summary	Update fields of an application
//	@Tags		applications
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string					true	"Application id"
//	@Param		body	body		models.ApplicationPatch	true	"Fields to change"
//	@Success	200		{object}	models.JobApplication
//	@Failure	404		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/applications/{id} [patch]
func (h *Handler) UpdateApplication(w http.ResponseWriter, r *http.Request) {
	var req models.ApplicationPatch
	if !decodeJSON(w, r, &req) {
		return
	}
	app, err := h.store.UpdateApplication(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, "update application", err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// DeleteApplication handles DELETE /api/applications/{id}.
func (h *Handler) DeleteApplication(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteApplication(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete application", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MoveApplication handles PUT /api/applications/{id}/folder.
func (h *Handler) MoveApplication(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.FolderID != nil && *req.FolderID == "" {
		req.FolderID = nil
	}
	app, err := h.store.MoveApplication(r.Context(), chi.URLParam(r, "id"), req.FolderID)
	if err != nil {
		writeError(w, "move application", err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// BulkDelete handles POST /api/applications/bulk-delete.
func (h *Handler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req BulkDeleteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	var (
		n   int
		err error
	)
	if req.Selected {
		n, err = h.store.DeleteSelected(r.Context())
	} else {
		n, err = h.store.BulkDeleteApplications(r.Context(), req.IDs)
	}
	if err != nil {
		writeError(w, "bulk delete", err)
		return
	}
	writeJSON(w, http.StatusOK, DeletedResponse{Deleted: n})
}

// ClearApplications handles DELETE /api/applications.
func (h *Handler) ClearApplications(w http.ResponseWriter, r *http.Request) {
	n, err := h.store.ClearAllApplications(r.Context())
	if err != nil {
		writeError(w, "clear applications", err)
		return
	}
	writeJSON(w, http.StatusOK, DeletedResponse{Deleted: n})
}

// InitSteps handles PUT /api/applications/{id}/steps.
func (h *Handler) InitSteps(w http.ResponseWriter, r *http.Request) {
	app, err := h.store.InitSteps(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "init steps", err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// AddStep handles POST /api/applications/{id}/steps.
func (h *Handler) AddStep(w http.ResponseWriter, r *http.Request) {
	var req StepRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	app, err := h.store.AddStep(r.Context(), chi.URLParam(r, "id"), req.Label)
	if err != nil {
		writeError(w, "add step", err)
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

// ToggleStep handles POST /api/applications/{id}/steps/{stepID}/toggle.
func (h *Handler) ToggleStep(w http.ResponseWriter, r *http.Request) {
	app, err := h.store.ToggleStep(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "stepID"))
	if err != nil {
		writeError(w, "toggle step", err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// DeleteStep handles DELETE /api/applications/{id}/steps/{stepID}.
func (h *Handler) DeleteStep(w http.ResponseWriter, r *http.Request) {
	app, err := h.store.DeleteStep(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "stepID"))
	if err != nil {
		writeError(w, "delete step", err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// Save handles POST /api/save, retrying a write that failed earlier.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Flush(r.Context()); err != nil {
		writeError(w, "save", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"saved": true})
}
