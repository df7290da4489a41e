package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/clovern/internal/auth"
	"github.com/starford/clovern/internal/importer"
	"github.com/starford/clovern/internal/tracker"
)

// RouterOptions carries the optional pieces of the API router.
type RouterOptions struct {
	// Auth checks every request; nil disables authentication.
	Auth auth.Verifier
	// Limiter throttles requests per client; nil disables it.
	Limiter *RateLimiter
	// Events, if non-nil, is mounted at GET /events inside the auth group.
	Events http.Handler
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(store *tracker.Store, imports *importer.Manager, opts RouterOptions) chi.Router {
	h := NewHandler(store, imports)

	r := chi.NewRouter()
	r.Use(opts.Limiter.Middleware)
	r.Use(AuthMiddleware(opts.Auth))

	r.Route("/applications", func(r chi.Router) {
		r.Get("/", h.ListApplications)
		r.Post("/", h.CreateApplication)
		r.Delete("/", h.ClearApplications)
		r.Post("/bulk-delete", h.BulkDelete)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetApplication)
			r.Patch("/", h.UpdateApplication)
			r.Delete("/", h.DeleteApplication)
			r.Put("/folder", h.MoveApplication)
			r.Post("/steps", h.AddStep)
			r.Put("/steps", h.InitSteps)
			r.Post("/steps/{stepID}/toggle", h.ToggleStep)
			r.Delete("/steps/{stepID}", h.DeleteStep)
		})
	})

	r.Route("/folders", func(r chi.Router) {
		r.Get("/", h.ListFolders)
		r.Post("/", h.CreateFolder)
		r.Put("/{id}", h.UpdateFolder)
		r.Delete("/{id}", h.DeleteFolder)
		r.Post("/{id}/reorder", h.ReorderFolder)
		r.Post("/{id}/wallpaper", h.UploadWallpaper)
		r.Delete("/{id}/wallpaper", h.ClearWallpaper)
	})

	r.Route("/view", func(r chi.Router) {
		r.Get("/", h.GetView)
		r.Put("/", h.UpdateView)
		r.Post("/sort", h.ToggleSort)
		r.Get("/selection", h.GetSelection)
		r.Post("/selection", h.ToggleSelection)
		r.Delete("/selection", h.ClearSelection)
		r.Post("/select-all", h.SelectAll)
	})

	r.Route("/settings", func(r chi.Router) {
		r.Get("/", h.GetSettings)
		r.Put("/", h.UpdateTheme)
		r.Post("/columns/{id}/toggle", h.ToggleColumn)
		r.Post("/custom-columns", h.AddCustomColumn)
		r.Put("/custom-columns", h.ReplaceCustomColumns)
		r.Delete("/custom-columns/{id}", h.DeleteCustomColumn)
		r.Post("/custom-columns/{id}/toggle", h.ToggleCustomColumn)
	})

	r.Route("/import", func(r chi.Router) {
		r.Post("/", h.StartImport)
		r.Get("/{id}", h.GetImport)
		r.Delete("/{id}", h.CancelImport)
		r.Put("/{id}/mapping", h.UpdateImportMapping)
		r.Post("/{id}/confirm", h.ConfirmImport)
	})

	r.Get("/export", h.Export)
	r.Post("/save", h.Save)

	if opts.Events != nil {
		r.Get("/events", opts.Events.ServeHTTP)
	}

	return r
}
