// Package api assembles the HTTP service: a chi router over the conversion,
// job and audit handlers, behind the shared middleware chain.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/dvloznov/ledgerconv/internal/api/handlers"
	"github.com/dvloznov/ledgerconv/internal/api/middleware"
)

// Deps are the handlers and collaborators the router serves. Runs and
// Metrics are optional.
type Deps struct {
	Convert *handlers.ConvertHandler
	Jobs    *handlers.JobsHandler
	Runs    *handlers.RunsHandler
	Metrics http.Handler
	Log     zerolog.Logger
}

// NewRouter builds the service's HTTP handler.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(d.Log))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.Log))
	r.Use(middleware.CORS)

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, "Not found")
	})

	r.Get("/", handlers.Root)
	r.Get("/health", handlers.Health)
	r.Post("/convert", d.Convert.Convert)

	r.Route("/api", func(r chi.Router) {
		r.Post("/conversions", d.Convert.Enqueue)
		r.Get("/jobs", d.Jobs.ListJobs)
		r.Get("/jobs/{id}", d.Jobs.GetJob)
		if d.Runs != nil {
			r.Get("/runs", d.Runs.ListRuns)
		}
	})

	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	return r
}
