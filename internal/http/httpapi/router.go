package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"stencil/internal/http/handlers"
	"stencil/internal/middleware"
)

func NewRouter(app *handlers.App, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID(logger), chimw.RealIP, chimw.Recoverer, middleware.Logger(logger))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", app.Health)
		r.Get("/state", app.State)
		r.Post("/upload", app.Upload)
		r.Post("/generate", app.Generate)
		r.Post("/reset", app.Reset)
		r.Post("/download", app.Download)

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", app.ListJobs)
			r.Get("/{job_id}", app.GetJob)
		})
	})

	return r
}
