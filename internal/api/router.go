package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	// All API routes will be under /api
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", apiHandler.HealthHandler)

		r.Get("/models", apiHandler.ListModelsHandler)

		r.Post("/coach/settings", apiHandler.UpdateSettingsHandler)
		r.Get("/coach/settings/{coachingID}", apiHandler.GetSettingsHandler)

		r.Get("/history", apiHandler.GetHistoryHandler)
		r.Post("/history/delete_last", apiHandler.DeleteLastHandler)

		r.Post("/prompt", apiHandler.PromptHandler)
	})

	return r
}
