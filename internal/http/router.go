package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/granttrack/internal/http/application"
	"github.com/MrJamesThe3rd/granttrack/internal/http/candidate"
	"github.com/MrJamesThe3rd/granttrack/internal/http/cycle"
	"github.com/MrJamesThe3rd/granttrack/internal/http/org"
	"github.com/MrJamesThe3rd/granttrack/internal/http/report"
	"github.com/MrJamesThe3rd/granttrack/internal/metrics"
)

func New(
	allowedOrigins []string,
	cyclesV1 *cycle.Handler,
	applicationsV1 *application.Handler,
	candidatesV1 *candidate.Handler,
	reportsV1 *report.Handler,
	orgsV1 *org.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	router.Use(metrics.InstrumentHandler)

	router.Handle("/metrics", metrics.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/cycles", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			cyclesV1.Routes(r)
		})

		// Roster import is multipart, so this group accepts both.
		r.Route("/applications", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json", "multipart/form-data"))
			applicationsV1.Routes(r)
		})

		r.Route("/candidates", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			candidatesV1.Routes(r)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			reportsV1.Routes(r)
		})

		r.Route("/organizations", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			orgsV1.Routes(r)
		})
	})

	return router
}
