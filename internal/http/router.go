package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/tally/internal/http/actor"
	"github.com/MrJamesThe3rd/tally/internal/http/export"
	"github.com/MrJamesThe3rd/tally/internal/http/importcsv"
	"github.com/MrJamesThe3rd/tally/internal/http/ledger"
	"github.com/MrJamesThe3rd/tally/internal/http/profile"
	"github.com/MrJamesThe3rd/tally/internal/http/upload"
	"github.com/MrJamesThe3rd/tally/internal/metrics"
)

type Handlers struct {
	Ledger   *ledger.Handler
	Profiles *profile.Handler
	Import   *importcsv.Handler
	Uploads  *upload.Handler
	Export   *export.Handler
}

type Options struct {
	Tokens         actor.TokenValidator
	Metrics        *metrics.Metrics // nil disables /metrics and request instrumentation
	UploadDir      string           // served under /uploads when set
	AllowedOrigins []string
}

func New(h Handlers, opts Options) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if opts.Metrics != nil {
		router.Use(opts.Metrics.Middleware)
		router.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	if opts.UploadDir != "" {
		router.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(opts.UploadDir))))
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(actor.Middleware(opts.Tokens))

		r.Route("/profiles", h.Profiles.Routes)

		r.Route("/expenses/import", h.Import.Routes)
		r.Route("/expenses/images", h.Uploads.Routes)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			h.Ledger.Routes(r)
		})

		h.Export.Routes(r)
	})

	return router
}
