// Package httpapi assembles the chi router: middleware chain, versioned
// API routes, health, and metrics.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"seiza/internal/config"
	"seiza/internal/httpapi/handlers"
	"seiza/internal/httpkit"
	"seiza/internal/metrics"
	"seiza/internal/pkg/logger"
	"seiza/internal/pkg/middleware"
)

type Deps struct {
	Cfg      *config.Config
	Log      *logger.Logger
	Handlers handlers.Deps
}

func NewRouter(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Identity(d.Cfg.TrustedProxy))
	r.Use(middleware.Logging(log))
	r.Use(middleware.Recovery(log))
	r.Use(httpkit.CORS(httpkit.CORSOptions{
		AllowedOrigins:   d.Cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", middleware.SessionIDHeader, middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAgeSeconds:    600,
	}))
	r.Use(middleware.Throttle(log, d.Cfg.ThrottleRPS, d.Cfg.ThrottleBurst))

	h := handlers.New(d.Handlers)

	wrap := func(fn middleware.ErrorHandlerFunc) http.HandlerFunc {
		return middleware.WrapHandler(log, fn)
	}

	r.Route("/api/v0", func(r chi.Router) {
		r.Post("/preview", wrap(h.Preview))
		r.Post("/generate", wrap(h.Generate))
		r.Get("/status/{jobID}", wrap(h.Status))
		r.Get("/download/{jobID}", wrap(h.Download))
		r.Get("/video/{jobID}", wrap(h.Video))
		r.Post("/cleanup", wrap(h.Cleanup))
	})

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", metrics.Handler())

	return r
}
