// Package web serves the split and consolidate forms and their API
// counterparts.
package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ryabkov82/xlsx-splitter/internal/config"
)

// GetRouter initialises a new http router and applies all routes
func GetRouter(cfg *config.Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	return applyRoutes(r, newHandler(cfg))
}

func applyRoutes(r chi.Router, h *handler) chi.Router {
	r.Get("/healthz", h.health)

	r.Route("/", func(r chi.Router) {
		r.Get("/", h.splitForm)
		r.Post("/", h.splitPage)
		r.Get("/consolidate", h.consolidateForm)
		r.Post("/consolidate", h.consolidatePage)
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/split", h.splitAPI)
		r.Post("/consolidate", h.consolidateAPI)
	})

	return r
}

// NewServer returns an http.Server for cfg with its timeouts applied.
func NewServer(cfg *config.Config) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           GetRouter(cfg),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}
}
