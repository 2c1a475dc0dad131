package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"casamento-presentes/internal/middleware"
)

// RouterConfig carries what NewRouter mounts besides the handlers.
type RouterConfig struct {
	Admin   middleware.AdminAuth
	Metrics http.Handler
	Log     *slog.Logger
}

func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(cfg.Log))
	r.Use(chimw.Recoverer)

	r.Get("/healthz", Health)
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/gifts", h.ListGifts)
		r.Post("/gifts", h.Reserve)
		r.Get("/categories", h.Categories)
		r.Get("/reservations", h.MyReservations)
		r.Post("/checkout", h.Checkout)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(cfg.Admin.Handler)
		r.Get("/gifts", h.AdminGifts)
		r.Get("/summary", h.AdminSummary)
	})

	return r
}
