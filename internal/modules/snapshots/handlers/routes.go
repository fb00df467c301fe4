package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all snapshot and station routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/snapshots", func(r chi.Router) {
		r.Get("/index", h.HandleGetIndex)
		r.Post("/navigate", h.HandleNavigate)
		r.Post("/seek", h.HandleSeek)
		r.Post("/refresh", h.HandleRefresh)
	})

	r.Get("/stations", h.HandleGetStations)
	r.Get("/stations/{id}/competitors", h.HandleGetCompetitors)
}
