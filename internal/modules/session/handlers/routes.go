package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all selection and note routes. The station
// routes stay flat because /stations/{id} subtrees are shared with the
// snapshot handlers.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/stations/{id}/select", h.HandleSelect)
	r.Post("/stations/{id}/deselect", h.HandleDeselect)
	r.Post("/stations/{id}/checked", h.HandleToggleChecked)
	r.Get("/stations/{id}/note", h.HandleGetNote)
	r.Put("/stations/{id}/note", h.HandlePutNote)

	r.Get("/selections", h.HandleGetSelections)
	r.Post("/selections/close", h.HandleCloseAll)
}
