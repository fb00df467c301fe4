package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/fuelops/pricemap/internal/modules/mapview"
	"github.com/fuelops/pricemap/internal/modules/snapshots"
	"github.com/fuelops/pricemap/internal/modules/stats"
)

// MapHandlers serves the rendered map state and price statistics.
type MapHandlers struct {
	log         zerolog.Logger
	display     *mapview.DisplayList
	snapshotSvc *snapshots.Service
}

// NewMapHandlers creates a new map handlers instance
func NewMapHandlers(log zerolog.Logger, display *mapview.DisplayList, snapshotSvc *snapshots.Service) *MapHandlers {
	return &MapHandlers{
		log:         log.With().Str("component", "map_handlers").Logger(),
		display:     display,
		snapshotSvc: snapshotSvc,
	}
}

// writeJSON writes a JSON response
func (h *MapHandlers) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// HandleGetOverlays handles GET /api/map/overlays
func (h *MapHandlers) HandleGetOverlays(w http.ResponseWriter, r *http.Request) {
	view := h.display.Snapshot()

	h.writeJSON(w, map[string]interface{}{
		"data": view,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleStatsSummary handles GET /api/stats/summary
func (h *MapHandlers) HandleStatsSummary(w http.ResponseWriter, r *http.Request) {
	model := h.snapshotSvc.Model()
	if model == nil {
		http.Error(w, "No snapshot loaded yet", http.StatusServiceUnavailable)
		return
	}

	summary := stats.Summarize(model)

	h.writeJSON(w, map[string]interface{}{
		"data": summary,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}
