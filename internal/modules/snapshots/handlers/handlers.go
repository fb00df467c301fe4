// Package handlers provides HTTP handlers for snapshot discovery and
// time navigation.
package handlers

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/fuelops/pricemap/internal/modules/snapshots"
)

// Notifier publishes state-change events to live listeners.
type Notifier interface {
	Publish(event string, payload interface{})
}

// Handler handles snapshot HTTP requests
type Handler struct {
	service  *snapshots.Service
	notifier Notifier
	log      zerolog.Logger
}

// NewHandler creates a new snapshot handler
func NewHandler(service *snapshots.Service, notifier Notifier, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		notifier: notifier,
		log:      log.With().Str("handler", "snapshots").Logger(),
	}
}

// dayView is one calendar day of the index as presented to the UI.
type dayView struct {
	Date  string   `json:"date"`
	Times []string `json:"times"`
	Count int      `json:"count"`
}

// HandleGetIndex handles GET /api/snapshots/index
func (h *Handler) HandleGetIndex(w http.ResponseWriter, r *http.Request) {
	idx := h.service.Index()
	if idx == nil {
		http.Error(w, "Snapshot index not built yet", http.StatusServiceUnavailable)
		return
	}

	days := make([]dayView, 0, len(idx.Days()))
	for _, day := range idx.Days() {
		files := idx.FilesFor(day)
		times := make([]string, 0, len(files))
		for _, f := range files {
			times = append(times, f.Time)
		}
		days = append(days, dayView{Date: day, Times: times, Count: len(files)})
	}

	current := h.service.Current()

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"days":     days,
			"total":    idx.TotalCount(),
			"current":  current,
			"absolute": idx.ToAbsolute(current),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleNavigate handles POST /api/snapshots/navigate
func (h *Handler) HandleNavigate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Direction string `json:"direction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var dir int
	switch req.Direction {
	case "prev":
		dir = -1
	case "next":
		dir = 1
	default:
		http.Error(w, `Direction must be "prev" or "next"`, http.StatusBadRequest)
		return
	}

	moved, err := h.service.Navigate(r.Context(), dir)
	if err != nil {
		h.log.Error().Err(err).Str("direction", req.Direction).Msg("Navigation failed")
		http.Error(w, "Snapshot load failed, previous data retained", http.StatusBadGateway)
		return
	}

	h.respondPosition(w, moved)
}

// HandleSeek handles POST /api/snapshots/seek
func (h *Handler) HandleSeek(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Absolute int `json:"absolute"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	moved, err := h.service.SeekAbsolute(r.Context(), req.Absolute)
	if err != nil {
		h.log.Error().Err(err).Int("absolute", req.Absolute).Msg("Seek failed")
		http.Error(w, "Snapshot load failed, previous data retained", http.StatusBadGateway)
		return
	}

	h.respondPosition(w, moved)
}

// HandleRefresh handles POST /api/snapshots/refresh
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RefreshManifest(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("Manifest refresh failed")
		http.Error(w, "Manifest refresh failed", http.StatusBadGateway)
		return
	}

	h.respondPosition(w, false)
}

// HandleGetStations handles GET /api/stations
func (h *Handler) HandleGetStations(w http.ResponseWriter, r *http.Request) {
	model := h.service.Model()
	if model == nil {
		http.Error(w, "No snapshot loaded yet", http.StatusServiceUnavailable)
		return
	}

	type stationView struct {
		snapshots.Station
		CompetitorCount int `json:"competitor_count"`
	}

	views := make([]stationView, 0, len(model.Stations))
	for _, s := range model.Stations {
		views = append(views, stationView{
			Station:         s,
			CompetitorCount: len(model.CompetitorsFor(s.ID)),
		})
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"file":     model.File,
			"stations": views,
			"count":    len(views),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetCompetitors handles GET /api/stations/{id}/competitors
func (h *Handler) HandleGetCompetitors(w http.ResponseWriter, r *http.Request) {
	model := h.service.Model()
	if model == nil {
		http.Error(w, "No snapshot loaded yet", http.StatusServiceUnavailable)
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid station id", http.StatusBadRequest)
		return
	}
	station, ok := model.StationByID(id)
	if !ok {
		http.Error(w, "Station not in current snapshot", http.StatusNotFound)
		return
	}

	competitors := append([]snapshots.Competitor(nil), model.CompetitorsFor(id)...)
	sort.Slice(competitors, func(i, j int) bool {
		return competitors[i].DistanceMiles < competitors[j].DistanceMiles
	})

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"station":     station,
			"competitors": competitors,
			"count":       len(competitors),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// respondPosition writes the post-navigation position back to the caller
// and notifies live listeners when the current snapshot actually changed.
func (h *Handler) respondPosition(w http.ResponseWriter, moved bool) {
	if moved && h.notifier != nil {
		h.notifier.Publish("snapshot_loaded", h.service.Current())
	}

	idx := h.service.Index()
	current := h.service.Current()

	data := map[string]interface{}{
		"moved":   moved,
		"current": current,
	}
	if idx != nil {
		data["absolute"] = idx.ToAbsolute(current)
		data["total"] = idx.TotalCount()
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
