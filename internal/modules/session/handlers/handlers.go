// Package handlers provides HTTP handlers for station selection,
// review flags and operator notes.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/fuelops/pricemap/internal/modules/session"
)

// Notifier publishes state-change events to live listeners.
type Notifier interface {
	Publish(event string, payload interface{})
}

// Handler handles selection and note HTTP requests
type Handler struct {
	manager  *session.Manager
	notes    *session.NotesRepository
	notifier Notifier
	log      zerolog.Logger
}

// NewHandler creates a new session handler
func NewHandler(manager *session.Manager, notes *session.NotesRepository, notifier Notifier, log zerolog.Logger) *Handler {
	return &Handler{
		manager:  manager,
		notes:    notes,
		notifier: notifier,
		log:      log.With().Str("handler", "session").Logger(),
	}
}

// HandleSelect handles POST /api/stations/{id}/select
func (h *Handler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	id, ok := h.stationID(w, r)
	if !ok {
		return
	}

	if err := h.manager.Select(id); err != nil {
		h.log.Warn().Err(err).Int("station_id", id).Msg("Selection rejected")
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	h.publish("selection_changed")
	h.respondState(w, map[string]interface{}{
		"station_id": id,
		"selected":   true,
	})
}

// HandleDeselect handles POST /api/stations/{id}/deselect
func (h *Handler) HandleDeselect(w http.ResponseWriter, r *http.Request) {
	id, ok := h.stationID(w, r)
	if !ok {
		return
	}

	h.manager.Deselect(id)

	h.publish("selection_changed")
	h.respondState(w, map[string]interface{}{
		"station_id": id,
		"selected":   false,
	})
}

// HandleToggleChecked handles POST /api/stations/{id}/checked
func (h *Handler) HandleToggleChecked(w http.ResponseWriter, r *http.Request) {
	id, ok := h.stationID(w, r)
	if !ok {
		return
	}

	checked := h.manager.ToggleChecked(id)

	h.publish("selection_changed")
	h.respondState(w, map[string]interface{}{
		"station_id": id,
		"checked":    checked,
	})
}

// HandleGetSelections handles GET /api/selections
func (h *Handler) HandleGetSelections(w http.ResponseWriter, r *http.Request) {
	selections := h.manager.Selected()

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"selections": selections,
			"count":      len(selections),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleCloseAll handles POST /api/selections/close
func (h *Handler) HandleCloseAll(w http.ResponseWriter, r *http.Request) {
	h.manager.CloseAll()

	h.publish("selection_changed")
	h.respondState(w, map[string]interface{}{
		"closed": true,
	})
}

// HandleGetNote handles GET /api/stations/{id}/note
func (h *Handler) HandleGetNote(w http.ResponseWriter, r *http.Request) {
	id, ok := h.stationID(w, r)
	if !ok {
		return
	}

	text, err := h.notes.Get(id)
	if err != nil {
		h.log.Error().Err(err).Int("station_id", id).Msg("Failed to read note")
		http.Error(w, "Failed to read note", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"station_id": id,
			"text":       text,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandlePutNote handles PUT /api/stations/{id}/note
func (h *Handler) HandlePutNote(w http.ResponseWriter, r *http.Request) {
	id, ok := h.stationID(w, r)
	if !ok {
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.notes.Set(id, req.Text); err != nil {
		h.log.Error().Err(err).Int("station_id", id).Msg("Failed to save note")
		http.Error(w, "Failed to save note", http.StatusInternalServerError)
		return
	}

	h.respondState(w, map[string]interface{}{
		"station_id": id,
		"saved":      true,
	})
}

func (h *Handler) publish(event string) {
	if h.notifier != nil {
		h.notifier.Publish(event, map[string]interface{}{
			"selection_count": h.manager.SelectionCount(),
		})
	}
}

func (h *Handler) respondState(w http.ResponseWriter, data map[string]interface{}) {
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

func (h *Handler) stationID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid station id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
