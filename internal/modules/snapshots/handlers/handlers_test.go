package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuelops/pricemap/internal/modules/snapshots"
)

// stubSource serves a fixed manifest and identical snapshot content
// for every filename.
type stubSource struct {
	files   []string
	entries []snapshots.RawEntry
}

func (s *stubSource) Manifest(_ context.Context) ([]string, error) {
	return s.files, nil
}

func (s *stubSource) Snapshot(_ context.Context, _ string) ([]snapshots.RawEntry, error) {
	return s.entries, nil
}

// recordingNotifier captures published events.
type recordingNotifier struct {
	events []string
}

func (n *recordingNotifier) Publish(event string, _ interface{}) {
	n.events = append(n.events, event)
}

func setupTestHandler(t *testing.T) (*Handler, *recordingNotifier) {
	logger := zerolog.New(nil).Level(zerolog.Disabled)

	lat := snapshots.FlexFloat{Value: 41.88, Valid: true}
	lng := snapshots.FlexFloat{Value: -87.63, Valid: true}

	source := &stubSource{
		files: []string{
			"RRMudflapsPrices_2026-01-18_09-00-00.json",
			"RRMudflapsPrices_2026-01-19_09-00-00.json",
			"RRMudflapsPrices_2026-01-19_15-30-00.json",
		},
		entries: []snapshots.RawEntry{
			{
				Store: "Road Ranger #221",
				StoreData: &snapshots.RawStoreData{
					Latitude:  lat,
					Longitude: lng,
					Name:      "Road Ranger #221",
					Prices:    []string{"$3.499"},
				},
				Competitors: []snapshots.RawCompetitor{
					{
						Name: "Pilot Travel Center",
						Data: &snapshots.RawCompetitorData{Prices: []string{"$3.599"}},
					},
				},
			},
		},
	}

	service := snapshots.NewService(source, "RRMudflapsPrices", logger)
	require.NoError(t, service.RefreshManifest(context.Background()))

	notifier := &recordingNotifier{}
	return NewHandler(service, notifier, logger), notifier
}

func TestHandleGetIndex(t *testing.T) {
	handler, _ := setupTestHandler(t)

	req := httptest.NewRequest("GET", "/api/snapshots/index", nil)
	w := httptest.NewRecorder()

	handler.HandleGetIndex(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var response map[string]interface{}
	err := json.NewDecoder(w.Body).Decode(&response)
	require.NoError(t, err)

	assert.Contains(t, response, "data")
	assert.Contains(t, response, "metadata")

	data := response["data"].(map[string]interface{})
	assert.Equal(t, float64(3), data["total"])

	days := data["days"].([]interface{})
	require.Len(t, days, 2)

	first := days[0].(map[string]interface{})
	assert.Equal(t, "2026-01-19", first["date"])
	assert.Equal(t, float64(2), first["count"])
}

func TestHandleNavigate(t *testing.T) {
	handler, notifier := setupTestHandler(t)

	body := strings.NewReader(`{"direction": "prev"}`)
	req := httptest.NewRequest("POST", "/api/snapshots/navigate", body)
	w := httptest.NewRecorder()

	handler.HandleNavigate(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.NewDecoder(w.Body).Decode(&response)
	require.NoError(t, err)

	data := response["data"].(map[string]interface{})
	assert.Equal(t, true, data["moved"])
	assert.Contains(t, notifier.events, "snapshot_loaded")
}

func TestHandleNavigateAtBoundary(t *testing.T) {
	handler, notifier := setupTestHandler(t)

	// Newest snapshot is already loaded, so "next" has nowhere to go.
	body := strings.NewReader(`{"direction": "next"}`)
	req := httptest.NewRequest("POST", "/api/snapshots/navigate", body)
	w := httptest.NewRecorder()

	handler.HandleNavigate(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.NewDecoder(w.Body).Decode(&response)
	require.NoError(t, err)

	data := response["data"].(map[string]interface{})
	assert.Equal(t, false, data["moved"])
	assert.Empty(t, notifier.events)
}

func TestHandleNavigateRejectsBadDirection(t *testing.T) {
	handler, _ := setupTestHandler(t)

	body := strings.NewReader(`{"direction": "sideways"}`)
	req := httptest.NewRequest("POST", "/api/snapshots/navigate", body)
	w := httptest.NewRecorder()

	handler.HandleNavigate(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleSeek(t *testing.T) {
	handler, _ := setupTestHandler(t)

	body := strings.NewReader(`{"absolute": 0}`)
	req := httptest.NewRequest("POST", "/api/snapshots/seek", body)
	w := httptest.NewRecorder()

	handler.HandleSeek(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.NewDecoder(w.Body).Decode(&response)
	require.NoError(t, err)

	data := response["data"].(map[string]interface{})
	assert.Equal(t, true, data["moved"])
	assert.Equal(t, float64(0), data["absolute"])
}

func TestHandleGetStations(t *testing.T) {
	handler, _ := setupTestHandler(t)

	req := httptest.NewRequest("GET", "/api/stations", nil)
	w := httptest.NewRecorder()

	handler.HandleGetStations(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.NewDecoder(w.Body).Decode(&response)
	require.NoError(t, err)

	data := response["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["count"])

	stations := data["stations"].([]interface{})
	station := stations[0].(map[string]interface{})
	assert.Equal(t, float64(221), station["id"])
	assert.Equal(t, float64(1), station["competitor_count"])
}

func TestHandleGetCompetitors(t *testing.T) {
	handler, _ := setupTestHandler(t)

	router := chi.NewRouter()
	handler.RegisterRoutes(router)

	req := httptest.NewRequest("GET", "/stations/221/competitors", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.NewDecoder(w.Body).Decode(&response)
	require.NoError(t, err)

	data := response["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["count"])
}

func TestHandleGetCompetitorsUnknownStation(t *testing.T) {
	handler, _ := setupTestHandler(t)

	router := chi.NewRouter()
	handler.RegisterRoutes(router)

	req := httptest.NewRequest("GET", "/stations/999/competitors", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
