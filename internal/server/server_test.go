package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuelops/pricemap/internal/config"
	"github.com/fuelops/pricemap/internal/database"
	"github.com/fuelops/pricemap/internal/modules/mapview"
	"github.com/fuelops/pricemap/internal/modules/session"
	"github.com/fuelops/pricemap/internal/modules/snapshots"
)

// stubSource serves a fixed manifest and identical snapshot content for
// every filename.
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

var serverDBCounter int

func setupTestServer(t *testing.T) *Server {
	t.Helper()

	logger := zerolog.New(nil).Level(zerolog.Disabled)

	source := &stubSource{
		files: []string{"RRMudflapsPrices_2026-01-19_09-00-00.json"},
		entries: []snapshots.RawEntry{
			{
				Store: "Road Ranger #221",
				StoreData: &snapshots.RawStoreData{
					Latitude:  snapshots.FlexFloat{Value: 41.88, Valid: true},
					Longitude: snapshots.FlexFloat{Value: -87.63, Valid: true},
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

	snapshotSvc := snapshots.NewService(source, "RRMudflapsPrices", logger)

	display := mapview.NewDisplayList(6)
	syncer := mapview.NewSyncer(display, logger)
	sessions := session.NewManager(syncer, logger)
	snapshotSvc.SetOnLoad(sessions.SetModel)

	require.NoError(t, snapshotSvc.RefreshManifest(context.Background()))

	serverDBCounter++
	notesDB, err := database.New(database.Config{
		Path:    fmt.Sprintf("file:server_test_%d?mode=memory&cache=shared", serverDBCounter),
		Profile: database.ProfileStandard,
		Name:    "notes",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = notesDB.Close() })

	notesRepo := session.NewNotesRepository(notesDB, logger)
	require.NoError(t, notesRepo.Init())

	return New(Config{
		Log:             logger,
		Config:          &config.Config{DataDir: t.TempDir()},
		SnapshotService: snapshotSvc,
		SessionManager:  sessions,
		Display:         display,
		NotesRepo:       notesRepo,
		NotesDB:         notesDB,
		LiveHub:         NewLiveHub(logger),
		Port:            0,
		DevMode:         true,
	})
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestHandleHealth(t *testing.T) {
	s := setupTestServer(t)

	w := get(t, s, "/health")
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "healthy", response["status"])
	assert.Equal(t, "pricemap", response["service"])
}

func TestHandleSystemStatus(t *testing.T) {
	s := setupTestServer(t)

	w := get(t, s, "/api/system/status")
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))

	data := response["data"].(map[string]interface{})
	assert.Equal(t, "healthy", data["status"])
	assert.Equal(t, true, data["notes_db_ok"])
	assert.Equal(t, float64(0), data["live_clients"])

	snapshot := data["snapshot"].(map[string]interface{})
	assert.Equal(t, true, snapshot["loaded"])
	assert.Equal(t, "RRMudflapsPrices_2026-01-19_09-00-00.json", snapshot["file"])
}

func TestHandleGetOverlays(t *testing.T) {
	s := setupTestServer(t)

	w := get(t, s, "/api/map/overlays")
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))

	// Loading the snapshot rendered one base marker per station.
	data := response["data"].(map[string]interface{})
	markers := data["markers"].(map[string]interface{})
	assert.Len(t, markers, 1)
}

func TestHandleStatsSummary(t *testing.T) {
	s := setupTestServer(t)

	w := get(t, s, "/api/stats/summary")
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))

	data := response["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["station_count"])
}

func TestAPIRoutesWired(t *testing.T) {
	s := setupTestServer(t)

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		expectedStatus int
	}{
		{"snapshot index", "GET", "/api/snapshots/index", "", http.StatusOK},
		{"stations", "GET", "/api/stations", "", http.StatusOK},
		{"competitors", "GET", "/api/stations/221/competitors", "", http.StatusOK},
		{"select", "POST", "/api/stations/221/select", "", http.StatusOK},
		{"selections", "GET", "/api/selections", "", http.StatusOK},
		{"note", "GET", "/api/stations/221/note", "", http.StatusOK},
		{"seek", "POST", "/api/snapshots/seek", `{"absolute":0}`, http.StatusOK},
		{"unknown", "GET", "/api/nope", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			} else {
				req = httptest.NewRequest(tt.method, tt.path, nil)
			}
			w := httptest.NewRecorder()
			s.router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
