// Package server provides the HTTP server and routing for the price map.
package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/fuelops/pricemap/internal/database"
	"github.com/fuelops/pricemap/internal/modules/session"
	"github.com/fuelops/pricemap/internal/modules/snapshots"
)

// SystemHandlers handles system-wide monitoring endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	dataDir     string
	startupTime time.Time
	snapshotSvc *snapshots.Service
	sessions    *session.Manager
	notesDB     *database.DB
	liveHub     *LiveHub
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(
	log zerolog.Logger,
	dataDir string,
	snapshotSvc *snapshots.Service,
	sessions *session.Manager,
	notesDB *database.DB,
	liveHub *LiveHub,
) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("component", "system_handlers").Logger(),
		dataDir:     dataDir,
		startupTime: time.Now(),
		snapshotSvc: snapshotSvc,
		sessions:    sessions,
		notesDB:     notesDB,
		liveHub:     liveHub,
	}
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, ramPercent := h.getSystemStats()

	snapshot := map[string]interface{}{
		"loaded": false,
	}
	if model := h.snapshotSvc.Model(); model != nil {
		idx := h.snapshotSvc.Index()
		snapshot = map[string]interface{}{
			"loaded":   true,
			"file":     model.File.Filename,
			"date":     model.File.Date,
			"time":     model.File.Time,
			"stations": len(model.Stations),
		}
		if idx != nil {
			snapshot["position"] = idx.ToAbsolute(h.snapshotSvc.Current())
			snapshot["total"] = idx.TotalCount()
		}
	}

	notesOK := h.notesDB != nil && h.notesDB.Conn().PingContext(r.Context()) == nil

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"status":         "healthy",
			"uptime_seconds": int(time.Since(h.startupTime).Seconds()),
			"cpu_percent":    cpuPercent,
			"ram_percent":    ramPercent,
			"data_dir_mb":    h.getDirSize(h.dataDir),
			"snapshot":       snapshot,
			"selections":     h.sessions.SelectionCount(),
			"notes_db_ok":    notesOK,
			"live_clients":   h.liveHub.ClientCount(),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, response)
}

// getDirSize calculates total size of a directory in MB
func (h *SystemHandlers) getDirSize(dirPath string) float64 {
	var totalSize int64

	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if !info.IsDir() {
			totalSize += info.Size()
		}
		return nil
	})

	if err != nil {
		h.log.Warn().Err(err).Str("dir", dirPath).Msg("Failed to calculate directory size")
		return 0
	}

	return float64(totalSize) / 1024 / 1024
}

// getSystemStats calculates CPU and RAM usage percentages.
// Uses a short 100ms sampling interval so the status endpoint stays fast.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

// writeJSON writes a JSON response
func (h *SystemHandlers) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
