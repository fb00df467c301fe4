// Package server provides the HTTP server and routing for the price map.
package server

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/fuelops/pricemap/internal/modules/session"
	"github.com/fuelops/pricemap/internal/modules/snapshots"
)

// StatusMonitor periodically pushes a heartbeat with the current snapshot
// position and selection count over the live hub, so the UI can detect a
// stalled server and re-sync after reconnects.
type StatusMonitor struct {
	liveHub     *LiveHub
	snapshotSvc *snapshots.Service
	sessions    *session.Manager
	log         zerolog.Logger
	stop        chan struct{}
}

// NewStatusMonitor creates a new status monitor
func NewStatusMonitor(liveHub *LiveHub, snapshotSvc *snapshots.Service, sessions *session.Manager, log zerolog.Logger) *StatusMonitor {
	return &StatusMonitor{
		liveHub:     liveHub,
		snapshotSvc: snapshotSvc,
		sessions:    sessions,
		log:         log.With().Str("component", "status_monitor").Logger(),
		stop:        make(chan struct{}),
	}
}

// Start begins periodic status monitoring
func (m *StatusMonitor) Start(interval time.Duration) {
	go m.monitor(interval)
}

// Stop ends the monitoring loop.
func (m *StatusMonitor) Stop() {
	close(m.stop)
}

// monitor runs the periodic monitoring loop
func (m *StatusMonitor) monitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.publishHeartbeat()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.publishHeartbeat()
		}
	}
}

// publishHeartbeat emits the current position and selection count.
func (m *StatusMonitor) publishHeartbeat() {
	payload := map[string]interface{}{
		"selections": m.sessions.SelectionCount(),
	}

	if model := m.snapshotSvc.Model(); model != nil {
		payload["snapshot"] = model.File.Filename
		if idx := m.snapshotSvc.Index(); idx != nil {
			payload["position"] = idx.ToAbsolute(m.snapshotSvc.Current())
			payload["total"] = idx.TotalCount()
		}
	}

	m.liveHub.Publish("heartbeat", payload)
}
