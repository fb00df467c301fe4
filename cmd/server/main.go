// Package main is the entry point for the price map server. It serves the
// fuel price comparison map: a time-indexed view of the chain's station
// prices against the competitors recorded next to each station in the
// scraped snapshot feed.
//
// Startup sequence:
//  1. Load configuration from environment variables (.env file)
//  2. Initialize structured logging
//  3. Open the notes database
//  4. Wire the snapshot service, session manager and map view
//  5. Build the snapshot index and load the newest snapshot
//  6. Start the manifest refresh scheduler and HTTP server
//  7. Wait for a shutdown signal and drain gracefully
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fuelops/pricemap/internal/config"
	"github.com/fuelops/pricemap/internal/database"
	"github.com/fuelops/pricemap/internal/modules/mapview"
	"github.com/fuelops/pricemap/internal/modules/session"
	"github.com/fuelops/pricemap/internal/modules/snapshots"
	"github.com/fuelops/pricemap/internal/scheduler"
	"github.com/fuelops/pricemap/internal/server"
	"github.com/fuelops/pricemap/pkg/logger"
)

func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting price map server")

	// Notes database. Notes are the only state that survives restarts;
	// everything else is rebuilt from the snapshot feed.
	notesDB, err := database.New(database.Config{
		Path:    cfg.NotesDBPath(),
		Profile: database.ProfileStandard,
		Name:    "notes",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open notes database")
	}
	defer notesDB.Close()

	notesRepo := session.NewNotesRepository(notesDB, log)
	if err := notesRepo.Init(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize notes schema")
	}

	// Snapshot source: remote feed when a base URL is configured, local
	// directory otherwise.
	var source snapshots.Source
	if cfg.SnapshotBaseURL != "" {
		source = snapshots.NewHTTPSource(cfg.SnapshotBaseURL, log)
		log.Info().Str("base_url", cfg.SnapshotBaseURL).Msg("Using remote snapshot source")
	} else {
		source = snapshots.NewDirSource(cfg.SnapshotDir, log)
		log.Info().Str("dir", cfg.SnapshotDir).Msg("Using local snapshot source")
	}

	snapshotSvc := snapshots.NewService(source, cfg.SnapshotPrefix, log)

	// Map view: a display list mirrored to the browser, driven by the
	// session manager through the syncer.
	display := mapview.NewDisplayList(6)
	syncer := mapview.NewSyncer(display, log)
	sessions := session.NewManager(syncer, log)

	liveHub := server.NewLiveHub(log)

	// Every loaded snapshot rebuilds the map and reconciles open selections,
	// then the browser is told to re-fetch the overlay state.
	snapshotSvc.SetOnLoad(func(model *snapshots.Model) {
		sessions.SetModel(model)
		liveHub.Publish("snapshot_loaded", model.File)
		liveHub.Publish("overlays_changed", nil)
	})

	// Initial index build and newest-snapshot load. A failure here is not
	// fatal: the feed may be briefly unreachable and the scheduler retries.
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 2*time.Minute)
	if err := snapshotSvc.RefreshManifest(startupCtx); err != nil {
		log.Warn().Err(err).Msg("Initial manifest refresh failed, will retry on schedule")
	}
	cancelStartup()

	// Manifest refresh scheduler
	sched := scheduler.New(log)
	if err := sched.AddJob(cfg.RefreshSchedule, snapshots.NewManifestRefreshJob(snapshotSvc)); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.RefreshSchedule).Msg("Failed to schedule manifest refresh")
	}
	sched.Start()

	srv := server.New(server.Config{
		Log:             log,
		Config:          cfg,
		SnapshotService: snapshotSvc,
		SessionManager:  sessions,
		Display:         display,
		NotesRepo:       notesRepo,
		NotesDB:         notesDB,
		LiveHub:         liveHub,
		Port:            cfg.Port,
		DevMode:         cfg.DevMode,
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	sched.Stop()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("Shutdown complete")
}
