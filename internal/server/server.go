// Package server provides the HTTP server and routing for the price map.
package server

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/fuelops/pricemap/internal/config"
	"github.com/fuelops/pricemap/internal/database"
	"github.com/fuelops/pricemap/internal/modules/mapview"
	"github.com/fuelops/pricemap/internal/modules/session"
	sessionhandlers "github.com/fuelops/pricemap/internal/modules/session/handlers"
	"github.com/fuelops/pricemap/internal/modules/snapshots"
	snapshothandlers "github.com/fuelops/pricemap/internal/modules/snapshots/handlers"
)

// Config holds server configuration
type Config struct {
	Log             zerolog.Logger
	Config          *config.Config
	SnapshotService *snapshots.Service
	SessionManager  *session.Manager
	Display         *mapview.DisplayList
	NotesRepo       *session.NotesRepository
	NotesDB         *database.DB
	LiveHub         *LiveHub
	Port            int
	DevMode         bool
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	snapshotSvc    *snapshots.Service
	sessions       *session.Manager
	display        *mapview.DisplayList
	notesRepo      *session.NotesRepository
	liveHub        *LiveHub
	systemHandlers *SystemHandlers
	statusMonitor  *StatusMonitor
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	// Register common MIME types to ensure correct Content-Type headers
	_ = mime.AddExtensionType(".js", "application/javascript")
	_ = mime.AddExtensionType(".mjs", "application/javascript")
	_ = mime.AddExtensionType(".css", "text/css")
	_ = mime.AddExtensionType(".woff2", "font/woff2")
	_ = mime.AddExtensionType(".woff", "font/woff")

	systemHandlers := NewSystemHandlers(
		cfg.Log,
		cfg.Config.DataDir,
		cfg.SnapshotService,
		cfg.SessionManager,
		cfg.NotesDB,
		cfg.LiveHub,
	)

	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		cfg:            cfg.Config,
		snapshotSvc:    cfg.SnapshotService,
		sessions:       cfg.SessionManager,
		display:        cfg.Display,
		notesRepo:      cfg.NotesRepo,
		liveHub:        cfg.LiveHub,
		systemHandlers: systemHandlers,
	}

	s.statusMonitor = NewStatusMonitor(cfg.LiveHub, cfg.SnapshotService, cfg.SessionManager, cfg.Log)

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Health check (before SPA routing)
	s.router.Get("/health", s.handleHealth)

	// Live event push. Outside /api so the 60s request timeout middleware
	// is not applied to long-lived sockets.
	s.router.Get("/ws/live", s.liveHub.HandleWebSocket)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/health", s.handleHealth)

		// System monitoring
		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.systemHandlers.HandleSystemStatus)
		})

		// Snapshot index, navigation and station data
		snapshotHandler := snapshothandlers.NewHandler(s.snapshotSvc, s.liveHub, s.log)
		snapshotHandler.RegisterRoutes(r)

		// Selections, review flags and notes
		sessionHandler := sessionhandlers.NewHandler(s.sessions, s.notesRepo, s.liveHub, s.log)
		sessionHandler.RegisterRoutes(r)

		// Rendered map state and price statistics
		mapHandlers := NewMapHandlers(s.log, s.display, s.snapshotSvc)
		r.Get("/map/overlays", mapHandlers.HandleGetOverlays)
		r.Get("/stats/summary", mapHandlers.HandleStatsSummary)
	})

	// Serve the map UI from the static directory when it exists.
	staticDir := s.cfg.StaticDir
	if staticDir == "" {
		return
	}
	if _, err := os.Stat(staticDir); err != nil {
		s.log.Warn().Str("dir", staticDir).Msg("Static directory not found, UI disabled")
		return
	}

	fileServer := http.FileServer(http.Dir(staticDir))
	assetsHandler := s.assetsHandler(fileServer)

	s.router.Get("/", s.handleIndex)
	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api") ||
			strings.HasPrefix(r.URL.Path, "/health") ||
			strings.HasPrefix(r.URL.Path, "/ws") {
			http.NotFound(w, r)
			return
		}

		// Existing files are served directly, anything else falls back to
		// index.html for client-side routing.
		name := filepath.Join(staticDir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(name); err == nil && !info.IsDir() {
			assetsHandler.ServeHTTP(w, r)
			return
		}
		s.handleIndex(w, r)
	})
}

// handleIndex serves the map page
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	index := filepath.Join(s.cfg.StaticDir, "index.html")
	data, err := os.ReadFile(index)
	if err != nil {
		s.log.Error().Err(err).Str("path", index).Msg("Failed to read index.html")
		http.Error(w, "UI not available", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to write index.html response")
	}
}

// Start starts the HTTP server and background monitors
func (s *Server) Start() error {
	// Heartbeat over the live hub every 30 seconds
	if s.statusMonitor != nil {
		s.statusMonitor.Start(30 * time.Second)
		s.log.Info().Msg("Status monitor started")
	}

	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	if s.statusMonitor != nil {
		s.statusMonitor.Stop()
	}
	return s.server.Shutdown(ctx)
}

// assetsHandler wraps the file server to set correct MIME types
func (s *Server) assetsHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ext := filepath.Ext(r.URL.Path)

		contentType := mime.TypeByExtension(ext)
		if contentType == "" {
			// Fallback for common extensions
			switch ext {
			case ".js", ".mjs":
				contentType = "application/javascript"
			case ".css":
				contentType = "text/css"
			case ".json":
				contentType = "application/json"
			case ".woff", ".woff2":
				contentType = "font/woff2"
			case ".ttf":
				contentType = "font/ttf"
			case ".svg":
				contentType = "image/svg+xml"
			default:
				contentType = "application/octet-stream"
			}
		}

		w.Header().Set("Content-Type", contentType)
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
