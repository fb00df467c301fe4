package snapshots

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Service owns the snapshot index, the operator's position in it and the
// currently loaded data model. All navigation goes through here so that a
// fetch completing after the operator has already moved on can never clobber
// newer state: every load takes a generation ticket and a stale completion
// is discarded at commit time.
type Service struct {
	source Source
	prefix string
	log    zerolog.Logger

	mu         sync.Mutex
	index      *Index
	current    Coordinate
	model      *Model
	generation uint64
	onLoad     func(*Model)
}

// NewService creates a snapshot service over the given source.
func NewService(source Source, prefix string, log zerolog.Logger) *Service {
	return &Service{
		source: source,
		prefix: prefix,
		log:    log.With().Str("component", "snapshot_service").Logger(),
	}
}

// SetOnLoad registers a callback invoked after every committed snapshot
// load. The session controller hooks reconciliation in here.
func (s *Service) SetOnLoad(fn func(*Model)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLoad = fn
}

// RefreshManifest re-reads the manifest and rebuilds the index. The
// operator's position is preserved when its file is still listed, otherwise
// it clamps to the newest snapshot. The first successful refresh also loads
// the newest snapshot.
func (s *Service) RefreshManifest(ctx context.Context) error {
	names, err := s.source.Manifest(ctx)
	if err != nil {
		return fmt.Errorf("manifest fetch failed: %w", err)
	}

	idx := BuildIndex(names, s.prefix)
	if idx.IsEmpty() {
		return fmt.Errorf("no snapshot files matched prefix %q", s.prefix)
	}

	s.mu.Lock()
	s.index = idx

	needLoad := s.model == nil
	if s.model != nil {
		if c, ok := idx.CoordinateOf(s.model.File.Filename); ok {
			s.current = c
		} else {
			// The displayed file fell out of the manifest; keep showing its
			// data but point navigation at the newest snapshot.
			s.current = idx.Newest()
			needLoad = true
		}
	} else {
		s.current = idx.Newest()
	}
	target := s.current
	s.mu.Unlock()

	s.log.Info().
		Int("days", len(idx.Days())).
		Int("snapshots", idx.TotalCount()).
		Msg("Snapshot index rebuilt")

	if needLoad {
		return s.LoadAt(ctx, target)
	}
	return nil
}

// LoadAt fetches, parses and installs the snapshot at the given coordinate.
// On fetch or parse failure the previously displayed model stays intact. A
// load superseded by a newer one while its fetch was in flight is quietly
// dropped.
func (s *Service) LoadAt(ctx context.Context, c Coordinate) error {
	s.mu.Lock()
	if s.index == nil || s.index.IsEmpty() {
		s.mu.Unlock()
		return fmt.Errorf("snapshot index not built")
	}
	file, err := s.index.At(c)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	raw, err := s.source.Snapshot(ctx, file.Filename)
	if err != nil {
		return fmt.Errorf("snapshot load failed for %s: %w", file.Filename, err)
	}

	stations, competitors := ParseEntries(raw, s.log)

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		s.log.Debug().Str("file", file.Filename).Msg("Discarding superseded snapshot load")
		return nil
	}
	model := &Model{File: file, Stations: stations, Competitors: competitors}
	s.model = model
	s.current = c
	onLoad := s.onLoad
	s.mu.Unlock()

	s.log.Info().
		Str("file", file.Filename).
		Int("stations", len(stations)).
		Msg("Snapshot loaded")

	if onLoad != nil {
		onLoad(model)
	}
	return nil
}

// Navigate steps one snapshot toward older (dir < 0) or newer (dir > 0)
// time. At a global boundary it does nothing and reports moved=false.
func (s *Service) Navigate(ctx context.Context, dir int) (bool, error) {
	s.mu.Lock()
	if s.index == nil {
		s.mu.Unlock()
		return false, fmt.Errorf("snapshot index not built")
	}
	next, ok := s.index.Step(s.current, dir)
	s.mu.Unlock()

	if !ok {
		return false, nil
	}
	return true, s.LoadAt(ctx, next)
}

// SeekAbsolute jumps to an absolute chronological position (scrub bar).
// Out-of-range positions clamp to the newest snapshot; a seek that resolves
// to the current coordinate is a no-op so dragging does not refetch per
// pixel.
func (s *Service) SeekAbsolute(ctx context.Context, abs int) (bool, error) {
	s.mu.Lock()
	if s.index == nil {
		s.mu.Unlock()
		return false, fmt.Errorf("snapshot index not built")
	}
	target := s.index.FromAbsolute(abs)
	if target == s.current && s.model != nil {
		s.mu.Unlock()
		return false, nil
	}
	s.mu.Unlock()

	return true, s.LoadAt(ctx, target)
}

// Current returns the operator's coordinate.
func (s *Service) Current() Coordinate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Model returns the currently loaded data model, or nil before the first
// successful load. The model is immutable once installed.
func (s *Service) Model() *Model {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

// Index returns the current snapshot index, or nil before the first
// manifest refresh. The index is immutable once built.
func (s *Service) Index() *Index {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// ManifestRefreshJob periodically re-reads the manifest so snapshots dropped
// by the scraper appear without a restart.
type ManifestRefreshJob struct {
	service *Service
}

// NewManifestRefreshJob creates the scheduled refresh job.
func NewManifestRefreshJob(service *Service) *ManifestRefreshJob {
	return &ManifestRefreshJob{service: service}
}

// Name implements scheduler.Job.
func (j *ManifestRefreshJob) Name() string {
	return "manifest_refresh"
}

// Run implements scheduler.Job.
func (j *ManifestRefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	return j.service.RefreshManifest(ctx)
}
