package mapview

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/fuelops/pricemap/internal/modules/snapshots"
)

// overlaySet holds every surface handle belonging to one opened station.
// Removing a station removes exactly this set and nothing else.
type overlaySet struct {
	markers   []Handle
	polylines []Handle
}

// Syncer applies overlay plans to the map surface and owns the handle
// bookkeeping. It is the only component that dereferences visual handles.
type Syncer struct {
	surface Surface
	log     zerolog.Logger

	mu             sync.Mutex
	stationMarkers map[int]Handle
	selections     map[int]*overlaySet
}

// NewSyncer creates a syncer over the given surface.
func NewSyncer(surface Surface, log zerolog.Logger) *Syncer {
	return &Syncer{
		surface:        surface,
		log:            log.With().Str("component", "map_syncer").Logger(),
		stationMarkers: make(map[int]Handle),
		selections:     make(map[int]*overlaySet),
	}
}

// RenderModel clears the surface and draws the base marker for every
// station of a freshly loaded model, then fits the bounds around them.
// Selection overlays are not drawn here; the session controller re-opens
// surviving selections after reconciliation.
func (s *Syncer) RenderModel(model *snapshots.Model, checked func(stationID int) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, h := range s.stationMarkers {
		s.surface.RemoveMarker(h)
	}
	s.stationMarkers = make(map[int]Handle)
	s.removeAllSelectionsLocked()

	if model == nil || len(model.Stations) == 0 {
		return
	}

	points := make([]LatLng, 0, len(model.Stations))
	for _, station := range model.Stations {
		isChecked := checked != nil && checked(station.ID)
		h := s.surface.AddMarker(StationMarker(station, false, isChecked))
		s.stationMarkers[station.ID] = h
		points = append(points, LatLng{Lat: station.Latitude, Lng: station.Longitude})
	}

	s.surface.FitBounds(points)
	s.log.Debug().Int("stations", len(points)).Msg("Base markers rendered")
}

// ShowStation draws the full overlay set for one opened station and swaps
// its base marker for the highlighted variant.
func (s *Syncer) ShowStation(station snapshots.Station, competitors []snapshots.Competitor, checked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-opening replaces any stale overlay set for this station.
	s.removeSelectionLocked(station.ID)

	s.swapStationMarkerLocked(station, true, checked)

	plan := PlanOverlays(station, competitors)
	set := &overlaySet{}
	for _, ov := range plan.Overlays {
		set.markers = append(set.markers, s.surface.AddMarker(ov.Marker))
		for _, seg := range ov.Segments {
			set.polylines = append(set.polylines, s.surface.AddPolyline(seg))
		}
		set.markers = append(set.markers, s.surface.AddMarker(ov.RankLabel))
	}
	s.selections[station.ID] = set

	s.log.Debug().
		Int("station", station.ID).
		Int("competitors", len(plan.Overlays)).
		Msg("Station overlays drawn")
}

// HideStation removes one station's overlays and restores its base marker.
func (s *Syncer) HideStation(station snapshots.Station, checked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeSelectionLocked(station.ID)
	s.swapStationMarkerLocked(station, false, checked)
}

// HideAll removes every selection overlay on the surface.
func (s *Syncer) HideAll(model *snapshots.Model, checked func(stationID int) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int, 0, len(s.selections))
	for id := range s.selections {
		ids = append(ids, id)
	}
	s.removeAllSelectionsLocked()

	if model == nil {
		return
	}
	for _, id := range ids {
		if station, ok := model.StationByID(id); ok {
			isChecked := checked != nil && checked(id)
			s.swapStationMarkerLocked(station, false, isChecked)
		}
	}
}

// RefreshStationMarker redraws one station's base marker, e.g. when its
// reviewed flag toggles. Selection state must be passed by the caller since
// the marker variant depends on it.
func (s *Syncer) RefreshStationMarker(station snapshots.Station, selected, checked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.swapStationMarkerLocked(station, selected, checked)
}

// Zoom reports the surface's current zoom level.
func (s *Syncer) Zoom() int {
	return s.surface.Zoom()
}

func (s *Syncer) swapStationMarkerLocked(station snapshots.Station, selected, checked bool) {
	if h, ok := s.stationMarkers[station.ID]; ok {
		s.surface.RemoveMarker(h)
	}
	s.stationMarkers[station.ID] = s.surface.AddMarker(StationMarker(station, selected, checked))
}

func (s *Syncer) removeSelectionLocked(stationID int) {
	set, ok := s.selections[stationID]
	if !ok {
		return
	}
	for _, h := range set.markers {
		s.surface.RemoveMarker(h)
	}
	for _, h := range set.polylines {
		s.surface.RemovePolyline(h)
	}
	delete(s.selections, stationID)
}

func (s *Syncer) removeAllSelectionsLocked() {
	for id := range s.selections {
		set := s.selections[id]
		for _, h := range set.markers {
			s.surface.RemoveMarker(h)
		}
		for _, h := range set.polylines {
			s.surface.RemovePolyline(h)
		}
	}
	s.selections = make(map[int]*overlaySet)
}
