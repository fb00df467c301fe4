// Package session tracks the operator's working state: which stations are
// opened, their recency order, which ones are marked reviewed, and the
// per-station notes. This state outlives snapshot reloads and is reconciled
// against each freshly parsed data model.
package session

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fuelops/pricemap/internal/modules/snapshots"
)

// Visuals is the slice of the map view the session controller drives. The
// controller never touches surface handles itself; the visual layer owns
// dereferencing them.
type Visuals interface {
	RenderModel(model *snapshots.Model, checked func(stationID int) bool)
	ShowStation(station snapshots.Station, competitors []snapshots.Competitor, checked bool)
	HideStation(station snapshots.Station, checked bool)
	HideAll(model *snapshots.Model, checked func(stationID int) bool)
	RefreshStationMarker(station snapshots.Station, selected, checked bool)
}

// SelectionEntry records one opened station. At most one entry exists per
// station; re-activating refreshes the entry instead of recreating it.
type SelectionEntry struct {
	StationID   int       `json:"station_id"`
	ActivatedAt time.Time `json:"activated_at"`
	seq         uint64    // recency tiebreaker, monotonically increasing
}

// SelectionView is one opened station with everything the detail panel
// needs, competitors sorted by ascending distance.
type SelectionView struct {
	Station     snapshots.Station      `json:"station"`
	ActivatedAt time.Time              `json:"activated_at"`
	Checked     bool                   `json:"checked"`
	Competitors []snapshots.Competitor `json:"competitors"`
}

// Manager is the selection state machine. A station is either unselected or
// selected; clicking an already selected station brings it to the front of
// the recency order rather than deselecting it (deselection is an explicit
// separate action).
type Manager struct {
	log     zerolog.Logger
	visuals Visuals

	mu      sync.Mutex
	model   *snapshots.Model
	entries map[int]*SelectionEntry
	checked map[int]bool
	seq     uint64
	now     func() time.Time
}

// NewManager creates a session manager driving the given visual layer.
func NewManager(visuals Visuals, log zerolog.Logger) *Manager {
	return &Manager{
		log:     log.With().Str("component", "session_manager").Logger(),
		visuals: visuals,
		entries: make(map[int]*SelectionEntry),
		checked: make(map[int]bool),
		now:     time.Now,
	}
}

// SetModel installs a freshly parsed data model and reconciles session state
// against it: base markers are redrawn, every opened station still present
// gets its overlays rebuilt with the new prices (recency untouched), and
// entries whose station disappeared are dropped silently. The checked set is
// preserved unconditionally; it is keyed by station id, not by model.
func (m *Manager) SetModel(model *snapshots.Model) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.model = model
	m.visuals.RenderModel(model, m.isCheckedLocked)

	for id := range m.entries {
		station, ok := model.StationByID(id)
		if !ok {
			delete(m.entries, id)
			m.log.Debug().Int("station", id).Msg("Selected station absent from snapshot, dropped")
			continue
		}
		m.visuals.ShowStation(station, model.CompetitorsFor(id), m.checked[id])
	}
}

// Select opens a station. Selecting an already opened station refreshes its
// recency timestamp and leaves its visuals untouched.
func (m *Manager) Select(stationID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.model == nil {
		return fmt.Errorf("no snapshot loaded")
	}
	station, ok := m.model.StationByID(stationID)
	if !ok {
		return fmt.Errorf("station %d not in current snapshot", stationID)
	}

	if entry, exists := m.entries[stationID]; exists {
		entry.ActivatedAt = m.now()
		m.seq++
		entry.seq = m.seq
		return nil
	}

	m.seq++
	m.entries[stationID] = &SelectionEntry{
		StationID:   stationID,
		ActivatedAt: m.now(),
		seq:         m.seq,
	}
	m.visuals.ShowStation(station, m.model.CompetitorsFor(stationID), m.checked[stationID])

	m.log.Debug().Int("station", stationID).Msg("Station selected")
	return nil
}

// Deselect closes one opened station and removes exactly its visuals.
// Deselecting a station that is not open is a no-op.
func (m *Manager) Deselect(stationID int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[stationID]; !exists {
		return
	}
	delete(m.entries, stationID)

	if m.model != nil {
		if station, ok := m.model.StationByID(stationID); ok {
			m.visuals.HideStation(station, m.checked[stationID])
		}
	}

	m.log.Debug().Int("station", stationID).Msg("Station deselected")
}

// CloseAll closes every opened station (the panel's global close).
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[int]*SelectionEntry)
	m.visuals.HideAll(m.model, m.isCheckedLocked)
}

// ToggleChecked flips a station's reviewed flag and returns the new value.
// The flag is orthogonal to selection and survives snapshot reloads, keyed
// by the stable station id.
func (m *Manager) ToggleChecked(stationID int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := !m.checked[stationID]
	if now {
		m.checked[stationID] = true
	} else {
		delete(m.checked, stationID)
	}

	if m.model != nil {
		if station, ok := m.model.StationByID(stationID); ok {
			_, selected := m.entries[stationID]
			m.visuals.RefreshStationMarker(station, selected, now)
		}
	}

	return now
}

// IsChecked reports a station's reviewed flag.
func (m *Manager) IsChecked(stationID int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checked[stationID]
}

// IsSelected reports whether a station is currently opened.
func (m *Manager) IsSelected(stationID int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[stationID]
	return ok
}

// Selected returns the opened stations most-recently-activated first, each
// with its competitors sorted by ascending distance.
func (m *Manager) Selected() []SelectionView {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.model == nil {
		return nil
	}

	entries := make([]*SelectionEntry, 0, len(m.entries))
	for _, e := range m.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].seq > entries[j].seq
	})

	views := make([]SelectionView, 0, len(entries))
	for _, e := range entries {
		station, ok := m.model.StationByID(e.StationID)
		if !ok {
			continue
		}

		comps := append([]snapshots.Competitor(nil), m.model.CompetitorsFor(e.StationID)...)
		sort.Slice(comps, func(i, j int) bool {
			return comps[i].DistanceMiles < comps[j].DistanceMiles
		})

		views = append(views, SelectionView{
			Station:     station,
			ActivatedAt: e.ActivatedAt,
			Checked:     m.checked[e.StationID],
			Competitors: comps,
		})
	}

	return views
}

// SelectionCount returns the number of opened stations.
func (m *Manager) SelectionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Manager) isCheckedLocked(stationID int) bool {
	return m.checked[stationID]
}
