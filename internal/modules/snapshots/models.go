// Package snapshots discovers, indexes and parses time-stamped price
// snapshot files.
package snapshots

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// File is one indexed snapshot file. Immutable once built from a filename.
type File struct {
	Date      string    `json:"date"` // "2026-01-19"
	Time      string    `json:"time"` // "14:30:00"
	Timestamp time.Time `json:"timestamp"`
	Filename  string    `json:"filename"`
}

// Coordinate addresses a snapshot as (day, time-within-day). Day 0 is the
// most recent day; time 0 is the oldest snapshot of that day.
type Coordinate struct {
	Day  int `json:"day"`
	Time int `json:"time"`
}

// Station is one of the chain's own stations as recorded in a snapshot.
// Rebuilt fresh on every parse; the ID is the only cross-snapshot link.
type Station struct {
	ID        int      `json:"id"`
	Name      string   `json:"name"`
	Address   string   `json:"address"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Price     *float64 `json:"price"`
	Brand     string   `json:"brand"`
}

// Competitor is a rival station tied to one Station for a given snapshot.
// When the feed carries no coordinates a placeholder position is fabricated
// on a spiral around the station; HasRealCoordinates distinguishes a measured
// distance from that placeholder radius.
type Competitor struct {
	Name               string   `json:"name"`
	Brand              string   `json:"brand"`
	Price              *float64 `json:"price"`
	Latitude           float64  `json:"latitude"`
	Longitude          float64  `json:"longitude"`
	DistanceMiles      float64  `json:"distance_miles"`
	HasRealCoordinates bool     `json:"has_real_coordinates"`
}

// Model is the fully parsed data of one snapshot. Replaced wholesale on
// every navigation.
type Model struct {
	File        File
	Stations    []Station
	Competitors map[int][]Competitor
}

// CompetitorsFor returns a station's competitors, sorted order as parsed.
// A station with no valid competitors yields an empty slice.
func (m *Model) CompetitorsFor(stationID int) []Competitor {
	if m == nil || m.Competitors == nil {
		return nil
	}
	return m.Competitors[stationID]
}

// StationByID looks a station up in the current model.
func (m *Model) StationByID(id int) (Station, bool) {
	if m == nil {
		return Station{}, false
	}
	for _, s := range m.Stations {
		if s.ID == id {
			return s, true
		}
	}
	return Station{}, false
}

// RawEntry is one record of a snapshot file as fetched.
type RawEntry struct {
	Store       string          `json:"rr_store"`
	StoreData   *RawStoreData   `json:"rr_store_data"`
	Competitors []RawCompetitor `json:"competitors"`
}

// RawStoreData is the nested payload carrying a store's position and prices.
type RawStoreData struct {
	Latitude  FlexFloat `json:"latitude"`
	Longitude FlexFloat `json:"longitude"`
	Name      string    `json:"name"`
	Exit      string    `json:"exit"`
	Prices    []string  `json:"prices"`
}

// RawCompetitor is one competitor sub-record.
type RawCompetitor struct {
	Name string             `json:"name"`
	Data *RawCompetitorData `json:"data"`
}

// RawCompetitorData carries a competitor's optional position and prices.
type RawCompetitorData struct {
	Latitude  FlexFloat `json:"latitude"`
	Longitude FlexFloat `json:"longitude"`
	Prices    []string  `json:"prices"`
}

// FlexFloat unmarshals from a JSON number, a numeric string, or null.
// The scraped feed is inconsistent about which one it emits.
type FlexFloat struct {
	Value float64
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	f.Valid = false
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		return nil
	}
	s = strings.Trim(s, `"`)

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		// Unparseable coordinate values are treated as absent, not fatal.
		return nil
	}

	f.Value = v
	f.Valid = true
	return nil
}

// MarshalJSON implements json.Marshaler.
func (f FlexFloat) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}
