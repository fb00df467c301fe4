// Package mapview keeps the map's visual state consistent with the loaded
// snapshot and the operator's selections. It computes which markers, lines
// and labels must exist and is the only component that talks to the map
// surface; everyone else references visuals through opaque handles.
package mapview

import (
	"sync"

	"github.com/google/uuid"
)

// Handle identifies one visual owned by the map surface.
type Handle string

// LatLng is a point on the map.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// MarkerKind tags what a marker represents so the UI can style and wire it.
type MarkerKind string

const (
	MarkerStation    MarkerKind = "station"
	MarkerCompetitor MarkerKind = "competitor"
	MarkerRankLabel  MarkerKind = "rank_label"
)

// MarkerSpec describes one point marker with custom visual content.
type MarkerSpec struct {
	Kind        MarkerKind `json:"kind"`
	Position    LatLng     `json:"position"`
	HTML        string     `json:"html"`
	ClassName   string     `json:"class_name"`
	Width       int        `json:"width"`
	Height      int        `json:"height"`
	AnchorX     int        `json:"anchor_x"`
	AnchorY     int        `json:"anchor_y"`
	Popup       string     `json:"popup,omitempty"`
	Interactive bool       `json:"interactive"`
	StationID   int        `json:"station_id,omitempty"`
}

// PolylineSpec describes one line segment.
type PolylineSpec struct {
	From      LatLng  `json:"from"`
	To        LatLng  `json:"to"`
	Color     string  `json:"color"`
	Weight    int     `json:"weight"`
	Opacity   float64 `json:"opacity"`
	DashArray string  `json:"dash_array,omitempty"`
}

// Surface is the consumed map rendering capability: point markers with
// custom content and anchor offsets, polylines, bounds fitting and a
// queryable zoom level.
type Surface interface {
	AddMarker(spec MarkerSpec) Handle
	RemoveMarker(h Handle)
	AddPolyline(spec PolylineSpec) Handle
	RemovePolyline(h Handle)
	FitBounds(points []LatLng)
	Zoom() int
}

// DisplayList is an in-memory Surface. The browser is the real renderer;
// it mirrors this list via the overlays API and the live channel. Tests use
// it directly.
type DisplayList struct {
	mu        sync.RWMutex
	markers   map[Handle]MarkerSpec
	polylines map[Handle]PolylineSpec
	bounds    []LatLng
	zoom      int
	revision  uint64
}

// NewDisplayList creates an empty display list at the given initial zoom.
func NewDisplayList(zoom int) *DisplayList {
	return &DisplayList{
		markers:   make(map[Handle]MarkerSpec),
		polylines: make(map[Handle]PolylineSpec),
		zoom:      zoom,
	}
}

// AddMarker implements Surface.
func (d *DisplayList) AddMarker(spec MarkerSpec) Handle {
	h := Handle(uuid.NewString())
	d.mu.Lock()
	d.markers[h] = spec
	d.revision++
	d.mu.Unlock()
	return h
}

// RemoveMarker implements Surface.
func (d *DisplayList) RemoveMarker(h Handle) {
	d.mu.Lock()
	delete(d.markers, h)
	d.revision++
	d.mu.Unlock()
}

// AddPolyline implements Surface.
func (d *DisplayList) AddPolyline(spec PolylineSpec) Handle {
	h := Handle(uuid.NewString())
	d.mu.Lock()
	d.polylines[h] = spec
	d.revision++
	d.mu.Unlock()
	return h
}

// RemovePolyline implements Surface.
func (d *DisplayList) RemovePolyline(h Handle) {
	d.mu.Lock()
	delete(d.polylines, h)
	d.revision++
	d.mu.Unlock()
}

// FitBounds implements Surface.
func (d *DisplayList) FitBounds(points []LatLng) {
	d.mu.Lock()
	d.bounds = append([]LatLng(nil), points...)
	d.revision++
	d.mu.Unlock()
}

// Zoom implements Surface.
func (d *DisplayList) Zoom() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.zoom
}

// SetZoom records the zoom level reported by the client.
func (d *DisplayList) SetZoom(zoom int) {
	d.mu.Lock()
	d.zoom = zoom
	d.mu.Unlock()
}

// View is a queryable snapshot of the display list.
type View struct {
	Markers   map[Handle]MarkerSpec   `json:"markers"`
	Polylines map[Handle]PolylineSpec `json:"polylines"`
	Bounds    []LatLng                `json:"bounds,omitempty"`
	Zoom      int                     `json:"zoom"`
	Revision  uint64                  `json:"revision"`
}

// Snapshot returns a copy of the current display list.
func (d *DisplayList) Snapshot() View {
	d.mu.RLock()
	defer d.mu.RUnlock()

	v := View{
		Markers:   make(map[Handle]MarkerSpec, len(d.markers)),
		Polylines: make(map[Handle]PolylineSpec, len(d.polylines)),
		Bounds:    append([]LatLng(nil), d.bounds...),
		Zoom:      d.zoom,
		Revision:  d.revision,
	}
	for h, m := range d.markers {
		v.Markers[h] = m
	}
	for h, p := range d.polylines {
		v.Polylines[h] = p
	}
	return v
}

// MarkerCount returns the number of live markers.
func (d *DisplayList) MarkerCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.markers)
}

// PolylineCount returns the number of live polylines.
func (d *DisplayList) PolylineCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.polylines)
}
