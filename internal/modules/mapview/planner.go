package mapview

import (
	"fmt"
	"math"
	"sort"

	"github.com/fuelops/pricemap/internal/geo"
	"github.com/fuelops/pricemap/internal/modules/brands"
	"github.com/fuelops/pricemap/internal/modules/snapshots"
)

// Price comparison colors.
const (
	ColorLower   = "#d32f2f" // competitor undercuts us: alert red
	ColorHigher  = "#388e3c" // competitor is dearer: green
	ColorNeutral = "#9e9e9e"
)

// priceTolerance is the equality band: differences of up to one cent count
// as the same price and get no halo. The epsilon absorbs float noise so a
// difference of exactly one cent lands inside the band.
const (
	priceTolerance = 0.01
	priceEpsilon   = 1e-9
)

// lineSegments is the number of sub-segments each connector is split into
// for the color gradient.
const lineSegments = 5

// Comparison classifies a competitor's price against the station's.
type Comparison string

const (
	ComparisonLower  Comparison = "lower"
	ComparisonHigher Comparison = "higher"
	ComparisonEqual  Comparison = "equal"
)

// HaloTier is the emphasis bucket keyed by price-difference magnitude.
type HaloTier string

const (
	HaloNone   HaloTier = ""
	HaloSmall  HaloTier = "halo-small"
	HaloMedium HaloTier = "halo-medium"
	HaloLarge  HaloTier = "halo-large"
)

// Classify compares a competitor price against the station price. Absent
// prices count as zero, matching the feed's loose semantics.
func Classify(stationPrice, competitorPrice float64) Comparison {
	if math.Abs(competitorPrice-stationPrice) <= priceTolerance+priceEpsilon {
		return ComparisonEqual
	}
	if competitorPrice < stationPrice {
		return ComparisonLower
	}
	return ComparisonHigher
}

// Color returns the marker color for a comparison outcome.
func (c Comparison) Color() string {
	switch c {
	case ComparisonLower:
		return ColorLower
	case ComparisonHigher:
		return ColorHigher
	default:
		return ColorNeutral
	}
}

// HaloFor buckets an absolute price difference into an emphasis tier.
// Differences within the equality tolerance get no halo at all.
func HaloFor(absDiff float64) HaloTier {
	switch {
	case absDiff <= priceTolerance+priceEpsilon:
		return HaloNone
	case absDiff >= 0.20:
		return HaloLarge
	case absDiff >= 0.10:
		return HaloMedium
	default:
		return HaloSmall
	}
}

// CompetitorOverlay is the planned visual set for one competitor: its
// marker, the gradient connector back to the station and the rank label at
// the connector midpoint.
type CompetitorOverlay struct {
	Competitor snapshots.Competitor
	Rank       int // 1-based, ascending distance
	Comparison Comparison
	Halo       HaloTier
	Marker     MarkerSpec
	Segments   []PolylineSpec
	RankLabel  MarkerSpec
}

// OverlayPlan is everything that must exist on the map for one opened
// station.
type OverlayPlan struct {
	StationID int
	Overlays  []CompetitorOverlay
}

// PlanOverlays computes the full overlay set for a station and its
// competitors, ordered by ascending distance. It is a pure function; the
// Syncer owns applying plans to the surface.
func PlanOverlays(station snapshots.Station, competitors []snapshots.Competitor) OverlayPlan {
	sorted := append([]snapshots.Competitor(nil), competitors...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].DistanceMiles < sorted[j].DistanceMiles
	})

	stationPrice := priceOrZero(station.Price)
	startColor := brands.Color(station.Brand)

	plan := OverlayPlan{StationID: station.ID}
	for i, comp := range sorted {
		compPrice := priceOrZero(comp.Price)
		cmp := Classify(stationPrice, compPrice)
		absDiff := math.Abs(compPrice - stationPrice)

		overlay := CompetitorOverlay{
			Competitor: comp,
			Rank:       i + 1,
			Comparison: cmp,
			Halo:       HaloFor(absDiff),
			Marker:     competitorMarker(station, comp, cmp, HaloFor(absDiff)),
			Segments:   connectorSegments(station, comp, startColor, cmp.Color()),
			RankLabel:  rankLabel(station, comp, i+1),
		}
		plan.Overlays = append(plan.Overlays, overlay)
	}

	return plan
}

// StationMarker builds the base marker for a station, reflecting selection
// and reviewed state. The reviewed flag is shown regardless of selection.
func StationMarker(station snapshots.Station, selected, checked bool) MarkerSpec {
	logo := brands.LogoMarkup(station.Brand)

	badge := ""
	if station.Price != nil {
		badge = fmt.Sprintf(`<div class="price-badge price-badge-home">$%.2f</div>`, *station.Price)
	}

	check := ""
	if checked {
		check = `<div class="checked-flag">&#10003;</div>`
	}

	className := "fuel-marker"
	size := 32
	if selected {
		className = "fuel-marker highlighted"
		size = 40
	}
	if checked {
		className += " reviewed"
	}

	return MarkerSpec{
		Kind:        MarkerStation,
		Position:    LatLng{Lat: station.Latitude, Lng: station.Longitude},
		HTML:        fmt.Sprintf(`<div class="fuel-icon">%s</div>%s%s`, logo, badge, check),
		ClassName:   className,
		Width:       size,
		Height:      size,
		AnchorX:     size / 2,
		AnchorY:     size,
		Interactive: true,
		StationID:   station.ID,
	}
}

func competitorMarker(station snapshots.Station, comp snapshots.Competitor, cmp Comparison, halo HaloTier) MarkerSpec {
	color := cmp.Color()

	badgeClass := ""
	switch cmp {
	case ComparisonLower:
		badgeClass = "badge-cheaper"
	case ComparisonHigher:
		badgeClass = "badge-expensive"
	}

	badge := ""
	if comp.Price != nil {
		badge = fmt.Sprintf(`<div class="price-badge %s">$%.2f</div>`, badgeClass, *comp.Price)
	}

	haloDiv := ""
	if halo != HaloNone {
		haloType := "halo-expensive"
		if cmp == ComparisonLower {
			haloType = "halo-cheaper"
		}
		haloDiv = fmt.Sprintf(`<div class="price-halo %s %s"></div>`, haloType, halo)
	}

	popup := popupText(station, comp)

	return MarkerSpec{
		Kind:     MarkerCompetitor,
		Position: LatLng{Lat: comp.Latitude, Lng: comp.Longitude},
		HTML: fmt.Sprintf(
			`%s<div class="competitor-icon" style="background-color: %s; border-color: %s;">%s</div>%s`,
			haloDiv, color, color, brands.LogoMarkup(comp.Name), badge),
		ClassName:   "competitor-marker-wrapper",
		Width:       26,
		Height:      26,
		AnchorX:     13,
		AnchorY:     26,
		Popup:       popup,
		Interactive: true,
		StationID:   station.ID,
	}
}

// connectorSegments splits the station-to-competitor line into a fixed
// number of sub-segments whose color fades from the station's brand color to
// the comparison color and whose opacity rises toward the competitor end.
func connectorSegments(station snapshots.Station, comp snapshots.Competitor, startColor, endColor string) []PolylineSpec {
	latStep := (comp.Latitude - station.Latitude) / lineSegments
	lngStep := (comp.Longitude - station.Longitude) / lineSegments

	segments := make([]PolylineSpec, 0, lineSegments)
	for i := 0; i < lineSegments; i++ {
		ratio := float64(i) / float64(lineSegments-1)

		color, err := geo.InterpolateColor(startColor, endColor, ratio)
		if err != nil {
			// Brand colors come from fixed tables; an unparseable one is a
			// programming error, not a data error. Fall back to the endpoint.
			color, _ = geo.ParseHex(ColorNeutral)
		}

		segments = append(segments, PolylineSpec{
			From: LatLng{
				Lat: station.Latitude + latStep*float64(i),
				Lng: station.Longitude + lngStep*float64(i),
			},
			To: LatLng{
				Lat: station.Latitude + latStep*float64(i+1),
				Lng: station.Longitude + lngStep*float64(i+1),
			},
			Color:     color.Hex(),
			Weight:    3,
			Opacity:   0.5 + ratio*0.3,
			DashArray: "8, 6",
		})
	}

	return segments
}

func rankLabel(station snapshots.Station, comp snapshots.Competitor, rank int) MarkerSpec {
	return MarkerSpec{
		Kind: MarkerRankLabel,
		Position: LatLng{
			Lat: (station.Latitude + comp.Latitude) / 2,
			Lng: (station.Longitude + comp.Longitude) / 2,
		},
		HTML:        fmt.Sprintf(`<div class="rank-badge">#%d</div>`, rank),
		ClassName:   "competitor-number-label",
		Width:       28,
		Height:      28,
		AnchorX:     14,
		AnchorY:     14,
		Interactive: false,
		StationID:   station.ID,
	}
}

func popupText(station snapshots.Station, comp snapshots.Competitor) string {
	price := "n/a"
	diff := ""
	if comp.Price != nil {
		price = fmt.Sprintf("$%.2f", *comp.Price)
		d := *comp.Price - priceOrZero(station.Price)
		if d > 0 {
			diff = fmt.Sprintf("+$%.2f vs %s", d, station.Name)
		} else {
			diff = fmt.Sprintf("-$%.2f vs %s", math.Abs(d), station.Name)
		}
	}

	distance := fmt.Sprintf("%.1f mi away", comp.DistanceMiles)
	if !comp.HasRealCoordinates {
		distance = "position approximate"
	}

	return fmt.Sprintf("<strong>%s</strong><br>Price: %s<br>%s<br>%s",
		comp.Name, price, diff, distance)
}

func priceOrZero(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
