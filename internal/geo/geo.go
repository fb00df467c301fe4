// Package geo provides coordinate and color math for the map layer.
package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// earthRadiusMiles is the radius used for great-circle distances.
const earthRadiusMiles = 3959.0

// MilesPerDegree approximates the surface distance covered by one degree
// of latitude. Used when fabricating placeholder competitor positions.
const MilesPerDegree = 69.0

// DistanceMiles returns the haversine distance between two coordinates in miles.
func DistanceMiles(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMiles * c
}

// RGB is a color with 8-bit channels.
type RGB struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// String formats the color as a CSS rgb() value.
func (c RGB) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
}

// Hex formats the color as "#rrggbb".
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseHex parses a "#rrggbb" (or "rrggbb") color string.
func ParseHex(s string) (RGB, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 {
		return RGB{}, fmt.Errorf("invalid hex color %q", s)
	}

	var ch [3]int
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseInt(h[i*2:i*2+2], 16, 32)
		if err != nil {
			return RGB{}, fmt.Errorf("invalid hex color %q: %w", s, err)
		}
		ch[i] = int(v)
	}

	return RGB{R: ch[0], G: ch[1], B: ch[2]}, nil
}

// InterpolateColor returns the per-channel linear blend of two hex colors.
// The ratio is clamped to [0, 1]: gradient callers only ever want colors on
// the segment between the two endpoints, never extrapolations past them.
func InterpolateColor(hexA, hexB string, ratio float64) (RGB, error) {
	a, err := ParseHex(hexA)
	if err != nil {
		return RGB{}, err
	}
	b, err := ParseHex(hexB)
	if err != nil {
		return RGB{}, err
	}

	if ratio < 0 {
		ratio = 0
	} else if ratio > 1 {
		ratio = 1
	}

	return RGB{
		R: int(math.Round(float64(a.R) + (float64(b.R)-float64(a.R))*ratio)),
		G: int(math.Round(float64(a.G) + (float64(b.G)-float64(a.G))*ratio)),
		B: int(math.Round(float64(a.B) + (float64(b.B)-float64(a.B))*ratio)),
	}, nil
}
