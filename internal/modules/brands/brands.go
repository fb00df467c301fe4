// Package brands normalizes raw competitor names to canonical brand
// identifiers and resolves their display attributes.
package brands

import (
	"fmt"
	"strings"
)

// HomeBrand is the chain whose stations this service maps.
const HomeBrand = "Road Ranger"

// HomeColor is the marker color used for the chain's own stations.
const HomeColor = "#1e3a8a"

// DefaultColor is used for brands without a configured color.
const DefaultColor = "#666666"

// pattern maps a lower-cased substring to its canonical brand.
type pattern struct {
	text  string
	brand string
}

// patterns is checked in declaration order; overlapping entries rely on it
// ("ta express" must win over the bare "ta " prefix).
var patterns = []pattern{
	{"road ranger", "Road Ranger"},
	{"ta express", "TA"},
	{"ta ", "TA"},
	{"travelcenters", "TA"},
	{"circle k", "Circle K"},
	{"speedway", "Speedway"},
	{"huck", "Huck's"},
	{"huck's", "Huck's"},
	{"haymakers", "Haymakers"},
	{"beck's", "Beck's"},
	{"beck", "Beck's"},
	{"k&h", "K&H"},
	{"shell", "Shell"},
	{"bp", "BP"},
	{"exxon", "Exxon"},
	{"chevron", "Chevron"},
	{"mobil", "Mobil"},
	{"atlanta truck", "Atlanta Truck Stop"},
}

var initials = map[string]string{
	"Road Ranger":        "RR",
	"Shell":              "SH",
	"BP":                 "BP",
	"Exxon":              "EX",
	"Chevron":            "CV",
	"Mobil":              "MO",
	"Circle K":           "CK",
	"Speedway":           "SW",
	"TA":                 "TA",
	"Huck's":             "H's",
	"Haymakers":          "HM",
	"Beck's":             "B's",
	"K&H":                "KH",
	"Atlanta Truck Stop": "AT",
}

var colors = map[string]string{
	"Road Ranger":        HomeColor, // Navy Blue
	"Shell":              "#FFD700", // Yellow/Gold
	"BP":                 "#00A859", // Green
	"Exxon":              "#ED1C24", // Red
	"Chevron":            "#E31937", // Red
	"Mobil":              "#FFC72C", // Yellow
	"Circle K":           "#FF0000", // Red
	"Speedway":           "#FF0000", // Red
	"TA":                 "#003366", // Navy Blue
	"Huck's":             "#0066CC", // Blue
	"Haymakers":          "#8B4513", // Brown
	"Beck's":             "#228B22", // Forest Green
	"K&H":                "#FF8C00", // Dark Orange
	"Atlanta Truck Stop": "#4682B4", // Steel Blue
}

// Normalize maps a raw competitor name to its canonical brand. The raw name
// is lower-cased and trimmed, then matched against the pattern table in
// declaration order; the first contained pattern wins. Unmatched names fall
// back to the first whitespace-delimited token of the original input.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	lower := strings.ToLower(strings.TrimSpace(raw))

	for _, p := range patterns {
		if strings.Contains(lower, p.text) {
			return p.brand
		}
	}

	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Initials returns the two-to-three character abbreviation shown inside a
// brand's marker. Unknown brands get their first two characters uppercased.
func Initials(brand string) string {
	if brand == "" {
		return "?"
	}
	if abbr, ok := initials[brand]; ok {
		return abbr
	}
	if len(brand) < 2 {
		return strings.ToUpper(brand)
	}
	return strings.ToUpper(brand[:2])
}

// Color returns the display color for a brand, defaulting to a neutral gray.
func Color(brand string) string {
	if brand == "" {
		return HomeColor
	}
	if c, ok := colors[brand]; ok {
		return c
	}
	return DefaultColor
}

// LogoMarkup renders the marker badge for a brand: a colored circle carrying
// the brand initials. Raw names are accepted and normalized first.
func LogoMarkup(raw string) string {
	brand := Normalize(raw)
	return fmt.Sprintf(
		`<div class="brand-initials" style="background-color: %s;">%s</div>`,
		Color(brand), Initials(brand),
	)
}
