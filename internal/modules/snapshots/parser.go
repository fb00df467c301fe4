package snapshots

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/fuelops/pricemap/internal/geo"
	"github.com/fuelops/pricemap/internal/modules/brands"
)

var digitRun = regexp.MustCompile(`(\d+)`)

// ParseEntries transforms raw snapshot records into validated stations and
// their competitor lists keyed by station ID. This is a best-effort pass:
// one malformed record is logged and skipped, never failing the batch.
func ParseEntries(entries []RawEntry, log zerolog.Logger) ([]Station, map[int][]Competitor) {
	stations := make([]Station, 0, len(entries))
	competitors := make(map[int][]Competitor)

	for i, entry := range entries {
		if entry.StoreData == nil {
			log.Warn().Int("entry", i).Str("store", entry.Store).Msg("Entry missing store data, skipped")
			continue
		}

		sd := entry.StoreData
		if !sd.Latitude.Valid || !sd.Longitude.Valid {
			log.Warn().Int("entry", i).Str("store", entry.Store).Msg("Entry has unparseable coordinates, skipped")
			continue
		}

		id := storeID(entry.Store, i)

		name := sd.Name
		if name == "" {
			name = entry.Store
		}
		address := sd.Exit
		if address == "" {
			address = sd.Name
		}

		station := Station{
			ID:        id,
			Name:      name,
			Address:   address,
			Latitude:  sd.Latitude.Value,
			Longitude: sd.Longitude.Value,
			Price:     parsePrice(sd.Prices),
			Brand:     brands.HomeBrand,
		}
		stations = append(stations, station)

		list := parseCompetitors(station, entry.Competitors)
		if len(list) > 0 {
			competitors[id] = list
		}
	}

	return stations, competitors
}

// parseCompetitors builds the competitor list for one station. Sub-records
// without a data payload are dropped; the spiral placeholder index counts
// only the kept records.
func parseCompetitors(station Station, raw []RawCompetitor) []Competitor {
	var list []Competitor

	for _, comp := range raw {
		if comp.Data == nil {
			continue
		}

		c := Competitor{
			Name:  comp.Name,
			Brand: brands.Normalize(comp.Name),
			Price: parsePrice(comp.Data.Prices),
		}

		if comp.Data.Latitude.Valid && comp.Data.Longitude.Valid {
			c.Latitude = comp.Data.Latitude.Value
			c.Longitude = comp.Data.Longitude.Value
			c.DistanceMiles = geo.DistanceMiles(station.Latitude, station.Longitude, c.Latitude, c.Longitude)
			c.HasRealCoordinates = true
		} else {
			// No coordinates in the feed: place the marker on a fixed spiral
			// around the station so it can be drawn at all. The radius doubles
			// as the reported distance; HasRealCoordinates stays false so
			// consumers never mistake it for a measured one.
			i := len(list)
			angle := float64(i*60) * math.Pi / 180
			radius := 0.3 + float64(i)*0.1
			c.Latitude = station.Latitude + (radius/geo.MilesPerDegree)*math.Cos(angle)
			c.Longitude = station.Longitude + (radius/geo.MilesPerDegree)*math.Sin(angle)
			c.DistanceMiles = radius
			c.HasRealCoordinates = false
		}

		list = append(list, c)
	}

	return list
}

// storeID derives a stable station ID from the first run of digits in the
// store identifier, falling back to the record's 1-based position.
func storeID(store string, position int) int {
	if m := digitRun.FindStringSubmatch(store); m != nil {
		if id, err := strconv.Atoi(m[1]); err == nil {
			return id
		}
	}
	return position + 1
}

// parsePrice reads the first currency-prefixed string of a price list.
func parsePrice(prices []string) *float64 {
	if len(prices) == 0 {
		return nil
	}

	s := strings.TrimSpace(strings.ReplaceAll(prices[0], "$", ""))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
