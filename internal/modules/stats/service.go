// Package stats computes per-snapshot market summaries: how each station's
// price sits against its competitor field.
package stats

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/fuelops/pricemap/internal/modules/snapshots"
)

// StationSummary describes one station's standing in the current snapshot.
// Deltas are competitor price minus station price, over competitors with a
// parsed price; positive means the competitor is dearer.
type StationSummary struct {
	StationID       int      `json:"station_id"`
	Name            string   `json:"name"`
	Price           *float64 `json:"price"`
	CompetitorCount int      `json:"competitor_count"`
	PricedCount     int      `json:"priced_count"`
	MeanDelta       float64  `json:"mean_delta"`
	MedianDelta     float64  `json:"median_delta"`
	StdDevDelta     float64  `json:"std_dev_delta"`
	CheaperNearby   int      `json:"cheaper_nearby"`
	DearerNearby    int      `json:"dearer_nearby"`
	// PercentileRank is the share of priced competitors the station beats
	// (i.e. that are dearer). 1.0 means cheapest in its field.
	PercentileRank float64 `json:"percentile_rank"`
}

// Summary is the whole snapshot's market picture.
type Summary struct {
	File          snapshots.File   `json:"file"`
	StationCount  int              `json:"station_count"`
	MeanPrice     float64          `json:"mean_price"`
	MedianPrice   float64          `json:"median_price"`
	CheapestPrice float64          `json:"cheapest_price"`
	DearestPrice  float64          `json:"dearest_price"`
	Stations      []StationSummary `json:"stations"`
}

// Summarize computes the market summary for a loaded snapshot. Stations and
// competitors without a parsed price are excluded from the aggregates but
// still counted.
func Summarize(model *snapshots.Model) Summary {
	if model == nil {
		return Summary{}
	}

	summary := Summary{
		File:         model.File,
		StationCount: len(model.Stations),
	}

	var ownPrices []float64
	for _, station := range model.Stations {
		if station.Price != nil {
			ownPrices = append(ownPrices, *station.Price)
		}
		summary.Stations = append(summary.Stations, summarizeStation(station, model.CompetitorsFor(station.ID)))
	}

	if len(ownPrices) > 0 {
		sort.Float64s(ownPrices)
		summary.MeanPrice = stat.Mean(ownPrices, nil)
		summary.MedianPrice = stat.Quantile(0.5, stat.Empirical, ownPrices, nil)
		summary.CheapestPrice = ownPrices[0]
		summary.DearestPrice = ownPrices[len(ownPrices)-1]
	}

	return summary
}

func summarizeStation(station snapshots.Station, competitors []snapshots.Competitor) StationSummary {
	s := StationSummary{
		StationID:       station.ID,
		Name:            station.Name,
		Price:           station.Price,
		CompetitorCount: len(competitors),
	}

	if station.Price == nil {
		return s
	}

	var deltas []float64
	for _, c := range competitors {
		if c.Price == nil {
			continue
		}
		delta := *c.Price - *station.Price
		deltas = append(deltas, delta)
		if delta < 0 {
			s.CheaperNearby++
		} else if delta > 0 {
			s.DearerNearby++
		}
	}

	s.PricedCount = len(deltas)
	if len(deltas) == 0 {
		return s
	}

	sort.Float64s(deltas)
	s.MeanDelta = stat.Mean(deltas, nil)
	s.MedianDelta = stat.Quantile(0.5, stat.Empirical, deltas, nil)
	if len(deltas) > 1 {
		s.StdDevDelta = stat.StdDev(deltas, nil)
	}
	s.PercentileRank = float64(s.DearerNearby) / float64(len(deltas))

	return s
}
