package snapshots

import (
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLog() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

func fp(v float64) FlexFloat { return FlexFloat{Value: v, Valid: true} }

func TestParseEntries_Basic(t *testing.T) {
	entries := []RawEntry{
		{
			Store: "Road Ranger #221",
			StoreData: &RawStoreData{
				Latitude:  fp(41.5),
				Longitude: fp(-88.1),
				Name:      "Road Ranger Joliet",
				Exit:      "I-80 Exit 130",
				Prices:    []string{"$3.499", "$4.159"},
			},
			Competitors: []RawCompetitor{
				{
					Name: "Pilot Travel Center",
					Data: &RawCompetitorData{
						Latitude:  fp(41.52),
						Longitude: fp(-88.05),
						Prices:    []string{"$3.399"},
					},
				},
			},
		},
	}

	stations, competitors := ParseEntries(entries, testLog())

	require.Len(t, stations, 1)
	s := stations[0]
	assert.Equal(t, 221, s.ID)
	assert.Equal(t, "Road Ranger Joliet", s.Name)
	assert.Equal(t, "I-80 Exit 130", s.Address)
	assert.Equal(t, "Road Ranger", s.Brand)
	require.NotNil(t, s.Price)
	assert.InDelta(t, 3.499, *s.Price, 1e-9)

	require.Len(t, competitors[221], 1)
	c := competitors[221][0]
	assert.Equal(t, "Pilot", c.Brand)
	assert.True(t, c.HasRealCoordinates)
	require.NotNil(t, c.Price)
	assert.InDelta(t, 3.399, *c.Price, 1e-9)
	assert.Greater(t, c.DistanceMiles, 0.0)
	assert.Less(t, c.DistanceMiles, 10.0)
}

func TestParseEntries_SkipsEntryMissingStoreData(t *testing.T) {
	entries := []RawEntry{
		{Store: "Road Ranger #1"},
		{
			Store: "Road Ranger #2",
			StoreData: &RawStoreData{
				Latitude:  fp(40.0),
				Longitude: fp(-89.0),
			},
		},
	}

	stations, _ := ParseEntries(entries, testLog())
	require.Len(t, stations, 1)
	assert.Equal(t, 2, stations[0].ID)
}

func TestParseEntries_SkipsEntryWithBadCoordinates(t *testing.T) {
	entries := []RawEntry{
		{
			Store: "Road Ranger #3",
			StoreData: &RawStoreData{
				Latitude: fp(40.0),
				// Longitude missing
			},
		},
	}

	stations, competitors := ParseEntries(entries, testLog())
	assert.Empty(t, stations)
	assert.Empty(t, competitors)
}

func TestParseEntries_IDFallsBackToPosition(t *testing.T) {
	entries := []RawEntry{
		{
			Store: "Road Ranger Main",
			StoreData: &RawStoreData{
				Latitude:  fp(40.0),
				Longitude: fp(-89.0),
			},
		},
	}

	stations, _ := ParseEntries(entries, testLog())
	require.Len(t, stations, 1)
	assert.Equal(t, 1, stations[0].ID)
	assert.Nil(t, stations[0].Price)
}

func TestParseEntries_SyntheticCompetitorCoordinates(t *testing.T) {
	entries := []RawEntry{
		{
			Store: "Road Ranger #10",
			StoreData: &RawStoreData{
				Latitude:  fp(41.0),
				Longitude: fp(-87.0),
			},
			Competitors: []RawCompetitor{
				{Name: "Shell", Data: &RawCompetitorData{Prices: []string{"$3.599"}}},
				{Name: "BP", Data: &RawCompetitorData{Prices: []string{"$3.699"}}},
				{Name: "no data at all"}, // dropped, does not advance spiral
				{Name: "Mobil", Data: &RawCompetitorData{}},
			},
		},
	}

	_, competitors := ParseEntries(entries, testLog())
	list := competitors[10]
	require.Len(t, list, 3)

	// Spiral radius: 0.3 + 0.1 per kept competitor, doubling as distance.
	assert.InDelta(t, 0.3, list[0].DistanceMiles, 1e-9)
	assert.InDelta(t, 0.4, list[1].DistanceMiles, 1e-9)
	assert.InDelta(t, 0.5, list[2].DistanceMiles, 1e-9)
	for _, c := range list {
		assert.False(t, c.HasRealCoordinates)
		assert.NotEqual(t, 41.0, c.Latitude)
	}

	// First placeholder sits at angle 0: due north of the station.
	assert.InDelta(t, 41.0+0.3/69.0, list[0].Latitude, 1e-9)
	assert.InDelta(t, -87.0, list[0].Longitude, 1e-9)
}

func TestParseEntries_StationWithoutCompetitorsAbsentFromMap(t *testing.T) {
	entries := []RawEntry{
		{
			Store: "Road Ranger #42",
			StoreData: &RawStoreData{
				Latitude:  fp(41.0),
				Longitude: fp(-87.0),
			},
		},
	}

	stations, competitors := ParseEntries(entries, testLog())
	require.Len(t, stations, 1)
	_, present := competitors[42]
	assert.False(t, present)
}

func TestParsePrice(t *testing.T) {
	assert.Nil(t, parsePrice(nil))
	assert.Nil(t, parsePrice([]string{}))
	assert.Nil(t, parsePrice([]string{"call for price"}))

	p := parsePrice([]string{"$3.899", "$4.599"})
	require.NotNil(t, p)
	assert.InDelta(t, 3.899, *p, 1e-9)
}

func TestFlexFloat_Unmarshal(t *testing.T) {
	var sd RawStoreData
	payload := `{"latitude": "41.25", "longitude": -88.5, "name": "x"}`
	require.NoError(t, json.Unmarshal([]byte(payload), &sd))
	assert.True(t, sd.Latitude.Valid)
	assert.InDelta(t, 41.25, sd.Latitude.Value, 1e-9)
	assert.True(t, sd.Longitude.Valid)
	assert.InDelta(t, -88.5, sd.Longitude.Value, 1e-9)

	var sd2 RawStoreData
	payload2 := `{"latitude": null, "longitude": "not-a-number"}`
	require.NoError(t, json.Unmarshal([]byte(payload2), &sd2))
	assert.False(t, sd2.Latitude.Valid)
	assert.False(t, sd2.Longitude.Valid)
}
