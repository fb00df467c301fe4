package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceMiles_SamePoint(t *testing.T) {
	d := DistanceMiles(41.0, -87.0, 41.0, -87.0)
	assert.InDelta(t, 0.0, d, 1e-9)
}

func TestDistanceMiles_KnownDistance(t *testing.T) {
	// Chicago to Indianapolis, roughly 165 miles
	d := DistanceMiles(41.8781, -87.6298, 39.7684, -86.1581)
	assert.InDelta(t, 165.0, d, 5.0)
}

func TestDistanceMiles_Symmetric(t *testing.T) {
	d1 := DistanceMiles(41.5, -88.0, 40.1, -86.5)
	d2 := DistanceMiles(40.1, -86.5, 41.5, -88.0)
	assert.InDelta(t, d1, d2, 1e-9)
}

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#1e3a8a")
	require.NoError(t, err)
	assert.Equal(t, RGB{R: 0x1e, G: 0x3a, B: 0x8a}, c)

	_, err = ParseHex("#fff")
	assert.Error(t, err)

	_, err = ParseHex("#zzzzzz")
	assert.Error(t, err)
}

func TestInterpolateColor_Midpoint(t *testing.T) {
	c, err := InterpolateColor("#000000", "#ffffff", 0.5)
	require.NoError(t, err)
	assert.Equal(t, RGB{R: 128, G: 128, B: 128}, c)
	assert.Equal(t, "rgb(128, 128, 128)", c.String())
}

func TestInterpolateColor_Endpoints(t *testing.T) {
	c, err := InterpolateColor("#1e3a8a", "#d32f2f", 0)
	require.NoError(t, err)
	assert.Equal(t, "#1e3a8a", c.Hex())

	c, err = InterpolateColor("#1e3a8a", "#d32f2f", 1)
	require.NoError(t, err)
	assert.Equal(t, "#d32f2f", c.Hex())
}

func TestInterpolateColor_ClampsRatio(t *testing.T) {
	low, err := InterpolateColor("#000000", "#ffffff", -2.5)
	require.NoError(t, err)
	assert.Equal(t, RGB{R: 0, G: 0, B: 0}, low)

	high, err := InterpolateColor("#000000", "#ffffff", 3.0)
	require.NoError(t, err)
	assert.Equal(t, RGB{R: 255, G: 255, B: 255}, high)
}

func TestInterpolateColor_BadInput(t *testing.T) {
	_, err := InterpolateColor("nope", "#ffffff", 0.5)
	assert.Error(t, err)
}
