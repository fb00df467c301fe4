package snapshots

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPrefix = "RRMudflapsPrices"

// threeDayManifest covers uneven day sizes and deliberately shuffled order.
func threeDayManifest() []string {
	return []string{
		"RRMudflapsPrices_2026-01-19_14-30-00.json",
		"RRMudflapsPrices_2026-01-18_09-00-00.json",
		"RRMudflapsPrices_2026-01-19_08-15-00.json",
		"RRMudflapsPrices_2026-01-17_12-00-00.json",
		"RRMudflapsPrices_2026-01-18_16-45-30.json",
		"RRMudflapsPrices_2026-01-18_12-30-00.json",
	}
}

func TestBuildIndex_Ordering(t *testing.T) {
	idx := BuildIndex(threeDayManifest(), testPrefix)

	require.False(t, idx.IsEmpty())
	assert.Equal(t, []string{"2026-01-19", "2026-01-18", "2026-01-17"}, idx.Days())
	assert.Equal(t, 6, idx.TotalCount())

	// Times within a day sorted oldest first.
	day19 := idx.FilesFor("2026-01-19")
	require.Len(t, day19, 2)
	assert.Equal(t, "08:15:00", day19[0].Time)
	assert.Equal(t, "14:30:00", day19[1].Time)

	day18 := idx.FilesFor("2026-01-18")
	require.Len(t, day18, 3)
	assert.Equal(t, "09:00:00", day18[0].Time)
	assert.Equal(t, "16:45:30", day18[2].Time)
}

func TestBuildIndex_SkipsNonMatchingFilenames(t *testing.T) {
	idx := BuildIndex([]string{
		"RRMudflapsPrices_2026-01-19_14-30-00.json",
		"predictions_table.json",
		"RRMudflapsPrices_backup.json",
		"OtherPrefix_2026-01-19_10-00-00.json",
	}, testPrefix)

	assert.Equal(t, 1, idx.TotalCount())
}

func TestBuildIndex_EmptyWhenNothingMatches(t *testing.T) {
	idx := BuildIndex([]string{"readme.txt", "notes.json"}, testPrefix)
	assert.True(t, idx.IsEmpty())
	assert.Equal(t, 0, idx.TotalCount())
}

func TestIndex_AbsoluteRoundTrip(t *testing.T) {
	idx := BuildIndex(threeDayManifest(), testPrefix)

	for d, day := range idx.Days() {
		for ti := range idx.FilesFor(day) {
			c := Coordinate{Day: d, Time: ti}
			abs := idx.ToAbsolute(c)
			assert.Equal(t, c, idx.FromAbsolute(abs), "round trip for %+v", c)
		}
	}

	assert.Equal(t, 0, idx.ToAbsolute(idx.Oldest()))
	assert.Equal(t, idx.TotalCount()-1, idx.ToAbsolute(idx.Newest()))
}

func TestIndex_FromAbsoluteClampsToNewest(t *testing.T) {
	idx := BuildIndex(threeDayManifest(), testPrefix)

	assert.Equal(t, idx.Newest(), idx.FromAbsolute(-1))
	assert.Equal(t, idx.Newest(), idx.FromAbsolute(idx.TotalCount()))
	assert.Equal(t, idx.Newest(), idx.FromAbsolute(9999))
}

func TestIndex_StepWalksWholeRange(t *testing.T) {
	idx := BuildIndex(threeDayManifest(), testPrefix)

	// Walk newest to oldest; every step must change the absolute index by
	// exactly -1.
	c := idx.Newest()
	abs := idx.ToAbsolute(c)
	for abs > 0 {
		next, ok := idx.Step(c, -1)
		require.True(t, ok)
		assert.Equal(t, abs-1, idx.ToAbsolute(next))
		c = next
		abs--
	}
	assert.Equal(t, idx.Oldest(), c)

	// And back up again.
	for abs < idx.TotalCount()-1 {
		next, ok := idx.Step(c, 1)
		require.True(t, ok)
		assert.Equal(t, abs+1, idx.ToAbsolute(next))
		c = next
		abs++
	}
	assert.Equal(t, idx.Newest(), c)
}

func TestIndex_StepRefusesAtBounds(t *testing.T) {
	idx := BuildIndex(threeDayManifest(), testPrefix)

	c, ok := idx.Step(idx.Oldest(), -1)
	assert.False(t, ok)
	assert.Equal(t, idx.Oldest(), c)

	c, ok = idx.Step(idx.Newest(), 1)
	assert.False(t, ok)
	assert.Equal(t, idx.Newest(), c)
}

func TestIndex_StepRollsOverDayBoundary(t *testing.T) {
	idx := BuildIndex(threeDayManifest(), testPrefix)

	// Oldest snapshot of the newest day, stepping older lands on the last
	// snapshot of the previous day.
	c, ok := idx.Step(Coordinate{Day: 0, Time: 0}, -1)
	require.True(t, ok)
	assert.Equal(t, Coordinate{Day: 1, Time: 2}, c)

	// And the mirror move back.
	c, ok = idx.Step(c, 1)
	require.True(t, ok)
	assert.Equal(t, Coordinate{Day: 0, Time: 0}, c)
}

func TestIndex_CoordinateOf(t *testing.T) {
	idx := BuildIndex(threeDayManifest(), testPrefix)

	c, ok := idx.CoordinateOf("RRMudflapsPrices_2026-01-18_12-30-00.json")
	require.True(t, ok)
	assert.Equal(t, Coordinate{Day: 1, Time: 1}, c)

	_, ok = idx.CoordinateOf("RRMudflapsPrices_2030-01-01_00-00-00.json")
	assert.False(t, ok)
}

func TestIndex_At(t *testing.T) {
	idx := BuildIndex(threeDayManifest(), testPrefix)

	f, err := idx.At(Coordinate{Day: 2, Time: 0})
	require.NoError(t, err)
	assert.Equal(t, "RRMudflapsPrices_2026-01-17_12-00-00.json", f.Filename)

	_, err = idx.At(Coordinate{Day: 5, Time: 0})
	assert.Error(t, err)
	_, err = idx.At(Coordinate{Day: 0, Time: 7})
	assert.Error(t, err)
}
