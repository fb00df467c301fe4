package snapshots

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Index orders the discovered snapshot files by calendar day and by time
// within each day, and converts between (day, time) coordinates and the
// absolute chronological position across all days.
//
// Invariants: days are sorted descending (most recent first); files within a
// day are sorted ascending by timestamp (oldest first); the absolute index
// counts from 0 at the globally oldest snapshot.
type Index struct {
	byDate map[string][]File
	days   []string
}

// filenameTimePattern matches the date and time embedded in snapshot
// filenames: <prefix>_<YYYY-MM-DD>_<HH-MM-SS>.
const filenameTimePattern = `_(\d{4}-\d{2}-\d{2})_(\d{2}-\d{2}-\d{2})`

// BuildIndex parses the given filenames and groups the ones matching the
// snapshot naming scheme. Non-matching names are skipped, not reported; the
// manifest routinely contains unrelated artifacts.
func BuildIndex(filenames []string, prefix string) *Index {
	re := regexp.MustCompile(regexp.QuoteMeta(prefix) + filenameTimePattern)

	byDate := make(map[string][]File)

	for _, name := range filenames {
		m := re.FindStringSubmatch(name)
		if m == nil {
			continue
		}

		date := m[1]
		clock := strings.ReplaceAll(m[2], "-", ":")

		ts, err := time.ParseInLocation("2006-01-02 15:04:05", date+" "+clock, time.Local)
		if err != nil {
			continue
		}

		byDate[date] = append(byDate[date], File{
			Date:      date,
			Time:      clock,
			Timestamp: ts,
			Filename:  name,
		})
	}

	days := make([]string, 0, len(byDate))
	for day := range byDate {
		days = append(days, day)
	}

	// Days newest first; times within a day oldest first.
	sort.Sort(sort.Reverse(sort.StringSlice(days)))
	for _, day := range days {
		files := byDate[day]
		sort.Slice(files, func(i, j int) bool {
			return files[i].Timestamp.Before(files[j].Timestamp)
		})
	}

	return &Index{byDate: byDate, days: days}
}

// IsEmpty reports whether no filenames matched the naming scheme.
func (idx *Index) IsEmpty() bool {
	return len(idx.days) == 0
}

// Days returns the indexed days, most recent first.
func (idx *Index) Days() []string {
	return idx.days
}

// FilesFor returns the snapshots of one day, oldest first.
func (idx *Index) FilesFor(day string) []File {
	return idx.byDate[day]
}

// TotalCount returns the number of snapshots across all days.
func (idx *Index) TotalCount() int {
	total := 0
	for _, day := range idx.days {
		total += len(idx.byDate[day])
	}
	return total
}

// At resolves a coordinate to its snapshot file.
func (idx *Index) At(c Coordinate) (File, error) {
	if c.Day < 0 || c.Day >= len(idx.days) {
		return File{}, fmt.Errorf("day index %d out of range", c.Day)
	}
	files := idx.byDate[idx.days[c.Day]]
	if c.Time < 0 || c.Time >= len(files) {
		return File{}, fmt.Errorf("time index %d out of range for day %s", c.Time, idx.days[c.Day])
	}
	return files[c.Time], nil
}

// Newest returns the coordinate of the most recent snapshot.
func (idx *Index) Newest() Coordinate {
	if idx.IsEmpty() {
		return Coordinate{}
	}
	return Coordinate{Day: 0, Time: len(idx.byDate[idx.days[0]]) - 1}
}

// Oldest returns the coordinate of the globally oldest snapshot.
func (idx *Index) Oldest() Coordinate {
	if idx.IsEmpty() {
		return Coordinate{}
	}
	return Coordinate{Day: len(idx.days) - 1, Time: 0}
}

// ToAbsolute converts a coordinate to the absolute chronological index:
// the count of snapshots on days strictly older than the coordinate's day,
// plus the time index within the day.
func (idx *Index) ToAbsolute(c Coordinate) int {
	abs := c.Time
	for i := c.Day + 1; i < len(idx.days); i++ {
		abs += len(idx.byDate[idx.days[i]])
	}
	return abs
}

// FromAbsolute is the inverse of ToAbsolute. Out-of-range positions clamp to
// the newest valid coordinate rather than failing.
func (idx *Index) FromAbsolute(abs int) Coordinate {
	if idx.IsEmpty() {
		return Coordinate{}
	}
	if abs < 0 || abs >= idx.TotalCount() {
		return idx.Newest()
	}

	// Walk days oldest to newest, consuming the absolute position.
	for i := len(idx.days) - 1; i >= 0; i-- {
		n := len(idx.byDate[idx.days[i]])
		if abs < n {
			return Coordinate{Day: i, Time: abs}
		}
		abs -= n
	}

	return idx.Newest()
}

// Step moves one snapshot toward older (dir < 0) or newer (dir > 0) time,
// rolling over day boundaries. At the global bounds it refuses to move and
// reports ok=false.
func (idx *Index) Step(c Coordinate, dir int) (Coordinate, bool) {
	if idx.IsEmpty() {
		return c, false
	}

	if dir < 0 {
		if c.Time > 0 {
			return Coordinate{Day: c.Day, Time: c.Time - 1}, true
		}
		if c.Day < len(idx.days)-1 {
			day := c.Day + 1
			return Coordinate{Day: day, Time: len(idx.byDate[idx.days[day]]) - 1}, true
		}
		return c, false
	}

	files := idx.byDate[idx.days[c.Day]]
	if c.Time < len(files)-1 {
		return Coordinate{Day: c.Day, Time: c.Time + 1}, true
	}
	if c.Day > 0 {
		return Coordinate{Day: c.Day - 1, Time: 0}, true
	}
	return c, false
}

// CoordinateOf finds the coordinate of a filename, if it is indexed. Used to
// keep the operator's position when the manifest is rebuilt.
func (idx *Index) CoordinateOf(filename string) (Coordinate, bool) {
	for d, day := range idx.days {
		for t, f := range idx.byDate[day] {
			if f.Filename == filename {
				return Coordinate{Day: d, Time: t}, true
			}
		}
	}
	return Coordinate{}, false
}
