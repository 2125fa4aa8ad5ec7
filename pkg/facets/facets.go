// Package facets implements C18: name/type/modified/size facet
// aggregation over a directory listing, with each facet's options
// sorted by a rank computed alongside its bucket rather than by raw
// alphabetical label order.
package facets

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Entry is the minimal listing shape facets are computed over: a single
// post-hidden-filter directory entry.
type Entry struct {
	Name     string
	IsDir    bool
	Size     int64
	Modified time.Time
}

// Option is one bucket of a facet, with its entry count and the rank its
// bucket function assigned it.
type Option struct {
	Label string
	Count int
	rank  int
}

// Facet is one of the four aggregated dimensions.
type Facet struct {
	Options []Option
}

// Result is the full facet aggregation over one listing, per spec
// section 4.18.
type Result struct {
	Name     Facet
	Type     Facet
	Modified Facet
	Size     Facet
}

// accumulator collects per-bucket counts while preserving the rank its
// first occurrence assigned, since a bucket function's rank is constant
// for a given label.
type accumulator struct {
	order []string
	ranks map[string]int
	count map[string]int
}

func newAccumulator() *accumulator {
	return &accumulator{ranks: make(map[string]int), count: make(map[string]int)}
}

func (a *accumulator) add(label string, rank int) {
	if _, seen := a.count[label]; !seen {
		a.order = append(a.order, label)
		a.ranks[label] = rank
	}
	a.count[label]++
}

func (a *accumulator) facet() Facet {
	options := make([]Option, len(a.order))
	for i, label := range a.order {
		options[i] = Option{Label: label, Count: a.count[label], rank: a.ranks[label]}
	}
	sort.SliceStable(options, func(i, j int) bool {
		if options[i].rank != options[j].rank {
			return options[i].rank < options[j].rank
		}
		return options[i].Label < options[j].Label
	})
	return Facet{Options: options}
}

// Build aggregates entries into the four facets named in spec section
// 4.18. now is the reference instant the modified facet's day/week/
// month/year buckets are computed against; callers pass time.Now() in
// production and a fixed instant in tests.
func Build(entries []Entry, now time.Time) Result {
	name := newAccumulator()
	typ := newAccumulator()
	modified := newAccumulator()
	size := newAccumulator()

	for _, e := range entries {
		nl, nr := nameBucket(e.Name)
		name.add(nl, nr)

		tl, tr := typeBucket(e)
		typ.add(tl, tr)

		ml, mr := modifiedBucket(e.Modified, now)
		modified.add(ml, mr)

		sl, sr := sizeBucket(e.Size)
		size.add(sl, sr)
	}

	return Result{
		Name:     name.facet(),
		Type:     typ.facet(),
		Modified: modified.facet(),
		Size:     size.facet(),
	}
}

// nameBucket assigns name to one of the six fixed letter-range buckets
// named in spec section 4.18, by its first rune.
func nameBucket(name string) (string, int) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "Other", 5
	}
	r := []rune(strings.ToUpper(trimmed))[0]
	switch {
	case r >= '0' && r <= '9':
		return "0-9", 4
	case r >= 'A' && r <= 'F':
		return "A–F", 0
	case r >= 'G' && r <= 'L':
		return "G–L", 1
	case r >= 'M' && r <= 'R':
		return "M–R", 2
	case r >= 'S' && r <= 'Z':
		return "S–Z", 3
	default:
		return "Other", 5
	}
}

// typeBucket labels a directory as "Folder" (always ranked first) and a
// file by its uppercased extension, or "No extension" if it has none.
// Extension buckets tie on rank and fall back to alphabetical-by-label
// ordering in accumulator.facet.
func typeBucket(e Entry) (string, int) {
	if e.IsDir {
		return "Folder", 0
	}
	ext := strings.TrimPrefix(filepath.Ext(e.Name), ".")
	if ext == "" {
		return "No extension", 2
	}
	return strings.ToUpper(ext), 1
}

// sizeBucket assigns size, in bytes, to one of the ten ranges named in
// spec section 4.18, culminating in "Over 1 TB".
func sizeBucket(size int64) (string, int) {
	const (
		kb = 1 << 10
		mb = 1 << 20
		gb = 1 << 30
		tb = 1 << 40
	)
	switch {
	case size == 0:
		return "Empty", 0
	case size < 10*kb:
		return "Under 10 KB", 1
	case size < 100*kb:
		return "10 KB – 100 KB", 2
	case size < mb:
		return "100 KB – 1 MB", 3
	case size < 10*mb:
		return "1 MB – 10 MB", 4
	case size < 100*mb:
		return "10 MB – 100 MB", 5
	case size < gb:
		return "100 MB – 1 GB", 6
	case size < 10*gb:
		return "1 GB – 10 GB", 7
	case size < tb:
		return "10 GB – 1 TB", 8
	default:
		return "Over 1 TB", 9
	}
}

// modifiedBucket computes a naive-day difference between modified and
// now (both converted to local calendar dates, so time-of-day doesn't
// affect the bucket) and labels it per spec section 4.18: Today,
// Yesterday, N days ago, then weeks, months, and years once the day
// count outgrows a reasonably precise "N days" label.
func modifiedBucket(modified, now time.Time) (string, int) {
	diff := civilDay(now.Local()) - civilDay(modified.Local())
	if diff < 0 {
		diff = 0
	}

	switch {
	case diff == 0:
		return "Today", 0
	case diff == 1:
		return "Yesterday", 1
	case diff <= 6:
		return fmt.Sprintf("%d days ago", diff), diff
	case diff < 30:
		weeks := diff / 7
		return fmt.Sprintf("%d %s ago", weeks, pluralize(weeks, "week")), 100 + weeks
	case diff < 365:
		months := diff / 30
		return fmt.Sprintf("%d %s ago", months, pluralize(months, "month")), 200 + months
	default:
		years := diff / 365
		return fmt.Sprintf("%d %s ago", years, pluralize(years, "year")), 300 + years
	}
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return noun
	}
	return noun + "s"
}

// civilDay returns a day-ordinal for t's local calendar date, insensitive
// to time-of-day, so subtracting two civilDay values gives the "naive-day
// difference" spec section 4.18 asks for.
func civilDay(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}
