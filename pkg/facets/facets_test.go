package facets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNameBucketRanges(t *testing.T) {
	cases := map[string]string{
		"apple.txt":  "A–F",
		"grape.txt":  "G–L",
		"melon.txt":  "M–R",
		"squash.txt": "S–Z",
		"9file.txt":  "0-9",
		"_weird":     "Other",
	}
	for name, want := range cases {
		label, _ := nameBucket(name)
		require.Equal(t, want, label, name)
	}
}

func TestTypeBucketFolderRanksFirst(t *testing.T) {
	_, folderRank := typeBucket(Entry{Name: "dir", IsDir: true})
	_, fileRank := typeBucket(Entry{Name: "a.txt"})
	require.Less(t, folderRank, fileRank)
}

func TestTypeBucketUppercasesExtension(t *testing.T) {
	label, _ := typeBucket(Entry{Name: "photo.JPG"})
	require.Equal(t, "JPG", label)
}

func TestTypeBucketNoExtension(t *testing.T) {
	label, _ := typeBucket(Entry{Name: "README"})
	require.Equal(t, "No extension", label)
}

func TestSizeBucketRangesCulminateInOverOneTB(t *testing.T) {
	label, _ := sizeBucket(0)
	require.Equal(t, "Empty", label)

	label, _ = sizeBucket(2 << 40)
	require.Equal(t, "Over 1 TB", label)
}

func TestSizeBucketMonotonicRank(t *testing.T) {
	_, r1 := sizeBucket(5)
	_, r2 := sizeBucket(50 * 1024)
	_, r3 := sizeBucket(2 << 40)
	require.Less(t, r1, r2)
	require.Less(t, r2, r3)
}

func TestModifiedBucketToday(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	label, _ := modifiedBucket(time.Date(2026, 3, 10, 1, 0, 0, 0, time.UTC), now)
	require.Equal(t, "Today", label)
}

func TestModifiedBucketYesterday(t *testing.T) {
	now := time.Date(2026, 3, 10, 1, 0, 0, 0, time.UTC)
	label, _ := modifiedBucket(time.Date(2026, 3, 9, 23, 0, 0, 0, time.UTC), now)
	require.Equal(t, "Yesterday", label)
}

func TestModifiedBucketDaysAgo(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	label, _ := modifiedBucket(time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC), now)
	require.Equal(t, "4 days ago", label)
}

func TestModifiedBucketWeeksAgo(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	label, _ := modifiedBucket(time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC), now)
	require.Equal(t, "2 weeks ago", label)
}

func TestModifiedBucketMonthsAgo(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	label, _ := modifiedBucket(time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), now)
	require.Contains(t, label, "months ago")
}

func TestModifiedBucketYearsAgo(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	label, _ := modifiedBucket(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), now)
	require.Equal(t, "3 years ago", label)
}

func TestBuildAggregatesCountsAndSortsByRank(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	entries := []Entry{
		{Name: "apple.txt", Size: 10, Modified: now},
		{Name: "avocado.txt", Size: 20, Modified: now},
		{Name: "zebra.txt", Size: 2 << 40, Modified: now.AddDate(0, 0, -400)},
		{Name: "docs", IsDir: true, Modified: now},
	}
	result := Build(entries, now)

	require.Equal(t, "A–F", result.Name.Options[0].Label)
	require.Equal(t, 3, result.Name.Options[0].Count)

	require.Equal(t, "Folder", result.Type.Options[0].Label)

	require.Equal(t, "Today", result.Modified.Options[0].Label)

	require.Equal(t, "Empty", result.Size.Options[0].Label)
	require.Equal(t, "Over 1 TB", result.Size.Options[len(result.Size.Options)-1].Label)
}
