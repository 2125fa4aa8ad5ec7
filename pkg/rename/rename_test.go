package rename

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func noCancel() bool { return false }

func TestRenameAppliesAndReturnsAction(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "old.txt")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	action, err := Rename(src, "new.txt", noCancel)
	require.NoError(t, err)
	require.NotNil(t, action)

	_, statErr := os.Stat(filepath.Join(dir, "new.txt"))
	require.NoError(t, statErr)
	_, oldErr := os.Stat(src)
	require.True(t, os.IsNotExist(oldErr))
}

func TestRenameRejectsEmptyName(t *testing.T) {
	_, err := Rename("/tmp/x", "", noCancel)
	require.Error(t, err)
}

func TestRenameRejectsRoot(t *testing.T) {
	_, err := Rename("/", "newroot", noCancel)
	require.Error(t, err)
}

func TestRenameRejectsUnchangedName(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "same.txt")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	_, err := Rename(src, "same.txt", noCancel)
	require.Error(t, err)
}

func TestBatchRenameDetectsDuplicateSource(t *testing.T) {
	items := []BatchItem{
		{From: "/tmp/a.txt", NewName: "x.txt"},
		{From: "/tmp/a.txt", NewName: "y.txt"},
	}
	_, err := BatchRename(items, noCancel)
	require.Error(t, err)
}

func TestBatchRenameDetectsDuplicateTarget(t *testing.T) {
	items := []BatchItem{
		{From: "/tmp/a.txt", NewName: "same.txt"},
		{From: "/tmp/b.txt", NewName: "same.txt"},
	}
	_, err := BatchRename(items, noCancel)
	require.Error(t, err)
}

func TestBatchRenameAppliesAllAndSkipsNoOp(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("x"), 0o644))

	items := []BatchItem{
		{From: a, NewName: "a-renamed.txt"},
		{From: b, NewName: "b.txt"}, // no-op
	}
	action, err := BatchRename(items, noCancel)
	require.NoError(t, err)
	require.NotNil(t, action)

	_, err = os.Stat(filepath.Join(dir, "a-renamed.txt"))
	require.NoError(t, err)
	_, err = os.Stat(b)
	require.NoError(t, err)
}

func TestBatchRenameRollsBackOnFailure(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(a, []byte("x"), 0o644))
	// Second item's target already exists, forcing a DestinationExists
	// failure on the rename-no-replace step.
	collide := filepath.Join(dir, "collide.txt")
	require.NoError(t, os.WriteFile(collide, []byte("y"), 0o644))
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(b, []byte("x"), 0o644))

	items := []BatchItem{
		{From: a, NewName: "a-renamed.txt"},
		{From: b, NewName: "collide.txt"},
	}
	_, err := BatchRename(items, noCancel)
	require.Error(t, err)

	// The first rename should have been rolled back.
	_, err = os.Stat(a)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "a-renamed.txt"))
	require.True(t, os.IsNotExist(err))
}

func TestPreviewAppliesRegexPrefixSuffix(t *testing.T) {
	rows := Preview([]string{"/a/report.txt"}, PreviewOptions{
		Regex:       "report",
		Replacement: "summary",
		Prefix:      "final-",
		Suffix:      "-v2",
	})
	require.Len(t, rows, 1)
	require.NoError(t, rows[0].Err)
	require.Equal(t, "final-summary-v2.txt", rows[0].NewName)
}

func TestPreviewInvalidRegexReportedButRowsComputed(t *testing.T) {
	rows := Preview([]string{"/a/x.txt", "/a/y.txt"}, PreviewOptions{
		Regex: "(unclosed",
	})
	require.Len(t, rows, 2)
	require.Error(t, rows[0].Err)
	require.Error(t, rows[1].Err)
	require.Equal(t, "x.txt", rows[0].NewName)
	require.Equal(t, "y.txt", rows[1].NewName)
}

func TestPreviewNumericSequenceAtEndWithPadding(t *testing.T) {
	rows := Preview([]string{"/a/x.txt", "/a/y.txt", "/a/z.txt"}, PreviewOptions{
		SequenceMode: SequenceNumeric,
		Placement:    PlacementEnd,
		Start:        1,
		Step:         1,
		Pad:          3,
	})
	require.Equal(t, "x001.txt", rows[0].NewName)
	require.Equal(t, "y002.txt", rows[1].NewName)
	require.Equal(t, "z003.txt", rows[2].NewName)
}

func TestPreviewSequenceSubstitutesDollarNToken(t *testing.T) {
	rows := Preview([]string{"/a/photo.jpg"}, PreviewOptions{
		Prefix:       "img-$n-",
		SequenceMode: SequenceNumeric,
		Start:        5,
		Step:         1,
		Pad:          2,
	})
	require.Equal(t, "img-05-photo.jpg", rows[0].NewName)
}

func TestPreviewAlphaSequence(t *testing.T) {
	rows := Preview([]string{"/a/x.txt", "/a/y.txt", "/a/z.txt", "/a/w.txt"}, PreviewOptions{
		SequenceMode: SequenceAlpha,
		Placement:    PlacementStart,
		Start:        25,
		Step:         1,
	})
	require.Equal(t, "Yx.txt", rows[0].NewName)
	require.Equal(t, "Zy.txt", rows[1].NewName)
	require.Equal(t, "AAz.txt", rows[2].NewName)
	require.Equal(t, "ABw.txt", rows[3].NewName)
}

func TestAlphaSequenceMapping(t *testing.T) {
	require.Equal(t, "A", alphaSequence(1))
	require.Equal(t, "Z", alphaSequence(26))
	require.Equal(t, "AA", alphaSequence(27))
	require.Equal(t, "AB", alphaSequence(28))
}
