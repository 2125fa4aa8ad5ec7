package clipboard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/browsey/browsey-core/pkg/browseyerr"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestCopyEntryFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	dst := filepath.Join(dir, "b.txt")
	writeFile(t, src, "payload")

	var last int64
	action, err := CopyEntry(src, dst, func(n int64) { last = n }, nil)
	require.NoError(t, err)
	require.NotNil(t, action)
	require.Equal(t, int64(len("payload")), last)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, "payload", string(data))
	_, err = os.Stat(src)
	require.NoError(t, err, "source must survive a copy")
}

func TestMoveEntryFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	dst := filepath.Join(dir, "b.txt")
	writeFile(t, src, "payload")

	action, err := MoveEntry(src, dst, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, action)

	_, err = os.Stat(src)
	require.True(t, os.IsNotExist(err))
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, "payload", string(data))
}

func TestMergeDirCopyRecurses(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "nested"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(dst, "nested"), 0755))
	writeFile(t, filepath.Join(src, "nested", "new.txt"), "new")
	writeFile(t, filepath.Join(src, "top.txt"), "top")

	action, err := MergeDir(src, dst, Copy, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, action)

	data, err := os.ReadFile(filepath.Join(dst, "nested", "new.txt"))
	require.NoError(t, err)
	require.Equal(t, "new", string(data))
	data, err = os.ReadFile(filepath.Join(dst, "top.txt"))
	require.NoError(t, err)
	require.Equal(t, "top", string(data))

	// Source untouched on Copy mode.
	_, err = os.Stat(src)
	require.NoError(t, err)
}

func TestMergeDirBacksUpNonDirCollision(t *testing.T) {
	dir := t.TempDir()
	os.Setenv("BROWSEY_UNDO_DIR", filepath.Join(dir, "undo"))
	defer os.Unsetenv("BROWSEY_UNDO_DIR")

	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	require.NoError(t, os.MkdirAll(src, 0755))
	require.NoError(t, os.MkdirAll(dst, 0755))
	writeFile(t, filepath.Join(src, "conflict"), "new-content")
	writeFile(t, filepath.Join(dst, "conflict"), "old-content")

	_, err := MergeDir(src, dst, Copy, nil, nil)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dst, "conflict"))
	require.NoError(t, err)
	require.Equal(t, "new-content", string(data))
}

func TestMergeDirCutRemovesSourceShell(t *testing.T) {
	dir := t.TempDir()
	os.Setenv("BROWSEY_UNDO_DIR", filepath.Join(dir, "undo"))
	defer os.Unsetenv("BROWSEY_UNDO_DIR")

	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	require.NoError(t, os.MkdirAll(src, 0755))
	require.NoError(t, os.MkdirAll(dst, 0755))
	writeFile(t, filepath.Join(src, "a.txt"), "a")

	_, err := MergeDir(src, dst, Cut, nil, nil)
	require.NoError(t, err)

	_, err = os.Stat(src)
	require.True(t, os.IsNotExist(err), "Cut must remove the emptied source directory")
	data, err := os.ReadFile(filepath.Join(dst, "a.txt"))
	require.NoError(t, err)
	require.Equal(t, "a", string(data))
}

func TestMergeDirRefusesSymlinkEntry(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	require.NoError(t, os.MkdirAll(src, 0755))
	require.NoError(t, os.MkdirAll(dst, 0755))
	real := filepath.Join(dir, "real.txt")
	writeFile(t, real, "x")
	require.NoError(t, os.Symlink(real, filepath.Join(src, "link.txt")))

	_, err := MergeDir(src, dst, Copy, nil, nil)
	require.Error(t, err)
	require.Equal(t, browseyerr.SymlinkUnsupported, browseyerr.CodeOf(err))
}

func TestMergeDirRollsBackOnFailure(t *testing.T) {
	dir := t.TempDir()
	os.Setenv("BROWSEY_UNDO_DIR", filepath.Join(dir, "undo"))
	defer os.Unsetenv("BROWSEY_UNDO_DIR")

	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	require.NoError(t, os.MkdirAll(src, 0755))
	require.NoError(t, os.MkdirAll(dst, 0755))
	writeFile(t, filepath.Join(src, "a.txt"), "a")
	writeFile(t, filepath.Join(src, "b.txt"), "b")

	real := filepath.Join(dir, "real.txt")
	writeFile(t, real, "x")
	require.NoError(t, os.Symlink(real, filepath.Join(src, "c-link.txt")))

	_, err := MergeDir(src, dst, Copy, nil, nil)
	require.Error(t, err)

	// a.txt and/or b.txt may have been copied before the symlink entry was
	// reached (directory order is unspecified); whichever were copied must
	// have been rolled back, leaving dst exactly as it started.
	entries, err := os.ReadDir(dst)
	require.NoError(t, err)
	require.Empty(t, entries, "every applied transfer must be rolled back after the symlink failure")
}
