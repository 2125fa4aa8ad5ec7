package pathguard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/browsey/browsey-core/pkg/browseyerr"
	"github.com/stretchr/testify/require"
)

func TestSanitizeNofollowRejectsRelative(t *testing.T) {
	_, err := SanitizeNofollow("relative/path", false)
	require.Error(t, err)
	require.Equal(t, browseyerr.PathNotAbsolute, browseyerr.CodeOf(err))
}

func TestSanitizeNofollowRejectsNUL(t *testing.T) {
	_, err := SanitizeNofollow("/tmp/a\x00b", false)
	require.Error(t, err)
	require.Equal(t, browseyerr.InvalidPath, browseyerr.CodeOf(err))
}

func TestSanitizeNofollowMustExist(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "nope")
	_, err := SanitizeNofollow(missing, true)
	require.Error(t, err)
	require.Equal(t, browseyerr.NotFound, browseyerr.CodeOf(err))

	present := filepath.Join(dir, "present")
	require.NoError(t, os.WriteFile(present, []byte("x"), 0644))
	p, err := SanitizeNofollow(present, true)
	require.NoError(t, err)
	require.Equal(t, present, p.String())
}

func TestSanitizeNofollowRefusesSymlinkComponent(t *testing.T) {
	dir := t.TempDir()
	realDir := filepath.Join(dir, "real")
	require.NoError(t, os.Mkdir(realDir, 0755))
	linkDir := filepath.Join(dir, "link")
	require.NoError(t, os.Symlink(realDir, linkDir))

	target := filepath.Join(linkDir, "file.txt")
	require.NoError(t, os.WriteFile(filepath.Join(realDir, "file.txt"), []byte("x"), 0644))

	_, err := SanitizeNofollow(target, true)
	require.Error(t, err)
	require.Equal(t, browseyerr.SymlinkUnsupported, browseyerr.CodeOf(err))
}

func TestSanitizeFollowResolvesSymlink(t *testing.T) {
	dir := t.TempDir()
	realDir := filepath.Join(dir, "real")
	require.NoError(t, os.Mkdir(realDir, 0755))
	linkDir := filepath.Join(dir, "link")
	require.NoError(t, os.Symlink(realDir, linkDir))

	p, err := SanitizeFollow(linkDir, true)
	require.NoError(t, err)
	require.Equal(t, realDir, p.String())
}

func TestCheckNoSymlinkComponentsSkipsMissing(t *testing.T) {
	dir := t.TempDir()
	err := CheckNoSymlinkComponents(filepath.Join(dir, "does", "not", "exist"))
	require.NoError(t, err)
}
