package cloudpath

import (
	"testing"

	"github.com/browsey/browsey-core/pkg/browseyerr"
	"github.com/stretchr/testify/require"
)

func TestParseRoundTrip(t *testing.T) {
	p, err := Parse("rclone://gdrive/photos/2024/summer.jpg")
	require.NoError(t, err)
	require.Equal(t, "gdrive", p.Remote())
	require.Equal(t, []string{"photos", "2024", "summer.jpg"}, p.Segments())
	require.Equal(t, "rclone://gdrive/photos/2024/summer.jpg", p.String())
}

func TestParseRoot(t *testing.T) {
	p, err := Parse("rclone://gdrive")
	require.NoError(t, err)
	require.True(t, p.IsRoot())
	require.Equal(t, "rclone://gdrive", p.String())

	p2, err := Parse("rclone://gdrive/")
	require.NoError(t, err)
	require.True(t, p2.IsRoot())
}

func TestParseRejectsMissingScheme(t *testing.T) {
	_, err := Parse("gdrive/photos")
	require.Error(t, err)
	require.Equal(t, browseyerr.InvalidPath, browseyerr.CodeOf(err))
}

func TestParseRejectsEmptyRemote(t *testing.T) {
	_, err := Parse("rclone:///photos")
	require.Error(t, err)
	require.Equal(t, browseyerr.InvalidPath, browseyerr.CodeOf(err))
}

func TestParseRejectsDotSegments(t *testing.T) {
	_, err := Parse("rclone://gdrive/photos/../secrets")
	require.Error(t, err)
	require.Equal(t, browseyerr.InvalidPath, browseyerr.CodeOf(err))
}

func TestParseRejectsEmptySegment(t *testing.T) {
	_, err := Parse("rclone://gdrive/photos//summer.jpg")
	require.Error(t, err)
	require.Equal(t, browseyerr.InvalidPath, browseyerr.CodeOf(err))
}

func TestJoinAppendsSegment(t *testing.T) {
	p, err := New("gdrive", []string{"photos"})
	require.NoError(t, err)

	joined, err := p.Join("2024")
	require.NoError(t, err)
	require.Equal(t, []string{"photos", "2024"}, joined.Segments())
	// The original Path is untouched.
	require.Equal(t, []string{"photos"}, p.Segments())
}

func TestJoinRejectsDotSegment(t *testing.T) {
	p, err := New("gdrive", []string{"photos"})
	require.NoError(t, err)
	_, err = p.Join("..")
	require.Error(t, err)
	require.Equal(t, browseyerr.InvalidPath, browseyerr.CodeOf(err))
}

func TestParentAndLeaf(t *testing.T) {
	p, err := New("gdrive", []string{"photos", "2024", "summer.jpg"})
	require.NoError(t, err)

	leaf, err := p.Leaf()
	require.NoError(t, err)
	require.Equal(t, "summer.jpg", leaf)

	parent, ok := p.Parent()
	require.True(t, ok)
	require.Equal(t, []string{"photos", "2024"}, parent.Segments())

	grandparent, ok := parent.Parent()
	require.True(t, ok)
	root, ok := grandparent.Parent()
	require.True(t, ok)
	require.True(t, root.IsRoot())

	_, ok = root.Parent()
	require.False(t, ok, "the remote root has no parent")
}

func TestLeafOfRootFails(t *testing.T) {
	p, err := New("gdrive", nil)
	require.NoError(t, err)
	_, err = p.Leaf()
	require.Error(t, err)
	require.Equal(t, browseyerr.InvalidPath, browseyerr.CodeOf(err))
}

func TestToRcloneSpec(t *testing.T) {
	p, err := New("gdrive", []string{"photos", "summer.jpg"})
	require.NoError(t, err)
	require.Equal(t, "gdrive:photos/summer.jpg", p.ToRcloneSpec())

	root, err := New("gdrive", nil)
	require.NoError(t, err)
	require.Equal(t, "gdrive:", root.ToRcloneSpec())
}

func TestEqualCaseSensitiveByDefault(t *testing.T) {
	a, _ := New("gdrive", []string{"Photos"})
	b, _ := New("gdrive", []string{"photos"})
	require.False(t, a.Equal(b, false))
	require.True(t, a.Equal(b, true))
}

func TestHasPrefixForSubtreeInvalidation(t *testing.T) {
	root, _ := New("gdrive", []string{"photos"})
	child, _ := New("gdrive", []string{"photos", "2024"})
	sibling, _ := New("gdrive", []string{"videos"})
	otherRemote, _ := New("onedrive", []string{"photos", "2024"})

	require.True(t, child.HasPrefix(root, false))
	require.True(t, root.HasPrefix(root, false))
	require.False(t, sibling.HasPrefix(root, false))
	require.False(t, otherRemote.HasPrefix(root, false))
}
