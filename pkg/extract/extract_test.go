package extract

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/browsey/browsey-core/pkg/browseyerr"
	"github.com/stretchr/testify/require"
)

func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range entries {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
}

func writeTarGz(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	for name, content := range entries {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: name,
			Mode: 0644,
			Size: int64(len(content)),
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
}

func TestDetectFormatByMagicAndSuffix(t *testing.T) {
	dir := t.TempDir()

	zipPath := filepath.Join(dir, "a.zip")
	writeZip(t, zipPath, map[string]string{"hello.txt": "hi"})
	format, err := DetectFormat(zipPath)
	require.NoError(t, err)
	require.Equal(t, FormatZip, format)

	tgzPath := filepath.Join(dir, "a.tar.gz")
	writeTarGz(t, tgzPath, map[string]string{"hello.txt": "hi"})
	format, err = DetectFormat(tgzPath)
	require.NoError(t, err)
	require.Equal(t, FormatTarGzip, format)

	// A bare gzip stream (no tar framing) with a plain .gz suffix must not
	// be misclassified as a tar variant just because gzip's magic matched.
	plainGzPath := filepath.Join(dir, "a.txt.gz")
	gf, err := os.Create(plainGzPath)
	require.NoError(t, err)
	gz := gzip.NewWriter(gf)
	_, err = gz.Write([]byte("plain content"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, gf.Close())
	format, err = DetectFormat(plainGzPath)
	require.NoError(t, err)
	require.Equal(t, FormatGzip, format)
}

func TestDetectFormatUnsupportedXZRecognizedButUnusable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.tar.xz")
	require.NoError(t, os.WriteFile(path, []byte("not a real xz stream"), 0644))

	// xz is recognized by suffix (so it isn't reported as a wholly unknown
	// file) but maps to FormatUnknown since no pack-grounded xz decoder
	// exists; ExtractArchive then refuses it as Unsupported.
	format, err := DetectFormat(path)
	require.NoError(t, err)
	require.Equal(t, FormatUnknown, format)

	_, _, err = ExtractArchive(path, Budget{}, nil, nil, nil)
	require.Error(t, err)
	require.Equal(t, browseyerr.Unsupported, browseyerr.CodeOf(err))
}

func TestDetectFormatUnrecognizedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("just some notes"), 0644))
	_, err := DetectFormat(path)
	require.Error(t, err)
	require.Equal(t, browseyerr.Unsupported, browseyerr.CodeOf(err))
}

func TestStripArchiveSuffixLongestMatch(t *testing.T) {
	require.Equal(t, "project", StripArchiveSuffix("project.tar.gz"))
	require.Equal(t, "project", StripArchiveSuffix("project.tgz"))
	require.Equal(t, "project", StripArchiveSuffix("project.zip"))
	require.Equal(t, "project.unknown", StripArchiveSuffix("project.unknown"))
}

func TestExtractZipWritesEntries(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "payload.zip")
	writeZip(t, archivePath, map[string]string{
		"payload/top.txt":         "top",
		"payload/nested/deep.txt": "deep",
	})

	result, action, err := ExtractArchive(archivePath, Budget{}, nil, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, action)

	// Every entry shares the "payload" wrapper directory, so it is stripped
	// rather than duplicated inside the selected destination.
	data, err := os.ReadFile(filepath.Join(result.Destination, "top.txt"))
	require.NoError(t, err)
	require.Equal(t, "top", string(data))

	data, err = os.ReadFile(filepath.Join(result.Destination, "nested", "deep.txt"))
	require.NoError(t, err)
	require.Equal(t, "deep", string(data))
}

func TestExtractZipRejectsTraversalEntry(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "evil.zip")
	writeZip(t, archivePath, map[string]string{
		"../escaped.txt": "evil",
		"safe.txt":       "ok",
	})

	result, _, err := ExtractArchive(archivePath, Budget{}, nil, nil, nil)
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(filepath.Dir(result.Destination), "escaped.txt"))
	require.True(t, os.IsNotExist(statErr), "traversal entry must never be written outside the destination")

	data, err := os.ReadFile(filepath.Join(result.Destination, "safe.txt"))
	require.NoError(t, err)
	require.Equal(t, "ok", string(data))
}

func TestExtractZipSkipsSymlinkEntry(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "withlink.zip")

	f, err := os.Create(archivePath)
	require.NoError(t, err)
	w := zip.NewWriter(f)

	hdr := &zip.FileHeader{Name: "bad-link"}
	hdr.SetMode(os.ModeSymlink | 0777)
	fw, err := w.CreateHeader(hdr)
	require.NoError(t, err)
	_, err = fw.Write([]byte("/etc/passwd"))
	require.NoError(t, err)

	fw2, err := w.Create("real.txt")
	require.NoError(t, err)
	_, err = fw2.Write([]byte("content"))
	require.NoError(t, err)

	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	result, _, err := ExtractArchive(archivePath, Budget{}, nil, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 1, result.SkippedSymlinks)

	_, err = os.Lstat(filepath.Join(result.Destination, "bad-link"))
	require.True(t, os.IsNotExist(err))
}

func TestExtractTarGzipWritesEntries(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "bundle.tar.gz")
	writeTarGz(t, archivePath, map[string]string{
		"bundle/a.txt": "aaa",
	})

	result, action, err := ExtractArchive(archivePath, Budget{}, nil, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, action)

	data, err := os.ReadFile(filepath.Join(result.Destination, "a.txt"))
	require.NoError(t, err)
	require.Equal(t, "aaa", string(data))
}

func TestExtractRespectsByteBudget(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "big.zip")
	writeZip(t, archivePath, map[string]string{
		"big/file.txt": string(bytes.Repeat([]byte("x"), 1024)),
	})

	_, _, err := ExtractArchive(archivePath, Budget{MaxTotalBytes: 16}, nil, nil, nil)
	require.Error(t, err)
	require.Equal(t, browseyerr.TaskFailed, browseyerr.CodeOf(err))

	// Per spec section 8: after extraction failure, no entry created by the
	// failed extraction remains on disk — including the destination
	// directory itself, created only as a side effect of writing "big/file.txt".
	_, statErr := os.Lstat(filepath.Join(dir, "big"))
	require.True(t, os.IsNotExist(statErr), "extraction destination %q should have been rolled back", filepath.Join(dir, "big"))
}

func TestExtractAvoidsOverwritingExistingDestination(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "dup.zip")
	writeZip(t, archivePath, map[string]string{"dup/file.txt": "new"})

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "dup"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dup", "marker"), []byte("existing"), 0644))

	result, _, err := ExtractArchive(archivePath, Budget{}, nil, nil, nil)
	require.NoError(t, err)
	require.NotEqual(t, filepath.Join(dir, "dup"), result.Destination)

	data, err := os.ReadFile(filepath.Join(result.Destination, "file.txt"))
	require.NoError(t, err)
	require.Equal(t, "new", string(data))
}

func TestExtractArchivesContinuesPastFailure(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.zip")
	writeZip(t, good, map[string]string{"good/a.txt": "a"})
	bad := filepath.Join(dir, "bad.unknownext")
	require.NoError(t, os.WriteFile(bad, []byte("not an archive"), 0644))

	outcomes := ExtractArchives([]string{bad, good}, Budget{}, nil, nil, nil)
	require.Len(t, outcomes, 2)
	require.Error(t, outcomes[0].Err)
	require.NoError(t, outcomes[1].Err)
	require.NotEmpty(t, outcomes[1].Result.Destination)
}

func TestDenylistFilterSkipsMatchingEntries(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "macstuff.zip")
	writeZip(t, archivePath, map[string]string{
		"__MACOSX/a.txt": "junk",
		"project/a.txt":  "real",
	})

	filter := DenylistFilter("__MACOSX/**")
	result, _, err := ExtractArchive(archivePath, Budget{}, filter, nil, nil)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(result.Destination, "__MACOSX"))
	require.True(t, os.IsNotExist(err))

	data, err := os.ReadFile(filepath.Join(result.Destination, "project", "a.txt"))
	require.NoError(t, err)
	require.Equal(t, "real", string(data))
}
