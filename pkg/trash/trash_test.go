package trash

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/browsey/browsey-core/pkg/logging"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestPercentEncodeDecodeRoundTrip(t *testing.T) {
	cases := []string{
		"/home/user/a normal file.txt",
		"/tmp/weird\x00name", // NUL must survive the round trip as an escape
		"/srv/data/日本語.txt",
		"simple-._~/path",
	}
	for _, c := range cases {
		encoded := percentEncode([]byte(c))
		decoded, err := percentDecode(encoded)
		require.NoError(t, err)
		require.Equal(t, c, string(decoded))
	}
}

func TestPercentDecodeRejectsMalformedEscape(t *testing.T) {
	_, err := percentDecode("abc%ZZ")
	require.Error(t, err)

	_, err = percentDecode("abc%4")
	require.Error(t, err)
}

func TestStageJournalAppendLoadRemove(t *testing.T) {
	dir := t.TempDir()
	j := newStageJournal(filepath.Join(dir, "journal"), logging.RootLogger)

	e1 := entry{Staged: "/tmp/staged-1", Original: "/home/user/a.txt"}
	e2 := entry{Staged: "/tmp/staged-2", Original: "/home/user/b.txt"}

	require.NoError(t, j.append(e1))
	require.NoError(t, j.append(e2))

	loaded, err := j.load()
	require.NoError(t, err)
	require.ElementsMatch(t, []entry{e1, e2}, loaded)

	require.NoError(t, j.remove(e1))
	loaded, err = j.load()
	require.NoError(t, err)
	require.Equal(t, []entry{e2}, loaded)
}

func TestStageJournalSkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal")
	writeFile(t, path, "good%20staged\tgood%20original\nnotwofields\nstaged\tbad%ZZ\n")

	j := newStageJournal(path, logging.RootLogger)
	loaded, err := j.load()
	require.NoError(t, err)
	require.Equal(t, []entry{{Staged: "good staged", Original: "good original"}}, loaded)
}

func TestGatewaySendRoundTripViaNoopBackend(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "doomed.txt")
	writeFile(t, src, "content")

	g := NewGateway(filepath.Join(dir, "journal"), NoopBackend{}, logging.RootLogger)
	action, err := g.Send(src)
	require.NoError(t, err)
	require.NotNil(t, action)

	_, statErr := os.Lstat(src)
	require.True(t, os.IsNotExist(statErr))

	entries, err := g.journal.load()
	require.NoError(t, err)
	require.Empty(t, entries, "journal entry must be retired once the backend confirms the move")
}

func TestFreedesktopBackendSendAndRewrite(t *testing.T) {
	home := t.TempDir()
	backend, err := NewFreedesktopBackend(home)
	require.NoError(t, err)

	stageDir := t.TempDir()
	staged := filepath.Join(stageDir, "browsey-trash-stage-1-2-0")
	writeFile(t, staged, "payload")

	trashedLocation, err := backend.SendToTrash(staged)
	require.NoError(t, err)
	data, err := os.ReadFile(trashedLocation)
	require.NoError(t, err)
	require.Equal(t, "payload", string(data))

	infoPath := filepath.Join(home, ".local", "share", "Trash", "info", filepath.Base(trashedLocation)+".trashinfo")
	_, err = os.Stat(infoPath)
	require.NoError(t, err)

	require.NoError(t, backend.RewriteOriginalName(trashedLocation, "/home/user/doomed.txt"))
	content, err := os.ReadFile(infoPath)
	require.NoError(t, err)
	require.Contains(t, string(content), "doomed.txt")
}

func TestRecoverRestoresStagedEntries(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "a.txt")
	staged := filepath.Join(dir, "browsey-trash-stage-1-2-0")
	writeFile(t, staged, "x")

	g := NewGateway(filepath.Join(dir, "journal"), NoopBackend{}, logging.RootLogger)
	require.NoError(t, g.journal.append(entry{Staged: staged, Original: original}))

	require.NoError(t, g.Recover())

	_, err := os.Lstat(original)
	require.NoError(t, err)
	_, err = os.Lstat(staged)
	require.True(t, os.IsNotExist(err))

	entries, err := g.journal.load()
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestRecoverDropsEntryWhenStagingAbsent(t *testing.T) {
	dir := t.TempDir()
	g := NewGateway(filepath.Join(dir, "journal"), NoopBackend{}, logging.RootLogger)

	missing := entry{Staged: filepath.Join(dir, "never-existed"), Original: filepath.Join(dir, "a.txt")}
	require.NoError(t, g.journal.append(missing))

	require.NoError(t, g.Recover())

	entries, err := g.journal.load()
	require.NoError(t, err)
	require.Empty(t, entries, "an entry with no staged file left to roll back must be dropped, not retained")
}

func TestRecoverRetainsEntryWhenRollbackFails(t *testing.T) {
	dir := t.TempDir()
	staged := filepath.Join(dir, "browsey-trash-stage-1-2-0")
	writeFile(t, staged, "x")
	// Original's parent does not exist, so the rollback rename must fail.
	original := filepath.Join(dir, "missing-parent", "a.txt")

	g := NewGateway(filepath.Join(dir, "journal"), NoopBackend{}, logging.RootLogger)
	e := entry{Staged: staged, Original: original}
	require.NoError(t, g.journal.append(e))

	require.NoError(t, g.Recover())

	entries, err := g.journal.load()
	require.NoError(t, err)
	require.Equal(t, []entry{e}, entries)
}
