package trash

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/browsey/browsey-core/pkg/browseyerr"
	"github.com/browsey/browsey-core/pkg/logging"
)

// entry is a single stage-journal record: the staged path and the original
// path it must be restored to on recovery.
type entry struct {
	Staged   string
	Original string
}

// stageJournal is the on-disk, crash-survivable record of in-flight trash
// operations, adapted from the teacher's atomic-rewrite config persistence
// pattern (pkg/synchronization/state.go writes a full file to a temp sibling
// and renames over the target) generalized to an append-mostly log.
type stageJournal struct {
	mu   sync.Mutex
	path string
	log  *logging.Logger
}

func newStageJournal(path string, log *logging.Logger) *stageJournal {
	return &stageJournal{path: path, log: log}
}

// append atomically adds e to the journal. A single write() of a complete
// line to an O_APPEND file descriptor is atomic with respect to other
// appends and to a crash (the write either lands whole or not at all, per
// POSIX semantics for writes under PIPE_BUF / typical filesystem block
// sizes for a line this short).
func (j *stageJournal) append(e entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return browseyerr.Wrap(browseyerr.IOError, err, "unable to open stage journal")
	}
	defer f.Close()

	line := percentEncode([]byte(e.Staged)) + "\t" + percentEncode([]byte(e.Original)) + "\n"
	if _, err := f.WriteString(line); err != nil {
		return browseyerr.Wrap(browseyerr.IOError, err, "unable to append to stage journal")
	}
	return nil
}

// remove rewrites the journal with target excluded, via a temp-file-then-
// rename so a crash mid-write never leaves a truncated journal on disk.
func (j *stageJournal) remove(target entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	entries, err := j.loadLocked()
	if err != nil {
		return err
	}

	kept := entries[:0]
	for _, e := range entries {
		if e == target {
			continue
		}
		kept = append(kept, e)
	}
	return j.persistLocked(kept)
}

// load returns every currently recorded entry. Lines that fail to decode
// are logged and skipped, per spec section 4.4.
func (j *stageJournal) load() ([]entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.loadLocked()
}

func (j *stageJournal) loadLocked() ([]entry, error) {
	f, err := os.Open(j.path)
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, browseyerr.Wrap(browseyerr.IOError, err, "unable to open stage journal")
	}
	defer f.Close()

	var entries []entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		e, err := decodeLine(line)
		if err != nil {
			j.log.Warnf("skipping malformed stage journal line: %v", err)
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, browseyerr.Wrap(browseyerr.IOError, err, "unable to read stage journal")
	}
	return entries, nil
}

// persist atomically rewrites the journal to exactly entries.
func (j *stageJournal) persist(entries []entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.persistLocked(entries)
}

func (j *stageJournal) persistLocked(entries []entry) error {
	tmp := j.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return browseyerr.Wrap(browseyerr.IOError, err, "unable to create temp stage journal")
	}
	for _, e := range entries {
		line := percentEncode([]byte(e.Staged)) + "\t" + percentEncode([]byte(e.Original)) + "\n"
		if _, err := f.WriteString(line); err != nil {
			f.Close()
			os.Remove(tmp)
			return browseyerr.Wrap(browseyerr.IOError, err, "unable to write temp stage journal")
		}
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return browseyerr.Wrap(browseyerr.IOError, err, "unable to sync temp stage journal")
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return browseyerr.Wrap(browseyerr.IOError, err, "unable to close temp stage journal")
	}
	if err := os.Rename(tmp, j.path); err != nil {
		return browseyerr.Wrap(browseyerr.IOError, err, "unable to install rewritten stage journal")
	}
	return nil
}

func decodeLine(line string) (entry, error) {
	parts := strings.SplitN(line, "\t", 2)
	if len(parts) != 2 {
		return entry{}, browseyerr.New(browseyerr.InvalidInput, "malformed stage journal line: "+line)
	}
	stagedBytes, err := percentDecode(parts[0])
	if err != nil {
		return entry{}, err
	}
	originalBytes, err := percentDecode(parts[1])
	if err != nil {
		return entry{}, err
	}
	return entry{Staged: string(stagedBytes), Original: string(originalBytes)}, nil
}

// DefaultJournalPath derives the journal's path inside base (typically the
// same undo-state directory as fsprimitives' backup base).
func DefaultJournalPath(base string) string {
	return filepath.Join(base, "trash-stage-journal")
}
