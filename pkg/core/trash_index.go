package core

import (
	"bufio"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/browsey/browsey-core/pkg/browseyerr"
	"github.com/browsey/browsey-core/pkg/logging"
)

// trashItem is one entry of the trash index: the command-surface-level
// record that lets list_trash/restore_trash_items/purge_trash_items
// address a trashed entry by a stable ID, something C4 TrashGateway
// itself has no notion of (Gateway.Send only returns a journal.Action for
// the in-memory undo stack, which doesn't survive a process restart).
type trashItem struct {
	ID              string
	Original        string
	TrashedLocation string
	TrashedAt       time.Time
}

// trashIndex is a durable, append-mostly line index of trashed items,
// grounded on trash/journal.go's own stage-journal shape (tab-separated
// fields, atomic temp+rename rewrite on removal) one layer up: where the
// stage journal tracks items mid-flight to the OS trash, this tracks items
// that have already landed there, for as long as they remain
// restorable/purgeable from the command surface. Fields are percent-
// encoded via net/url's QueryEscape rather than trash's own unexported
// percentEncode, since that helper isn't part of trash's public API and
// duplicating it here would fork the encoding scheme for no benefit — both
// achieve the same collision-free escaping of the one byte (tab) this
// format treats as a separator.
type trashIndex struct {
	mu   sync.Mutex
	path string
	log  *logging.Logger
}

func newTrashIndex(path string, log *logging.Logger) *trashIndex {
	return &trashIndex{path: path, log: log}
}

func (idx *trashIndex) append(item trashItem) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(idx.path), 0o755); err != nil {
		return browseyerr.Wrap(browseyerr.DBWriteFailed, err, "failed to create trash index directory")
	}
	f, err := os.OpenFile(idx.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return browseyerr.Wrap(browseyerr.DBWriteFailed, err, "failed to open trash index")
	}
	defer f.Close()

	if _, err := f.WriteString(encodeTrashItem(item) + "\n"); err != nil {
		return browseyerr.Wrap(browseyerr.DBWriteFailed, err, "failed to append trash index entry")
	}
	return nil
}

func (idx *trashIndex) list() ([]trashItem, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.loadLocked()
}

func (idx *trashIndex) loadLocked() ([]trashItem, error) {
	f, err := os.Open(idx.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, browseyerr.Wrap(browseyerr.DBReadFailed, err, "failed to open trash index")
	}
	defer f.Close()

	var items []trashItem
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		item, err := decodeTrashItem(line)
		if err != nil {
			idx.log.Warnf("skipping malformed trash index line: %v", err)
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// remove drops every entry whose ID is in ids and atomically rewrites the
// index, the same temp-file-then-rename replace trash's own stage journal
// uses to persist its reduced entry list.
func (idx *trashIndex) remove(ids map[string]bool) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	items, err := idx.loadLocked()
	if err != nil {
		return err
	}
	kept := items[:0]
	for _, item := range items {
		if !ids[item.ID] {
			kept = append(kept, item)
		}
	}
	return idx.persistLocked(kept)
}

func (idx *trashIndex) persistLocked(items []trashItem) error {
	var b strings.Builder
	for _, item := range items {
		b.WriteString(encodeTrashItem(item))
		b.WriteByte('\n')
	}

	tmp := idx.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(b.String()), 0o644); err != nil {
		return browseyerr.Wrap(browseyerr.DBWriteFailed, err, "failed to write trash index")
	}
	if err := os.Rename(tmp, idx.path); err != nil {
		return browseyerr.Wrap(browseyerr.DBWriteFailed, err, "failed to replace trash index")
	}
	return nil
}

func encodeTrashItem(item trashItem) string {
	return strings.Join([]string{
		item.ID,
		url.QueryEscape(item.Original),
		url.QueryEscape(item.TrashedLocation),
		strconv.FormatInt(item.TrashedAt.UnixNano(), 10),
	}, "\t")
}

func decodeTrashItem(line string) (trashItem, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != 4 {
		return trashItem{}, browseyerr.New(browseyerr.ParseFailed, "malformed trash index line")
	}
	original, err := url.QueryUnescape(fields[1])
	if err != nil {
		return trashItem{}, browseyerr.Wrap(browseyerr.ParseFailed, err, "malformed trash index original path")
	}
	trashedLocation, err := url.QueryUnescape(fields[2])
	if err != nil {
		return trashItem{}, browseyerr.Wrap(browseyerr.ParseFailed, err, "malformed trash index trashed location")
	}
	nanos, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return trashItem{}, browseyerr.Wrap(browseyerr.ParseFailed, err, "malformed trash index timestamp")
	}
	return trashItem{ID: fields[0], Original: original, TrashedLocation: trashedLocation, TrashedAt: time.Unix(0, nanos)}, nil
}
