// Package rename implements C16: the RenameEngine's single and batch
// rename operations, plus a pure preview engine for pattern-based batch
// rename (regex/prefix/suffix/sequence token). Grounded on the teacher's
// style of thin orchestration layers over pkg/journal's already-general
// Action/Batch machinery, the same way pkg/clipboard and pkg/extract build
// their journal.Action results rather than duplicating rename/rollback
// logic.
package rename

import (
	"path/filepath"

	"github.com/browsey/browsey-core/pkg/browseyerr"
	"github.com/browsey/browsey-core/pkg/fsprimitives"
	"github.com/browsey/browsey-core/pkg/journal"
)

// Rename prepares and applies a single rename of path to newName (a leaf
// name, not a path), refusing an empty name or an attempt to rename a
// filesystem root, per spec section 4.16. It returns the applied Action
// ready for journal.Record.
func Rename(path, newName string, cancelled fsprimitives.Cancelled) (*journal.Action, error) {
	if newName == "" {
		return nil, browseyerr.New(browseyerr.InvalidInput, "new name must not be empty")
	}
	if isRoot(path) {
		return nil, browseyerr.New(browseyerr.InvalidInput, "cannot rename a filesystem root")
	}

	to := filepath.Join(filepath.Dir(path), newName)
	if to == path {
		return nil, browseyerr.New(browseyerr.InvalidInput, "new name is unchanged")
	}

	if err := fsprimitives.RenameNoReplace(path, to); err != nil {
		return nil, err
	}
	return journal.NewRename(path, to), nil
}

// isRoot reports whether path names a filesystem root: "/" on POSIX, or a
// bare drive root ("C:\", "C:/") on Windows.
func isRoot(path string) bool {
	clean := filepath.Clean(path)
	return clean == filepath.Dir(clean)
}

// BatchItem is one entry of a batch rename request: from, its current
// path, to its new leaf name (not a full path).
type BatchItem struct {
	From    string
	NewName string
}

// BatchRename detects duplicate source paths and duplicate computed
// target paths before any mutation (spec section 4.16), then applies
// renames in order, wrapped in one journal.Batch with rollback on
// partial failure. A from==to item is skipped (a no-op) rather than
// causing a RenameNoReplace call against its own unchanged path.
func BatchRename(items []BatchItem, cancelled fsprimitives.Cancelled) (*journal.Action, error) {
	if err := checkDuplicates(items); err != nil {
		return nil, err
	}

	type pair struct {
		from, to string
	}
	var planned []pair
	for _, item := range items {
		if item.NewName == "" {
			return nil, browseyerr.New(browseyerr.InvalidInput, "new name must not be empty: "+item.From)
		}
		if isRoot(item.From) {
			return nil, browseyerr.New(browseyerr.InvalidInput, "cannot rename a filesystem root: "+item.From)
		}
		to := filepath.Join(filepath.Dir(item.From), item.NewName)
		if to == item.From {
			continue
		}
		planned = append(planned, pair{item.From, to})
	}
	if len(planned) == 0 {
		return journal.NewBatch(nil), nil
	}

	var applied []*journal.Action
	for _, p := range planned {
		action := journal.NewRename(p.from, p.to)
		if err := journal.Execute(action, cancelled); err != nil {
			for i := len(applied) - 1; i >= 0; i-- {
				_ = journal.Reverse(applied[i], cancelled)
			}
			return nil, err
		}
		applied = append(applied, action)
	}

	return journal.NewBatch(applied), nil
}

// checkDuplicates returns InvalidInput if items contains a duplicate
// source path or two items that compute to the same target path, per
// spec section 4.16's "detect duplicate source paths and duplicate
// target names before any mutation."
func checkDuplicates(items []BatchItem) error {
	seenFrom := make(map[string]bool, len(items))
	seenTo := make(map[string]bool, len(items))
	for _, item := range items {
		if seenFrom[item.From] {
			return browseyerr.New(browseyerr.InvalidInput, "duplicate source path: "+item.From)
		}
		seenFrom[item.From] = true

		to := filepath.Join(filepath.Dir(item.From), item.NewName)
		if seenTo[to] {
			return browseyerr.New(browseyerr.InvalidInput, "duplicate target name: "+item.NewName)
		}
		seenTo[to] = true
	}
	return nil
}
