package core

import (
	"github.com/browsey/browsey-core/pkg/fsprimitives"
	"github.com/browsey/browsey-core/pkg/rename"
)

// RenameEntry renames path to newName and records the resulting action on
// the undo stack, per spec section 6's `rename_entry(path, new_name)`.
func (s *Service) RenameEntry(path, newName string, cancelled fsprimitives.Cancelled) error {
	path, err := guardPath(path, true)
	if err != nil {
		return err
	}
	action, err := rename.Rename(path, newName, cancelled)
	if err != nil {
		return err
	}
	s.journal.Record(action)
	return nil
}

// RenameEntries applies a batch rename and records it as one undoable
// Batch action, per spec section 6's `rename_entries(entries)`.
func (s *Service) RenameEntries(items []rename.BatchItem, cancelled fsprimitives.Cancelled) error {
	for i, item := range items {
		guarded, err := guardPath(item.From, true)
		if err != nil {
			return err
		}
		items[i].From = guarded
	}
	action, err := rename.BatchRename(items, cancelled)
	if err != nil {
		return err
	}
	s.journal.Record(action)
	return nil
}

// PreviewRenameEntries computes the would-be result of a pattern-based
// batch rename without touching the filesystem, per spec section 6's
// `preview_rename_entries(entries, payload)`.
func (s *Service) PreviewRenameEntries(paths []string, opts rename.PreviewOptions) []rename.PreviewRow {
	guarded, err := guardPaths(paths, true)
	if err != nil {
		return []rename.PreviewRow{{Err: err}}
	}
	return rename.Preview(guarded, opts)
}

// UndoAction reverses the most recently applied action, per spec section
// 6's `undo_action()`.
func (s *Service) UndoAction(cancelled fsprimitives.Cancelled) error {
	return s.journal.Undo(cancelled)
}

// RedoAction re-applies the most recently undone action, per spec section
// 6's `redo_action()`.
func (s *Service) RedoAction(cancelled fsprimitives.Cancelled) error {
	return s.journal.Redo(cancelled)
}
