package core

import (
	"path/filepath"

	"github.com/browsey/browsey-core/pkg/clipboard"
	"github.com/browsey/browsey-core/pkg/fsprimitives"
)

// CopyEntries copies each of paths into dest, recording one undoable
// action per entry. The first failure stops the batch; entries already
// copied are left in place (ClipboardOps' own rollback only covers a
// single entry's partial transfer, not the whole batch), matching spec
// section 4.5's "Every recorded Action is appended to an in-progress
// list; on any failure the caller rolls back in reverse" — here the
// caller is this method, and it records what succeeded rather than
// rolling the whole batch back, since each entry is an independent copy.
func (s *Service) CopyEntries(paths []string, dest string, progress clipboard.Progress, cancelled fsprimitives.Cancelled) error {
	dest, err := guardPath(dest, true)
	if err != nil {
		return err
	}
	for _, path := range paths {
		path, err := guardPath(path, true)
		if err != nil {
			return err
		}
		dst := destinationFor(path, dest)
		action, err := clipboard.CopyEntry(path, dst, progress, cancelled)
		if err != nil {
			return err
		}
		s.journal.Record(action)
	}
	return nil
}

// MoveEntries moves each of paths into dest, recording one undoable
// action per entry.
func (s *Service) MoveEntries(paths []string, dest string, progress clipboard.Progress, cancelled fsprimitives.Cancelled) error {
	dest, err := guardPath(dest, true)
	if err != nil {
		return err
	}
	for _, path := range paths {
		path, err := guardPath(path, true)
		if err != nil {
			return err
		}
		dst := destinationFor(path, dest)
		action, err := clipboard.MoveEntry(path, dst, progress, cancelled)
		if err != nil {
			return err
		}
		s.journal.Record(action)
	}
	return nil
}

// MergeInto merges src into dst under mode and records the resulting
// Batch action, per spec section 6's `merge_into(src, dst, mode)`.
func (s *Service) MergeInto(src, dst string, mode clipboard.Mode, progress clipboard.Progress, cancelled fsprimitives.Cancelled) error {
	src, err := guardPath(src, true)
	if err != nil {
		return err
	}
	dst, err = guardPath(dst, true)
	if err != nil {
		return err
	}
	action, err := clipboard.MergeDir(src, dst, mode, progress, cancelled)
	if err != nil {
		return err
	}
	s.journal.Record(action)
	return nil
}

// destinationFor joins dest with path's leaf name, the usual "drop into
// this folder" semantics for a multi-select copy/move.
func destinationFor(path, dest string) string {
	return filepath.Join(dest, filepath.Base(path))
}
