// Package clipboard implements C5: ClipboardOps, the copy/move/merge entry
// points used for drag-and-drop and explicit copy/paste between local
// directories. Grounded on the teacher's change-application layer
// (pkg/synchronization/core/transition.go applies a content change with
// progress and cooperative cancellation) generalized to whole-entry
// copy/move/merge with journal recording.
//
// Every exported operation here performs its own filesystem mutation (it
// does not route through journal.Execute) so that progress can be threaded
// through to fsprimitives' chunked copy; the returned Action already
// reflects completed work and is meant for journal.Record, not
// journal.Apply.
//
// A single-file copy where either side lives on a GVFS/network mount
// prefers shelling out to `gio copy --progress` (gvfs_unix.go) over the
// built-in chunked copy, per spec section 4.5; a missing or failing gio
// binary falls straight back to fsprimitives.CopyFileExclusive.
package clipboard

import (
	"github.com/browsey/browsey-core/pkg/fsprimitives"
	"github.com/browsey/browsey-core/pkg/journal"
	"github.com/browsey/browsey-core/pkg/netmount"
)

// Progress reports bytes transferred so far for the entry currently being
// copied or moved, throttled by fsprimitives per spec section 4.2.
type Progress func(transferred int64)

// CopyEntry copies src (file or directory tree) to dst, refusing symlinks
// on encounter, and returns the already-applied Action to record in the
// journal.
func CopyEntry(src, dst string, progress Progress, cancelled fsprimitives.Cancelled) (*journal.Action, error) {
	if err := copyAny(src, dst, progress, cancelled); err != nil {
		return nil, err
	}
	return journal.NewCopy(src, dst), nil
}

// MoveEntry moves src to dst (rename, falling back to copy+delete across
// devices) and returns the already-applied Action to record in the
// journal.
func MoveEntry(src, dst string, progress Progress, cancelled fsprimitives.Cancelled) (*journal.Action, error) {
	if err := fsprimitives.MoveWithFallback(src, dst, func(n int64) {
		if progress != nil {
			progress(n)
		}
	}, cancelled); err != nil {
		return nil, err
	}
	return journal.NewMove(src, dst), nil
}

// copyAny dispatches to the tree or single-file copy primitive depending on
// what src is, threading progress through either path.
func copyAny(src, dst string, progress Progress, cancelled fsprimitives.Cancelled) error {
	snap, err := fsprimitives.SnapshotExisting(src)
	if err != nil {
		return err
	}
	cb := func(n int64) {
		if progress != nil {
			progress(n)
		}
	}
	if snap.Kind == fsprimitives.KindDir {
		return fsprimitives.CopyTree(src, dst, cb, cancelled)
	}
	if netmount.IsNetworkLocation(src) || netmount.IsNetworkLocation(dst) {
		if ok, err := tryGioCopyProgress(src, dst, progress, cancelled); ok || err != nil {
			return err
		}
	}
	return fsprimitives.CopyFileExclusive(src, dst, cb, cancelled)
}
