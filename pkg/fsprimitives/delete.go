package fsprimitives

import (
	"os"
	"path/filepath"

	"github.com/browsey/browsey-core/pkg/browseyerr"
)

// DeleteEntry recursively removes path, refusing to follow any symlink
// encountered. It takes a Snapshot of path immediately before deletion and
// asserts it is unchanged right before removing, guarding against a
// TOCTOU swap of the target between the caller's check and this call.
func DeleteEntry(path string, cancelled Cancelled) error {
	if err := refuseSymlinkLeaf(path); err != nil {
		return err
	}

	snap, err := SnapshotExisting(path)
	if err != nil {
		return err
	}

	if snap.Kind == KindDir {
		entries, err := os.ReadDir(path)
		if err != nil {
			return browseyerr.Wrap(browseyerr.IOError, err, "unable to list directory "+path)
		}
		for _, entry := range entries {
			if isCancelled(cancelled) {
				return browseyerr.New(browseyerr.Cancelled, "delete cancelled")
			}
			child := filepath.Join(path, entry.Name())
			info, err := entry.Info()
			if err != nil {
				return browseyerr.Wrap(browseyerr.MetadataReadFailed, err, "unable to stat "+child)
			}
			if info.Mode()&os.ModeSymlink != 0 {
				return browseyerr.New(browseyerr.SymlinkUnsupported, "refusing to delete through symlink: "+child)
			}
			if err := DeleteEntry(child, cancelled); err != nil {
				return err
			}
		}
	}

	if err := AssertSnapshot(path, snap); err != nil {
		return err
	}

	if snap.Kind == KindDir {
		if err := os.Remove(path); err != nil {
			return browseyerr.Wrap(browseyerr.IOError, err, "unable to remove directory "+path)
		}
		return nil
	}
	if err := os.Remove(path); err != nil {
		return browseyerr.Wrap(browseyerr.IOError, err, "unable to remove "+path)
	}
	return nil
}
