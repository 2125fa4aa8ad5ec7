// Package fsprimitives implements C2: the safe path mutation primitives
// (no-replace rename, symlink-refusing copy/delete, TOCTOU snapshots, backup
// path derivation) that every higher-level mutation in this module is built
// from. Grounded on the teacher's pkg/filesystem package: atomic.go's
// temp-then-rename pattern, directory_rename_*.go's no-replace rename
// implementations, and directory_posix.go's recursive tree walking.
package fsprimitives

import (
	"os"

	"github.com/browsey/browsey-core/pkg/browseyerr"
)

// Kind classifies what a PathSnapshot observed at the path.
type Kind int

// The snapshot kinds.
const (
	KindFile Kind = iota
	KindDir
	KindOther
)

// Snapshot is the TOCTOU identity tuple taken immediately before a mutation
// and re-checked immediately before the irreversible step, per spec section
// 3. On POSIX it's (dev, ino); elsewhere it's (len, mtime_ns).
type Snapshot struct {
	Kind Kind

	// POSIX identity.
	dev, ino uint64
	hasDevIno bool

	// Fallback identity (used whenever dev/ino isn't available).
	size    int64
	modTime int64
}

func kindOf(info os.FileInfo) Kind {
	switch {
	case info.Mode().IsDir():
		return KindDir
	case info.Mode().IsRegular():
		return KindFile
	default:
		return KindOther
	}
}

// SnapshotExisting takes a Snapshot of an existing path. The path must
// already have been sanitized by pathguard (no symlink components); this
// function itself uses Lstat so it never follows a symlink at the leaf.
func SnapshotExisting(path string) (Snapshot, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, browseyerr.New(browseyerr.NotFound, "path does not exist: "+path)
		}
		return Snapshot{}, browseyerr.Wrap(browseyerr.MetadataReadFailed, err, "unable to stat "+path)
	}
	return snapshotFromInfo(info), nil
}

// AssertSnapshot re-stats path and fails if its identity no longer matches
// snap, detecting external modification between the time snap was taken and
// the irreversible step about to be performed.
func AssertSnapshot(path string, snap Snapshot) error {
	current, err := SnapshotExisting(path)
	if err != nil {
		return err
	}
	if !current.equivalentTo(snap) {
		return browseyerr.New(browseyerr.IOError, "path was modified externally: "+path)
	}
	return nil
}

func (s Snapshot) equivalentTo(other Snapshot) bool {
	if s.Kind != other.Kind {
		return false
	}
	if s.hasDevIno && other.hasDevIno {
		return s.dev == other.dev && s.ino == other.ino
	}
	return s.size == other.size && s.modTime == other.modTime
}
