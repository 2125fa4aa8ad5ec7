//go:build !windows
// +build !windows

package fsprimitives

import (
	"os"
	"syscall"
)

// snapshotFromInfo extracts the (dev, ino) identity pair from a POSIX
// os.FileInfo, falling back to (size, mtime_ns) if the underlying Sys()
// value isn't the expected *syscall.Stat_t (e.g. some virtual filesystems).
func snapshotFromInfo(info os.FileInfo) Snapshot {
	snap := Snapshot{
		Kind:    kindOf(info),
		size:    info.Size(),
		modTime: info.ModTime().UnixNano(),
	}
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		snap.dev = uint64(stat.Dev)
		snap.ino = uint64(stat.Ino)
		snap.hasDevIno = true
	}
	return snap
}
