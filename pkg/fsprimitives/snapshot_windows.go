//go:build windows
// +build windows

package fsprimitives

import "os"

// snapshotFromInfo uses the (size, mtime_ns) identity pair on Windows, per
// spec section 3 ("elsewhere").
func snapshotFromInfo(info os.FileInfo) Snapshot {
	return Snapshot{
		Kind:    kindOf(info),
		size:    info.Size(),
		modTime: info.ModTime().UnixNano(),
	}
}
