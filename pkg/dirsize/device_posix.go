//go:build !windows
// +build !windows

package dirsize

import (
	"os"
	"syscall"
)

// deviceOf extracts the device identity of info, for the POSIX device
// confinement rule in spec section 4.17. The second return is false if the
// underlying Sys() value isn't the expected *syscall.Stat_t (e.g. some
// virtual filesystems), in which case the caller treats every entry as
// being on the walk root's device.
func deviceOf(info os.FileInfo) (uint64, bool) {
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		return uint64(stat.Dev), true
	}
	return 0, false
}
