//go:build windows
// +build windows

package dirsize

import "os"

// deviceOf reports no device identity on Windows; device confinement is a
// POSIX-only rule per spec section 4.17.
func deviceOf(info os.FileInfo) (uint64, bool) {
	return 0, false
}
