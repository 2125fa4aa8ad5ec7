//go:build !windows && !linux
// +build !windows,!linux

package fsprimitives

import "golang.org/x/sys/unix"

// renameNoReplaceRaw has no kernel-level no-replace rename on this platform
// family; the caller falls back to renameNoReplaceEmulated (check that the
// destination is absent, then a plain rename).
func renameNoReplaceRaw(oldpath, newpath string) error {
	return unix.ENOSYS
}
