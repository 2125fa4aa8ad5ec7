//go:build windows
// +build windows

package permissions

import (
	"os"

	"github.com/hectane/go-acl"
)

// readOwnership always returns nil on Windows: there is no POSIX
// uid/gid concept to report, per spec section 4.15's
// "ownership_supported=false" on platforms without it.
func readOwnership(info os.FileInfo) *Ownership {
	return nil
}

// applyMode sets path's permission bits through an ACL rewrite via
// acl.Chmod, the same call the teacher's permissions_windows.go
// SetPermissionsByPath uses to translate a POSIX-shaped mode onto a
// Windows ACL, since os.Chmod on Windows only ever toggles the
// read-only attribute and silently ignores the rest of the mode.
func applyMode(path string, mode os.FileMode) error {
	return acl.Chmod(path, mode)
}
