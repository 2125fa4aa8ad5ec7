// Package netmount classifies filesystem paths as local or
// network/FUSE-backed. Grounded on original_source/src/commands/network/
// gvfs.rs's is_gvfs_path check (any path under a GNOME Virtual File System
// mountpoint is treated as a slow, possibly-stalling network location) and
// uri.rs's scheme table, which lists the same mount kinds (smb, sftp, nfs,
// dav, afp, ftp, onedrive) that gvfs surfaces under /gvfs/. Consulted by
// both the listing stub/meta-refresh path (C18-adjacent) and the thumbnail
// pipeline's mount-dependent cancellation timeouts (C14).
package netmount

import "strings"

// IsNetworkLocation reports whether path lives under a network or FUSE
// mount rather than local storage. On POSIX this matches any path routed
// through a GVFS mount (legacy ~/.gvfs or the current
// /run/user/<uid>/gvfs layout, and the user-facing /gvfs root some file
// managers bind-mount); on Windows it matches a UNC share path, the closest
// equivalent to gvfs for remote-mount detection.
func IsNetworkLocation(path string) bool {
	lower := strings.ToLower(path)
	if strings.Contains(lower, "/gvfs/") || strings.Contains(lower, "/.gvfs/") {
		return true
	}
	if strings.HasPrefix(path, `\\`) {
		return true
	}
	return false
}
