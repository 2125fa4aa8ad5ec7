//go:build !windows

package extract

import "syscall"

// freeBytes reports available disk space at path's filesystem via statfs,
// grounded on the teacher's platform-specific filesystem queries
// (pkg/filesystem/metadata_posix.go).
func freeBytes(path string) (uint64, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return uint64(stat.Bavail) * uint64(stat.Bsize), nil
}
