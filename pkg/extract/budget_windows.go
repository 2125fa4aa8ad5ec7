//go:build windows

package extract

import (
	"golang.org/x/sys/windows"
)

// freeBytes reports available disk space at path via GetDiskFreeSpaceEx.
func freeBytes(path string) (uint64, error) {
	var freeAvail, total, free uint64
	ptr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, err
	}
	if err := windows.GetDiskFreeSpaceEx(ptr, &freeAvail, &total, &free); err != nil {
		return 0, err
	}
	return freeAvail, nil
}
