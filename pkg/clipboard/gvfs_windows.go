//go:build windows
// +build windows

package clipboard

import "github.com/browsey/browsey-core/pkg/fsprimitives"

// tryGioCopyProgress has no Windows equivalent: gio is a GNOME/GVFS
// binary. ok is always false so callers always fall back to the built-in
// chunked copy, matching original_source's own
// #[cfg(not(target_os = "windows"))] gate around try_gio_copy_progress.
func tryGioCopyProgress(src, dst string, progress Progress, cancelled fsprimitives.Cancelled) (ok bool, err error) {
	return false, nil
}
