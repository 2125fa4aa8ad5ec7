// Package dirsize implements C17: recursive directory sizing bounded by a
// fixed pseudo-root skip-list and, on POSIX, confinement to the walk root's
// device, with streaming progress events as size accumulates.
package dirsize

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dustin/go-humanize"

	"github.com/browsey/browsey-core/pkg/browseyerr"
)

// ProgressEvery is the newly-accumulated-size threshold, in bytes, at which
// a progress event fires, per spec section 4.17 ("every ≈500 MiB").
const ProgressEvery = 500 * 1024 * 1024

// DefaultSkipRoots is the fixed set of pseudo-roots a recursive size walk
// never descends into, per spec section 4.17.
var DefaultSkipRoots = []string{
	"/proc",
	"/sys",
	"/dev",
	"/run",
	"/tmp",
	"/var/run",
	"/var/lock",
}

// ProgressEvent reports bytes accumulated under path so far, for one root
// of the request, at the ProgressEvery cadence.
type ProgressEvent struct {
	Path  string
	Bytes int64
}

// Result is the return shape named in spec section 4.17.
type Result struct {
	Total   int64
	PerPath map[string]int64
}

// String renders the total in human-readable form, for status-bar display.
func (r Result) String() string {
	return fmt.Sprintf("%s (%s)", humanize.Bytes(uint64(r.Total)), humanize.Comma(r.Total))
}

// String renders the event's accumulated byte count in human-readable form.
func (e ProgressEvent) String() string {
	return fmt.Sprintf("%s: %s", e.Path, humanize.Bytes(uint64(e.Bytes)))
}

// DirSizes walks each of paths recursively, summing regular file sizes,
// skipping symlinks and any path matching a skipPatterns glob (doublestar
// syntax; DefaultSkipRoots is always consulted in addition to
// skipPatterns). On POSIX each root is confined to its own device: a
// subtree mounted from a different device is skipped entirely. onProgress,
// if non-nil, is invoked every time a root's accumulated size crosses
// another ProgressEvery boundary.
func DirSizes(paths []string, skipPatterns []string, onProgress func(ProgressEvent)) (Result, error) {
	result := Result{PerPath: make(map[string]int64, len(paths))}

	for _, root := range paths {
		size, err := sizeOf(root, skipPatterns, onProgress)
		if err != nil {
			return Result{}, err
		}
		result.PerPath[root] = size
		result.Total += size
	}
	return result, nil
}

func sizeOf(root string, skipPatterns []string, onProgress func(ProgressEvent)) (int64, error) {
	info, err := os.Lstat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, browseyerr.Wrap(browseyerr.NotFound, err, "path not found: "+root)
		}
		return 0, browseyerr.Wrap(browseyerr.IOError, err, "failed to stat: "+root)
	}

	rootDevice, haveDevice := deviceOf(info)

	var accumulated int64
	var reportedThrough int64
	report := func() {
		if onProgress == nil {
			return
		}
		for accumulated-reportedThrough >= ProgressEvery {
			reportedThrough += ProgressEvery
			onProgress(ProgressEvent{Path: root, Bytes: accumulated})
		}
	}

	err = walk(root, info, func(path string, entryInfo os.FileInfo) error {
		if shouldSkip(path, skipPatterns) {
			return filepath.SkipDir
		}
		if entryInfo.Mode()&os.ModeSymlink != 0 {
			return nil
		}
		if haveDevice {
			if dev, ok := deviceOf(entryInfo); ok && dev != rootDevice {
				if entryInfo.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}
		if !entryInfo.IsDir() {
			atomic.AddInt64(&accumulated, entryInfo.Size())
			report()
		}
		return nil
	})
	if err != nil {
		return 0, browseyerr.Wrap(browseyerr.IOError, err, "failed walking: "+root)
	}
	return accumulated, nil
}

// shouldSkip reports whether path matches a pseudo-root or a caller-supplied
// skip glob. Matching is against the cleaned, OS-native path for the fixed
// pseudo-roots (they are always POSIX-absolute) and against doublestar glob
// syntax for caller patterns.
func shouldSkip(path string, skipPatterns []string) bool {
	clean := filepath.Clean(path)
	for _, root := range DefaultSkipRoots {
		if clean == root {
			return true
		}
	}
	for _, pattern := range skipPatterns {
		if ok, _ := doublestar.Match(pattern, filepath.ToSlash(clean)); ok {
			return true
		}
	}
	return false
}

// visitor is invoked once per walked entry, including the root itself.
// Returning filepath.SkipDir on a directory entry prunes that subtree;
// returning it on a non-directory entry is treated the same as returning
// nil (there is nothing to prune).
type visitor func(path string, info os.FileInfo) error

// walk is a minimal recursive directory walker: it visits the entry before
// reading a directory's contents (so the visitor can prune via
// filepath.SkipDir before any of its children are statted) and does not
// sort entries, since sizing has no use for a stable visit order.
func walk(path string, info os.FileInfo, visit visitor) error {
	if err := visit(path, info); err != nil {
		if err == filepath.SkipDir {
			return nil
		}
		return err
	}
	if !info.IsDir() {
		return nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil
	}
	for _, entry := range entries {
		childInfo, err := entry.Info()
		if err != nil {
			continue
		}
		if err := walk(filepath.Join(path, entry.Name()), childInfo, visit); err != nil {
			return err
		}
	}
	return nil
}
