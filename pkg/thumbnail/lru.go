package thumbnail

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/browsey/browsey-core/pkg/browseyerr"
	"github.com/browsey/browsey-core/pkg/logging"
)

// DefaultMaxBytes, MinMaxBytes, MaxMaxBytes and DefaultMaxFiles bound the
// cache-trim thresholds, per spec section 4.14's "50-1000 MiB, default
// 300" and "2000 files."
const (
	MinMaxBytes     = 50 * 1024 * 1024
	MaxMaxBytes     = 1000 * 1024 * 1024
	DefaultMaxBytes = 300 * 1024 * 1024
	DefaultMaxFiles = 2000
)

// TrimEvery is how often a generated thumbnail triggers an LRU trim
// sweep, per spec section 4.14's "every 100 generated thumbnails."
const TrimEvery = 100

// cacheEntry is one file found during a trim sweep.
type cacheEntry struct {
	path  string
	size  int64
	mtime int64
}

// trimCache sweeps cacheDir, deleting the oldest-mtime files first until
// both the total byte budget and the file-count budget are satisfied. It
// is best-effort: a failure to stat or remove an individual file is
// logged and the sweep continues with the rest.
func trimCache(cacheDir string, maxBytes int64, maxFiles int, log *logging.Logger) error {
	entries, err := os.ReadDir(cacheDir)
	if err != nil {
		return browseyerr.Wrap(browseyerr.IOError, err, "unable to read thumbnail cache directory "+cacheDir)
	}

	files := make([]cacheEntry, 0, len(entries))
	var total int64
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, statErr := e.Info()
		if statErr != nil {
			log.Warnf("unable to stat cache entry %s: %v", e.Name(), statErr)
			continue
		}
		files = append(files, cacheEntry{
			path:  filepath.Join(cacheDir, e.Name()),
			size:  info.Size(),
			mtime: info.ModTime().UnixNano(),
		})
		total += info.Size()
	}

	sort.Slice(files, func(i, j int) bool { return files[i].mtime < files[j].mtime })

	count := len(files)
	i := 0
	for (total > maxBytes || count > maxFiles) && i < len(files) {
		f := files[i]
		if err := os.Remove(f.path); err != nil {
			log.Warnf("unable to evict cache entry %s: %v", f.path, err)
			i++
			continue
		}
		total -= f.size
		count--
		i++
	}
	return nil
}

// ClampMaxBytes enforces the [MinMaxBytes, MaxMaxBytes] range named in
// spec section 4.14, returning DefaultMaxBytes for an unset (zero) value.
func ClampMaxBytes(requested int64) int64 {
	if requested == 0 {
		return DefaultMaxBytes
	}
	if requested < MinMaxBytes {
		return MinMaxBytes
	}
	if requested > MaxMaxBytes {
		return MaxMaxBytes
	}
	return requested
}
