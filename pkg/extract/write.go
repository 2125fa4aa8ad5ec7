package extract

import (
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/browsey/browsey-core/pkg/browseyerr"
	"github.com/browsey/browsey-core/pkg/fsprimitives"
)

// parentOf returns the '/'-separated parent of a cleaned relative entry
// path, or "." if it has none.
func parentOf(cleaned string) string {
	dir := path.Dir(cleaned)
	return dir
}

// parentDir is the native-separator equivalent used once an entry path has
// already been joined onto the destination root.
func parentDir(nativePath string) string {
	return filepath.Dir(nativePath)
}

// writeEntryFile streams src into a newly created file at target,
// reserving against budget per chunk and checking cancellation between
// chunks, mirroring fsprimitives' copy chunking (§4.2's 64 KiB/200 ms
// cadence is the same progress granularity; here budget.ReserveBytes plays
// the role fsprimitives.copyStream's progress callback plays there).
//
// target is registered with arena immediately once O_CREATE|O_EXCL
// succeeds, before a single byte is reserved or written, so a budget
// failure partway through the stream still leaves the (now zero-or-partial)
// file reachable by rollback instead of orphaned on disk.
func writeEntryFile(arena *createdPaths, target string, src io.Reader, budget *Budget, progress func(int64), cancelled fsprimitives.Cancelled) error {
	f, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return browseyerr.Wrap(browseyerr.IOError, err, "unable to create "+target)
	}
	arena.register(target)
	defer f.Close()

	const chunk = 64 * 1024
	buf := make([]byte, chunk)
	var total int64
	for {
		if cancelled != nil && cancelled() {
			return browseyerr.New(browseyerr.Cancelled, "extraction cancelled")
		}
		n, readErr := src.Read(buf)
		if n > 0 {
			if err := budget.ReserveBytes(int64(n)); err != nil {
				return err
			}
			if _, writeErr := f.Write(buf[:n]); writeErr != nil {
				return browseyerr.Wrap(browseyerr.IOError, writeErr, "unable to write "+target)
			}
			total += int64(n)
			if progress != nil {
				progress(total)
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return browseyerr.Wrap(browseyerr.IOError, readErr, "unable to read entry data for "+target)
		}
	}
}
