package fsprimitives

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/browsey/browsey-core/pkg/browseyerr"
)

// progressChunkBytes and progressInterval bound how often a copy's progress
// callback fires: on 64 KiB transferred or 200 ms elapsed, whichever comes
// first, per spec section 4.2.
const (
	progressChunkBytes = 64 * 1024
	progressInterval   = 200 * time.Millisecond
)

// Cancelled is checked between chunks and between tree entries. A nil
// Cancelled is treated as "never cancelled".
type Cancelled func() bool

func isCancelled(c Cancelled) bool {
	return c != nil && c()
}

// saturatingAdd adds b to a without overflowing into a negative result,
// per the "all byte counters use saturating addition" rule in spec 4.2.
func saturatingAdd(a, b int64) int64 {
	sum := a + b
	if sum < a {
		return int64(^uint64(0) >> 1)
	}
	return sum
}

// copyStream copies from src to dst in chunks, invoking progress at the
// 64 KiB/200 ms cadence and checking cancelled between chunks. It returns a
// Cancelled error if the cancellation check fires.
func copyStream(dst io.Writer, src io.Reader, progress func(int64), cancelled Cancelled) (int64, error) {
	buf := make([]byte, progressChunkBytes)
	var total int64
	var sinceLast int64
	lastEmit := time.Now()

	for {
		if isCancelled(cancelled) {
			return total, browseyerr.New(browseyerr.Cancelled, "copy cancelled")
		}
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, writeErr := dst.Write(buf[:n]); writeErr != nil {
				return total, browseyerr.Wrap(browseyerr.IOError, writeErr, "unable to write during copy")
			}
			total = saturatingAdd(total, int64(n))
			sinceLast = saturatingAdd(sinceLast, int64(n))
			if sinceLast >= progressChunkBytes || time.Since(lastEmit) >= progressInterval {
				if progress != nil {
					progress(total)
				}
				sinceLast = 0
				lastEmit = time.Now()
			}
		}
		if readErr == io.EOF {
			if progress != nil {
				progress(total)
			}
			return total, nil
		}
		if readErr != nil {
			return total, browseyerr.Wrap(browseyerr.IOError, readErr, "unable to read during copy")
		}
	}
}

// CopyFileExclusive creates dst exclusively (failing if it already exists)
// and copies the contents of src into it. It refuses to operate if src is a
// symlink.
func CopyFileExclusive(src, dst string, progress func(int64), cancelled Cancelled) error {
	if err := refuseSymlinkLeaf(src); err != nil {
		return err
	}

	source, err := os.Open(src)
	if err != nil {
		if os.IsNotExist(err) {
			return browseyerr.New(browseyerr.NotFound, "source does not exist: "+src)
		}
		return browseyerr.Wrap(browseyerr.OpenFailed, err, "unable to open source "+src)
	}
	defer source.Close()

	info, err := source.Stat()
	if err != nil {
		return browseyerr.Wrap(browseyerr.MetadataReadFailed, err, "unable to stat source "+src)
	}

	destination, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		if os.IsExist(err) {
			return browseyerr.New(browseyerr.DestinationExists, "destination already exists: "+dst)
		}
		return browseyerr.Wrap(browseyerr.OpenFailed, err, "unable to create destination "+dst)
	}

	_, copyErr := copyStream(destination, source, progress, cancelled)
	closeErr := destination.Close()

	if copyErr != nil {
		_ = os.Remove(dst)
		return copyErr
	}
	if closeErr != nil {
		_ = os.Remove(dst)
		return browseyerr.Wrap(browseyerr.IOError, closeErr, "unable to close destination "+dst)
	}
	return nil
}

// CopyTree recursively copies src into dst. It refuses any symlink
// encountered anywhere in the tree, takes a snapshot of each source
// directory before copying its entries and re-asserts that snapshot once
// they are copied (individual files are not snapshotted), invokes progress
// between entries, and checks
// cancelled between entries. Directories are recursed depth-first; the
// order entries are processed in is not meaningful beyond progress
// reporting, per spec section 4.2.
func CopyTree(src, dst string, progress func(int64), cancelled Cancelled) error {
	if err := refuseSymlinkLeaf(src); err != nil {
		return err
	}

	info, err := os.Lstat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return browseyerr.New(browseyerr.NotFound, "source does not exist: "+src)
		}
		return browseyerr.Wrap(browseyerr.MetadataReadFailed, err, "unable to stat source "+src)
	}

	if !info.IsDir() {
		return CopyFileExclusive(src, dst, progress, cancelled)
	}

	snap, err := SnapshotExisting(src)
	if err != nil {
		return err
	}

	if err := os.Mkdir(dst, info.Mode().Perm()); err != nil {
		if os.IsExist(err) {
			return browseyerr.New(browseyerr.DestinationExists, "destination already exists: "+dst)
		}
		return browseyerr.Wrap(browseyerr.IOError, err, "unable to create directory "+dst)
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return browseyerr.Wrap(browseyerr.IOError, err, "unable to list directory "+src)
	}

	var total int64
	for _, entry := range entries {
		if isCancelled(cancelled) {
			return browseyerr.New(browseyerr.Cancelled, "copy cancelled")
		}

		childSrc := filepath.Join(src, entry.Name())
		childDst := filepath.Join(dst, entry.Name())

		childInfo, err := entry.Info()
		if err != nil {
			return browseyerr.Wrap(browseyerr.MetadataReadFailed, err, "unable to stat "+childSrc)
		}
		if childInfo.Mode()&os.ModeSymlink != 0 {
			return browseyerr.New(browseyerr.SymlinkUnsupported, "refusing to copy symlink: "+childSrc)
		}

		if childInfo.IsDir() {
			if err := CopyTree(childSrc, childDst, func(n int64) {
				if progress != nil {
					progress(saturatingAdd(total, n))
				}
			}, cancelled); err != nil {
				return err
			}
		} else {
			if err := CopyFileExclusive(childSrc, childDst, func(n int64) {
				if progress != nil {
					progress(saturatingAdd(total, n))
				}
			}, cancelled); err != nil {
				return err
			}
		}
		total = saturatingAdd(total, childInfo.Size())
	}

	// Re-assert the directory's own identity is unchanged before considering
	// the copy complete; this is the directory-level TOCTOU guard.
	if err := AssertSnapshot(src, snap); err != nil {
		return err
	}

	if progress != nil {
		progress(total)
	}
	return nil
}
