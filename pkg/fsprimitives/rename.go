package fsprimitives

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"

	"github.com/browsey/browsey-core/pkg/browseyerr"
)

func isSymlink(path string) bool {
	info, err := os.Lstat(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeSymlink != 0
}

func refuseSymlinkLeaf(path string) error {
	if isSymlink(path) {
		return browseyerr.New(browseyerr.SymlinkUnsupported, "refusing to operate on symlink: "+path)
	}
	return nil
}

// renameNoReplaceEmulated is used when the platform has no kernel-level
// no-replace rename (renameat2 unavailable/unsupported). It stats the
// destination first and then performs a plain rename; there is an
// unavoidable race between the two steps on platforms without a true
// no-replace primitive, which is the best this combination of OS and
// filesystem can offer.
func renameNoReplaceEmulated(src, dst string) error {
	if _, err := os.Lstat(dst); err == nil {
		return browseyerr.New(browseyerr.DestinationExists, "destination already exists: "+dst)
	} else if !os.IsNotExist(err) {
		return browseyerr.Wrap(browseyerr.MetadataReadFailed, err, "unable to stat destination "+dst)
	}
	if err := os.Rename(src, dst); err != nil {
		return browseyerr.Wrap(browseyerr.IOError, err, "unable to rename "+src+" to "+dst)
	}
	return nil
}

// RenameNoReplace performs an atomic rename from src to dst that fails if
// dst already exists. It never follows a symlink at either end: if src or
// an existing dst is itself a symlink, it refuses with SymlinkUnsupported.
func RenameNoReplace(src, dst string) error {
	if err := refuseSymlinkLeaf(src); err != nil {
		return err
	}
	if isSymlink(dst) {
		return browseyerr.New(browseyerr.SymlinkUnsupported, "refusing to overwrite symlink destination: "+dst)
	}

	err := renameNoReplaceRaw(src, dst)
	if err == nil {
		return nil
	}
	if errors.Is(err, unix.ENOSYS) || errors.Is(err, unix.ENOTSUP) {
		return renameNoReplaceEmulated(src, dst)
	}
	if errors.Is(err, unix.EEXIST) {
		return browseyerr.New(browseyerr.DestinationExists, "destination already exists: "+dst)
	}
	if errors.Is(err, unix.ENOENT) {
		return browseyerr.New(browseyerr.NotFound, "source does not exist: "+src)
	}
	return browseyerr.Wrap(browseyerr.IOError, err, "unable to rename "+src+" to "+dst)
}

// isCrossDeviceError reports whether err (as returned by a rename-family
// call) indicates the source and destination reside on different devices.
func isCrossDeviceError(err error) bool {
	if err == nil {
		return false
	}
	if linkErr, ok := err.(*os.LinkError); ok {
		return errors.Is(linkErr.Err, unix.EXDEV)
	}
	return errors.Is(err, unix.EXDEV)
}

// MoveWithFallback tries RenameNoReplace first; on a cross-device error it
// falls back to copy-then-delete, still refusing to overwrite an existing
// destination. If the delete step fails after a successful copy, it makes a
// best-effort attempt to remove the new destination to avoid leaving a
// duplicate, per spec section 4.2.
func MoveWithFallback(src, dst string, progress func(n int64), cancelled func() bool) error {
	err := RenameNoReplace(src, dst)
	if err == nil {
		return nil
	}
	var be *browseyerr.Error
	if errors.As(err, &be) && be.Code != browseyerr.IOError {
		// DestinationExists, SymlinkUnsupported, NotFound: not recoverable
		// by falling back to copy+delete.
		return err
	}
	if be != nil && !isCrossDeviceError(be.Cause) {
		return err
	}

	info, statErr := os.Lstat(src)
	if statErr != nil {
		return browseyerr.Wrap(browseyerr.MetadataReadFailed, statErr, "unable to stat source "+src)
	}

	if info.IsDir() {
		if copyErr := CopyTree(src, dst, progress, cancelled); copyErr != nil {
			return copyErr
		}
	} else {
		if copyErr := CopyFileExclusive(src, dst, progress, cancelled); copyErr != nil {
			return copyErr
		}
	}

	if delErr := DeleteEntry(src, func() bool { return false }); delErr != nil {
		// Best-effort cleanup of the newly created destination so we don't
		// leave a duplicate behind.
		_ = os.RemoveAll(dst)
		return browseyerr.Wrap(browseyerr.IOError, delErr, "copied but failed to remove source "+src)
	}
	return nil
}
