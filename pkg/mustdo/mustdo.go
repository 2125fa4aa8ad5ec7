// Package mustdo provides best-effort cleanup helpers that log on failure
// instead of forcing every defer site to handle an unrecoverable error. It
// is adapted from the teacher project's "must" package, without its
// protobuf/cobra-specific variants, since this repository doesn't carry
// those dependencies.
package mustdo

import (
	"io"
	"os"

	"github.com/browsey/browsey-core/pkg/logging"
)

// Close closes c, logging a warning if it fails.
func Close(c io.Closer, logger *logging.Logger) {
	if err := c.Close(); err != nil {
		logger.Warnf("unable to close: %v", err)
	}
}

// Remove removes name, logging a warning if it fails for a reason other
// than the path already being absent.
func Remove(name string, logger *logging.Logger) {
	if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
		logger.Warnf("unable to remove %q: %v", name, err)
	}
}

// RemoveAll recursively removes path, logging a warning on failure.
func RemoveAll(path string, logger *logging.Logger) {
	if err := os.RemoveAll(path); err != nil {
		logger.Warnf("unable to remove %q: %v", path, err)
	}
}

// Unlock unlocks l, logging a warning on failure.
func Unlock(l interface{ Unlock() error }, logger *logging.Logger) {
	if err := l.Unlock(); err != nil {
		logger.Warnf("unable to unlock: %v", err)
	}
}

// Kill kills p, logging a warning on failure.
func Kill(p interface{ Kill() error }, logger *logging.Logger) {
	if err := p.Kill(); err != nil {
		logger.Warnf("unable to kill: %v", err)
	}
}

// Rename performs a best-effort rename used for rollback paths where a
// failure can only be logged, not propagated (e.g. undoing a partially
// applied rollback).
func Rename(from, to string, logger *logging.Logger) {
	if err := os.Rename(from, to); err != nil {
		logger.Warnf("unable to rename %q to %q during rollback: %v", from, to, err)
	}
}
