package clipboard

import (
	"os"
	"path/filepath"

	"github.com/browsey/browsey-core/pkg/browseyerr"
	"github.com/browsey/browsey-core/pkg/fsprimitives"
	"github.com/browsey/browsey-core/pkg/journal"
)

// Mode selects whether MergeDir's per-entry transfers are copies or moves,
// per spec section 4.5.
type Mode int

const (
	Copy Mode = iota
	Cut
)

// MergeDir merges src's contents into dst, recursing into shared
// subdirectories, backing up any non-directory collision before
// overwriting it, and (on Cut) removing src once its contents have been
// relocated. On any failure, every Action applied so far by this call (and
// its recursive sub-merges) is rolled back in reverse order before the
// error is returned, so a partially merged tree never survives a failed
// MergeDir. On success the full list of applied Actions is returned,
// wrapped in a Batch, for the caller to pass to Journal.Record.
func MergeDir(src, dst string, mode Mode, progress Progress, cancelled fsprimitives.Cancelled) (*journal.Action, error) {
	applied, err := mergeInto(src, dst, mode, progress, cancelled)
	if err != nil {
		rollback(applied, cancelled)
		return nil, err
	}

	if mode == Cut {
		cutAction, err := finalizeCut(src)
		if err != nil {
			rollback(applied, cancelled)
			return nil, err
		}
		applied = append(applied, cutAction)
	}

	return journal.NewBatch(applied), nil
}

func mergeInto(src, dst string, mode Mode, progress Progress, cancelled fsprimitives.Cancelled) ([]*journal.Action, error) {
	entries, err := os.ReadDir(src)
	if err != nil {
		return nil, browseyerr.Wrap(browseyerr.IOError, err, "unable to list merge source "+src)
	}

	var applied []*journal.Action
	for _, e := range entries {
		if isCancelledCheck(cancelled) {
			return applied, browseyerr.New(browseyerr.Cancelled, "merge cancelled")
		}

		srcPath := filepath.Join(src, e.Name())
		dstPath := filepath.Join(dst, e.Name())

		srcInfo, err := os.Lstat(srcPath)
		if err != nil {
			return applied, browseyerr.Wrap(browseyerr.MetadataReadFailed, err, "unable to stat "+srcPath)
		}
		if srcInfo.Mode()&os.ModeSymlink != 0 {
			return applied, browseyerr.New(browseyerr.SymlinkUnsupported, "merge refuses to cross a symlink: "+srcPath)
		}

		dstInfo, dstErr := os.Lstat(dstPath)
		dstExists := dstErr == nil

		switch {
		case dstExists && srcInfo.IsDir() && dstInfo.IsDir():
			sub, err := mergeInto(srcPath, dstPath, mode, progress, cancelled)
			applied = append(applied, sub...)
			if err != nil {
				return applied, err
			}
			if mode == Cut {
				cutAction, err := finalizeCut(srcPath)
				if err != nil {
					return applied, err
				}
				applied = append(applied, cutAction)
			}
		case dstExists && !dstInfo.IsDir():
			backup, err := fsprimitives.TemporaryBackupPath(fsprimitives.DefaultBackupBase(), dstPath)
			if err != nil {
				return applied, err
			}
			if err := fsprimitives.MoveWithFallback(dstPath, backup, nil, cancelled); err != nil {
				return applied, err
			}
			applied = append(applied, journal.NewDelete(dstPath, backup))

			action, err := transferOne(srcPath, dstPath, mode, progress, cancelled)
			if err != nil {
				return applied, err
			}
			applied = append(applied, action)
		default:
			action, err := transferOne(srcPath, dstPath, mode, progress, cancelled)
			if err != nil {
				return applied, err
			}
			applied = append(applied, action)
		}
	}
	return applied, nil
}

func transferOne(src, dst string, mode Mode, progress Progress, cancelled fsprimitives.Cancelled) (*journal.Action, error) {
	if mode == Cut {
		return MoveEntry(src, dst, progress, cancelled)
	}
	return CopyEntry(src, dst, progress, cancelled)
}

// finalizeCut creates an empty backup directory for src, removes src, and
// records a Delete{src, empty_backup} action so undo can recreate the
// shell directory, per spec section 4.5.
func finalizeCut(src string) (*journal.Action, error) {
	backup, err := fsprimitives.TemporaryBackupPath(fsprimitives.DefaultBackupBase(), src)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(backup, 0755); err != nil {
		return nil, browseyerr.Wrap(browseyerr.IOError, err, "unable to create empty backup shell for "+src)
	}
	if err := os.Remove(src); err != nil {
		return nil, browseyerr.Wrap(browseyerr.IOError, err, "unable to remove merged source directory "+src)
	}
	return journal.NewDelete(src, backup), nil
}

func rollback(applied []*journal.Action, cancelled fsprimitives.Cancelled) {
	for i := len(applied) - 1; i >= 0; i-- {
		_ = journal.Reverse(applied[i], cancelled)
	}
}

func isCancelledCheck(cancelled fsprimitives.Cancelled) bool {
	return cancelled != nil && cancelled()
}
