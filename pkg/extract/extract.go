package extract

import (
	"github.com/browsey/browsey-core/pkg/browseyerr"
	"github.com/browsey/browsey-core/pkg/fsprimitives"
	"github.com/browsey/browsey-core/pkg/journal"
)

// Result is returned from ExtractArchive/ExtractArchives per spec section
// 6's `extract_archive` command.
type Result struct {
	Destination     string
	SkippedSymlinks int
	SkippedEntries  int
}

// Progress receives cumulative bytes written across the whole extraction;
// callers typically throttle this the way ClipboardOps does.
type Progress func(bytes int64)

// ExtractArchive extracts archivePath per spec section 4.6: format
// detection, single-top-level-directory destination selection, the
// traversal/symlink/parent-is-file/overwrite entry policy, budget
// enforcement, and CreatedPaths-arena rollback on any failure. On success
// it returns the Result plus a Create Action ready for journal.Record.
func ExtractArchive(archivePath string, budget Budget, filter EntryFilter, progress Progress, cancelled fsprimitives.Cancelled) (Result, *journal.Action, error) {
	format, err := DetectFormat(archivePath)
	if err != nil {
		return Result{}, nil, err
	}

	arena := newCreatedPaths()
	var progressCb func(int64)
	if progress != nil {
		progressCb = func(n int64) { progress(n) }
	}

	switch format {
	case FormatGzip, FormatBzip2, FormatZstd:
		dest, err := extractSingleStream(archivePath, format, &budget, arena, progressCb, cancelled)
		if err != nil {
			arena.rollback()
			return Result{}, nil, err
		}
		action, err := createAction(dest)
		if err != nil {
			arena.rollback()
			return Result{}, nil, err
		}
		arena.disarm()
		return Result{Destination: dest}, action, nil

	case FormatZip:
		topLevelNames, err := zipTopLevelNames(archivePath)
		if err != nil {
			return Result{}, nil, err
		}
		dest, err := selectDestination(archivePath)
		if err != nil {
			return Result{}, nil, err
		}
		if budget.DestinationForSpaceCheck == "" {
			budget.DestinationForSpaceCheck = dest
		}
		topLevel, _ := singleTopLevelName(topLevelNames)
		outcome, err := extractZip(archivePath, dest, topLevel, filter, &budget, arena, progressCb, cancelled)
		if err != nil {
			arena.rollback()
			return Result{}, nil, err
		}
		action, err := createAction(dest)
		if err != nil {
			arena.rollback()
			return Result{}, nil, err
		}
		arena.disarm()
		return Result{Destination: dest, SkippedSymlinks: outcome.skippedSymlinks, SkippedEntries: outcome.skippedEntries}, action, nil

	case FormatTarPlain, FormatTarGzip, FormatTarBzip2, FormatTarZstd:
		topLevelNames, err := tarTopLevelNames(archivePath, format)
		if err != nil {
			return Result{}, nil, err
		}
		dest, err := selectDestination(archivePath)
		if err != nil {
			return Result{}, nil, err
		}
		if budget.DestinationForSpaceCheck == "" {
			budget.DestinationForSpaceCheck = dest
		}
		topLevel, _ := singleTopLevelName(topLevelNames)
		outcome, err := extractTar(archivePath, format, dest, topLevel, filter, &budget, arena, progressCb, cancelled)
		if err != nil {
			arena.rollback()
			return Result{}, nil, err
		}
		action, err := createAction(dest)
		if err != nil {
			arena.rollback()
			return Result{}, nil, err
		}
		arena.disarm()
		return Result{Destination: dest, SkippedSymlinks: outcome.skippedSymlinks, SkippedEntries: outcome.skippedEntries}, action, nil

	case FormatSevenZip, FormatRar:
		return Result{}, nil, browseyerr.New(browseyerr.Unsupported, "7z/RAR extraction requires a decoder not available in this build")

	default:
		return Result{}, nil, browseyerr.New(browseyerr.Unsupported, "unrecognized archive format")
	}
}

// ExtractArchives extracts each of paths in turn, sharing a single
// Progress callback per spec section 4.6's "single ProgressEmitter shared
// across batch extractions". A failure on one archive does not prevent
// the remaining archives from being attempted; all results (including the
// error, if any) are returned in order.
func ExtractArchives(paths []string, budget Budget, filter EntryFilter, progress Progress, cancelled fsprimitives.Cancelled) []ArchiveOutcome {
	outcomes := make([]ArchiveOutcome, 0, len(paths))
	for _, p := range paths {
		result, action, err := ExtractArchive(p, budget, filter, progress, cancelled)
		outcomes = append(outcomes, ArchiveOutcome{Path: p, Result: result, Action: action, Err: err})
		if cancelled != nil && cancelled() {
			break
		}
	}
	return outcomes
}

// ArchiveOutcome pairs one archive's extraction result with the batch
// position it ran at.
type ArchiveOutcome struct {
	Path   string
	Result Result
	Action *journal.Action
	Err    error
}

// createAction builds the undo Action for a completed extraction: undoing
// an extraction means moving the extracted root out of the way into the
// same undo-backup tree ClipboardOps collisions use, not deleting it
// outright, so a redo can restore it without re-extracting.
func createAction(dest string) (*journal.Action, error) {
	backup, err := fsprimitives.TemporaryBackupPath(fsprimitives.DefaultBackupBase(), dest)
	if err != nil {
		return nil, err
	}
	return journal.NewCreate(dest, backup), nil
}
