package extract

import (
	"archive/zip"
	"os"
	"strings"

	"github.com/browsey/browsey-core/pkg/browseyerr"
	"github.com/browsey/browsey-core/pkg/fsprimitives"
)

// zipTopLevelNames returns the set of top-level path segments present in
// the ZIP's central directory.
func zipTopLevelNames(path string) (map[string]bool, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, browseyerr.Wrap(browseyerr.ParseFailed, err, "unable to open zip "+path)
	}
	defer r.Close()

	names := map[string]bool{}
	for _, f := range r.File {
		top := strings.SplitN(normalizeEntryName(f.Name), "/", 2)[0]
		if top != "" && top != "." {
			names[top] = true
		}
	}
	return names, nil
}

// extractZip streams archivePath's ZIP entries into destRoot, applying the
// same traversal/symlink/parent-is-file/overwrite policy extractTar does.
// topLevel, if non-empty, names the single wrapper directory shared by
// every entry; it is stripped from each entry's path before joining onto
// destRoot so the wrapper isn't duplicated inside the selected destination.
func extractZip(archivePath string, destRoot string, topLevel string, filter EntryFilter, budget *Budget, arena *createdPaths, progress func(int64), cancelled fsprimitives.Cancelled) (extractOutcome, error) {
	var outcome extractOutcome

	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return outcome, browseyerr.Wrap(browseyerr.ParseFailed, err, "unable to open zip "+archivePath)
	}
	defer r.Close()

	for _, entry := range r.File {
		if cancelled != nil && cancelled() {
			return outcome, browseyerr.New(browseyerr.Cancelled, "extraction cancelled")
		}

		cleaned := normalizeEntryName(entry.Name)
		if isTraversalOrAbsolute(cleaned) {
			outcome.skippedEntries++
			continue
		}
		cleaned, ok := stripTopLevel(cleaned, topLevel)
		if !ok {
			continue
		}
		if filter != nil && filter(cleaned) {
			outcome.skippedEntries++
			continue
		}
		if entry.Mode()&os.ModeSymlink != 0 {
			outcome.skippedSymlinks++
			continue
		}

		target := destinationPath(destRoot, cleaned)

		if entry.FileInfo().IsDir() || strings.HasSuffix(entry.Name, "/") {
			if err := budget.ReserveEntry(); err != nil {
				return outcome, err
			}
			if err := mkdirAllTracked(arena, target, 0755); err != nil {
				return outcome, browseyerr.Wrap(browseyerr.IOError, err, "unable to create directory "+target)
			}
			continue
		}

		if parentInfo, statErr := os.Lstat(destinationPath(destRoot, parentOf(cleaned))); statErr == nil && !parentInfo.IsDir() {
			outcome.skippedEntries++
			continue
		}

		if err := budget.ReserveEntry(); err != nil {
			return outcome, err
		}
		target, err = avoidOverwrite(target)
		if err != nil {
			return outcome, err
		}
		if err := mkdirAllTracked(arena, parentDir(target), 0755); err != nil {
			return outcome, browseyerr.Wrap(browseyerr.IOError, err, "unable to create parent directory for "+target)
		}

		rc, err := entry.Open()
		if err != nil {
			return outcome, browseyerr.Wrap(browseyerr.IOError, err, "unable to open zip entry "+entry.Name)
		}
		writeErr := writeEntryFile(arena, target, rc, budget, progress, cancelled)
		rc.Close()
		if writeErr != nil {
			return outcome, writeErr
		}
	}
	return outcome, nil
}
