package core

import (
	"github.com/browsey/browsey-core/pkg/extract"
	"github.com/browsey/browsey-core/pkg/fsprimitives"
)

// defaultExtractBudget matches spec section 4.6's guard rails: no
// unconditional total-size cap (archives legitimately unpack larger than
// themselves), but disk space is re-checked every 64 MiB written and the
// extraction aborts once free space drops below 256 MiB.
func defaultExtractBudget(destinationHint string) extract.Budget {
	return extract.Budget{
		CheckIntervalBytes:       64 * 1024 * 1024,
		FloorBytes:               256 * 1024 * 1024,
		DestinationForSpaceCheck: destinationHint,
	}
}

// ExtractArchive extracts archivePath and records the resulting Create
// action, per spec section 6's `extract_archive(path, skip_patterns?,
// progress?)`.
func (s *Service) ExtractArchive(path string, skipPatterns []string, progress extract.Progress, cancelled fsprimitives.Cancelled) (extract.Result, error) {
	path, err := guardPath(path, true)
	if err != nil {
		return extract.Result{}, err
	}
	filter := extract.DenylistFilter(skipPatterns...)
	result, action, err := extract.ExtractArchive(path, defaultExtractBudget(path), filter, progress, cancelled)
	if err != nil {
		return extract.Result{}, err
	}
	s.journal.Record(action)
	return result, nil
}

// ExtractArchives extracts each of paths, recording one Create action per
// archive that succeeds, per spec section 6's `extract_archives(paths,
// skip_patterns?, progress?)`. A path that fails guardPath is reported as
// its own failed ArchiveOutcome rather than aborting the whole batch, the
// same independent-per-entry handling extract.ExtractArchives itself
// already applies to archives that fail during extraction.
func (s *Service) ExtractArchives(paths []string, skipPatterns []string, progress extract.Progress, cancelled fsprimitives.Cancelled) []extract.ArchiveOutcome {
	filter := extract.DenylistFilter(skipPatterns...)

	valid := make([]string, 0, len(paths))
	var outcomes []extract.ArchiveOutcome
	for _, path := range paths {
		guarded, err := guardPath(path, true)
		if err != nil {
			outcomes = append(outcomes, extract.ArchiveOutcome{Path: path, Err: err})
			continue
		}
		valid = append(valid, guarded)
	}

	outcomes = append(outcomes, extract.ExtractArchives(valid, defaultExtractBudget(""), filter, progress, cancelled)...)
	for _, outcome := range outcomes {
		if outcome.Err == nil && outcome.Action != nil {
			s.journal.Record(outcome.Action)
		}
	}
	return outcomes
}
