package extract

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// normalizeEntryName cleans an archive entry's relative path using
// forward-slash semantics (archive formats always use '/'), so traversal
// detection is format-independent.
func normalizeEntryName(name string) string {
	return path.Clean(strings.ReplaceAll(name, "\\", "/"))
}

// isTraversalOrAbsolute reports whether a cleaned entry path escapes the
// extraction destination: a leading "../" component, a bare "..", or an
// absolute path, per spec section 4.6.
func isTraversalOrAbsolute(cleaned string) bool {
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return true
	}
	if path.IsAbs(cleaned) {
		return true
	}
	return false
}

// EntryFilter reports whether an archive entry should be skipped, matched
// against its cleaned, forward-slash relative path using doublestar glob
// syntax (e.g. "__MACOSX/**", "*.DS_Store"). A nil filter admits every
// entry.
type EntryFilter func(relativePath string) (skip bool)

// DenylistFilter builds an EntryFilter that skips any entry matching one of
// patterns.
func DenylistFilter(patterns ...string) EntryFilter {
	return func(relativePath string) bool {
		for _, p := range patterns {
			if ok, _ := doublestar.Match(p, relativePath); ok {
				return true
			}
		}
		return false
	}
}

// destinationPath joins destRoot with a cleaned, traversal-checked entry
// path using the native separator.
func destinationPath(destRoot, cleanedEntry string) string {
	return filepath.Join(destRoot, filepath.FromSlash(cleanedEntry))
}

// singleTopLevelName returns the sole member of topLevelNames and true if
// it has exactly one entry, so extraction can strip that shared wrapper
// folder instead of nesting it again inside the selected destination.
func singleTopLevelName(topLevelNames map[string]bool) (string, bool) {
	if len(topLevelNames) != 1 {
		return "", false
	}
	for name := range topLevelNames {
		return name, true
	}
	return "", false
}

// stripTopLevel removes a shared wrapper directory component from a
// cleaned entry path. It returns ok=false for the wrapper directory's own
// entry (nothing to write, destRoot already stands in for it) and for any
// entry that somehow doesn't fall under the wrapper.
func stripTopLevel(cleaned, topLevel string) (string, bool) {
	if topLevel == "" {
		return cleaned, true
	}
	if cleaned == topLevel {
		return "", false
	}
	prefix := topLevel + "/"
	if !strings.HasPrefix(cleaned, prefix) {
		return "", false
	}
	return strings.TrimPrefix(cleaned, prefix), true
}
