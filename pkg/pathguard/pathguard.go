// Package pathguard implements C1: sanitizing user-supplied path strings
// into the Path value type used throughout the rest of the module, refusing
// NUL bytes, traversal, and (optionally) symlinked components. Grounded on
// the teacher's pkg/filesystem path-handling conventions (paths.go,
// paths_posix.go, normalize.go's tilde expansion), generalized to the
// nofollow/follow distinction this spec requires.
package pathguard

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/browsey/browsey-core/pkg/browseyerr"
)

// Path is an absolute local path that has passed sanitization. The zero
// value is not a valid Path; only the functions in this package construct
// one.
type Path struct {
	raw string
}

// String returns the underlying absolute path string.
func (p Path) String() string {
	return p.raw
}

// IsZero reports whether this is the zero Path value.
func (p Path) IsZero() bool {
	return p.raw == ""
}

// Join returns a new Path formed by appending segment to p. The caller is
// responsible for re-sanitizing if segment came from untrusted input; Join
// is intended for internal composition (e.g. walking a directory this
// package already validated).
func (p Path) Join(segment string) Path {
	return Path{raw: filepath.Join(p.raw, segment)}
}

// Dir returns the parent of p as a Path.
func (p Path) Dir() Path {
	return Path{raw: filepath.Dir(p.raw)}
}

// Base returns the final path component.
func (p Path) Base() string {
	return filepath.Base(p.raw)
}

// FromTrusted wraps an already-validated absolute path string as a Path,
// for use by components (like the undo backup base) that compute paths
// internally rather than from user input.
func FromTrusted(raw string) Path {
	return Path{raw: raw}
}

func containsNUL(s string) bool {
	return strings.IndexByte(s, 0) >= 0
}

// tildeExpand expands a leading "~/" or "~" into the current user's home
// directory. Unlike the teacher's version, named-user expansion ("~bob/")
// is not supported, since this module has no need to resolve other users'
// home directories.
func tildeExpand(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	if len(path) == 1 {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", browseyerr.Wrap(browseyerr.InvalidPath, err, "unable to resolve home directory")
		}
		return home, nil
	}
	if os.IsPathSeparator(path[1]) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", browseyerr.Wrap(browseyerr.InvalidPath, err, "unable to resolve home directory")
		}
		return filepath.Join(home, path[2:]), nil
	}
	// "~username" form: unsupported, leave untouched so later checks reject
	// it as relative (its own clear error) rather than silently mis-handling
	// a different user's directory.
	return path, nil
}

// hasDotDotComponent reports whether any cleaned path component is "..".
// Since filepath.Clean only leaves ".." components when a relative path
// tries to climb above its starting point, this almost never fires for
// already-absolute input, but it remains the authoritative traversal check
// for any caller that passes a relative fragment through this package's
// internal Join helpers.
func hasDotDotComponent(cleaned string) bool {
	for _, part := range strings.Split(cleaned, string(filepath.Separator)) {
		if part == ".." {
			return true
		}
	}
	return false
}

func normalize(raw string) (string, error) {
	if containsNUL(raw) {
		return "", browseyerr.New(browseyerr.InvalidPath, "path contains a NUL byte")
	}
	if raw == "" {
		return "", browseyerr.New(browseyerr.InvalidPath, "path is empty")
	}
	expanded, err := tildeExpand(raw)
	if err != nil {
		return "", err
	}
	cleaned := filepath.Clean(expanded)
	if hasDotDotComponent(cleaned) {
		return "", browseyerr.New(browseyerr.InvalidPath, "path contains a traversal component")
	}
	if !filepath.IsAbs(cleaned) {
		return "", browseyerr.New(browseyerr.PathNotAbsolute, "path is not absolute: "+raw)
	}
	return cleaned, nil
}

// componentsOf splits an absolute, cleaned path into the ordered list of
// prefixes to check, from the filesystem root down to the full path.
func componentsOf(cleaned string) []string {
	var prefixes []string
	current := cleaned
	for {
		prefixes = append(prefixes, current)
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}
	// Reverse so the root comes first.
	for i, j := 0, len(prefixes)-1; i < j; i, j = i+1, j-1 {
		prefixes[i], prefixes[j] = prefixes[j], prefixes[i]
	}
	return prefixes
}

// CheckNoSymlinkComponents verifies that no component of the absolute path
// (from the root down to and including the final element) is itself a
// symlink. Components that don't exist are skipped rather than treated as
// an error, since the caller may be sanitizing a path for creation.
func CheckNoSymlinkComponents(cleaned string) error {
	for _, prefix := range componentsOf(cleaned) {
		info, err := os.Lstat(prefix)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return browseyerr.Wrap(browseyerr.MetadataReadFailed, err, "unable to stat path component "+prefix)
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return browseyerr.New(browseyerr.SymlinkUnsupported, "path component is a symlink: "+prefix)
		}
	}
	return nil
}

// SanitizeNofollow validates raw into a Path, refusing NUL bytes,
// traversal, a non-absolute result, and (if any component exists and) is a
// symlink. If mustExist is true, the final path must exist.
func SanitizeNofollow(raw string, mustExist bool) (Path, error) {
	cleaned, err := normalize(raw)
	if err != nil {
		return Path{}, err
	}
	if err := CheckNoSymlinkComponents(cleaned); err != nil {
		return Path{}, err
	}
	if mustExist {
		if _, err := os.Lstat(cleaned); err != nil {
			if os.IsNotExist(err) {
				return Path{}, browseyerr.New(browseyerr.NotFound, "path does not exist: "+cleaned)
			}
			if os.IsPermission(err) {
				return Path{}, browseyerr.Wrap(browseyerr.PermissionDenied, err, "unable to access "+cleaned)
			}
			return Path{}, browseyerr.Wrap(browseyerr.MetadataReadFailed, err, "unable to stat "+cleaned)
		}
	}
	return Path{raw: cleaned}, nil
}

// SanitizeFollow validates raw into a Path without rejecting symlinked
// components, resolving the final path through any symlinks present. Used
// only by the small set of callers that explicitly need to follow links
// (e.g. resolving a destination mount point); most of the module uses
// SanitizeNofollow.
func SanitizeFollow(raw string, mustExist bool) (Path, error) {
	cleaned, err := normalize(raw)
	if err != nil {
		return Path{}, err
	}
	resolved, err := filepath.EvalSymlinks(cleaned)
	if err != nil {
		if os.IsNotExist(err) {
			if mustExist {
				return Path{}, browseyerr.New(browseyerr.NotFound, "path does not exist: "+cleaned)
			}
			// The target doesn't exist yet; fall back to the cleaned,
			// unresolved path since there's nothing to resolve through.
			return Path{raw: cleaned}, nil
		}
		return Path{}, browseyerr.Wrap(browseyerr.MetadataReadFailed, err, "unable to resolve symlinks in "+cleaned)
	}
	if mustExist {
		if _, err := os.Stat(resolved); err != nil {
			return Path{}, browseyerr.Wrap(browseyerr.NotFound, err, "path does not exist: "+resolved)
		}
	}
	return Path{raw: resolved}, nil
}
