package core

import (
	"bufio"
	"os"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/browsey/browsey-core/pkg/browseyerr"
	"github.com/browsey/browsey-core/pkg/permissions"
)

// GetPermissions reads one entry's permissions, per spec section 6's
// `get_permissions(path)`.
func (s *Service) GetPermissions(path string) (permissions.EntryPermissions, error) {
	path, err := guardPath(path, true)
	if err != nil {
		return permissions.EntryPermissions{}, err
	}
	result := permissions.Read([]string{path})
	if len(result.PerItem) == 1 {
		return result.PerItem[0], nil
	}
	if err, ok := result.Failures[path]; ok {
		return permissions.EntryPermissions{}, err
	}
	if err, ok := result.UnexpectedFailures[path]; ok {
		return permissions.EntryPermissions{}, err
	}
	return permissions.EntryPermissions{}, browseyerr.New(browseyerr.NotFound, "no permissions read for "+path)
}

// guardPermissionPaths splits paths into ones that pass guardPath and a
// Failures map for the ones that don't, so an invalid path shows up as a
// per-entry failure in the returned BatchResult instead of aborting the
// whole batch.
func guardPermissionPaths(paths []string) (valid []string, failures map[string]error) {
	failures = make(map[string]error)
	valid = make([]string, 0, len(paths))
	for _, path := range paths {
		guarded, err := guardPath(path, true)
		if err != nil {
			failures[path] = err
			continue
		}
		valid = append(valid, guarded)
	}
	return valid, failures
}

func mergeFailures(result permissions.BatchResult, extra map[string]error) permissions.BatchResult {
	if len(extra) == 0 {
		return result
	}
	if result.Failures == nil {
		result.Failures = make(map[string]error, len(extra))
	}
	for path, err := range extra {
		result.Failures[path] = err
	}
	return result
}

// GetPermissionsBatch reads many entries' permissions at once and
// aggregates them, per spec section 6's `get_permissions_batch(paths)`.
func (s *Service) GetPermissionsBatch(paths []string) permissions.BatchResult {
	valid, failures := guardPermissionPaths(paths)
	return mergeFailures(permissions.Read(valid), failures)
}

// SetPermissions applies bits to every path and returns the post-apply
// batch result, per spec section 6's `set_permissions(paths, bits)`.
func (s *Service) SetPermissions(paths []string, bits permissions.AccessBits) permissions.BatchResult {
	valid, failures := guardPermissionPaths(paths)
	return mergeFailures(permissions.Apply(valid, bits), failures)
}

// OwnershipPrincipal is one row of ListOwnershipPrincipals, per spec
// section 6's `list_ownership_principals(kind, query?, limit?)`.
type OwnershipPrincipal struct {
	ID   uint32
	Name string
}

// PrincipalKind selects users or groups for ListOwnershipPrincipals.
type PrincipalKind int

const (
	PrincipalUser PrincipalKind = iota
	PrincipalGroup
)

// ListOwnershipPrincipals enumerates local users or groups, the picker
// list a "change owner" dialog would need. Grounded on the same POSIX-
// only split permissions.go itself uses for ownership reporting
// (readOwnership is POSIX-only; Windows has no equivalent notion of a
// numeric uid/gid principal list). /etc/passwd and /etc/group are parsed
// directly with bufio/strings rather than through os/user, since os/user
// only supports lookup by a single known name or id, not enumeration —
// nothing in the example pack or the wider ecosystem wraps this either;
// the passwd/group format is simple enough that hand-parsing it is the
// standard approach even in production POSIX tooling.
func (s *Service) ListOwnershipPrincipals(kind PrincipalKind, query string, limit int) ([]OwnershipPrincipal, error) {
	if runtime.GOOS == "windows" {
		return nil, browseyerr.New(browseyerr.Unsupported, "ownership principals are not available on this platform")
	}

	path := "/etc/passwd"
	if kind == PrincipalGroup {
		path = "/etc/group"
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, browseyerr.Wrap(browseyerr.IOError, err, "failed to read "+path)
	}
	defer f.Close()

	var out []OwnershipPrincipal
	query = strings.ToLower(query)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ":")
		if len(fields) < 3 {
			continue
		}
		name := fields[0]
		id, err := strconv.ParseUint(fields[2], 10, 32)
		if err != nil {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(name), query) {
			continue
		}
		out = append(out, OwnershipPrincipal{ID: uint32(id), Name: name})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
