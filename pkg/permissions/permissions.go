// Package permissions implements C15: the per-entity/aggregate permissions
// model, batched read and apply over many paths at once, and POSIX-only
// ownership reporting. Grounded on the teacher's pkg/filesystem
// permissions.go/permissions_posix.go/permissions_windows.go split: a
// platform-independent core plus a narrow platform hook for the bits that
// genuinely differ (ownership lookup, how chmod is performed on Windows).
package permissions

import (
	"os"

	"github.com/browsey/browsey-core/pkg/browseyerr"
)

// AccessBits is the per-entity read/write/exec triple named in spec
// section 4.15, derived from the entry's owner permission bits.
type AccessBits struct {
	Read  bool
	Write bool
	Exec  bool
}

func accessBitsFromMode(mode os.FileMode) AccessBits {
	perm := mode.Perm()
	return AccessBits{
		Read:  perm&0o400 != 0,
		Write: perm&0o200 != 0,
		Exec:  perm&0o100 != 0,
	}
}

// Ownership holds the POSIX uid/gid pair for an entry. Only ever
// populated on POSIX platforms; see readOwnership.
type Ownership struct {
	UID uint32
	GID uint32
}

// EntryPermissions is one path's permission read, per spec section 4.15.
type EntryPermissions struct {
	Path       string
	Bits       AccessBits
	ReadOnly   bool
	Executable *bool
	Owner      *Ownership
}

// TriState is the all-true/all-false/mixed aggregate named in spec
// section 4.15: "all equal true -> true; all equal false -> false; else
// mixed."
type TriState int

const (
	TriFalse TriState = iota
	TriTrue
	TriMixed
)

func (t TriState) String() string {
	switch t {
	case TriTrue:
		return "true"
	case TriFalse:
		return "false"
	default:
		return "mixed"
	}
}

func combine(values []bool) TriState {
	if len(values) == 0 {
		return TriFalse
	}
	allTrue, allFalse := true, true
	for _, v := range values {
		if v {
			allFalse = false
		} else {
			allTrue = false
		}
	}
	switch {
	case allTrue:
		return TriTrue
	case allFalse:
		return TriFalse
	default:
		return TriMixed
	}
}

// Aggregate is the batch-wide rollup of every successfully read entry's
// permissions, per spec section 4.15.
type Aggregate struct {
	Read               TriState
	Write              TriState
	Exec               TriState
	ReadOnly           TriState
	Executable         TriState
	OwnershipSupported bool
}

func aggregateOf(entries []EntryPermissions) Aggregate {
	read := make([]bool, len(entries))
	write := make([]bool, len(entries))
	exec := make([]bool, len(entries))
	readOnly := make([]bool, len(entries))
	var execFlags []bool
	supported := len(entries) > 0

	for i, e := range entries {
		read[i] = e.Bits.Read
		write[i] = e.Bits.Write
		exec[i] = e.Bits.Exec
		readOnly[i] = e.ReadOnly
		if e.Executable != nil {
			execFlags = append(execFlags, *e.Executable)
		}
		if e.Owner == nil {
			supported = false
		}
	}

	agg := Aggregate{
		Read:               combine(read),
		Write:              combine(write),
		Exec:               combine(exec),
		ReadOnly:           combine(readOnly),
		OwnershipSupported: supported,
	}
	if len(execFlags) == len(entries) && len(entries) > 0 {
		agg.Executable = combine(execFlags)
	} else {
		agg.Executable = TriFalse
	}
	return agg
}

// expectedFailure reports whether code belongs to the "expected" failure
// set named in spec section 4.15: NotFound, PermissionDenied, and
// SymlinkUnsupported applied to virtual paths.
func expectedFailure(err error) bool {
	be, ok := err.(*browseyerr.Error)
	if !ok {
		return false
	}
	switch be.Code {
	case browseyerr.NotFound, browseyerr.PermissionDenied, browseyerr.SymlinkUnsupported:
		return true
	default:
		return false
	}
}

// BatchResult is the shape spec section 4.15 names for a batched
// permissions read: per-item results, the combined aggregate, and
// failures split into expected and unexpected buckets.
type BatchResult struct {
	PerItem            []EntryPermissions
	Aggregate          Aggregate
	Failures           map[string]error
	UnexpectedFailures map[string]error
}

// Read reads permissions for each of paths, batching successes into the
// result's PerItem/Aggregate and partitioning failures into Failures
// (expected) and UnexpectedFailures.
func Read(paths []string) BatchResult {
	result := BatchResult{
		Failures:           make(map[string]error),
		UnexpectedFailures: make(map[string]error),
	}

	var ok []EntryPermissions
	for _, path := range paths {
		entry, err := readOne(path)
		if err != nil {
			if expectedFailure(err) {
				result.Failures[path] = err
			} else {
				result.UnexpectedFailures[path] = err
			}
			continue
		}
		ok = append(ok, entry)
	}

	result.PerItem = ok
	result.Aggregate = aggregateOf(ok)
	return result
}

func readOne(path string) (EntryPermissions, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return EntryPermissions{}, browseyerr.Wrap(browseyerr.NotFound, err, "no such file "+path)
		}
		if os.IsPermission(err) {
			return EntryPermissions{}, browseyerr.Wrap(browseyerr.PermissionDenied, err, "permission denied reading "+path)
		}
		return EntryPermissions{}, browseyerr.Wrap(browseyerr.MetadataReadFailed, err, "unable to stat "+path)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return EntryPermissions{}, browseyerr.New(browseyerr.SymlinkUnsupported, "permissions are not reported for symlinks: "+path)
	}

	bits := accessBitsFromMode(info.Mode())
	readOnly := !bits.Write
	entry := EntryPermissions{
		Path:     path,
		Bits:     bits,
		ReadOnly: readOnly,
		Owner:    readOwnership(info),
	}
	if !info.IsDir() {
		executable := bits.Exec
		entry.Executable = &executable
	}
	return entry, nil
}

// Apply sets permission bits for each of paths to bits, batching failures
// the same way Read does. Ownership is never modified by Apply; only the
// read/write/exec bits named in AccessBits are applied, per spec section
// 4.15's scope (ownership is reported, not mutated, by this component).
func Apply(paths []string, bits AccessBits) BatchResult {
	result := BatchResult{
		Failures:           make(map[string]error),
		UnexpectedFailures: make(map[string]error),
	}

	var ok []EntryPermissions
	for _, path := range paths {
		entry, err := applyOne(path, bits)
		if err != nil {
			if expectedFailure(err) {
				result.Failures[path] = err
			} else {
				result.UnexpectedFailures[path] = err
			}
			continue
		}
		ok = append(ok, entry)
	}

	result.PerItem = ok
	result.Aggregate = aggregateOf(ok)
	return result
}

func applyOne(path string, bits AccessBits) (EntryPermissions, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return EntryPermissions{}, browseyerr.Wrap(browseyerr.NotFound, err, "no such file "+path)
		}
		return EntryPermissions{}, browseyerr.Wrap(browseyerr.MetadataReadFailed, err, "unable to stat "+path)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return EntryPermissions{}, browseyerr.New(browseyerr.SymlinkUnsupported, "permissions are not applied to symlinks: "+path)
	}

	mode := modeFromBits(info.Mode(), bits)
	if err := applyMode(path, mode); err != nil {
		if os.IsPermission(err) {
			return EntryPermissions{}, browseyerr.Wrap(browseyerr.PermissionDenied, err, "permission denied applying permissions to "+path)
		}
		return EntryPermissions{}, browseyerr.Wrap(browseyerr.IOError, err, "unable to apply permissions to "+path)
	}

	return readOne(path)
}

// modeFromBits rewrites the owner bits of mode from bits, leaving group
// and other bits and the file-type bits untouched.
func modeFromBits(mode os.FileMode, bits AccessBits) os.FileMode {
	const ownerMask = os.FileMode(0o700)
	cleared := mode &^ ownerMask
	var owner os.FileMode
	if bits.Read {
		owner |= 0o400
	}
	if bits.Write {
		owner |= 0o200
	}
	if bits.Exec {
		owner |= 0o100
	}
	return cleared | owner
}
