// Package journal implements C3: the typed, composable Action record of
// filesystem mutations, with atomic forward application, reverse execution,
// and batch rollback under partial failure. Grounded on the teacher's
// general pattern of small state machines guarded by a single mutex (e.g.
// pkg/daemon/lock.go, pkg/state/tracker.go) generalized to the Action
// variant set spec section 3 requires; the no-replace rename and
// symlink-refusing copy/delete underneath come from pkg/fsprimitives (which
// is itself grounded on the teacher's pkg/filesystem).
package journal

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/browsey/browsey-core/pkg/browseyerr"
	"github.com/browsey/browsey-core/pkg/fsprimitives"
)

// Kind identifies which Action variant a value represents.
type Kind int

// The Action variant set, per spec section 3.
const (
	KindRename Kind = iota
	KindMove
	KindCopy
	KindCreate
	KindDelete
	KindCreateFolder
	KindSetHidden
	KindBatch
)

// Action is the tagged-variant record of a single filesystem mutation.
// Which fields are meaningful depends on Kind:
//
//	Rename/Move:   From, To
//	Copy:          From, To
//	Create:        Path, Backup
//	Delete:        Path, Backup
//	CreateFolder:  Path
//	SetHidden:     From, To, Hidden
//	Batch:         Sequence
type Action struct {
	Kind     Kind
	From, To string
	Path     string
	Backup   string
	Hidden   bool
	Sequence []*Action
}

// NewRename records a same-directory (or cross-directory) rename/move from
// from to to.
func NewRename(from, to string) *Action {
	return &Action{Kind: KindRename, From: from, To: to}
}

// NewMove is semantically identical to NewRename for reversal purposes
// (spec section 4.3); it exists as a distinct constructor so callers can
// express intent (ClipboardOps moves vs RenameEngine renames) without
// affecting journal behavior.
func NewMove(from, to string) *Action {
	return &Action{Kind: KindMove, From: from, To: to}
}

// NewCopy records a copy from from to to.
func NewCopy(from, to string) *Action {
	return &Action{Kind: KindCopy, From: from, To: to}
}

// NewCreate records a newly created path, whose creation has already
// happened by the time this Action is constructed (forward execution has
// nothing to do while backup is absent; undo moves the path to backup and
// redo moves it back).
func NewCreate(path, backup string) *Action {
	return &Action{Kind: KindCreate, Path: path, Backup: backup}
}

// NewDelete records the staging-out of path to backup. Forward execution
// performs the move to backup; backward restores it.
func NewDelete(path, backup string) *Action {
	return &Action{Kind: KindDelete, Path: path, Backup: backup}
}

// NewCreateFolder records the creation of an empty directory at path.
func NewCreateFolder(path string) *Action {
	return &Action{Kind: KindCreateFolder, Path: path}
}

// toggledHiddenName computes the sibling path with the dot-prefix convention
// toggled on or off, per the POSIX dotfile visibility convention (spec
// section 4.3, grounded on the teacher's MarkHidden dotfile check).
func toggledHiddenName(path string, hidden bool) string {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	isDotted := strings.HasPrefix(base, ".")
	if hidden && !isDotted {
		return filepath.Join(dir, "."+base)
	}
	if !hidden && isDotted {
		return filepath.Join(dir, strings.TrimPrefix(base, "."))
	}
	return path
}

// NewSetHidden records toggling path's visibility to hidden (true) or
// visible (false), computing the renamed sibling path via the dotfile
// convention. If the path is already in the requested state, the resulting
// Action is a same-path no-op.
func NewSetHidden(path string, hidden bool) *Action {
	to := toggledHiddenName(path, hidden)
	return &Action{Kind: KindSetHidden, From: path, To: to, Hidden: hidden}
}

// NewBatch records a sequence of actions to be applied in order, with
// partial-failure rollback per spec section 4.3.
func NewBatch(sequence []*Action) *Action {
	return &Action{Kind: KindBatch, Sequence: sequence}
}

// forward executes this Action's forward direction.
func (a *Action) forward(cancelled fsprimitives.Cancelled) error {
	switch a.Kind {
	case KindRename, KindMove:
		return fsprimitives.MoveWithFallback(a.From, a.To, nil, cancelled)
	case KindCopy:
		return copyAny(a.From, a.To, cancelled)
	case KindCreate:
		// The path was already created by the caller before recording this
		// Action, so there is nothing to do until an undo has moved it into
		// its backup; a redo then moves it back.
		if _, err := os.Lstat(a.Backup); os.IsNotExist(err) {
			return nil
		}
		return fsprimitives.MoveWithFallback(a.Backup, a.Path, nil, cancelled)
	case KindDelete:
		return fsprimitives.MoveWithFallback(a.Path, a.Backup, nil, cancelled)
	case KindCreateFolder:
		return createEmptyFolder(a.Path)
	case KindSetHidden:
		if a.From == a.To {
			return nil
		}
		return fsprimitives.RenameNoReplace(a.From, a.To)
	case KindBatch:
		return runBatch(a.Sequence, forwardDirection, cancelled)
	default:
		return browseyerr.New(browseyerr.TaskFailed, "unknown action kind")
	}
}

// backward executes this Action's reverse direction.
func (a *Action) backward(cancelled fsprimitives.Cancelled) error {
	switch a.Kind {
	case KindRename, KindMove:
		return fsprimitives.MoveWithFallback(a.To, a.From, nil, cancelled)
	case KindCopy:
		return fsprimitives.DeleteEntry(a.To, cancelled)
	case KindCreate:
		return fsprimitives.MoveWithFallback(a.Path, a.Backup, nil, cancelled)
	case KindDelete:
		return fsprimitives.MoveWithFallback(a.Backup, a.Path, nil, cancelled)
	case KindCreateFolder:
		return removeEmptyFolder(a.Path)
	case KindSetHidden:
		if a.From == a.To {
			return nil
		}
		return fsprimitives.RenameNoReplace(a.To, a.From)
	case KindBatch:
		return runBatch(a.Sequence, backwardDirection, cancelled)
	default:
		return browseyerr.New(browseyerr.TaskFailed, "unknown action kind")
	}
}

// Execute runs action's forward direction without touching any Journal's
// undo/redo stacks. Components that build up their own in-progress list of
// Actions (RenameEngine's batch rename) use this to
// drive the same variant dispatch Apply uses, then hand the resulting
// Action to Journal.Record once their own compound operation succeeds.
func Execute(action *Action, cancelled fsprimitives.Cancelled) error {
	return action.forward(cancelled)
}

// Reverse runs action's backward direction without touching any Journal's
// undo/redo stacks, for rolling back an in-progress list of already-applied
// Actions after a later step fails.
func Reverse(action *Action, cancelled fsprimitives.Cancelled) error {
	return action.backward(cancelled)
}

func copyAny(from, to string, cancelled fsprimitives.Cancelled) error {
	snap, err := fsprimitives.SnapshotExisting(from)
	if err != nil {
		return err
	}
	if snap.Kind == fsprimitives.KindDir {
		return fsprimitives.CopyTree(from, to, nil, cancelled)
	}
	return fsprimitives.CopyFileExclusive(from, to, nil, cancelled)
}
