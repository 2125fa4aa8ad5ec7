package journal

import (
	"sync"

	"github.com/browsey/browsey-core/pkg/browseyerr"
	"github.com/browsey/browsey-core/pkg/fsprimitives"
)

// MaxUndoEntries is the undo stack cap named in spec section 3: applying a
// 51st action evicts the oldest entry, leaving the stack at 50.
const MaxUndoEntries = 50

// Journal is the in-memory (non-persistent, per spec section 3) undo/redo
// history. It is safe for concurrent use; Undo/Redo hold the lock across
// the filesystem mutation itself, which spec section 5 accepts since only
// one undo/redo may run at a time.
type Journal struct {
	mu   sync.Mutex
	undo []*Action
	redo []*Action
}

// New creates an empty Journal.
func New() *Journal {
	return &Journal{}
}

// Apply executes action's forward direction. On success it is pushed onto
// the undo stack (evicting the oldest entry if over MaxUndoEntries) and the
// redo stack is cleared. On failure the stacks are left unchanged; any
// partial effects are the responsibility of the action itself to roll back
// (Batch does this internally).
func (j *Journal) Apply(action *Action, cancelled fsprimitives.Cancelled) error {
	if err := action.forward(cancelled); err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	j.undo = append(j.undo, action)
	if len(j.undo) > MaxUndoEntries {
		j.undo = j.undo[len(j.undo)-MaxUndoEntries:]
	}
	j.redo = nil
	return nil
}

// Record pushes an already-applied action directly onto the undo stack
// without executing its forward direction, for Create-kind actions whose
// creation already happened as a side effect of the caller's own code
// (extraction, mkdir, etc).
func (j *Journal) Record(action *Action) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.undo = append(j.undo, action)
	if len(j.undo) > MaxUndoEntries {
		j.undo = j.undo[len(j.undo)-MaxUndoEntries:]
	}
	j.redo = nil
}

// Undo pops the most recent undo entry, runs it backward, and (on success)
// pushes it onto the redo stack. On failure the popped action is re-pushed
// onto the undo stack so the history is left as if Undo had never been
// called.
func (j *Journal) Undo(cancelled fsprimitives.Cancelled) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if len(j.undo) == 0 {
		return browseyerr.New(browseyerr.InvalidInput, "nothing to undo")
	}
	action := j.undo[len(j.undo)-1]
	j.undo = j.undo[:len(j.undo)-1]

	if err := action.backward(cancelled); err != nil {
		j.undo = append(j.undo, action)
		return err
	}

	j.redo = append(j.redo, action)
	return nil
}

// Redo pops the most recent redo entry, runs it forward, and (on success)
// pushes it back onto the undo stack. On failure the popped action is
// re-pushed onto the redo stack.
func (j *Journal) Redo(cancelled fsprimitives.Cancelled) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if len(j.redo) == 0 {
		return browseyerr.New(browseyerr.InvalidInput, "nothing to redo")
	}
	action := j.redo[len(j.redo)-1]
	j.redo = j.redo[:len(j.redo)-1]

	if err := action.forward(cancelled); err != nil {
		j.redo = append(j.redo, action)
		return err
	}

	j.undo = append(j.undo, action)
	if len(j.undo) > MaxUndoEntries {
		j.undo = j.undo[len(j.undo)-MaxUndoEntries:]
	}
	return nil
}

// UndoLen returns the current undo stack depth, for tests and diagnostics.
func (j *Journal) UndoLen() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.undo)
}

// RedoLen returns the current redo stack depth.
func (j *Journal) RedoLen() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.redo)
}
