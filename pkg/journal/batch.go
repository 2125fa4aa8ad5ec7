package journal

import (
	"fmt"
	"os"

	"github.com/browsey/browsey-core/pkg/browseyerr"
	"github.com/browsey/browsey-core/pkg/fsprimitives"
)

type direction int

const (
	forwardDirection direction = iota
	backwardDirection
)

func createEmptyFolder(path string) error {
	if err := os.Mkdir(path, 0755); err != nil {
		if os.IsExist(err) {
			return browseyerr.New(browseyerr.DestinationExists, "destination already exists: "+path)
		}
		return browseyerr.Wrap(browseyerr.IOError, err, "unable to create folder "+path)
	}
	return nil
}

func removeEmptyFolder(path string) error {
	entries, err := os.ReadDir(path)
	if err != nil {
		return browseyerr.Wrap(browseyerr.IOError, err, "unable to list folder "+path)
	}
	if len(entries) > 0 {
		return browseyerr.New(browseyerr.InvalidInput, "folder is not empty: "+path)
	}
	if err := os.Remove(path); err != nil {
		return browseyerr.Wrap(browseyerr.IOError, err, "unable to remove folder "+path)
	}
	return nil
}

// runBatch executes a sequence of actions in the requested direction. For
// forwardDirection, actions run in sequence order; on failure at index i,
// actions[0..i] are rolled back (run backward in reverse order) before the
// original error is returned. For backwardDirection, actions run in reverse
// sequence order (inverting both order and direction, per spec section 4.3);
// a failure partway through backward execution is reported without further
// rollback, since reversing a reversal has no well-defined next step.
func runBatch(sequence []*Action, dir direction, cancelled fsprimitives.Cancelled) error {
	if dir == backwardDirection {
		for i := len(sequence) - 1; i >= 0; i-- {
			if err := sequence[i].backward(cancelled); err != nil {
				return browseyerr.Wrap(browseyerr.TaskFailed, err, "batch rollback failed")
			}
		}
		return nil
	}

	for i, action := range sequence {
		if err := action.forward(cancelled); err != nil {
			if rollbackErr := rollbackPrefix(sequence[:i], cancelled); rollbackErr != nil {
				return fmt.Errorf("batch failed at step %d (%w); additionally, rollback of preceding steps failed: %v", i, err, rollbackErr)
			}
			return err
		}
	}
	return nil
}

// rollbackPrefix reverses already-applied actions (those before the
// failing index) in reverse order.
func rollbackPrefix(applied []*Action, cancelled fsprimitives.Cancelled) error {
	for i := len(applied) - 1; i >= 0; i-- {
		if err := applied[i].backward(cancelled); err != nil {
			return err
		}
	}
	return nil
}
