package extract

import (
	"os"
	"path/filepath"
)

// createdPaths tracks every directory and file created during an
// extraction attempt, in creation order, so a failed or cancelled
// extraction can be unwound by unlinking them in reverse order (files
// before the now-empty directories that contained them), per spec section
// 4.6. Grounded on the teacher's rollback-on-failure pattern in
// pkg/synchronization/core (a staged change set is either fully applied or
// fully reverted).
type createdPaths struct {
	paths []string
	armed bool
}

func newCreatedPaths() *createdPaths {
	return &createdPaths{armed: true}
}

// register records path as created by this extraction attempt.
func (c *createdPaths) register(path string) {
	c.paths = append(c.paths, path)
}

// disarm marks the arena as successfully completed; rollback becomes a
// no-op afterward.
func (c *createdPaths) disarm() {
	c.armed = false
}

// rollback removes every registered path in reverse creation order. It is
// a no-op once disarmed.
func (c *createdPaths) rollback() {
	if !c.armed {
		return
	}
	for i := len(c.paths) - 1; i >= 0; i-- {
		os.Remove(c.paths[i])
	}
}

// mkdirAllTracked creates dir and any missing ancestor directories, the
// same as os.MkdirAll, but registers each directory it actually creates
// with arena, in the order created (shallowest first), instead of only the
// leaf. A rollback then unwinds exactly the directories this call brought
// into existence, including any intermediate parent created as a side
// effect of a nested entry's path, per spec section 4.6's "every newly
// created directory and file is registered in a CreatedPaths arena."
func mkdirAllTracked(arena *createdPaths, dir string, perm os.FileMode) error {
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return &os.PathError{Op: "mkdir", Path: dir, Err: os.ErrExist}
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return err
	}

	parent := filepath.Dir(dir)
	if parent != dir {
		if err := mkdirAllTracked(arena, parent, perm); err != nil {
			return err
		}
	}

	if err := os.Mkdir(dir, perm); err != nil {
		if os.IsExist(err) {
			return nil
		}
		return err
	}
	arena.register(dir)
	return nil
}
