package core

import "github.com/browsey/browsey-core/pkg/dirsize"

// DirSizes computes the recursive size of each of paths, emitting a
// "dir-size" event through the wired handle.Handle as each ProgressEvent
// fires, per spec section 6's `get_dir_sizes(paths, skip_patterns?,
// progress?)` and its events list.
func (s *Service) DirSizes(paths []string, skipPatterns []string) (dirsize.Result, error) {
	paths, err := guardPaths(paths, true)
	if err != nil {
		return dirsize.Result{}, err
	}
	return dirsize.DirSizes(paths, skipPatterns, func(event dirsize.ProgressEvent) {
		s.handle.Emit("dir-size", event)
	})
}
