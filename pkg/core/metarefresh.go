package core

import (
	"os"
	"path/filepath"
)

// entryMetaBatchEvent is the Handle event name named in spec section 6 for
// the listing's asynchronous meta enricher.
const entryMetaBatchEvent = "entry-meta-batch"

// metaBatchSize caps how many resolved entries accumulate before a batch
// is flushed, matching original_source/src/commands/listing/mod.rs's
// spawn_meta_refresh, which emits every 128 entries rather than one event
// per file.
const metaBatchSize = 128

// scheduleMetaRefresh resolves real metadata for each of paths in the
// background and emits it in entryMetaBatchEvent batches, per spec section
// 7's "missing metadata on network entries: emit stub entry, schedule
// background refresh". It is a no-op if paths is empty, the Service has no
// TaskRegistry, or the background-job admission semaphore (C7) is
// currently full — a network listing simply keeps its stub entries until a
// later ListDir call tries again.
func (s *Service) scheduleMetaRefresh(paths []string) {
	if len(paths) == 0 || s.tasks == nil {
		return
	}
	permit, ok := s.tasks.TryEnterBackground()
	if !ok {
		return
	}

	go func() {
		defer permit.Release()

		batch := make([]FsEntry, 0, metaBatchSize)
		for _, path := range paths {
			if s.tasks.ShuttingDown() {
				break
			}
			info, err := os.Lstat(path)
			if err != nil {
				s.log.Warnf("metadata refresh failed for %s: %v", path, err)
				continue
			}
			batch = append(batch, FsEntry{
				Name:      filepath.Base(path),
				Path:      path,
				IsDir:     info.IsDir(),
				IsSymlink: info.Mode()&os.ModeSymlink != 0,
				Size:      info.Size(),
				Modified:  info.ModTime(),
				Hidden:    isHiddenName(filepath.Base(path)),
				Network:   true,
			})
			if len(batch) >= metaBatchSize {
				s.handle.Emit(entryMetaBatchEvent, batch)
				batch = make([]FsEntry, 0, metaBatchSize)
			}
		}
		if len(batch) > 0 {
			s.handle.Emit(entryMetaBatchEvent, batch)
		}
	}()
}
