// Package trash implements C4: TrashGateway, a crash-survivable wrapper
// around moving entries to the OS trash. Grounded on the teacher's
// crash-survivable state persistence in pkg/synchronization (write-ahead a
// durable record before performing an unobservable external side effect,
// then retire the record once the side effect is confirmed), generalized
// from sync-session state to trash stage/commit/rollback.
package trash

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/browsey/browsey-core/pkg/browseyerr"
	"github.com/browsey/browsey-core/pkg/fsprimitives"
	"github.com/browsey/browsey-core/pkg/journal"
	"github.com/browsey/browsey-core/pkg/logging"
	"github.com/browsey/browsey-core/pkg/mustdo"
)

// maxStageAttempts bounds the no-replace-rename retry loop in stageForTrash,
// per spec section 4.4 step 1.
const maxStageAttempts = 64

// Gateway is C4's entry point: Send stages src, durably journals the
// staging, delegates to the trash backend, and retires the journal entry
// on success (or rolls the staged entry back to its original location on
// failure).
type Gateway struct {
	journal *stageJournal
	backend Backend
	log     *logging.Logger
}

// NewGateway constructs a Gateway persisting its stage journal at
// journalPath and delegating trash delivery to backend.
func NewGateway(journalPath string, backend Backend, log *logging.Logger) *Gateway {
	return &Gateway{
		journal: newStageJournal(journalPath, log),
		backend: backend,
		log:     log,
	}
}

// stageForTrash performs a no-replace rename of src into a sibling staging
// name, retrying under a fresh name on collision up to maxStageAttempts
// times.
func stageForTrash(src string) (string, error) {
	dir := filepath.Dir(src)
	pid := os.Getpid()

	var lastErr error
	for attempt := 0; attempt < maxStageAttempts; attempt++ {
		name := fmt.Sprintf("browsey-trash-stage-%d-%d-%d", pid, time.Now().UnixNano(), attempt)
		staged := filepath.Join(dir, name)
		err := fsprimitives.RenameNoReplace(src, staged)
		if err == nil {
			return staged, nil
		}
		if browseyerr.CodeOf(err) == browseyerr.DestinationExists {
			lastErr = err
			continue
		}
		return "", err
	}
	return "", browseyerr.Wrap(browseyerr.TaskFailed, lastErr, "exhausted trash staging attempts")
}

// Send moves src to the trash via the staged/journaled protocol described
// in spec section 4.4, returning a Delete Action recording src and the
// trashed location (which remains addressable on disk, letting undo move
// it back via the same MoveWithFallback primitive used elsewhere).
func (g *Gateway) Send(src string) (*journal.Action, error) {
	staged, err := stageForTrash(src)
	if err != nil {
		return nil, err
	}

	if err := g.journal.append(entry{Staged: staged, Original: src}); err != nil {
		mustdo.Rename(staged, src, g.log)
		return nil, err
	}

	trashedLocation, err := g.backend.SendToTrash(staged)
	if err != nil {
		mustdo.Rename(staged, src, g.log)
		if removeErr := g.journal.remove(entry{Staged: staged, Original: src}); removeErr != nil {
			g.log.Warnf("unable to retire stage journal entry after rollback: %v", removeErr)
		}
		return nil, err
	}

	if err := g.journal.remove(entry{Staged: staged, Original: src}); err != nil {
		g.log.Warnf("trashed %s but unable to retire its stage journal entry: %v", src, err)
	}

	if err := g.backend.RewriteOriginalName(trashedLocation, src); err != nil {
		g.log.Warnf("trashed %s but unable to rewrite trash metadata to the original name: %v", src, err)
	}

	return journal.NewDelete(src, trashedLocation), nil
}
