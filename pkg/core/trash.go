package core

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/browsey/browsey-core/pkg/browseyerr"
	"github.com/browsey/browsey-core/pkg/fsprimitives"
	"github.com/browsey/browsey-core/pkg/pathguard"
)

// TrashItem is one list_trash row, per spec section 6's
// `list_trash(sort?) -> [item]`.
type TrashItem struct {
	ID        string
	Original  string
	TrashedAt time.Time
}

// ListTrash returns every currently trashed item, most recently trashed
// first.
func (s *Service) ListTrash() ([]TrashItem, error) {
	if s.trashIdx == nil {
		return nil, nil
	}
	items, err := s.trashIdx.list()
	if err != nil {
		return nil, err
	}

	out := make([]TrashItem, len(items))
	for i, it := range items {
		out[i] = TrashItem{ID: it.ID, Original: it.Original, TrashedAt: it.TrashedAt}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TrashedAt.After(out[j].TrashedAt) })
	return out, nil
}

// MoveToTrash stages path through the crash-survivable trash gateway (C4)
// and records it in the durable trash index under a fresh uuid, the stable
// ID restore_trash_items/purge_trash_items address it by later. The
// journal.Action the gateway returns is recorded (not applied — Send
// already performed the move), per spec section 4.4.
func (s *Service) MoveToTrash(path string) (string, error) {
	if s.trash == nil {
		return "", browseyerr.New(browseyerr.Unsupported, "trash is not configured")
	}
	path, err := guardPath(path, true)
	if err != nil {
		return "", err
	}

	action, err := s.trash.Send(path)
	if err != nil {
		return "", err
	}
	s.journal.Record(action)

	id := uuid.NewString()
	if s.trashIdx != nil {
		if err := s.trashIdx.append(trashItem{
			ID:              id,
			Original:        action.Path,
			TrashedLocation: action.Backup,
			TrashedAt:       time.Now(),
		}); err != nil {
			s.log.Warnf("trash index append failed for %s: %v", path, err)
		}
	}
	return id, nil
}

// MoveToTrashMany trashes each of paths in turn, reporting (done, total)
// after each one, per spec section 6's `move_to_trash_many(paths,
// progress?)`. The first failure stops the batch; items already trashed
// stay trashed, matching the independent-per-entry semantics CopyEntries
// already uses for the analogous bulk clipboard operation.
func (s *Service) MoveToTrashMany(paths []string, progress func(done, total int)) ([]string, error) {
	ids := make([]string, 0, len(paths))
	for i, path := range paths {
		id, err := s.MoveToTrash(path)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
		if progress != nil {
			progress(i+1, len(paths))
		}
	}
	return ids, nil
}

// RestoreTrashItems moves each named trash item back to its original
// location and drops it from the index, per spec section 6's
// `restore_trash_items(ids)`. An id with no matching index entry is
// silently skipped rather than treated as an error, since the set of
// trashed items may have changed underneath a stale client-held id list.
func (s *Service) RestoreTrashItems(ids []string) error {
	if s.trashIdx == nil {
		return browseyerr.New(browseyerr.Unsupported, "trash index is not configured")
	}

	items, err := s.trashIdx.list()
	if err != nil {
		return err
	}
	wanted := toIDSet(ids)

	restored := make(map[string]bool, len(ids))
	for _, item := range items {
		if !wanted[item.ID] {
			continue
		}
		// item.TrashedLocation and item.Original both came from this
		// process's own index file, not fresh user input, so they are
		// wrapped as already-trusted rather than re-run through
		// guardPath's existence/symlink checks a second time.
		from := pathguard.FromTrusted(item.TrashedLocation).String()
		to := pathguard.FromTrusted(item.Original).String()
		if err := fsprimitives.MoveWithFallback(from, to, nil, nil); err != nil {
			return err
		}
		restored[item.ID] = true
	}
	return s.trashIdx.remove(restored)
}

// PurgeTrashItems permanently deletes each named trash item and drops it
// from the index, per spec section 6's `purge_trash_items(ids)`. This is
// irreversible: no journal.Action is recorded, since there is nothing left
// to undo to.
func (s *Service) PurgeTrashItems(ids []string) error {
	if s.trashIdx == nil {
		return browseyerr.New(browseyerr.Unsupported, "trash index is not configured")
	}

	items, err := s.trashIdx.list()
	if err != nil {
		return err
	}
	wanted := toIDSet(ids)

	purged := make(map[string]bool, len(ids))
	for _, item := range items {
		if !wanted[item.ID] {
			continue
		}
		if err := fsprimitives.DeleteEntry(item.TrashedLocation, noCancel); err != nil {
			return err
		}
		purged[item.ID] = true
	}
	return s.trashIdx.remove(purged)
}

func toIDSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// noCancel is the always-false fsprimitives.Cancelled used by trash
// operations that have no user-facing cancellation point of their own
// (the slow part, the OS trash move or the recursive delete, already ran
// during MoveToTrash/PurgeTrashItems' single filesystem call).
var noCancel fsprimitives.Cancelled = func() bool { return false }
