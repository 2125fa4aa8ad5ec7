// Package watch implements C13: a best-effort, single-directory,
// non-recursive filesystem watcher. Grounded on the teacher-adjacent
// tonimelisma-onedrive-go local observer's FsWatcher abstraction — a thin
// interface wrapping *fsnotify.Watcher's public Events/Errors channel
// fields behind methods, so a test can substitute a fake — narrowed here
// from a recursive multi-directory sync watch to a single directory with
// no recursion, per spec section 4.13.
package watch

import (
	"github.com/fsnotify/fsnotify"

	"github.com/browsey/browsey-core/pkg/handle"
	"github.com/browsey/browsey-core/pkg/logging"
)

// DirectoryChangedEvent is the event name emitted on every filesystem
// notification for the watched directory, per spec section 4.13's
// "surfaces 'directory changed' events."
const DirectoryChangedEvent = "directory-changed"

// FsWatcher abstracts the subset of *fsnotify.Watcher this package needs.
// Satisfied by *fsnotifyAdapter; tests inject a fake.
type FsWatcher interface {
	Add(name string) error
	Close() error
	Events() <-chan fsnotify.Event
	Errors() <-chan error
}

type fsnotifyAdapter struct {
	w *fsnotify.Watcher
}

func (a *fsnotifyAdapter) Add(name string) error         { return a.w.Add(name) }
func (a *fsnotifyAdapter) Close() error                  { return a.w.Close() }
func (a *fsnotifyAdapter) Events() <-chan fsnotify.Event { return a.w.Events }
func (a *fsnotifyAdapter) Errors() <-chan error          { return a.w.Errors }

// Factory constructs the underlying watcher. Production code uses
// newFsnotifyWatcher; tests substitute a fake.
type Factory func() (FsWatcher, error)

func newFsnotifyWatcher() (FsWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &fsnotifyAdapter{w: w}, nil
}

// Watcher watches a single directory non-recursively and emits
// DirectoryChangedEvent through a handle.Handle on every filesystem
// notification. Construction is always best-effort: if the underlying
// watcher cannot be created or the directory cannot be added, Start logs
// a warning and returns a Watcher with no active watch rather than an
// error, per spec section 4.13's "any failure at start is logged as
// warning and the caller proceeds without a watcher."
type Watcher struct {
	dir     string
	handle  handle.Handle
	log     *logging.Logger
	factory Factory

	underlying FsWatcher
	done       chan struct{}
}

// New creates a Watcher for dir. h may be nil (treated as handle.Noop{}).
func New(dir string, h handle.Handle, log *logging.Logger) *Watcher {
	if h == nil {
		h = handle.Noop{}
	}
	return &Watcher{dir: dir, handle: h, log: log, factory: newFsnotifyWatcher}
}

// Start attempts to begin watching. Failure is logged and swallowed: the
// Watcher remains usable (Close is always safe to call) but simply never
// emits events.
func (w *Watcher) Start() {
	underlying, err := w.factory()
	if err != nil {
		w.log.Warnf("unable to create directory watcher for %s: %v", w.dir, err)
		return
	}
	if err := underlying.Add(w.dir); err != nil {
		w.log.Warnf("unable to watch directory %s: %v", w.dir, err)
		_ = underlying.Close()
		return
	}

	w.underlying = underlying
	w.done = make(chan struct{})
	go w.loop(underlying, w.done)
}

// Close stops the watch loop and releases the underlying watcher, if one
// is active. Safe to call even if Start failed or was never called.
func (w *Watcher) Close() {
	if w.underlying == nil {
		return
	}
	close(w.done)
	_ = w.underlying.Close()
	w.underlying = nil
}

func (w *Watcher) loop(underlying FsWatcher, done <-chan struct{}) {
	for {
		select {
		case _, ok := <-underlying.Events():
			if !ok {
				return
			}
			w.handle.Emit(DirectoryChangedEvent, w.dir)
		case err, ok := <-underlying.Errors():
			if !ok {
				return
			}
			w.log.Warnf("directory watch error for %s: %v", w.dir, err)
		case <-done:
			return
		}
	}
}
