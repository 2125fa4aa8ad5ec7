package watch

import (
	"errors"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/require"
)

type fakeWatcher struct {
	addErr  error
	added   string
	events  chan fsnotify.Event
	errs    chan error
	closed  bool
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{
		events: make(chan fsnotify.Event, 4),
		errs:   make(chan error, 4),
	}
}

func (f *fakeWatcher) Add(name string) error {
	f.added = name
	return f.addErr
}
func (f *fakeWatcher) Close() error {
	f.closed = true
	close(f.events)
	close(f.errs)
	return nil
}
func (f *fakeWatcher) Events() <-chan fsnotify.Event { return f.events }
func (f *fakeWatcher) Errors() <-chan error           { return f.errs }

type fakeHandle struct {
	events []string
}

func (f *fakeHandle) Emit(event string, payload any) {
	f.events = append(f.events, event)
}
func (f *fakeHandle) ShuttingDown() bool { return false }

func TestStartEmitsOnEveryEvent(t *testing.T) {
	fw := newFakeWatcher()
	h := &fakeHandle{}
	w := New("/tmp/watched", h, nil)
	w.factory = func() (FsWatcher, error) { return fw, nil }

	w.Start()
	require.Equal(t, "/tmp/watched", fw.added)

	fw.events <- fsnotify.Event{Name: "/tmp/watched/a.txt", Op: fsnotify.Write}
	require.Eventually(t, func() bool { return len(h.events) == 1 }, time.Second, time.Millisecond)
	require.Equal(t, DirectoryChangedEvent, h.events[0])

	w.Close()
	require.True(t, fw.closed)
}

func TestStartSwallowsFactoryFailure(t *testing.T) {
	w := New("/tmp/watched", nil, nil)
	w.factory = func() (FsWatcher, error) { return nil, errors.New("inotify unavailable") }

	require.NotPanics(t, func() { w.Start() })
	require.NotPanics(t, func() { w.Close() })
}

func TestStartSwallowsAddFailure(t *testing.T) {
	fw := newFakeWatcher()
	fw.addErr = errors.New("no such directory")
	w := New("/tmp/missing", nil, nil)
	w.factory = func() (FsWatcher, error) { return fw, nil }

	require.NotPanics(t, func() { w.Start() })
	require.True(t, fw.closed, "a failed Add should close the underlying watcher")
	require.NotPanics(t, func() { w.Close() })
}

func TestCloseBeforeStartIsSafe(t *testing.T) {
	w := New("/tmp/watched", nil, nil)
	require.NotPanics(t, func() { w.Close() })
}
