// Package tasks implements C7: the cooperative task/cancellation substrate.
// It tracks named cancel tokens, gates long operations behind a process-wide
// shutdown flag, and admits a bounded number of background jobs. Grounded on
// the teacher's state package (condition-variable-backed trackers) and its
// general style of small, mutex-protected registries (pkg/daemon's process
// state, pkg/state/tracker.go).
package tasks

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/browsey/browsey-core/pkg/browseyerr"
)

// Token is a cooperative cancellation flag. The zero value is not ready for
// use; construct one with NewToken.
type Token struct {
	flag *int32
}

// NewToken creates a fresh, uncancelled Token.
func NewToken() Token {
	var v int32
	return Token{flag: &v}
}

// Cancel marks the token as cancelled. Idempotent.
func (t Token) Cancel() {
	if t.flag != nil {
		atomic.StoreInt32(t.flag, 1)
	}
}

// IsCancelled reports whether this specific token has been cancelled. It
// does not consult the process-wide shutdown flag; use Registry.Cancelled
// for the combined check most call sites want.
func (t Token) IsCancelled() bool {
	return t.flag != nil && atomic.LoadInt32(t.flag) == 1
}

// Registry is the process-wide registry of named cancel tokens, the
// shutdown gate, and the background-job admission semaphore.
type Registry struct {
	mu             sync.Mutex
	tasks          map[string]Token
	shuttingDown   int32
	backgroundSema chan struct{}
}

// DefaultBackgroundCapacity is the small fixed capacity used for the
// background-job admission semaphore (thumbnail refresh, cloud cache
// background refresh) when no override is supplied.
const DefaultBackgroundCapacity = 4

// NewRegistry creates a Registry with the given background-job admission
// capacity. A capacity <= 0 uses DefaultBackgroundCapacity.
func NewRegistry(backgroundCapacity int) *Registry {
	if backgroundCapacity <= 0 {
		backgroundCapacity = DefaultBackgroundCapacity
	}
	return &Registry{
		tasks:          make(map[string]Token),
		backgroundSema: make(chan struct{}, backgroundCapacity),
	}
}

// Guard is returned by Register; dropping it (calling Release) removes the
// task's entry from the registry.
type Guard struct {
	registry *Registry
	id       string
	Token    Token
}

// Register atomically inserts a new named cancel token. It fails with
// browseyerr.InvalidInput if id is already registered.
func (r *Registry) Register(id string) (*Guard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tasks[id]; exists {
		return nil, browseyerr.New(browseyerr.InvalidInput, fmt.Sprintf("task %q already registered", id))
	}

	token := NewToken()
	r.tasks[id] = token
	return &Guard{registry: r, id: id, Token: token}, nil
}

// Release removes the task's entry from the registry. Safe to call more
// than once.
func (g *Guard) Release() {
	g.registry.mu.Lock()
	defer g.registry.mu.Unlock()
	delete(g.registry.tasks, g.id)
}

// Lookup returns the token registered under id, if any.
func (r *Registry) Lookup(id string) (Token, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	return t, ok
}

// BeginShutdown sets the process-wide shutdown flag. Every operation
// consulting Cancelled (directly or via a token obtained from this
// registry) will observe cancellation from this point forward.
func (r *Registry) BeginShutdown() {
	atomic.StoreInt32(&r.shuttingDown, 1)
}

// ShuttingDown reports whether the process-wide shutdown flag is set.
func (r *Registry) ShuttingDown() bool {
	return atomic.LoadInt32(&r.shuttingDown) == 1
}

// Cancelled reports whether the given token is cancelled OR the process is
// shutting down, per the superset rule in spec section 4.7/5.
func (r *Registry) Cancelled(t Token) bool {
	return t.IsCancelled() || r.ShuttingDown()
}

// Permit is held by a caller that was admitted into the background-job
// semaphore. Release must be called exactly once to free the slot.
type Permit struct {
	sema chan struct{}
}

// Release returns the permit's slot to the semaphore.
func (p *Permit) Release() {
	<-p.sema
}

// TryEnterBackground attempts to acquire a background-job admission permit
// without blocking. It returns (nil, false) under pressure.
func (r *Registry) TryEnterBackground() (*Permit, bool) {
	select {
	case r.backgroundSema <- struct{}{}:
		return &Permit{sema: r.backgroundSema}, true
	default:
		return nil, false
	}
}
