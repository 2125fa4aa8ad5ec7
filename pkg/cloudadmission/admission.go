// Package cloudadmission implements C11: the two independent per-remote
// admission mechanisms named in spec section 4.11 — a bounded concurrency
// permit per remote id, and a rate-limit cooldown mark per remote id that
// blocks further admission until it passes. Grounded on the teacher's
// pkg/synchronization/core worker-pool admission (a small fixed-capacity
// gate per concurrent transfer slot) generalized from one pool per sync
// session to one pool per cloud remote, plus the teacher's own retry/backoff
// timing idiom (a short fixed poll interval rather than a single long
// sleep, so cancellation is observed promptly).
package cloudadmission

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/browsey/browsey-core/pkg/browseyerr"
	"github.com/browsey/browsey-core/pkg/clock"
)

// DefaultRemoteConcurrency is the per-remote permit capacity used when no
// override is supplied.
const DefaultRemoteConcurrency = 4

// cooldownPollInterval is how often Acquire rechecks a remote's rate-limit
// cooldown expiry while waiting for it to pass.
const cooldownPollInterval = 20 * time.Millisecond

// Admission tracks, per remote id, a bounded concurrency semaphore and a
// rate-limit cooldown expiry.
type Admission struct {
	mu sync.Mutex

	clock    clock.Clock
	capacity int

	sema      map[string]chan struct{}
	cooldowns map[string]time.Time
}

// New creates an Admission whose per-remote semaphores have the given
// capacity. A capacity <= 0 uses DefaultRemoteConcurrency.
func New(c clock.Clock, capacity int) *Admission {
	if capacity <= 0 {
		capacity = DefaultRemoteConcurrency
	}
	return &Admission{
		clock:     c,
		capacity:  capacity,
		sema:      make(map[string]chan struct{}),
		cooldowns: make(map[string]time.Time),
	}
}

// Guard holds the permits acquired by a call to Acquire. Release returns
// every permit it holds; safe to call once.
type Guard struct {
	admission *Admission
	remotes   []string
}

// Release returns all permits held by g to their remotes' semaphores, in
// the reverse of the sorted order Acquire took them in, per spec section
// 8's "releases are in reverse order."
func (g *Guard) Release() {
	for i := len(g.remotes) - 1; i >= 0; i-- {
		sema := g.admission.semaphoreFor(g.remotes[i])
		<-sema
	}
}

// Acquire admits the caller for every remote in remotes: for each (visited
// in sorted order to prevent cross-operation deadlock, per spec section
// 4.11), it first waits for any active rate-limit cooldown to pass, then
// takes a concurrency permit. If ctx is cancelled while waiting, any
// permits already acquired are released and the context's error is
// returned.
func (a *Admission) Acquire(ctx context.Context, remotes []string) (*Guard, error) {
	sorted := sortedUnique(remotes)

	guard := &Guard{admission: a}
	for _, remote := range sorted {
		if err := a.waitForCooldown(ctx, remote); err != nil {
			guard.Release()
			return nil, err
		}
		if err := a.acquireSemaphore(ctx, remote); err != nil {
			guard.Release()
			return nil, err
		}
		guard.remotes = append(guard.remotes, remote)
	}
	return guard, nil
}

// MarkRateLimited records a cooldown expiry for remote, per spec section
// 4.11's "when an error is mapped to RateLimited, the remote is marked
// with a cooldown expiry."
func (a *Admission) MarkRateLimited(remote string, cooldown time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cooldowns[remote] = a.clock.Now().Add(cooldown)
}

// ClearRateLimit removes remote's cooldown mark, per spec section 4.11's
// "successful ops clear the mark."
func (a *Admission) ClearRateLimit(remote string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.cooldowns, remote)
}

func (a *Admission) waitForCooldown(ctx context.Context, remote string) error {
	for {
		a.mu.Lock()
		until, marked := a.cooldowns[remote]
		a.mu.Unlock()
		if !marked || !a.clock.Now().Before(until) {
			return nil
		}

		select {
		case <-ctx.Done():
			return browseyerr.Wrap(browseyerr.Cancelled, ctx.Err(), "admission wait for "+remote+" was cancelled")
		case <-time.After(cooldownPollInterval):
		}
	}
}

func (a *Admission) acquireSemaphore(ctx context.Context, remote string) error {
	sema := a.semaphoreFor(remote)
	select {
	case sema <- struct{}{}:
		return nil
	case <-ctx.Done():
		return browseyerr.Wrap(browseyerr.Cancelled, ctx.Err(), "admission wait for "+remote+" was cancelled")
	}
}

func (a *Admission) semaphoreFor(remote string) chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	sema, ok := a.sema[remote]
	if !ok {
		sema = make(chan struct{}, a.capacity)
		a.sema[remote] = sema
	}
	return sema
}

func sortedUnique(remotes []string) []string {
	seen := make(map[string]bool, len(remotes))
	out := make([]string, 0, len(remotes))
	for _, r := range remotes {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	sort.Strings(out)
	return out
}
