package thumbnail

import (
	"sync"

	"github.com/golang/groupcache/singleflight"
)

// inflight dedups concurrent requests for the same cache key: the first
// caller for a key runs fn and every concurrent caller for the same key
// blocks on that one result, per spec section 4.14's in-flight dedup. The
// owner's Response has Cached=false; every waiter's is a clone with
// Cached=true, since from the waiter's perspective it received a result
// that someone else had already produced.
//
// singleflight.Group.Do collapses concurrent calls but does not itself
// tell a caller whether it was the one that actually ran fn, so ownership
// is tracked separately with a sync.Map keyed by the same string: the
// first goroutine to claim a key is the owner and clears the entry when
// fn returns; everyone else that arrives while the entry is present is a
// waiter and never touches the entry.
type inflight struct {
	group  singleflight.Group
	owners sync.Map // key -> struct{}; presence means a call is in flight
}

func newInflight() *inflight {
	return &inflight{}
}

// do runs fn for key, deduped against any concurrent call for the same
// key. own reports whether this call produced the result rather than
// shared someone else's.
func (g *inflight) do(key string, fn func() (Response, error)) (resp Response, own bool, err error) {
	_, alreadyInFlight := g.owners.LoadOrStore(key, struct{}{})
	own = !alreadyInFlight

	result, doErr := g.group.Do(key, func() (interface{}, error) {
		return fn()
	})

	if own {
		g.owners.Delete(key)
	}

	if doErr != nil {
		return Response{}, own, doErr
	}
	resp = result.(Response)
	if !own {
		resp.Cached = true
	}
	return resp, own, nil
}
