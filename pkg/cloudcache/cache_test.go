package cloudcache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/browsey/browsey-core/pkg/cloud"
	"github.com/browsey/browsey-core/pkg/cloudpath"
	"github.com/browsey/browsey-core/pkg/clock"
	"github.com/browsey/browsey-core/pkg/tasks"
)

func mustPath(t *testing.T, raw string) cloudpath.Path {
	t.Helper()
	p, err := cloudpath.Parse(raw)
	require.NoError(t, err)
	return p
}

type countingFetcher struct {
	mu    sync.Mutex
	calls int
	seq   [][]cloud.Entry
	err   error
}

func (f *countingFetcher) fetch(ctx context.Context, path cloudpath.Path) ([]cloud.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if i < len(f.seq) {
		return f.seq[i], nil
	}
	return f.seq[len(f.seq)-1], nil
}

func (f *countingFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func waitForCalls(t *testing.T, f *countingFetcher, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if f.count() >= want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d calls, got %d", want, f.count())
}

func TestListDirMissFetchesAndCaches(t *testing.T) {
	c := clock.NewFake(time.Unix(0, 0))
	registry := tasks.NewRegistry(0)
	fetcher := &countingFetcher{seq: [][]cloud.Entry{{{Name: "a"}}}}

	cache := New(c, nil, nil, registry, fetcher.fetch, nil)
	path := mustPath(t, "rclone://drive/docs")

	entries, err := cache.ListDir(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, 1, fetcher.count())

	entries, err = cache.ListDir(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, 1, fetcher.count(), "a fresh hit should not refetch")
}

func TestListDirStaleHitReturnsCachedAndSchedulesRefresh(t *testing.T) {
	c := clock.NewFake(time.Unix(0, 0))
	registry := tasks.NewRegistry(0)
	fetcher := &countingFetcher{seq: [][]cloud.Entry{
		{{Name: "old"}},
		{{Name: "new"}},
	}}

	cache := New(c, nil, nil, registry, fetcher.fetch, nil)
	path := mustPath(t, "rclone://drive/docs")

	_, err := cache.ListDir(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 1, fetcher.count())

	c.Advance(ListingFreshTTL + time.Second)

	entries, err := cache.ListDir(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "old", entries[0].Name, "a stale hit should return the cached value immediately")

	waitForCalls(t, fetcher, 2)
}

func TestListDirStaleHitDoesNotScheduleDuplicateRefresh(t *testing.T) {
	c := clock.NewFake(time.Unix(0, 0))
	registry := tasks.NewRegistry(0)
	release := make(chan struct{})
	fetchStarted := make(chan struct{}, 1)

	var calls int
	var mu sync.Mutex
	fetch := func(ctx context.Context, path cloudpath.Path) ([]cloud.Entry, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			return []cloud.Entry{{Name: "first"}}, nil
		}
		select {
		case fetchStarted <- struct{}{}:
		default:
		}
		<-release
		return []cloud.Entry{{Name: "second"}}, nil
	}

	cache := New(c, nil, nil, registry, fetch, nil)
	path := mustPath(t, "rclone://drive/docs")

	_, err := cache.ListDir(context.Background(), path)
	require.NoError(t, err)

	c.Advance(ListingFreshTTL + time.Second)

	_, err = cache.ListDir(context.Background(), path)
	require.NoError(t, err)
	<-fetchStarted

	_, err = cache.ListDir(context.Background(), path)
	require.NoError(t, err)

	close(release)
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	got := calls
	mu.Unlock()
	require.Equal(t, 2, got, "a second stale hit while a refresh is in flight should not schedule another")
}

func TestListDirNoAdmissionSkipsBackgroundRefresh(t *testing.T) {
	c := clock.NewFake(time.Unix(0, 0))
	registry := tasks.NewRegistry(1)
	permit, ok := registry.TryEnterBackground()
	require.True(t, ok)
	defer permit.Release()

	fetcher := &countingFetcher{seq: [][]cloud.Entry{{{Name: "old"}}, {{Name: "new"}}}}
	cache := New(c, nil, nil, registry, fetcher.fetch, nil)
	path := mustPath(t, "rclone://drive/docs")

	_, err := cache.ListDir(context.Background(), path)
	require.NoError(t, err)
	c.Advance(ListingFreshTTL + time.Second)

	_, err = cache.ListDir(context.Background(), path)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	require.Equal(t, 1, fetcher.count(), "no admission permit available means no background refresh")
}

func TestListDirExpiredBeyondStaleRefetchesSynchronously(t *testing.T) {
	c := clock.NewFake(time.Unix(0, 0))
	registry := tasks.NewRegistry(0)
	fetcher := &countingFetcher{seq: [][]cloud.Entry{{{Name: "old"}}, {{Name: "new"}}}}
	cache := New(c, nil, nil, registry, fetcher.fetch, nil)
	path := mustPath(t, "rclone://drive/docs")

	_, err := cache.ListDir(context.Background(), path)
	require.NoError(t, err)
	c.Advance(ListingStaleTTL + time.Second)

	entries, err := cache.ListDir(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, "new", entries[0].Name)
	require.Equal(t, 2, fetcher.count())
}

func TestListRemotesCachesWithinTTL(t *testing.T) {
	c := clock.NewFake(time.Unix(0, 0))
	registry := tasks.NewRegistry(0)
	calls := 0
	fetchRemotes := func(ctx context.Context) ([]string, error) {
		calls++
		return []string{"drive", "s3"}, nil
	}
	cache := New(c, nil, nil, registry, nil, fetchRemotes)

	remotes, err := cache.ListRemotes(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"drive", "s3"}, remotes)

	_, err = cache.ListRemotes(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	c.Advance(RemoteDiscoveryTTL + time.Second)
	_, err = cache.ListRemotes(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestInvalidateDropsSelfParentAndSubtree(t *testing.T) {
	c := clock.NewFake(time.Unix(0, 0))
	registry := tasks.NewRegistry(0)
	fetcher := &countingFetcher{seq: [][]cloud.Entry{{}, {}, {}, {{Name: "refetched"}}}}
	cache := New(c, nil, nil, registry, fetcher.fetch, nil)

	parent := mustPath(t, "rclone://drive/docs")
	target := mustPath(t, "rclone://drive/docs/reports")
	child := mustPath(t, "rclone://drive/docs/reports/q1")

	_, err := cache.ListDir(context.Background(), parent)
	require.NoError(t, err)
	_, err = cache.ListDir(context.Background(), target)
	require.NoError(t, err)
	_, err = cache.ListDir(context.Background(), child)
	require.NoError(t, err)
	require.Equal(t, 3, fetcher.count())

	cache.Invalidate(target)

	// parent and child should both have been dropped; target itself too.
	_, err = cache.ListDir(context.Background(), parent)
	require.NoError(t, err)
	_, err = cache.ListDir(context.Background(), child)
	require.NoError(t, err)
	require.Equal(t, 5, fetcher.count(), "invalidating target drops target, its parent, and its subtree")
}

func TestInvalidateAllClearsBothCaches(t *testing.T) {
	c := clock.NewFake(time.Unix(0, 0))
	registry := tasks.NewRegistry(0)
	dirFetcher := &countingFetcher{seq: [][]cloud.Entry{{}, {}}}
	remoteCalls := 0
	fetchRemotes := func(ctx context.Context) ([]string, error) {
		remoteCalls++
		return []string{"drive"}, nil
	}
	cache := New(c, nil, nil, registry, dirFetcher.fetch, fetchRemotes)
	path := mustPath(t, "rclone://drive/docs")

	_, err := cache.ListDir(context.Background(), path)
	require.NoError(t, err)
	_, err = cache.ListRemotes(context.Background())
	require.NoError(t, err)

	cache.InvalidateAll()

	_, err = cache.ListDir(context.Background(), path)
	require.NoError(t, err)
	_, err = cache.ListRemotes(context.Background())
	require.NoError(t, err)

	require.Equal(t, 2, dirFetcher.count())
	require.Equal(t, 2, remoteCalls)
}

func TestPruneDropsEntriesOlderThanStaleTTL(t *testing.T) {
	c := clock.NewFake(time.Unix(0, 0))
	registry := tasks.NewRegistry(0)
	fetcher := &countingFetcher{seq: [][]cloud.Entry{{}, {}}}
	cache := New(c, nil, nil, registry, fetcher.fetch, nil)
	path := mustPath(t, "rclone://drive/docs")

	_, err := cache.ListDir(context.Background(), path)
	require.NoError(t, err)

	cache.mu.Lock()
	_, exists := cache.dirs[path.String()]
	cache.mu.Unlock()
	require.True(t, exists)

	c.Advance(ListingStaleTTL + time.Minute)
	cache.mu.Lock()
	cache.pruneLocked()
	_, exists = cache.dirs[path.String()]
	cache.mu.Unlock()
	require.False(t, exists, "entries older than the stale TTL should be pruned")
}
