package settings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/browsey/browsey-core/pkg/cloudcache"
	"github.com/browsey/browsey-core/pkg/clock"
	"github.com/browsey/browsey-core/pkg/logging"
	"github.com/browsey/browsey-core/pkg/tasks"
)

type memStore struct {
	values map[string]string
}

func newMemStore() *memStore {
	return &memStore{values: make(map[string]string)}
}

func (m *memStore) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *memStore) Set(key, value string) error {
	m.values[key] = value
	return nil
}

func (m *memStore) Delete(key string) error {
	delete(m.values, key)
	return nil
}

type noAdmission struct{}

func (noAdmission) TryEnterBackground() (*tasks.Permit, bool) { return nil, false }

func TestRclonePathDefaultsEmpty(t *testing.T) {
	s := New(newMemStore(), nil, nil)
	path, err := s.RclonePath()
	require.NoError(t, err)
	require.Equal(t, "", path)
}

func TestSetRclonePathRejectsBlank(t *testing.T) {
	store := newMemStore()
	s := New(store, nil, nil)
	err := s.SetRclonePath("   ")
	require.Error(t, err)
	_, ok := store.Get(string(KeyRclonePath))
	require.False(t, ok)
}

func TestSetRclonePathPersistsAndRoundTrips(t *testing.T) {
	s := New(newMemStore(), nil, nil)
	require.NoError(t, s.SetRclonePath("/usr/bin/rclone"))
	path, err := s.RclonePath()
	require.NoError(t, err)
	require.Equal(t, "/usr/bin/rclone", path)
}

func TestSetRclonePathInvalidatesCloudCaches(t *testing.T) {
	calls := 0
	cache := cloudcache.New(clock.NewFake(time.Now()), nil, nil, noAdmission{}, nil,
		func(ctx context.Context) ([]string, error) {
			calls++
			return []string{"remote"}, nil
		})
	_, err := cache.ListRemotes(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	// A second call within the TTL should hit the cache, not fetch again.
	_, err = cache.ListRemotes(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	s := New(newMemStore(), cache, nil)
	require.NoError(t, s.SetRclonePath("/opt/rclone"))

	_, err = cache.ListRemotes(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestLogLevelDefaultsToInfo(t *testing.T) {
	s := New(newMemStore(), nil, nil)
	level, err := s.LogLevel()
	require.NoError(t, err)
	require.Equal(t, logging.LevelInfo, level)
}

func TestSetLogLevelRejectsOutOfRange(t *testing.T) {
	store := newMemStore()
	s := New(store, nil, nil)
	err := s.SetLogLevel(logging.Level(99))
	require.Error(t, err)
	_, ok := store.Get(string(KeyLogLevel))
	require.False(t, ok)
}

func TestSetLogLevelAppliesToLogger(t *testing.T) {
	log := logging.RootLogger.Sublogger("test")
	s := New(newMemStore(), nil, log)
	require.NoError(t, s.SetLogLevel(logging.LevelDebug))

	level, err := s.LogLevel()
	require.NoError(t, err)
	require.Equal(t, logging.LevelDebug, level)
}

func TestThumbnailCacheMaxBytesRangeValidation(t *testing.T) {
	store := newMemStore()
	s := New(store, nil, nil)

	err := s.SetThumbnailCacheMaxBytes(1)
	require.Error(t, err)
	_, ok := store.Get(string(KeyThumbnailCacheMaxBytes))
	require.False(t, ok)

	require.NoError(t, s.SetThumbnailCacheMaxBytes(100*1024*1024))
	value, err := s.ThumbnailCacheMaxBytes()
	require.NoError(t, err)
	require.Equal(t, int64(100*1024*1024), value)
}

func TestThumbnailPoolThreadsRangeValidation(t *testing.T) {
	s := New(newMemStore(), nil, nil)

	require.Error(t, s.SetThumbnailPoolThreads(0))
	require.Error(t, s.SetThumbnailPoolThreads(1000))
	require.NoError(t, s.SetThumbnailPoolThreads(8))

	value, err := s.ThumbnailPoolThreads()
	require.NoError(t, err)
	require.Equal(t, 8, value)
}

func TestShowHiddenFilesRoundTrips(t *testing.T) {
	s := New(newMemStore(), nil, nil)

	show, err := s.ShowHiddenFiles()
	require.NoError(t, err)
	require.False(t, show)

	require.NoError(t, s.SetShowHiddenFiles(true))
	show, err = s.ShowHiddenFiles()
	require.NoError(t, err)
	require.True(t, show)
}
