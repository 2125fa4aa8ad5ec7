// Package settings implements C19: typed get/set pairs over a
// handle.KvStore, with range validation that rejects an invalid value
// before it ever reaches storage, and the two cross-component side
// effects spec section 4.19 names explicitly: changing rclone_path
// invalidates the cloud caches, and changing log_level re-levels the
// runtime logger.
package settings

import (
	"strconv"
	"strings"

	"github.com/browsey/browsey-core/pkg/browseyerr"
	"github.com/browsey/browsey-core/pkg/cloudcache"
	"github.com/browsey/browsey-core/pkg/handle"
	"github.com/browsey/browsey-core/pkg/logging"
	"github.com/browsey/browsey-core/pkg/thumbnail"
)

// Key names the stored settings, per spec section 4.19.
type Key string

const (
	KeyRclonePath             Key = "rclone_path"
	KeyLogLevel               Key = "log_level"
	KeyThumbnailCacheMaxBytes Key = "thumbnail_cache_max_bytes"
	KeyThumbnailPoolThreads   Key = "thumbnail_pool_threads"
	KeyShowHiddenFiles        Key = "show_hidden_files"
)

// Pool thread count range for KeyThumbnailPoolThreads; the thumbnail
// pipeline itself only clamps the *derived* admission capacity
// (thumbnail.AdmissionCapacity), not the raw thread count a caller
// configures it with.
const (
	MinThumbnailPoolThreads = 1
	MaxThumbnailPoolThreads = 64
)

// DefaultLogLevel matches logging.RootLogger's initial level when no level
// has ever been explicitly set.
const DefaultLogLevel = logging.LevelInfo

// DefaultShowHiddenFiles is the fallback when the setting has never been
// written.
const DefaultShowHiddenFiles = false

// DefaultThumbnailPoolThreads is the fallback pool size when the setting
// has never been written.
const DefaultThumbnailPoolThreads = 4

// Settings is the typed settings facade. cache and log are optional: a nil
// cache skips the cache-invalidation side effect and a nil log skips the
// log-relevel side effect, so Settings can be exercised standalone in
// tests.
type Settings struct {
	store handle.KvStore
	cache *cloudcache.Cache
	log   *logging.Logger
}

// New builds a Settings facade over store, applying rclone_path changes to
// cache's caches and log_level changes to log.
func New(store handle.KvStore, cache *cloudcache.Cache, log *logging.Logger) *Settings {
	return &Settings{store: store, cache: cache, log: log}
}

// RclonePath returns the configured backend binary path, or "" if unset.
func (s *Settings) RclonePath() (string, error) {
	raw, ok := s.store.Get(string(KeyRclonePath))
	if !ok {
		return "", nil
	}
	return raw, nil
}

// SetRclonePath validates that path is non-blank, persists it, and
// invalidates both cloud caches, per spec section 4.19.
func (s *Settings) SetRclonePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return browseyerr.New(browseyerr.InvalidInput, "rclone_path must not be empty")
	}
	if err := s.store.Set(string(KeyRclonePath), path); err != nil {
		return browseyerr.Wrap(browseyerr.DBWriteFailed, err, "failed to persist rclone_path")
	}
	if s.cache != nil {
		s.cache.InvalidateAll()
	}
	return nil
}

// LogLevel returns the configured runtime log level, defaulting to
// DefaultLogLevel if unset.
func (s *Settings) LogLevel() (logging.Level, error) {
	raw, ok := s.store.Get(string(KeyLogLevel))
	if !ok {
		return DefaultLogLevel, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, browseyerr.Wrap(browseyerr.ParseFailed, err, "corrupt log_level setting")
	}
	return logging.Level(n), nil
}

// SetLogLevel validates level is one of the defined logging.Level values,
// persists it, and applies it to the runtime log subscriber, per spec
// section 4.19.
func (s *Settings) SetLogLevel(level logging.Level) error {
	if level < logging.LevelError || level > logging.LevelTrace {
		return browseyerr.New(browseyerr.InvalidInput, "log_level out of range")
	}
	if err := s.store.Set(string(KeyLogLevel), strconv.Itoa(int(level))); err != nil {
		return browseyerr.Wrap(browseyerr.DBWriteFailed, err, "failed to persist log_level")
	}
	if s.log != nil {
		s.log.SetLevel(level)
	}
	return nil
}

// ThumbnailCacheMaxBytes returns the configured thumbnail cache byte
// budget, defaulting to thumbnail.DefaultMaxBytes if unset.
func (s *Settings) ThumbnailCacheMaxBytes() (int64, error) {
	raw, ok := s.store.Get(string(KeyThumbnailCacheMaxBytes))
	if !ok {
		return thumbnail.DefaultMaxBytes, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, browseyerr.Wrap(browseyerr.ParseFailed, err, "corrupt thumbnail_cache_max_bytes setting")
	}
	return n, nil
}

// SetThumbnailCacheMaxBytes validates value is within
// [thumbnail.MinMaxBytes, thumbnail.MaxMaxBytes] and persists it.
func (s *Settings) SetThumbnailCacheMaxBytes(value int64) error {
	if value < thumbnail.MinMaxBytes || value > thumbnail.MaxMaxBytes {
		return browseyerr.New(browseyerr.InvalidInput, "thumbnail_cache_max_bytes out of range")
	}
	if err := s.store.Set(string(KeyThumbnailCacheMaxBytes), strconv.FormatInt(value, 10)); err != nil {
		return browseyerr.Wrap(browseyerr.DBWriteFailed, err, "failed to persist thumbnail_cache_max_bytes")
	}
	return nil
}

// ThumbnailPoolThreads returns the configured thumbnail decode pool size,
// defaulting to DefaultThumbnailPoolThreads if unset.
func (s *Settings) ThumbnailPoolThreads() (int, error) {
	raw, ok := s.store.Get(string(KeyThumbnailPoolThreads))
	if !ok {
		return DefaultThumbnailPoolThreads, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, browseyerr.Wrap(browseyerr.ParseFailed, err, "corrupt thumbnail_pool_threads setting")
	}
	return n, nil
}

// SetThumbnailPoolThreads validates value is within
// [MinThumbnailPoolThreads, MaxThumbnailPoolThreads] and persists it.
func (s *Settings) SetThumbnailPoolThreads(value int) error {
	if value < MinThumbnailPoolThreads || value > MaxThumbnailPoolThreads {
		return browseyerr.New(browseyerr.InvalidInput, "thumbnail_pool_threads out of range")
	}
	if err := s.store.Set(string(KeyThumbnailPoolThreads), strconv.Itoa(value)); err != nil {
		return browseyerr.Wrap(browseyerr.DBWriteFailed, err, "failed to persist thumbnail_pool_threads")
	}
	return nil
}

// ShowHiddenFiles returns the configured hidden-file visibility toggle,
// defaulting to DefaultShowHiddenFiles if unset.
func (s *Settings) ShowHiddenFiles() (bool, error) {
	raw, ok := s.store.Get(string(KeyShowHiddenFiles))
	if !ok {
		return DefaultShowHiddenFiles, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, browseyerr.Wrap(browseyerr.ParseFailed, err, "corrupt show_hidden_files setting")
	}
	return v, nil
}

// SetShowHiddenFiles persists show. There is no invalid range for a
// boolean setting, so every call reaches storage.
func (s *Settings) SetShowHiddenFiles(show bool) error {
	if err := s.store.Set(string(KeyShowHiddenFiles), strconv.FormatBool(show)); err != nil {
		return browseyerr.Wrap(browseyerr.DBWriteFailed, err, "failed to persist show_hidden_files")
	}
	return nil
}
