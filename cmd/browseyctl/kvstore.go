package main

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/browsey/browsey-core/pkg/browseyerr"
)

// fileKvStore is browseyctl's own handle.KvStore implementation: a single
// JSON object file, rewritten whole on every Set/Delete. handle.KvStore is
// documented as an external collaborator the outer shell supplies — the
// desktop application would back it with its own settings store, so the
// CLI provides the simplest thing that works rather than pulling in a
// database engine no wired dependency offers for this module.
type fileKvStore struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

func newFileKvStore(path string) (*fileKvStore, error) {
	store := &fileKvStore{path: path, values: map[string]string{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return store, nil
		}
		return nil, browseyerr.Wrap(browseyerr.DBOpenFailed, err, "failed to open settings store")
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &store.values); err != nil {
			return nil, browseyerr.Wrap(browseyerr.DBOpenFailed, err, "failed to parse settings store")
		}
	}
	return store, nil
}

func (s *fileKvStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[key]
	return value, ok
}

func (s *fileKvStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return s.persistLocked()
}

func (s *fileKvStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return s.persistLocked()
}

func (s *fileKvStore) persistLocked() error {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return browseyerr.Wrap(browseyerr.SerializeFailed, err, "failed to encode settings store")
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return browseyerr.Wrap(browseyerr.DBWriteFailed, err, "failed to write settings store")
	}
	return nil
}
