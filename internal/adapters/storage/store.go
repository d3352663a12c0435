// Package storage persists small JSON-encoded settings (credential, model choice)
// behind a key-value Store. MemoryStore lives here; redis.Client is the
// durable implementation.
package storage

import (
	"context"
	"encoding/json"
	"sync"

	"halomind/internal/adapters/redis"
	"halomind/pkg/errors"
)

// Store is a best-effort JSON key-value store
type Store interface {
	// Get decodes the value at key into dest, returning errors.ErrNotFound when absent
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Health(ctx context.Context) error
}

// MemoryStore keeps JSON-encoded values in process memory
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, key string, dest interface{}) error {
	s.mu.RLock()
	raw, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return errors.ErrNotFound
	}
	return json.Unmarshal(raw, dest)
}

func (s *MemoryStore) Set(_ context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "encode %s", key)
	}
	s.mu.Lock()
	s.data[key] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	for _, k := range keys {
		delete(s.data, k)
	}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Health(context.Context) error { return nil }

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*redis.Client)(nil)
)
