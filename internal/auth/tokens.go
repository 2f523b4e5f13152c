// Package auth gates entry to the console and manages the session token.
//
// The token lives in a TokenStore, an opaque key-value capability supplied
// by the environment. The Gate only checks that a token is present; it never
// parses it or checks expiry, so a stale token is admitted until the API
// rejects it.
package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// TokenKey is the fixed key the session token is stored under.
const TokenKey = "token"

// ErrNotFound is returned by TokenStore.Get for an absent key.
var ErrNotFound = errors.New("key not found")

// TokenStore is a key-value store for persisted client state.
type TokenStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// OpenTokenStore picks an implementation from location: a redis:// or
// rediss:// URL selects Redis, anything else is a file path (empty means
// DefaultStatePath).
func OpenTokenStore(location string) (TokenStore, error) {
	if strings.HasPrefix(location, "redis://") || strings.HasPrefix(location, "rediss://") {
		return NewRedisTokenStoreFromURL(location)
	}
	if location == "" {
		p, err := DefaultStatePath()
		if err != nil {
			return nil, err
		}
		location = p
	}
	return NewFileTokenStore(location), nil
}

// MemoryTokenStore keeps values in process memory.
type MemoryTokenStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryTokenStore returns an empty in-memory store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{values: map[string]string{}}
}

func (m *MemoryTokenStore) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryTokenStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryTokenStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
