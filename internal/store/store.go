// To handle all storage interactions. This is our data access layer: it owns
// the logical key layout and the JSON encoding of every persisted record.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vrsandeep/vnshelf/internal/kv"
)

// ErrNotFound is returned when a requested entry does not exist.
var ErrNotFound = errors.New("not found")

const (
	settingsKey    = "settings"
	listKey        = "catalog:list"
	entryKeyPrefix = "catalog:entry:"
	indexStatusKey = "index:status"
)

// EntryKey returns the storage key of one entry.
func EntryKey(id string) string {
	return entryKeyPrefix + id
}

// SingletonKeys returns the keys rewritten by every job and mutation. They
// must not be served from a cache.
func SingletonKeys() []string {
	return []string{settingsKey, listKey, indexStatusKey}
}

// Store provides all functions to read and write catalog records.
type Store struct {
	kv kv.Store
}

// New creates a new Store instance.
func New(backend kv.Store) *Store {
	return &Store{kv: backend}
}

// getJSON decodes the value at key into v. It returns false when the key is missing.
func (s *Store) getJSON(ctx context.Context, key string, v any) (bool, error) {
	raw, err := s.kv.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) putJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.kv.Put(ctx, key, raw)
}
