package kv

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedStore is a write-through LRU cache in front of another Store.
// Rebuilds read every entry on each mutation, so hot keys are served from memory.
// It assumes it is the only writer of inner; keys listed as uncached always
// go to inner.
type CachedStore struct {
	inner    Store
	cache    *lru.Cache[string, []byte]
	uncached map[string]bool

	// mu orders miss-fills against writes so a fill never stores a value
	// older than a concurrent Put or Delete.
	mu sync.Mutex
}

// NewCached wraps inner with a cache holding up to size keys.
// A size of zero or less disables caching and returns inner unchanged.
func NewCached(inner Store, size int, uncached ...string) (Store, error) {
	if size <= 0 {
		return inner, nil
	}
	cache, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	s := &CachedStore{inner: inner, cache: cache, uncached: make(map[string]bool, len(uncached))}
	for _, key := range uncached {
		s.uncached[key] = true
	}
	return s, nil
}

func (s *CachedStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.uncached[key] {
		return s.inner.Get(ctx, key)
	}
	if value, ok := s.cache.Get(key); ok {
		return clone(value), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// A write may have filled the key while we waited.
	if value, ok := s.cache.Get(key); ok {
		return clone(value), nil
	}
	value, err := s.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, clone(value))
	return value, nil
}

func (s *CachedStore) Put(ctx context.Context, key string, value []byte) error {
	if s.uncached[key] {
		return s.inner.Put(ctx, key, value)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.inner.Put(ctx, key, value); err != nil {
		s.cache.Remove(key)
		return err
	}
	s.cache.Add(key, clone(value))
	return nil
}

func (s *CachedStore) Delete(ctx context.Context, key string) error {
	if s.uncached[key] {
		return s.inner.Delete(ctx, key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Remove(key)
	return s.inner.Delete(ctx, key)
}

func (s *CachedStore) Close() error {
	s.cache.Purge()
	return s.inner.Close()
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
