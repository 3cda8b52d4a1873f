package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/vrsandeep/vnshelf/internal/models"
)

// FakeFetcher is an in-memory metadata fetcher. Ids listed in Failing fail
// on every call; unknown ids get generated metadata.
type FakeFetcher struct {
	mu       sync.Mutex
	Metadata map[string]*models.Metadata
	Failing  map[string]bool
	calls    map[string]int
}

func NewFakeFetcher() *FakeFetcher {
	return &FakeFetcher{
		Metadata: make(map[string]*models.Metadata),
		Failing:  make(map[string]bool),
		calls:    make(map[string]int),
	}
}

func (f *FakeFetcher) Fetch(ctx context.Context, id string) (*models.Metadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[id]++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.Failing[id] {
		return nil, fmt.Errorf("vndb unavailable for %s", id)
	}
	if m, ok := f.Metadata[id]; ok {
		cp := *m
		return &cp, nil
	}
	return &models.Metadata{
		Title:      "Title " + id,
		TitleJa:    "タイトル " + id,
		Rating:     7,
		Developers: []string{"Studio " + id},
		Tags:       []string{},
	}, nil
}

// Set registers the metadata returned for id.
func (f *FakeFetcher) Set(id string, m models.Metadata) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Metadata[id] = &m
}

// Fail makes every fetch of id fail, or succeed again with failing=false.
func (f *FakeFetcher) Fail(id string, failing bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Failing[id] = failing
}

// Calls returns how many times id was fetched.
func (f *FakeFetcher) Calls(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}
