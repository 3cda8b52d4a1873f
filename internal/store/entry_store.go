package store

import (
	"context"
	"time"

	"github.com/vrsandeep/vnshelf/internal/models"
)

// GetEntry retrieves a single entry by its VNDB id.
func (s *Store) GetEntry(ctx context.Context, id string) (*models.Entry, error) {
	var entry models.Entry
	found, err := s.getJSON(ctx, EntryKey(id), &entry)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return &entry, nil
}

// SaveEntry stamps UpdatedAt and overwrites the stored entry.
func (s *Store) SaveEntry(ctx context.Context, entry *models.Entry) error {
	entry.UpdatedAt = time.Now().UTC()
	return s.putJSON(ctx, EntryKey(entry.ID), entry)
}

// ImportEntry writes an entry exactly as given, keeping its timestamps.
// A zero UpdatedAt is filled in so every stored entry carries one.
func (s *Store) ImportEntry(ctx context.Context, entry *models.Entry) error {
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = time.Now().UTC()
	}
	return s.putJSON(ctx, EntryKey(entry.ID), entry)
}

// DeleteEntry removes an entry. Deleting a missing entry is not an error.
func (s *Store) DeleteEntry(ctx context.Context, id string) error {
	return s.kv.Delete(ctx, EntryKey(id))
}

// GetList returns the aggregated list, or an empty one if none was saved yet.
func (s *Store) GetList(ctx context.Context) (*models.Aggregate, error) {
	list := &models.Aggregate{}
	if _, err := s.getJSON(ctx, listKey, list); err != nil {
		return nil, err
	}
	if list.Items == nil {
		list.Items = []models.Summary{}
	}
	return list, nil
}

// SaveList stamps UpdatedAt and overwrites the aggregated list.
func (s *Store) SaveList(ctx context.Context, list *models.Aggregate) error {
	now := time.Now().UTC()
	list.UpdatedAt = &now
	return s.putJSON(ctx, listKey, list)
}
