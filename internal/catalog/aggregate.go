package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vrsandeep/vnshelf/internal/models"
	"github.com/vrsandeep/vnshelf/internal/store"
)

const defaultRebuildConcurrency = 8

// Aggregator maintains the materialized list view. Statistics are always
// recomputed from the entries themselves rather than adjusted incrementally.
type Aggregator struct {
	st          *store.Store
	concurrency int

	// mu makes the aggregator the single writer of the list within the process.
	mu sync.Mutex
}

// NewAggregator creates an Aggregator reading at most concurrency entries at once.
func NewAggregator(st *store.Store, concurrency int) *Aggregator {
	if concurrency <= 0 {
		concurrency = defaultRebuildConcurrency
	}
	return &Aggregator{st: st, concurrency: concurrency}
}

// RebuildFull recomputes the whole list from the entries referenced by the
// current list plus extraIDs. Ids whose entry no longer exists are dropped.
func (a *Aggregator) RebuildFull(ctx context.Context, extraIDs ...string) (*models.Aggregate, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	defer observe("full", time.Now())

	old, err := a.st.GetList(ctx)
	if err != nil {
		ListUpdates.WithLabelValues("full", "error").Inc()
		return nil, fmt.Errorf("load list: %w", err)
	}

	entries, err := a.loadEntries(ctx, append(old.IDs(), extraIDs...))
	if err != nil {
		ListUpdates.WithLabelValues("full", "error").Inc()
		return nil, err
	}

	list := &models.Aggregate{
		Items: make([]models.Summary, 0, len(entries)),
		Stats: ComputeStats(entries),
	}
	for _, e := range entries {
		list.Items = append(list.Items, e.Summary())
	}

	if err := a.st.SaveList(ctx, list); err != nil {
		ListUpdates.WithLabelValues("full", "error").Inc()
		return nil, fmt.Errorf("save list: %w", err)
	}
	ListUpdates.WithLabelValues("full", "ok").Inc()
	Entries.Set(float64(list.Stats.Total))
	return list, nil
}

// UpsertOne replaces or appends the projection of entry, then recomputes stats.
func (a *Aggregator) UpsertOne(ctx context.Context, entry *models.Entry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	defer observe("upsert", time.Now())

	list, err := a.st.GetList(ctx)
	if err != nil {
		ListUpdates.WithLabelValues("upsert", "error").Inc()
		return fmt.Errorf("load list: %w", err)
	}

	summary := entry.Summary()
	replaced := false
	for i := range list.Items {
		if list.Items[i].ID == entry.ID {
			list.Items[i] = summary
			replaced = true
			break
		}
	}
	if !replaced {
		list.Items = append(list.Items, summary)
	}

	return a.saveWithStats(ctx, "upsert", list)
}

// RemoveOne drops the projection with the given id, then recomputes stats.
func (a *Aggregator) RemoveOne(ctx context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	defer observe("remove", time.Now())

	list, err := a.st.GetList(ctx)
	if err != nil {
		ListUpdates.WithLabelValues("remove", "error").Inc()
		return fmt.Errorf("load list: %w", err)
	}

	items := list.Items[:0]
	for _, item := range list.Items {
		if item.ID != id {
			items = append(items, item)
		}
	}
	list.Items = items

	return a.saveWithStats(ctx, "remove", list)
}

// saveWithStats re-reads every entry referenced by list to recompute its stats.
func (a *Aggregator) saveWithStats(ctx context.Context, kind string, list *models.Aggregate) error {
	entries, err := a.loadEntries(ctx, list.IDs())
	if err != nil {
		ListUpdates.WithLabelValues(kind, "error").Inc()
		return err
	}
	list.Stats = ComputeStats(entries)

	if err := a.st.SaveList(ctx, list); err != nil {
		ListUpdates.WithLabelValues(kind, "error").Inc()
		return fmt.Errorf("save list: %w", err)
	}
	ListUpdates.WithLabelValues(kind, "ok").Inc()
	Entries.Set(float64(len(list.Items)))
	return nil
}

// loadEntries fetches the entries for ids, keeping their order. Duplicate ids
// are read once and missing entries are skipped.
func (a *Aggregator) loadEntries(ctx context.Context, ids []string) ([]*models.Entry, error) {
	ids = dedupe(ids)
	results := make([]*models.Entry, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			entry, err := a.st.GetEntry(gctx, id)
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("load entry %s: %w", id, err)
			}
			results[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	entries := make([]*models.Entry, 0, len(results))
	for _, e := range results {
		if e != nil {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// ComputeStats derives the list statistics. Entries without a personal
// rating (0) are left out of the personal average entirely.
func ComputeStats(entries []*models.Entry) models.Stats {
	stats := models.Stats{Total: len(entries)}
	if len(entries) == 0 {
		return stats
	}

	var ratingSum, personalSum float64
	var personalCount int
	for _, e := range entries {
		stats.TotalPlayTimeMinutes += e.User.PlayTimeMinutes
		ratingSum += e.VNDB.Rating
		if e.User.PersonalRating > 0 {
			personalSum += e.User.PersonalRating
			personalCount++
		}
	}

	stats.AvgRating = ratingSum / float64(len(entries))
	if personalCount > 0 {
		stats.AvgPersonalRating = personalSum / float64(personalCount)
	}
	return stats
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func observe(kind string, start time.Time) {
	ListUpdateDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}
