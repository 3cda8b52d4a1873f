// Package indexer runs the batch job that refreshes the VNDB metadata of
// every catalog entry through the task queue.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vrsandeep/vnshelf/internal/catalog"
	"github.com/vrsandeep/vnshelf/internal/models"
	"github.com/vrsandeep/vnshelf/internal/queue"
	"github.com/vrsandeep/vnshelf/internal/store"
)

const (
	DefaultMaxRetries      = 3
	DefaultRetryDelay      = 60 * time.Second
	DefaultRebuildAttempts = 3
)

// Enqueuer is the producing side of the task queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, task queue.Task, delay time.Duration) error
}

// Rebuilder recomputes the list once a job completes.
type Rebuilder interface {
	RebuildFull(ctx context.Context, extraIDs ...string) (*models.Aggregate, error)
}

type Config struct {
	MaxRetries      int
	RetryDelay      time.Duration
	RebuildAttempts int
}

// Orchestrator starts index jobs and consumes their tasks. Every status
// change goes through mu, so processed counts each id of a job once.
type Orchestrator struct {
	st      *store.Store
	queue   Enqueuer
	fetcher catalog.MetadataFetcher
	agg     Rebuilder
	cfg     Config

	mu         sync.Mutex
	onProgress func(models.ProgressUpdate)
}

func New(st *store.Store, q Enqueuer, fetcher catalog.MetadataFetcher, agg Rebuilder, cfg Config) *Orchestrator {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.RebuildAttempts <= 0 {
		cfg.RebuildAttempts = DefaultRebuildAttempts
	}
	return &Orchestrator{st: st, queue: q, fetcher: fetcher, agg: agg, cfg: cfg}
}

// OnProgress registers a callback invoked after every status change.
func (o *Orchestrator) OnProgress(fn func(models.ProgressUpdate)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onProgress = fn
}

// Status returns the persisted status of the last job.
func (o *Orchestrator) Status(ctx context.Context) (*models.IndexStatus, error) {
	return o.st.GetIndexStatus(ctx)
}

// Start snapshots the ids of the catalog and enqueues one task per id.
func (o *Orchestrator) Start(ctx context.Context) (*models.IndexStatus, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	current, err := o.st.GetIndexStatus(ctx)
	if err != nil {
		return nil, err
	}
	if current.Status == models.IndexStatusRunning {
		return nil, ErrAlreadyRunning
	}

	list, err := o.st.GetList(ctx)
	if err != nil {
		return nil, err
	}
	ids := uniqueIDs(list.IDs())
	if len(ids) == 0 {
		return nil, ErrEmptyCatalog
	}

	now := time.Now().UTC()
	status := &models.IndexStatus{
		Status:    models.IndexStatusRunning,
		JobID:     uuid.NewString(),
		Total:     len(ids),
		Failed:    []string{},
		Settled:   []string{},
		StartedAt: &now,
	}
	if err := o.st.SaveIndexStatus(ctx, status); err != nil {
		return nil, fmt.Errorf("save index status: %w", err)
	}

	for _, id := range ids {
		err := o.queue.Enqueue(ctx, queue.Task{JobID: status.JobID, EntryID: id}, 0)
		if err == nil {
			continue
		}
		// Leave the job in a state that does not block the next start.
		status.Status = models.IndexStatusFailed
		status.Error = err.Error()
		if saveErr := o.st.SaveIndexStatus(ctx, status); saveErr != nil {
			log.Printf("Error saving failed index status: %v", saveErr)
		}
		Jobs.WithLabelValues(models.IndexStatusFailed).Inc()
		o.notify(status, "", "Failed to queue index tasks: "+err.Error())
		return nil, fmt.Errorf("enqueue index task: %w", err)
	}

	log.Printf("Index job %s started for %d entries", status.JobID, status.Total)
	Jobs.WithLabelValues(models.IndexStatusRunning).Inc()
	o.notify(status, "", fmt.Sprintf("Index job started for %d entries", status.Total))
	return status, nil
}

// HandleTask refreshes the metadata of one entry. It is safe to call more
// than once for the same task. A returned error leaves the task for
// redelivery.
func (o *Orchestrator) HandleTask(ctx context.Context, task queue.Task) error {
	status, err := o.st.GetIndexStatus(ctx)
	if err != nil {
		return err
	}
	if status.JobID != task.JobID || status.Status != models.IndexStatusRunning || status.IsSettled(task.EntryID) {
		TaskOutcomes.WithLabelValues("ignored").Inc()
		return nil
	}

	start := time.Now()
	meta, fetchErr := o.fetcher.Fetch(ctx, task.EntryID)
	FetchDuration.Observe(time.Since(start).Seconds())

	if fetchErr != nil {
		if task.RetryCount < o.cfg.MaxRetries {
			retry := queue.Task{JobID: task.JobID, EntryID: task.EntryID, RetryCount: task.RetryCount + 1}
			if err := o.queue.Enqueue(ctx, retry, o.cfg.RetryDelay); err != nil {
				return fmt.Errorf("re-enqueue %s: %w", task.EntryID, err)
			}
			TaskOutcomes.WithLabelValues("retry").Inc()
			log.Printf("Refresh of %s failed (retry %d/%d in %s): %v",
				task.EntryID, retry.RetryCount, o.cfg.MaxRetries, o.cfg.RetryDelay, fetchErr)
			return nil
		}
		log.Printf("Refresh of %s failed permanently: %v", task.EntryID, fetchErr)
		return o.record(ctx, task, fetchErr)
	}

	entry, err := o.st.GetEntry(ctx, task.EntryID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		// Deleted since the job started; nothing to refresh.
	case err != nil:
		return err
	default:
		entry.VNDB = *meta
		if err := o.st.SaveEntry(ctx, entry); err != nil {
			return fmt.Errorf("save entry %s: %w", task.EntryID, err)
		}
	}
	return o.record(ctx, task, nil)
}

// record counts a terminal outcome for the task's id and completes the job
// once every id has one.
func (o *Orchestrator) record(ctx context.Context, task queue.Task, failure error) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	status, err := o.st.GetIndexStatus(ctx)
	if err != nil {
		return err
	}
	if status.JobID != task.JobID || status.Status != models.IndexStatusRunning || status.IsSettled(task.EntryID) {
		TaskOutcomes.WithLabelValues("ignored").Inc()
		return nil
	}

	status.Settled = append(status.Settled, task.EntryID)
	status.Processed++
	msg := "Refreshed " + task.EntryID
	if failure != nil {
		status.Failed = append(status.Failed, task.EntryID)
		msg = fmt.Sprintf("Failed to refresh %s: %v", task.EntryID, failure)
		TaskOutcomes.WithLabelValues("failed").Inc()
	} else {
		TaskOutcomes.WithLabelValues("ok").Inc()
	}

	completed := status.Processed >= status.Total
	if completed {
		now := time.Now().UTC()
		status.Status = models.IndexStatusCompleted
		status.CompletedAt = &now
	}
	if err := o.st.SaveIndexStatus(ctx, status); err != nil {
		return fmt.Errorf("save index status: %w", err)
	}
	o.notify(status, task.EntryID, msg)

	if completed {
		o.complete(ctx, status)
	}
	return nil
}

// complete runs once per job, right after the transition to completed.
func (o *Orchestrator) complete(ctx context.Context, status *models.IndexStatus) {
	Jobs.WithLabelValues(models.IndexStatusCompleted).Inc()
	log.Printf("Index job %s completed: %d processed, %d failed", status.JobID, status.Processed, len(status.Failed))

	if settings, err := o.st.GetSettings(ctx); err != nil {
		log.Printf("Error loading settings: %v", err)
	} else {
		settings.LastIndexTime = status.CompletedAt
		if err := o.st.SaveSettings(ctx, settings); err != nil {
			log.Printf("Error saving last index time: %v", err)
		}
	}

	var rebuildErr error
	for attempt := 1; attempt <= o.cfg.RebuildAttempts; attempt++ {
		if _, rebuildErr = o.agg.RebuildFull(ctx); rebuildErr == nil {
			break
		}
		log.Printf("List rebuild after index job failed (attempt %d/%d): %v", attempt, o.cfg.RebuildAttempts, rebuildErr)
	}
	if rebuildErr != nil {
		status.Error = "list rebuild failed: " + rebuildErr.Error()
		if err := o.st.SaveIndexStatus(ctx, status); err != nil {
			log.Printf("Error saving index status: %v", err)
		}
	}

	o.notify(status, "", fmt.Sprintf("Index job completed: %d refreshed, %d failed",
		status.Processed-len(status.Failed), len(status.Failed)))
}

func (o *Orchestrator) notify(status *models.IndexStatus, itemID, msg string) {
	if o.onProgress == nil {
		return
	}
	o.onProgress(models.ProgressUpdate{
		JobID:    status.JobID,
		Message:  msg,
		Progress: status.Progress(),
		ItemID:   itemID,
		Status:   status.Status,
		Done:     status.Status != models.IndexStatusRunning,
	})
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
