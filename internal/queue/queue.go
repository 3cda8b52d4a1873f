// Package queue is a durable delayed task queue on top of SQLite with
// lease-based at-least-once delivery.
package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Task asks for the metadata of one entry to be refreshed as part of a job.
type Task struct {
	ID         string `json:"id"`
	JobID      string `json:"jobId"`
	EntryID    string `json:"entryId"`
	RetryCount int    `json:"retryCount"`
}

// Queue is the contract consumed by producers and the worker pool.
type Queue interface {
	Enqueue(ctx context.Context, task Task, delay time.Duration) error
	// Claim leases the next available task, or returns nil when there is none.
	Claim(ctx context.Context, lease time.Duration) (*Task, error)
	Ack(ctx context.Context, id string) error
}

type SQLiteQueue struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLite(db *sql.DB) *SQLiteQueue {
	return &SQLiteQueue{db: db, now: time.Now}
}

// Enqueue stores task so that it becomes available after delay. A task
// without an id gets a fresh one.
func (q *SQLiteQueue) Enqueue(ctx context.Context, task Task, delay time.Duration) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	now := q.now()
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO index_tasks (id, job_id, entry_id, retry_count, available_at, leased_until, created_at)
		VALUES (?, ?, ?, ?, ?, NULL, ?)`,
		task.ID, task.JobID, task.EntryID, task.RetryCount, now.Add(delay).UnixMilli(), now.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("enqueue task for %s: %w", task.EntryID, err)
	}
	return nil
}

// Claim leases the oldest available task for the given duration. A task
// whose lease expired without an Ack becomes available again.
func (q *SQLiteQueue) Claim(ctx context.Context, lease time.Duration) (*Task, error) {
	now := q.now()
	row := q.db.QueryRowContext(ctx, `
		UPDATE index_tasks SET leased_until = ?
		WHERE id = (
			SELECT id FROM index_tasks
			WHERE available_at <= ? AND (leased_until IS NULL OR leased_until <= ?)
			ORDER BY available_at, created_at
			LIMIT 1
		)
		RETURNING id, job_id, entry_id, retry_count`,
		now.Add(lease).UnixMilli(), now.UnixMilli(), now.UnixMilli(),
	)

	var t Task
	if err := row.Scan(&t.ID, &t.JobID, &t.EntryID, &t.RetryCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("claim task: %w", err)
	}
	return &t, nil
}

// Ack removes a task for good.
func (q *SQLiteQueue) Ack(ctx context.Context, id string) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM index_tasks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("ack task %s: %w", id, err)
	}
	return nil
}

// Pending counts the tasks not yet acknowledged, leased or not.
func (q *SQLiteQueue) Pending(ctx context.Context) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM index_tasks`).Scan(&n)
	return n, err
}
