package models

import (
	"slices"
	"time"
)

const (
	IndexStatusIdle      = "idle"
	IndexStatusRunning   = "running"
	IndexStatusCompleted = "completed"
	IndexStatusFailed    = "failed"
)

// IndexStatus tracks the batch metadata refresh job.
type IndexStatus struct {
	Status      string     `json:"status"`
	JobID       string     `json:"jobId,omitempty"`
	Total       int        `json:"total"`
	Processed   int        `json:"processed"`
	Failed      []string   `json:"failed"`
	Settled     []string   `json:"settled,omitempty"` // ids that reached a terminal outcome in this job
	StartedAt   *time.Time `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt"`
	Error       string     `json:"error,omitempty"`
}

// IsSettled reports whether the id already reached a terminal outcome.
func (s *IndexStatus) IsSettled(id string) bool {
	return slices.Contains(s.Settled, id)
}

// Progress returns the completed fraction in percent.
func (s *IndexStatus) Progress() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Processed) / float64(s.Total) * 100
}
