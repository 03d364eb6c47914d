// Package storage persists job history: one record per end-to-end run,
// with the final report and artifact paths.
package storage

import (
	"context"
	"time"
)

// Job statuses.
const (
	StatusCompleted = "completed"
	StatusRejected  = "rejected"
	StatusFailed    = "failed"
)

// JobRecord is one persisted job run.
type JobRecord struct {
	ID            string
	Request       string
	Status        string
	Report        string
	ArtifactPaths []string
	FirstGo       int
	RevisedGo     int
	Warnings      int
	CreatedAt     time.Time
}

// JobStore persists and lists job records.
type JobStore interface {
	// Save inserts a job record. Records are immutable once written.
	Save(ctx context.Context, rec JobRecord) error

	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]JobRecord, error)

	// Close releases underlying resources.
	Close() error
}
