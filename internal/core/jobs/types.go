// Package jobs is a bounded in-memory worker pool. Extraction work runs
// here so the event-handling path never blocks on OCR; there is no
// cross-process queue and no persistence, jobs die with the process.
package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Job is one unit of background work.
type Job struct {
	ID         uuid.UUID
	Type       string
	UserID     int64
	EnqueuedAt time.Time
}

// Handler executes jobs of one type.
type Handler interface {
	Handle(ctx context.Context, job *Job) error
	Type() string
}

// Config tunes the worker pool.
type Config struct {
	// Concurrency is the number of worker goroutines.
	Concurrency int

	// QueueSize bounds the pending-job buffer; Enqueue fails fast when
	// it is full instead of blocking intake.
	QueueSize int

	// Timeout caps a single job's execution.
	Timeout time.Duration
}

// DefaultConfig returns the default pool configuration.
func DefaultConfig() Config {
	return Config{
		Concurrency: 4,
		QueueSize:   64,
		Timeout:     5 * time.Minute,
	}
}
