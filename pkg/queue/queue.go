// Package queue provides the execution job queue: asynchronous triggers
// enqueue jobs and the dispatcher claims them exactly once.
package queue

import (
	"context"
	"errors"

	"github.com/braid-run/braid/pkg/models"
)

// ErrJobNotFound indicates a job was not found by the given identifier.
var ErrJobNotFound = errors.New("job not found")

// Queue is the job queue contract. Dequeue claims are atomic: two concurrent
// dequeues never return the same job.
type Queue interface {
	// Enqueue stores a new pending job.
	Enqueue(ctx context.Context, job *models.ExecutionJob) error

	// Dequeue atomically claims the oldest eligible pending job and marks
	// it processing. It returns (nil, nil) when no job is ready.
	Dequeue(ctx context.Context) (*models.ExecutionJob, error)

	// MarkCompleted seals a claimed job as done.
	MarkCompleted(ctx context.Context, jobID string) error

	// MarkFailed seals a claimed job with its failure message.
	MarkFailed(ctx context.Context, jobID string, message string) error

	// PendingCount reports how many jobs are waiting, including delayed
	// jobs not yet eligible.
	PendingCount(ctx context.Context) (int64, error)

	Close() error
}
