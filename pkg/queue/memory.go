package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/braid-run/braid/pkg/models"
)

// MemoryQueue is an in-process queue for tests and development runs. The
// mutex makes every claim atomic.
type MemoryQueue struct {
	mu   sync.Mutex
	jobs []*models.ExecutionJob
	now  func() time.Time
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{now: time.Now}
}

var _ Queue = (*MemoryQueue)(nil)

func (q *MemoryQueue) Enqueue(_ context.Context, job *models.ExecutionJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if job.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate job ID: %w", err)
		}

		job.ID = id.String()
	}

	now := q.now().UTC()

	job.Status = models.JobStatusPending
	job.CreatedAt = now
	job.UpdatedAt = now

	q.jobs = append(q.jobs, job)

	return nil
}

func (q *MemoryQueue) Dequeue(_ context.Context) (*models.ExecutionJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now().UTC()

	// Claim the job that became eligible first; ties go to the older job.
	var next *models.ExecutionJob

	for _, job := range q.jobs {
		if !job.Eligible(now) {
			continue
		}

		if next == nil || eligibleAt(job).Before(eligibleAt(next)) ||
			(eligibleAt(job).Equal(eligibleAt(next)) && job.CreatedAt.Before(next.CreatedAt)) {
			next = job
		}
	}

	if next == nil {
		return nil, nil
	}

	next.Status = models.JobStatusProcessing
	next.UpdatedAt = now

	return next, nil
}

func eligibleAt(job *models.ExecutionJob) time.Time {
	if job.ScheduledAt != nil {
		return *job.ScheduledAt
	}

	return job.CreatedAt
}

func (q *MemoryQueue) MarkCompleted(_ context.Context, jobID string) error {
	return q.seal(jobID, models.JobStatusCompleted, nil)
}

func (q *MemoryQueue) MarkFailed(_ context.Context, jobID string, message string) error {
	return q.seal(jobID, models.JobStatusFailed, &message)
}

func (q *MemoryQueue) seal(jobID string, status models.JobStatus, message *string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, job := range q.jobs {
		if job.ID == jobID {
			job.Status = status
			job.Error = message
			job.UpdatedAt = q.now().UTC()

			return nil
		}
	}

	return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
}

func (q *MemoryQueue) PendingCount(_ context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var count int64

	for _, job := range q.jobs {
		if job.Status == models.JobStatusPending {
			count++
		}
	}

	return count, nil
}

func (q *MemoryQueue) Close() error { return nil }
