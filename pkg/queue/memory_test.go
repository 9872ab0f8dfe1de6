package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braid-run/braid/pkg/models"
)

func newJob(workflowID string) *models.ExecutionJob {
	return &models.ExecutionJob{
		WorkflowID:  workflowID,
		UserID:      "user-1",
		TriggerType: models.TriggerTypeWebhook,
	}
}

func TestMemoryQueue_EnqueueDequeueFIFO(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue()

	first := newJob("wf-1")
	second := newJob("wf-2")

	require.NoError(t, q.Enqueue(ctx, first))
	require.NoError(t, q.Enqueue(ctx, second))

	assert.NotEmpty(t, first.ID)
	assert.Equal(t, models.JobStatusPending, first.Status)

	count, err := q.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	job, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, "wf-1", job.WorkflowID)
	assert.Equal(t, models.JobStatusProcessing, job.Status)

	job, err = q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, "wf-2", job.WorkflowID)

	job, err = q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestMemoryQueue_ScheduledJobNotEligibleEarly(t *testing.T) {
	ctx := context.Background()

	current := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	q := NewMemoryQueue()
	q.now = func() time.Time { return current }

	job := newJob("wf-1")
	job.TriggerType = models.TriggerTypeSchedule
	runAt := current.Add(time.Hour)
	job.ScheduledAt = &runAt

	require.NoError(t, q.Enqueue(ctx, job))

	got, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	count, err := q.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	current = current.Add(2 * time.Hour)

	got, err = q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, job.ID, got.ID)
}

func TestMemoryQueue_DequeueOrdersByEligibilityTime(t *testing.T) {
	ctx := context.Background()

	current := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	q := NewMemoryQueue()
	q.now = func() time.Time { return current }

	immediate := newJob("wf-immediate")
	require.NoError(t, q.Enqueue(ctx, immediate))

	// Enqueued later, but its schedule time is already in the past, so it
	// became eligible before the immediate job was created.
	current = current.Add(time.Minute)

	delayed := newJob("wf-delayed")
	delayed.TriggerType = models.TriggerTypeSchedule
	runAt := current.Add(-30 * time.Minute)
	delayed.ScheduledAt = &runAt
	require.NoError(t, q.Enqueue(ctx, delayed))

	got, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "wf-delayed", got.WorkflowID)

	got, err = q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "wf-immediate", got.WorkflowID)
}

func TestMemoryQueue_MarkCompletedAndFailed(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue()

	completed := newJob("wf-1")
	failed := newJob("wf-2")

	require.NoError(t, q.Enqueue(ctx, completed))
	require.NoError(t, q.Enqueue(ctx, failed))

	for range 2 {
		_, err := q.Dequeue(ctx)
		require.NoError(t, err)
	}

	require.NoError(t, q.MarkCompleted(ctx, completed.ID))
	assert.Equal(t, models.JobStatusCompleted, completed.Status)
	assert.Nil(t, completed.Error)

	require.NoError(t, q.MarkFailed(ctx, failed.ID, "node exploded"))
	assert.Equal(t, models.JobStatusFailed, failed.Status)
	require.NotNil(t, failed.Error)
	assert.Equal(t, "node exploded", *failed.Error)
}

func TestMemoryQueue_MarkUnknownJob(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue()

	err := q.MarkCompleted(ctx, "missing")
	require.ErrorIs(t, err, ErrJobNotFound)

	err = q.MarkFailed(ctx, "missing", "boom")
	require.ErrorIs(t, err, ErrJobNotFound)
}

func TestMemoryQueue_ConcurrentDequeueClaimsOnce(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue()

	const jobCount = 50

	for range jobCount {
		require.NoError(t, q.Enqueue(ctx, newJob("wf-1")))
	}

	var (
		mu      sync.Mutex
		claimed = map[string]int{}
		wg      sync.WaitGroup
	)

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for {
				job, err := q.Dequeue(ctx)
				assert.NoError(t, err)

				if job == nil {
					return
				}

				mu.Lock()
				claimed[job.ID]++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	assert.Len(t, claimed, jobCount)

	for id, times := range claimed {
		assert.Equal(t, 1, times, "job %s claimed more than once", id)
	}
}
