package dispatcher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braid-run/braid/pkg/models"
	"github.com/braid-run/braid/pkg/queue"
)

type fakeEngine struct {
	mu       sync.Mutex
	executed []string
	fail     map[string]error
}

func (e *fakeEngine) Execute(_ context.Context, workflowID, userID string, triggerType models.TriggerType, _ map[string]any) (*models.Execution, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.executed = append(e.executed, workflowID)

	if err, ok := e.fail[workflowID]; ok {
		return nil, err
	}

	return &models.Execution{
		ID:          "exec-" + workflowID,
		WorkflowID:  workflowID,
		UserID:      userID,
		Status:      models.ExecutionStatusCompleted,
		TriggeredBy: triggerType,
	}, nil
}

func (e *fakeEngine) executedWorkflows() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]string(nil), e.executed...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func enqueue(t *testing.T, q queue.Queue, workflowID string) *models.ExecutionJob {
	t.Helper()

	job := &models.ExecutionJob{
		WorkflowID:  workflowID,
		UserID:      "user-1",
		TriggerType: models.TriggerTypeWebhook,
	}
	require.NoError(t, q.Enqueue(context.Background(), job))

	return job
}

func TestDispatcher_DrainsQueueOnTick(t *testing.T) {
	q := queue.NewMemoryQueue()
	engine := &fakeEngine{}

	first := enqueue(t, q, "wf-1")
	second := enqueue(t, q, "wf-2")

	d := NewDispatcher(testLogger(), q, engine, 10*time.Millisecond)
	d.Start(context.Background())

	require.Eventually(t, func() bool {
		return len(engine.executedWorkflows()) == 2
	}, time.Second, 5*time.Millisecond)

	d.Stop()

	assert.Equal(t, []string{"wf-1", "wf-2"}, engine.executedWorkflows())
	assert.Equal(t, models.JobStatusCompleted, first.Status)
	assert.Equal(t, models.JobStatusCompleted, second.Status)
}

func TestDispatcher_MarksJobFailedOnEngineError(t *testing.T) {
	q := queue.NewMemoryQueue()
	engine := &fakeEngine{fail: map[string]error{
		"wf-broken": errors.New("workflow not found"),
	}}

	job := enqueue(t, q, "wf-broken")

	d := NewDispatcher(testLogger(), q, engine, 10*time.Millisecond)
	d.Start(context.Background())

	require.Eventually(t, func() bool {
		return len(engine.executedWorkflows()) == 1
	}, time.Second, 5*time.Millisecond)

	d.Stop()

	assert.Equal(t, models.JobStatusFailed, job.Status)
	require.NotNil(t, job.Error)
	assert.Equal(t, "workflow not found", *job.Error)
}

func TestDispatcher_PicksUpJobsEnqueuedAfterStart(t *testing.T) {
	q := queue.NewMemoryQueue()
	engine := &fakeEngine{}

	d := NewDispatcher(testLogger(), q, engine, 10*time.Millisecond)
	d.Start(context.Background())

	time.Sleep(20 * time.Millisecond)
	enqueue(t, q, "wf-late")

	require.Eventually(t, func() bool {
		return len(engine.executedWorkflows()) == 1
	}, time.Second, 5*time.Millisecond)

	d.Stop()
}

func TestDispatcher_StopBeforeFirstLongTick(t *testing.T) {
	q := queue.NewMemoryQueue()
	engine := &fakeEngine{}

	d := NewDispatcher(testLogger(), q, engine, time.Hour)
	d.Start(context.Background())
	d.Stop()

	assert.Empty(t, engine.executedWorkflows())
}
