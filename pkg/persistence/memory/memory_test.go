package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braid-run/braid/pkg/models"
	"github.com/braid-run/braid/pkg/persistence"
)

func TestPersistence_WorkflowLifecycle(t *testing.T) {
	p := NewPersistence()
	ctx := context.Background()

	workflow := &models.Workflow{
		ID:        "wf-1",
		Name:      "Order sync",
		Status:    models.WorkflowStatusPublished,
		OwnerID:   "user-1",
		CreatedAt: time.Now().UTC(),
	}

	require.NoError(t, p.SaveWorkflow(ctx, workflow))

	loaded, err := p.WorkflowByID(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "Order sync", loaded.Name)

	require.NoError(t, p.DeleteWorkflow(ctx, "wf-1"))

	_, err = p.WorkflowByID(ctx, "wf-1")
	require.ErrorIs(t, err, persistence.ErrWorkflowNotFound)

	workflows, err := p.Workflows(ctx)
	require.NoError(t, err)
	assert.Empty(t, workflows)
}

func TestPersistence_PublishedWorkflows(t *testing.T) {
	p := NewPersistence()
	ctx := context.Background()

	require.NoError(t, p.SaveWorkflow(ctx, &models.Workflow{
		ID: "wf-1", Name: "draft one", Status: models.WorkflowStatusDraft,
		CreatedAt: time.Now().UTC(),
	}))
	require.NoError(t, p.SaveWorkflow(ctx, &models.Workflow{
		ID: "wf-2", Name: "live one", Status: models.WorkflowStatusPublished,
		CreatedAt: time.Now().UTC(),
	}))

	published, err := p.PublishedWorkflows(ctx)
	require.NoError(t, err)
	require.Len(t, published, 1)
	assert.Equal(t, "wf-2", published[0].ID)
}

func TestPersistence_ExecutionHistory(t *testing.T) {
	p := NewPersistence()
	ctx := context.Background()

	base := time.Now().UTC()

	for i, id := range []string{"exec-1", "exec-2", "exec-3"} {
		require.NoError(t, p.SaveExecution(ctx, &models.Execution{
			ID:         id,
			WorkflowID: "wf-1",
			UserID:     "user-1",
			Status:     models.ExecutionStatusCompleted,
			StartedAt:  base.Add(time.Duration(i) * time.Minute),
		}))
	}

	executions, err := p.ExecutionsByWorkflow(ctx, "wf-1", 2)
	require.NoError(t, err)
	require.Len(t, executions, 2)

	// Most recent first.
	assert.Equal(t, "exec-3", executions[0].ID)
	assert.Equal(t, "exec-2", executions[1].ID)

	_, err = p.ExecutionByID(ctx, "missing")
	require.ErrorIs(t, err, persistence.ErrExecutionNotFound)
}

func TestPersistence_StepUpsert(t *testing.T) {
	p := NewPersistence()
	ctx := context.Background()

	step := &models.ExecutionStep{
		ID:          "step-1",
		ExecutionID: "exec-1",
		NodeID:      "node-1",
		Status:      models.StepStatusRunning,
		StartedAt:   time.Now().UTC(),
	}

	require.NoError(t, p.SaveExecutionStep(ctx, step))

	completed := time.Now().UTC()
	step.Status = models.StepStatusCompleted
	step.CompletedAt = &completed

	require.NoError(t, p.SaveExecutionStep(ctx, step))

	steps, err := p.ExecutionSteps(ctx, "exec-1")
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, models.StepStatusCompleted, steps[0].Status)
}

func TestPersistence_LogsAppendOnly(t *testing.T) {
	p := NewPersistence()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, p.AppendExecutionLog(ctx, &models.ExecutionLog{
			ID:          string(rune('a' + i)),
			ExecutionID: "exec-1",
			Level:       models.LogLevelInfo,
			Message:     "line",
			Timestamp:   time.Now().UTC(),
		}))
	}

	logs, err := p.ExecutionLogs(ctx, "exec-1")
	require.NoError(t, err)
	assert.Len(t, logs, 3)
}

func TestPersistence_CredentialMissingIsNilNil(t *testing.T) {
	p := NewPersistence()
	ctx := context.Background()

	credential, err := p.CredentialByID(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, credential)
}

func TestPersistence_CredentialsByOwner(t *testing.T) {
	p := NewPersistence()
	ctx := context.Background()

	require.NoError(t, p.SaveCredential(ctx, &models.Credential{
		ID: "cred-1", OwnerID: "user-1", CreatedAt: time.Now().UTC(),
	}))
	require.NoError(t, p.SaveCredential(ctx, &models.Credential{
		ID: "cred-2", OwnerID: "user-2", CreatedAt: time.Now().UTC(),
	}))

	credentials, err := p.CredentialsByOwner(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, credentials, 1)
	assert.Equal(t, "cred-1", credentials[0].ID)

	require.NoError(t, p.DeleteCredential(ctx, "cred-1"))

	credentials, err = p.CredentialsByOwner(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, credentials)
}
