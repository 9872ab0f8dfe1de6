package workflow

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braid-run/braid/pkg/models"
	"github.com/braid-run/braid/pkg/persistence"
	"github.com/braid-run/braid/pkg/persistence/memory"
	"github.com/braid-run/braid/pkg/registry"
)

func newTestOrchestrator(t *testing.T) (*Orchestrator, *memory.Persistence) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := memory.NewPersistence()

	reg := registry.NewRegistry(logger)
	registry.RegisterDefaultExecutors(reg)

	return NewOrchestrator(logger, store, reg, nil, nil), store
}

func saveWorkflow(t *testing.T, store *memory.Persistence, wf *models.Workflow) {
	t.Helper()

	wf.Name = "test workflow"
	wf.OwnerID = "user-1"

	if wf.Status == "" {
		wf.Status = models.WorkflowStatusPublished
	}

	require.NoError(t, store.SaveWorkflow(context.Background(), wf))
}

func stepsByNode(t *testing.T, store *memory.Persistence, executionID string) map[string]*models.ExecutionStep {
	t.Helper()

	steps, err := store.ExecutionSteps(context.Background(), executionID)
	require.NoError(t, err)

	byNode := make(map[string]*models.ExecutionStep, len(steps))
	for _, step := range steps {
		byNode[step.NodeID] = step
	}

	return byNode
}

func TestOrchestrator_LinearHTTPWorkflow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":"ok"}`))
	}))
	defer server.Close()

	orch, store := newTestOrchestrator(t)

	wf := &models.Workflow{
		ID: "wf-linear",
		Nodes: []*models.WorkflowNode{
			{ID: "start", Type: models.NodeTypeManualTrigger},
			{ID: "fetch", Type: models.NodeTypeHTTPRequest, Config: map[string]any{
				"url":      server.URL,
				"method":   "GET",
				"variable": "r",
			}},
			{ID: "assign", Type: models.NodeTypeSetVariable, Config: map[string]any{
				"name":  "out",
				"value": "{{r.data}}",
			}},
		},
		Connections: []*models.Connection{
			{ID: "c1", SourceNode: "start", TargetNode: "fetch"},
			{ID: "c2", SourceNode: "fetch", TargetNode: "assign"},
		},
	}
	saveWorkflow(t, store, wf)

	exec, err := orch.Execute(context.Background(), wf.ID, "user-1", models.TriggerTypeManual, nil)
	require.NoError(t, err)
	require.NotNil(t, exec)

	assert.Equal(t, models.ExecutionStatusCompleted, exec.Status)
	assert.Nil(t, exec.Error)
	require.NotNil(t, exec.CompletedAt)

	byNode := stepsByNode(t, store, exec.ID)
	require.Len(t, byNode, 3)

	for _, nodeID := range []string{"start", "fetch", "assign"} {
		step := byNode[nodeID]
		require.NotNil(t, step, "missing step for %s", nodeID)
		assert.Equal(t, models.StepStatusCompleted, step.Status)
		require.NotNil(t, step.CompletedAt)
	}

	assigned, ok := byNode["assign"].Output["variables"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ok", assigned["out"])
}

func TestOrchestrator_MissingTemplateBodyResolvesToNull(t *testing.T) {
	var received atomic.Value

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received.Store(string(body))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	orch, store := newTestOrchestrator(t)

	wf := &models.Workflow{
		ID: "wf-null-body",
		Nodes: []*models.WorkflowNode{
			{ID: "start", Type: models.NodeTypeManualTrigger},
			{ID: "post", Type: models.NodeTypeHTTPRequest, Config: map[string]any{
				"url":    server.URL,
				"method": "POST",
				"body":   "{{json missingVar}}",
			}},
		},
		Connections: []*models.Connection{
			{ID: "c1", SourceNode: "start", TargetNode: "post"},
		},
	}
	saveWorkflow(t, store, wf)

	exec, err := orch.Execute(context.Background(), wf.ID, "user-1", models.TriggerTypeManual, nil)
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusCompleted, exec.Status)
	assert.Equal(t, "null", received.Load())
}

func TestOrchestrator_BranchGating(t *testing.T) {
	orch, store := newTestOrchestrator(t)

	wf := &models.Workflow{
		ID: "wf-branch",
		Nodes: []*models.WorkflowNode{
			{ID: "start", Type: models.NodeTypeManualTrigger},
			{ID: "check", Type: models.NodeTypeIfCondition, Config: map[string]any{
				"conditions": []any{
					map[string]any{"fieldPath": "$.status", "operator": "equals", "value": "active"},
				},
			}},
			{ID: "on-true", Type: models.NodeTypeSetVariable, Config: map[string]any{
				"name": "taken", "value": "yes",
			}},
			{ID: "on-false", Type: models.NodeTypeSetVariable, Config: map[string]any{
				"name": "taken", "value": "no",
			}},
		},
		Connections: []*models.Connection{
			{ID: "c1", SourceNode: "start", TargetNode: "check"},
			{ID: "c2", SourceNode: "check", TargetNode: "on-true", SourceHandle: "true"},
			{ID: "c3", SourceNode: "check", TargetNode: "on-false", SourceHandle: "false"},
		},
	}
	saveWorkflow(t, store, wf)

	exec, err := orch.Execute(context.Background(), wf.ID, "user-1", models.TriggerTypeManual,
		map[string]any{"status": "active"})
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusCompleted, exec.Status)

	byNode := stepsByNode(t, store, exec.ID)
	require.Len(t, byNode, 4)

	assert.Equal(t, models.StepStatusCompleted, byNode["check"].Status)
	assert.Equal(t, models.StepStatusCompleted, byNode["on-true"].Status)
	assert.Equal(t, models.StepStatusSkipped, byNode["on-false"].Status)
}

func TestOrchestrator_MalformedBodyFailsBeforeRequest(t *testing.T) {
	var calls atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	orch, store := newTestOrchestrator(t)

	wf := &models.Workflow{
		ID: "wf-bad-body",
		Nodes: []*models.WorkflowNode{
			{ID: "start", Type: models.NodeTypeManualTrigger},
			{ID: "post", Type: models.NodeTypeHTTPRequest, Config: map[string]any{
				"url":    server.URL,
				"method": "POST",
				"body":   `{"name": {{missing}}}`,
			}},
			{ID: "after", Type: models.NodeTypeSetVariable, Config: map[string]any{
				"name": "never", "value": "reached",
			}},
		},
		Connections: []*models.Connection{
			{ID: "c1", SourceNode: "start", TargetNode: "post"},
			{ID: "c2", SourceNode: "post", TargetNode: "after"},
		},
	}
	saveWorkflow(t, store, wf)

	exec, err := orch.Execute(context.Background(), wf.ID, "user-1", models.TriggerTypeManual, nil)
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusFailed, exec.Status)
	require.NotNil(t, exec.Error)
	assert.Contains(t, *exec.Error, "httprequest node (post):")
	assert.Equal(t, int64(0), calls.Load(), "no HTTP call may be attempted")

	byNode := stepsByNode(t, store, exec.ID)
	require.Len(t, byNode, 2, "failure short-circuits remaining nodes")
	assert.Equal(t, models.StepStatusFailed, byNode["post"].Status)

	logs, err := store.ExecutionLogs(context.Background(), exec.ID)
	require.NoError(t, err)

	var sawError bool

	for _, line := range logs {
		if line.Level == models.LogLevelError && line.NodeID == "post" {
			sawError = true
		}
	}

	assert.True(t, sawError, "node failure must leave an error log line")
}

func TestOrchestrator_CycleFailsWithoutSteps(t *testing.T) {
	orch, store := newTestOrchestrator(t)

	wf := &models.Workflow{
		ID: "wf-cycle",
		Nodes: []*models.WorkflowNode{
			{ID: "a", Type: models.NodeTypeSetVariable, Config: map[string]any{"name": "x", "value": "1"}},
			{ID: "b", Type: models.NodeTypeSetVariable, Config: map[string]any{"name": "y", "value": "2"}},
		},
		Connections: []*models.Connection{
			{ID: "c1", SourceNode: "a", TargetNode: "b"},
			{ID: "c2", SourceNode: "b", TargetNode: "a"},
		},
	}
	saveWorkflow(t, store, wf)

	exec, err := orch.Execute(context.Background(), wf.ID, "user-1", models.TriggerTypeManual, nil)
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusFailed, exec.Status)
	require.NotNil(t, exec.Error)
	assert.Contains(t, *exec.Error, "cycle")

	steps, err := store.ExecutionSteps(context.Background(), exec.ID)
	require.NoError(t, err)
	assert.Empty(t, steps)
}

func TestOrchestrator_UnpublishedWorkflowRejected(t *testing.T) {
	orch, store := newTestOrchestrator(t)

	wf := &models.Workflow{
		ID:     "wf-draft",
		Status: models.WorkflowStatusDraft,
		Nodes: []*models.WorkflowNode{
			{ID: "start", Type: models.NodeTypeManualTrigger},
		},
	}
	saveWorkflow(t, store, wf)

	_, err := orch.Execute(context.Background(), wf.ID, "user-1", models.TriggerTypeManual, nil)
	require.ErrorIs(t, err, persistence.ErrWorkflowNotPublished)
}

func TestOrchestrator_UnknownWorkflow(t *testing.T) {
	orch, _ := newTestOrchestrator(t)

	_, err := orch.Execute(context.Background(), "missing", "user-1", models.TriggerTypeManual, nil)
	require.ErrorIs(t, err, persistence.ErrWorkflowNotFound)
}
