package variable

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braid-run/braid/pkg/execution"
	"github.com/braid-run/braid/pkg/models"
	"github.com/braid-run/braid/pkg/protocol"
)

func deps() protocol.Dependencies {
	return protocol.Dependencies{Logger: slog.Default()}
}

func TestExecutor_SingleAssignment(t *testing.T) {
	execCtx := execution.NewContext("exec-1", "wf-1")
	execCtx.SetNodeOutput("http-1", map[string]any{"status_code": float64(200)})

	node := &models.WorkflowNode{ID: "set-1", Type: models.NodeTypeSetVariable, Config: map[string]any{
		"name":  "status",
		"value": "{{http-1.status_code}}",
	}}

	executor, err := NewExecutor(node, deps())
	require.NoError(t, err)

	result, err := executor.Execute(context.Background(), execCtx)
	require.NoError(t, err)
	require.True(t, result.Success)

	stored, found := execCtx.GetVariable("status")
	require.True(t, found)
	assert.Equal(t, float64(200), stored.Value)
}

func TestExecutor_MultipleAssignments(t *testing.T) {
	execCtx := execution.NewContext("exec-1", "wf-1")
	execCtx.SetVariable("env", "prod", "")

	node := &models.WorkflowNode{ID: "set-1", Type: models.NodeTypeSetVariable, Config: map[string]any{
		"variables": map[string]any{
			"greeting": "hello from {{env}}",
			"limit":    float64(10),
		},
	}}

	executor, err := NewExecutor(node, deps())
	require.NoError(t, err)

	result, err := executor.Execute(context.Background(), execCtx)
	require.NoError(t, err)
	require.True(t, result.Success)

	greeting, found := execCtx.GetVariable("greeting")
	require.True(t, found)
	assert.Equal(t, "hello from prod", greeting.Value)

	limit, found := execCtx.GetVariable("limit")
	require.True(t, found)
	assert.Equal(t, float64(10), limit.Value)
}

func TestNewExecutor_RequiresAssignment(t *testing.T) {
	_, err := NewExecutor(&models.WorkflowNode{
		ID: "set-1", Type: models.NodeTypeSetVariable, Config: map[string]any{},
	}, deps())
	require.Error(t, err)
}
