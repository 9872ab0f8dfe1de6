package code

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

func codeNode(config map[string]any) *models.WorkflowNode {
	return &models.WorkflowNode{ID: "code-1", Type: models.NodeTypeCodeExecute, Config: config}
}

func TestExecutor_AccessesVariablesAndOutputs(t *testing.T) {
	execCtx := execution.NewContext("exec-1", "wf-1")
	execCtx.SetVariable("base", float64(10), "")
	execCtx.SetNodeOutput("http-1", map[string]any{"status_code": float64(200)})

	executor, err := NewExecutor(codeNode(map[string]any{
		"script":   `vars.base + outputs["http-1"].status_code`,
		"variable": "total",
	}), deps())
	require.NoError(t, err)

	result, err := executor.Execute(context.Background(), execCtx)
	require.NoError(t, err)
	require.True(t, result.Success, result.Error)

	assert.Equal(t, float64(210), result.Output["result"])

	stored, found := execCtx.GetVariable("total")
	require.True(t, found)
	assert.Equal(t, float64(210), stored.Value)
}

func TestExecutor_TriggerAccess(t *testing.T) {
	execCtx := execution.NewContext("exec-1", "wf-1")
	execCtx.TriggerData = map[string]any{"count": float64(3)}

	executor, err := NewExecutor(codeNode(map[string]any{
		"script": "trigger.count * 2",
	}), deps())
	require.NoError(t, err)

	result, err := executor.Execute(context.Background(), execCtx)
	require.NoError(t, err)

	assert.Equal(t, float64(6), result.Output["result"])
}

func TestExecutor_ListOperations(t *testing.T) {
	execCtx := execution.NewContext("exec-1", "wf-1")
	execCtx.SetVariable("nums", []any{float64(1), float64(2), float64(3)}, "")

	executor, err := NewExecutor(codeNode(map[string]any{
		"script": "filter(vars.nums, # > 1)",
	}), deps())
	require.NoError(t, err)

	result, err := executor.Execute(context.Background(), execCtx)
	require.NoError(t, err)
	require.True(t, result.Success, result.Error)

	assert.Equal(t, []any{float64(2), float64(3)}, result.Output["result"])
}

func TestExecutor_CompileError(t *testing.T) {
	executor, err := NewExecutor(codeNode(map[string]any{
		"script": "1 +* 2",
	}), deps())
	require.NoError(t, err)

	result, err := executor.Execute(context.Background(), execution.NewContext("exec-1", "wf-1"))
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "code node (code-1):")
	assert.Contains(t, result.Error, "compile error")
}

func TestExecutor_UndefinedVariableIsNil(t *testing.T) {
	executor, err := NewExecutor(codeNode(map[string]any{
		"script": "vars.missing == nil",
	}), deps())
	require.NoError(t, err)

	result, err := executor.Execute(context.Background(), execution.NewContext("exec-1", "wf-1"))
	require.NoError(t, err)
	require.True(t, result.Success, result.Error)

	assert.Equal(t, true, result.Output["result"])
}

func TestNewExecutor_RequiresScript(t *testing.T) {
	_, err := NewExecutor(codeNode(map[string]any{}), deps())
	require.Error(t, err)
}
