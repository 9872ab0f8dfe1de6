package merge

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

func mergeNode(config map[string]any) *models.WorkflowNode {
	return &models.WorkflowNode{ID: "merge-1", Type: models.NodeTypeMerge, Config: config}
}

func TestExecutor_Append(t *testing.T) {
	execCtx := execution.NewContext("exec-1", "wf-1")
	execCtx.SetVariable("a", []any{"x", "y"}, "")
	execCtx.SetVariable("b", []any{"z"}, "")

	executor, err := NewExecutor(mergeNode(map[string]any{
		"sources":  []any{"{{a}}", "{{b}}"},
		"variable": "all",
	}), deps())
	require.NoError(t, err)

	result, err := executor.Execute(context.Background(), execCtx)
	require.NoError(t, err)
	require.True(t, result.Success)

	assert.Equal(t, []any{"x", "y", "z"}, result.Output["items"])
	assert.Equal(t, 3, result.Output["count"])

	stored, found := execCtx.GetVariable("all")
	require.True(t, found)
	assert.Equal(t, []any{"x", "y", "z"}, stored.Value)
}

func TestExecutor_Union(t *testing.T) {
	execCtx := execution.NewContext("exec-1", "wf-1")
	execCtx.SetVariable("a", []any{"x", "y"}, "")
	execCtx.SetVariable("b", []any{"y", "z"}, "")

	executor, err := NewExecutor(mergeNode(map[string]any{
		"sources":  []any{"{{a}}", "{{b}}"},
		"strategy": "union",
	}), deps())
	require.NoError(t, err)

	result, err := executor.Execute(context.Background(), execCtx)
	require.NoError(t, err)

	assert.Equal(t, []any{"x", "y", "z"}, result.Output["items"])
}

func TestExecutor_MergeByKey(t *testing.T) {
	execCtx := execution.NewContext("exec-1", "wf-1")
	execCtx.SetVariable("users", []any{
		map[string]any{"id": "u1", "name": "ada"},
		map[string]any{"id": "u2", "name": "bob"},
	}, "")
	execCtx.SetVariable("emails", []any{
		map[string]any{"id": "u1", "email": "ada@example.com"},
	}, "")

	executor, err := NewExecutor(mergeNode(map[string]any{
		"sources":  []any{"{{users}}", "{{emails}}"},
		"strategy": "merge_by_key",
		"key":      "id",
	}), deps())
	require.NoError(t, err)

	result, err := executor.Execute(context.Background(), execCtx)
	require.NoError(t, err)
	require.True(t, result.Success)

	items := result.Output["items"].([]any)
	require.Len(t, items, 2)

	first := items[0].(map[string]any)
	assert.Equal(t, "ada", first["name"])
	assert.Equal(t, "ada@example.com", first["email"])
}

func TestExecutor_MergeByKeyDoesNotMutateSource(t *testing.T) {
	execCtx := execution.NewContext("exec-1", "wf-1")

	source := []any{map[string]any{"id": "u1", "name": "ada"}}
	execCtx.SetVariable("a", source, "")
	execCtx.SetVariable("b", []any{map[string]any{"id": "u1", "email": "x@example.com"}}, "")

	executor, err := NewExecutor(mergeNode(map[string]any{
		"sources":  []any{"{{a}}", "{{b}}"},
		"strategy": "merge_by_key",
		"key":      "id",
	}), deps())
	require.NoError(t, err)

	_, err = executor.Execute(context.Background(), execCtx)
	require.NoError(t, err)

	original := source[0].(map[string]any)
	_, mutated := original["email"]
	assert.False(t, mutated)
}

func TestNewExecutor_Validation(t *testing.T) {
	_, err := NewExecutor(mergeNode(map[string]any{"sources": []any{"{{a}}"}}), deps())
	require.Error(t, err)

	_, err = NewExecutor(mergeNode(map[string]any{
		"sources":  []any{"{{a}}", "{{b}}"},
		"strategy": "merge_by_key",
	}), deps())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key")

	_, err = NewExecutor(mergeNode(map[string]any{
		"sources":  []any{"{{a}}", "{{b}}"},
		"strategy": "zip",
	}), deps())
	require.Error(t, err)
}

func TestExecutor_SourceNotAList(t *testing.T) {
	execCtx := execution.NewContext("exec-1", "wf-1")
	execCtx.SetVariable("a", []any{"x"}, "")
	execCtx.SetVariable("b", "scalar", "")

	executor, err := NewExecutor(mergeNode(map[string]any{
		"sources": []any{"{{a}}", "{{b}}"},
	}), deps())
	require.NoError(t, err)

	result, err := executor.Execute(context.Background(), execCtx)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "merge node (merge-1):")
}
