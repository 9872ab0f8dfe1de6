package jsonops

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

func jsonNode(config map[string]any) *models.WorkflowNode {
	return &models.WorkflowNode{ID: "json-1", Type: models.NodeTypeJSONTransform, Config: config}
}

func run(t *testing.T, execCtx *execution.Context, config map[string]any) *models.ExecutorResult {
	t.Helper()

	executor, err := NewExecutor(jsonNode(config), deps())
	require.NoError(t, err)

	result, err := executor.Execute(context.Background(), execCtx)
	require.NoError(t, err)

	return result
}

func TestExecutor_Parse(t *testing.T) {
	execCtx := execution.NewContext("exec-1", "wf-1")
	execCtx.SetVariable("raw", `{"name":"ada","tags":["a","b"]}`, "")

	result := run(t, execCtx, map[string]any{
		"operation": "parse",
		"input":     "{{raw}}",
		"variable":  "parsed",
	})
	require.True(t, result.Success, result.Error)

	parsed, ok := result.Output["result"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ada", parsed["name"])

	stored, found := execCtx.GetVariable("parsed")
	require.True(t, found)
	assert.NotNil(t, stored.Value)
}

func TestExecutor_ParseInvalidJSON(t *testing.T) {
	execCtx := execution.NewContext("exec-1", "wf-1")
	execCtx.SetVariable("raw", "{not json", "")

	result := run(t, execCtx, map[string]any{
		"operation": "parse",
		"input":     "{{raw}}",
	})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "jsontransform node (json-1):")
	assert.Contains(t, result.Error, "invalid JSON")
}

func TestExecutor_Stringify(t *testing.T) {
	execCtx := execution.NewContext("exec-1", "wf-1")
	execCtx.SetVariable("payload", map[string]any{"n": float64(1)}, "")

	result := run(t, execCtx, map[string]any{
		"operation": "stringify",
		"input":     "{{payload}}",
	})
	require.True(t, result.Success)

	assert.JSONEq(t, `{"n":1}`, result.Output["result"].(string))
}

func TestExecutor_Extract(t *testing.T) {
	execCtx := execution.NewContext("exec-1", "wf-1")
	execCtx.SetVariable("order", map[string]any{
		"items": []any{
			map[string]any{"sku": "A-1", "qty": float64(2)},
			map[string]any{"sku": "B-2", "qty": float64(1)},
		},
	}, "")

	result := run(t, execCtx, map[string]any{
		"operation": "extract",
		"input":     "{{order}}",
		"path":      "$.items[1].sku",
	})
	require.True(t, result.Success, result.Error)

	assert.Equal(t, "B-2", result.Output["result"])
}

func TestExecutor_ExtractMissingPath(t *testing.T) {
	execCtx := execution.NewContext("exec-1", "wf-1")
	execCtx.SetVariable("order", map[string]any{"id": "o-1"}, "")

	result := run(t, execCtx, map[string]any{
		"operation": "extract",
		"input":     "{{order}}",
		"path":      "$.missing.field",
	})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "not found")
}

func TestExecutor_Transform(t *testing.T) {
	execCtx := execution.NewContext("exec-1", "wf-1")
	execCtx.SetVariable("user", map[string]any{
		"profile": map[string]any{"first": "Ada", "last": "Lovelace"},
		"id":      float64(7),
	}, "")

	result := run(t, execCtx, map[string]any{
		"operation": "transform",
		"input":     "{{user}}",
		"mapping": map[string]any{
			"name":    "$.profile.first",
			"user_id": "$.id",
		},
	})
	require.True(t, result.Success, result.Error)

	shaped := result.Output["result"].(map[string]any)
	assert.Equal(t, "Ada", shaped["name"])
	assert.Equal(t, float64(7), shaped["user_id"])
}

func TestNewExecutor_Validation(t *testing.T) {
	_, err := NewExecutor(jsonNode(map[string]any{"input": "{{x}}"}), deps())
	require.Error(t, err)

	_, err = NewExecutor(jsonNode(map[string]any{"operation": "explode", "input": "{{x}}"}), deps())
	require.Error(t, err)

	_, err = NewExecutor(jsonNode(map[string]any{"operation": "extract", "input": "{{x}}"}), deps())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path")

	_, err = NewExecutor(jsonNode(map[string]any{"operation": "transform", "input": "{{x}}"}), deps())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mapping")
}
