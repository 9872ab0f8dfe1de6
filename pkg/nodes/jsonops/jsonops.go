// Package jsonops provides the JSON transform node executor: parse,
// stringify, extract, and reshape operations over context data.
package jsonops

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/braid-run/braid/pkg/execution"
	"github.com/braid-run/braid/pkg/models"
	"github.com/braid-run/braid/pkg/protocol"
)

type Operation string

const (
	OperationParse     Operation = "parse"
	OperationStringify Operation = "stringify"
	OperationExtract   Operation = "extract"
	OperationTransform Operation = "transform"
)

type Executor struct {
	node      *models.WorkflowNode
	logger    *slog.Logger
	operation Operation
	variable  string
}

func NewExecutor(node *models.WorkflowNode, deps protocol.Dependencies) (protocol.Executor, error) {
	rawOp, ok := node.Config["operation"].(string)
	if !ok || rawOp == "" {
		return nil, fmt.Errorf("jsontransform config: 'operation' is required")
	}

	operation := Operation(rawOp)

	switch operation {
	case OperationParse, OperationStringify, OperationExtract, OperationTransform:
	default:
		return nil, fmt.Errorf("jsontransform config: unknown operation %q", rawOp)
	}

	if _, ok := node.Config["input"].(string); !ok {
		return nil, fmt.Errorf("jsontransform config: 'input' is required")
	}

	if operation == OperationExtract {
		if _, ok := node.Config["path"].(string); !ok {
			return nil, fmt.Errorf("jsontransform config: 'path' is required for extract")
		}
	}

	if operation == OperationTransform {
		if _, ok := node.Config["mapping"].(map[string]any); !ok {
			return nil, fmt.Errorf("jsontransform config: 'mapping' is required for transform")
		}
	}

	variable, _ := node.Config["variable"].(string)

	return &Executor{node: node, logger: deps.Logger, operation: operation, variable: variable}, nil
}

func (e *Executor) Execute(ctx context.Context, execCtx *execution.Context) (*models.ExecutorResult, error) {
	input := execCtx.ResolveValue(e.node.Config["input"].(string))

	value, err := e.run(input, execCtx)
	if err != nil {
		return models.Failure(e.node.Type, e.node.ID, err.Error()), nil
	}

	if e.variable != "" {
		execCtx.SetVariable(e.variable, value, "")
	}

	e.logger.DebugContext(ctx, "json operation applied",
		"node_id", e.node.ID, "operation", string(e.operation))

	return &models.ExecutorResult{
		Success: true,
		Output:  map[string]any{"result": value},
	}, nil
}

func (e *Executor) run(input any, execCtx *execution.Context) (any, error) {
	switch e.operation {
	case OperationParse:
		text, ok := input.(string)
		if !ok {
			return nil, fmt.Errorf("parse input must be a string, got %T", input)
		}

		var parsed any
		if err := json.Unmarshal([]byte(text), &parsed); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}

		return parsed, nil
	case OperationStringify:
		encoded, err := json.Marshal(input)
		if err != nil {
			return nil, fmt.Errorf("value is not serializable: %w", err)
		}

		return string(encoded), nil
	case OperationExtract:
		path := normalizePath(e.node.Config["path"].(string))

		encoded, err := json.Marshal(input)
		if err != nil {
			return nil, fmt.Errorf("value is not serializable: %w", err)
		}

		result := gjson.GetBytes(encoded, path)
		if !result.Exists() {
			return nil, fmt.Errorf("path %q not found", path)
		}

		return result.Value(), nil
	case OperationTransform:
		mapping := e.node.Config["mapping"].(map[string]any)

		encoded, err := json.Marshal(input)
		if err != nil {
			return nil, fmt.Errorf("value is not serializable: %w", err)
		}

		shaped := make(map[string]any, len(mapping))

		for field, rawPath := range mapping {
			path, ok := rawPath.(string)
			if !ok {
				return nil, fmt.Errorf("mapping for %q must be a path string", field)
			}

			result := gjson.GetBytes(encoded, normalizePath(path))
			if result.Exists() {
				shaped[field] = result.Value()
			}
		}

		return shaped, nil
	default:
		return nil, fmt.Errorf("unknown operation %q", e.operation)
	}
}

func normalizePath(path string) string {
	path = strings.TrimPrefix(path, "$.")
	path = strings.TrimPrefix(path, "$")

	return strings.NewReplacer("[", ".", "]", "").Replace(path)
}

type Factory struct{}

func NewFactory() protocol.ExecutorFactory { return &Factory{} }

func (f *Factory) Create(node *models.WorkflowNode, deps protocol.Dependencies) (protocol.Executor, error) {
	return NewExecutor(node, deps)
}

func (f *Factory) Type() models.NodeType { return models.NodeTypeJSONTransform }
func (f *Factory) Name() string          { return "JSON Transform" }

func (f *Factory) Description() string {
	return "Parses, stringifies, extracts, or reshapes JSON data"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"operation": map[string]any{
				"type": "string",
				"enum": []string{"parse", "stringify", "extract", "transform"},
			},
			"input": map[string]any{
				"type":        "string",
				"description": "Template selecting the value to operate on",
			},
			"path": map[string]any{
				"type":        "string",
				"description": "Field path for extract, e.g. $.items[0].name",
			},
			"mapping": map[string]any{
				"type":        "object",
				"description": "Output field to source path mapping for transform",
			},
			"variable": map[string]any{
				"type":        "string",
				"description": "Context variable that receives the result",
			},
		},
		"required": []string{"operation", "input"},
	}
}
