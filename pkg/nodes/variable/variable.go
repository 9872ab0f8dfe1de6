// Package variable provides the node executor that writes values into the
// execution context.
package variable

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/braid-run/braid/pkg/execution"
	"github.com/braid-run/braid/pkg/models"
	"github.com/braid-run/braid/pkg/protocol"
)

type Executor struct {
	node   *models.WorkflowNode
	logger *slog.Logger
}

func NewExecutor(node *models.WorkflowNode, deps protocol.Dependencies) (protocol.Executor, error) {
	_, hasName := node.Config["name"].(string)
	_, hasVariables := node.Config["variables"].(map[string]any)

	if !hasName && !hasVariables {
		return nil, fmt.Errorf("setvariable config: either 'name' or 'variables' is required")
	}

	return &Executor{node: node, logger: deps.Logger}, nil
}

func (e *Executor) Execute(ctx context.Context, execCtx *execution.Context) (*models.ExecutorResult, error) {
	assigned := map[string]any{}

	if name, ok := e.node.Config["name"].(string); ok && name != "" {
		value := resolveAssignment(e.node.Config["value"], execCtx)
		execCtx.SetVariable(name, value, "")
		assigned[name] = value
	}

	if variables, ok := e.node.Config["variables"].(map[string]any); ok {
		for name, raw := range variables {
			value := resolveAssignment(raw, execCtx)
			execCtx.SetVariable(name, value, "")
			assigned[name] = value
		}
	}

	e.logger.DebugContext(ctx, "variables set",
		"node_id", e.node.ID, "count", len(assigned))

	return &models.ExecutorResult{
		Success: true,
		Output:  map[string]any{"variables": assigned},
	}, nil
}

// resolveAssignment keeps native types for full-template strings and
// recursively templates structured values.
func resolveAssignment(raw any, execCtx *execution.Context) any {
	if text, ok := raw.(string); ok {
		return execCtx.ResolveValue(text)
	}

	return execCtx.ResolveTemplateInObject(raw)
}

type Factory struct{}

func NewFactory() protocol.ExecutorFactory { return &Factory{} }

func (f *Factory) Create(node *models.WorkflowNode, deps protocol.Dependencies) (protocol.Executor, error) {
	return NewExecutor(node, deps)
}

func (f *Factory) Type() models.NodeType { return models.NodeTypeSetVariable }
func (f *Factory) Name() string          { return "Set Variable" }

func (f *Factory) Description() string {
	return "Assigns one or more context variables from literals or templates"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{
				"type":        "string",
				"description": "Variable name for a single assignment",
			},
			"value": map[string]any{
				"description": "Value to assign. Strings support {{template}} expressions",
			},
			"variables": map[string]any{
				"type":        "object",
				"description": "Multiple assignments as name/value pairs",
			},
		},
	}
}
