package condition

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/braid-run/braid/pkg/execution"
	"github.com/braid-run/braid/pkg/models"
	"github.com/braid-run/braid/pkg/protocol"
)

type FilterMode string

const (
	FilterModeKeep   FilterMode = "keep"
	FilterModeRemove FilterMode = "remove"
)

type FilterExecutor struct {
	node   *models.WorkflowNode
	logger *slog.Logger
}

func NewFilterExecutor(node *models.WorkflowNode, deps protocol.Dependencies) (protocol.Executor, error) {
	return &FilterExecutor{node: node, logger: deps.Logger}, nil
}

func (e *FilterExecutor) Execute(ctx context.Context, execCtx *execution.Context) (*models.ExecutorResult, error) {
	rules, combinator, err := parseRuleConfig(e.node.Config, execCtx)
	if err != nil {
		return models.Failure(e.node.Type, e.node.ID, err.Error()), nil
	}

	itemsExpr, ok := e.node.Config["items"].(string)
	if !ok || itemsExpr == "" {
		return models.Failure(e.node.Type, e.node.ID, "'items' is required"), nil
	}

	resolved := execCtx.ResolveValue(itemsExpr)

	items, ok := resolved.([]any)
	if !ok {
		return models.Failure(e.node.Type, e.node.ID,
			fmt.Sprintf("'items' must resolve to a list, got %T", resolved)), nil
	}

	mode := FilterModeKeep
	if raw, ok := e.node.Config["mode"].(string); ok && FilterMode(raw) == FilterModeRemove {
		mode = FilterModeRemove
	}

	kept := make([]any, 0, len(items))

	for _, item := range items {
		matched, err := evaluate(item, rules, combinator)
		if err != nil {
			return models.Failure(e.node.Type, e.node.ID, err.Error()), nil
		}

		if matched == (mode == FilterModeKeep) {
			kept = append(kept, item)
		}
	}

	if variable, ok := e.node.Config["variable"].(string); ok && variable != "" {
		execCtx.SetVariable(variable, kept, "")
	}

	e.logger.DebugContext(ctx, "filter applied",
		"node_id", e.node.ID, "in", len(items), "out", len(kept))

	return &models.ExecutorResult{
		Success: true,
		Output: map[string]any{
			"items":   kept,
			"count":   len(kept),
			"removed": len(items) - len(kept),
		},
	}, nil
}
