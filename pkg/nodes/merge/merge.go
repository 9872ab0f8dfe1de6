// Package merge provides the node executor that combines lists from earlier
// steps with append, merge-by-key, or union strategies.
package merge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/braid-run/braid/pkg/execution"
	"github.com/braid-run/braid/pkg/models"
	"github.com/braid-run/braid/pkg/protocol"
)

type Strategy string

const (
	StrategyAppend     Strategy = "append"
	StrategyMergeByKey Strategy = "merge_by_key"
	StrategyUnion      Strategy = "union"
)

type Executor struct {
	node     *models.WorkflowNode
	logger   *slog.Logger
	strategy Strategy
	key      string
	variable string
}

func NewExecutor(node *models.WorkflowNode, deps protocol.Dependencies) (protocol.Executor, error) {
	sources, ok := node.Config["sources"].([]any)
	if !ok || len(sources) < 2 {
		return nil, fmt.Errorf("merge config: 'sources' requires at least two entries")
	}

	strategy := StrategyAppend
	if raw, ok := node.Config["strategy"].(string); ok && raw != "" {
		strategy = Strategy(raw)
	}

	key, _ := node.Config["key"].(string)

	switch strategy {
	case StrategyAppend, StrategyUnion:
	case StrategyMergeByKey:
		if key == "" {
			return nil, fmt.Errorf("merge config: 'key' is required for merge_by_key")
		}
	default:
		return nil, fmt.Errorf("merge config: unknown strategy %q", strategy)
	}

	variable, _ := node.Config["variable"].(string)

	return &Executor{
		node:     node,
		logger:   deps.Logger,
		strategy: strategy,
		key:      key,
		variable: variable,
	}, nil
}

func (e *Executor) Execute(ctx context.Context, execCtx *execution.Context) (*models.ExecutorResult, error) {
	lists, err := e.resolveSources(execCtx)
	if err != nil {
		return models.Failure(e.node.Type, e.node.ID, err.Error()), nil
	}

	var merged []any

	switch e.strategy {
	case StrategyAppend:
		merged = mergeAppend(lists)
	case StrategyUnion:
		merged = mergeUnion(lists)
	case StrategyMergeByKey:
		merged = mergeByKey(lists, e.key)
	}

	if e.variable != "" {
		execCtx.SetVariable(e.variable, merged, "")
	}

	e.logger.DebugContext(ctx, "lists merged",
		"node_id", e.node.ID, "strategy", string(e.strategy), "count", len(merged))

	return &models.ExecutorResult{
		Success: true,
		Output: map[string]any{
			"items": merged,
			"count": len(merged),
		},
	}, nil
}

func (e *Executor) resolveSources(execCtx *execution.Context) ([][]any, error) {
	sources := e.node.Config["sources"].([]any)
	lists := make([][]any, 0, len(sources))

	for i, source := range sources {
		expr, ok := source.(string)
		if !ok {
			return nil, fmt.Errorf("source %d must be a template string", i)
		}

		resolved := execCtx.ResolveValue(expr)

		list, ok := resolved.([]any)
		if !ok {
			return nil, fmt.Errorf("source %d must resolve to a list, got %T", i, resolved)
		}

		lists = append(lists, list)
	}

	return lists, nil
}

func mergeAppend(lists [][]any) []any {
	merged := []any{}
	for _, list := range lists {
		merged = append(merged, list...)
	}

	return merged
}

// mergeUnion appends while dropping duplicates. Items compare by their JSON
// encoding.
func mergeUnion(lists [][]any) []any {
	merged := []any{}
	seen := map[string]bool{}

	for _, list := range lists {
		for _, item := range list {
			fingerprint := itemFingerprint(item)
			if seen[fingerprint] {
				continue
			}

			seen[fingerprint] = true
			merged = append(merged, item)
		}
	}

	return merged
}

// mergeByKey joins object items on a shared key field. Later sources overlay
// earlier ones entry by entry; keyless items pass through untouched.
func mergeByKey(lists [][]any, key string) []any {
	merged := []any{}
	byKey := map[string]int{}

	for _, list := range lists {
		for _, item := range list {
			entry, ok := item.(map[string]any)
			if !ok {
				merged = append(merged, item)

				continue
			}

			keyValue, ok := entry[key]
			if !ok {
				merged = append(merged, item)

				continue
			}

			fingerprint := itemFingerprint(keyValue)

			if index, exists := byKey[fingerprint]; exists {
				target := merged[index].(map[string]any)
				for field, value := range entry {
					target[field] = value
				}

				continue
			}

			copied := make(map[string]any, len(entry))
			for field, value := range entry {
				copied[field] = value
			}

			byKey[fingerprint] = len(merged)
			merged = append(merged, copied)
		}
	}

	return merged
}

func itemFingerprint(item any) string {
	encoded, err := json.Marshal(item)
	if err != nil {
		return fmt.Sprintf("%v", item)
	}

	return string(encoded)
}

type Factory struct{}

func NewFactory() protocol.ExecutorFactory { return &Factory{} }

func (f *Factory) Create(node *models.WorkflowNode, deps protocol.Dependencies) (protocol.Executor, error) {
	return NewExecutor(node, deps)
}

func (f *Factory) Type() models.NodeType { return models.NodeTypeMerge }
func (f *Factory) Name() string          { return "Merge" }

func (f *Factory) Description() string {
	return "Combines lists with append, merge-by-key, or union strategies"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"sources": map[string]any{
				"type":        "array",
				"minItems":    2,
				"description": "Templates resolving to the lists to combine",
			},
			"strategy": map[string]any{
				"type":    "string",
				"default": "append",
				"enum":    []string{"append", "merge_by_key", "union"},
			},
			"key": map[string]any{
				"type":        "string",
				"description": "Join field for merge_by_key",
			},
			"variable": map[string]any{
				"type":        "string",
				"description": "Context variable that receives the merged list",
			},
		},
		"required": []string{"sources"},
	}
}
