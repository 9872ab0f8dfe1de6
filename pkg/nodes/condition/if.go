package condition

import (
	"context"
	"log/slog"

	"github.com/braid-run/braid/pkg/execution"
	"github.com/braid-run/braid/pkg/models"
	"github.com/braid-run/braid/pkg/protocol"
)

const (
	HandleTrue  = "true"
	HandleFalse = "false"
)

type IfExecutor struct {
	node   *models.WorkflowNode
	logger *slog.Logger
}

func NewIfExecutor(node *models.WorkflowNode, deps protocol.Dependencies) (protocol.Executor, error) {
	return &IfExecutor{node: node, logger: deps.Logger}, nil
}

func (e *IfExecutor) Execute(ctx context.Context, execCtx *execution.Context) (*models.ExecutorResult, error) {
	rules, combinator, err := parseRuleConfig(e.node.Config, execCtx)
	if err != nil {
		return models.Failure(e.node.Type, e.node.ID, err.Error()), nil
	}

	subject := resolveSubject(e.node.Config, execCtx)

	matched, err := evaluate(subject, rules, combinator)
	if err != nil {
		return models.Failure(e.node.Type, e.node.ID, err.Error()), nil
	}

	handle := HandleFalse
	if matched {
		handle = HandleTrue
	}

	e.logger.DebugContext(ctx, "condition evaluated",
		"node_id", e.node.ID, "result", matched)

	return &models.ExecutorResult{
		Success: true,
		Output:  map[string]any{"result": matched},
		Handles: []string{handle},
	}, nil
}

// parseRuleConfig reads 'conditions' and 'combinator', resolving templates in
// condition values before comparison.
func parseRuleConfig(config map[string]any, execCtx *execution.Context) ([]Rule, Combinator, error) {
	resolved := execCtx.ResolveTemplateInObject(config["conditions"])

	rules, err := parseRules(resolved)
	if err != nil {
		return nil, "", err
	}

	combinator := CombinatorAnd
	if raw, ok := config["combinator"].(string); ok && Combinator(raw) == CombinatorOr {
		combinator = CombinatorOr
	}

	return rules, combinator, nil
}

// resolveSubject picks the value the rules run against. An 'input' template
// selects it explicitly; otherwise the trigger data is used.
func resolveSubject(config map[string]any, execCtx *execution.Context) any {
	if raw, ok := config["input"].(string); ok && raw != "" {
		return execCtx.ResolveValue(raw)
	}

	return execCtx.TriggerData
}
