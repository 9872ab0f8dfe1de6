// Package delay provides the node executor that pauses a workflow for a
// fixed duration or until a timestamp.
package delay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/braid-run/braid/pkg/execution"
	"github.com/braid-run/braid/pkg/models"
	"github.com/braid-run/braid/pkg/protocol"
)

const maxDelay = 24 * time.Hour

type Executor struct {
	node *models.WorkflowNode

	logger *slog.Logger
	now    func() time.Time
}

func NewExecutor(node *models.WorkflowNode, deps protocol.Dependencies) (protocol.Executor, error) {
	_, hasDuration := node.Config["duration"].(float64)
	_, hasUntil := node.Config["until"].(string)

	if !hasDuration && !hasUntil {
		return nil, fmt.Errorf("delay config: either 'duration' or 'until' is required")
	}

	if unit, ok := node.Config["unit"].(string); ok {
		switch unit {
		case "ms", "s", "min", "h":
		default:
			return nil, fmt.Errorf("delay config: unknown unit %q", unit)
		}
	}

	return &Executor{node: node, logger: deps.Logger, now: time.Now}, nil
}

func (e *Executor) Execute(ctx context.Context, execCtx *execution.Context) (*models.ExecutorResult, error) {
	wait, err := e.waitDuration(execCtx)
	if err != nil {
		return models.Failure(e.node.Type, e.node.ID, err.Error()), nil
	}

	if wait > maxDelay {
		return models.Failure(e.node.Type, e.node.ID,
			fmt.Sprintf("delay %s exceeds the %s maximum", wait, maxDelay)), nil
	}

	e.logger.InfoContext(ctx, "delaying execution",
		"node_id", e.node.ID, "duration", wait.String())

	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			return models.Failure(e.node.Type, e.node.ID,
				fmt.Sprintf("delay interrupted: %v", ctx.Err())), nil
		}
	}

	return &models.ExecutorResult{
		Success: true,
		Output: map[string]any{
			"delayed_ms": wait.Milliseconds(),
		},
	}, nil
}

// waitDuration computes the wait from either a duration+unit pair or an
// absolute timestamp. Past timestamps floor to zero.
func (e *Executor) waitDuration(execCtx *execution.Context) (time.Duration, error) {
	if raw, ok := e.node.Config["until"].(string); ok && raw != "" {
		resolved := execCtx.ResolveTemplate(raw)

		until, err := time.Parse(time.RFC3339, resolved)
		if err != nil {
			return 0, fmt.Errorf("invalid 'until' timestamp %q: %w", resolved, err)
		}

		wait := until.Sub(e.now())
		if wait < 0 {
			wait = 0
		}

		return wait, nil
	}

	duration, ok := e.node.Config["duration"].(float64)
	if !ok || duration < 0 {
		return 0, fmt.Errorf("'duration' must be a non-negative number")
	}

	unit := "s"
	if raw, ok := e.node.Config["unit"].(string); ok && raw != "" {
		unit = raw
	}

	switch unit {
	case "ms":
		return time.Duration(duration * float64(time.Millisecond)), nil
	case "s":
		return time.Duration(duration * float64(time.Second)), nil
	case "min":
		return time.Duration(duration * float64(time.Minute)), nil
	case "h":
		return time.Duration(duration * float64(time.Hour)), nil
	default:
		return 0, fmt.Errorf("unknown unit %q", unit)
	}
}

type Factory struct{}

func NewFactory() protocol.ExecutorFactory { return &Factory{} }

func (f *Factory) Create(node *models.WorkflowNode, deps protocol.Dependencies) (protocol.Executor, error) {
	return NewExecutor(node, deps)
}

func (f *Factory) Type() models.NodeType { return models.NodeTypeDelay }
func (f *Factory) Name() string          { return "Delay" }

func (f *Factory) Description() string {
	return "Pauses the workflow for a duration or until a timestamp"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"duration": map[string]any{
				"type":    "number",
				"minimum": 0,
			},
			"unit": map[string]any{
				"type":    "string",
				"default": "s",
				"enum":    []string{"ms", "s", "min", "h"},
			},
			"until": map[string]any{
				"type":        "string",
				"description": "RFC 3339 timestamp to wait for. Supports templating",
			},
		},
	}
}
