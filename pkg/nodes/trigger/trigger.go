// Package trigger provides the trigger node executors. Triggers do no real
// work; they stamp a "triggered" marker and exist as graph roots.
package trigger

import (
	"context"
	"time"

	"github.com/braid-run/braid/pkg/execution"
	"github.com/braid-run/braid/pkg/models"
	"github.com/braid-run/braid/pkg/protocol"
)

// Factory serves one of the trigger node types.
type Factory struct {
	nodeType    models.NodeType
	name        string
	description string
}

func NewManualTriggerFactory() protocol.ExecutorFactory {
	return &Factory{
		nodeType:    models.NodeTypeManualTrigger,
		name:        "Manual Trigger",
		description: "Starts the workflow when run by hand",
	}
}

func NewWebhookTriggerFactory() protocol.ExecutorFactory {
	return &Factory{
		nodeType:    models.NodeTypeWebhookTrigger,
		name:        "Webhook Trigger",
		description: "Starts the workflow from an incoming webhook call",
	}
}

func NewScheduleTriggerFactory() protocol.ExecutorFactory {
	return &Factory{
		nodeType:    models.NodeTypeScheduleTrigger,
		name:        "Schedule Trigger",
		description: "Starts the workflow on a cron schedule",
	}
}

func NewInitialTriggerFactory() protocol.ExecutorFactory {
	return &Factory{
		nodeType:    models.NodeTypeInitialTrigger,
		name:        "Initial Trigger",
		description: "Default entry point for new workflows",
	}
}

func (f *Factory) Create(node *models.WorkflowNode, _ protocol.Dependencies) (protocol.Executor, error) {
	return &Executor{nodeType: f.nodeType, nodeID: node.ID}, nil
}

func (f *Factory) Type() models.NodeType { return f.nodeType }
func (f *Factory) Name() string          { return f.name }
func (f *Factory) Description() string   { return f.description }

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": true,
	}
}

// Executor stamps the trigger marker. Webhook triggers also surface the
// incoming payload so downstream nodes can reference it.
type Executor struct {
	nodeType models.NodeType
	nodeID   string
}

func (e *Executor) Execute(_ context.Context, executionCtx *execution.Context) (*models.ExecutorResult, error) {
	output := map[string]any{
		"triggered": true,
		"trigger":   string(e.nodeType),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if e.nodeType == models.NodeTypeWebhookTrigger && executionCtx.TriggerData != nil {
		output["payload"] = executionCtx.TriggerData
	}

	return &models.ExecutorResult{
		Success: true,
		Output:  output,
		Logs: []models.LogEntry{
			{Level: models.LogLevelInfo, Message: "workflow triggered", Data: map[string]any{"trigger": string(e.nodeType)}},
		},
	}, nil
}
