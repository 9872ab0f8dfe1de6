package condition

import (
	"github.com/braid-run/braid/pkg/models"
	"github.com/braid-run/braid/pkg/protocol"
)

func conditionsSchema() map[string]any {
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"fieldPath": map[string]any{
					"type":        "string",
					"description": "Dotted path into the evaluated value, e.g. $.user.age",
				},
				"operator": map[string]any{
					"type": "string",
					"enum": []string{
						"equals", "not_equals", "contains",
						"greater_than", "less_than", "exists", "regex",
					},
				},
				"value": map[string]any{
					"description": "Comparison operand. Supports {{template}} expressions",
				},
			},
			"required": []string{"fieldPath", "operator"},
		},
	}
}

type IfFactory struct{}

func NewIfFactory() protocol.ExecutorFactory {
	return &IfFactory{}
}

func (f *IfFactory) Create(node *models.WorkflowNode, deps protocol.Dependencies) (protocol.Executor, error) {
	return NewIfExecutor(node, deps)
}

func (f *IfFactory) Type() models.NodeType { return models.NodeTypeIfCondition }
func (f *IfFactory) Name() string          { return "If" }

func (f *IfFactory) Description() string {
	return "Routes execution to the true or false handle based on configured conditions"
}

func (f *IfFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"input": map[string]any{
				"type":        "string",
				"description": "Template selecting the value to evaluate. Defaults to the trigger data",
			},
			"conditions": conditionsSchema(),
			"combinator": map[string]any{
				"type":    "string",
				"default": "and",
				"enum":    []string{"and", "or"},
			},
		},
		"required": []string{"conditions"},
	}
}

type FilterFactory struct{}

func NewFilterFactory() protocol.ExecutorFactory {
	return &FilterFactory{}
}

func (f *FilterFactory) Create(node *models.WorkflowNode, deps protocol.Dependencies) (protocol.Executor, error) {
	return NewFilterExecutor(node, deps)
}

func (f *FilterFactory) Type() models.NodeType { return models.NodeTypeFilter }
func (f *FilterFactory) Name() string          { return "Filter" }

func (f *FilterFactory) Description() string {
	return "Keeps or removes list items matching configured conditions"
}

func (f *FilterFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"items": map[string]any{
				"type":        "string",
				"description": "Template resolving to the list to filter",
			},
			"conditions": conditionsSchema(),
			"combinator": map[string]any{
				"type":    "string",
				"default": "and",
				"enum":    []string{"and", "or"},
			},
			"mode": map[string]any{
				"type":    "string",
				"default": "keep",
				"enum":    []string{"keep", "remove"},
			},
			"variable": map[string]any{
				"type":        "string",
				"description": "Context variable that receives the filtered list",
			},
		},
		"required": []string{"items", "conditions"},
	}
}
