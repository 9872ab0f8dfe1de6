// Package httprequest provides the HTTP request node executor.
package httprequest

import (
	"github.com/braid-run/braid/pkg/models"
	"github.com/braid-run/braid/pkg/protocol"
)

type Factory struct{}

func NewFactory() protocol.ExecutorFactory {
	return &Factory{}
}

func (f *Factory) Create(node *models.WorkflowNode, deps protocol.Dependencies) (protocol.Executor, error) {
	return NewExecutor(node, deps)
}

func (f *Factory) Type() models.NodeType { return models.NodeTypeHTTPRequest }
func (f *Factory) Name() string          { return "HTTP Request" }

func (f *Factory) Description() string {
	return "Performs an HTTP request with templated URL and body, retries, and a per-call timeout"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "Request URL. Supports {{template}} expressions",
			},
			"method": map[string]any{
				"type":    "string",
				"default": "GET",
				"enum":    []string{"GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS"},
			},
			"headers": map[string]any{
				"type":        "object",
				"description": "Request headers. Values support templating",
			},
			"body": map[string]any{
				"type":        "string",
				"description": "JSON request body for POST/PUT/PATCH. Supports templating",
			},
			"variable": map[string]any{
				"type":        "string",
				"description": "Context variable that receives the parsed response body",
			},
			"timeout": map[string]any{
				"type":    "number",
				"default": 30,
				"minimum": 1,
				"maximum": 300,
			},
			"retries": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"attempts": map[string]any{"type": "number", "minimum": 0, "maximum": 10},
					"delay":    map[string]any{"type": "number", "minimum": 0, "maximum": 30000},
				},
			},
		},
		"required": []string{"url"},
	}
}
