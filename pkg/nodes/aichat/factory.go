package aichat

import (
	"github.com/braid-run/braid/pkg/models"
	"github.com/braid-run/braid/pkg/protocol"
)

func chatSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"credential_id": map[string]any{
				"type":        "string",
				"description": "ID of an api_key credential holding the provider key",
			},
			"model": map[string]any{
				"type":        "string",
				"description": "Provider model identifier",
			},
			"prompt": map[string]any{
				"type":        "string",
				"description": "User prompt. Supports {{template}} expressions",
			},
			"system": map[string]any{
				"type":        "string",
				"description": "System prompt. Supports templating",
			},
			"temperature": map[string]any{
				"type":    "number",
				"minimum": 0,
				"maximum": 2,
			},
			"max_tokens": map[string]any{
				"type":    "number",
				"minimum": 1,
				"default": DefaultMaxTokens,
			},
			"variable": map[string]any{
				"type":        "string",
				"description": "Context variable that receives the response text",
			},
		},
		"required": []string{"credential_id", "prompt"},
	}
}

type OpenAIFactory struct{}

func NewOpenAIFactory() protocol.ExecutorFactory { return &OpenAIFactory{} }

func (f *OpenAIFactory) Create(node *models.WorkflowNode, deps protocol.Dependencies) (protocol.Executor, error) {
	return NewOpenAIExecutor(node, deps)
}

func (f *OpenAIFactory) Type() models.NodeType { return models.NodeTypeOpenAIChat }
func (f *OpenAIFactory) Name() string          { return "OpenAI Chat" }

func (f *OpenAIFactory) Description() string {
	return "Sends a chat completion request to the OpenAI API"
}

func (f *OpenAIFactory) Schema() map[string]any { return chatSchema() }

type AnthropicFactory struct{}

func NewAnthropicFactory() protocol.ExecutorFactory { return &AnthropicFactory{} }

func (f *AnthropicFactory) Create(node *models.WorkflowNode, deps protocol.Dependencies) (protocol.Executor, error) {
	return NewAnthropicExecutor(node, deps)
}

func (f *AnthropicFactory) Type() models.NodeType { return models.NodeTypeAnthropicChat }
func (f *AnthropicFactory) Name() string          { return "Anthropic Chat" }

func (f *AnthropicFactory) Description() string {
	return "Sends a messages request to the Anthropic API"
}

func (f *AnthropicFactory) Schema() map[string]any { return chatSchema() }

type GeminiFactory struct{}

func NewGeminiFactory() protocol.ExecutorFactory { return &GeminiFactory{} }

func (f *GeminiFactory) Create(node *models.WorkflowNode, deps protocol.Dependencies) (protocol.Executor, error) {
	return NewGeminiExecutor(node, deps)
}

func (f *GeminiFactory) Type() models.NodeType { return models.NodeTypeGeminiChat }
func (f *GeminiFactory) Name() string          { return "Gemini Chat" }

func (f *GeminiFactory) Description() string {
	return "Generates content with the Google Gemini API"
}

func (f *GeminiFactory) Schema() map[string]any { return chatSchema() }
