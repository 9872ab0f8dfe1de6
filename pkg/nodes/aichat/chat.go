// Package aichat provides the LLM chat node executors for the OpenAI,
// Anthropic, and Gemini providers. All three share one configuration shape
// and produce {text, model, usage} output.
package aichat

import (
	"context"
	"fmt"

	"github.com/braid-run/braid/pkg/execution"
	"github.com/braid-run/braid/pkg/models"
	"github.com/braid-run/braid/pkg/protocol"
)

const (
	DefaultMaxTokens = 4096

	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-sonnet-4-20250514"
	DefaultGeminiModel    = "gemini-2.0-flash"
)

// Config is the shared configuration for the chat nodes. Prompt and system
// support templating; the API key always comes from a stored credential.
type Config struct {
	CredentialID string
	Model        string
	Prompt       string
	System       string
	Temperature  *float64
	MaxTokens    int
	Variable     string
	Endpoint     string
}

func parseConfig(raw map[string]any, defaultModel string) (*Config, error) {
	cfg := &Config{
		Model:     defaultModel,
		MaxTokens: DefaultMaxTokens,
	}

	credentialID, ok := raw["credential_id"].(string)
	if !ok || credentialID == "" {
		return nil, fmt.Errorf("'credential_id' is required")
	}

	cfg.CredentialID = credentialID

	prompt, ok := raw["prompt"].(string)
	if !ok || prompt == "" {
		return nil, fmt.Errorf("'prompt' is required")
	}

	cfg.Prompt = prompt

	if model, ok := raw["model"].(string); ok && model != "" {
		cfg.Model = model
	}

	if system, ok := raw["system"].(string); ok {
		cfg.System = system
	}

	if temperature, ok := raw["temperature"].(float64); ok {
		if temperature < 0 || temperature > 2 {
			return nil, fmt.Errorf("'temperature' must be between 0 and 2")
		}

		cfg.Temperature = &temperature
	}

	if maxTokens, ok := raw["max_tokens"].(float64); ok && maxTokens > 0 {
		cfg.MaxTokens = int(maxTokens)
	}

	if variable, ok := raw["variable"].(string); ok {
		cfg.Variable = variable
	}

	if endpoint, ok := raw["endpoint"].(string); ok {
		cfg.Endpoint = endpoint
	}

	return cfg, nil
}

// apiKey fetches the node's credential and extracts its api_key entry. The
// credential must be api_key typed; anything else is a configuration error.
func apiKey(ctx context.Context, deps protocol.Dependencies, credentialID string) (string, error) {
	if deps.Credentials == nil {
		return "", fmt.Errorf("credential access is not configured")
	}

	credential, err := deps.Credentials.GetCredential(ctx, credentialID, deps.UserID)
	if err != nil {
		return "", fmt.Errorf("resolving credential: %w", err)
	}

	if credential.Type != models.CredentialTypeAPIKey {
		return "", fmt.Errorf("credential %q is type %q, want %q",
			credentialID, credential.Type, models.CredentialTypeAPIKey)
	}

	key, ok := credential.Data["api_key"].(string)
	if !ok || key == "" {
		return "", fmt.Errorf("credential %q has no api_key", credentialID)
	}

	return key, nil
}

// chatOutput builds the uniform result and stores the text in the configured
// variable when one is set.
func chatOutput(execCtx *execution.Context, cfg *Config, text, model string, promptTokens, completionTokens int) *models.ExecutorResult {
	if cfg.Variable != "" {
		execCtx.SetVariable(cfg.Variable, text, "string")
	}

	return &models.ExecutorResult{
		Success: true,
		Output: map[string]any{
			"text":  text,
			"model": model,
			"usage": map[string]any{
				"prompt_tokens":     promptTokens,
				"completion_tokens": completionTokens,
				"total_tokens":      promptTokens + completionTokens,
			},
		},
	}
}
