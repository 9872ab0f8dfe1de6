package aichat

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/braid-run/braid/pkg/execution"
	"github.com/braid-run/braid/pkg/models"
	"github.com/braid-run/braid/pkg/protocol"
)

type GeminiExecutor struct {
	node   *models.WorkflowNode
	config *Config
	deps   protocol.Dependencies
	logger *slog.Logger
}

func NewGeminiExecutor(node *models.WorkflowNode, deps protocol.Dependencies) (protocol.Executor, error) {
	cfg, err := parseConfig(node.Config, DefaultGeminiModel)
	if err != nil {
		return nil, fmt.Errorf("gemini config: %w", err)
	}

	return &GeminiExecutor{node: node, config: cfg, deps: deps, logger: deps.Logger}, nil
}

func (e *GeminiExecutor) Execute(ctx context.Context, execCtx *execution.Context) (*models.ExecutorResult, error) {
	key, err := apiKey(ctx, e.deps, e.config.CredentialID)
	if err != nil {
		return models.Failure(e.node.Type, e.node.ID, err.Error()), nil
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	}
	if e.deps.HTTPClient != nil {
		clientConfig.HTTPClient = e.deps.HTTPClient
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return models.Failure(e.node.Type, e.node.ID,
			fmt.Sprintf("creating gemini client: %v", err)), nil
	}

	genConfig := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(e.config.MaxTokens),
	}

	if e.config.Temperature != nil {
		genConfig.Temperature = genai.Ptr(float32(*e.config.Temperature))
	}

	if system := execCtx.ResolveTemplate(e.config.System); system != "" {
		genConfig.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(system)},
		}
	}

	e.logger.InfoContext(ctx, "calling gemini generate content",
		"node_id", e.node.ID, "model", e.config.Model)

	response, err := client.Models.GenerateContent(ctx, e.config.Model,
		genai.Text(execCtx.ResolveTemplate(e.config.Prompt)), genConfig)
	if err != nil {
		return models.Failure(e.node.Type, e.node.ID,
			fmt.Sprintf("gemini request failed: %v", err)), nil
	}

	promptTokens, completionTokens := 0, 0
	if response.UsageMetadata != nil {
		promptTokens = int(response.UsageMetadata.PromptTokenCount)
		completionTokens = int(response.UsageMetadata.CandidatesTokenCount)
	}

	return chatOutput(execCtx, e.config, response.Text(), e.config.Model,
		promptTokens, completionTokens), nil
}
