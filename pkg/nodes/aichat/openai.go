package aichat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/braid-run/braid/pkg/execution"
	"github.com/braid-run/braid/pkg/models"
	"github.com/braid-run/braid/pkg/protocol"
)

type OpenAIExecutor struct {
	node   *models.WorkflowNode
	config *Config
	deps   protocol.Dependencies
	logger *slog.Logger
}

func NewOpenAIExecutor(node *models.WorkflowNode, deps protocol.Dependencies) (protocol.Executor, error) {
	cfg, err := parseConfig(node.Config, DefaultOpenAIModel)
	if err != nil {
		return nil, fmt.Errorf("openai config: %w", err)
	}

	return &OpenAIExecutor{node: node, config: cfg, deps: deps, logger: deps.Logger}, nil
}

func (e *OpenAIExecutor) Execute(ctx context.Context, execCtx *execution.Context) (*models.ExecutorResult, error) {
	key, err := apiKey(ctx, e.deps, e.config.CredentialID)
	if err != nil {
		return models.Failure(e.node.Type, e.node.ID, err.Error()), nil
	}

	options := []option.RequestOption{option.WithAPIKey(key)}
	if e.deps.HTTPClient != nil {
		options = append(options, option.WithHTTPClient(e.deps.HTTPClient))
	}

	if e.config.Endpoint != "" {
		options = append(options, option.WithBaseURL(e.config.Endpoint))
	}

	client := openai.NewClient(options...)

	messages := []openai.ChatCompletionMessageParamUnion{}
	if system := execCtx.ResolveTemplate(e.config.System); system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}

	messages = append(messages, openai.UserMessage(execCtx.ResolveTemplate(e.config.Prompt)))

	params := openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(e.config.Model),
		Messages:  messages,
		MaxTokens: openai.Int(int64(e.config.MaxTokens)),
	}

	if e.config.Temperature != nil {
		params.Temperature = openai.Float(*e.config.Temperature)
	}

	e.logger.InfoContext(ctx, "calling openai chat completion",
		"node_id", e.node.ID, "model", e.config.Model)

	completion, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return models.Failure(e.node.Type, e.node.ID,
			fmt.Sprintf("openai request failed: %v", err)), nil
	}

	if len(completion.Choices) == 0 {
		return models.Failure(e.node.Type, e.node.ID, "openai returned no choices"), nil
	}

	return chatOutput(execCtx, e.config,
		completion.Choices[0].Message.Content,
		completion.Model,
		int(completion.Usage.PromptTokens),
		int(completion.Usage.CompletionTokens),
	), nil
}
