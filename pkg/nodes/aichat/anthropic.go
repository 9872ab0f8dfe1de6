package aichat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/braid-run/braid/pkg/execution"
	"github.com/braid-run/braid/pkg/models"
	"github.com/braid-run/braid/pkg/protocol"
	"github.com/braid-run/braid/pkg/retry"
)

const (
	anthropicEndpoint = "https://api.anthropic.com/v1/messages"
	anthropicVersion  = "2023-06-01"

	anthropicMaxRetries = 3
	anthropicRetryBase  = 2 * time.Second
)

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
	Temp      *float64           `json:"temperature,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

type AnthropicExecutor struct {
	node   *models.WorkflowNode
	config *Config
	deps   protocol.Dependencies
	client *http.Client
	logger *slog.Logger
}

func NewAnthropicExecutor(node *models.WorkflowNode, deps protocol.Dependencies) (protocol.Executor, error) {
	cfg, err := parseConfig(node.Config, DefaultAnthropicModel)
	if err != nil {
		return nil, fmt.Errorf("anthropic config: %w", err)
	}

	if cfg.Endpoint == "" {
		cfg.Endpoint = anthropicEndpoint
	}

	client := deps.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 300 * time.Second}
	}

	return &AnthropicExecutor{node: node, config: cfg, deps: deps, client: client, logger: deps.Logger}, nil
}

func (e *AnthropicExecutor) Execute(ctx context.Context, execCtx *execution.Context) (*models.ExecutorResult, error) {
	key, err := apiKey(ctx, e.deps, e.config.CredentialID)
	if err != nil {
		return models.Failure(e.node.Type, e.node.ID, err.Error()), nil
	}

	request := anthropicRequest{
		Model:     e.config.Model,
		MaxTokens: e.config.MaxTokens,
		System:    execCtx.ResolveTemplate(e.config.System),
		Temp:      e.config.Temperature,
		Messages: []anthropicMessage{
			{Role: "user", Content: execCtx.ResolveTemplate(e.config.Prompt)},
		},
	}

	body, err := json.Marshal(request)
	if err != nil {
		return models.Failure(e.node.Type, e.node.ID,
			fmt.Sprintf("marshaling request: %v", err)), nil
	}

	e.logger.InfoContext(ctx, "calling anthropic messages api",
		"node_id", e.node.ID, "model", e.config.Model)

	var response anthropicResponse

	err = retry.WithRetry(ctx, func() error {
		return e.doRequest(ctx, key, body, &response)
	}, anthropicMaxRetries, anthropicRetryBase, 2.0)
	if err != nil {
		return models.Failure(e.node.Type, e.node.ID, err.Error()), nil
	}

	text := ""

	for _, block := range response.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	return chatOutput(execCtx, e.config, text, response.Model,
		response.Usage.InputTokens, response.Usage.OutputTokens), nil
}

func (e *AnthropicExecutor) doRequest(ctx context.Context, key string, body []byte, out *anthropicResponse) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return retry.NonRetriable(err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", key)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("anthropic request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("anthropic returned status %d: %s", resp.StatusCode, string(payload))

		// Client errors other than rate limiting will not get better on
		// their own.
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return retry.NonRetriable(err)
		}

		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return retry.NonRetriable(fmt.Errorf("decoding anthropic response: %w", err))
	}

	if out.Error != nil {
		return retry.NonRetriable(fmt.Errorf("anthropic error %s: %s", out.Error.Type, out.Error.Message))
	}

	return nil
}
