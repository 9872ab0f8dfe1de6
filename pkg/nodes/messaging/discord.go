package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/braid-run/braid/pkg/execution"
	"github.com/braid-run/braid/pkg/models"
	"github.com/braid-run/braid/pkg/protocol"
)

const discordAPIBase = "https://discord.com/api/v10"

// DiscordExecutor posts a message either through an incoming webhook URL or
// through the bot API with a bearer token credential and a channel ID.
type DiscordExecutor struct {
	node    *models.WorkflowNode
	deps    protocol.Dependencies
	client  *http.Client
	apiBase string
	logger  *slog.Logger
}

func NewDiscordExecutor(node *models.WorkflowNode, deps protocol.Dependencies) (protocol.Executor, error) {
	_, hasWebhook := node.Config["webhook_url"].(string)
	_, hasCredential := node.Config["credential_id"].(string)
	_, hasChannel := node.Config["channel_id"].(string)

	if !hasWebhook && !(hasCredential && hasChannel) {
		return nil, fmt.Errorf("discord config: either 'webhook_url' or both 'credential_id' and 'channel_id' are required")
	}

	if _, ok := node.Config["message"].(string); !ok {
		return nil, fmt.Errorf("discord config: 'message' is required")
	}

	apiBase := discordAPIBase
	if raw, ok := node.Config["endpoint"].(string); ok && raw != "" {
		apiBase = raw
	}

	return &DiscordExecutor{
		node:    node,
		deps:    deps,
		client:  httpClient(deps),
		apiBase: apiBase,
		logger:  deps.Logger,
	}, nil
}

func (e *DiscordExecutor) Execute(ctx context.Context, execCtx *execution.Context) (*models.ExecutorResult, error) {
	message := execCtx.ResolveTemplate(e.node.Config["message"].(string))

	payload, err := json.Marshal(map[string]any{"content": message})
	if err != nil {
		return models.Failure(e.node.Type, e.node.ID, err.Error()), nil
	}

	var req *http.Request

	if webhookURL, ok := e.node.Config["webhook_url"].(string); ok && webhookURL != "" {
		req, err = http.NewRequestWithContext(ctx, http.MethodPost,
			execCtx.ResolveTemplate(webhookURL), bytes.NewReader(payload))
		if err != nil {
			return models.Failure(e.node.Type, e.node.ID, err.Error()), nil
		}
	} else {
		token, err := credentialValue(ctx, e.deps, e.node.Config["credential_id"].(string),
			models.CredentialTypeBearerToken, "bot_token", "token")
		if err != nil {
			return models.Failure(e.node.Type, e.node.ID, err.Error()), nil
		}

		channelID := execCtx.ResolveTemplate(e.node.Config["channel_id"].(string))

		req, err = http.NewRequestWithContext(ctx, http.MethodPost,
			fmt.Sprintf("%s/channels/%s/messages", e.apiBase, channelID), bytes.NewReader(payload))
		if err != nil {
			return models.Failure(e.node.Type, e.node.ID, err.Error()), nil
		}

		req.Header.Set("Authorization", "Bot "+token)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return models.Failure(e.node.Type, e.node.ID,
			fmt.Sprintf("discord request failed: %v", err)), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)

		return models.Failure(e.node.Type, e.node.ID,
			fmt.Sprintf("discord returned status %d: %s", resp.StatusCode, string(body))), nil
	}

	e.logger.InfoContext(ctx, "discord message sent", "node_id", e.node.ID)

	return &models.ExecutorResult{
		Success: true,
		Output: map[string]any{
			"sent":        true,
			"status_code": resp.StatusCode,
		},
	}, nil
}
