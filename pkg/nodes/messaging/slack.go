// Package messaging provides the outbound notification node executors for
// Slack, Discord, and email delivery.
package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/braid-run/braid/pkg/execution"
	"github.com/braid-run/braid/pkg/models"
	"github.com/braid-run/braid/pkg/protocol"
)

const slackEndpoint = "https://slack.com/api/chat.postMessage"

type SlackExecutor struct {
	node     *models.WorkflowNode
	deps     protocol.Dependencies
	client   *http.Client
	endpoint string
	logger   *slog.Logger
}

func NewSlackExecutor(node *models.WorkflowNode, deps protocol.Dependencies) (protocol.Executor, error) {
	if _, ok := node.Config["credential_id"].(string); !ok {
		return nil, fmt.Errorf("slack config: 'credential_id' is required")
	}

	if _, ok := node.Config["channel"].(string); !ok {
		return nil, fmt.Errorf("slack config: 'channel' is required")
	}

	if _, ok := node.Config["message"].(string); !ok {
		return nil, fmt.Errorf("slack config: 'message' is required")
	}

	endpoint := slackEndpoint
	if raw, ok := node.Config["endpoint"].(string); ok && raw != "" {
		endpoint = raw
	}

	return &SlackExecutor{
		node:     node,
		deps:     deps,
		client:   httpClient(deps),
		endpoint: endpoint,
		logger:   deps.Logger,
	}, nil
}

func (e *SlackExecutor) Execute(ctx context.Context, execCtx *execution.Context) (*models.ExecutorResult, error) {
	token, err := credentialValue(ctx, e.deps, e.node.Config["credential_id"].(string),
		models.CredentialTypeBearerToken, "bot_token", "token")
	if err != nil {
		return models.Failure(e.node.Type, e.node.ID, err.Error()), nil
	}

	channel := execCtx.ResolveTemplate(e.node.Config["channel"].(string))
	message := execCtx.ResolveTemplate(e.node.Config["message"].(string))

	payload, err := json.Marshal(map[string]any{
		"channel": channel,
		"text":    message,
	})
	if err != nil {
		return models.Failure(e.node.Type, e.node.ID, err.Error()), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(payload))
	if err != nil {
		return models.Failure(e.node.Type, e.node.ID, err.Error()), nil
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := e.client.Do(req)
	if err != nil {
		return models.Failure(e.node.Type, e.node.ID,
			fmt.Sprintf("slack request failed: %v", err)), nil
	}
	defer resp.Body.Close()

	var slackResp struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
		TS    string `json:"ts"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&slackResp); err != nil {
		return models.Failure(e.node.Type, e.node.ID,
			fmt.Sprintf("decoding slack response: %v", err)), nil
	}

	// Slack reports API failures in the body with a 200 status.
	if !slackResp.OK {
		return models.Failure(e.node.Type, e.node.ID,
			fmt.Sprintf("slack api error: %s", slackResp.Error)), nil
	}

	e.logger.InfoContext(ctx, "slack message sent",
		"node_id", e.node.ID, "channel", channel)

	return &models.ExecutorResult{
		Success: true,
		Output: map[string]any{
			"ok":      true,
			"channel": channel,
			"ts":      slackResp.TS,
		},
	}, nil
}

func httpClient(deps protocol.Dependencies) *http.Client {
	if deps.HTTPClient != nil {
		return deps.HTTPClient
	}

	return &http.Client{Timeout: 30 * time.Second}
}

// credentialValue fetches the node's credential, checks it matches the auth
// method the node uses, and returns the first of the named entries present.
func credentialValue(ctx context.Context, deps protocol.Dependencies, credentialID string, want models.CredentialType, keys ...string) (string, error) {
	if deps.Credentials == nil {
		return "", fmt.Errorf("credential access is not configured")
	}

	cred, err := deps.Credentials.GetCredential(ctx, credentialID, deps.UserID)
	if err != nil {
		return "", fmt.Errorf("resolving credential: %w", err)
	}

	if cred.Type != want {
		return "", fmt.Errorf("credential %q is type %q, want %q", credentialID, cred.Type, want)
	}

	for _, key := range keys {
		if value, ok := cred.Data[key].(string); ok && value != "" {
			return value, nil
		}
	}

	return "", fmt.Errorf("credential %q has none of %v", credentialID, keys)
}
