package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/braid-run/braid/pkg/execution"
	"github.com/braid-run/braid/pkg/models"
	"github.com/braid-run/braid/pkg/protocol"
)

const mailgunAPIBase = "https://api.mailgun.net/v3"

// EmailExecutor sends mail through the Mailgun messages API with an api_key
// credential.
type EmailExecutor struct {
	node    *models.WorkflowNode
	deps    protocol.Dependencies
	client  *http.Client
	apiBase string
	logger  *slog.Logger
}

func NewEmailExecutor(node *models.WorkflowNode, deps protocol.Dependencies) (protocol.Executor, error) {
	for _, field := range []string{"credential_id", "domain", "from", "to", "subject"} {
		if _, ok := node.Config[field].(string); !ok {
			return nil, fmt.Errorf("email config: '%s' is required", field)
		}
	}

	apiBase := mailgunAPIBase
	if raw, ok := node.Config["endpoint"].(string); ok && raw != "" {
		apiBase = raw
	}

	return &EmailExecutor{
		node:    node,
		deps:    deps,
		client:  httpClient(deps),
		apiBase: apiBase,
		logger:  deps.Logger,
	}, nil
}

func (e *EmailExecutor) Execute(ctx context.Context, execCtx *execution.Context) (*models.ExecutorResult, error) {
	key, err := credentialValue(ctx, e.deps, e.node.Config["credential_id"].(string),
		models.CredentialTypeAPIKey, "api_key")
	if err != nil {
		return models.Failure(e.node.Type, e.node.ID, err.Error()), nil
	}

	domain := e.node.Config["domain"].(string)
	to := execCtx.ResolveTemplate(e.node.Config["to"].(string))

	form := url.Values{}
	form.Set("from", execCtx.ResolveTemplate(e.node.Config["from"].(string)))
	form.Set("to", to)
	form.Set("subject", execCtx.ResolveTemplate(e.node.Config["subject"].(string)))

	if text, ok := e.node.Config["text"].(string); ok {
		form.Set("text", execCtx.ResolveTemplate(text))
	}

	if html, ok := e.node.Config["html"].(string); ok {
		form.Set("html", execCtx.ResolveTemplate(html))
	}

	endpoint := fmt.Sprintf("%s/%s/messages", e.apiBase, domain)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return models.Failure(e.node.Type, e.node.ID, err.Error()), nil
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth("api", key)

	resp, err := e.client.Do(req)
	if err != nil {
		return models.Failure(e.node.Type, e.node.ID,
			fmt.Sprintf("email request failed: %v", err)), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)

		return models.Failure(e.node.Type, e.node.ID,
			fmt.Sprintf("email provider returned status %d: %s", resp.StatusCode, string(body))), nil
	}

	var mailResp struct {
		ID      string `json:"id"`
		Message string `json:"message"`
	}

	// The message ID is informational; a malformed body is not a failure.
	_ = json.NewDecoder(resp.Body).Decode(&mailResp)

	e.logger.InfoContext(ctx, "email sent", "node_id", e.node.ID, "to", to)

	return &models.ExecutorResult{
		Success: true,
		Output: map[string]any{
			"sent":       true,
			"message_id": mailResp.ID,
		},
	}, nil
}
