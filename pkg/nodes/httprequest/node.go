package httprequest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/braid-run/braid/pkg/execution"
	"github.com/braid-run/braid/pkg/models"
	"github.com/braid-run/braid/pkg/protocol"
	"github.com/braid-run/braid/pkg/retry"
)

const (
	defaultTimeoutSeconds = 30
	defaultRetryAttempts  = 0
	defaultRetryDelay     = 1000 * time.Millisecond
)

// Config is the parsed node configuration.
type Config struct {
	URL      string
	Method   string
	Headers  map[string]string
	Body     string
	Variable string
	Timeout  time.Duration
	Attempts int
	Delay    time.Duration
}

type Executor struct {
	nodeID string
	config Config
	client *http.Client
}

func NewExecutor(node *models.WorkflowNode, deps protocol.Dependencies) (*Executor, error) {
	cfg := Config{
		Method:   http.MethodGet,
		Headers:  make(map[string]string),
		Timeout:  defaultTimeoutSeconds * time.Second,
		Attempts: defaultRetryAttempts,
		Delay:    defaultRetryDelay,
	}

	url, ok := node.Config["url"].(string)
	if !ok || url == "" {
		return nil, errors.New("missing required field 'url'")
	}

	cfg.URL = url

	if method, ok := node.Config["method"].(string); ok {
		cfg.Method = strings.ToUpper(method)
	}

	if headers, ok := node.Config["headers"].(map[string]any); ok {
		for key, value := range headers {
			if str, ok := value.(string); ok {
				cfg.Headers[key] = str
			}
		}
	}

	if body, ok := node.Config["body"].(string); ok {
		cfg.Body = body
	}

	if variable, ok := node.Config["variable"].(string); ok {
		cfg.Variable = variable
	}

	if timeout, ok := node.Config["timeout"].(float64); ok {
		cfg.Timeout = time.Duration(timeout) * time.Second
	}

	if retries, ok := node.Config["retries"].(map[string]any); ok {
		if attempts, ok := retries["attempts"].(float64); ok {
			cfg.Attempts = int(attempts)
		}

		if delay, ok := retries["delay"].(float64); ok {
			cfg.Delay = time.Duration(delay) * time.Millisecond
		}
	}

	client := deps.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	return &Executor{
		nodeID: node.ID,
		config: cfg,
		client: client,
	}, nil
}

// hasBody reports whether the configured method carries a request body.
func (e *Executor) hasBody() bool {
	switch e.config.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	default:
		return false
	}
}

func (e *Executor) Execute(ctx context.Context, executionCtx *execution.Context) (*models.ExecutorResult, error) {
	url := executionCtx.ResolveTemplate(e.config.URL)

	// Configuration errors are resolved before the retried closure; the
	// retry wrapper never sees them and no call is attempted.
	var body string

	if e.hasBody() && e.config.Body != "" {
		body = executionCtx.ResolveTemplate(e.config.Body)
		if !json.Valid([]byte(body)) {
			return models.Failure(models.NodeTypeHTTPRequest, e.nodeID,
				fmt.Sprintf("request body is not valid JSON after template resolution: %s", body)), nil
		}
	}

	var (
		statusCode int
		respBody   []byte
		headers    http.Header
	)

	err := retry.WithRetry(ctx, func() error {
		status, data, hdrs, err := e.doRequest(ctx, url, body, executionCtx)
		if err != nil {
			return err
		}

		statusCode, respBody, headers = status, data, hdrs

		if status >= http.StatusInternalServerError {
			return fmt.Errorf("server returned status %d", status)
		}

		if status >= http.StatusBadRequest {
			return retry.NonRetriable(fmt.Errorf("request rejected with status %d", status))
		}

		return nil
	}, e.config.Attempts, e.config.Delay, 2.0)
	if err != nil {
		return models.Failure(models.NodeTypeHTTPRequest, e.nodeID, err.Error()), nil
	}

	parsed := parseBody(respBody)

	output := map[string]any{
		"status_code": float64(statusCode),
		"body":        string(respBody),
	}
	if parsed != nil {
		output["json"] = parsed
	}

	if contentType := headers.Get("Content-Type"); contentType != "" {
		output["content_type"] = contentType
	}

	// Downstream nodes reference the response through the configured
	// variable: the parsed body when the response was JSON, the raw string
	// otherwise.
	if e.config.Variable != "" {
		if parsed != nil {
			executionCtx.SetVariable(e.config.Variable, parsed, "")
		} else {
			executionCtx.SetVariable(e.config.Variable, string(respBody), "")
		}
	}

	return &models.ExecutorResult{
		Success: true,
		Output:  output,
		Logs: []models.LogEntry{
			{
				Level:   models.LogLevelInfo,
				Message: fmt.Sprintf("%s %s responded %d", e.config.Method, url, statusCode),
				Data:    map[string]any{"status_code": statusCode},
			},
		},
	}, nil
}

func (e *Executor) doRequest(ctx context.Context, url, body string, executionCtx *execution.Context) (int, []byte, http.Header, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	var reader io.Reader
	if e.hasBody() && body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(callCtx, e.config.Method, url, reader)
	if err != nil {
		return 0, nil, nil, retry.NonRetriable(fmt.Errorf("failed to build request: %w", err))
	}

	for key, value := range e.config.Headers {
		req.Header.Set(key, executionCtx.ResolveTemplate(value))
	}

	if reader != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return resp.StatusCode, data, resp.Header, nil
}

// parseBody returns the decoded JSON value, or nil when the body is not JSON.
func parseBody(body []byte) any {
	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil
	}

	return parsed
}
