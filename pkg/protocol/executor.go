// Package protocol defines the contracts between the orchestrator and the
// per-node-type executors.
package protocol

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/braid-run/braid/pkg/credential"
	"github.com/braid-run/braid/pkg/execution"
	"github.com/braid-run/braid/pkg/models"
)

// Executor runs one node. Implementations convert every caught failure into
// a result with Success=false and the standard error string; a returned
// error is reserved for infrastructure faults the node cannot classify.
type Executor interface {
	Execute(ctx context.Context, executionCtx *execution.Context) (*models.ExecutorResult, error)
}

// ExecutorFactory creates executor instances for one node type and carries
// its metadata and configuration schema.
type ExecutorFactory interface {
	// Create builds an executor bound to one node instance. Configuration
	// errors should surface here when they are detectable without context.
	Create(node *models.WorkflowNode, deps Dependencies) (Executor, error)

	// Type returns the node type this factory serves.
	Type() models.NodeType

	// Name returns the human-readable name for this node type.
	Name() string

	// Description returns what this node does.
	Description() string

	// Schema returns the JSON schema for this node's configuration.
	Schema() map[string]any
}

// Dependencies carries the shared collaborators executors may need. UserID
// scopes credential reads to the execution's owning user.
type Dependencies struct {
	Logger      *slog.Logger
	Credentials credential.Accessor
	HTTPClient  *http.Client
	UserID      string
}
