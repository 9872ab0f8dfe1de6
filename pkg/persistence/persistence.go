// Package persistence provides the data storage abstraction for workflows,
// executions, and credentials.
package persistence

import (
	"context"

	"github.com/braid-run/braid/pkg/models"
)

type Persistence interface {
	Workflows(ctx context.Context) ([]*models.Workflow, error)
	PublishedWorkflows(ctx context.Context) ([]*models.Workflow, error)
	SaveWorkflow(ctx context.Context, workflow *models.Workflow) error
	WorkflowByID(ctx context.Context, id string) (*models.Workflow, error)
	DeleteWorkflow(ctx context.Context, id string) error

	SaveExecution(ctx context.Context, execution *models.Execution) error
	ExecutionByID(ctx context.Context, id string) (*models.Execution, error)
	ExecutionsByWorkflow(ctx context.Context, workflowID string, limit int) ([]*models.Execution, error)

	SaveExecutionStep(ctx context.Context, step *models.ExecutionStep) error
	ExecutionSteps(ctx context.Context, executionID string) ([]*models.ExecutionStep, error)

	AppendExecutionLog(ctx context.Context, log *models.ExecutionLog) error
	ExecutionLogs(ctx context.Context, executionID string) ([]*models.ExecutionLog, error)

	SaveCredential(ctx context.Context, credential *models.Credential) error
	// CredentialByID returns (nil, nil) when no row exists so callers can
	// apply their own ownership scoping before reporting not found.
	CredentialByID(ctx context.Context, id string) (*models.Credential, error)
	CredentialsByOwner(ctx context.Context, ownerID string) ([]*models.Credential, error)
	DeleteCredential(ctx context.Context, id string) error

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
