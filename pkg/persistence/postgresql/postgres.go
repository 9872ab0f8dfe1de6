// Package postgresql provides the PostgreSQL persistence implementation.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"

	"github.com/braid-run/braid/pkg/models"
	"github.com/braid-run/braid/pkg/persistence"
	"github.com/braid-run/braid/pkg/persistence/sqlbase"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db             *sql.DB
	logger         *slog.Logger
	workflowRepo   *WorkflowRepository
	executionRepo  *ExecutionRepository
	credentialRepo *CredentialRepository
}

var _ persistence.Persistence = (*Persistence)(nil)

// NewPersistence connects, runs migrations, and wires the repositories.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	if err := database.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())
	if err := migrationManager.RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:             database,
		logger:         logger,
		workflowRepo:   NewWorkflowRepository(database, logger),
		executionRepo:  NewExecutionRepository(database, logger),
		credentialRepo: NewCredentialRepository(database, logger),
	}, nil
}

// DB exposes the underlying connection pool so the job queue can share it.
func (p *Persistence) DB() *sql.DB {
	return p.db
}

func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (p *Persistence) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	return p.workflowRepo.GetAll(ctx, false)
}

func (p *Persistence) PublishedWorkflows(ctx context.Context) ([]*models.Workflow, error) {
	return p.workflowRepo.GetAll(ctx, true)
}

func (p *Persistence) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	return p.workflowRepo.GetByID(ctx, id)
}

func (p *Persistence) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	return p.workflowRepo.Save(ctx, workflow)
}

func (p *Persistence) DeleteWorkflow(ctx context.Context, id string) error {
	return p.workflowRepo.Delete(ctx, id)
}

func (p *Persistence) SaveExecution(ctx context.Context, execution *models.Execution) error {
	return p.executionRepo.Save(ctx, execution)
}

func (p *Persistence) ExecutionByID(ctx context.Context, id string) (*models.Execution, error) {
	return p.executionRepo.GetByID(ctx, id)
}

func (p *Persistence) ExecutionsByWorkflow(ctx context.Context, workflowID string, limit int) ([]*models.Execution, error) {
	return p.executionRepo.ByWorkflow(ctx, workflowID, limit)
}

func (p *Persistence) SaveExecutionStep(ctx context.Context, step *models.ExecutionStep) error {
	return p.executionRepo.SaveStep(ctx, step)
}

func (p *Persistence) ExecutionSteps(ctx context.Context, executionID string) ([]*models.ExecutionStep, error) {
	return p.executionRepo.Steps(ctx, executionID)
}

func (p *Persistence) AppendExecutionLog(ctx context.Context, log *models.ExecutionLog) error {
	return p.executionRepo.AppendLog(ctx, log)
}

func (p *Persistence) ExecutionLogs(ctx context.Context, executionID string) ([]*models.ExecutionLog, error) {
	return p.executionRepo.Logs(ctx, executionID)
}

func (p *Persistence) SaveCredential(ctx context.Context, credential *models.Credential) error {
	return p.credentialRepo.Save(ctx, credential)
}

func (p *Persistence) CredentialByID(ctx context.Context, id string) (*models.Credential, error) {
	return p.credentialRepo.GetByID(ctx, id)
}

func (p *Persistence) CredentialsByOwner(ctx context.Context, ownerID string) ([]*models.Credential, error) {
	return p.credentialRepo.ByOwner(ctx, ownerID)
}

func (p *Persistence) DeleteCredential(ctx context.Context, id string) error {
	return p.credentialRepo.Delete(ctx, id)
}
