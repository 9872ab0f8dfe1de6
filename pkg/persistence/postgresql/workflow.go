package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/braid-run/braid/pkg/models"
	"github.com/braid-run/braid/pkg/persistence"
)

// WorkflowRepository handles workflow-related database operations. Nodes and
// connections live as JSONB documents on the workflow row.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewWorkflowRepository(db *sql.DB, logger *slog.Logger) *WorkflowRepository {
	return &WorkflowRepository{db: db, logger: logger}
}

const workflowColumns = `
	id
  , name
  , description
  , status
  , owner_id
  , nodes
  , connections
  , created_at
  , updated_at
  , deleted_at
`

// GetAll returns workflows, optionally restricted to published ones.
func (r *WorkflowRepository) GetAll(ctx context.Context, publishedOnly bool) ([]*models.Workflow, error) {
	query := `SELECT ` + workflowColumns + `
		FROM workflows
		WHERE deleted_at IS NULL
	`

	if publishedOnly {
		query += ` AND status = 'published'`
	}

	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	workflows := make([]*models.Workflow, 0)

	for rows.Next() {
		workflow, err := scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		workflows = append(workflows, workflow)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating workflows: %w", err)
	}

	return workflows, nil
}

func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	query := `SELECT ` + workflowColumns + `
		FROM workflows
		WHERE id = $1 AND deleted_at IS NULL
	`

	workflow, err := scanWorkflow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewWorkflowError("GetByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, fmt.Errorf("failed to scan workflow: %w", err)
	}

	return workflow, nil
}

// Save upserts a workflow, assigning an ID and timestamps as needed.
func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	now := time.Now().UTC()

	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	if workflow.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate workflow ID: %w", err)
		}

		workflow.ID = id.String()
	}

	nodes, err := json.Marshal(workflow.Nodes)
	if err != nil {
		return fmt.Errorf("failed to serialize workflow nodes: %w", err)
	}

	connections, err := json.Marshal(workflow.Connections)
	if err != nil {
		return fmt.Errorf("failed to serialize workflow connections: %w", err)
	}

	query := `
		INSERT INTO workflows (id, name, description, status, owner_id, nodes, connections, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name
		  , description = EXCLUDED.description
		  , status = EXCLUDED.status
		  , nodes = EXCLUDED.nodes
		  , connections = EXCLUDED.connections
		  , updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		workflow.ID, workflow.Name, workflow.Description, workflow.Status,
		workflow.OwnerID, nodes, connections, workflow.CreatedAt, workflow.UpdatedAt)
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	return nil
}

// Delete soft deletes a workflow by setting deleted_at.
func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE workflows SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return persistence.NewWorkflowError("Delete", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewWorkflowError("Delete", id, err)
	}

	if affected == 0 {
		return persistence.NewWorkflowError("Delete", id, persistence.ErrWorkflowNotFound)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(row rowScanner) (*models.Workflow, error) {
	var (
		workflow        models.Workflow
		description     sql.NullString
		nodesJSON       []byte
		connectionsJSON []byte
		deletedAt       sql.NullTime
	)

	err := row.Scan(
		&workflow.ID, &workflow.Name, &description, &workflow.Status,
		&workflow.OwnerID, &nodesJSON, &connectionsJSON,
		&workflow.CreatedAt, &workflow.UpdatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	workflow.Description = description.String

	if deletedAt.Valid {
		workflow.DeletedAt = &deletedAt.Time
	}

	if err := json.Unmarshal(nodesJSON, &workflow.Nodes); err != nil {
		return nil, fmt.Errorf("failed to parse workflow nodes: %w", err)
	}

	if err := json.Unmarshal(connectionsJSON, &workflow.Connections); err != nil {
		return nil, fmt.Errorf("failed to parse workflow connections: %w", err)
	}

	return &workflow, nil
}
