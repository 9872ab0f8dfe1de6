package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/braid-run/braid/pkg/models"
	"github.com/braid-run/braid/pkg/persistence"
)

// ExecutionRepository handles execution, step, and log database operations.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewExecutionRepository(db *sql.DB, logger *slog.Logger) *ExecutionRepository {
	return &ExecutionRepository{db: db, logger: logger}
}

// Save upserts an execution row.
func (r *ExecutionRepository) Save(ctx context.Context, execution *models.Execution) error {
	if execution.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate execution ID: %w", err)
		}

		execution.ID = id.String()
	}

	query := `
		INSERT INTO executions (id, workflow_id, user_id, status, triggered_by, error, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status
		  , error = EXCLUDED.error
		  , completed_at = EXCLUDED.completed_at
	`

	_, err := r.db.ExecContext(ctx, query,
		execution.ID, execution.WorkflowID, execution.UserID, execution.Status,
		execution.TriggeredBy, execution.Error, execution.StartedAt, execution.CompletedAt)
	if err != nil {
		return persistence.NewExecutionError("Save", execution.ID, err)
	}

	return nil
}

func (r *ExecutionRepository) GetByID(ctx context.Context, id string) (*models.Execution, error) {
	query := `
		SELECT id, workflow_id, user_id, status, triggered_by, error, started_at, completed_at
		FROM executions
		WHERE id = $1
	`

	execution, err := scanExecution(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewExecutionError("GetByID", id, persistence.ErrExecutionNotFound)
		}

		return nil, fmt.Errorf("failed to scan execution: %w", err)
	}

	return execution, nil
}

func (r *ExecutionRepository) ByWorkflow(ctx context.Context, workflowID string, limit int) ([]*models.Execution, error) {
	query := `
		SELECT id, workflow_id, user_id, status, triggered_by, error, started_at, completed_at
		FROM executions
		WHERE workflow_id = $1
		ORDER BY started_at DESC
	`

	args := []any{workflowID}

	if limit > 0 {
		query += ` LIMIT $2`

		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	executions := make([]*models.Execution, 0)

	for rows.Next() {
		execution, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}

		executions = append(executions, execution)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}

	return executions, nil
}

// SaveStep upserts an execution step row.
func (r *ExecutionRepository) SaveStep(ctx context.Context, step *models.ExecutionStep) error {
	if step.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate step ID: %w", err)
		}

		step.ID = id.String()
	}

	output, err := json.Marshal(step.Output)
	if err != nil {
		return fmt.Errorf("failed to serialize step output: %w", err)
	}

	query := `
		INSERT INTO execution_steps (id, execution_id, node_id, status, output, error, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status
		  , output = EXCLUDED.output
		  , error = EXCLUDED.error
		  , completed_at = EXCLUDED.completed_at
	`

	_, err = r.db.ExecContext(ctx, query,
		step.ID, step.ExecutionID, step.NodeID, step.Status,
		output, step.Error, step.StartedAt, step.CompletedAt)
	if err != nil {
		return persistence.NewExecutionError("SaveStep", step.ExecutionID, err)
	}

	return nil
}

func (r *ExecutionRepository) Steps(ctx context.Context, executionID string) ([]*models.ExecutionStep, error) {
	query := `
		SELECT id, execution_id, node_id, status, output, error, started_at, completed_at
		FROM execution_steps
		WHERE execution_id = $1
		ORDER BY started_at
	`

	rows, err := r.db.QueryContext(ctx, query, executionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query execution steps: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	steps := make([]*models.ExecutionStep, 0)

	for rows.Next() {
		var (
			step       models.ExecutionStep
			outputJSON []byte
			stepError  sql.NullString
			completed  sql.NullTime
		)

		err := rows.Scan(&step.ID, &step.ExecutionID, &step.NodeID, &step.Status,
			&outputJSON, &stepError, &step.StartedAt, &completed)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution step: %w", err)
		}

		if len(outputJSON) > 0 {
			if err := json.Unmarshal(outputJSON, &step.Output); err != nil {
				return nil, fmt.Errorf("failed to parse step output: %w", err)
			}
		}

		if stepError.Valid {
			step.Error = &stepError.String
		}

		if completed.Valid {
			step.CompletedAt = &completed.Time
		}

		steps = append(steps, &step)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating execution steps: %w", err)
	}

	return steps, nil
}

// AppendLog inserts a log line. Logs are append-only.
func (r *ExecutionRepository) AppendLog(ctx context.Context, log *models.ExecutionLog) error {
	if log.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate log ID: %w", err)
		}

		log.ID = id.String()
	}

	data, err := json.Marshal(log.Data)
	if err != nil {
		return fmt.Errorf("failed to serialize log data: %w", err)
	}

	query := `
		INSERT INTO execution_logs (id, execution_id, node_id, level, message, data, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = r.db.ExecContext(ctx, query,
		log.ID, log.ExecutionID, log.NodeID, log.Level, log.Message, data, log.Timestamp)
	if err != nil {
		return persistence.NewExecutionError("AppendLog", log.ExecutionID, err)
	}

	return nil
}

func (r *ExecutionRepository) Logs(ctx context.Context, executionID string) ([]*models.ExecutionLog, error) {
	query := `
		SELECT id, execution_id, node_id, level, message, data, timestamp
		FROM execution_logs
		WHERE execution_id = $1
		ORDER BY timestamp
	`

	rows, err := r.db.QueryContext(ctx, query, executionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query execution logs: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	logs := make([]*models.ExecutionLog, 0)

	for rows.Next() {
		var (
			log      models.ExecutionLog
			nodeID   sql.NullString
			dataJSON []byte
		)

		err := rows.Scan(&log.ID, &log.ExecutionID, &nodeID, &log.Level,
			&log.Message, &dataJSON, &log.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution log: %w", err)
		}

		log.NodeID = nodeID.String

		if len(dataJSON) > 0 {
			if err := json.Unmarshal(dataJSON, &log.Data); err != nil {
				return nil, fmt.Errorf("failed to parse log data: %w", err)
			}
		}

		logs = append(logs, &log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating execution logs: %w", err)
	}

	return logs, nil
}

func scanExecution(row rowScanner) (*models.Execution, error) {
	var (
		execution models.Execution
		errorText sql.NullString
		completed sql.NullTime
	)

	err := row.Scan(&execution.ID, &execution.WorkflowID, &execution.UserID,
		&execution.Status, &execution.TriggeredBy, &errorText,
		&execution.StartedAt, &completed)
	if err != nil {
		return nil, err
	}

	if errorText.Valid {
		execution.Error = &errorText.String
	}

	if completed.Valid {
		execution.CompletedAt = &completed.Time
	}

	return &execution, nil
}
