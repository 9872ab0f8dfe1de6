package queue

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
)

// PostgresQueue keeps jobs in the execution_jobs table and claims them with
// FOR UPDATE SKIP LOCKED so concurrent workers never pick the same row.
type PostgresQueue struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresQueue wraps an existing connection pool, normally the one owned
// by the postgresql persistence layer.
func NewPostgresQueue(db *sql.DB, logger *slog.Logger) *PostgresQueue {
	return &PostgresQueue{db: db, logger: logger}
}

var _ Queue = (*PostgresQueue)(nil)

func (q *PostgresQueue) Enqueue(ctx context.Context, job *models.ExecutionJob) error {
	if job.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate job ID: %w", err)
		}

		job.ID = id.String()
	}

	now := time.Now().UTC()

	job.Status = models.JobStatusPending
	job.CreatedAt = now
	job.UpdatedAt = now

	webhookData, err := json.Marshal(job.WebhookData)
	if err != nil {
		return fmt.Errorf("failed to serialize webhook data: %w", err)
	}

	_, err = q.db.ExecContext(ctx, `
		INSERT INTO execution_jobs (id, workflow_id, user_id, trigger_type, status, webhook_data, scheduled_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		job.ID, job.WorkflowID, job.UserID, string(job.TriggerType), string(job.Status),
		webhookData, job.ScheduledAt, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}

	return nil
}

func (q *PostgresQueue) Dequeue(ctx context.Context) (*models.ExecutionJob, error) {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		SELECT id, workflow_id, user_id, trigger_type, status, webhook_data, scheduled_at, error, created_at, updated_at
		FROM execution_jobs
		WHERE status = 'pending' AND (scheduled_at IS NULL OR scheduled_at <= NOW())
		ORDER BY COALESCE(scheduled_at, created_at), created_at
		LIMIT 1
		FOR UPDATE SKIP LOCKED`)

	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to claim job: %w", err)
	}

	job.Status = models.JobStatusProcessing
	job.UpdatedAt = time.Now().UTC()

	_, err = tx.ExecContext(ctx,
		`UPDATE execution_jobs SET status = $1, updated_at = $2 WHERE id = $3`,
		string(job.Status), job.UpdatedAt, job.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark job processing: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit claim: %w", err)
	}

	return job, nil
}

func (q *PostgresQueue) MarkCompleted(ctx context.Context, jobID string) error {
	return q.seal(ctx, jobID, models.JobStatusCompleted, nil)
}

func (q *PostgresQueue) MarkFailed(ctx context.Context, jobID string, message string) error {
	return q.seal(ctx, jobID, models.JobStatusFailed, &message)
}

func (q *PostgresQueue) seal(ctx context.Context, jobID string, status models.JobStatus, message *string) error {
	result, err := q.db.ExecContext(ctx,
		`UPDATE execution_jobs SET status = $1, error = $2, updated_at = $3 WHERE id = $4`,
		string(status), message, time.Now().UTC(), jobID)
	if err != nil {
		return fmt.Errorf("failed to update job %s: %w", jobID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check job update: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}

	return nil
}

func (q *PostgresQueue) PendingCount(ctx context.Context) (int64, error) {
	var count int64

	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM execution_jobs WHERE status = 'pending'`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending jobs: %w", err)
	}

	return count, nil
}

// Close is a no-op: the connection pool belongs to the persistence layer.
func (q *PostgresQueue) Close() error {
	return nil
}

func scanJob(row *sql.Row) (*models.ExecutionJob, error) {
	var (
		job         models.ExecutionJob
		webhookData []byte
		scheduledAt sql.NullTime
		jobError    sql.NullString
	)

	err := row.Scan(&job.ID, &job.WorkflowID, &job.UserID, &job.TriggerType, &job.Status,
		&webhookData, &scheduledAt, &jobError, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if len(webhookData) > 0 {
		if err := json.Unmarshal(webhookData, &job.WebhookData); err != nil {
			return nil, fmt.Errorf("failed to parse webhook data: %w", err)
		}
	}

	if scheduledAt.Valid {
		t := scheduledAt.Time
		job.ScheduledAt = &t
	}

	if jobError.Valid {
		msg := jobError.String
		job.Error = &msg
	}

	return &job, nil
}
