package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/braid-run/braid/pkg/models"
	"github.com/braid-run/braid/pkg/queue"
)

// Engine is the synchronous execution surface the runner delegates to.
type Engine interface {
	Execute(ctx context.Context, workflowID, userID string, triggerType models.TriggerType, triggerData map[string]any) (*models.Execution, error)
}

// Runner exposes the three trigger entry points. Manual runs execute
// synchronously; webhook and schedule runs only enqueue and return the job.
type Runner struct {
	engine   Engine
	queue    queue.Queue
	validate *validator.Validate
}

func NewRunner(engine Engine, q queue.Queue) *Runner {
	return &Runner{
		engine:   engine,
		queue:    q,
		validate: validator.New(),
	}
}

// RunManual executes the workflow and blocks until it reaches a terminal
// status.
func (r *Runner) RunManual(ctx context.Context, workflowID, userID string) (*models.Execution, error) {
	if userID == "" {
		return nil, &ServiceError{Op: "run workflow", Err: ErrEmptyOwnerID}
	}

	return r.engine.Execute(ctx, workflowID, userID, models.TriggerTypeManual, nil)
}

// RunWebhook enqueues a webhook-triggered job carrying the request payload.
func (r *Runner) RunWebhook(ctx context.Context, workflowID, userID string, payload map[string]any) (*models.ExecutionJob, error) {
	job := &models.ExecutionJob{
		WorkflowID:  workflowID,
		UserID:      userID,
		TriggerType: models.TriggerTypeWebhook,
		WebhookData: payload,
	}

	return r.enqueue(ctx, job)
}

// RunSchedule enqueues a schedule-triggered job, optionally delayed to a
// future instant.
func (r *Runner) RunSchedule(ctx context.Context, workflowID, userID string, at *time.Time) (*models.ExecutionJob, error) {
	job := &models.ExecutionJob{
		WorkflowID:  workflowID,
		UserID:      userID,
		TriggerType: models.TriggerTypeSchedule,
		ScheduledAt: at,
	}

	return r.enqueue(ctx, job)
}

func (r *Runner) enqueue(ctx context.Context, job *models.ExecutionJob) (*models.ExecutionJob, error) {
	if err := r.validate.Struct(job); err != nil {
		return nil, &ServiceError{Op: "enqueue job", Err: fmt.Errorf("%w: %w", ErrInvalidRequest, err)}
	}

	if err := r.queue.Enqueue(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}

	return job, nil
}
