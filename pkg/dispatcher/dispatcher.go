// Package dispatcher polls the job queue and runs each claimed job through
// the orchestrator. One dispatcher processes jobs serially; running several
// dispatchers is safe because the queue's claim is atomic.
package dispatcher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/braid-run/braid/pkg/models"
	"github.com/braid-run/braid/pkg/queue"
)

// Engine is the execution surface the dispatcher needs.
type Engine interface {
	Execute(ctx context.Context, workflowID, userID string, triggerType models.TriggerType, triggerData map[string]any) (*models.Execution, error)
}

const DefaultPollInterval = 10 * time.Second

type Dispatcher struct {
	logger       *slog.Logger
	queue        queue.Queue
	engine       Engine
	pollInterval time.Duration

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewDispatcher(logger *slog.Logger, q queue.Queue, engine Engine, pollInterval time.Duration) *Dispatcher {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}

	return &Dispatcher{
		logger:       logger,
		queue:        q,
		engine:       engine,
		pollInterval: pollInterval,
		stopCh:       make(chan struct{}),
	}
}

// Start launches the poll loop. It returns immediately; call Stop to drain
// and shut down.
func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.InfoContext(ctx, "Starting dispatcher", "poll_interval", d.pollInterval.String())

	d.wg.Add(1)

	go func() {
		defer d.wg.Done()

		ticker := time.NewTicker(d.pollInterval)
		defer ticker.Stop()

		// First drain happens immediately rather than one interval in.
		d.drain(ctx)

		for {
			select {
			case <-d.stopCh:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				d.drain(ctx)
			}
		}
	}()
}

// Stop signals the loop and waits for the in-flight job to finish.
func (d *Dispatcher) Stop() {
	close(d.stopCh)
	d.wg.Wait()
}

// drain claims and runs jobs until the queue reports empty.
func (d *Dispatcher) drain(ctx context.Context) {
	pending, err := d.queue.PendingCount(ctx)
	if err != nil {
		d.logger.ErrorContext(ctx, "Failed to read queue depth", "error", err)
	} else if pending > 0 {
		d.logger.DebugContext(ctx, "Draining job queue", "pending", pending)
	}

	for {
		select {
		case <-d.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		job, err := d.queue.Dequeue(ctx)
		if err != nil {
			d.logger.ErrorContext(ctx, "Failed to dequeue job", "error", err)

			return
		}

		if job == nil {
			return
		}

		d.process(ctx, job)
	}
}

func (d *Dispatcher) process(ctx context.Context, job *models.ExecutionJob) {
	logger := d.logger.With("job_id", job.ID, "workflow_id", job.WorkflowID)
	logger.InfoContext(ctx, "Processing job", "trigger", string(job.TriggerType))

	exec, err := d.engine.Execute(ctx, job.WorkflowID, job.UserID, job.TriggerType, job.WebhookData)
	if err != nil {
		logger.ErrorContext(ctx, "Job execution failed", "error", err)

		if markErr := d.queue.MarkFailed(ctx, job.ID, err.Error()); markErr != nil {
			logger.ErrorContext(ctx, "Failed to mark job failed", "error", markErr)
		}

		return
	}

	// A FAILED execution is still a completed job: the failure is recorded
	// on the execution itself and the job was fully processed.
	if err := d.queue.MarkCompleted(ctx, job.ID); err != nil {
		logger.ErrorContext(ctx, "Failed to mark job completed", "error", err)

		return
	}

	logger.InfoContext(ctx, "Job processed", "execution_id", exec.ID, "status", string(exec.Status))
}
