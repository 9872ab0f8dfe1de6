// Package scheduler turns schedule-trigger nodes of published workflows
// into queued execution jobs. It rescans persistence on an interval so
// newly published or unpublished workflows are picked up without restarts.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/braid-run/braid/pkg/models"
	"github.com/braid-run/braid/pkg/persistence"
	"github.com/braid-run/braid/pkg/queue"
)

const DefaultRefreshInterval = time.Minute

type Scheduler struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	queue       queue.Queue
	refresh     time.Duration

	cron *cron.Cron

	mu      sync.Mutex
	entries map[string]cron.EntryID

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewScheduler(logger *slog.Logger, store persistence.Persistence, q queue.Queue, refresh time.Duration) *Scheduler {
	if refresh <= 0 {
		refresh = DefaultRefreshInterval
	}

	return &Scheduler{
		logger:      logger,
		persistence: store,
		queue:       q,
		refresh:     refresh,
		entries:     make(map[string]cron.EntryID),
		stopCh:      make(chan struct{}),
	}
}

// Start syncs once, starts the cron runner, and launches the rescan loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	if err := s.Sync(ctx); err != nil {
		return err
	}

	s.cron.Start()

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.refresh)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.Sync(ctx); err != nil {
					s.logger.ErrorContext(ctx, "Failed to refresh schedules", "error", err)
				}
			}
		}
	}()

	return nil
}

// Stop halts the rescan loop and waits for any running cron job to finish.
func (s *Scheduler) Stop() {
	close(s.stopCh)
	s.wg.Wait()

	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// Sync reconciles cron entries with the schedule-trigger nodes currently
// present on published workflows.
func (s *Scheduler) Sync(ctx context.Context) error {
	workflows, err := s.persistence.PublishedWorkflows(ctx)
	if err != nil {
		return fmt.Errorf("failed to list published workflows: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(s.entries))

	for _, wf := range workflows {
		for _, node := range wf.Nodes {
			if node.Type != models.NodeTypeScheduleTrigger {
				continue
			}

			spec, ok := node.Config["cron"].(string)
			if !ok || spec == "" {
				s.logger.WarnContext(ctx, "Schedule node without cron expression",
					"workflow_id", wf.ID, "node_id", node.ID)

				continue
			}

			key := scheduleKey(wf.ID, node.ID, spec)
			seen[key] = true

			if _, exists := s.entries[key]; exists {
				continue
			}

			entryID, err := s.addEntry(ctx, wf, node, spec)
			if err != nil {
				s.logger.ErrorContext(ctx, "Failed to register schedule",
					"workflow_id", wf.ID, "node_id", node.ID, "cron", spec, "error", err)

				continue
			}

			s.entries[key] = entryID
			s.logger.InfoContext(ctx, "Registered schedule",
				"workflow_id", wf.ID, "node_id", node.ID, "cron", spec)
		}
	}

	for key, entryID := range s.entries {
		if !seen[key] {
			s.cron.Remove(entryID)
			delete(s.entries, key)
			s.logger.InfoContext(ctx, "Removed stale schedule", "key", key)
		}
	}

	return nil
}

func (s *Scheduler) addEntry(ctx context.Context, wf *models.Workflow, node *models.WorkflowNode, spec string) (cron.EntryID, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return 0, fmt.Errorf("invalid cron expression: %w", err)
	}

	workflowID := wf.ID
	ownerID := wf.OwnerID
	delay := startDelay(node.Config)

	return s.cron.AddFunc(spec, func() {
		s.enqueue(ctx, workflowID, ownerID, delay)
	})
}

func (s *Scheduler) enqueue(ctx context.Context, workflowID, ownerID string, delay time.Duration) {
	job := &models.ExecutionJob{
		WorkflowID:  workflowID,
		UserID:      ownerID,
		TriggerType: models.TriggerTypeSchedule,
	}

	if delay > 0 {
		at := time.Now().UTC().Add(delay)
		job.ScheduledAt = &at
	}

	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.logger.ErrorContext(ctx, "Failed to enqueue scheduled job",
			"workflow_id", workflowID, "error", err)

		return
	}

	s.logger.InfoContext(ctx, "Enqueued scheduled job",
		"workflow_id", workflowID, "job_id", job.ID)
}

// startDelay reads the optional delay between the cron fire and the job
// becoming eligible for dequeue.
func startDelay(config map[string]any) time.Duration {
	seconds, ok := config["delay_seconds"].(float64)
	if !ok || seconds <= 0 {
		return 0
	}

	return time.Duration(seconds * float64(time.Second))
}

func scheduleKey(workflowID, nodeID, spec string) string {
	return workflowID + "/" + nodeID + "@" + spec
}
