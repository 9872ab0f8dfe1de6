package services

import (
	"context"
	"fmt"

	"github.com/braid-run/braid/pkg/models"
	"github.com/braid-run/braid/pkg/persistence"
)

// History serves the execution-history read models behind the UI: execution
// lists per workflow and the full step/log detail of one run.
type History struct {
	persistence persistence.Persistence
}

func NewHistory(store persistence.Persistence) *History {
	return &History{persistence: store}
}

// ExecutionDetail is one execution with its steps and log lines.
type ExecutionDetail struct {
	Execution *models.Execution       `json:"execution"`
	Steps     []*models.ExecutionStep `json:"steps"`
	Logs      []*models.ExecutionLog  `json:"logs"`
}

// ListByWorkflow returns the most recent executions of a workflow, newest
// first. A non-positive limit returns all of them.
func (s *History) ListByWorkflow(ctx context.Context, workflowID string, limit int) ([]*models.Execution, error) {
	return s.persistence.ExecutionsByWorkflow(ctx, workflowID, limit)
}

// Detail loads one execution with its steps and logs.
func (s *History) Detail(ctx context.Context, executionID string) (*ExecutionDetail, error) {
	exec, err := s.persistence.ExecutionByID(ctx, executionID)
	if err != nil {
		return nil, err
	}

	steps, err := s.persistence.ExecutionSteps(ctx, executionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load steps for execution %s: %w", executionID, err)
	}

	logs, err := s.persistence.ExecutionLogs(ctx, executionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load logs for execution %s: %w", executionID, err)
	}

	return &ExecutionDetail{Execution: exec, Steps: steps, Logs: logs}, nil
}
