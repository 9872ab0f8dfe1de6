// Package workflow runs workflows: it orders the node graph, executes nodes
// strictly one at a time, and persists every step and log transition before
// moving on.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/braid-run/braid/pkg/credential"
	"github.com/braid-run/braid/pkg/execution"
	"github.com/braid-run/braid/pkg/models"
	"github.com/braid-run/braid/pkg/persistence"
	"github.com/braid-run/braid/pkg/protocol"
	"github.com/braid-run/braid/pkg/registry"
)

// Orchestrator drives one workflow execution from trigger to terminal
// status. It is safe to share across goroutines: all per-run state lives in
// the execution context created per call.
type Orchestrator struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	credentials credential.Accessor
	httpClient  *http.Client
}

func NewOrchestrator(
	logger *slog.Logger,
	store persistence.Persistence,
	reg *registry.Registry,
	credentials credential.Accessor,
	httpClient *http.Client,
) *Orchestrator {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Orchestrator{
		logger:      logger,
		persistence: store,
		registry:    reg,
		credentials: credentials,
		httpClient:  httpClient,
	}
}

// Execute runs the workflow synchronously and returns the sealed execution.
// A node failure marks the execution FAILED and returns it with a nil error;
// the error return is reserved for faults outside the run itself, such as an
// unknown workflow or a persistence write that did not land.
func (o *Orchestrator) Execute(
	ctx context.Context,
	workflowID, userID string,
	triggerType models.TriggerType,
	triggerData map[string]any,
) (*models.Execution, error) {
	wf, err := o.persistence.WorkflowByID(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to load workflow %s: %w", workflowID, err)
	}

	if wf.Status != models.WorkflowStatusPublished {
		return nil, persistence.NewWorkflowError("execute", workflowID, persistence.ErrWorkflowNotPublished)
	}

	exec, err := o.createExecution(ctx, wf, userID, triggerType)
	if err != nil {
		return nil, err
	}

	logger := o.logger.With("workflow_id", wf.ID, "execution_id", exec.ID)
	logger.InfoContext(ctx, "Starting workflow execution", "trigger", string(triggerType), "nodes", len(wf.Nodes))

	order, err := ExecutionOrder(wf)
	if err != nil {
		// Graph errors abort before any node runs: no steps are created.
		logger.ErrorContext(ctx, "Workflow graph rejected", "error", err)

		if sealErr := o.sealExecution(ctx, exec, models.ExecutionStatusFailed, err.Error()); sealErr != nil {
			return nil, sealErr
		}

		return exec, nil
	}

	execCtx := execution.NewContext(exec.ID, wf.ID)
	execCtx.TriggerData = triggerData

	deps := protocol.Dependencies{
		Logger:      logger,
		Credentials: o.credentials,
		HTTPClient:  o.httpClient,
		UserID:      userID,
	}

	run := newRunState(wf, order)

	for _, node := range order {
		if !run.activated(node.ID) {
			if err := o.recordSkipped(ctx, exec.ID, node.ID); err != nil {
				return nil, err
			}

			continue
		}

		result, err := o.runNode(ctx, exec, node, execCtx, deps)
		if err != nil {
			return nil, err
		}

		if !result.Success {
			logger.WarnContext(ctx, "Node failed, stopping execution", "node_id", node.ID, "error", result.Error)

			if sealErr := o.sealExecution(ctx, exec, models.ExecutionStatusFailed, result.Error); sealErr != nil {
				return nil, sealErr
			}

			return exec, nil
		}

		run.activate(node.ID, result.ActivatedHandles())
	}

	if err := o.sealExecution(ctx, exec, models.ExecutionStatusCompleted, ""); err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Workflow execution completed")

	return exec, nil
}

func (o *Orchestrator) createExecution(
	ctx context.Context,
	wf *models.Workflow,
	userID string,
	triggerType models.TriggerType,
) (*models.Execution, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate execution ID: %w", err)
	}

	exec := &models.Execution{
		ID:          id.String(),
		WorkflowID:  wf.ID,
		UserID:      userID,
		Status:      models.ExecutionStatusRunning,
		TriggeredBy: triggerType,
		StartedAt:   time.Now().UTC(),
	}

	if err := o.persistence.SaveExecution(ctx, exec); err != nil {
		return nil, fmt.Errorf("failed to create execution: %w", err)
	}

	return exec, nil
}

// runNode persists the RUNNING step, dispatches to the node's executor, and
// seals the step with its outcome. Classified node failures come back as a
// result with Success=false; the error return is persistence-only.
func (o *Orchestrator) runNode(
	ctx context.Context,
	exec *models.Execution,
	node *models.WorkflowNode,
	execCtx *execution.Context,
	deps protocol.Dependencies,
) (*models.ExecutorResult, error) {
	step, err := o.createStep(ctx, exec.ID, node.ID)
	if err != nil {
		return nil, err
	}

	result := o.dispatch(ctx, node, execCtx, deps)

	if result.Success {
		execCtx.SetNodeOutput(node.ID, result.Output)

		step.Status = models.StepStatusCompleted
		step.Output = result.Output
	} else {
		step.Status = models.StepStatusFailed
		message := result.Error
		step.Error = &message
	}

	completedAt := time.Now().UTC()
	step.CompletedAt = &completedAt

	if err := o.persistence.SaveExecutionStep(ctx, step); err != nil {
		return nil, fmt.Errorf("failed to seal step for node %s: %w", node.ID, err)
	}

	if err := o.appendLogs(ctx, exec.ID, node.ID, result.Logs); err != nil {
		return nil, err
	}

	return result, nil
}

// dispatch builds and runs the executor for one node. Registry errors
// (unknown type, schema rejection) and unclassified executor errors are
// folded into the uniform failure result here.
func (o *Orchestrator) dispatch(
	ctx context.Context,
	node *models.WorkflowNode,
	execCtx *execution.Context,
	deps protocol.Dependencies,
) *models.ExecutorResult {
	executor, err := o.registry.Create(node, deps)
	if err != nil {
		return models.Failure(node.Type, node.ID, err.Error())
	}

	result, err := executor.Execute(ctx, execCtx)
	if err != nil {
		return models.Failure(node.Type, node.ID, err.Error())
	}

	return result
}

func (o *Orchestrator) createStep(ctx context.Context, executionID, nodeID string) (*models.ExecutionStep, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate step ID: %w", err)
	}

	step := &models.ExecutionStep{
		ID:          id.String(),
		ExecutionID: executionID,
		NodeID:      nodeID,
		Status:      models.StepStatusRunning,
		StartedAt:   time.Now().UTC(),
	}

	if err := o.persistence.SaveExecutionStep(ctx, step); err != nil {
		return nil, fmt.Errorf("failed to create step for node %s: %w", nodeID, err)
	}

	return step, nil
}

// recordSkipped marks a node that was never activated by a taken handle, so
// the execution history shows a disposition for every node of the workflow.
func (o *Orchestrator) recordSkipped(ctx context.Context, executionID, nodeID string) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate step ID: %w", err)
	}

	now := time.Now().UTC()
	step := &models.ExecutionStep{
		ID:          id.String(),
		ExecutionID: executionID,
		NodeID:      nodeID,
		Status:      models.StepStatusSkipped,
		StartedAt:   now,
		CompletedAt: &now,
	}

	if err := o.persistence.SaveExecutionStep(ctx, step); err != nil {
		return fmt.Errorf("failed to record skipped node %s: %w", nodeID, err)
	}

	return nil
}

func (o *Orchestrator) appendLogs(ctx context.Context, executionID, nodeID string, entries []models.LogEntry) error {
	for _, entry := range entries {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate log ID: %w", err)
		}

		logLine := &models.ExecutionLog{
			ID:          id.String(),
			ExecutionID: executionID,
			NodeID:      nodeID,
			Level:       entry.Level,
			Message:     entry.Message,
			Data:        entry.Data,
			Timestamp:   time.Now().UTC(),
		}

		if err := o.persistence.AppendExecutionLog(ctx, logLine); err != nil {
			return fmt.Errorf("failed to append execution log: %w", err)
		}
	}

	return nil
}

func (o *Orchestrator) sealExecution(ctx context.Context, exec *models.Execution, status models.ExecutionStatus, message string) error {
	exec.Status = status

	if message != "" {
		exec.Error = &message
	}

	completedAt := time.Now().UTC()
	exec.CompletedAt = &completedAt

	if err := o.persistence.SaveExecution(ctx, exec); err != nil {
		return fmt.Errorf("failed to seal execution %s: %w", exec.ID, err)
	}

	return nil
}

// runState tracks which nodes have been activated by taken handles. Graph
// roots start activated; a successful node activates the targets of its
// outgoing connections whose source handle it selected.
type runState struct {
	connections []*models.Connection
	active      map[string]bool
}

func newRunState(wf *models.Workflow, order []*models.WorkflowNode) *runState {
	hasIncoming := make(map[string]bool, len(wf.Nodes))
	for _, conn := range wf.Connections {
		hasIncoming[conn.TargetNode] = true
	}

	active := make(map[string]bool, len(order))
	for _, node := range order {
		if !hasIncoming[node.ID] {
			active[node.ID] = true
		}
	}

	return &runState{connections: wf.Connections, active: active}
}

func (s *runState) activated(nodeID string) bool {
	return s.active[nodeID]
}

func (s *runState) activate(nodeID string, handles []string) {
	taken := make(map[string]bool, len(handles))
	for _, handle := range handles {
		taken[handle] = true
	}

	for _, conn := range s.connections {
		if conn.SourceNode == nodeID && taken[conn.FromHandle()] {
			s.active[conn.TargetNode] = true
		}
	}
}
