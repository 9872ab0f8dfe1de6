package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/braid-run/braid/pkg/models"
	"github.com/braid-run/braid/pkg/persistence"
	"github.com/braid-run/braid/pkg/registry"
)

// Workflow manages the workflow lifecycle: draft edits, publishing, and
// reads. Published workflows are immutable; unpublish-then-edit is a future
// concern and not supported here.
type Workflow struct {
	persistence persistence.Persistence
	registry    *registry.Registry
	validate    *validator.Validate
}

func NewWorkflow(store persistence.Persistence, reg *registry.Registry) *Workflow {
	return &Workflow{
		persistence: store,
		registry:    reg,
		validate:    validator.New(),
	}
}

// HealthCheck reports whether the persistence layer is reachable.
func (s *Workflow) HealthCheck(ctx context.Context) error {
	return s.persistence.HealthCheck(ctx)
}

// List returns every live workflow.
func (s *Workflow) List(ctx context.Context) ([]*models.Workflow, error) {
	return s.persistence.Workflows(ctx)
}

// FetchByID loads one workflow.
func (s *Workflow) FetchByID(ctx context.Context, id string) (*models.Workflow, error) {
	return s.persistence.WorkflowByID(ctx, id)
}

// Save validates and stores a workflow. New workflows start as drafts;
// published workflows reject further edits.
func (s *Workflow) Save(ctx context.Context, wf *models.Workflow) (*models.Workflow, error) {
	if wf == nil {
		return nil, &ServiceError{Op: "save workflow", Err: ErrWorkflowNil}
	}

	if wf.Status == "" {
		wf.Status = models.WorkflowStatusDraft
	}

	if err := s.validate.Struct(wf); err != nil {
		return nil, &ServiceError{Op: "save workflow", Err: fmt.Errorf("%w: %w", ErrInvalidRequest, err)}
	}

	if err := s.validateGraph(wf); err != nil {
		return nil, &ServiceError{Op: "save workflow", Err: err}
	}

	now := time.Now().UTC()

	if wf.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("failed to generate workflow ID: %w", err)
		}

		wf.ID = id.String()
		wf.CreatedAt = now
	} else {
		existing, err := s.persistence.WorkflowByID(ctx, wf.ID)
		if err == nil && existing.Status == models.WorkflowStatusPublished {
			return nil, &ServiceError{Op: "save workflow", Err: ErrCannotModifyPublished}
		}
	}

	wf.UpdatedAt = now

	if err := s.persistence.SaveWorkflow(ctx, wf); err != nil {
		return nil, fmt.Errorf("failed to save workflow: %w", err)
	}

	return wf, nil
}

// Publish flips a draft to published after checking it is actually runnable:
// it needs a trigger root, known node types, and connections whose endpoints
// exist.
func (s *Workflow) Publish(ctx context.Context, id string) (*models.Workflow, error) {
	wf, err := s.persistence.WorkflowByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if wf.Status != models.WorkflowStatusDraft {
		return nil, &ServiceError{Op: "publish workflow", Err: ErrNotDraft}
	}

	if err := s.validatePublishable(wf); err != nil {
		return nil, &ServiceError{Op: "publish workflow", Err: err}
	}

	wf.Status = models.WorkflowStatusPublished

	if err := s.persistence.SaveWorkflow(ctx, wf); err != nil {
		return nil, fmt.Errorf("failed to publish workflow: %w", err)
	}

	return wf, nil
}

// Delete soft-deletes a workflow.
func (s *Workflow) Delete(ctx context.Context, id string) error {
	return s.persistence.DeleteWorkflow(ctx, id)
}

func (s *Workflow) validateGraph(wf *models.Workflow) error {
	nodeIDs := make(map[string]bool, len(wf.Nodes))

	for _, node := range wf.Nodes {
		nodeIDs[node.ID] = true

		if _, ok := s.registry.Factory(node.Type); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownNodeType, node.Type)
		}
	}

	for _, conn := range wf.Connections {
		if !nodeIDs[conn.SourceNode] || !nodeIDs[conn.TargetNode] {
			return fmt.Errorf("%w: %s -> %s", ErrDanglingConnection, conn.SourceNode, conn.TargetNode)
		}
	}

	return nil
}

func (s *Workflow) validatePublishable(wf *models.Workflow) error {
	if wf.Name == "" {
		return ErrWorkflowNameRequired
	}

	if len(wf.Nodes) == 0 {
		return ErrNodesRequired
	}

	hasTrigger := false

	for _, node := range wf.Nodes {
		if node.Type.IsTrigger() {
			hasTrigger = true

			break
		}
	}

	if !hasTrigger {
		return ErrTriggerNodeRequired
	}

	return s.validateGraph(wf)
}
