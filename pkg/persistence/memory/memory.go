// Package memory provides an in-memory persistence implementation for tests
// and single-process development runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/braid-run/braid/pkg/models"
	"github.com/braid-run/braid/pkg/persistence"
)

type Persistence struct {
	mu sync.RWMutex

	workflows   map[string]*models.Workflow
	executions  map[string]*models.Execution
	steps       map[string][]*models.ExecutionStep
	logs        map[string][]*models.ExecutionLog
	credentials map[string]*models.Credential
}

func NewPersistence() *Persistence {
	return &Persistence{
		workflows:   make(map[string]*models.Workflow),
		executions:  make(map[string]*models.Execution),
		steps:       make(map[string][]*models.ExecutionStep),
		logs:        make(map[string][]*models.ExecutionLog),
		credentials: make(map[string]*models.Credential),
	}
}

var _ persistence.Persistence = (*Persistence)(nil)

func (p *Persistence) Workflows(_ context.Context) ([]*models.Workflow, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	workflows := make([]*models.Workflow, 0, len(p.workflows))

	for _, workflow := range p.workflows {
		if workflow.DeletedAt == nil {
			workflows = append(workflows, workflow)
		}
	}

	sort.Slice(workflows, func(i, j int) bool {
		return workflows[i].CreatedAt.Before(workflows[j].CreatedAt)
	})

	return workflows, nil
}

func (p *Persistence) PublishedWorkflows(ctx context.Context) ([]*models.Workflow, error) {
	workflows, err := p.Workflows(ctx)
	if err != nil {
		return nil, err
	}

	published := make([]*models.Workflow, 0, len(workflows))

	for _, workflow := range workflows {
		if workflow.Status == models.WorkflowStatusPublished {
			published = append(published, workflow)
		}
	}

	return published, nil
}

func (p *Persistence) SaveWorkflow(_ context.Context, workflow *models.Workflow) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.workflows[workflow.ID] = workflow

	return nil
}

func (p *Persistence) WorkflowByID(_ context.Context, id string) (*models.Workflow, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	workflow, ok := p.workflows[id]
	if !ok || workflow.DeletedAt != nil {
		return nil, persistence.NewWorkflowError("GetByID", id, persistence.ErrWorkflowNotFound)
	}

	return workflow, nil
}

func (p *Persistence) DeleteWorkflow(ctx context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	workflow, ok := p.workflows[id]
	if !ok || workflow.DeletedAt != nil {
		return persistence.NewWorkflowError("Delete", id, persistence.ErrWorkflowNotFound)
	}

	now := time.Now().UTC()
	workflow.DeletedAt = &now

	return nil
}

func (p *Persistence) SaveExecution(_ context.Context, execution *models.Execution) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.executions[execution.ID] = execution

	return nil
}

func (p *Persistence) ExecutionByID(_ context.Context, id string) (*models.Execution, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	execution, ok := p.executions[id]
	if !ok {
		return nil, persistence.NewExecutionError("GetByID", id, persistence.ErrExecutionNotFound)
	}

	return execution, nil
}

func (p *Persistence) ExecutionsByWorkflow(_ context.Context, workflowID string, limit int) ([]*models.Execution, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	executions := []*models.Execution{}

	for _, execution := range p.executions {
		if execution.WorkflowID == workflowID {
			executions = append(executions, execution)
		}
	}

	sort.Slice(executions, func(i, j int) bool {
		return executions[i].StartedAt.After(executions[j].StartedAt)
	})

	if limit > 0 && len(executions) > limit {
		executions = executions[:limit]
	}

	return executions, nil
}

func (p *Persistence) SaveExecutionStep(_ context.Context, step *models.ExecutionStep) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	steps := p.steps[step.ExecutionID]

	for i, existing := range steps {
		if existing.ID == step.ID {
			steps[i] = step

			return nil
		}
	}

	p.steps[step.ExecutionID] = append(steps, step)

	return nil
}

func (p *Persistence) ExecutionSteps(_ context.Context, executionID string) ([]*models.ExecutionStep, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	steps := make([]*models.ExecutionStep, len(p.steps[executionID]))
	copy(steps, p.steps[executionID])

	return steps, nil
}

func (p *Persistence) AppendExecutionLog(_ context.Context, log *models.ExecutionLog) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.logs[log.ExecutionID] = append(p.logs[log.ExecutionID], log)

	return nil
}

func (p *Persistence) ExecutionLogs(_ context.Context, executionID string) ([]*models.ExecutionLog, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	logs := make([]*models.ExecutionLog, len(p.logs[executionID]))
	copy(logs, p.logs[executionID])

	return logs, nil
}

func (p *Persistence) SaveCredential(_ context.Context, credential *models.Credential) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.credentials[credential.ID] = credential

	return nil
}

func (p *Persistence) CredentialByID(_ context.Context, id string) (*models.Credential, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.credentials[id], nil
}

func (p *Persistence) CredentialsByOwner(_ context.Context, ownerID string) ([]*models.Credential, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	credentials := []*models.Credential{}

	for _, credential := range p.credentials {
		if credential.OwnerID == ownerID {
			credentials = append(credentials, credential)
		}
	}

	sort.Slice(credentials, func(i, j int) bool {
		return credentials[i].CreatedAt.Before(credentials[j].CreatedAt)
	})

	return credentials, nil
}

func (p *Persistence) DeleteCredential(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.credentials, id)

	return nil
}

func (p *Persistence) HealthCheck(_ context.Context) error { return nil }

func (p *Persistence) Close(_ context.Context) error { return nil }
