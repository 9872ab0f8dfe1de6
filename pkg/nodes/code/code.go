// Package code provides the sandboxed expression node executor. Scripts run
// inside an expr-lang VM with the execution state exposed as the environment,
// so they can compute over variables and node outputs without host access.
package code

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/braid-run/braid/pkg/execution"
	"github.com/braid-run/braid/pkg/models"
	"github.com/braid-run/braid/pkg/protocol"
)

type Executor struct {
	node     *models.WorkflowNode
	logger   *slog.Logger
	script   string
	variable string

	mu      sync.Mutex
	program *vm.Program
}

func NewExecutor(node *models.WorkflowNode, deps protocol.Dependencies) (protocol.Executor, error) {
	script, ok := node.Config["script"].(string)
	if !ok || script == "" {
		return nil, fmt.Errorf("code config: 'script' is required")
	}

	variable, _ := node.Config["variable"].(string)

	return &Executor{
		node:     node,
		logger:   deps.Logger,
		script:   script,
		variable: variable,
	}, nil
}

func (e *Executor) Execute(ctx context.Context, execCtx *execution.Context) (*models.ExecutorResult, error) {
	env := environment(execCtx)

	program, err := e.compile(env)
	if err != nil {
		return models.Failure(e.node.Type, e.node.ID,
			fmt.Sprintf("compile error: %v", err)), nil
	}

	output, err := vm.Run(program, env)
	if err != nil {
		return models.Failure(e.node.Type, e.node.ID,
			fmt.Sprintf("script failed: %v", err)), nil
	}

	if e.variable != "" {
		execCtx.SetVariable(e.variable, output, "")
	}

	e.logger.DebugContext(ctx, "script evaluated", "node_id", e.node.ID)

	return &models.ExecutorResult{
		Success: true,
		Output:  map[string]any{"result": output},
	}, nil
}

func (e *Executor) compile(env map[string]any) (*vm.Program, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.program != nil {
		return e.program, nil
	}

	program, err := expr.Compile(e.script,
		expr.Env(env),
		expr.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, err
	}

	e.program = program

	return program, nil
}

// environment exposes the execution state to the script: variables under
// vars, node outputs under outputs, and the trigger payload under trigger.
func environment(execCtx *execution.Context) map[string]any {
	return map[string]any{
		"vars":    execCtx.VariableValues(),
		"outputs": execCtx.OutputValues(),
		"trigger": execCtx.TriggerData,
	}
}

type Factory struct{}

func NewFactory() protocol.ExecutorFactory { return &Factory{} }

func (f *Factory) Create(node *models.WorkflowNode, deps protocol.Dependencies) (protocol.Executor, error) {
	return NewExecutor(node, deps)
}

func (f *Factory) Type() models.NodeType { return models.NodeTypeCodeExecute }
func (f *Factory) Name() string          { return "Code" }

func (f *Factory) Description() string {
	return "Evaluates a sandboxed expression over the execution state"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"script": map[string]any{
				"type":        "string",
				"description": "Expression with access to vars, outputs, and trigger",
			},
			"variable": map[string]any{
				"type":        "string",
				"description": "Context variable that receives the result",
			},
		},
		"required": []string{"script"},
	}
}
