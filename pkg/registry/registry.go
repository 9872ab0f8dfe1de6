// Package registry maps node types to their executor factories. The type
// set is closed: every supported type is registered at startup and an
// unknown type is a hard error, kept as a guard even though the constant
// set makes it unreachable in practice.
package registry

import (
	"fmt"
	"log/slog"

	"github.com/braid-run/braid/pkg/models"
	"github.com/braid-run/braid/pkg/protocol"
	"github.com/xeipuuv/gojsonschema"
)

type Registry struct {
	logger    *slog.Logger
	factories map[models.NodeType]protocol.ExecutorFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger,
		factories: make(map[models.NodeType]protocol.ExecutorFactory),
	}
}

// Register adds a factory. Later registrations for the same type win, which
// keeps tests free to swap in fakes.
func (r *Registry) Register(factory protocol.ExecutorFactory) {
	r.factories[factory.Type()] = factory
}

// Create validates the node's configuration against the factory schema and
// builds its executor.
func (r *Registry) Create(node *models.WorkflowNode, deps protocol.Dependencies) (protocol.Executor, error) {
	factory, ok := r.factories[node.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported node type %q", node.Type)
	}

	if err := r.validateConfig(factory, node); err != nil {
		return nil, err
	}

	return factory.Create(node, deps)
}

// Factory returns the factory registered for a node type.
func (r *Registry) Factory(nodeType models.NodeType) (protocol.ExecutorFactory, bool) {
	factory, ok := r.factories[nodeType]

	return factory, ok
}

// Types returns the registered node types in models.AllNodeTypes order.
func (r *Registry) Types() []models.NodeType {
	types := make([]models.NodeType, 0, len(r.factories))

	for _, t := range models.AllNodeTypes {
		if _, ok := r.factories[t]; ok {
			types = append(types, t)
		}
	}

	return types
}

func (r *Registry) validateConfig(factory protocol.ExecutorFactory, node *models.WorkflowNode) error {
	schema := factory.Schema()
	if schema == nil {
		return nil
	}

	config := node.Config
	if config == nil {
		config = map[string]any{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewGoLoader(config),
	)
	if err != nil {
		return fmt.Errorf("failed to validate %s node config: %w", node.Type, err)
	}

	if !result.Valid() {
		first := result.Errors()[0]

		return fmt.Errorf("invalid %s node config: %s", node.Type, first.String())
	}

	return nil
}
