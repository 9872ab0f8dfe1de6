package registry

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braid-run/braid/pkg/execution"
	"github.com/braid-run/braid/pkg/models"
	"github.com/braid-run/braid/pkg/protocol"
)

type stubExecutor struct{}

func (s *stubExecutor) Execute(_ context.Context, _ *execution.Context) (*models.ExecutorResult, error) {
	return &models.ExecutorResult{Success: true}, nil
}

type stubFactory struct {
	nodeType models.NodeType
	schema   map[string]any
}

func (s *stubFactory) Create(_ *models.WorkflowNode, _ protocol.Dependencies) (protocol.Executor, error) {
	return &stubExecutor{}, nil
}

func (s *stubFactory) Type() models.NodeType  { return s.nodeType }
func (s *stubFactory) Name() string           { return string(s.nodeType) }
func (s *stubFactory) Description() string    { return "stub" }
func (s *stubFactory) Schema() map[string]any { return s.schema }

func TestRegistry_CreateUnsupportedType(t *testing.T) {
	r := NewRegistry(slog.Default())

	_, err := r.Create(&models.WorkflowNode{ID: "n1", Type: "teleport"}, protocol.Dependencies{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported node type "teleport"`)
}

func TestRegistry_CreateValidatesSchema(t *testing.T) {
	r := NewRegistry(slog.Default())
	r.Register(&stubFactory{
		nodeType: models.NodeTypeHTTPRequest,
		schema: map[string]any{
			"type":     "object",
			"required": []string{"url"},
		},
	})

	_, err := r.Create(&models.WorkflowNode{
		ID:     "n1",
		Type:   models.NodeTypeHTTPRequest,
		Config: map[string]any{},
	}, protocol.Dependencies{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid httprequest node config")

	executor, err := r.Create(&models.WorkflowNode{
		ID:     "n1",
		Type:   models.NodeTypeHTTPRequest,
		Config: map[string]any{"url": "https://example.com"},
	}, protocol.Dependencies{})
	require.NoError(t, err)
	assert.NotNil(t, executor)
}

func TestRegistry_LaterRegistrationWins(t *testing.T) {
	r := NewRegistry(slog.Default())

	first := &stubFactory{nodeType: models.NodeTypeDelay}
	second := &stubFactory{nodeType: models.NodeTypeDelay}

	r.Register(first)
	r.Register(second)

	factory, ok := r.Factory(models.NodeTypeDelay)
	require.True(t, ok)
	assert.Same(t, second, factory)
}

func TestRegisterDefaultExecutors_CoversAllTypes(t *testing.T) {
	r := NewRegistry(slog.Default())
	RegisterDefaultExecutors(r)

	for _, nodeType := range models.AllNodeTypes {
		_, ok := r.Factory(nodeType)
		assert.True(t, ok, string(nodeType))
	}

	assert.Equal(t, models.AllNodeTypes, r.Types())
}

func TestRegistry_FactoryMetadata(t *testing.T) {
	r := NewRegistry(slog.Default())
	RegisterDefaultExecutors(r)

	for _, nodeType := range r.Types() {
		factory, ok := r.Factory(nodeType)
		require.True(t, ok)

		assert.Equal(t, nodeType, factory.Type())
		assert.NotEmpty(t, factory.Name(), string(nodeType))
		assert.NotEmpty(t, factory.Description(), string(nodeType))
	}
}
