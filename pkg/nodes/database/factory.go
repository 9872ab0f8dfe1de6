package database

import (
	"github.com/braid-run/braid/pkg/models"
	"github.com/braid-run/braid/pkg/protocol"
)

type PostgresFactory struct{}

func NewPostgresFactory() protocol.ExecutorFactory { return &PostgresFactory{} }

func (f *PostgresFactory) Create(node *models.WorkflowNode, deps protocol.Dependencies) (protocol.Executor, error) {
	return NewPostgresExecutor(node, deps)
}

func (f *PostgresFactory) Type() models.NodeType { return models.NodeTypePostgresQuery }
func (f *PostgresFactory) Name() string          { return "Postgres Query" }

func (f *PostgresFactory) Description() string {
	return "Runs a SQL statement against PostgreSQL using a database credential"
}

func (f *PostgresFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"credential_id": map[string]any{
				"type":        "string",
				"description": "Database credential holding the connection details",
			},
			"operation": map[string]any{
				"type": "string",
				"enum": []string{"select", "insert", "update", "delete"},
			},
			"query": map[string]any{
				"type":        "string",
				"description": "SQL statement with $1-style placeholders",
			},
			"params": map[string]any{
				"type":        "array",
				"description": "Positional parameters. String entries support templating",
			},
			"variable": map[string]any{
				"type":        "string",
				"description": "Context variable that receives the result rows",
			},
		},
		"required": []string{"credential_id", "operation", "query"},
	}
}

type MongoFactory struct{}

func NewMongoFactory() protocol.ExecutorFactory { return &MongoFactory{} }

func (f *MongoFactory) Create(node *models.WorkflowNode, deps protocol.Dependencies) (protocol.Executor, error) {
	return NewMongoExecutor(node, deps)
}

func (f *MongoFactory) Type() models.NodeType { return models.NodeTypeMongoQuery }
func (f *MongoFactory) Name() string          { return "MongoDB Query" }

func (f *MongoFactory) Description() string {
	return "Runs a MongoDB operation using a database credential"
}

func (f *MongoFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"credential_id": map[string]any{
				"type":        "string",
				"description": "Database credential holding the connection URI",
			},
			"database":   map[string]any{"type": "string"},
			"collection": map[string]any{"type": "string"},
			"operation": map[string]any{
				"type": "string",
				"enum": []string{"find", "insert", "update", "delete", "aggregate"},
			},
			"filter": map[string]any{
				"type":        "object",
				"description": "Query filter. Values support templating",
			},
			"document": map[string]any{
				"type":        "object",
				"description": "Document to insert",
			},
			"update": map[string]any{
				"type":        "object",
				"description": "Update document, e.g. {\"$set\": {...}}",
			},
			"pipeline": map[string]any{
				"type":        "array",
				"description": "Aggregation pipeline stages",
			},
			"variable": map[string]any{
				"type":        "string",
				"description": "Context variable that receives the result documents",
			},
		},
		"required": []string{"credential_id", "database", "collection", "operation"},
	}
}
