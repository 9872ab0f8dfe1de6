// Package database provides the Postgres and MongoDB query node executors.
// Both require a database-type credential scoped to the execution's owner.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/lib/pq"

	"github.com/braid-run/braid/pkg/execution"
	"github.com/braid-run/braid/pkg/models"
	"github.com/braid-run/braid/pkg/protocol"
)

type SQLOperation string

const (
	SQLOperationSelect SQLOperation = "select"
	SQLOperationInsert SQLOperation = "insert"
	SQLOperationUpdate SQLOperation = "update"
	SQLOperationDelete SQLOperation = "delete"
)

type PostgresExecutor struct {
	node   *models.WorkflowNode
	deps   protocol.Dependencies
	logger *slog.Logger

	operation SQLOperation
	query     string
	variable  string
}

func NewPostgresExecutor(node *models.WorkflowNode, deps protocol.Dependencies) (protocol.Executor, error) {
	if _, ok := node.Config["credential_id"].(string); !ok {
		return nil, fmt.Errorf("postgres config: 'credential_id' is required")
	}

	query, ok := node.Config["query"].(string)
	if !ok || query == "" {
		return nil, fmt.Errorf("postgres config: 'query' is required")
	}

	rawOp, ok := node.Config["operation"].(string)
	if !ok || rawOp == "" {
		return nil, fmt.Errorf("postgres config: 'operation' is required")
	}

	operation := SQLOperation(strings.ToLower(rawOp))

	switch operation {
	case SQLOperationSelect, SQLOperationInsert, SQLOperationUpdate, SQLOperationDelete:
	default:
		return nil, fmt.Errorf("postgres config: unknown operation %q", rawOp)
	}

	// The declared operation must match the statement verb so a node labeled
	// select cannot mutate data.
	verb := strings.ToLower(strings.Fields(strings.TrimSpace(query))[0])
	if verb != string(operation) && !(operation == SQLOperationSelect && verb == "with") {
		return nil, fmt.Errorf("postgres config: query verb %q does not match operation %q", verb, operation)
	}

	variable, _ := node.Config["variable"].(string)

	return &PostgresExecutor{
		node:      node,
		deps:      deps,
		logger:    deps.Logger,
		operation: operation,
		query:     query,
		variable:  variable,
	}, nil
}

func (e *PostgresExecutor) Execute(ctx context.Context, execCtx *execution.Context) (*models.ExecutorResult, error) {
	dsn, err := postgresDSN(ctx, e.deps, e.node.Config["credential_id"].(string))
	if err != nil {
		return models.Failure(e.node.Type, e.node.ID, err.Error()), nil
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return models.Failure(e.node.Type, e.node.ID,
			fmt.Sprintf("opening connection: %v", err)), nil
	}
	defer db.Close()

	params := resolveParams(e.node.Config["params"], execCtx)

	e.logger.InfoContext(ctx, "executing postgres query",
		"node_id", e.node.ID, "operation", string(e.operation))

	if e.operation == SQLOperationSelect {
		return e.runQuery(ctx, execCtx, db, params)
	}

	return e.runExec(ctx, db, params)
}

func (e *PostgresExecutor) runQuery(ctx context.Context, execCtx *execution.Context, db *sql.DB, params []any) (*models.ExecutorResult, error) {
	rows, err := db.QueryContext(ctx, e.query, params...)
	if err != nil {
		return models.Failure(e.node.Type, e.node.ID,
			fmt.Sprintf("query failed: %v", err)), nil
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return models.Failure(e.node.Type, e.node.ID, err.Error()), nil
	}

	results := []any{}

	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))

		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return models.Failure(e.node.Type, e.node.ID,
				fmt.Sprintf("scanning row: %v", err)), nil
		}

		row := make(map[string]any, len(columns))
		for i, column := range columns {
			row[column] = normalizeSQLValue(values[i])
		}

		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return models.Failure(e.node.Type, e.node.ID, err.Error()), nil
	}

	if e.variable != "" {
		execCtx.SetVariable(e.variable, results, "")
	}

	return &models.ExecutorResult{
		Success: true,
		Output: map[string]any{
			"rows":  results,
			"count": len(results),
		},
	}, nil
}

func (e *PostgresExecutor) runExec(ctx context.Context, db *sql.DB, params []any) (*models.ExecutorResult, error) {
	result, err := db.ExecContext(ctx, e.query, params...)
	if err != nil {
		return models.Failure(e.node.Type, e.node.ID,
			fmt.Sprintf("statement failed: %v", err)), nil
	}

	affected, err := result.RowsAffected()
	if err != nil {
		affected = 0
	}

	return &models.ExecutorResult{
		Success: true,
		Output: map[string]any{
			"rows_affected": affected,
		},
	}, nil
}

// postgresDSN builds a connection string from a database credential. A 'dsn'
// entry wins; otherwise host/port/user/password/dbname are assembled.
func postgresDSN(ctx context.Context, deps protocol.Dependencies, credentialID string) (string, error) {
	if deps.Credentials == nil {
		return "", fmt.Errorf("credential access is not configured")
	}

	cred, err := deps.Credentials.GetCredential(ctx, credentialID, deps.UserID)
	if err != nil {
		return "", fmt.Errorf("resolving credential: %w", err)
	}

	if cred.Type != models.CredentialTypeDatabase {
		return "", fmt.Errorf("credential %q is not a database credential", credentialID)
	}

	if dsn, ok := cred.Data["dsn"].(string); ok && dsn != "" {
		return dsn, nil
	}

	parts := []string{}

	for _, key := range []string{"host", "port", "user", "password", "dbname", "sslmode"} {
		if value, ok := cred.Data[key].(string); ok && value != "" {
			parts = append(parts, fmt.Sprintf("%s=%s", key, value))
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("credential %q has no connection details", credentialID)
	}

	return strings.Join(parts, " "), nil
}

func resolveParams(raw any, execCtx *execution.Context) []any {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}

	params := make([]any, len(list))

	for i, item := range list {
		if text, ok := item.(string); ok {
			params[i] = execCtx.ResolveValue(text)

			continue
		}

		params[i] = item
	}

	return params
}

func normalizeSQLValue(value any) any {
	if raw, ok := value.([]byte); ok {
		return string(raw)
	}

	return value
}
