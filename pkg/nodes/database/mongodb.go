package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/braid-run/braid/pkg/execution"
	"github.com/braid-run/braid/pkg/models"
	"github.com/braid-run/braid/pkg/protocol"
)

type MongoOperation string

const (
	MongoOperationFind      MongoOperation = "find"
	MongoOperationInsert    MongoOperation = "insert"
	MongoOperationUpdate    MongoOperation = "update"
	MongoOperationDelete    MongoOperation = "delete"
	MongoOperationAggregate MongoOperation = "aggregate"
)

const mongoConnectTimeout = 10 * time.Second

type MongoExecutor struct {
	node   *models.WorkflowNode
	deps   protocol.Dependencies
	logger *slog.Logger

	operation  MongoOperation
	database   string
	collection string
	variable   string
}

func NewMongoExecutor(node *models.WorkflowNode, deps protocol.Dependencies) (protocol.Executor, error) {
	if _, ok := node.Config["credential_id"].(string); !ok {
		return nil, fmt.Errorf("mongodb config: 'credential_id' is required")
	}

	database, ok := node.Config["database"].(string)
	if !ok || database == "" {
		return nil, fmt.Errorf("mongodb config: 'database' is required")
	}

	collection, ok := node.Config["collection"].(string)
	if !ok || collection == "" {
		return nil, fmt.Errorf("mongodb config: 'collection' is required")
	}

	rawOp, ok := node.Config["operation"].(string)
	if !ok {
		return nil, fmt.Errorf("mongodb config: 'operation' is required")
	}

	operation := MongoOperation(rawOp)

	switch operation {
	case MongoOperationFind, MongoOperationInsert, MongoOperationUpdate,
		MongoOperationDelete, MongoOperationAggregate:
	default:
		return nil, fmt.Errorf("mongodb config: unknown operation %q", rawOp)
	}

	variable, _ := node.Config["variable"].(string)

	return &MongoExecutor{
		node:       node,
		deps:       deps,
		logger:     deps.Logger,
		operation:  operation,
		database:   database,
		collection: collection,
		variable:   variable,
	}, nil
}

func (e *MongoExecutor) Execute(ctx context.Context, execCtx *execution.Context) (*models.ExecutorResult, error) {
	uri, err := mongoURI(ctx, e.deps, e.node.Config["credential_id"].(string))
	if err != nil {
		return models.Failure(e.node.Type, e.node.ID, err.Error()), nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return models.Failure(e.node.Type, e.node.ID,
			fmt.Sprintf("connecting to mongodb: %v", err)), nil
	}

	defer func() {
		_ = client.Disconnect(context.WithoutCancel(ctx))
	}()

	collection := client.Database(e.database).Collection(e.collection)

	e.logger.InfoContext(ctx, "executing mongodb operation",
		"node_id", e.node.ID, "operation", string(e.operation),
		"database", e.database, "collection", e.collection)

	output, err := e.run(ctx, execCtx, collection)
	if err != nil {
		return models.Failure(e.node.Type, e.node.ID, err.Error()), nil
	}

	return &models.ExecutorResult{Success: true, Output: output}, nil
}

func (e *MongoExecutor) run(ctx context.Context, execCtx *execution.Context, collection *mongo.Collection) (map[string]any, error) {
	filter := resolveDocument(e.node.Config["filter"], execCtx)

	switch e.operation {
	case MongoOperationFind:
		cursor, err := collection.Find(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("find failed: %w", err)
		}

		return e.collectDocuments(ctx, execCtx, cursor)
	case MongoOperationAggregate:
		pipeline, err := resolvePipeline(e.node.Config["pipeline"], execCtx)
		if err != nil {
			return nil, err
		}

		cursor, err := collection.Aggregate(ctx, pipeline)
		if err != nil {
			return nil, fmt.Errorf("aggregate failed: %w", err)
		}

		return e.collectDocuments(ctx, execCtx, cursor)
	case MongoOperationInsert:
		document := resolveDocument(e.node.Config["document"], execCtx)
		if len(document) == 0 {
			return nil, fmt.Errorf("'document' is required for insert")
		}

		result, err := collection.InsertOne(ctx, document)
		if err != nil {
			return nil, fmt.Errorf("insert failed: %w", err)
		}

		return map[string]any{
			"inserted_id": fmt.Sprintf("%v", result.InsertedID),
		}, nil
	case MongoOperationUpdate:
		update := resolveDocument(e.node.Config["update"], execCtx)
		if len(update) == 0 {
			return nil, fmt.Errorf("'update' is required for update")
		}

		result, err := collection.UpdateMany(ctx, filter, update)
		if err != nil {
			return nil, fmt.Errorf("update failed: %w", err)
		}

		return map[string]any{
			"matched_count":  result.MatchedCount,
			"modified_count": result.ModifiedCount,
		}, nil
	case MongoOperationDelete:
		result, err := collection.DeleteMany(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("delete failed: %w", err)
		}

		return map[string]any{
			"deleted_count": result.DeletedCount,
		}, nil
	default:
		return nil, fmt.Errorf("unknown operation %q", e.operation)
	}
}

func (e *MongoExecutor) collectDocuments(ctx context.Context, execCtx *execution.Context, cursor *mongo.Cursor) (map[string]any, error) {
	defer cursor.Close(ctx)

	documents := []any{}

	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decoding document: %w", err)
		}

		documents = append(documents, map[string]any(doc))
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterating cursor: %w", err)
	}

	if e.variable != "" {
		execCtx.SetVariable(e.variable, documents, "")
	}

	return map[string]any{
		"documents": documents,
		"count":     len(documents),
	}, nil
}

func mongoURI(ctx context.Context, deps protocol.Dependencies, credentialID string) (string, error) {
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

	uri, ok := cred.Data["uri"].(string)
	if !ok || uri == "" {
		return "", fmt.Errorf("credential %q has no uri", credentialID)
	}

	return uri, nil
}

// resolveDocument templates a config map and converts it to bson.M.
func resolveDocument(raw any, execCtx *execution.Context) bson.M {
	resolved, ok := execCtx.ResolveTemplateInObject(raw).(map[string]any)
	if !ok {
		return bson.M{}
	}

	return bson.M(resolved)
}

func resolvePipeline(raw any, execCtx *execution.Context) (mongo.Pipeline, error) {
	stages, ok := execCtx.ResolveTemplateInObject(raw).([]any)
	if !ok {
		return nil, fmt.Errorf("'pipeline' must be a list of stages")
	}

	pipeline := make(mongo.Pipeline, 0, len(stages))

	for i, stage := range stages {
		doc, ok := stage.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("pipeline stage %d must be an object", i)
		}

		stageDoc := bson.D{}
		for key, value := range doc {
			stageDoc = append(stageDoc, bson.E{Key: key, Value: value})
		}

		pipeline = append(pipeline, stageDoc)
	}

	return pipeline, nil
}
