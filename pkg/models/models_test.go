package models

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkflow_Validation_Valid(t *testing.T) {
	workflow := &Workflow{
		ID:      "wf-1",
		Name:    "Order sync",
		Status:  WorkflowStatusPublished,
		OwnerID: "user-1",
	}

	validate := validator.New()
	assert.NoError(t, validate.Struct(workflow))
}

func TestWorkflow_Validation_ShortName(t *testing.T) {
	workflow := &Workflow{
		ID:      "wf-1",
		Name:    "ab",
		Status:  WorkflowStatusDraft,
		OwnerID: "user-1",
	}

	validate := validator.New()
	assert.Error(t, validate.Struct(workflow))
}

func TestWorkflow_NodeByID(t *testing.T) {
	workflow := &Workflow{
		Nodes: []*WorkflowNode{
			{ID: "a", Type: NodeTypeManualTrigger},
			{ID: "b", Type: NodeTypeHTTPRequest},
		},
	}

	node := workflow.NodeByID("b")
	require.NotNil(t, node)
	assert.Equal(t, NodeTypeHTTPRequest, node.Type)
	assert.Nil(t, workflow.NodeByID("missing"))
}

func TestNodeType_IsTrigger(t *testing.T) {
	assert.True(t, NodeTypeManualTrigger.IsTrigger())
	assert.True(t, NodeTypeScheduleTrigger.IsTrigger())
	assert.False(t, NodeTypeHTTPRequest.IsTrigger())
	assert.False(t, NodeTypeDelay.IsTrigger())
}

func TestConnection_FromHandle_Default(t *testing.T) {
	conn := &Connection{SourceNode: "a", TargetNode: "b"}
	assert.Equal(t, "main", conn.FromHandle())

	conn.SourceHandle = "true"
	assert.Equal(t, "true", conn.FromHandle())
}

func TestExecutionStatus_Terminal(t *testing.T) {
	assert.False(t, ExecutionStatusPending.Terminal())
	assert.False(t, ExecutionStatusRunning.Terminal())
	assert.True(t, ExecutionStatusCompleted.Terminal())
	assert.True(t, ExecutionStatusFailed.Terminal())
}

func TestExecutionJob_Eligible(t *testing.T) {
	now := time.Now().UTC()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	job := &ExecutionJob{Status: JobStatusPending}
	assert.True(t, job.Eligible(now), "pending job with no schedule is eligible")

	job.ScheduledAt = &future
	assert.False(t, job.Eligible(now), "future scheduled job is not eligible")

	job.ScheduledAt = &past
	assert.True(t, job.Eligible(now))

	job.Status = JobStatusProcessing
	assert.False(t, job.Eligible(now), "only pending jobs are eligible")
}

func TestNodeErrorMessage_Format(t *testing.T) {
	msg := NodeErrorMessage(NodeTypeHTTPRequest, "node-7", "request timed out")
	assert.Equal(t, "httprequest node (node-7): request timed out", msg)
}

func TestExecutorResult_ActivatedHandles(t *testing.T) {
	result := &ExecutorResult{Success: true}
	assert.Equal(t, []string{"main"}, result.ActivatedHandles())

	result.Handles = []string{"false"}
	assert.Equal(t, []string{"false"}, result.ActivatedHandles())
}
