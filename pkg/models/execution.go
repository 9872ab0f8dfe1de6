package models

import (
	"fmt"
	"time"
)

// ExecutionStatus represents the lifecycle state of one workflow run.
type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "pending"
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
)

// Terminal reports whether the status is final. Terminal executions are
// never mutated again.
func (s ExecutionStatus) Terminal() bool {
	return s == ExecutionStatusCompleted || s == ExecutionStatusFailed
}

// TriggerType identifies what started an execution.
type TriggerType string

const (
	TriggerTypeManual   TriggerType = "manual"
	TriggerTypeWebhook  TriggerType = "webhook"
	TriggerTypeSchedule TriggerType = "schedule"
)

// Execution is one run of a workflow from trigger to terminal status.
type Execution struct {
	ID          string          `json:"id"`
	WorkflowID  string          `json:"workflow_id" validate:"required"`
	UserID      string          `json:"user_id"     validate:"required"`
	Status      ExecutionStatus `json:"status"`
	TriggeredBy TriggerType     `json:"triggered_by"`
	Error       *string         `json:"error,omitempty"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// StepStatus represents the state of a single node's run.
type StepStatus string

const (
	StepStatusRunning   StepStatus = "running"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped" // node never activated by a taken handle
)

// ExecutionStep records one node's run within one execution. Created when
// the orchestrator begins a node and sealed when it finishes.
type ExecutionStep struct {
	ID          string         `json:"id"`
	ExecutionID string         `json:"execution_id" validate:"required"`
	NodeID      string         `json:"node_id"      validate:"required"`
	Status      StepStatus     `json:"status"`
	Output      map[string]any `json:"output,omitempty"`
	Error       *string        `json:"error,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

// LogLevel is the severity of an execution log line.
type LogLevel string

const (
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// ExecutionLog is one line of the append-only audit trail for an execution.
type ExecutionLog struct {
	ID          string         `json:"id"`
	ExecutionID string         `json:"execution_id" validate:"required"`
	NodeID      string         `json:"node_id"`
	Level       LogLevel       `json:"level"`
	Message     string         `json:"message"`
	Data        map[string]any `json:"data,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

// NodeErrorMessage formats a node failure for steps and logs. The format is
// part of the observable contract and is relied on by the execution history.
func NodeErrorMessage(nodeType NodeType, nodeID string, message string) string {
	return fmt.Sprintf("%s node (%s): %s", nodeType, nodeID, message)
}
