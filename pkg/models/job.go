package models

import "time"

// JobStatus represents the lifecycle state of a queued execution job. Each
// transition is owned exclusively by the dispatcher loop.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// ExecutionJob is a queued, not-yet-started execution request from an
// asynchronous trigger (webhook call or schedule tick).
type ExecutionJob struct {
	ID          string         `json:"id"`
	WorkflowID  string         `json:"workflow_id" validate:"required"`
	UserID      string         `json:"user_id"     validate:"required"`
	TriggerType TriggerType    `json:"trigger_type" validate:"required,oneof=webhook schedule"`
	Status      JobStatus      `json:"status"`
	ScheduledAt *time.Time     `json:"scheduled_at,omitempty"` // delayed schedule jobs
	WebhookData map[string]any `json:"webhook_data,omitempty"`
	Error       *string        `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Eligible reports whether the job may be dequeued at the given instant.
func (j *ExecutionJob) Eligible(now time.Time) bool {
	if j.Status != JobStatusPending {
		return false
	}

	return j.ScheduledAt == nil || !j.ScheduledAt.After(now)
}
