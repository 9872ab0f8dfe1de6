// Package services holds the application layer between the HTTP surface and
// the engine: workflow lifecycle, trigger entry points, execution history
// reads, and credential management.
package services

import (
	"errors"
	"fmt"
)

// Validation errors map to 400 responses.
var (
	ErrInvalidRequest       = errors.New("invalid request")
	ErrWorkflowNil          = errors.New("workflow cannot be nil")
	ErrWorkflowNameRequired = errors.New("workflow name is required")
	ErrNodesRequired        = errors.New("workflow must have at least one node")
	ErrTriggerNodeRequired  = errors.New("workflow must have at least one trigger node")
	ErrUnknownNodeType      = errors.New("workflow references an unknown node type")
	ErrDanglingConnection   = errors.New("connection references a node that does not exist")
	ErrEmptyOwnerID         = errors.New("owner ID cannot be empty")

	// Conflicts map to 409 responses.
	ErrCannotModifyPublished = errors.New("cannot modify a published workflow")
	ErrNotDraft              = errors.New("only draft workflows can be published")
)

// ServiceError carries the failing operation alongside the cause.
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether the error should surface as HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrWorkflowNil) ||
		errors.Is(err, ErrWorkflowNameRequired) ||
		errors.Is(err, ErrNodesRequired) ||
		errors.Is(err, ErrTriggerNodeRequired) ||
		errors.Is(err, ErrUnknownNodeType) ||
		errors.Is(err, ErrDanglingConnection) ||
		errors.Is(err, ErrEmptyOwnerID)
}

// IsConflictError reports whether the error should surface as HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrCannotModifyPublished) ||
		errors.Is(err, ErrNotDraft)
}
