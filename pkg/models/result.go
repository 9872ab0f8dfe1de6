package models

// LogEntry is a log line emitted by an executor during a node run. The
// orchestrator persists entries as ExecutionLogs.
type LogEntry struct {
	Level   LogLevel       `json:"level"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// ExecutorResult is the uniform contract every node executor returns.
// Handles names the output ports activated by this node; when empty, the
// orchestrator treats it as ["main"].
type ExecutorResult struct {
	Success bool           `json:"success"`
	Output  map[string]any `json:"output,omitempty"`
	Error   string         `json:"error,omitempty"`
	Logs    []LogEntry     `json:"logs,omitempty"`
	Handles []string       `json:"handles,omitempty"`
}

// Failure builds the uniform failure result for a node, with the standard
// error string mirrored into an error-level log entry.
func Failure(nodeType NodeType, nodeID, message string) *ExecutorResult {
	formatted := NodeErrorMessage(nodeType, nodeID, message)

	return &ExecutorResult{
		Success: false,
		Error:   formatted,
		Logs: []LogEntry{
			{Level: LogLevelError, Message: formatted},
		},
	}
}

// ActivatedHandles returns the output handles this result routes to.
func (r *ExecutorResult) ActivatedHandles() []string {
	if len(r.Handles) == 0 {
		return []string{DefaultHandle}
	}

	return r.Handles
}
