package domain

import "fmt"

// Run represents one execution of an agent against a thread.
type Run struct {
	ID          string    `json:"id"`
	Object      string    `json:"object,omitempty"`
	ThreadID    string    `json:"thread_id"`
	AgentID     string    `json:"assistant_id"`
	Status      RunStatus `json:"status"`
	LastError   *RunError `json:"last_error,omitempty"`
	CreatedAt   int64     `json:"created_at,omitempty"`
	CompletedAt int64     `json:"completed_at,omitempty"`
	FailedAt    int64     `json:"failed_at,omitempty"`
}

// CreateRunRequest is the body for starting a run.
type CreateRunRequest struct {
	AgentID string `json:"assistant_id"`
}

// RunError is the last error reported for a run.
type RunError struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

func (e *RunError) String() string {
	if e == nil {
		return "<none>"
	}
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
