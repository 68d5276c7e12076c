// Package domain defines the records exchanged with the remote agent service.
package domain

// RunStatus represents the status of a run.
type RunStatus string

const (
	RunStatusQueued         RunStatus = "queued"
	RunStatusInProgress     RunStatus = "in_progress"
	RunStatusRequiresAction RunStatus = "requires_action"
	RunStatusCancelling     RunStatus = "cancelling"
	RunStatusCancelled      RunStatus = "cancelled"
	RunStatusFailed         RunStatus = "failed"
	RunStatusCompleted      RunStatus = "completed"
	RunStatusExpired        RunStatus = "expired"
	RunStatusIncomplete     RunStatus = "incomplete"
)

// IsPending reports whether the run should keep being polled.
// Only queued and in_progress are pending; any other value is terminal.
func (s RunStatus) IsPending() bool {
	switch s {
	case RunStatusQueued, RunStatusInProgress:
		return true
	}
	return false
}

// MessageRole represents the author of a thread message.
type MessageRole string

const (
	MessageRoleUser  MessageRole = "user"
	MessageRoleAgent MessageRole = "assistant"
)

// ContentType represents the type of a message content block.
type ContentType string

const (
	ContentTypeText ContentType = "text"
)

// AnnotationType represents the type of a text annotation.
type AnnotationType string

const (
	AnnotationTypeURLCitation  AnnotationType = "url_citation"
	AnnotationTypeFileCitation AnnotationType = "file_citation"
)

// ToolType represents the type of a tool definition.
type ToolType string

const (
	ToolTypeDeepResearch ToolType = "deep_research"
)
