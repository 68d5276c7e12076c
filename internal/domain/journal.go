package domain

import (
	"encoding/json"
	"time"
)

// Invocation is the local record of one script invocation.
type Invocation struct {
	InvocationID string     `json:"invocation_id"`
	Query        string     `json:"query"`
	AgentID      string     `json:"agent_id,omitempty"`
	ThreadID     string     `json:"thread_id,omitempty"`
	RunID        string     `json:"run_id,omitempty"`
	Status       RunStatus  `json:"status,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
	SummaryPath  string     `json:"summary_path,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
}

// JournalMessage is an agent message as it was shown to the user.
type JournalMessage struct {
	MessageID    string        `json:"message_id"`
	InvocationID string        `json:"invocation_id"`
	Text         string        `json:"text"`
	Citations    []URLCitation `json:"citations,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// EventType represents the type of a journal event.
type EventType string

const (
	EventTypeInvocationStarted EventType = "invocation_started"
	EventTypeAgentCreated      EventType = "agent_created"
	EventTypeRunStarted        EventType = "run_started"
	EventTypeRunStatus         EventType = "run_status"
	EventTypeAgentMessage      EventType = "agent_message"
	EventTypeRunFinished       EventType = "run_finished"
	EventTypeSummaryWritten    EventType = "summary_written"
	EventTypeAgentDeleted      EventType = "agent_deleted"
)

// Event is a timestamped journal entry for an invocation.
type Event struct {
	EventID      string          `json:"event_id"`
	InvocationID string          `json:"invocation_id"`
	Ts           int64           `json:"ts"` // Unix milliseconds
	Type         EventType       `json:"type"`
	Payload      json.RawMessage `json:"payload,omitempty"`
}
