package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStatusIsPending(t *testing.T) {
	assert.True(t, RunStatusQueued.IsPending())
	assert.True(t, RunStatusInProgress.IsPending())

	for _, s := range []RunStatus{
		RunStatusCompleted, RunStatusFailed, RunStatusRequiresAction,
		RunStatusCancelled, RunStatusExpired, RunStatusIncomplete, RunStatus("something_new"),
	} {
		assert.False(t, s.IsPending(), "status %s", s)
	}
}

func TestMessageDecodeSegmentsAndCitations(t *testing.T) {
	raw := `{
		"id": "msg_1",
		"thread_id": "thread_1",
		"role": "assistant",
		"content": [
			{"type": "text", "text": {"value": "first", "annotations": [
				{"type": "url_citation", "text": "[1]", "url_citation": {"url": "https://a.example", "title": "A"}},
				{"type": "file_citation", "text": "[2]"}
			]}},
			{"type": "image_file"},
			{"type": "text", "text": {"value": "second", "annotations": [
				{"type": "url_citation", "url_citation": {"url": "https://b.example"}}
			]}}
		]
	}`

	var msg Message
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))

	assert.Equal(t, MessageRoleAgent, msg.Role)
	assert.Equal(t, []string{"first", "second"}, msg.TextSegments())

	citations := msg.URLCitations()
	require.Len(t, citations, 2)
	assert.Equal(t, "A", citations[0].DisplayTitle())
	assert.Equal(t, "https://b.example", citations[1].DisplayTitle())
}

func TestNilMessageHelpers(t *testing.T) {
	var msg *Message
	assert.Nil(t, msg.TextSegments())
	assert.Nil(t, msg.URLCitations())
}

func TestDeepResearchToolEncoding(t *testing.T) {
	tool := NewDeepResearchTool("conn-1", "o3-deep-research")
	data, err := json.Marshal(tool)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "deep_research",
		"deep_research": {
			"deep_research_model": "o3-deep-research",
			"deep_research_bing_grounding_connections": [{"connection_id": "conn-1"}]
		}
	}`, string(data))
}

func TestRunErrorString(t *testing.T) {
	var nilErr *RunError
	assert.Equal(t, "<none>", nilErr.String())
	assert.Equal(t, "rate_limited", (&RunError{Code: "rate_limited"}).String())
	assert.Equal(t, "rate_limited: slow down", (&RunError{Code: "rate_limited", Message: "slow down"}).String())
}
