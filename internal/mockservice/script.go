package mockservice

import (
	"fmt"

	"github.com/xiaot623/gogo/research/internal/domain"
)

// Step is one observable state of a scripted run. Each GET of the run
// advances the script by one step; the last step repeats forever.
type Step struct {
	Status    domain.RunStatus
	LastError *domain.RunError

	// Segments, when set, become a new agent message posted as the step is reached.
	Segments  []string
	Citations []domain.URLCitation
}

// ScriptFunc builds the script for a run from the thread's latest user message.
type ScriptFunc func(query string) []Step

// DefaultScript mimics a deep research run: a planning note, a quiet
// stretch, an interim finding, then the final report.
func DefaultScript(query string) []Step {
	return []Step{
		{Status: domain.RunStatusInProgress},
		{
			Status:   domain.RunStatusInProgress,
			Segments: []string{fmt.Sprintf("Planning research for: %s", query)},
		},
		{Status: domain.RunStatusInProgress},
		{
			Status:   domain.RunStatusInProgress,
			Segments: []string{"Collected initial sources."},
			Citations: []domain.URLCitation{
				{URL: "https://example.com/markets", Title: "Market overview"},
			},
		},
		{
			Status: domain.RunStatusCompleted,
			Segments: []string{
				fmt.Sprintf("# Report\n\nFindings for %s.", query),
				"Summary paragraph.  ",
			},
			Citations: []domain.URLCitation{
				{URL: "https://example.com/markets", Title: "Market overview"},
				{URL: "https://example.com/rates", Title: "Rate decisions"},
				{URL: "https://example.com/markets", Title: "Market overview (mirror)"},
				{URL: "https://example.com/tech"},
			},
		},
	}
}

// FailingScript ends the run with the given error code after one agent message.
func FailingScript(code string) ScriptFunc {
	return func(query string) []Step {
		return []Step{
			{Status: domain.RunStatusInProgress, Segments: []string{"Partial notes before failure."}},
			{Status: domain.RunStatusFailed, LastError: &domain.RunError{Code: code, Message: "run aborted"}},
		}
	}
}

// SilentScript completes without the agent ever writing a message.
func SilentScript(query string) []Step {
	return []Step{
		{Status: domain.RunStatusInProgress},
		{Status: domain.RunStatusCompleted},
	}
}

func buildContent(segments []string, citations []domain.URLCitation) []domain.MessageContent {
	content := make([]domain.MessageContent, 0, len(segments))
	for i, seg := range segments {
		text := &domain.TextContent{Value: seg}
		if i == 0 {
			for j := range citations {
				c := citations[j]
				text.Annotations = append(text.Annotations, domain.Annotation{
					Type:        domain.AnnotationTypeURLCitation,
					Text:        fmt.Sprintf("【%d†source】", j),
					URLCitation: &c,
				})
			}
		}
		content = append(content, domain.MessageContent{Type: domain.ContentTypeText, Text: text})
	}
	return content
}
