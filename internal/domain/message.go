package domain

import "strings"

// Thread is a conversation container.
type Thread struct {
	ID        string `json:"id"`
	Object    string `json:"object,omitempty"`
	CreatedAt int64  `json:"created_at,omitempty"`
}

// CreateMessageRequest is the body for posting a message to a thread.
type CreateMessageRequest struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// Message is a thread message. Messages are immutable once created.
type Message struct {
	ID        string           `json:"id"`
	Object    string           `json:"object,omitempty"`
	CreatedAt int64            `json:"created_at,omitempty"`
	ThreadID  string           `json:"thread_id"`
	RunID     string           `json:"run_id,omitempty"`
	AgentID   string           `json:"assistant_id,omitempty"`
	Role      MessageRole      `json:"role"`
	Content   []MessageContent `json:"content"`
}

// MessageContent is one content block of a message.
type MessageContent struct {
	Type ContentType  `json:"type"`
	Text *TextContent `json:"text,omitempty"`
}

// TextContent is a text block with its annotations.
type TextContent struct {
	Value       string       `json:"value"`
	Annotations []Annotation `json:"annotations,omitempty"`
}

// Annotation marks a span of text with a reference.
type Annotation struct {
	Type        AnnotationType `json:"type"`
	Text        string         `json:"text,omitempty"`
	URLCitation *URLCitation   `json:"url_citation,omitempty"`
	StartIndex  int            `json:"start_index,omitempty"`
	EndIndex    int            `json:"end_index,omitempty"`
}

// URLCitation is a web source reference.
type URLCitation struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// DisplayTitle returns the title, or the url when the title is empty.
func (c URLCitation) DisplayTitle() string {
	if strings.TrimSpace(c.Title) == "" {
		return c.URL
	}
	return c.Title
}

// TextSegments returns the text values of the message in order.
func (m *Message) TextSegments() []string {
	if m == nil {
		return nil
	}
	var segments []string
	for _, c := range m.Content {
		if c.Type == ContentTypeText && c.Text != nil {
			segments = append(segments, c.Text.Value)
		}
	}
	return segments
}

// URLCitations returns every url citation across the text blocks, in order.
func (m *Message) URLCitations() []URLCitation {
	if m == nil {
		return nil
	}
	var citations []URLCitation
	for _, c := range m.Content {
		if c.Type != ContentTypeText || c.Text == nil {
			continue
		}
		for _, ann := range c.Text.Annotations {
			if ann.Type == AnnotationTypeURLCitation && ann.URLCitation != nil {
				citations = append(citations, *ann.URLCitation)
			}
		}
	}
	return citations
}

// MessageList is a page of thread messages.
type MessageList struct {
	Object  string    `json:"object,omitempty"`
	Data    []Message `json:"data"`
	FirstID string    `json:"first_id,omitempty"`
	LastID  string    `json:"last_id,omitempty"`
	HasMore bool      `json:"has_more"`
}
