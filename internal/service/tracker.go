package service

import (
	"fmt"
	"io"
	"strings"

	"github.com/xiaot623/gogo/research/internal/domain"
)

// ResponseTracker prints each distinct agent message once, in the order it
// becomes the latest message of the thread.
type ResponseTracker struct {
	out    io.Writer
	lastID string
	onNew  func(msg *domain.Message)
}

// NewResponseTracker creates a tracker writing to out. onNew, if set, is
// called after a new message has been printed.
func NewResponseTracker(out io.Writer, onNew func(msg *domain.Message)) *ResponseTracker {
	return &ResponseTracker{out: out, onNew: onNew}
}

// Observe prints msg unless it is nil or the same message as last time.
// It reports whether anything was printed.
func (t *ResponseTracker) Observe(msg *domain.Message) bool {
	if msg == nil || msg.ID == t.lastID {
		return false
	}

	fmt.Fprintln(t.out, "\nAgent response:")
	fmt.Fprintln(t.out, strings.Join(msg.TextSegments(), "\n"))
	for _, c := range msg.URLCitations() {
		fmt.Fprintf(t.out, "URL citation: [%s](%s)\n", c.DisplayTitle(), c.URL)
	}

	t.lastID = msg.ID
	if t.onNew != nil {
		t.onNew(msg)
	}
	return true
}

// LastID returns the id of the last printed message.
func (t *ResponseTracker) LastID() string {
	return t.lastID
}
