package service

import (
	"fmt"
	"os"
	"strings"

	"github.com/xiaot623/gogo/research/internal/domain"
)

// ReferencesHeading introduces the references section of a summary.
const ReferencesHeading = "## 参考文献"

// UniqueCitations drops repeated urls, keeping the first occurrence (and its title).
func UniqueCitations(citations []domain.URLCitation) []domain.URLCitation {
	seen := make(map[string]bool, len(citations))
	unique := make([]domain.URLCitation, 0, len(citations))
	for _, c := range citations {
		if seen[c.URL] {
			continue
		}
		seen[c.URL] = true
		unique = append(unique, c)
	}
	return unique
}

// BuildSummary renders msg as Markdown: its trimmed text segments separated by
// blank lines, then a references list when the message cites any url.
func BuildSummary(msg *domain.Message) string {
	segments := msg.TextSegments()
	for i := range segments {
		segments[i] = strings.TrimSpace(segments[i])
	}

	var b strings.Builder
	b.WriteString(strings.Join(segments, "\n\n"))

	citations := msg.URLCitations()
	if len(citations) > 0 {
		b.WriteString("\n\n" + ReferencesHeading + "\n")
		for _, c := range UniqueCitations(citations) {
			fmt.Fprintf(&b, "- [%s](%s)\n", c.DisplayTitle(), c.URL)
		}
	}
	return b.String()
}

// WriteSummary writes the summary of msg to path as UTF-8, replacing any existing file.
func WriteSummary(path string, msg *domain.Message) error {
	if err := os.WriteFile(path, []byte(BuildSummary(msg)), 0o644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}
