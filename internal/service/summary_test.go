package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/research/internal/domain"
)

func TestBuildSummaryDeduplicatesCitations(t *testing.T) {
	msg := agentMessage("m", []string{"Body."},
		domain.URLCitation{URL: "u1", Title: "t1"},
		domain.URLCitation{URL: "u2", Title: "t2"},
		domain.URLCitation{URL: "u1", Title: "t1'"},
		domain.URLCitation{URL: "u3", Title: "t3"},
	)

	assert.Equal(t, "Body.\n\n## 参考文献\n- [t1](u1)\n- [t2](u2)\n- [t3](u3)\n", BuildSummary(msg))
}

func TestBuildSummaryCitationsAcrossSegments(t *testing.T) {
	msg := agentMessage("m", []string{"one", "two"}, domain.URLCitation{URL: "u1"})
	msg.Content[1].Text.Annotations = []domain.Annotation{
		{Type: domain.AnnotationTypeURLCitation, URLCitation: &domain.URLCitation{URL: "u2", Title: "second"}},
		{Type: domain.AnnotationTypeURLCitation, URLCitation: &domain.URLCitation{URL: "u1", Title: "late title"}},
	}

	assert.Equal(t, "one\n\ntwo\n\n## 参考文献\n- [u1](u1)\n- [second](u2)\n", BuildSummary(msg))
}

func TestBuildSummaryWithoutCitations(t *testing.T) {
	msg := agentMessage("m", []string{"\n first \n", "second\n"})
	assert.Equal(t, "first\n\nsecond", BuildSummary(msg))
}

func TestUniqueCitations(t *testing.T) {
	got := UniqueCitations([]domain.URLCitation{{URL: "a", Title: "1"}, {URL: "a", Title: "2"}, {URL: "b"}})
	assert.Equal(t, []domain.URLCitation{{URL: "a", Title: "1"}, {URL: "b"}}, got)
	assert.Empty(t, UniqueCitations(nil))
}

func TestWriteSummaryOverwritesWithUTF8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "research_summary.md")
	require.NoError(t, os.WriteFile(path, []byte("stale content that is longer than the new one"), 0o644))

	msg := agentMessage("m", []string{"株価の分析"}, domain.URLCitation{URL: "https://例え.jp", Title: "日本語タイトル"})
	require.NoError(t, WriteSummary(path, msg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "株価の分析\n\n## 参考文献\n- [日本語タイトル](https://例え.jp)\n", string(data))
}

func TestWriteSummaryError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "out.md")
	assert.Error(t, WriteSummary(path, agentMessage("m", []string{"x"})))
}
