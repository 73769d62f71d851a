package search

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"bookhunt/internal/orchestrator"
	"bookhunt/internal/source"
)

type fmtSource struct {
	name string
}

func (s *fmtSource) Name() string        { return s.name }
func (s *fmtSource) SupportsISBN() bool  { return true }
func (s *fmtSource) SupportsTitle() bool { return true }

func (s *fmtSource) Search(ctx context.Context, query string, queryType source.QueryType, maxResults int) ([]source.RawResult, error) {
	return nil, nil
}

func (s *fmtSource) FormatResults(results []source.RawResult) string {
	var b strings.Builder
	for _, r := range results {
		b.WriteString("* custom: " + r.Title + "\n")
	}
	return b.String()
}

func sampleReport() *orchestrator.Report {
	return &orchestrator.Report{
		Query: "9788966262281",
		Identity: orchestrator.Identity{
			ISBN:  "9788966262281",
			Title: "클린 코드",
		},
		Candidate: &orchestrator.Candidate{
			Title:     "클린 코드",
			Author:    "로버트 C. 마틴",
			Publisher: "인사이트",
			ISBN:      "9788966262281",
			Link:      "https://example.com/book/1",
		},
		Outcomes: []orchestrator.SourceRunOutcome{
			{
				Source:    "bookstore",
				QueryType: source.QueryISBN,
				Results: []source.RawResult{
					{Title: "클린 코드", Availability: "for sale"},
				},
			},
			{
				Source:    "library",
				QueryType: source.QueryISBN,
			},
			{
				Source: "scraper",
				Err:    "timed out",
			},
			{
				Source:  "shelf",
				Skipped: true,
				Reason:  "does not support isbn queries",
			},
		},
	}
}

func TestRenderTextHeader(t *testing.T) {
	registry := source.NewRegistry()

	text := RenderText(sampleReport(), registry)

	assert.Contains(t, text, "# 클린 코드 / 로버트 C. 마틴 (인사이트)")
	assert.Contains(t, text, "ISBN: 9788966262281")
	assert.Contains(t, text, "Link: https://example.com/book/1")
}

func TestRenderTextOutcomeBlocks(t *testing.T) {
	registry := source.NewRegistry()

	text := RenderText(sampleReport(), registry)

	assert.Contains(t, text, "## bookstore (isbn)")
	assert.Contains(t, text, "## library (isbn)\nno results")
	assert.Contains(t, text, "## scraper\nerror: timed out")
	assert.Contains(t, text, "## shelf\nskipped: does not support isbn queries")
}

func TestRenderTextDelegatesToSourceFormatter(t *testing.T) {
	registry := source.NewRegistry()
	registry.Register(&fmtSource{name: "bookstore"}, source.Descriptor{Name: "bookstore", Enabled: true})

	text := RenderText(sampleReport(), registry)

	assert.Contains(t, text, "* custom: 클린 코드")
}

func TestRenderTextFallbackFormatter(t *testing.T) {
	// Empty registry: the renderer falls back to its own plain format.
	text := RenderText(sampleReport(), source.NewRegistry())

	assert.Contains(t, text, "- 클린 코드 [for sale]")
}

func TestRenderTextFallbackMarker(t *testing.T) {
	report := sampleReport()
	report.Outcomes = []orchestrator.SourceRunOutcome{
		{
			Source:    "scraper",
			QueryType: source.QueryTitle,
			Fallback:  true,
			Results:   []source.RawResult{{Title: "클린 코드", Availability: "listed"}},
		},
	}

	text := RenderText(report, source.NewRegistry())

	assert.Contains(t, text, "## scraper (title, title fallback)")
}

func TestRenderTextNoCandidate(t *testing.T) {
	report := &orchestrator.Report{Query: "unknown book"}

	text := RenderText(report, source.NewRegistry())

	assert.True(t, strings.HasPrefix(text, "# unknown book\n"))
}

func TestRenderYAMLRoundTrip(t *testing.T) {
	data, err := RenderYAML(sampleReport())
	require.NoError(t, err)

	var decoded orchestrator.Report
	require.NoError(t, yaml.Unmarshal(data, &decoded))

	assert.Equal(t, "9788966262281", decoded.Query)
	require.NotNil(t, decoded.Candidate)
	assert.Equal(t, "클린 코드", decoded.Candidate.Title)
	assert.Len(t, decoded.Outcomes, 4)
}

func TestReportBaseName(t *testing.T) {
	assert.Equal(t, "클린 코드", reportBaseName(sampleReport()))

	report := &orchestrator.Report{Query: "fallback query"}
	assert.Equal(t, "fallback query", reportBaseName(report))
}
