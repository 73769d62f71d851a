package search

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"bookhunt/internal/orchestrator"
	"bookhunt/internal/source"
)

// RenderText produces the terminal report: the resolved book header
// followed by one block per source in priority order. Each source
// formats its own results; the renderer only frames them.
func RenderText(report *orchestrator.Report, registry *source.Registry) string {
	var b strings.Builder

	if c := report.Candidate; c != nil {
		fmt.Fprintf(&b, "# %s", c.Title)
		if c.Author != "" {
			fmt.Fprintf(&b, " / %s", c.Author)
		}
		if c.Publisher != "" {
			fmt.Fprintf(&b, " (%s)", c.Publisher)
		}
		b.WriteString("\n")
		if c.ISBN != "" {
			fmt.Fprintf(&b, "ISBN: %s\n", c.ISBN)
		}
		if c.Link != "" {
			fmt.Fprintf(&b, "Link: %s\n", c.Link)
		}
	} else {
		fmt.Fprintf(&b, "# %s\n", report.Query)
	}
	b.WriteString("\n")

	for _, outcome := range report.Outcomes {
		fmt.Fprintf(&b, "## %s", outcome.Source)
		if outcome.QueryType != "" {
			fmt.Fprintf(&b, " (%s", outcome.QueryType)
			if outcome.Fallback {
				b.WriteString(", title fallback")
			}
			b.WriteString(")")
		}
		b.WriteString("\n")

		switch {
		case outcome.Skipped:
			fmt.Fprintf(&b, "skipped: %s\n", outcome.Reason)
		case outcome.Failed():
			fmt.Fprintf(&b, "error: %s\n", outcome.Err)
		case len(outcome.Results) == 0:
			b.WriteString("no results\n")
		default:
			b.WriteString(formatResults(registry, outcome))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// formatResults delegates rendering to the source's own formatter, with
// a plain fallback when the source has vanished from the registry.
func formatResults(registry *source.Registry, outcome orchestrator.SourceRunOutcome) string {
	if src := registry.GetByName(outcome.Source); src != nil {
		return src.FormatResults(outcome.Results)
	}

	var b strings.Builder
	for _, r := range outcome.Results {
		fmt.Fprintf(&b, "- %s [%s]\n", r.Title, r.Availability)
	}
	return b.String()
}

// RenderYAML serializes the report for file output.
func RenderYAML(report *orchestrator.Report) ([]byte, error) {
	return yaml.Marshal(report)
}

// reportBaseName is the filename stem for saved reports: the resolved
// title when there is one, the raw query otherwise.
func reportBaseName(report *orchestrator.Report) string {
	if report.Candidate != nil && report.Candidate.Title != "" {
		return report.Candidate.Title
	}
	return report.Query
}
