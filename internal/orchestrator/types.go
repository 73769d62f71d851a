package orchestrator

import (
	"context"
	"time"

	"bookhunt/internal/source"
)

// Candidate is one possible book identity returned by the resolver.
type Candidate struct {
	Title       string `json:"title" yaml:"title"`
	Author      string `json:"author,omitempty" yaml:"author,omitempty"`
	Publisher   string `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	PubDate     string `json:"pub_date,omitempty" yaml:"pub_date,omitempty"`
	ISBN        string `json:"isbn,omitempty" yaml:"isbn,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	CoverURL    string `json:"cover_url,omitempty" yaml:"cover_url,omitempty"`
	Link        string `json:"link,omitempty" yaml:"link,omitempty"`
}

// Identity is the resolved book identity the fan-out searches with. ISBN
// may be empty when the resolver only knew the title.
type Identity struct {
	ISBN  string `json:"isbn,omitempty" yaml:"isbn,omitempty"`
	Title string `json:"title" yaml:"title"`
}

// Resolver turns a free-form query into book identity candidates. It is
// usually backed by the highest-quality metadata source.
type Resolver interface {
	Name() string
	Candidates(ctx context.Context, query string, queryType source.QueryType, limit int) ([]Candidate, error)
}

// SelectFunc picks one candidate out of several, returning its index.
// Implementations return a SelectionCancelledError when the user bails out.
type SelectFunc func(query string, candidates []Candidate) (int, error)

// SourceRunOutcome records how one source fared during the fan-out.
// Success is explicit so report consumers (the HTTP API in particular)
// never have to infer it from the error and skip fields.
type SourceRunOutcome struct {
	Source    string             `json:"source" yaml:"source"`
	Priority  int                `json:"priority" yaml:"priority"`
	Success   bool               `json:"success" yaml:"success"`
	QueryType source.QueryType   `json:"query_type,omitempty" yaml:"query_type,omitempty"`
	Results   []source.RawResult `json:"results,omitempty" yaml:"results,omitempty"`
	Err       string             `json:"error,omitempty" yaml:"error,omitempty"`
	Skipped   bool               `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Reason    string             `json:"reason,omitempty" yaml:"reason,omitempty"`
	Fallback  bool               `json:"fallback,omitempty" yaml:"fallback,omitempty"`
	Duration  time.Duration      `json:"duration_ms" yaml:"duration_ms"`
}

// Failed reports whether the source errored (as opposed to being skipped
// or returning no matches).
func (o SourceRunOutcome) Failed() bool {
	return o.Err != ""
}

// Report is the aggregated result of one full search run, with outcomes
// in source priority order.
type Report struct {
	Query       string             `json:"query" yaml:"query"`
	Identity    Identity           `json:"identity" yaml:"identity"`
	Candidate   *Candidate         `json:"candidate,omitempty" yaml:"candidate,omitempty"`
	Outcomes    []SourceRunOutcome `json:"outcomes" yaml:"outcomes"`
	GeneratedAt time.Time          `json:"generated_at" yaml:"generated_at"`
}
