// Package orchestrator coordinates a book search: it resolves a free-form
// query into one book identity, then fans out across the configured
// sources and aggregates the outcomes into a single report.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"bookhunt/internal/classify"
	"bookhunt/internal/source"
)

// ErrNoCandidates is returned when the resolver finds no matching book.
var ErrNoCandidates = errors.New("no matching book found")

const (
	defaultSourceTimeout = 30 * time.Second
	defaultMaxCandidates = 10
	defaultMaxResults    = 20
)

// Orchestrator runs the two-step search flow: identity resolution, then
// the prioritized source fan-out.
type Orchestrator struct {
	registry      *source.Registry
	resolver      Resolver
	selector      SelectFunc
	sourceTimeout time.Duration
	maxCandidates int
	maxResults    int
	confirmSingle bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSourceTimeout sets the per-source timeout for the fan-out.
func WithSourceTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.sourceTimeout = d
		}
	}
}

// WithMaxCandidates caps how many identity candidates the resolver may
// return for selection.
func WithMaxCandidates(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxCandidates = n
		}
	}
}

// WithMaxResults caps how many results each source may return.
func WithMaxResults(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxResults = n
		}
	}
}

// WithConfirmSingle forces the selector to run even when resolution
// yields exactly one candidate.
func WithConfirmSingle(confirm bool) Option {
	return func(o *Orchestrator) {
		o.confirmSingle = confirm
	}
}

// New creates an Orchestrator. The selector is only consulted when more
// than one candidate needs disambiguation (or always, with
// WithConfirmSingle); a nil selector picks the first candidate.
func New(registry *source.Registry, resolver Resolver, selector SelectFunc, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry:      registry,
		resolver:      resolver,
		selector:      selector,
		sourceTimeout: defaultSourceTimeout,
		maxCandidates: defaultMaxCandidates,
		maxResults:    defaultMaxResults,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Candidates runs only the resolution step and returns every identity
// candidate, letting two-step callers (the HTTP API) present the list
// themselves.
func (o *Orchestrator) Candidates(ctx context.Context, query string) ([]Candidate, error) {
	queryType := classify.Detect(query)
	if queryType == source.QueryISBN {
		query = classify.Normalize(query)
	}

	candidates, err := o.resolver.Candidates(ctx, query, queryType, o.maxCandidates)
	if err != nil {
		return nil, fmt.Errorf("identity resolution via %s failed: %w", o.resolver.Name(), err)
	}
	return candidates, nil
}

// ResolveIdentity turns a free-form query into a single book identity.
// It returns ErrNoCandidates when nothing matches, and a
// SelectionCancelledError when the user declines to pick one of several
// candidates.
func (o *Orchestrator) ResolveIdentity(ctx context.Context, query string) (*Candidate, error) {
	queryType := classify.Detect(query)
	if queryType == source.QueryISBN {
		query = classify.Normalize(query)
	}

	slog.Debug("Resolving book identity", "query", query, "query_type", queryType, "resolver", o.resolver.Name())

	candidates, err := o.resolver.Candidates(ctx, query, queryType, o.maxCandidates)
	if err != nil {
		return nil, fmt.Errorf("identity resolution via %s failed: %w", o.resolver.Name(), err)
	}

	switch {
	case len(candidates) == 0:
		return nil, ErrNoCandidates
	case len(candidates) == 1 && !o.confirmSingle:
		slog.Debug("Single candidate, auto-selecting", "title", candidates[0].Title)
		return &candidates[0], nil
	}

	if o.selector == nil {
		return &candidates[0], nil
	}

	idx, err := o.selector(query, candidates)
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= len(candidates) {
		return nil, fmt.Errorf("candidate selection index %d out of range [0,%d)", idx, len(candidates))
	}

	return &candidates[idx], nil
}

// IdentityFor derives the fan-out identity from a selected candidate:
// normalized ISBN when the candidate carries one, plus its title.
func IdentityFor(candidate *Candidate) Identity {
	identity := Identity{Title: candidate.Title}
	if isbn := classify.Normalize(candidate.ISBN); classify.IsISBN(isbn) {
		identity.ISBN = isbn
	}
	return identity
}

// RunSearch fans the identity out across all enabled sources in priority
// order. Individual source failures are recorded in the report and never
// abort the run.
func (o *Orchestrator) RunSearch(ctx context.Context, query string, identity Identity) *Report {
	report := &Report{
		Query:       query,
		Identity:    identity,
		GeneratedAt: time.Now().UTC(),
	}

	for _, e := range o.registry.EnabledEntriesByPriority() {
		report.Outcomes = append(report.Outcomes, o.runSource(ctx, e.Source, e.Descriptor.Priority, identity))
	}

	return report
}

// runSource negotiates the query for one source and executes it,
// preferring ISBN lookups and falling back to a title search exactly once
// when an ISBN lookup legitimately finds nothing.
func (o *Orchestrator) runSource(ctx context.Context, src source.Source, priority int, identity Identity) SourceRunOutcome {
	outcome := SourceRunOutcome{Source: src.Name(), Priority: priority}

	query, queryType := negotiateQuery(src, identity)
	if queryType == "" {
		outcome.Skipped = true
		outcome.Reason = "source supports neither the ISBN nor the title of this book"
		slog.Debug("Skipping source", "source", src.Name(), "reason", outcome.Reason)
		return outcome
	}
	if !source.ValidateQueryType(src, queryType) {
		outcome.Skipped = true
		outcome.Reason = fmt.Sprintf("source rejects %s queries", queryType)
		return outcome
	}

	outcome.QueryType = queryType
	start := time.Now()

	results, err := o.searchWithTimeout(ctx, src, query, queryType)
	if err != nil {
		outcome.Err = err.Error()
		outcome.Duration = time.Since(start)
		slog.Warn("Source search failed", "source", src.Name(), "query_type", queryType, "error", err)
		return outcome
	}

	// An empty ISBN lookup is a legitimate "not held here", but the
	// source may still know the book under its title. One retry only,
	// and never after an error.
	if len(results) == 0 && queryType == source.QueryISBN && identity.Title != "" && src.SupportsTitle() {
		slog.Debug("Empty ISBN result, falling back to title", "source", src.Name(), "title", identity.Title)
		outcome.Fallback = true
		outcome.QueryType = source.QueryTitle

		results, err = o.searchWithTimeout(ctx, src, identity.Title, source.QueryTitle)
		if err != nil {
			outcome.Err = err.Error()
			outcome.Duration = time.Since(start)
			slog.Warn("Title fallback failed", "source", src.Name(), "error", err)
			return outcome
		}
	}

	outcome.Success = true
	outcome.Results = results
	outcome.Duration = time.Since(start)
	return outcome
}

func (o *Orchestrator) searchWithTimeout(ctx context.Context, src source.Source, query string, queryType source.QueryType) ([]source.RawResult, error) {
	searchCtx, cancel := context.WithTimeout(ctx, o.sourceTimeout)
	defer cancel()

	return src.Search(searchCtx, query, queryType, o.maxResults)
}

// negotiateQuery picks the best query the source can answer: ISBN when
// both sides have one, title otherwise. An empty query type means the
// source can answer neither.
func negotiateQuery(src source.Source, identity Identity) (string, source.QueryType) {
	if identity.ISBN != "" && src.SupportsISBN() {
		return identity.ISBN, source.QueryISBN
	}
	if identity.Title != "" && src.SupportsTitle() {
		return identity.Title, source.QueryTitle
	}
	return "", ""
}

// Search is the full convenience flow: resolve, derive identity, fan out.
// A cancelled selection propagates as a SelectionCancelledError so the
// caller can exit quietly.
func (o *Orchestrator) Search(ctx context.Context, query string) (*Report, error) {
	candidate, err := o.ResolveIdentity(ctx, query)
	if err != nil {
		return nil, err
	}

	identity := IdentityFor(candidate)
	report := o.RunSearch(ctx, query, identity)
	report.Candidate = candidate
	return report, nil
}
