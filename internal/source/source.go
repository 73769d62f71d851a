// Package source defines the contract every book-availability connector
// implements, plus the registry and loader that manage connector instances.
package source

import (
	"context"
	"fmt"
	"strings"
)

// QueryType describes how a search query string should be interpreted.
type QueryType string

const (
	// QueryAuto lets the connector (or the query classifier) decide.
	QueryAuto QueryType = "auto"
	// QueryISBN searches by ISBN-10/ISBN-13.
	QueryISBN QueryType = "isbn"
	// QueryTitle searches by free-text title.
	QueryTitle QueryType = "title"
)

// RawResult is one hit from a single source. Sources populate whatever
// well-known fields they have and stash anything else in Extra. The
// orchestrator only ever reads Title and Availability; interpreting the
// rest is left to the presentation layer.
type RawResult struct {
	Title        string            `json:"title,omitempty" yaml:"title,omitempty"`
	Author       string            `json:"author,omitempty" yaml:"author,omitempty"`
	Publisher    string            `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	ISBN         string            `json:"isbn,omitempty" yaml:"isbn,omitempty"`
	Availability string            `json:"availability,omitempty" yaml:"availability,omitempty"`
	Link         string            `json:"link,omitempty" yaml:"link,omitempty"`
	CoverURL     string            `json:"cover_url,omitempty" yaml:"cover_url,omitempty"`
	Extra        map[string]string `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// Source is the capability contract for one external book provider.
//
// Search must return an empty (non-nil is not required) slice and a nil
// error when the source simply has no matches; transport, parse and auth
// failures must surface as errors so callers can tell "nothing found"
// apart from "source broken". Any transport state a source owns (HTTP
// session, browser process) must be scoped to a single Search call.
type Source interface {
	Name() string
	SupportsISBN() bool
	SupportsTitle() bool
	Search(ctx context.Context, query string, queryType QueryType, maxResults int) ([]RawResult, error)
	// FormatResults renders results for terminal display. The orchestrator
	// never calls this; only the CLI presentation layer does.
	FormatResults(results []RawResult) string
}

// ValidateQueryType reports whether s can serve a query of the given type.
// QueryAuto is valid as long as the source supports anything at all.
func ValidateQueryType(s Source, qt QueryType) bool {
	switch qt {
	case QueryAuto:
		return s.SupportsISBN() || s.SupportsTitle()
	case QueryISBN:
		return s.SupportsISBN()
	case QueryTitle:
		return s.SupportsTitle()
	default:
		return false
	}
}

// Describe returns a one-line summary of a source's capabilities,
// used by the `sources` command and in debug logs.
func Describe(s Source) string {
	var caps []string
	if s.SupportsISBN() {
		caps = append(caps, "isbn")
	}
	if s.SupportsTitle() {
		caps = append(caps, "title")
	}
	if len(caps) == 0 {
		return fmt.Sprintf("%s (no capabilities)", s.Name())
	}
	return fmt.Sprintf("%s (%s)", s.Name(), strings.Join(caps, ", "))
}
