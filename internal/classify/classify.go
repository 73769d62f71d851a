// Package classify decides whether a user-supplied query string is an
// ISBN or a free-text title.
package classify

import (
	"strings"
	"unicode"

	"bookhunt/internal/source"
)

// Detect classifies a query as an ISBN or a title. The query is an ISBN
// when, after stripping hyphens and whitespace, it consists solely of
// digits and is 10 or 13 characters long. Everything else is a title.
//
// A purely numeric title of length 10 or 13 is indistinguishable from an
// ISBN; that ambiguity is accepted rather than worked around.
func Detect(query string) source.QueryType {
	cleaned := Normalize(query)

	if len(cleaned) != 10 && len(cleaned) != 13 {
		return source.QueryTitle
	}
	for _, r := range cleaned {
		if !unicode.IsDigit(r) {
			return source.QueryTitle
		}
	}
	return source.QueryISBN
}

// Normalize strips hyphens and whitespace from a query, the shared
// cleanup step before ISBN checks and API lookups.
func Normalize(query string) string {
	var b strings.Builder
	b.Grow(len(query))
	for _, r := range query {
		if r == '-' || unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// IsISBN reports whether the query would classify as an ISBN.
func IsISBN(query string) bool {
	return Detect(query) == source.QueryISBN
}
