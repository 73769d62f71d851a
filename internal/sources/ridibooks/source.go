package ridibooks

import (
	"context"
	"fmt"
	"strings"

	"bookhunt/internal/source"
)

// Kind is the factory key for this connector.
const Kind = "ridibooks"

// Source searches the Ridibooks Select subscription catalog. The search
// API is keyword-only and carries no ISBN data, so this is a title-only
// source.
type Source struct {
	name   string
	client *Client
}

// New builds the connector from descriptor settings. The public endpoints
// are well known, so nothing is required; search_url and store_url exist
// for tests and proxies.
func New(settings map[string]string) (source.Source, error) {
	name := settings["name"]
	if name == "" {
		name = Kind
	}

	client := NewClient(
		WithSearchURL(settings["search_url"]),
		WithStoreURL(settings["store_url"]),
	)

	return &Source{name: name, client: client}, nil
}

func (s *Source) Name() string        { return s.name }
func (s *Source) SupportsISBN() bool  { return false }
func (s *Source) SupportsTitle() bool { return true }

// Search queries the Select catalog by keyword. Everything the API
// returns is readable under the subscription, so availability is fixed.
func (s *Source) Search(ctx context.Context, query string, queryType source.QueryType, maxResults int) ([]source.RawResult, error) {
	if queryType == source.QueryISBN {
		return nil, fmt.Errorf("ridibooks only supports title queries, got %q", queryType)
	}

	books, err := s.client.SearchByTitle(ctx, query)
	if err != nil {
		return nil, err
	}

	if len(books) > maxResults {
		books = books[:maxResults]
	}

	results := make([]source.RawResult, 0, len(books))
	for _, b := range books {
		results = append(results, source.RawResult{
			Title:        b.Title,
			Author:       b.Author,
			Publisher:    b.Publisher,
			Availability: "in subscription",
			Link:         b.Link,
			CoverURL:     b.CoverURL,
		})
	}
	return results, nil
}

// FormatResults renders catalog hits as indented text lines.
func (s *Source) FormatResults(results []source.RawResult) string {
	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "- %s", r.Title)
		if r.Author != "" {
			fmt.Fprintf(&b, " / %s", r.Author)
		}
		if r.Link != "" {
			fmt.Fprintf(&b, " (%s)", r.Link)
		}
		b.WriteString("\n")
	}
	return b.String()
}
