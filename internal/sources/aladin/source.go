package aladin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bookhunt/internal/classify"
	"bookhunt/internal/orchestrator"
	"bookhunt/internal/source"
)

// Kind is the factory key for this connector.
const Kind = "aladin"

// Source exposes the Aladin bookstore through the common source contract.
// It also implements orchestrator.Resolver.
type Source struct {
	client *Client
	name   string
}

// New builds the connector from descriptor settings. The TTB key is
// required; constructing a source that can never authenticate would only
// defer the failure to the first search.
func New(settings map[string]string) (source.Source, error) {
	src, err := newSource(settings)
	if err != nil {
		return nil, err
	}
	return src, nil
}

// NewResolver builds the connector for use as the identity resolver.
func NewResolver(settings map[string]string) (orchestrator.Resolver, error) {
	return newSource(settings)
}

func newSource(settings map[string]string) (*Source, error) {
	ttbKey := settings["ttb_key"]
	if ttbKey == "" {
		return nil, errors.New("aladin source requires a ttb_key setting")
	}

	var opts []Option
	if base := settings["base_url"]; base != "" {
		opts = append(opts, WithBaseURL(base))
	}

	name := settings["name"]
	if name == "" {
		name = Kind
	}

	return &Source{
		client: NewClient(ttbKey, opts...),
		name:   name,
	}, nil
}

func (s *Source) Name() string        { return s.name }
func (s *Source) SupportsISBN() bool  { return true }
func (s *Source) SupportsTitle() bool { return true }

// Search queries the bookstore. ISBN lookups that find nothing return an
// empty slice so the caller can distinguish "not sold here" from an API
// failure.
func (s *Source) Search(ctx context.Context, query string, queryType source.QueryType, maxResults int) ([]source.RawResult, error) {
	if queryType == source.QueryAuto {
		queryType = classify.Detect(query)
	}

	var books []Book
	var err error
	switch queryType {
	case source.QueryISBN:
		books, err = s.client.LookupISBN(ctx, classify.Normalize(query))
	case source.QueryTitle:
		books, err = s.client.SearchByTitle(ctx, query, maxResults)
	default:
		return nil, fmt.Errorf("unsupported query type %q", queryType)
	}
	if err != nil {
		return nil, err
	}

	if len(books) > maxResults {
		books = books[:maxResults]
	}

	results := make([]source.RawResult, 0, len(books))
	for _, b := range books {
		results = append(results, toRawResult(b))
	}
	return results, nil
}

func toRawResult(b Book) source.RawResult {
	result := source.RawResult{
		Title:        b.Title,
		Author:       b.Author,
		Publisher:    b.Publisher,
		ISBN:         b.PreferredISBN(),
		Availability: "for sale",
		Link:         b.Link,
		CoverURL:     b.CoverURL,
		Extra:        map[string]string{},
	}
	if b.PriceSales > 0 {
		result.Availability = fmt.Sprintf("for sale (%d KRW)", b.PriceSales)
		result.Extra["price_sales"] = fmt.Sprintf("%d", b.PriceSales)
	}
	if b.PriceStandard > 0 {
		result.Extra["price_standard"] = fmt.Sprintf("%d", b.PriceStandard)
	}
	if b.Category != "" {
		result.Extra["category"] = b.Category
	}
	if b.PubDate != "" {
		result.Extra["pub_date"] = b.PubDate
	}
	return result
}

// FormatResults renders bookstore hits as indented text lines.
func (s *Source) FormatResults(results []source.RawResult) string {
	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "- %s", r.Title)
		if r.Author != "" {
			fmt.Fprintf(&b, " / %s", r.Author)
		}
		if r.Publisher != "" {
			fmt.Fprintf(&b, " (%s)", r.Publisher)
		}
		if r.Availability != "" {
			fmt.Fprintf(&b, " [%s]", r.Availability)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Candidates implements orchestrator.Resolver: it turns a raw query into
// book identity candidates, preferring an exact ISBN lookup when the
// query classifies as one.
func (s *Source) Candidates(ctx context.Context, query string, queryType source.QueryType, limit int) ([]orchestrator.Candidate, error) {
	if queryType == source.QueryAuto {
		queryType = classify.Detect(query)
	}

	var books []Book
	var err error
	switch queryType {
	case source.QueryISBN:
		books, err = s.client.LookupISBN(ctx, classify.Normalize(query))
	default:
		books, err = s.client.SearchByTitle(ctx, query, limit)
	}
	if err != nil {
		return nil, err
	}

	if len(books) > limit {
		books = books[:limit]
	}

	candidates := make([]orchestrator.Candidate, 0, len(books))
	for _, b := range books {
		candidates = append(candidates, orchestrator.Candidate{
			Title:       b.MainTitle(),
			Author:      b.Author,
			Publisher:   b.Publisher,
			PubDate:     b.PubDate,
			ISBN:        b.PreferredISBN(),
			Description: b.Description,
			CoverURL:    b.CoverURL,
			Link:        b.Link,
		})
	}
	return candidates, nil
}
