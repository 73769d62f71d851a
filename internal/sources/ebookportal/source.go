package ebookportal

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bookhunt/internal/cache"
	"bookhunt/internal/source"
)

// Kind is the factory key for this connector.
const Kind = "ebookportal"

const cacheTable = "ebookportal_cache"

// Source scrapes an e-book portal by keyword. The portal's search box is
// free-text only, so this is a title-only source.
type Source struct {
	name     string
	baseURL  string
	headless bool
	timeout  time.Duration
}

// New builds the connector from descriptor settings. The portal URL is
// deployment-specific and therefore required.
func New(settings map[string]string) (source.Source, error) {
	baseURL := strings.TrimSuffix(settings["base_url"], "/")
	if baseURL == "" {
		return nil, errors.New("ebookportal source requires a base_url setting")
	}

	headless := true
	if raw := settings["headless"]; raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid headless setting %q: %w", raw, err)
		}
		headless = parsed
	}

	timeout := defaultScrapeTimeout
	if raw := settings["timeout"]; raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout setting %q: %w", raw, err)
		}
		timeout = parsed
	}

	name := settings["name"]
	if name == "" {
		name = Kind
	}

	return &Source{
		name:     name,
		baseURL:  baseURL,
		headless: headless,
		timeout:  timeout,
	}, nil
}

func (s *Source) Name() string        { return s.name }
func (s *Source) SupportsISBN() bool  { return false }
func (s *Source) SupportsTitle() bool { return true }

// Search scrapes the portal for a keyword. Scrapes are expensive, so
// results are cached; an empty result page gets the shorter negative TTL.
func (s *Source) Search(ctx context.Context, query string, queryType source.QueryType, maxResults int) ([]source.RawResult, error) {
	if queryType == source.QueryISBN {
		return nil, fmt.Errorf("ebookportal only supports title queries, got %q", queryType)
	}

	books, _, err := cache.GetOrFetchWithTTL(cacheTable, query, func() ([]scrapedBook, error) {
		return s.scrapeSearch(ctx, query)
	}, cache.SelectNegativeCacheTTL(func(books []scrapedBook) bool {
		return len(books) == 0
	}))
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

func toRawResult(b scrapedBook) source.RawResult {
	availability := b.Availability
	if availability == "" {
		availability = "listed"
	}
	return source.RawResult{
		Title:        b.Title,
		Author:       b.Author,
		Publisher:    b.Publisher,
		Availability: availability,
		Link:         b.Link,
	}
}

// FormatResults renders portal hits as indented text lines.
func (s *Source) FormatResults(results []source.RawResult) string {
	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "- %s", r.Title)
		if r.Author != "" {
			fmt.Fprintf(&b, " / %s", r.Author)
		}
		fmt.Fprintf(&b, " [%s]\n", r.Availability)
	}
	return b.String()
}
