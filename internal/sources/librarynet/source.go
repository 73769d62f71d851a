package librarynet

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bookhunt/internal/classify"
	"bookhunt/internal/source"
)

// Kind is the factory key for this connector.
const Kind = "librarynet"

// Source exposes public library holdings through the common source
// contract. It answers ISBN queries only: the bookExist endpoint has no
// title search.
type Source struct {
	client   *Client
	name     string
	libCodes []string
}

// New builds the connector from descriptor settings. Both the API key
// and at least one library code are required up front.
func New(settings map[string]string) (source.Source, error) {
	authKey := settings["auth_key"]
	if authKey == "" {
		return nil, errors.New("librarynet source requires an auth_key setting")
	}

	libCodes := splitCodes(settings["lib_codes"])
	if len(libCodes) == 0 {
		return nil, errors.New("librarynet source requires a lib_codes setting (comma-separated library codes)")
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
		client:   NewClient(authKey, opts...),
		name:     name,
		libCodes: libCodes,
	}, nil
}

func splitCodes(raw string) []string {
	var codes []string
	for _, part := range strings.Split(raw, ",") {
		if code := strings.TrimSpace(part); code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}

func (s *Source) Name() string        { return s.name }
func (s *Source) SupportsISBN() bool  { return true }
func (s *Source) SupportsTitle() bool { return false }

// Search checks every configured library for the ISBN. Libraries that
// don't hold the book are omitted, so "no library has it" comes back as
// an empty result set rather than an error.
func (s *Source) Search(ctx context.Context, query string, queryType source.QueryType, maxResults int) ([]source.RawResult, error) {
	if queryType == source.QueryAuto {
		queryType = classify.Detect(query)
	}
	if queryType != source.QueryISBN {
		return nil, fmt.Errorf("librarynet only supports ISBN queries, got %q", queryType)
	}

	isbn := classify.Normalize(query)
	holdings, err := s.client.CheckLibraries(ctx, s.libCodes, isbn)
	if err != nil {
		return nil, err
	}

	results := make([]source.RawResult, 0, len(holdings))
	for _, holding := range holdings {
		if !holding.HasBook {
			continue
		}
		if len(results) >= maxResults {
			break
		}

		availability := "all copies on loan"
		if holding.LoanAvailable {
			availability = "available for loan"
		}
		results = append(results, source.RawResult{
			Title:        holding.LibName,
			ISBN:         isbn,
			Availability: availability,
			Extra: map[string]string{
				"lib_code": holding.LibCode,
			},
		})
	}
	return results, nil
}

// FormatResults renders one line per holding library.
func (s *Source) FormatResults(results []source.RawResult) string {
	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "- %s: %s\n", r.Title, r.Availability)
	}
	return b.String()
}
