// Package aladin queries the Aladin TTB bookstore API. It doubles as the
// identity resolver: its metadata (ISBN-13, cover, description) is the
// richest of all the configured sources.
package aladin

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"bookhunt/internal/cache"
	bherrors "bookhunt/internal/errors"
	"bookhunt/internal/ratelimit"
)

const (
	defaultBaseURL       = "https://www.aladin.co.kr/ttb/api"
	apiVersion           = "20131101"
	defaultRatePerSecond = 2
)

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client is an Aladin TTB API client.
type Client struct {
	ttbKey      string
	baseURL     string
	httpClient  HTTPDoer
	rateLimiter *ratelimit.Limiter
}

// NewClient creates a new Aladin API client.
func NewClient(ttbKey string, opts ...Option) *Client {
	client := &Client{
		ttbKey:      ttbKey,
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		rateLimiter: ratelimit.New("Aladin", defaultRatePerSecond),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c HTTPDoer) Option {
	return func(client *Client) {
		if c != nil {
			client.httpClient = c
		}
	}
}

// WithBaseURL sets a custom base URL for the Aladin API.
func WithBaseURL(base string) Option {
	return func(client *Client) {
		if base != "" {
			client.baseURL = base
		}
	}
}

// SearchByTitle runs an ItemSearch keyword query. Results are cached;
// empty result sets get the shorter negative-cache TTL.
func (c *Client) SearchByTitle(ctx context.Context, title string, maxResults int) ([]Book, error) {
	// The limit is part of the key so a broader search is never served a
	// previously cached narrower result set.
	cacheKey := fmt.Sprintf("title:%d:%s", maxResults, title)

	books, _, err := cache.GetOrFetchWithTTL(cacheTable, cacheKey, func() ([]Book, error) {
		params := url.Values{}
		params.Set("Query", title)
		params.Set("QueryType", "Keyword")
		params.Set("SearchTarget", "Book")
		params.Set("MaxResults", strconv.Itoa(maxResults))
		params.Set("start", "1")
		return c.fetchItems(ctx, "ItemSearch.aspx", params)
	}, cache.SelectNegativeCacheTTL(func(books []Book) bool {
		return len(books) == 0
	}))
	return books, err
}

// LookupISBN runs an ItemLookUp query for one ISBN-10 or ISBN-13.
// A "no such item" response comes back as an empty slice, not an error.
func (c *Client) LookupISBN(ctx context.Context, isbn string) ([]Book, error) {
	cacheKey := "isbn:" + isbn

	books, _, err := cache.GetOrFetchWithTTL(cacheTable, cacheKey, func() ([]Book, error) {
		idType := "ISBN"
		if len(isbn) == 13 {
			idType = "ISBN13"
		}
		params := url.Values{}
		params.Set("ItemId", isbn)
		params.Set("ItemIdType", idType)
		return c.fetchItems(ctx, "ItemLookUp.aspx", params)
	}, cache.SelectNegativeCacheTTL(func(books []Book) bool {
		return len(books) == 0
	}))
	return books, err
}

const cacheTable = "aladin_cache"

// noSuchItemErrorCode is what ItemLookUp reports for an ISBN Aladin has
// never carried; it means "not found", not "request failed".
const noSuchItemErrorCode = 8

func (c *Client) fetchItems(ctx context.Context, endpoint string, params url.Values) ([]Book, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	params.Set("ttbkey", c.ttbKey)
	params.Set("output", "xml")
	params.Set("Version", apiVersion)

	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("aladin API request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, bherrors.NewRateLimitError("aladin API rate limit exceeded")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("aladin API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read aladin response: %w", err)
	}

	var parsed apiResponse
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse aladin response: %w", err)
	}

	if parsed.ErrorCode != 0 {
		if parsed.ErrorCode == noSuchItemErrorCode {
			return nil, nil
		}
		return nil, fmt.Errorf("aladin API error %d: %s", parsed.ErrorCode, parsed.ErrorMessage)
	}

	books := make([]Book, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		books = append(books, item.toBook())
	}
	return books, nil
}
