// Package ridibooks searches the Ridibooks Select subscription catalog
// through the storefront's public search API. The API needs no login, so
// unlike the portal scraper this storefront is a plain HTTP client.
package ridibooks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"bookhunt/internal/cache"
	bherrors "bookhunt/internal/errors"
	"bookhunt/internal/ratelimit"
)

const (
	defaultSearchURL     = "https://search-api.ridibooks.com/search"
	defaultStoreURL      = "https://ridibooks.com"
	defaultCoverURL      = "https://img.ridicdn.net/cover"
	defaultRatePerSecond = 2
)

const cacheTable = "ridibooks_cache"

// userAgent matches a desktop browser; the search API rejects obvious
// bot agents.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Book is one title from the Select catalog. Everything the API returns
// is in the catalog, so there is no availability field.
type Book struct {
	Title     string `json:"title"`
	Author    string `json:"author"`
	Publisher string `json:"publisher"`
	Link      string `json:"link"`
	CoverURL  string `json:"cover_url"`
}

// Client is a Ridibooks search API client.
type Client struct {
	searchURL   string
	storeURL    string
	httpClient  HTTPDoer
	rateLimiter *ratelimit.Limiter
}

// NewClient creates a new Ridibooks search API client.
func NewClient(opts ...ClientOption) *Client {
	client := &Client{
		searchURL:   defaultSearchURL,
		storeURL:    defaultStoreURL,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		rateLimiter: ratelimit.New("Ridibooks", defaultRatePerSecond),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// ClientOption is a functional option for configuring the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c HTTPDoer) ClientOption {
	return func(client *Client) {
		if c != nil {
			client.httpClient = c
		}
	}
}

// WithSearchURL sets a custom search API endpoint.
func WithSearchURL(u string) ClientOption {
	return func(client *Client) {
		if u != "" {
			client.searchURL = u
		}
	}
}

// WithStoreURL sets a custom storefront base URL for book links.
func WithStoreURL(u string) ClientOption {
	return func(client *Client) {
		if u != "" {
			client.storeURL = u
		}
	}
}

type searchResponse struct {
	Total int        `json:"total"`
	Books []bookItem `json:"books"`
}

type bookItem struct {
	BID        string `json:"b_id"`
	Title      string `json:"title"`
	WebTitle   string `json:"web_title_title"`
	Author     string `json:"author"`
	Author2    string `json:"author2"`
	Translator string `json:"translator"`
	Publisher  string `json:"publisher"`
}

// SearchByTitle runs one keyword search against the Select catalog. The
// whole result page is cached; empty pages get the negative-cache TTL.
func (c *Client) SearchByTitle(ctx context.Context, keyword string) ([]Book, error) {
	books, _, err := cache.GetOrFetchWithTTL(cacheTable, keyword, func() ([]Book, error) {
		return c.fetchSearch(ctx, keyword)
	}, cache.SelectNegativeCacheTTL(func(books []Book) bool {
		return len(books) == 0
	}))
	return books, err
}

func (c *Client) fetchSearch(ctx context.Context, keyword string) ([]Book, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("keyword", keyword)
	params.Set("where", "book")
	params.Set("site", "ridi-select")
	params.Set("what", "base")
	params.Set("start", "0")

	reqURL := fmt.Sprintf("%s?%s", c.searchURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ridibooks search request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, bherrors.NewRateLimitError("ridibooks search rate limit exceeded")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ridibooks search returned status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode ridibooks response: %w", err)
	}

	books := make([]Book, 0, len(parsed.Books))
	for _, item := range parsed.Books {
		if book, ok := c.toBook(item); ok {
			books = append(books, book)
		}
	}
	return books, nil
}

// highlightTags strips the <strong> markers the API wraps around matched
// words in web_title_title.
var highlightTags = regexp.MustCompile(`<[^>]+>`)

// toBook normalizes one API row. Rows without a title are layout noise
// and dropped.
func (c *Client) toBook(item bookItem) (Book, bool) {
	title := item.WebTitle
	if title == "" {
		title = item.Title
	}
	title = highlightTags.ReplaceAllString(title, "")
	if title == "" {
		return Book{}, false
	}

	author := item.Author
	if item.Author2 != "" {
		author = author + ", " + item.Author2
	}
	if item.Translator != "" {
		author = fmt.Sprintf("%s (역: %s)", author, item.Translator)
	}

	var link, cover string
	if item.BID != "" {
		link = fmt.Sprintf("%s/books/%s", c.storeURL, item.BID)
		cover = fmt.Sprintf("%s/%s/xxlarge", defaultCoverURL, item.BID)
	}

	return Book{
		Title:     title,
		Author:    author,
		Publisher: item.Publisher,
		Link:      link,
		CoverURL:  cover,
	}, true
}
