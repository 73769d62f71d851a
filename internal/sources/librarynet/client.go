// Package librarynet checks public library holdings through the
// data4library API: one bookExist call per configured library, plus a
// cached libSrch lookup to turn library codes into display names.
package librarynet

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"bookhunt/internal/cache"
	bherrors "bookhunt/internal/errors"
	"bookhunt/internal/ratelimit"
)

const (
	defaultBaseURL       = "https://data4library.kr/api"
	defaultRatePerSecond = 3
	defaultBurst         = 6
)

const (
	holdingCacheTable = "librarynet_cache"
	libInfoCacheTable = "libraryinfo_cache"
)

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Holding is the availability of one book at one library.
type Holding struct {
	LibCode       string `json:"lib_code"`
	LibName       string `json:"lib_name,omitempty"`
	HasBook       bool   `json:"has_book"`
	LoanAvailable bool   `json:"loan_available"`
}

// Client is a data4library API client.
type Client struct {
	authKey     string
	baseURL     string
	httpClient  HTTPDoer
	rateLimiter *ratelimit.Limiter

	mu       sync.RWMutex
	libNames map[string]string
}

// NewClient creates a new data4library API client. The burst allowance
// covers the per-library fan-out without serializing every call.
func NewClient(authKey string, opts ...Option) *Client {
	client := &Client{
		authKey:     authKey,
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		rateLimiter: ratelimit.NewWithBurst("data4library", defaultRatePerSecond, defaultBurst),
		libNames:    make(map[string]string),
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

// WithBaseURL sets a custom base URL for the data4library API.
func WithBaseURL(base string) Option {
	return func(client *Client) {
		if base != "" {
			client.baseURL = base
		}
	}
}

type bookExistResponse struct {
	Response struct {
		Error  string `json:"error"`
		Result struct {
			HasBook       string `json:"hasBook"`
			LoanAvailable string `json:"loanAvailable"`
		} `json:"result"`
	} `json:"response"`
}

type libSrchResponse struct {
	Response struct {
		Error string `json:"error"`
		Libs  []struct {
			Lib struct {
				LibCode json.Number `json:"libCode"`
				LibName string      `json:"libName"`
			} `json:"lib"`
		} `json:"libs"`
	} `json:"response"`
}

// BookExists checks whether one library holds the given ISBN-13. The
// answer is cached per library+ISBN; negative answers expire sooner.
func (c *Client) BookExists(ctx context.Context, libCode, isbn string) (Holding, error) {
	cacheKey := libCode + ":" + isbn

	holding, _, err := cache.GetOrFetchWithTTL(holdingCacheTable, cacheKey, func() (Holding, error) {
		return c.fetchBookExist(ctx, libCode, isbn)
	}, cache.SelectNegativeCacheTTL(func(h Holding) bool {
		return !h.HasBook
	}))
	return holding, err
}

func (c *Client) fetchBookExist(ctx context.Context, libCode, isbn string) (Holding, error) {
	params := url.Values{}
	params.Set("libCode", libCode)
	params.Set("isbn13", isbn)

	var parsed bookExistResponse
	if err := c.getJSON(ctx, "bookExist", params, &parsed); err != nil {
		return Holding{}, err
	}
	if parsed.Response.Error != "" {
		return Holding{}, fmt.Errorf("data4library error for library %s: %s", libCode, parsed.Response.Error)
	}

	return Holding{
		LibCode:       libCode,
		HasBook:       parsed.Response.Result.HasBook == "Y",
		LoanAvailable: parsed.Response.Result.LoanAvailable == "Y",
	}, nil
}

// LibraryName resolves a library code to its display name. Names are
// memoized in-process and cached on disk; an unresolvable code falls
// back to the code itself so holdings always render something.
func (c *Client) LibraryName(ctx context.Context, libCode string) string {
	c.mu.RLock()
	name, ok := c.libNames[libCode]
	c.mu.RUnlock()
	if ok {
		return name
	}

	name, _, err := cache.GetOrFetch(libInfoCacheTable, libCode, func() (string, error) {
		return c.fetchLibraryName(ctx, libCode)
	})
	if err != nil {
		slog.Warn("Failed to resolve library name", "lib_code", libCode, "error", err)
		return libCode
	}

	c.mu.Lock()
	c.libNames[libCode] = name
	c.mu.Unlock()
	return name
}

func (c *Client) fetchLibraryName(ctx context.Context, libCode string) (string, error) {
	params := url.Values{}
	params.Set("libCode", libCode)

	var parsed libSrchResponse
	if err := c.getJSON(ctx, "libSrch", params, &parsed); err != nil {
		return "", err
	}
	if parsed.Response.Error != "" {
		return "", fmt.Errorf("data4library error: %s", parsed.Response.Error)
	}
	for _, entry := range parsed.Response.Libs {
		if entry.Lib.LibCode.String() == libCode {
			return entry.Lib.LibName, nil
		}
	}
	if len(parsed.Response.Libs) > 0 {
		return parsed.Response.Libs[0].Lib.LibName, nil
	}
	return "", fmt.Errorf("no library found for code %s", libCode)
}

// CheckLibraries fans one ISBN out across all configured libraries
// concurrently. Individual library failures are logged and dropped; the
// call only errors when every library fails, so a single flaky branch
// never hides the rest.
func (c *Client) CheckLibraries(ctx context.Context, libCodes []string, isbn string) ([]Holding, error) {
	holdings := make([]Holding, len(libCodes))
	errs := make([]error, len(libCodes))

	var wg sync.WaitGroup
	for i, libCode := range libCodes {
		wg.Add(1)
		go func(i int, libCode string) {
			defer wg.Done()
			holdings[i], errs[i] = c.BookExists(ctx, libCode, isbn)
		}(i, libCode)
	}
	wg.Wait()

	results := make([]Holding, 0, len(libCodes))
	failures := 0
	var lastErr error
	for i := range libCodes {
		if errs[i] != nil {
			failures++
			lastErr = errs[i]
			slog.Warn("Library check failed", "lib_code", libCodes[i], "error", errs[i])
			continue
		}
		holding := holdings[i]
		holding.LibName = c.LibraryName(ctx, holding.LibCode)
		results = append(results, holding)
	}

	if failures == len(libCodes) && failures > 0 {
		return nil, fmt.Errorf("all %d library checks failed: %w", failures, lastErr)
	}
	return results, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return err
	}

	params.Set("authKey", c.authKey)
	params.Set("format", "json")

	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("data4library request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return bherrors.NewRateLimitError("data4library rate limit exceeded")
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("data4library returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode data4library response: %w", err)
	}
	return nil
}
