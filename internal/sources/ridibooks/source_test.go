package ridibooks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"bookhunt/internal/cache"
	bherrors "bookhunt/internal/errors"
	"bookhunt/internal/source"
	"bookhunt/internal/testutil"
)

const searchResponseJSON = `{
  "total": 2,
  "books": [
    {
      "b_id": "123456789",
      "web_title_title": "<strong>소년이</strong> 온다",
      "author": "한강",
      "translator": "",
      "publisher": "창비"
    },
    {
      "b_id": "987654321",
      "title": "Human Acts",
      "author": "Han Kang",
      "author2": "Deborah Smith",
      "translator": "데보라 스미스",
      "publisher": "Portobello"
    }
  ]
}`

func setupRidibooksTest(t *testing.T, handler http.HandlerFunc) *Source {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	env := testutil.NewTestEnv(t)
	testutil.SetupTestCache(t, env)
	if err := cache.ResetGlobalCache(); err != nil {
		t.Fatalf("failed to reset cache: %v", err)
	}
	t.Cleanup(func() {
		_ = cache.ResetGlobalCache()
	})

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	src, err := New(map[string]string{
		"search_url": server.URL,
		"store_url":  "https://store.test",
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return src.(*Source)
}

func TestCapabilities(t *testing.T) {
	src := setupRidibooksTest(t, func(w http.ResponseWriter, r *http.Request) {})
	if src.SupportsISBN() || !src.SupportsTitle() {
		t.Error("ridibooks should be title-only")
	}
	if src.Name() != "ridibooks" {
		t.Errorf("Name = %q", src.Name())
	}
}

func TestSearch(t *testing.T) {
	var gotQuery map[string]string
	src := setupRidibooksTest(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"keyword": q.Get("keyword"),
			"where":   q.Get("where"),
			"site":    q.Get("site"),
		}
		if r.Header.Get("User-Agent") == "" {
			t.Error("missing User-Agent header")
		}
		_, _ = w.Write([]byte(searchResponseJSON))
	})

	results, err := src.Search(context.Background(), "소년이 온다", source.QueryTitle, 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if gotQuery["keyword"] != "소년이 온다" || gotQuery["where"] != "book" || gotQuery["site"] != "ridi-select" {
		t.Errorf("unexpected query params: %v", gotQuery)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	first := results[0]
	if first.Title != "소년이 온다" {
		t.Errorf("highlight tags not stripped: %q", first.Title)
	}
	if first.Link != "https://store.test/books/123456789" {
		t.Errorf("unexpected link: %q", first.Link)
	}
	if !strings.Contains(first.CoverURL, "123456789") {
		t.Errorf("cover not derived from book id: %q", first.CoverURL)
	}
	if first.Availability != "in subscription" {
		t.Errorf("Availability = %q", first.Availability)
	}

	second := results[1]
	if second.Author != "Han Kang, Deborah Smith (역: 데보라 스미스)" {
		t.Errorf("authors not merged: %q", second.Author)
	}
}

func TestSearchRejectsISBN(t *testing.T) {
	src := setupRidibooksTest(t, func(w http.ResponseWriter, r *http.Request) {})
	if _, err := src.Search(context.Background(), "9788936434120", source.QueryISBN, 10); err == nil {
		t.Error("expected error for ISBN query")
	}
}

func TestSearchUsesCache(t *testing.T) {
	requests := 0
	src := setupRidibooksTest(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		_, _ = w.Write([]byte(searchResponseJSON))
	})

	for i := 0; i < 2; i++ {
		if _, err := src.Search(context.Background(), "소년이 온다", source.QueryTitle, 10); err != nil {
			t.Fatalf("Search failed: %v", err)
		}
	}
	if requests != 1 {
		t.Errorf("expected 1 upstream request, got %d", requests)
	}
}

func TestSearchCapsResults(t *testing.T) {
	src := setupRidibooksTest(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(searchResponseJSON))
	})

	results, err := src.Search(context.Background(), "소년이 온다", source.QueryTitle, 1)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected results capped at 1, got %d", len(results))
	}
}

func TestSearchRateLimited(t *testing.T) {
	src := setupRidibooksTest(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := src.Search(context.Background(), "anything", source.QueryTitle, 10)
	if !bherrors.IsRateLimit(err) {
		t.Fatalf("expected a rate limit error, got %v", err)
	}
}

func TestTitlelessRowsDropped(t *testing.T) {
	src := setupRidibooksTest(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"total":1,"books":[{"b_id":"1","author":"ghost"}]}`))
	})

	results, err := src.Search(context.Background(), "소년이 온다", source.QueryTitle, 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected titleless rows dropped, got %+v", results)
	}
}

func TestFormatResults(t *testing.T) {
	src := setupRidibooksTest(t, func(w http.ResponseWriter, r *http.Request) {})
	out := src.FormatResults([]source.RawResult{
		{Title: "소년이 온다", Author: "한강", Link: "https://store.test/books/1"},
	})
	if !strings.Contains(out, "- 소년이 온다 / 한강 (https://store.test/books/1)\n") {
		t.Errorf("unexpected formatting:\n%s", out)
	}
}
