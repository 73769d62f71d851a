package source

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubBlocking struct {
	name    string
	results []RawResult
	err     error
	delay   time.Duration
	calls   int
}

func (s *stubBlocking) Name() string        { return s.name }
func (s *stubBlocking) SupportsISBN() bool  { return false }
func (s *stubBlocking) SupportsTitle() bool { return true }

func (s *stubBlocking) SearchBlocking(query string, queryType QueryType, maxResults int) ([]RawResult, error) {
	s.calls++
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.results, s.err
}

func (s *stubBlocking) FormatResults(results []RawResult) string { return "formatted" }

func TestWrapBlockingPassesThrough(t *testing.T) {
	blocking := &stubBlocking{
		name:    "localshelf",
		results: []RawResult{{Title: "a"}, {Title: "b"}},
	}
	src := WrapBlocking(blocking)

	if src.Name() != "localshelf" {
		t.Errorf("Name = %q", src.Name())
	}
	if src.SupportsISBN() {
		t.Error("capability flag should pass through")
	}
	if !src.SupportsTitle() {
		t.Error("capability flag should pass through")
	}
	if src.FormatResults(nil) != "formatted" {
		t.Error("FormatResults should delegate to the wrapped source")
	}

	results, err := src.Search(context.Background(), "q", QueryTitle, 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 || results[0].Title != "a" || results[1].Title != "b" {
		t.Errorf("results not passed through in order: %+v", results)
	}
}

func TestWrapBlockingPassesThroughError(t *testing.T) {
	wantErr := errors.New("disk unreadable")
	src := WrapBlocking(&stubBlocking{name: "localshelf", err: wantErr})

	_, err := src.Search(context.Background(), "q", QueryTitle, 10)
	if !errors.Is(err, wantErr) {
		t.Errorf("expected wrapped source error, got %v", err)
	}
}

func TestWrapBlockingContextCancelled(t *testing.T) {
	src := WrapBlocking(&stubBlocking{name: "slow", delay: 5 * time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := src.Search(ctx, "q", QueryTitle, 10)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
}

func TestWrapBlockingAlreadyCancelled(t *testing.T) {
	blocking := &stubBlocking{name: "localshelf"}
	src := WrapBlocking(blocking)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.Search(ctx, "q", QueryTitle, 10)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected Canceled, got %v", err)
	}
	if blocking.calls != 0 {
		t.Error("blocking search must not start under a dead context")
	}
}
