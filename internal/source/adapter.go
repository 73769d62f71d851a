package source

import "context"

// BlockingSource is the contract for connectors whose search cannot
// observe a context, such as the local filesystem scanner. The sync
// adapter bridges them onto the context-aware Source contract.
type BlockingSource interface {
	Name() string
	SupportsISBN() bool
	SupportsTitle() bool
	SearchBlocking(query string, queryType QueryType, maxResults int) ([]RawResult, error)
	FormatResults(results []RawResult) string
}

// syncAdapter wraps a BlockingSource so it satisfies Source. The blocking
// call runs on its own goroutine; if the caller's context is cancelled
// first the adapter returns ctx.Err() and the goroutine is left to finish
// and be collected on its own. At most one blocking call is in flight per
// Search invocation.
type syncAdapter struct {
	wrapped BlockingSource
}

// WrapBlocking adapts a blocking connector to the Source contract without
// changing its behavior: name and capability flags are taken from the
// wrapped connector, results and errors pass through unchanged and in
// order.
func WrapBlocking(bs BlockingSource) Source {
	return &syncAdapter{wrapped: bs}
}

func (a *syncAdapter) Name() string        { return a.wrapped.Name() }
func (a *syncAdapter) SupportsISBN() bool  { return a.wrapped.SupportsISBN() }
func (a *syncAdapter) SupportsTitle() bool { return a.wrapped.SupportsTitle() }

func (a *syncAdapter) FormatResults(results []RawResult) string {
	return a.wrapped.FormatResults(results)
}

type searchOutcome struct {
	results []RawResult
	err     error
}

func (a *syncAdapter) Search(ctx context.Context, query string, queryType QueryType, maxResults int) ([]RawResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done := make(chan searchOutcome, 1)
	go func() {
		results, err := a.wrapped.SearchBlocking(query, queryType, maxResults)
		done <- searchOutcome{results: results, err: err}
	}()

	select {
	case out := <-done:
		return out.results, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
