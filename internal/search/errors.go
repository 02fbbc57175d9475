package search

import (
	"errors"
	"fmt"
)

var (
	// ErrFetch matches every *FetchError.
	ErrFetch = errors.New("fetch failed")

	// ErrCallback matches every *CallbackError.
	ErrCallback = errors.New("embedder callback failed")

	// ErrNoFetcher is returned by New when remote paging is enabled
	// without a Fetcher.
	ErrNoFetcher = errors.New("fetches_from_server requires a fetcher")
)

// FetchError reports a failed pagination fetch. The window is left
// unchanged and paging returns to idle.
type FetchError struct {
	Offset int
	Limit  int
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch offset=%d limit=%d: %v", e.Offset, e.Limit, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrFetch) true for any FetchError.
func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// CallbackError reports an error or panic raised by an embedder handler.
type CallbackError struct {
	Handler string // "selected" or "close"
	Err     error
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("%s handler: %v", e.Handler, e.Err)
}

func (e *CallbackError) Unwrap() error { return e.Err }

func (e *CallbackError) Is(target error) bool { return target == ErrCallback }

// recovered converts a recovered panic value into an error.
func recovered(r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", r)
}
