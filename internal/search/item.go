// Package search implements the incremental-search and pagination
// controller that backs a selectable list. It debounces query changes,
// keeps a full and a filtered view of the items, pages through them locally
// or through an external Fetcher, and tracks selection across both views.
//
// The package has no knowledge of any rendering layer: embedders subscribe
// to Snapshot values and marshal them into their own UI context.
package search

import "context"

// Item is a single selectable entry. Identity is the pointer, not ID:
// pages coming from a remote source may repeat IDs.
type Item struct {
	ID       int
	SubID    int
	Title    string // Matched by the filter
	Subtitle string
	Logo     string // Opaque image reference for the presentation layer

	Checked       bool
	Busy          bool // Set while a show-loader selection is being processed
	ShowSeparator bool

	// Payload is attached by the embedder and never inspected here.
	Payload any
}

// NewItem returns an item with the separator shown, matching how list rows
// are rendered by default.
func NewItem(id int, title string) *Item {
	return &Item{ID: id, Title: title, ShowSeparator: true}
}

// Fetcher supplies additional pages when the local items are exhausted.
// An empty result means the source has no more data; it is not an error.
type Fetcher interface {
	Fetch(ctx context.Context, offset, limit int) ([]*Item, error)
}

// FetcherFunc adapts a plain function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, offset, limit int) ([]*Item, error)

// Fetch calls f(ctx, offset, limit).
func (f FetcherFunc) Fetch(ctx context.Context, offset, limit int) ([]*Item, error) {
	return f(ctx, offset, limit)
}

// Loader supplies the initial item set at bind time.
type Loader interface {
	Load(ctx context.Context) ([]*Item, error)
}

// LoaderFunc adapts a plain function to the Loader interface.
type LoaderFunc func(ctx context.Context) ([]*Item, error)

// Load calls f(ctx).
func (f LoaderFunc) Load(ctx context.Context) ([]*Item, error) {
	return f(ctx)
}
