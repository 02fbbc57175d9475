package search

// Snapshot is an immutable view of the controller state handed to
// subscribers. Displayed is a copy; the items it points to are shared.
type Snapshot struct {
	// Version increases with every published snapshot. Embedders that
	// receive snapshots on several goroutines keep the highest one.
	Version uint64

	Displayed []*Item
	Query     string // Query text currently applied

	Busy        bool // Initial bind in progress
	LoadingMore bool
	Pending     bool // A debounced query has not been applied yet

	Exposed int  // Length of Displayed
	Matched int  // Length of the active list
	Total   int  // Length of the full list
	AtEnd   bool // Remote source reported no more data

	// Err holds the last fetch or load failure until the next successful
	// step or query.
	Err error
}

// HasMore reports whether a near-end event could grow the window.
func (s Snapshot) HasMore(fetchesFromServer bool) bool {
	if s.Exposed < s.Matched {
		return true
	}
	return fetchesFromServer && !s.AtEnd
}
