package search

// resultStore owns the full item set and the active view. It does no I/O
// and no locking; the Controller serializes access.
type resultStore struct {
	full     []*Item
	filtered []*Item // nil when no filter is active
	query    string
}

// bind replaces the full set and clears any filter.
func (s *resultStore) bind(items []*Item) {
	s.full = items
	s.filtered = nil
	s.query = ""
}

// active returns the list the window is computed over.
func (s *resultStore) active() []*Item {
	if s.filtered == nil {
		return s.full
	}
	return s.filtered
}

// isFiltered reports whether active is a filtered subset rather than full.
func (s *resultStore) isFiltered() bool {
	return s.filtered != nil
}

// applyQuery recomputes the active view for query.
func (s *resultStore) applyQuery(query string) {
	s.query = query
	if isBlank(query) {
		s.filtered = nil
		return
	}
	s.filtered = Filter(s.full, query)
}

// appendFull grows the full set. Items that match the current filter are
// also appended to the filtered view, which keeps it an in-order subset
// of full. It returns how many items joined the active view.
func (s *resultStore) appendFull(items []*Item) int {
	s.full = append(s.full, items...)
	if s.filtered == nil {
		return len(items)
	}
	added := 0
	for _, it := range items {
		if Match(it, s.query) {
			s.filtered = append(s.filtered, it)
			added++
		}
	}
	return added
}
