package search

import "strings"

// Filter returns the items of full whose Title contains query, ignoring
// case. Matching uses ordinal upper-case folding so results do not depend
// on the host locale.
//
// A blank query returns full itself, not a copy, so an unfiltered view is
// always the full set.
func Filter(full []*Item, query string) []*Item {
	if isBlank(query) {
		return full
	}
	needle := strings.ToUpper(query)
	out := make([]*Item, 0, len(full))
	for _, it := range full {
		if matchFolded(it, needle) {
			out = append(out, it)
		}
	}
	return out
}

// Match reports whether a single item satisfies query. A blank query
// matches everything.
func Match(it *Item, query string) bool {
	if isBlank(query) {
		return true
	}
	return matchFolded(it, strings.ToUpper(query))
}

func matchFolded(it *Item, needle string) bool {
	if it == nil || it.Title == "" {
		return false
	}
	return strings.Contains(strings.ToUpper(it.Title), needle)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
