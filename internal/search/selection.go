package search

import (
	"fmt"
	"strings"
)

// SelectionMode is fixed per controller.
type SelectionMode int

const (
	Single SelectionMode = iota
	Multiple
)

// String returns the config spelling of the mode.
func (m SelectionMode) String() string {
	switch m {
	case Single:
		return "single"
	case Multiple:
		return "multiple"
	default:
		return fmt.Sprintf("SelectionMode(%d)", int(m))
	}
}

// ParseSelectionMode accepts "single" or "multiple", case-insensitively.
func ParseSelectionMode(s string) (SelectionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "single":
		return Single, nil
	case "multiple", "multi":
		return Multiple, nil
	default:
		return Single, fmt.Errorf("unknown selection mode %q", s)
	}
}

// selectionTracker applies the checkbox semantics of a mode.
type selectionTracker struct {
	mode SelectionMode
}

// Toggle applies a selection gesture on item. In Single mode every item of
// full is cleared first, including ones outside the current filtered view.
func (t selectionTracker) Toggle(full []*Item, item *Item) {
	if item == nil {
		return
	}
	if t.mode == Multiple {
		item.Checked = !item.Checked
		return
	}
	for _, it := range full {
		it.Checked = false
	}
	item.Checked = true
}

// Checked returns the checked items of full in source order.
func (t selectionTracker) Checked(full []*Item) []*Item {
	var out []*Item
	for _, it := range full {
		if it.Checked {
			out = append(out, it)
		}
	}
	return out
}
