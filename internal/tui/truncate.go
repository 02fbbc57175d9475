package tui

import "github.com/mattn/go-runewidth"

const ellipsis = "…"

// MiddleTruncate shortens s to maxWidth display columns by replacing its
// middle with an ellipsis. Wide runes (CJK, emoji) count as two columns.
// Below three columns there is no room for the ellipsis and s is cut from
// the right.
func MiddleTruncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth < 3 {
		return truncateLeft(s, maxWidth)
	}

	// The head gets the extra column when the remainder is odd.
	remaining := maxWidth - 1
	head := truncateLeft(s, (remaining+1)/2)
	tail := truncateRight(s, remaining/2)
	return head + ellipsis + tail
}

// truncateLeft keeps the longest prefix of s that fits in maxWidth.
func truncateLeft(s string, maxWidth int) string {
	w := 0
	for i, r := range s {
		rw := runewidth.RuneWidth(r)
		if w+rw > maxWidth {
			return s[:i]
		}
		w += rw
	}
	return s
}

// truncateRight keeps the longest suffix of s that fits in maxWidth.
func truncateRight(s string, maxWidth int) string {
	runes := []rune(s)
	w := 0
	start := len(runes)
	for i := len(runes) - 1; i >= 0; i-- {
		rw := runewidth.RuneWidth(runes[i])
		if w+rw > maxWidth {
			break
		}
		w += rw
		start = i
	}
	return string(runes[start:])
}
