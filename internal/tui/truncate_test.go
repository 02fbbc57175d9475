package tui

import (
	"testing"

	"github.com/mattn/go-runewidth"
)

func TestMiddleTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxWidth int
		want     string
	}{
		{"fits", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"odd budget", "abcdefghij", 6, "abc…ij"},
		{"even budget", "abcdefghij", 7, "abc…hij"},
		{"tiny", "abcdef", 2, "ab"},
		{"zero", "abcdef", 0, ""},
		{"negative", "abcdef", -1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MiddleTruncate(tt.input, tt.maxWidth); got != tt.want {
				t.Errorf("MiddleTruncate(%q, %d) = %q, want %q", tt.input, tt.maxWidth, got, tt.want)
			}
		})
	}
}

func TestMiddleTruncate_WideRunes(t *testing.T) {
	s := "日本語のテキストです"
	got := MiddleTruncate(s, 9)
	if w := runewidth.StringWidth(got); w > 9 {
		t.Errorf("width %d exceeds 9: %q", w, got)
	}
	if got == s {
		t.Error("expected truncation")
	}
}
