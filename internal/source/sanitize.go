// Package source provides the item sources a search.Controller binds to
// and pages through: a SQLite store, a gRPC item server and its client, an
// external command, and item files.
package source

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// ansiRE matches ANSI escape sequences:
//   - CSI sequences: ESC [ ... final_byte  (covers SGR like \x1b[31m)
//   - OSC sequences: ESC ] ... (ST | BEL)
//   - Charset sequences: ESC ( B, ESC ) B, etc.
//   - Other two-byte escapes: ESC followed by a single byte in [#()*+\-./]
var ansiRE = regexp.MustCompile(`\x1b(?:` +
	`\[[0-9;]*[A-Za-z]` +
	`|` +
	`\].*?(?:\x1b\\|\x07)` +
	`|` +
	`[()][A-B0-2]` +
	`|` +
	`[#()*+\-./][A-Za-z0-9]` +
	`)`)

// StripANSI removes ANSI escape sequences from a string.
func StripANSI(s string) string {
	return ansiRE.ReplaceAllString(s, "")
}

// ValidateUTF8 replaces invalid UTF-8 byte sequences with U+FFFD.
func ValidateUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, string(utf8.RuneError))
}

// CleanText prepares untrusted text for display and matching: escape
// sequences are removed, invalid UTF-8 is replaced, and surrounding
// whitespace is trimmed.
func CleanText(s string) string {
	return strings.TrimSpace(ValidateUTF8(StripANSI(s)))
}
