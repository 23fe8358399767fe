// Package sanitize scrubs remote-supplied names before they reach the
// terminal.
//
// A hostile or merely messy remote filesystem can contain names with
// embedded escape sequences, zero-width characters, or raw control bytes.
// Printed as-is those can retitle the terminal, move the cursor, or hide
// characters inside an otherwise plausible name. Everything the browser
// renders from a listing goes through DisplayName first.
package sanitize

import (
	"strings"
	"unicode"
)

// invisible characters stripped from names before display.
// These render as nothing but change what the operator believes they typed
// or selected.
var invisibleChars = []string{
	"​", // Zero-width space
	"‌", // Zero-width non-joiner
	"‍", // Zero-width joiner
	"\uFEFF", // Zero-width no-break space (BOM)
	"­", // Soft hyphen
	"⁠", // Word joiner
	"᠎", // Mongolian vowel separator
}

// DisplayName returns a terminal-safe rendering of a remote file name.
// Control characters (including ESC) are replaced with '?', invisible
// Unicode characters are removed, and the result is never empty: a name
// that sanitizes to nothing comes back as "?".
func DisplayName(name string) string {
	name = removeInvisibleChars(name)
	name = replaceControlChars(name)
	if name == "" {
		return "?"
	}
	return name
}

// removeInvisibleChars removes zero-width and other invisible Unicode
// characters.
func removeInvisibleChars(s string) string {
	for _, char := range invisibleChars {
		s = strings.ReplaceAll(s, char, "")
	}
	return s
}

// replaceControlChars substitutes '?' for every control rune.
// Newlines and tabs count: a listing cell is always a single line.
func replaceControlChars(s string) string {
	if !strings.ContainsFunc(s, unicode.IsControl) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsControl(r) {
			b.WriteRune('?')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
