// Package selector parses operator-typed selection expressions like "1,3-7,9"
// into ordered sets of 1-based listing indices.
package selector

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Reason identifies why an expression was rejected.
type Reason int

const (
	// InvalidToken - a token is non-numeric, malformed, a descending range,
	// or references an index outside 1..maxIndex.
	InvalidToken Reason = iota

	// EmptySelection - the expression is empty or selects nothing.
	EmptySelection
)

// ParseError describes a rejected selection expression. The whole expression
// is rejected; no partial selection is ever returned alongside an error.
type ParseError struct {
	Reason Reason
	Token  string // offending token, empty for EmptySelection
}

func (e *ParseError) Error() string {
	if e.Reason == EmptySelection {
		return "empty selection"
	}
	return fmt.Sprintf("invalid selection token %q", e.Token)
}

// Selection is a set of 1-based listing indices, unique and in ascending
// order. The zero value is an empty selection.
type Selection []int

// Parse evaluates a selection expression against a listing of maxIndex
// entries. Tokens are comma-separated; each is a single integer or an
// ascending range "a-b". Every referenced index must lie in 1..maxIndex.
// Duplicates collapse silently. Whitespace around a token is tolerated,
// whitespace inside a token is not.
func Parse(expr string, maxIndex int) (Selection, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, &ParseError{Reason: EmptySelection}
	}

	seen := make(map[int]struct{})
	for _, raw := range strings.Split(expr, ",") {
		token := strings.TrimSpace(raw)
		lo, hi, ok := parseToken(token)
		if !ok || lo < 1 || hi > maxIndex {
			return nil, &ParseError{Reason: InvalidToken, Token: token}
		}
		for i := lo; i <= hi; i++ {
			seen[i] = struct{}{}
		}
	}

	if len(seen) == 0 {
		return nil, &ParseError{Reason: EmptySelection}
	}

	indices := make(Selection, 0, len(seen))
	for i := range seen {
		indices = append(indices, i)
	}
	slices.Sort(indices)
	return indices, nil
}

// parseToken returns the inclusive index interval a token covers.
// ok is false for anything that is not INTEGER or INTEGER-INTEGER with
// the left bound <= the right bound.
func parseToken(token string) (lo, hi int, ok bool) {
	dash := strings.IndexByte(token, '-')
	if dash < 0 {
		n, ok := parseIndex(token)
		return n, n, ok
	}

	lo, okLo := parseIndex(token[:dash])
	hi, okHi := parseIndex(token[dash+1:])
	if !okLo || !okHi || lo > hi {
		return 0, 0, false
	}
	return lo, hi, true
}

// parseIndex parses a bare base-10 integer. Signs, whitespace, and anything
// strconv would forgive beyond plain digits are rejected here.
func parseIndex(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// String renders the selection in compact ascending comma/range form,
// e.g. {1,3,4,5,6,7,9} -> "1,3-7,9". Parse(s.String(), max) round-trips
// to an equal selection.
func (s Selection) String() string {
	if len(s) == 0 {
		return ""
	}

	var b strings.Builder
	for start := 0; start < len(s); {
		end := start
		for end+1 < len(s) && s[end+1] == s[end]+1 {
			end++
		}
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		switch end {
		case start:
			fmt.Fprintf(&b, "%d", s[start])
		case start + 1:
			fmt.Fprintf(&b, "%d,%d", s[start], s[end])
		default:
			fmt.Fprintf(&b, "%d-%d", s[start], s[end])
		}
		start = end + 1
	}
	return b.String()
}
