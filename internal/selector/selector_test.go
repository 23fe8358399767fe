package selector

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseValid(t *testing.T) {
	tests := []struct {
		expr     string
		maxIndex int
		want     []int
	}{
		{"1,3-7,9", 9, []int{1, 3, 4, 5, 6, 7, 9}},
		{"5,1-3", 5, []int{1, 2, 3, 5}},
		{"1-3,5", 5, []int{1, 2, 3, 5}}, // order-independent
		{"1,1-3", 3, []int{1, 2, 3}},    // duplicates collapse
		{"2,2,2", 5, []int{2}},
		{"4", 4, []int{4}},
		{"1-1", 1, []int{1}},
		{"3, 5 ,7", 9, []int{3, 5, 7}}, // whitespace around tokens tolerated
		{"9,8,7", 9, []int{7, 8, 9}},
		{"1-10", 10, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Parse(tt.expr, tt.maxIndex)
			if err != nil {
				t.Fatalf("Parse(%q, %d) returned error: %v", tt.expr, tt.maxIndex, err)
			}
			if !reflect.DeepEqual([]int(got), tt.want) {
				t.Errorf("Parse(%q, %d) = %v, want %v", tt.expr, tt.maxIndex, got, tt.want)
			}
		})
	}
}

func TestParseInvalidToken(t *testing.T) {
	tests := []struct {
		expr      string
		maxIndex  int
		wantToken string
	}{
		{"0,2", 5, "0"},     // below lower bound
		{"3-2", 5, "3-2"},   // descending range
		{"6", 5, "6"},       // above maxIndex
		{"1-6", 5, "1-6"},   // range end above maxIndex
		{"a", 5, "a"},       // non-numeric
		{"1,x,3", 5, "x"},   // bad token rejects whole expression
		{"+1", 5, "+1"},     // explicit sign not allowed
		{"1 - 3", 5, "1 - 3"}, // whitespace inside a token
		{"1,,3", 5, ""},     // empty token
		{"1-2-3", 5, "1-2-3"},
		{"-3", 5, "-3"},
		{"2-", 5, "2-"},
		{"1.5", 5, "1.5"},
		{"1", 0, "1"}, // empty listing: everything is out of range
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, err := Parse(tt.expr, tt.maxIndex)
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("Parse(%q, %d) error = %v, want *ParseError", tt.expr, tt.maxIndex, err)
			}
			if perr.Reason != InvalidToken {
				t.Errorf("reason = %v, want InvalidToken", perr.Reason)
			}
			if perr.Token != tt.wantToken {
				t.Errorf("token = %q, want %q", perr.Token, tt.wantToken)
			}
		})
	}
}

func TestParseEmptySelection(t *testing.T) {
	for _, expr := range []string{"", "   ", "\t"} {
		t.Run("expr="+expr, func(t *testing.T) {
			_, err := Parse(expr, 5)
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("Parse(%q, 5) error = %v, want *ParseError", expr, err)
			}
			if perr.Reason != EmptySelection {
				t.Errorf("reason = %v, want EmptySelection", perr.Reason)
			}
		})
	}
}

func TestParseNeverPartial(t *testing.T) {
	// An expression with one bad token yields no selection at all.
	sel, err := Parse("1,2,99", 5)
	if err == nil {
		t.Fatal("expected error")
	}
	if sel != nil {
		t.Errorf("expected nil selection alongside error, got %v", sel)
	}
}

func TestSelectionString(t *testing.T) {
	tests := []struct {
		sel  Selection
		want string
	}{
		{nil, ""},
		{Selection{3}, "3"},
		{Selection{1, 2}, "1,2"},
		{Selection{1, 3, 4, 5, 6, 7, 9}, "1,3-7,9"},
		{Selection{1, 2, 3, 5}, "1-3,5"},
		{Selection{2, 4, 6}, "2,4,6"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.sel.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestParseRoundTrip verifies that re-parsing a selection's own rendering
// yields the same selection.
func TestParseRoundTrip(t *testing.T) {
	exprs := []string{"1,3-7,9", "5,1-3", "2,4,6,8", "1-10", "7"}
	for _, expr := range exprs {
		t.Run(expr, func(t *testing.T) {
			first, err := Parse(expr, 10)
			if err != nil {
				t.Fatal(err)
			}
			second, err := Parse(first.String(), 10)
			if err != nil {
				t.Fatalf("re-parse of %q failed: %v", first.String(), err)
			}
			if !reflect.DeepEqual(first, second) {
				t.Errorf("round trip changed selection: %v -> %v", first, second)
			}
			if len(second) > 10 {
				t.Errorf("selection larger than maxIndex: %d", len(second))
			}
		})
	}
}
