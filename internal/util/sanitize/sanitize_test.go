package sanitize

import (
	"testing"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain name", "report.txt", "report.txt"},
		{"unicode name", "résultats.csv", "résultats.csv"},
		{"escape sequence", "evil\x1b]0;pwned\x07.txt", "evil?]0;pwned?.txt"},
		{"newline", "two\nlines", "two?lines"},
		{"tab", "a\tb", "a?b"},
		{"carriage return", "gone\r", "gone?"},
		{"zero-width space", "inno​cent", "innocent"},
		{"bom prefix", "\uFEFFdata.bin", "data.bin"},
		{"soft hyphen", "re­port", "report"},
		{"only invisibles", "​‍", "?"},
		{"empty", "", "?"},
		{"spaces kept", "my file.txt", "my file.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DisplayName(tt.input)
			if got != tt.expected {
				t.Errorf("DisplayName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
