package filter

import (
	"reflect"
	"testing"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		relPath string
		want    bool
	}{
		{"no filters", Config{}, "a/b/c.txt", true},
		{"include by extension", Config{Include: []string{"*.dat"}}, "results.dat", true},
		{"include matches base name in subdir", Config{Include: []string{"*.dat"}}, "run/results.dat", true},
		{"include misses other extension", Config{Include: []string{"*.dat"}}, "notes.txt", false},
		{"exclude wins over include", Config{Include: []string{"*.txt"}, Exclude: []string{"secret*"}}, "secret.txt", false},
		{"exclude by base name", Config{Exclude: []string{"*.tmp"}}, "deep/dir/scratch.tmp", false},
		{"exclude directory tree", Config{Exclude: []string{".git/**"}}, ".git/objects/ab/cdef", false},
		{"exclude tree leaves siblings", Config{Exclude: []string{".git/**"}}, "src/main.go", true},
		{"double star prefix", Config{Include: []string{"**/result.dat"}}, "a/b/result.dat", true},
		{"double star prefix at root", Config{Include: []string{"**/result.dat"}}, "result.dat", true},
		{"middle double star", Config{Include: []string{"runs/**/out.log"}}, "runs/7/x/out.log", true},
		{"middle double star misses", Config{Include: []string{"runs/**/out.log"}}, "logs/out.log", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.config.Match(tt.relPath); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.relPath, got, tt.want)
			}
		})
	}
}

func TestApply(t *testing.T) {
	cfg := Config{Include: []string{"*.go"}, Exclude: []string{"*_test.go"}}
	in := []string{"main.go", "main_test.go", "doc.txt", "pkg/util.go"}
	want := []string{"main.go", "pkg/util.go"}

	got := cfg.Apply(in)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Apply() = %v, want %v", got, want)
	}
}

func TestParsePatternList(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"*.dat", []string{"*.dat"}},
		{"*.dat,*.txt", []string{"*.dat", "*.txt"}},
		{" *.dat , *.txt ", []string{"*.dat", "*.txt"}},
		{",,", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParsePatternList(tt.input)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParsePatternList(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
