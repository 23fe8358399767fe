package validation

import (
	"strings"
	"testing"
)

func TestValidateFilename(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		wantErr  bool
	}{
		{"simple name", "report.txt", false},
		{"dotfile", ".bashrc", false},
		{"double dots inside", "data..v2.csv", false},
		{"spaces", "my report.txt", false},
		{"unicode", "résultats.csv", false},
		{"empty", "", true},
		{"forward slash", "a/b.txt", true},
		{"backslash", "a\\b.txt", true},
		{"parent reference", "..", true},
		{"null byte", "bad\x00name", true},
		{"traversal attempt", "../../etc/passwd", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFilename(tt.filename)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFilename(%q) error = %v, wantErr %v", tt.filename, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePathInDirectory(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		baseDir string
		wantErr bool
	}{
		{"inside relative", "subdir/file.txt", "/tmp/dest", false},
		{"inside absolute", "/tmp/dest/file.txt", "/tmp/dest", false},
		{"base itself", "/tmp/dest", "/tmp/dest", false},
		{"escape with dotdot", "../../etc/passwd", "/tmp/dest", true},
		{"absolute outside", "/etc/passwd", "/tmp/dest", true},
		{"sneaky clean escape", "ok/../../../etc", "/tmp/dest", true},
		{"sibling prefix", "/tmp/dest-other/file", "/tmp/dest", true},
		{"empty path", "", "/tmp/dest", true},
		{"empty base", "x", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePathInDirectory(tt.path, tt.baseDir)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePathInDirectory(%q, %q) error = %v, wantErr %v",
					tt.path, tt.baseDir, err, tt.wantErr)
			}
		})
	}
}

func TestValidateRemotePath(t *testing.T) {
	if err := ValidateRemotePath("/var/log"); err != nil {
		t.Errorf("unexpected error for valid path: %v", err)
	}
	if err := ValidateRemotePath("  "); err == nil {
		t.Error("expected error for blank path")
	}
	if err := ValidateRemotePath("a\x00b"); err == nil {
		t.Error("expected error for null byte")
	}
	if err := ValidateRemotePath(strings.Repeat("a/", 100)); err != nil {
		t.Errorf("long path should be syntactically fine: %v", err)
	}
}
