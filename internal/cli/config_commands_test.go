package cli

import (
	"path/filepath"
	"testing"

	"github.com/farview/sshfm/internal/config"
)

func TestApplySetting(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		wantErr bool
		check   func(s config.Settings) bool
	}{
		{"workers", "6", false, func(s config.Settings) bool { return s.Workers == 6 }},
		{"workers", "many", true, nil},
		{"show_hidden", "true", false, func(s config.Settings) bool { return s.ShowHidden }},
		{"show_hidden", "maybe", true, nil},
		{"bandwidth_limit", "1048576", false, func(s config.Settings) bool { return s.BandwidthLimit == 1048576 }},
		{"download_dir", "/tmp/dl", false, func(s config.Settings) bool { return s.DownloadDir == "/tmp/dl" }},
		{"log_level", "debug", false, func(s config.Settings) bool { return s.LogLevel == "debug" }},
		{"host_key_policy", "strict", false, func(s config.Settings) bool { return s.HostKeyPolicy == "strict" }},
		{"no_such_key", "x", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			s := config.DefaultSettings()
			err := applySetting(&s, tt.key, tt.value)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("applySetting(%q, %q) succeeded, want error", tt.key, tt.value)
				}
				return
			}
			if err != nil {
				t.Fatalf("applySetting(%q, %q): %v", tt.key, tt.value, err)
			}
			if !tt.check(s) {
				t.Errorf("applySetting(%q, %q) did not take effect: %+v", tt.key, tt.value, s)
			}
		})
	}
}

func TestConfigSetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	s := config.DefaultSettings()
	if err := applySetting(&s, "workers", "2"); err != nil {
		t.Fatal(err)
	}
	if err := config.Save(path, s); err != nil {
		t.Fatal(err)
	}

	loaded, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Workers != 2 {
		t.Errorf("Workers = %d after round trip", loaded.Workers)
	}
}
