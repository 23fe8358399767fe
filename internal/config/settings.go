// Package config loads and persists tool settings. Settings live in a YAML
// file under the user config directory; a sibling env file and SSHFM_*
// process environment variables override individual values without touching
// the file, which keeps one-off tweaks out of persistent state.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/farview/sshfm/internal/constants"
)

// ErrNoSettings indicates no settings file exists yet. Callers fall back to
// defaults; the file is only written when the operator changes something.
var ErrNoSettings = errors.New("no settings file found")

// Settings holds every operator-tunable knob.
type Settings struct {
	// Workers bounds concurrent transfers within a batch.
	Workers int `yaml:"workers"`

	// ShowHidden includes dotfiles in listings and syncs.
	ShowHidden bool `yaml:"show_hidden"`

	// DownloadDir is the default download destination offered first in the
	// destination menu. Empty means the current directory.
	DownloadDir string `yaml:"download_dir"`

	// BandwidthLimit caps transfer throughput in bytes per second across
	// all workers. 0 means unlimited.
	BandwidthLimit int64 `yaml:"bandwidth_limit"`

	// PreviewLines and PreviewBytes cap the file preview action.
	PreviewLines int `yaml:"preview_lines"`
	PreviewBytes int64 `yaml:"preview_bytes"`

	// RsyncPath locates the bulk-sync binary; empty means "rsync" on PATH.
	// RsyncArgs are appended to every invocation.
	RsyncPath string   `yaml:"rsync_path"`
	RsyncArgs []string `yaml:"rsync_args"`

	// HostKeyPolicy is strict, accept-new, or insecure.
	HostKeyPolicy string `yaml:"host_key_policy"`

	// KnownHostsPath overrides ~/.ssh/known_hosts.
	KnownHostsPath string `yaml:"known_hosts_path"`

	// SOCKS5Proxy is an optional host:port every connection dials through.
	SOCKS5Proxy string `yaml:"socks5_proxy"`

	// LogLevel is debug, info, warn, or error.
	LogLevel string `yaml:"log_level"`
}

// DefaultSettings returns the values used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		Workers:       constants.DefaultMaxConcurrent,
		PreviewLines:  constants.PreviewMaxLines,
		PreviewBytes:  constants.PreviewMaxBytes,
		HostKeyPolicy: "accept-new",
		LogLevel:      "info",
	}
}

// DefaultSettingsPath returns ~/.config/sshfm/config.yaml.
func DefaultSettingsPath() (string, error) {
	dir, err := DefaultSettingsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// DefaultSettingsDir returns ~/.config/sshfm.
func DefaultSettingsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", "sshfm"), nil
}

// Load reads settings from path (or the default location when empty),
// applies env-file and process-environment overrides, and validates the
// result. A missing file yields defaults plus overrides, with ErrNoSettings
// wrapped in for callers that care.
func Load(path string) (Settings, error) {
	var missing error

	if path == "" {
		var err error
		path, err = DefaultSettingsPath()
		if err != nil {
			return Settings{}, err
		}
	}

	s := DefaultSettings()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &s); err != nil {
			return Settings{}, fmt.Errorf("parsing %s: %w", path, err)
		}
	case os.IsNotExist(err):
		missing = fmt.Errorf("%w at %s", ErrNoSettings, path)
	default:
		return Settings{}, fmt.Errorf("reading %s: %w", path, err)
	}

	applyEnvOverrides(&s, filepath.Join(filepath.Dir(path), "env"))

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, missing
}

// Save writes settings atomically via tmp+rename, creating the config
// directory as needed.
func Save(path string, s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	if path == "" {
		var err error
		path, err = DefaultSettingsPath()
		if err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".config.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp settings: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp settings: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// Validate checks ranges and enumerations.
func (s *Settings) Validate() error {
	if s.Workers < constants.MinMaxConcurrent || s.Workers > constants.MaxMaxConcurrent {
		return fmt.Errorf("workers must be between %d and %d, got %d",
			constants.MinMaxConcurrent, constants.MaxMaxConcurrent, s.Workers)
	}
	if s.PreviewLines <= 0 {
		return fmt.Errorf("preview_lines must be positive, got %d", s.PreviewLines)
	}
	if s.PreviewBytes <= 0 {
		return fmt.Errorf("preview_bytes must be positive, got %d", s.PreviewBytes)
	}
	if s.BandwidthLimit < 0 {
		return fmt.Errorf("bandwidth_limit must not be negative, got %d", s.BandwidthLimit)
	}
	switch s.HostKeyPolicy {
	case "strict", "accept-new", "insecure":
	default:
		return fmt.Errorf("host_key_policy must be strict, accept-new, or insecure, got %q", s.HostKeyPolicy)
	}
	switch s.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", s.LogLevel)
	}
	return nil
}

// applyEnvOverrides layers the env file (lowest) under the process
// environment (highest) for every SSHFM_* key. Unparseable values are
// ignored rather than failing startup over a stray export.
func applyEnvOverrides(s *Settings, envFile string) {
	fileVals, _ := godotenv.Read(envFile)

	get := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVals[key]
		return v, ok
	}

	if v, ok := get("SSHFM_WORKERS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			s.Workers = n
		}
	}
	if v, ok := get("SSHFM_SHOW_HIDDEN"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			s.ShowHidden = b
		}
	}
	if v, ok := get("SSHFM_DOWNLOAD_DIR"); ok {
		s.DownloadDir = v
	}
	if v, ok := get("SSHFM_BANDWIDTH_LIMIT"); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			s.BandwidthLimit = n
		}
	}
	if v, ok := get("SSHFM_RSYNC_PATH"); ok {
		s.RsyncPath = v
	}
	if v, ok := get("SSHFM_RSYNC_ARGS"); ok {
		s.RsyncArgs = strings.Fields(v)
	}
	if v, ok := get("SSHFM_HOST_KEY_POLICY"); ok {
		s.HostKeyPolicy = v
	}
	if v, ok := get("SSHFM_KNOWN_HOSTS"); ok {
		s.KnownHostsPath = v
	}
	if v, ok := get("SSHFM_SOCKS5_PROXY"); ok {
		s.SOCKS5Proxy = v
	}
	if v, ok := get("SSHFM_LOG_LEVEL"); ok {
		s.LogLevel = v
	}
}
