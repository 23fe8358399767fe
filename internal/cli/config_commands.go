package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/farview/sshfm/internal/config"
)

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show and change sshfm settings",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective settings as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := yaml.Marshal(loadSettings())
			if err != nil {
				return err
			}
			cmd.Print(string(out))
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the settings file location",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfgFile
			if path == "" {
				var err error
				if path, err = config.DefaultSettingsPath(); err != nil {
					return err
				}
			}
			cmd.Println(path)
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a settings file with the defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := settingsPath()
			if err != nil {
				return err
			}
			if _, err := config.Load(path); err == nil {
				return fmt.Errorf("settings file already exists at %s", path)
			}
			if err := config.Save(path, config.DefaultSettings()); err != nil {
				return err
			}
			cmd.Printf("Wrote defaults to %s\n", path)
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting and save",
		Long: `Change one setting. Keys match the YAML file:
workers, show_hidden, download_dir, bandwidth_limit, preview_lines,
preview_bytes, rsync_path, host_key_policy, known_hosts_path,
socks5_proxy, log_level.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := settingsPath()
			if err != nil {
				return err
			}
			settings, err := config.Load(path)
			if err != nil {
				settings = config.DefaultSettings()
			}
			if err := applySetting(&settings, args[0], args[1]); err != nil {
				return err
			}
			if err := settings.Validate(); err != nil {
				return err
			}
			return config.Save(path, settings)
		},
	})

	return configCmd
}

func settingsPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	return config.DefaultSettingsPath()
}

// applySetting maps one key/value pair onto the settings struct.
func applySetting(s *config.Settings, key, value string) error {
	switch key {
	case "workers":
		return setInt(&s.Workers, value)
	case "show_hidden":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("show_hidden wants true or false, got %q", value)
		}
		s.ShowHidden = b
	case "download_dir":
		s.DownloadDir = value
	case "bandwidth_limit":
		return setInt64(&s.BandwidthLimit, value)
	case "preview_lines":
		return setInt(&s.PreviewLines, value)
	case "preview_bytes":
		return setInt64(&s.PreviewBytes, value)
	case "rsync_path":
		s.RsyncPath = value
	case "host_key_policy":
		s.HostKeyPolicy = value
	case "known_hosts_path":
		s.KnownHostsPath = value
	case "socks5_proxy":
		s.SOCKS5Proxy = value
	case "log_level":
		s.LogLevel = value
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}

func setInt(dst *int, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("not a number: %q", value)
	}
	*dst = n
	return nil
}

func setInt64(dst *int64, value string) error {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fmt.Errorf("not a number: %q", value)
	}
	*dst = n
	return nil
}
