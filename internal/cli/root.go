// Package cli provides the command-line interface for sshfm.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/farview/sshfm/internal/config"
	"github.com/farview/sshfm/internal/logging"
	"github.com/farview/sshfm/internal/version"
)

var (
	// Global flags
	cfgFile    string
	verbose    bool
	maxWorkers int

	// Global logger
	logger *logging.Logger

	// Global context for signal handling
	rootContext context.Context
	cancelFunc  context.CancelFunc
)

// NewRootCmd creates the root command. Run with no arguments it opens the
// interactive host menu; subcommands cover the non-interactive paths.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sshfm",
		Short: "Interactive SSH file manager",
		Long: `sshfm ` + version.Version + ` - browse remote filesystems over SSH,
transfer files in batches, and keep directories in sync.

Host profiles live in ~/.ssh/config, so hosts managed here stay usable
with plain ssh and vice versa.

Run without arguments for the interactive host menu, or use the
subcommands directly:

  sshfm browse myserver
  sshfm get myserver /var/log/app.log -o ~/Downloads
  sshfm put myserver report.pdf --dest /srv/incoming
  sshfm sync myserver ./site /var/www/site`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewDefaultCLILogger()
			settings := loadSettings()
			applyLogLevel(settings.LogLevel)
			if verbose {
				logging.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMainMenu(GetContext())
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Settings file path (default ~/.config/sshfm/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")
	rootCmd.PersistentFlags().IntVar(&maxWorkers, "workers", 0, "Concurrent transfers per batch (overrides settings, range 1-8)")

	rootCmd.Version = version.Version + " (" + version.BuildTime + ")"

	return rootCmd
}

// Execute runs the CLI with a signal-cancelled root context.
func Execute() error {
	rootContext, cancelFunc = context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		for sig := range sigChan {
			if sig != nil {
				fmt.Fprintf(os.Stderr, "\nReceived %v, cancelling...\n", sig)
				cancelFunc()
			}
		}
	}()

	rootCmd := NewRootCmd()
	AddCommands(rootCmd)
	err := rootCmd.Execute()

	signal.Stop(sigChan)
	close(sigChan)

	return err
}

// AddCommands adds all subcommands to the root command.
func AddCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newHostsCmd())
	rootCmd.AddCommand(newBrowseCmd())
	rootCmd.AddCommand(newGetCmd())
	rootCmd.AddCommand(newPutCmd())
	rootCmd.AddCommand(newSyncCmd())
	rootCmd.AddCommand(newConfigCmd())
}

// GetLogger returns the global CLI logger.
func GetLogger() *logging.Logger {
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}
	return logger
}

// GetContext returns the global CLI context with signal handling. It is
// cancelled when the user presses Ctrl+C.
func GetContext() context.Context {
	if rootContext == nil {
		return context.Background()
	}
	return rootContext
}

// loadSettings reads the settings file named by --config (or the default
// location) and applies flag overrides. A missing file yields defaults; a
// malformed one is reported and defaults are used so the browser stays
// reachable.
func loadSettings() config.Settings {
	settings, err := config.Load(cfgFile)
	if err != nil && !errors.Is(err, config.ErrNoSettings) {
		GetLogger().Warn().Err(err).Msg("settings file unreadable, using defaults")
		settings = config.DefaultSettings()
	}
	if maxWorkers > 0 {
		settings.Workers = maxWorkers
	}
	if err := settings.Validate(); err != nil {
		GetLogger().Warn().Err(err).Msg("invalid settings value, using defaults")
		settings = config.DefaultSettings()
	}
	return settings
}

// applyLogLevel maps the settings value onto zerolog's global level.
func applyLogLevel(level string) {
	switch level {
	case "debug":
		logging.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		logging.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		logging.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		logging.SetGlobalLevel(zerolog.InfoLevel)
	}
}
