// Package cli provides the command-line interface for wayfinder.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/raphaelgruber/wayfinder/internal/client"
	"github.com/raphaelgruber/wayfinder/internal/config"
	"github.com/raphaelgruber/wayfinder/internal/metrics"
	"github.com/raphaelgruber/wayfinder/internal/session"
	"github.com/spf13/cobra"
)

// quietLevel keeps stderr free of log lines unless --verbose is set.
// Commands report failures themselves; the log file still gets everything.
const quietLevel = slog.LevelError + 4

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose    bool
	showStats  bool
	serverURL  string
	configPath string

	// Global config and session
	cfg        config.Config
	logger     *slog.Logger
	logCleanup func() error
	collector  *metrics.Collector
	sess       *session.Session
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "wayfinder",
	Short: "Travel assistant client",
	Long: `Wayfinder talks to a travel assistant: send a message, read the
conversation and open the hotels, flights and rentals it suggests.

Configuration is read from $XDG_CONFIG_HOME/wayfinder/config.yaml and
WAYFINDER_* environment variables.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip setup for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		if configPath != "" {
			cfg, err = config.LoadFile(configPath)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if serverURL != "" {
			cfg.ServerURL = serverURL
		}

		stderrLevel := quietLevel
		if verbose {
			stderrLevel = slog.LevelDebug
		}
		logger, logCleanup = config.SetupLogger(cfg.LogFile, cfg.LogLevel, stderrLevel)

		collector = metrics.NewCollector()
		remote := client.New(cfg.ServerURL,
			client.WithTimeout(cfg.ClientTimeout),
			client.WithMetrics(collector),
			client.WithLogger(logger),
		)
		sess = session.New(remote, cfg.DefaultOrigin, logger)

		logger.Debug("session ready", "server", cfg.ServerURL, "config", cfg.ConfigFile)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if showStats && collector != nil {
			printStats(os.Stderr, collector.Snapshot())
		}
		if logCleanup != nil {
			if err := logCleanup(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
			}
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// The command context is cancelled on interrupt.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&showStats, "stats", false, "print call statistics on exit")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "assistant server URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")

	// Add subcommands
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(detailsCmd)
	rootCmd.AddCommand(chatCmd)
}
