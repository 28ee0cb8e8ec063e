// Package cmd provides the CLI commands for stopctl.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/remiges-tech/stopsearch/internal/config"
	"github.com/remiges-tech/stopsearch/internal/logger"
)

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
}

// NewRootCmd creates the root command for the stopctl CLI.
func NewRootCmd() *cobra.Command {
	var opts rootOptions

	cmd := &cobra.Command{
		Use:   "stopctl",
		Short: "Manage and query stop datasets",
		Long: `stopctl imports stop datasets into the shared Redis or
Elasticsearch source and runs one-off suggestion queries against the
configured source.

The source is selected by the same config file and STOPSEARCH_* environment
variables as the stopsearch service.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override the configured log level")

	cmd.AddCommand(newImportCmd(&opts))
	cmd.AddCommand(newSuggestCmd(&opts))

	return cmd
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

// loadConfig reads the config and installs the logger. CLI logs go to
// stderr so command output stays clean.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	level := cfg.Logging.Level
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	logger.SetupWriter(cmd.ErrOrStderr(), level, "text")
	return cfg, nil
}
