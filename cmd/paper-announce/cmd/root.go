package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/paper-updater/internal/config"
	"github.com/oshokin/paper-updater/internal/logger"
	"github.com/oshokin/paper-updater/internal/service/notify"
	"github.com/oshokin/paper-updater/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string

	// logLevel sets the minimum level for log output.
	logLevel string

	// rootCmd represents the base command for announcing a message to players.
	rootCmd = &cobra.Command{
		Use:   "paper-announce <message>...",
		Short: "Send a message to players over the configured console channel",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			ctx = logger.WithName(ctx, "paper-announce")

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			notifier, err := notify.ForChannel(cfg)
			if err != nil {
				return err
			}

			return notifier.Send(ctx, strings.Join(args, " "))
		},
	}
)

// Execute runs the paper-announce CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "info", "minimum log level (debug|info|warn|error)")
}
