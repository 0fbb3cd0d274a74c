package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"SupportChat/internal/config"

	"github.com/spf13/cobra"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(&cfg).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Flag defaults come from cfg, so a
// flag given on the command line wins over the environment.
func newRootCmd(cfg *config.Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "supportchat",
		Short:         "Terminal client for the customer support chat backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Debug {
				cfg.LogLevel = "debug"
			}
			return cfg.Validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), *cfg)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "Support backend base URL")
	flags.DurationVar(&cfg.RequestTimeout, "timeout", cfg.RequestTimeout, "Per-request timeout (0 waits indefinitely)")
	flags.StringVar(&cfg.LogDir, "log-dir", cfg.LogDir, "Directory for logs, traces and metrics")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug|info|warn|error)")
	flags.StringVar(&cfg.TranscriptDB, "transcript-db", cfg.TranscriptDB, "SQLite file for archived transcripts (empty disables archiving)")
	flags.BoolVar(&cfg.Telemetry, "telemetry", cfg.Telemetry, "Write OpenTelemetry traces and metrics to the log directory")
	flags.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable debug logging")

	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Start a support conversation (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), *cfg)
		},
	}
	for _, c := range []*cobra.Command{rootCmd, chatCmd} {
		c.Flags().StringVar(&cfg.UI, "ui", cfg.UI, "Front end (auto|tui|line)")
	}

	rootCmd.AddCommand(chatCmd, newHealthCmd(cfg), newTranscriptsCmd(cfg))
	return rootCmd
}
