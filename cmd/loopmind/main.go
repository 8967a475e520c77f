// Command loopmind is the operator tool for the LoopMind API. It runs the
// card generation pipeline against raw text without touching the database,
// applies schema migrations and issues access tokens for local testing.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/phrazzld/loopmind-api/internal/config"
	"github.com/phrazzld/loopmind-api/internal/platform/logger"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. A fresh tree per call keeps flag state
// out of package globals.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "loopmind",
		Short: "LoopMind learning card tools",
		Long: `Tools for working with the LoopMind learning card pipeline.

Available subcommands:
  generate - Turn a text file into learning cards and print them
  migrate  - Run database schema migrations
  token    - Print a signed access token for a user`,
		SilenceUsage:      true,
		PersistentPreRunE: loadDotEnv,
	}

	root.AddCommand(newGenerateCmd(), newMigrateCmd(), newTokenCmd())
	return root
}

// loadDotEnv reads a .env file from the working directory when present.
func loadDotEnv(_ *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load .env file: %w", err)
	}
	return nil
}

// loadConfig validates only the config groups the command needs.
func loadConfig(groups ...string) (*config.Config, error) {
	cfg, err := config.LoadGroups(groups...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// commandLogger logs to the command's stderr so stdout carries only results.
func commandLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	return logger.SetupWriter(cmd.ErrOrStderr(), cfg.Server).With("command", cmd.Name())
}
