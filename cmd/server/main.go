// Package main implements the entry point for the LoopMind API server,
// which turns raw text into learning cards and renders their images in
// the background.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/phrazzld/loopmind-api/internal/config"
	"github.com/phrazzld/loopmind-api/internal/platform/logger"
	"github.com/phrazzld/loopmind-api/internal/platform/postgres"
)

func main() {
	migrate := flag.String("migrate", "", "run a migration command (up, down, reset, status, version) and exit")
	flag.Parse()

	if err := run(*migrate); err != nil {
		log.Fatalf("loopmind server: %v", err)
	}
}

// run loads configuration, connects to the database and either applies a
// migration command or serves until SIGINT/SIGTERM.
func run(migrate string) error {
	// A missing .env file is normal outside local development
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg, err := loadConfig(migrate)
	if err != nil {
		return err
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	l.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := setupAppDatabase(ctx, cfg.Database, l)
	if err != nil {
		return err
	}

	if migrate != "" {
		defer closeDB(db, l)
		return postgres.Migrate(ctx, db, migrate, l)
	}

	app, err := newApplication(ctx, cfg, l, db)
	if err != nil {
		closeDB(db, l)
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}

func loadConfig(migrate string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if migrate != "" {
		cfg, err = config.LoadGroups("server", "database")
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}
