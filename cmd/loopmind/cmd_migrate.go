package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the pgx database/sql driver
	"github.com/phrazzld/loopmind-api/internal/platform/postgres"
	"github.com/phrazzld/loopmind-api/internal/redact"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|reset|status|version]",
		Short:     "Run database schema migrations",
		Long:      "Apply the embedded goose migrations to the configured database. The default command is up.",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: postgres.MigrationCommands,
		RunE:      runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, args []string) error {
	command := "up"
	if len(args) == 1 {
		command = args[0]
	}

	cfg, err := loadConfig("server", "database")
	if err != nil {
		return err
	}
	l := commandLogger(cmd, cfg)

	ctx := cmd.Context()

	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %s", redact.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			l.Error("error closing database connection", "error", redact.Error(err))
		}
	}()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("failed to ping database: %s", redact.Error(err))
	}

	return postgres.Migrate(ctx, db, command, l)
}
