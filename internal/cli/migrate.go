package cli

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewMigrateCmd applies the SQL migrations under db/migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Run database migrations",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			command := "up"
			if len(args) == 1 {
				command = args[0]
			}
			return runMigrations(cmd, *configPath, dir, command)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "db/migrations", "directory containing migration files")
	return cmd
}

func runMigrations(cmd *cobra.Command, configPath, dir, command string) error {
	ctx := cmd.Context()
	logger := zerolog.New(cmd.ErrOrStderr()).With().Timestamp().Logger()

	cfg, err := loadConfig(ctx, configPath)
	if err != nil {
		return err
	}
	if !cfg.Postgres.Enabled() {
		return fmt.Errorf("postgres not configured (set PG_HOST)")
	}

	migrationDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve migration directory: %w", err)
	}
	if _, err := os.Stat(migrationDir); err != nil {
		return fmt.Errorf("migration directory %s: %w", migrationDir, err)
	}

	// pgx via stdlib (database/sql compatible)
	db, err := sql.Open("pgx", cfg.Postgres.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	logger.Info().
		Str("host", cfg.Postgres.Host).
		Int("port", cfg.Postgres.Port).
		Str("database", cfg.Postgres.Database).
		Str("migration_dir", migrationDir).
		Msg("connected to database")

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	goose.SetTableName("goose_db_version")

	switch command {
	case "up":
		if err := goose.UpContext(ctx, db, migrationDir); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		logger.Info().Msg("migrations applied successfully")
	case "down":
		if err := goose.DownContext(ctx, db, migrationDir); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
		logger.Info().Msg("migrations rolled back successfully")
	case "status":
		if err := goose.StatusContext(ctx, db, migrationDir); err != nil {
			return fmt.Errorf("migration status: %w", err)
		}
	default:
		return fmt.Errorf("unknown command %q (use up, down or status)", command)
	}
	return nil
}
