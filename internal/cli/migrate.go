package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"assessment-service/internal/catalog"
	"assessment-service/internal/config"
	"assessment-service/internal/infra/postgres"
	pgmigrations "assessment-service/internal/infra/postgres/migrations"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

// NewMigrateCmd applies database migrations and optionally seeds the banks.
func NewMigrateCmd(configPath *string) *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if err := runMigrationsWithConfig(cmd.Context(), cfg); err != nil {
				return err
			}
			if seed {
				return seedBanks(cmd.Context(), cfg)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "upsert the embedded question banks")
	return cmd
}

// RunMigrations applies every registered migration against dsn.
func RunMigrations(ctx context.Context, dsn string) error {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return err
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return err
	}
	if group.IsZero() {
		slog.Info("no new migrations")
		return nil
	}
	slog.Info("migrations applied", "group", group.String())
	return nil
}

func runMigrationsWithConfig(ctx context.Context, cfg config.Config) error {
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}
	return RunMigrations(ctx, cfg.Postgres.URL)
}

func seedBanks(ctx context.Context, cfg config.Config) error {
	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	loader := postgres.NewBankLoader(pool)
	for id, bank := range catalog.MustBanks() {
		if err := loader.SaveBank(ctx, bank); err != nil {
			return fmt.Errorf("seed bank %s: %w", id, err)
		}
		slog.Info("bank seeded", "bank", id, "questions", bank.Len())
	}
	return nil
}
