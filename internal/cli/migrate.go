package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"quizhub/internal/config"
	"quizhub/internal/infra/sqlstore"
	"quizhub/internal/logger"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd.Context(), *configPath)
		},
	}
}

func runMigrations(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if !cfg.UsesSQL() {
		return errors.New("database driver is memory; nothing to migrate")
	}
	log := logger.New("quizhub", cfg.Log.Level)

	db, err := sqlstore.Open(ctx, sqlstore.Driver(cfg.Database.Driver), cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()
	return migrateDB(ctx, db, log)
}

func migrateDB(ctx context.Context, db *bun.DB, log *logger.Logger) error {
	group, err := sqlstore.Migrate(ctx, db)
	if err != nil {
		return err
	}
	if group.IsZero() {
		log.Entry().Info("no new migrations")
		return nil
	}
	log.Entry().WithField("group", group.String()).Info("migrations applied")
	return nil
}
