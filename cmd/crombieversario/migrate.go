package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/crombie/crombieversario/internal/store/migrations"
	"github.com/crombie/crombieversario/pkg/db"
	"github.com/crombie/crombieversario/pkg/job"
)

func newMigrateCmd(load loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(
		migrateSub(load, "up", "Apply all pending migrations", func(ctx context.Context, c *core) error {
			if err := db.Migrate(ctx, c.pool, migrations.FS, c.cfg.DB.MigrationsTable, c.log); err != nil {
				return err
			}
			return job.Migrate(ctx, c.pool, c.log)
		}),
		migrateSub(load, "down", "Roll back the latest migration", func(ctx context.Context, c *core) error {
			return db.MigrateDown(ctx, c.pool, migrations.FS, c.cfg.DB.MigrationsTable, c.log)
		}),
		migrateSub(load, "status", "Print the migration status", func(ctx context.Context, c *core) error {
			return db.MigrationStatus(ctx, c.pool, migrations.FS, c.cfg.DB.MigrationsTable, c.log)
		}),
	)
	return cmd
}

func migrateSub(load loader, use, short string, fn func(context.Context, *core) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c, err := openCore(ctx, load, false)
			if err != nil {
				return err
			}
			defer func() { _ = c.close(context.Background()) }()
			return fn(ctx, c)
		},
	}
}
