package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// Migrate applies every pending migration found at the root of migrations.
func Migrate(ctx context.Context, pool *pgxpool.Pool, migrations fs.FS, table string, log *slog.Logger) error {
	sqlDB, err := prepareGoose(pool, migrations, table, log)
	if err != nil {
		return err
	}
	if err := goose.UpContext(ctx, sqlDB, "."); err != nil {
		return errors.Join(ErrApplyMigrations, err)
	}
	return nil
}

// MigrateDown rolls back the most recent migration.
func MigrateDown(ctx context.Context, pool *pgxpool.Pool, migrations fs.FS, table string, log *slog.Logger) error {
	sqlDB, err := prepareGoose(pool, migrations, table, log)
	if err != nil {
		return err
	}
	if err := goose.DownContext(ctx, sqlDB, "."); err != nil {
		return errors.Join(ErrRollbackMigration, err)
	}
	return nil
}

// MigrationStatus logs the applied state of every migration.
func MigrationStatus(ctx context.Context, pool *pgxpool.Pool, migrations fs.FS, table string, log *slog.Logger) error {
	sqlDB, err := prepareGoose(pool, migrations, table, log)
	if err != nil {
		return err
	}
	if err := goose.StatusContext(ctx, sqlDB, "."); err != nil {
		return errors.Join(ErrMigrationStatus, err)
	}
	return nil
}

// prepareGoose bridges the pool to database/sql for goose.
// The returned *sql.DB shares the pool's connections and must not be closed.
func prepareGoose(pool *pgxpool.Pool, migrations fs.FS, table string, log *slog.Logger) (*sql.DB, error) {
	goose.SetBaseFS(migrations)
	goose.SetLogger(&gooseLoggerAdapter{log: log})
	if table != "" {
		goose.SetTableName(table)
	}
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, errors.Join(ErrSetDialect, err)
	}
	return stdlib.OpenDBFromPool(pool), nil
}

type gooseLoggerAdapter struct {
	log *slog.Logger
}

func (g *gooseLoggerAdapter) Printf(format string, args ...any) {
	if g.log != nil {
		g.log.Info(fmt.Sprintf(format, args...))
	}
}

// Fatalf only logs; goose returns the error to the caller afterwards.
func (g *gooseLoggerAdapter) Fatalf(format string, args ...any) {
	if g.log != nil {
		g.log.Error(fmt.Sprintf(format, args...))
	}
}
