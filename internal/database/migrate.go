package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"sync"

	"photoshare/internal/middleware"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const migrationDir = "migrations"

var gooseOnce sync.Once

// gooseLogger routes goose output through slog.
type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...interface{}) {
	middleware.Logger.Info("goose", slog.String("msg", fmt.Sprintf(format, v...)))
}

func (gooseLogger) Fatalf(format string, v ...interface{}) {
	middleware.Logger.Error("goose", slog.String("msg", fmt.Sprintf(format, v...)))
}

func setupGoose() error {
	var err error
	gooseOnce.Do(func() {
		goose.SetBaseFS(migrationFS)
		goose.SetLogger(gooseLogger{})
		goose.SetTableName("goose_db_version")
		err = goose.SetDialect("postgres")
	})
	return err
}

func rawDB(db *gorm.DB) (*sql.DB, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	return sqlDB, nil
}

// RunMigrations applies every pending embedded migration.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := rawDB(db)
	if err != nil {
		return err
	}
	return RunMigrationsSQL(ctx, sqlDB)
}

// RunMigrationsSQL applies every pending embedded migration on a plain connection.
func RunMigrationsSQL(ctx context.Context, sqlDB *sql.DB) error {
	if err := setupGoose(); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, sqlDB, migrationDir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// RollbackMigrationSQL migrates down to version.
func RollbackMigrationSQL(ctx context.Context, sqlDB *sql.DB, version int64) error {
	if err := setupGoose(); err != nil {
		return err
	}
	if err := goose.DownToContext(ctx, sqlDB, migrationDir, version); err != nil {
		return fmt.Errorf("goose down to %d: %w", version, err)
	}
	return nil
}

// MigrationStatusSQL logs the state of every embedded migration.
func MigrationStatusSQL(ctx context.Context, sqlDB *sql.DB) error {
	if err := setupGoose(); err != nil {
		return err
	}
	return goose.StatusContext(ctx, sqlDB, migrationDir)
}

// MigrationVersion returns the latest applied migration version.
func MigrationVersion(ctx context.Context, db *gorm.DB) (int64, error) {
	sqlDB, err := rawDB(db)
	if err != nil {
		return 0, err
	}
	if err := setupGoose(); err != nil {
		return 0, err
	}
	return goose.GetDBVersionContext(ctx, sqlDB)
}
