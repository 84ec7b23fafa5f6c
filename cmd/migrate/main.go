// Command migrate runs schema operations against the configured store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"photoshare/internal/config"
	"photoshare/internal/database"
	"photoshare/internal/repository"
	dbpkg "photoshare/pkg/db"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate <up|auto|status|down> [version]")
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	cmd := strings.ToLower(strings.TrimSpace(flag.Arg(0)))

	switch cfg.DBDriver {
	case config.DriverMongo:
		return runMongo(ctx, cfg, cmd)
	case config.DriverSQLite:
		return runSQLite(ctx, cfg, cmd)
	}

	switch cmd {
	case "up", "status", "down":
	case "auto":
		return runAuto(ctx, cfg)
	default:
		return usage()
	}

	sqlDB, err := dbpkg.Open(ctx, cfg.PostgresDSN())
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer sqlDB.Close()

	switch cmd {
	case "up":
		if err := database.RunMigrationsSQL(ctx, sqlDB); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
		log.Println("sql migrations applied")
	case "status":
		if err := database.MigrationStatusSQL(ctx, sqlDB); err != nil {
			return fmt.Errorf("migration status failed: %w", err)
		}
	case "down":
		if flag.NArg() < 2 {
			return fmt.Errorf("usage: go run ./cmd/migrate down <version>")
		}
		version, err := strconv.ParseInt(flag.Arg(1), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", flag.Arg(1), err)
		}
		if err := database.RollbackMigrationSQL(ctx, sqlDB, version); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		log.Printf("rolled back to migration %d", version)
	}
	return nil
}

func runAuto(ctx context.Context, cfg *config.Config) error {
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = database.Close(db) }()

	cfg.DBSchemaMode = database.SchemaModeAuto
	if err := database.ApplySchema(ctx, db, cfg); err != nil {
		return fmt.Errorf("auto schema apply failed: %w", err)
	}
	status, err := database.GetSchemaStatus(ctx, db, cfg)
	if err != nil {
		return fmt.Errorf("schema status failed: %w", err)
	}
	log.Printf("automigrations applied mode=%s env=%s", status.Mode, status.Environment)
	return nil
}

// SQLite files are always shaped by AutoMigrate; the goose scripts target Postgres.
func runSQLite(ctx context.Context, cfg *config.Config, cmd string) error {
	switch cmd {
	case "up", "auto":
		return runAuto(ctx, cfg)
	case "status":
		log.Printf("driver=sqlite path=%s schema is managed by AutoMigrate", cfg.SQLitePath)
		return nil
	default:
		return fmt.Errorf("%q is not supported for DB_DRIVER=sqlite", cmd)
	}
}

func runMongo(ctx context.Context, cfg *config.Config, cmd string) error {
	if cmd != "up" && cmd != "auto" {
		return fmt.Errorf("%q is not supported for DB_DRIVER=mongo", cmd)
	}
	mdb, err := database.ConnectMongo(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = mdb.Client().Disconnect(context.Background()) }()

	if err := repository.EnsureIndexes(ctx, mdb); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	log.Println("mongo indexes ensured")
	return nil
}
