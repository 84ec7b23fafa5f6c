// Package db opens plain database/sql handles for tooling that runs outside GORM.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open creates a pgx-backed *sql.DB for dsn. An empty dsn falls back to
// DATABASE_URL and then to the individual DB_* variables. The handle is pinged
// with a short timeout before it is returned.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		dsn = DSNFromEnv()
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// DSNFromEnv builds a postgres URL from DATABASE_URL or the DB_* variables.
func DSNFromEnv() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}
	user := getenvDefault("DB_USER", "photoshare")
	pass := os.Getenv("DB_PASSWORD")
	name := getenvDefault("DB_NAME", "photoshare")
	host := getenvDefault("DB_HOST", "localhost")
	port := getenvDefault("DB_PORT", "5432")
	ssl := getenvDefault("DB_SSLMODE", "disable")
	if pass == "" {
		// local dev without password
		return fmt.Sprintf("postgresql://%s@%s:%s/%s?sslmode=%s", user, host, port, name, ssl)
	}
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, name, ssl)
}

func getenvDefault(k, d string) string {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	return v
}
