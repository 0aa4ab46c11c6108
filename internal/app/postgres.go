package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/guttosm/econpulse/config"

	_ "github.com/lib/pq" // PostgreSQL driver for database/sql
)

// Pool limits. A pipeline run holds one connection for its transaction;
// the read API shares the rest.
const (
	maxOpenConns    = 10
	maxIdleConns    = 5
	connMaxLifetime = 30 * time.Minute
	pingTimeout     = 5 * time.Second
)

// sqlOpener is an indirection for unit testing; defaults to sql.Open
var sqlOpener = sql.Open

// postgresOpener is an indirection used by Build; overridden in tests to avoid real connections.
var postgresOpener = InitPostgres

// InitPostgres opens a PostgreSQL pool from cfg.Postgres and verifies it
// with a ping bounded by pingTimeout. The pool is closed again when the
// ping fails.
//
// Example usage:
//
//	db, err := app.InitPostgres(config.AppConfig)
//	if err != nil {
//	    logger.L().Fatal().Err(err).Msg("db connect error")
//	}
//	defer db.Close()
func InitPostgres(cfg config.Config) (*sql.DB, error) {
	db, err := sqlOpener("postgres", dsn(cfg.Postgres))
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return db, nil
}

// dsn prefers the URL computed by config.LoadConfig and falls back to
// building one from the individual fields.
func dsn(pg config.PostgresConfig) string {
	if pg.URL != "" {
		return pg.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		pg.User,
		pg.Password,
		pg.Host,
		pg.Port,
		pg.DBName,
		pg.SSLMode,
	)
}
