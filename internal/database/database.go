// Package database centralises sqlx connection helpers for the dashboard
// store.  The driver is go-sql-driver/mysql.
//
// Public entry points:
//
//	Open(ctx, dsn)                              – conservative pool sizes.
//	OpenWithOptions(ctx, dsn, Options{…})       – fine-grained control.
//
// Both helpers ping with ctx before returning so bootstrap fails fast.
// Callers Close() the returned *sqlx.DB on shutdown.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// Options tune the pool.
type Options struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
}

// DefaultOptions: 10 open, 5 idle, 30-minute connection lifetime.
func DefaultOptions() Options {
	return Options{MaxOpen: 10, MaxIdle: 5, MaxLifetime: 30 * time.Minute}
}

// Open returns a pooled *sqlx.DB with DefaultOptions.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	return OpenWithOptions(ctx, dsn, DefaultOptions())
}

// OpenWithOptions validates the DSN, forces parseTime, and pings.
func OpenWithOptions(ctx context.Context, dsn string, o Options) (*sqlx.DB, error) {
	dsn, err := normalizeDSN(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(o.MaxOpen)
	db.SetMaxIdleConns(o.MaxIdle)
	db.SetConnMaxLifetime(o.MaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// normalizeDSN parses dsn with the driver's parser so a typo fails before
// any dial, and turns on parseTime for the updated_at column.
func normalizeDSN(dsn string) (string, error) {
	c, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("database: invalid dsn: %w", err)
	}
	c.ParseTime = true
	return c.FormatDSN(), nil
}
