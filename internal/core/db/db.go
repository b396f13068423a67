// Package db persists named conditions and the form field registry.
//
// SQLite serves development and the CLI, PostgreSQL production; both go
// through sqlx. Queries are named dotsql entries embedded from
// queries/*.sql and the schema comes from the embedded migrations applied
// by MigrateUp.
package db

import (
	"fmt"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Pool limits. Postgres allows 100 connections shared by ~6 service
// instances; SQLite serialises writers, so a busy timeout matters more than
// the pool size there.
const (
	maxOpenConns    = 16
	maxIdleConns    = 4
	connMaxIdleTime = 5 * time.Minute
	connMaxLifetime = 30 * time.Minute
)

// sqliteDefaults are applied to SQLite DSNs unless the URL sets them.
// Concurrent gRPC saves would otherwise fail fast with SQLITE_BUSY, and
// immediate transactions take the write lock before the store's
// read-then-write checks run.
var sqliteDefaults = map[string]string{
	"_busy_timeout": "5000",
	"_journal_mode": "WAL",
	"_foreign_keys": "on",
	"_txlock":       "immediate",
}

// Open connects to dbURL, configures the pool and pings the server.
//
//	sqlite://relative/file.db   sqlite:///absolute/file.db
//	postgres://user@host:5432/db?sslmode=disable (postgresql:// also accepted)
func Open(dbURL string) (*sqlx.DB, error) {
	driverName, dataSource, err := dataSourceFor(dbURL)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driverName, dataSource)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxIdleTime(connMaxIdleTime)
	db.SetConnMaxLifetime(connMaxLifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// dataSourceFor maps a database URL to a registered driver and its DSN.
func dataSourceFor(dbURL string) (driverName, dataSource string, err error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid database URL: %w", err)
	}

	switch u.Scheme {
	case "sqlite":
		// sqlite://file.db puts the first segment in Host.
		path := u.Path
		if u.Host != "" {
			path = u.Host + u.Path
		}
		if path == "" {
			return "", "", fmt.Errorf("invalid database URL: sqlite path is empty")
		}
		params := u.Query()
		for k, v := range sqliteDefaults {
			if !params.Has(k) {
				params.Set(k, v)
			}
		}
		return "sqlite3", "file:" + path + "?" + params.Encode(), nil
	case "postgres", "postgresql":
		return "postgres", dbURL, nil
	default:
		return "", "", fmt.Errorf("unsupported database scheme: %s (expected sqlite or postgres)", u.Scheme)
	}
}
