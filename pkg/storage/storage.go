package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/courtline/audittrail/pkg/audit"
	"github.com/courtline/audittrail/pkg/storage/memory"
	"github.com/courtline/audittrail/pkg/storage/postgres"
	"github.com/courtline/audittrail/pkg/storage/sqlite"
)

// Config for the audit storage backend
type Config struct {
	Type string // "postgres", "sqlite" or "memory"

	// PostgreSQL config
	PostgresURL     string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	ConnectTimeout  time.Duration

	// SQLite config
	SQLitePath string
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() Config {
	return Config{
		Type:            "postgres",
		MaxOpenConns:    20,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 10 * time.Minute,
		ConnectTimeout:  10 * time.Second,
	}
}

// Open creates the configured audit store. The returned close function
// releases the underlying connections; the process owns that lifecycle,
// not the audit components the store is injected into.
func Open(cfg Config) (audit.Store, func() error, error) {
	switch cfg.Type {
	case "postgres":
		return openSQL(cfg, "postgres", cfg.PostgresURL, postgresFactory)
	case "sqlite":
		return openSQL(cfg, "sqlite3", cfg.SQLitePath, sqliteFactory)
	case "memory":
		return memory.New(), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage type: %q", cfg.Type)
	}
}

func postgresFactory(db *sql.DB) (audit.Store, error) { return postgres.New(db) }
func sqliteFactory(db *sql.DB) (audit.Store, error)   { return sqlite.New(db) }

func openSQL(cfg Config, driver, dsn string, factory func(*sql.DB) (audit.Store, error)) (audit.Store, func() error, error) {
	if dsn == "" {
		return nil, nil, fmt.Errorf("%s storage requires a connection string", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s connection: %w", driver, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping %s: %w", driver, err)
	}

	store, err := factory(db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	return store, db.Close, nil
}
