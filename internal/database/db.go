package database

import (
	"fmt"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/serene-ai/serene-backend/internal/config"
)

// DB wraps the sqlx handle so callers depend on this package rather than the
// driver
type DB struct {
	*sqlx.DB
}

// Connect opens and verifies a PostgreSQL connection. The pool is sized for
// webhook traffic: finalize calls are short single-row writes, so a modest
// pool with recycled connections covers bursts.
func Connect(cfg config.DatabaseConfig) (*DB, error) {
	db, err := sqlx.Connect("postgres", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &DB{db}, nil
}

// Close closes the underlying pool
func (db *DB) Close() error {
	return db.DB.Close()
}

// DSN renders the connection URL shared by the pool and the migration
// runner. Credentials are URL-escaped so passwords with reserved characters
// survive.
func DSN(cfg config.DatabaseConfig) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:   cfg.Database,
	}

	q := url.Values{}
	q.Set("sslmode", cfg.SSLMode)
	u.RawQuery = q.Encode()

	return u.String()
}
