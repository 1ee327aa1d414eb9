// Package postgres implements the domain repositories using PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"weighttracker/internal/domain"

	"github.com/lib/pq"
)

// DB wraps a *sql.DB and implements domain repository interfaces.
type DB struct {
	sql *sql.DB
	now func() time.Time

	schemaMu    sync.Mutex
	schemaReady bool
}

// Open prepares a connection pool. No connection is made until first use, so
// a server can start while the database is still down; the schema is created
// on the first successful operation.
func Open(connStr string) (*DB, error) {
	s, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	s.SetMaxOpenConns(10)
	s.SetMaxIdleConns(5)
	s.SetConnMaxLifetime(5 * time.Minute)

	return &DB{sql: s, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

// Ping checks connectivity and makes sure the schema exists.
func (d *DB) Ping(ctx context.Context) error {
	if err := d.sql.PingContext(ctx); err != nil {
		return wrapErr("ping", err)
	}
	return d.ensureSchema(ctx)
}

func (d *DB) ensureSchema(ctx context.Context) error {
	d.schemaMu.Lock()
	defer d.schemaMu.Unlock()
	if d.schemaReady {
		return nil
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS weight_entries (
			id UUID PRIMARY KEY,
			weight DOUBLE PRECISION NOT NULL CHECK (weight >= 20 AND weight <= 500),
			measured_at TIMESTAMPTZ NOT NULL,
			notes TEXT NOT NULL DEFAULT '' CHECK (char_length(notes) <= 500),
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);`,
		"CREATE INDEX IF NOT EXISTS idx_weight_entries_measured_at ON weight_entries(measured_at DESC);",
		`CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			subject TEXT NOT NULL,
			user_agent TEXT NOT NULL DEFAULT '',
			expires_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);`,
		"CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);",
	}
	for _, stmt := range stmts {
		if _, err := d.sql.ExecContext(ctx, stmt); err != nil {
			return wrapErr("migrate", err)
		}
	}
	d.schemaReady = true
	return nil
}

// wrapErr tags connectivity failures with domain.ErrStoreUnavailable so the
// transport layer can tell them apart from query bugs.
func wrapErr(op string, err error) error {
	if isUnavailable(err) {
		return fmt.Errorf("%w: %s: %w", domain.ErrStoreUnavailable, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "08", // connection exception
			"28", // invalid authorization
			"3D", // unknown database
			"57": // operator intervention, e.g. shutdown in progress
			return true
		}
	}
	return false
}
