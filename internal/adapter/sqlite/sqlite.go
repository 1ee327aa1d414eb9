// Package sqlite implements the domain repositories on a local SQLite file,
// for single-machine installs that do not want a database server.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"weighttracker/internal/domain"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

var (
	_ domain.WeightRepository  = (*Store)(nil)
	_ domain.SessionRepository = (*SessionRepo)(nil)
)

// Store handles weight entry persistence in SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New opens (creating if needed) the database at path and applies the schema.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// one writer at a time keeps SQLITE_BUSY away from concurrent handlers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, wrapErr("init schema", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database file is still usable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return wrapErr("ping", err)
	}
	return nil
}

func wrapErr(op string, err error) error {
	if isUnavailable(err) {
		return fmt.Errorf("%w: %s: %w", domain.ErrStoreUnavailable, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUnavailable(err error) bool {
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) {
		switch sqlErr.Code {
		case sqlite3.ErrCantOpen, sqlite3.ErrBusy, sqlite3.ErrLocked,
			sqlite3.ErrIoErr, sqlite3.ErrReadonly, sqlite3.ErrFull, sqlite3.ErrNotADB:
			return true
		}
	}
	return false
}

const entryColumns = "id, weight, measured_at, notes, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*domain.WeightEntry, error) {
	var e domain.WeightEntry
	if err := row.Scan(&e.ID, &e.Weight, &e.Date, &e.Notes, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.Date = e.Date.UTC()
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return &e, nil
}

// ListWeightEntries returns all entries, newest measurement first.
func (s *Store) ListWeightEntries(ctx context.Context) ([]domain.WeightEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+entryColumns+" FROM weight_entries ORDER BY measured_at DESC, created_at DESC",
	)
	if err != nil {
		return nil, wrapErr("list weight entries", err)
	}
	defer rows.Close() //nolint:errcheck

	entries := make([]domain.WeightEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, wrapErr("scan weight entry", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list weight entries", err)
	}
	return entries, nil
}

// GetWeightEntry retrieves an entry by id.
func (s *Store) GetWeightEntry(ctx context.Context, id string) (*domain.WeightEntry, error) {
	e, err := scanEntry(s.db.QueryRowContext(ctx,
		"SELECT "+entryColumns+" FROM weight_entries WHERE id = ?", id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, wrapErr("get weight entry", err)
	}
	return e, nil
}

// CreateWeightEntry validates and inserts a new entry.
func (s *Store) CreateWeightEntry(ctx context.Context, entry domain.WeightEntry) (*domain.WeightEntry, error) {
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	entry.ID = uuid.NewString()
	entry.Date = entry.Date.UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO weight_entries ("+entryColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		entry.ID, entry.Weight, entry.Date, entry.Notes, entry.CreatedAt, entry.UpdatedAt,
	)
	if err != nil {
		return nil, wrapErr("insert weight entry", err)
	}
	return &entry, nil
}

// UpdateWeightEntry applies update to an existing entry.
func (s *Store) UpdateWeightEntry(ctx context.Context, id string, update domain.WeightUpdate) (*domain.WeightEntry, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrapErr("begin update", err)
	}
	defer tx.Rollback() //nolint:errcheck

	current, err := scanEntry(tx.QueryRowContext(ctx,
		"SELECT "+entryColumns+" FROM weight_entries WHERE id = ?", id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, wrapErr("update weight entry", err)
	}

	e := update.Apply(*current)
	e.Date = e.Date.UTC()
	e.UpdatedAt = s.now().UTC()
	_, err = tx.ExecContext(ctx,
		"UPDATE weight_entries SET weight = ?, measured_at = ?, notes = ?, updated_at = ? WHERE id = ?",
		e.Weight, e.Date, e.Notes, e.UpdatedAt, id,
	)
	if err != nil {
		return nil, wrapErr("update weight entry", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, wrapErr("commit update", err)
	}
	return &e, nil
}

// DeleteWeightEntry removes an entry.
func (s *Store) DeleteWeightEntry(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM weight_entries WHERE id = ?", id)
	if err != nil {
		return wrapErr("delete weight entry", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapErr("delete weight entry", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SessionRepo stores login sessions next to the weight entries.
type SessionRepo struct {
	db *sql.DB
}

// NewSessionRepo returns a session repository sharing the store's database.
func (s *Store) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: s.db}
}

func (r *SessionRepo) Create(ctx context.Context, s domain.Session) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO sessions (token, subject, user_agent, expires_at, created_at) VALUES (?, ?, ?, ?, ?)",
		s.Token, s.Subject, s.UserAgent, s.ExpiresAt.UTC(), s.CreatedAt.UTC(),
	)
	if err != nil {
		return wrapErr("create session", err)
	}
	return nil
}

func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	var s domain.Session
	err := r.db.QueryRowContext(ctx,
		"SELECT token, subject, user_agent, expires_at, created_at FROM sessions WHERE token = ?",
		token,
	).Scan(&s.Token, &s.Subject, &s.UserAgent, &s.ExpiresAt, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("get session", err)
	}
	return &s, nil
}

func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token); err != nil {
		return wrapErr("delete session", err)
	}
	return nil
}

func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at < ?", now.UTC()); err != nil {
		return wrapErr("delete expired sessions", err)
	}
	return nil
}
