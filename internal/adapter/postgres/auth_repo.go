package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"weighttracker/internal/domain"
)

var _ domain.SessionRepository = (*SessionRepo)(nil)

// SessionRepo implements session repository operations on DB.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo wraps a DB as a SessionRepository.
func NewSessionRepo(db *DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Create stores a new session.
func (r *SessionRepo) Create(ctx context.Context, s domain.Session) error {
	if err := r.db.ensureSchema(ctx); err != nil {
		return err
	}
	_, err := r.db.sql.ExecContext(ctx,
		"INSERT INTO sessions (token, subject, user_agent, expires_at, created_at) VALUES ($1, $2, $3, $4, $5)",
		s.Token, s.Subject, s.UserAgent, s.ExpiresAt, s.CreatedAt,
	)
	if err != nil {
		return wrapErr("create session", err)
	}
	return nil
}

// GetByToken retrieves a session by token.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	if err := r.db.ensureSchema(ctx); err != nil {
		return nil, err
	}
	var s domain.Session
	err := r.db.sql.QueryRowContext(ctx,
		"SELECT token, subject, user_agent, expires_at, created_at FROM sessions WHERE token = $1",
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

// Delete deletes a session by token.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	if err := r.db.ensureSchema(ctx); err != nil {
		return err
	}
	if _, err := r.db.sql.ExecContext(ctx, "DELETE FROM sessions WHERE token = $1", token); err != nil {
		return wrapErr("delete session", err)
	}
	return nil
}

// DeleteExpired deletes all sessions that expired before now.
func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) error {
	if err := r.db.ensureSchema(ctx); err != nil {
		return err
	}
	if _, err := r.db.sql.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at < $1", now); err != nil {
		return wrapErr("delete expired sessions", err)
	}
	return nil
}
