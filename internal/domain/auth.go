package domain

import (
	"context"
	"time"
)

// Session represents an active login of the single account.
type Session struct {
	Token     string
	Subject   string
	UserAgent string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// SessionRepository defines the port for session persistence operations.
// GetByToken returns nil, nil for an unknown token.
type SessionRepository interface {
	Create(ctx context.Context, session Session) error
	GetByToken(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) error
}
