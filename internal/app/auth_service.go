// Package app holds the application services and business logic.
package app

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"time"

	"weighttracker/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

// DefaultSessionTTL is used when no session lifetime is configured.
const DefaultSessionTTL = 24 * time.Hour

var (
	// ErrInvalidCredentials indicates that the provided password was incorrect.
	ErrInvalidCredentials = errors.New("invalid password")
	// ErrSessionNotFound indicates that the requested session does not exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired indicates that the session has expired.
	ErrSessionExpired = errors.New("session expired")
)

// AuthService handles login and session management for the single account.
type AuthService struct {
	passwordHash string
	sessions     domain.SessionRepository
	ttl          time.Duration
	now          func() time.Time
}

// NewAuthService creates a new authentication service. An empty passwordHash
// disables password login; SSO logins still work.
func NewAuthService(passwordHash string, sessions domain.SessionRepository, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &AuthService{
		passwordHash: passwordHash,
		sessions:     sessions,
		ttl:          ttl,
		now:          time.Now,
	}
}

// PasswordEnabled reports whether a password hash is configured.
func (s *AuthService) PasswordEnabled() bool {
	return s.passwordHash != ""
}

// SessionTTL is the lifetime of new sessions.
func (s *AuthService) SessionTTL() time.Duration {
	return s.ttl
}

// Login checks password and creates a session bound to userAgent.
func (s *AuthService) Login(ctx context.Context, password, userAgent string) (string, error) {
	if !s.PasswordEnabled() {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.startSession(ctx, "owner", userAgent)
}

// LoginWithSubject creates a session for an identity already verified
// elsewhere (e.g. via SSO).
func (s *AuthService) LoginWithSubject(ctx context.Context, subject, userAgent string) (string, error) {
	if subject == "" {
		return "", ErrInvalidCredentials
	}
	return s.startSession(ctx, subject, userAgent)
}

func (s *AuthService) startSession(ctx context.Context, subject, userAgent string) (string, error) {
	now := s.now()
	if err := s.sessions.DeleteExpired(ctx, now); err != nil {
		return "", err
	}

	token, err := generateToken()
	if err != nil {
		return "", err
	}

	err = s.sessions.Create(ctx, domain.Session{
		Token:     token,
		Subject:   subject,
		UserAgent: userAgent,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// Logout invalidates a session.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// ValidateSession checks if a session token is valid and matches the user agent.
func (s *AuthService) ValidateSession(ctx context.Context, token, userAgent string) (*domain.Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}
	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if s.now().After(session.ExpiresAt) {
		_ = s.sessions.Delete(ctx, token)
		return nil, ErrSessionExpired
	}

	if !ConstantTimeCompare(session.UserAgent, userAgent) {
		_ = s.sessions.Delete(ctx, token)
		return nil, ErrSessionExpired
	}

	return session, nil
}

// HashPassword returns the bcrypt hash to configure as the login password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// GenerateState returns a random value for the OIDC state parameter.
func GenerateState() (string, error) {
	return generateToken()
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// ConstantTimeCompare performs a constant-time comparison of two strings.
func ConstantTimeCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
