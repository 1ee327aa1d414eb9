// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"sync"
	"time"

	"weighttracker/internal/domain"

	"github.com/google/uuid"
)

// DB implements an in-memory database storage.
type DB struct {
	mu       sync.RWMutex
	weights  map[string]domain.WeightEntry
	sessions map[string]domain.Session
	now      func() time.Time
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		weights:  make(map[string]domain.WeightEntry),
		sessions: make(map[string]domain.Session),
		now:      time.Now,
	}
}

// Ensure interfaces are met.
var _ domain.WeightRepository = (*DB)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)

// --- WeightRepository ---

// ListWeightEntries returns all entries, newest first.
func (db *DB) ListWeightEntries(ctx context.Context) ([]domain.WeightEntry, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	result := make([]domain.WeightEntry, 0, len(db.weights))
	for _, e := range db.weights {
		result = append(result, e)
	}
	return domain.SortByDateDesc(result), nil
}

// GetWeightEntry returns the entry with the given id.
func (db *DB) GetWeightEntry(ctx context.Context, id string) (*domain.WeightEntry, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	e, ok := db.weights[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &e, nil
}

// CreateWeightEntry validates and stores a new entry under a fresh id.
func (db *DB) CreateWeightEntry(ctx context.Context, entry domain.WeightEntry) (*domain.WeightEntry, error) {
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	now := db.now().UTC()
	entry.ID = uuid.NewString()
	entry.Date = entry.Date.UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	db.weights[entry.ID] = entry
	return &entry, nil
}

// UpdateWeightEntry applies update to an existing entry.
func (db *DB) UpdateWeightEntry(ctx context.Context, id string, update domain.WeightUpdate) (*domain.WeightEntry, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	e, ok := db.weights[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	e = update.Apply(e)
	e.Date = e.Date.UTC()
	e.UpdatedAt = db.now().UTC()
	db.weights[id] = e
	return &e, nil
}

// DeleteWeightEntry removes an entry.
func (db *DB) DeleteWeightEntry(ctx context.Context, id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.weights[id]; !ok {
		return domain.ErrNotFound
	}
	delete(db.weights, id)
	return nil
}

// Ping always succeeds.
func (db *DB) Ping(ctx context.Context) error {
	return nil
}

// --- SessionRepository ---

// SessionRepo implements session persistence.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo creates a new session repository.
func (db *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: db}
}

// Create stores a session.
func (r *SessionRepo) Create(ctx context.Context, s domain.Session) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.sessions[s.Token] = s
	return nil
}

// GetByToken retrieves a session by token, or nil if there is none.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if s, ok := r.db.sessions[token]; ok {
		return &s, nil
	}
	return nil, nil
}

// Delete deletes a session.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, token)
	return nil
}

// DeleteExpired deletes all sessions that expired before now.
func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for k, v := range r.db.sessions {
		if now.After(v.ExpiresAt) {
			delete(r.db.sessions, k)
		}
	}
	return nil
}
