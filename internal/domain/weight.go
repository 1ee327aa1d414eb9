// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// MinWeightKg is the lowest accepted measurement.
	MinWeightKg = 20.0
	// MaxWeightKg is the highest accepted measurement.
	MaxWeightKg = 500.0
	// MaxNotesLength is the maximum number of characters in an entry's notes.
	MaxNotesLength = 500
)

// WeightEntry represents a single weight measurement in kilograms.
type WeightEntry struct {
	ID        string    `json:"id"`
	Weight    float64   `json:"weight"`
	Date      time.Time `json:"date"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate checks the field constraints that every stored entry must satisfy.
// Stores call it on their write path before anything is persisted.
func (e WeightEntry) Validate() error {
	if err := validateWeight(e.Weight); err != nil {
		return err
	}
	if e.Date.IsZero() {
		return NewValidationError("date", "Date is required")
	}
	return validateNotes(e.Notes)
}

// WeightUpdate carries the mutable fields of an entry. A nil Notes leaves the
// stored notes untouched.
type WeightUpdate struct {
	Weight float64
	Date   time.Time
	Notes  *string
}

// Validate checks the submitted fields of an update.
func (u WeightUpdate) Validate() error {
	if err := validateWeight(u.Weight); err != nil {
		return err
	}
	if u.Date.IsZero() {
		return NewValidationError("date", "Date is required")
	}
	if u.Notes != nil {
		return validateNotes(*u.Notes)
	}
	return nil
}

// Apply returns e with the update's fields written over it.
func (u WeightUpdate) Apply(e WeightEntry) WeightEntry {
	e.Weight = u.Weight
	e.Date = u.Date
	if u.Notes != nil {
		e.Notes = *u.Notes
	}
	return e
}

func validateWeight(w float64) error {
	if w < MinWeightKg {
		return NewValidationError("weight", fmt.Sprintf("Weight must be at least %g kg", MinWeightKg))
	}
	if w > MaxWeightKg {
		return NewValidationError("weight", fmt.Sprintf("Weight cannot exceed %g kg", MaxWeightKg))
	}
	return nil
}

func validateNotes(notes string) error {
	if utf8.RuneCountInString(notes) > MaxNotesLength {
		return NewValidationError("notes", fmt.Sprintf("Notes cannot exceed %d characters", MaxNotesLength))
	}
	return nil
}

// ParseEntryDate accepts an RFC 3339 timestamp or a plain YYYY-MM-DD day,
// the latter interpreted as midnight UTC.
func ParseEntryDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, NewValidationError("date", "Date is required")
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, NewValidationError("date", fmt.Sprintf("Invalid date %q", s))
}

// WeightRepository is the port for weight entry persistence.
//
// ListWeightEntries returns entries ordered by date descending. Lookups of an
// unknown id fail with ErrNotFound; connectivity failures wrap ErrStoreUnavailable.
type WeightRepository interface {
	ListWeightEntries(ctx context.Context) ([]WeightEntry, error)
	GetWeightEntry(ctx context.Context, id string) (*WeightEntry, error)
	CreateWeightEntry(ctx context.Context, entry WeightEntry) (*WeightEntry, error)
	UpdateWeightEntry(ctx context.Context, id string, update WeightUpdate) (*WeightEntry, error)
	DeleteWeightEntry(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
