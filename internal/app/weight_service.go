package app

import (
	"context"
	"time"

	"weighttracker/internal/domain"
)

// WeightInput is the submitted form of an entry. Pointers distinguish absent
// fields from zero values.
type WeightInput struct {
	Weight *float64 `json:"weight"`
	Date   *string  `json:"date"`
	Notes  *string  `json:"notes"`
}

// WeightService encapsulates weight-tracking use cases.
type WeightService struct {
	repo domain.WeightRepository
}

// NewWeightService creates a WeightService backed by the given repository.
func NewWeightService(repo domain.WeightRepository) *WeightService {
	return &WeightService{repo: repo}
}

// List returns every entry, newest first.
func (s *WeightService) List(ctx context.Context) ([]domain.WeightEntry, error) {
	entries, err := s.repo.ListWeightEntries(ctx)
	if err != nil {
		return nil, err
	}
	return domain.SortByDateDesc(entries), nil
}

// Get returns a single entry by id.
func (s *WeightService) Get(ctx context.Context, id string) (*domain.WeightEntry, error) {
	return s.repo.GetWeightEntry(ctx, id)
}

// Create checks the required fields and stores a new entry. Range and length
// checks happen on the store's write path.
func (s *WeightService) Create(ctx context.Context, in WeightInput) (*domain.WeightEntry, error) {
	weight, date, err := in.required()
	if err != nil {
		return nil, err
	}
	entry := domain.WeightEntry{Weight: weight, Date: date}
	if in.Notes != nil {
		entry.Notes = *in.Notes
	}
	return s.repo.CreateWeightEntry(ctx, entry)
}

// Update replaces the weight and date of an entry, and its notes when given.
func (s *WeightService) Update(ctx context.Context, id string, in WeightInput) (*domain.WeightEntry, error) {
	weight, date, err := in.required()
	if err != nil {
		return nil, err
	}
	return s.repo.UpdateWeightEntry(ctx, id, domain.WeightUpdate{
		Weight: weight,
		Date:   date,
		Notes:  in.Notes,
	})
}

// Delete removes an entry permanently.
func (s *WeightService) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteWeightEntry(ctx, id)
}

// Ping reports whether the backing store is reachable.
func (s *WeightService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (in WeightInput) required() (float64, time.Time, error) {
	if in.Weight == nil {
		return 0, time.Time{}, domain.NewValidationError("weight", "Weight is required")
	}
	if in.Date == nil {
		return 0, time.Time{}, domain.NewValidationError("date", "Date is required")
	}
	date, err := domain.ParseEntryDate(*in.Date)
	if err != nil {
		return 0, time.Time{}, err
	}
	return *in.Weight, date, nil
}
