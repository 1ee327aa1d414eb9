// Package storetest holds the behavioural contract every weight store must
// satisfy, as a testify suite run by each adapter's tests.
package storetest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"weighttracker/internal/domain"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/suite"
)

// RepositorySuite exercises a domain.WeightRepository. NewRepo must return an
// empty store for every test; t belongs to the running test.
type RepositorySuite struct {
	suite.Suite

	NewRepo func(t *testing.T) domain.WeightRepository

	repo domain.WeightRepository
	ctx  context.Context
}

var baseDate = time.Date(2026, 1, 15, 7, 30, 0, 0, time.UTC)

func (s *RepositorySuite) SetupTest() {
	s.ctx = context.Background()
	s.repo = s.NewRepo(s.T())
}

func (s *RepositorySuite) randomEntry(daysAgo int) domain.WeightEntry {
	return domain.WeightEntry{
		Weight: gofakeit.Float64Range(domain.MinWeightKg, domain.MaxWeightKg),
		Date:   baseDate.AddDate(0, 0, -daysAgo),
		Notes:  gofakeit.Sentence(8),
	}
}

func (s *RepositorySuite) create(e domain.WeightEntry) *domain.WeightEntry {
	created, err := s.repo.CreateWeightEntry(s.ctx, e)
	s.Require().NoError(err)
	s.Require().NotNil(created)
	return created
}

func (s *RepositorySuite) count() int {
	entries, err := s.repo.ListWeightEntries(s.ctx)
	s.Require().NoError(err)
	return len(entries)
}

func (s *RepositorySuite) TestPing() {
	s.NoError(s.repo.Ping(s.ctx))
}

func (s *RepositorySuite) TestCreateThenGet() {
	in := s.randomEntry(0)
	created := s.create(in)

	s.NotEmpty(created.ID)
	s.Equal(in.Weight, created.Weight)
	s.True(in.Date.Equal(created.Date), "date %v != %v", in.Date, created.Date)
	s.Equal(in.Notes, created.Notes)
	s.False(created.CreatedAt.IsZero())
	s.False(created.UpdatedAt.IsZero())

	got, err := s.repo.GetWeightEntry(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(created.ID, got.ID)
	s.Equal(in.Weight, got.Weight)
	s.True(in.Date.Equal(got.Date))
	s.Equal(in.Notes, got.Notes)
}

func (s *RepositorySuite) TestCreateAssignsUniqueIDs() {
	a := s.create(s.randomEntry(1))
	b := s.create(s.randomEntry(1))
	s.NotEqual(a.ID, b.ID)
}

func (s *RepositorySuite) TestCreateBoundaries() {
	for _, w := range []float64{domain.MinWeightKg, domain.MaxWeightKg} {
		created := s.create(domain.WeightEntry{Weight: w, Date: baseDate})
		s.Equal(w, created.Weight)
	}

	notes := strings.Repeat("n", domain.MaxNotesLength)
	created := s.create(domain.WeightEntry{Weight: 80, Date: baseDate, Notes: notes})
	s.Equal(notes, created.Notes)
}

func (s *RepositorySuite) TestCreateRejectsInvalid() {
	invalid := []domain.WeightEntry{
		{Weight: 19.9, Date: baseDate},
		{Weight: 500.1, Date: baseDate},
		{Weight: 80, Date: baseDate, Notes: strings.Repeat("n", domain.MaxNotesLength+1)},
		{Weight: 80},
	}
	for _, e := range invalid {
		_, err := s.repo.CreateWeightEntry(s.ctx, e)
		s.True(domain.IsValidation(err), "expected validation error for %+v, got %v", e, err)
	}
	s.Zero(s.count(), "rejected writes must leave the store unchanged")
}

func (s *RepositorySuite) TestListOrderedByDateDesc() {
	for _, daysAgo := range []int{3, 0, 10, 1} {
		s.create(s.randomEntry(daysAgo))
	}

	entries, err := s.repo.ListWeightEntries(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(entries, 4)
	for i := 1; i < len(entries); i++ {
		s.False(entries[i].Date.After(entries[i-1].Date), "entries not sorted newest first: %v", entries)
	}
}

func (s *RepositorySuite) TestUpdate() {
	created := s.create(s.randomEntry(2))

	notes := "updated"
	newDate := baseDate.Add(2 * time.Hour)
	updated, err := s.repo.UpdateWeightEntry(s.ctx, created.ID, domain.WeightUpdate{
		Weight: 77.25,
		Date:   newDate,
		Notes:  &notes,
	})
	s.Require().NoError(err)
	s.Equal(created.ID, updated.ID)
	s.Equal(77.25, updated.Weight)
	s.True(newDate.Equal(updated.Date))
	s.Equal("updated", updated.Notes)
	s.False(updated.UpdatedAt.Before(created.UpdatedAt))

	got, err := s.repo.GetWeightEntry(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(77.25, got.Weight)
	s.Equal("updated", got.Notes)
	s.True(created.CreatedAt.Equal(got.CreatedAt), "createdAt must not change")
}

func (s *RepositorySuite) TestUpdateWithoutNotesKeepsNotes() {
	created := s.create(domain.WeightEntry{Weight: 80, Date: baseDate, Notes: "keep me"})

	updated, err := s.repo.UpdateWeightEntry(s.ctx, created.ID, domain.WeightUpdate{Weight: 81, Date: baseDate})
	s.Require().NoError(err)
	s.Equal("keep me", updated.Notes)
	s.Equal(81.0, updated.Weight)
}

func (s *RepositorySuite) TestUpdateRejectsInvalid() {
	created := s.create(domain.WeightEntry{Weight: 80, Date: baseDate, Notes: "before"})

	_, err := s.repo.UpdateWeightEntry(s.ctx, created.ID, domain.WeightUpdate{Weight: 501, Date: baseDate})
	s.True(domain.IsValidation(err), "got %v", err)

	got, err := s.repo.GetWeightEntry(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(80.0, got.Weight)
	s.Equal("before", got.Notes)
}

func (s *RepositorySuite) TestUpdateUnknown() {
	_, err := s.repo.UpdateWeightEntry(s.ctx, s.unknownID(), domain.WeightUpdate{Weight: 80, Date: baseDate})
	s.True(errors.Is(err, domain.ErrNotFound), "got %v", err)
}

func (s *RepositorySuite) TestGetUnknown() {
	for _, id := range []string{s.unknownID(), "does-not-exist", ""} {
		_, err := s.repo.GetWeightEntry(s.ctx, id)
		s.True(errors.Is(err, domain.ErrNotFound), "id %q: got %v", id, err)
	}
}

func (s *RepositorySuite) TestDelete() {
	keep := s.create(s.randomEntry(1))
	gone := s.create(s.randomEntry(2))

	s.Require().NoError(s.repo.DeleteWeightEntry(s.ctx, gone.ID))

	_, err := s.repo.GetWeightEntry(s.ctx, gone.ID)
	s.True(errors.Is(err, domain.ErrNotFound), "got %v", err)

	err = s.repo.DeleteWeightEntry(s.ctx, gone.ID)
	s.True(errors.Is(err, domain.ErrNotFound), "second delete: got %v", err)

	_, err = s.repo.GetWeightEntry(s.ctx, keep.ID)
	s.NoError(err)
	s.Equal(1, s.count())
}

// unknownID returns an id in the store's own format that was never issued.
func (s *RepositorySuite) unknownID() string {
	created := s.create(s.randomEntry(0))
	s.Require().NoError(s.repo.DeleteWeightEntry(s.ctx, created.ID))
	return created.ID
}
