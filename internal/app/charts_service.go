package app

import (
	"context"
	"time"

	"weighttracker/internal/domain"
)

// maxDailyDays bounds the per-day series to one year.
const maxDailyDays = 366

// ChartsService encapsulates chart data retrieval use cases.
type ChartsService struct {
	weightRepo domain.WeightRepository
	now        func() time.Time
}

// NewChartsService creates a ChartsService backed by the given repository.
func NewChartsService(wr domain.WeightRepository) *ChartsService {
	return &ChartsService{weightRepo: wr, now: time.Now}
}

// WithClock replaces the time source used to anchor ranges. Used by tests.
func (s *ChartsService) WithClock(now func() time.Time) *ChartsService {
	s.now = now
	return s
}

// Summary is the chart view of a time range: filtered entries in ascending
// order, their trend line and the range statistics.
type Summary struct {
	Range  domain.TimeRange `json:"range"`
	Unit   string           `json:"unit"`
	Count  int              `json:"count"`
	Stats  *domain.Stats    `json:"stats"`
	Points []SummaryPoint   `json:"points"`
}

// SummaryPoint is one entry of a Summary. Trend is nil when fewer than two
// entries fall in the range.
type SummaryPoint struct {
	ID     string    `json:"id"`
	Date   time.Time `json:"date"`
	Weight float64   `json:"weight"`
	Trend  *float64  `json:"trend"`
}

// GetSummary filters all entries to r and derives stats and trend for them,
// expressed in unit.
func (s *ChartsService) GetSummary(ctx context.Context, r domain.TimeRange, unit string) (*Summary, error) {
	if !r.IsValid() {
		return nil, domain.NewValidationError("range", "range must be one of week, month, year, all")
	}
	unit, err := domain.ParseUnit(unit)
	if err != nil {
		return nil, err
	}

	entries, err := s.weightRepo.ListWeightEntries(ctx)
	if err != nil {
		return nil, err
	}
	entries = domain.SortByDateAsc(domain.FilterByRange(entries, r, s.now()))

	out := &Summary{
		Range:  r,
		Unit:   unit,
		Count:  len(entries),
		Points: make([]SummaryPoint, 0, len(entries)),
	}
	if st, ok := domain.ComputeStats(entries); ok {
		st = domain.ConvertStats(st, unit)
		out.Stats = &st
	}

	trend := domain.TrendLine(domain.Weights(entries))
	for i, e := range entries {
		p := SummaryPoint{
			ID:     e.ID,
			Date:   e.Date,
			Weight: domain.ConvertWeight(e.Weight, domain.UnitKg, unit),
		}
		if len(trend) > 0 {
			v := domain.ConvertWeight(trend[i], domain.UnitKg, unit)
			p.Trend = &v
		}
		out.Points = append(out.Points, p)
	}
	return out, nil
}

// DayPoint is a single data point returned by GetDaily.
type DayPoint struct {
	Day    string       `json:"day"`
	Weight *WeightPoint `json:"weight"`
}

// WeightPoint is the optional weight value within a DayPoint.
type WeightPoint struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// GetDaily returns one point per local day for the last days days, each
// holding the latest entry dated that day, converted to unit.
func (s *ChartsService) GetDaily(ctx context.Context, days int, unit string) ([]DayPoint, error) {
	unit, err := domain.ParseUnit(unit)
	if err != nil {
		return nil, err
	}
	if days < 1 {
		return nil, domain.NewValidationError("days", "days must be at least 1")
	}
	if days > maxDailyDays {
		days = maxDailyDays
	}

	entries, err := s.weightRepo.ListWeightEntries(ctx)
	if err != nil {
		return nil, err
	}

	latest := make(map[string]domain.WeightEntry, len(entries))
	for _, e := range domain.SortByDateAsc(entries) {
		latest[e.Date.In(time.Local).Format("2006-01-02")] = e
	}

	today := s.now().In(time.Local)
	points := make([]DayPoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		dayStr := today.AddDate(0, 0, -i).Format("2006-01-02")

		var wp *WeightPoint
		if e, ok := latest[dayStr]; ok {
			wp = &WeightPoint{Value: domain.ConvertWeight(e.Weight, domain.UnitKg, unit), Unit: unit}
		}
		points = append(points, DayPoint{Day: dayStr, Weight: wp})
	}
	return points, nil
}
