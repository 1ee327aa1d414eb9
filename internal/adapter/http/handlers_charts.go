package adapthttp

import (
	"net/http"

	"weighttracker/internal/domain"
)

const defaultDailyDays = 90

func (s *Server) handleChartsSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	rng := domain.RangeMonth
	if v := q.Get("range"); v != "" {
		parsed, err := domain.ParseTimeRange(v)
		if err != nil {
			writeServiceError(w, r, "build chart summary", "", err)
			return
		}
		rng = parsed
	}

	summary, err := s.charts.GetSummary(r.Context(), rng, q.Get("unit"))
	if err != nil {
		writeServiceError(w, r, "build chart summary", "", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleChartsDaily(w http.ResponseWriter, r *http.Request) {
	days, ok := intQuery(r, "days", defaultDailyDays)
	if !ok {
		writeError(w, http.StatusBadRequest, "days must be a positive integer")
		return
	}
	unit := r.URL.Query().Get("unit")

	points, err := s.charts.GetDaily(r.Context(), days, unit)
	if err != nil {
		writeServiceError(w, r, "build daily chart", "", err)
		return
	}

	if unit == "" {
		unit = domain.UnitKg
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"days":  len(points),
		"unit":  unit,
		"today": points[len(points)-1].Day,
		"items": points,
	})
}
