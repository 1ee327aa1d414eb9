package domain

// Trend is a fitted line y = Slope*x + Intercept over ordinal positions.
type Trend struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
}

// At returns the fitted value at index i.
func (t Trend) At(i int) float64 {
	return t.Slope*float64(i) + t.Intercept
}

// FitTrend runs an ordinary least-squares regression of values against their
// 0-based index. At least two values are required.
func FitTrend(values []float64) (Trend, bool) {
	n := len(values)
	if n < 2 {
		return Trend{}, false
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	fn := float64(n)
	// Indices are 0..n-1, so the denominator is non-zero for n >= 2.
	slope := (fn*sumXY - sumX*sumY) / (fn*sumXX - sumX*sumX)
	intercept := (sumY - slope*sumX) / fn
	return Trend{Slope: slope, Intercept: intercept}, true
}

// TrendLine returns one fitted value per input value, or an empty slice when
// fewer than two values are given.
func TrendLine(values []float64) []float64 {
	t, ok := FitTrend(values)
	if !ok {
		return []float64{}
	}
	out := make([]float64, len(values))
	for i := range values {
		out[i] = t.At(i)
	}
	return out
}

// Weights extracts the weight of every entry, preserving order.
func Weights(entries []WeightEntry) []float64 {
	out := make([]float64, len(entries))
	for i, e := range entries {
		out[i] = e.Weight
	}
	return out
}
