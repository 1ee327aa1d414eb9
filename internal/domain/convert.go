package domain

import "fmt"

const kgToLb = 2.2046226218

const (
	UnitKg = "kg"
	UnitLb = "lb"
)

// ParseUnit validates a display unit. An empty string selects kilograms.
func ParseUnit(s string) (string, error) {
	switch s {
	case "", UnitKg:
		return UnitKg, nil
	case UnitLb:
		return UnitLb, nil
	default:
		return "", NewValidationError("unit", fmt.Sprintf("unit must be %q or %q", UnitKg, UnitLb))
	}
}

// ConvertWeight converts a weight value between "kg" and "lb".
// Returns v unchanged if from == to or if the units are unrecognised.
func ConvertWeight(v float64, from, to string) float64 {
	if from == to {
		return v
	}
	if from == UnitKg && to == UnitLb {
		return v * kgToLb
	}
	if from == UnitLb && to == UnitKg {
		return v / kgToLb
	}
	return v
}

// ConvertStats expresses kilogram stats in unit. PercentageChange is unit-free.
func ConvertStats(st Stats, unit string) Stats {
	if unit == UnitKg {
		return st
	}
	return Stats{
		InitialWeight:    ConvertWeight(st.InitialWeight, UnitKg, unit),
		CurrentWeight:    ConvertWeight(st.CurrentWeight, UnitKg, unit),
		WeightDifference: ConvertWeight(st.WeightDifference, UnitKg, unit),
		PercentageChange: st.PercentageChange,
		WeeklyChange:     ConvertWeight(st.WeeklyChange, UnitKg, unit),
	}
}
