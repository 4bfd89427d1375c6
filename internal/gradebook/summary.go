package gradebook

import "math"

// CellScore is the slice of a grade cell that aggregation needs. A nil
// Value marks an ungraded cell.
type CellScore struct {
	Value  *float64
	OutOf  float64
	Weight float64
}

// Summary holds the two course-level figures shown next to a gradebook:
// the plain mean of earned percentages and the weighted mark
// Σ (earned fraction × weight). Weights are unit-free and deliberately not
// normalized even when they don't sum to 100.
type Summary struct {
	AveragePercent float64
	WeightedMark   float64
}

// ComputeSummary aggregates over the graded cells only. No graded cells
// yields the zero Summary; that is the contract, not an error. Results are
// rounded to 2 decimals after the full-precision accumulation, and the
// computation is permutation-invariant over the input.
func ComputeSummary(cells []CellScore) (Summary, error) {
	var (
		percentSum float64
		mark       float64
		graded     int
	)
	for _, c := range cells {
		if c.Value == nil {
			continue
		}
		if c.OutOf <= 0 {
			return Summary{}, ErrInvalidOutOf
		}
		frac := *c.Value / c.OutOf
		percentSum += frac * 100
		mark += frac * c.Weight
		graded++
	}

	if graded == 0 {
		return Summary{}, nil
	}
	return Summary{
		AveragePercent: round2(percentSum / float64(graded)),
		WeightedMark:   round2(mark),
	}, nil
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
