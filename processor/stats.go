package processor

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// RangeStats holds the raw (min, max, median) of one index's pixels.
// The values seed the interactive threshold bounds after SetLimit
// rounding; they are never persisted.
type RangeStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
}

// ComputeRangeStats reduces the full pixel array in one pass for min
// and max plus a sort for the median. A NaN anywhere poisons all three
// results, matching the propagate-don't-trap arithmetic policy.
func ComputeRangeStats(data []float64) RangeStats {
	min, max := minMax(data)
	return RangeStats{Min: min, Max: max, Median: median(data)}
}

// Rounded applies SetLimit to all three statistics. Note the rounded
// median is a display default only and can land outside the rounded
// [Min, Max] for sufficiently skewed distributions; callers get the
// same triple the raw formulas produce.
func (rs RangeStats) Rounded() RangeStats {
	return RangeStats{
		Min:    SetLimit(rs.Min),
		Max:    SetLimit(rs.Max),
		Median: SetLimit(rs.Median),
	}
}

// SetLimit rounds a raw statistic outward onto a one-decimal display
// grid: negative values round downward, non-negative values upward,
// values already on the grid stay put. The rounded minimum is
// therefore never above the true minimum and the rounded maximum never
// below the true maximum. Grid membership and scaling are decided on
// the shortest decimal representation rather than on v*10, whose own
// rounding can land on the wrong side of a grid point.
func SetLimit(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	neg := s[0] == '-'
	if neg {
		s = s[1:]
	}
	dot := strings.IndexByte(s, '.')
	if dot < 0 || len(s)-dot-1 <= 1 {
		return v
	}
	whole, _ := strconv.ParseFloat(s[:dot], 64)
	scaled := whole*10 + float64(s[dot+1]-'0') + 1
	if neg {
		return -scaled / 10
	}
	return scaled / 10
}

func minMax(data []float64) (float64, float64) {
	min := math.Inf(1)
	max := math.Inf(-1)
	for _, v := range data {
		min = math.Min(min, v)
		max = math.Max(max, v)
	}
	return min, max
}

func median(data []float64) float64 {
	for _, v := range data {
		if math.IsNaN(v) {
			return math.NaN()
		}
	}
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
