package processor

import (
	"landanalyzer/bandstore"
)

// Classification levels are fractions of the owning index's own range.
const classificationLevel = 0.8

// Classify splits an index into a two-level map: pixels at or above the
// threshold take 0.8*max(index), pixels strictly below take
// 0.8*min(index). Pure and total over (index, threshold); a fresh array
// is produced on every call. A NaN anywhere in the index poisons min
// and max, so both levels become NaN.
func Classify(index *bandstore.Band, threshold float64) *bandstore.Band {
	min, max := minMax(index.Data)
	low := classificationLevel * min
	high := classificationLevel * max

	out := make([]float64, len(index.Data))
	for i, v := range index.Data {
		if v >= threshold {
			out[i] = high
		} else {
			out[i] = low
		}
	}

	return &bandstore.Band{Name: index.Name, Data: out, Height: index.Height, Width: index.Width}
}
