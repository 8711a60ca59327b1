package processor

import (
	"math"
	"math/rand"
	"testing"
)

func TestSetLimit(t *testing.T) {
	cases := []struct {
		in       float64
		expected float64
	}{
		{-0.2345, -0.3},
		{0.2345, 0.3},
		{-0.31, -0.4},
		{0.31, 0.4},
		{-0.2, -0.2},
		{0.2, 0.2},
		{0, 0},
		{1, 1},
		{-1.55, -1.6},
		{2.01, 2.1},
	}
	for _, c := range cases {
		if got := SetLimit(c.in); got != c.expected {
			t.Errorf("SetLimit(%v): expected %v, actual %v", c.in, c.expected, got)
		}
	}

	if !math.IsNaN(SetLimit(math.NaN())) {
		t.Error("SetLimit(NaN): expected NaN")
	}
	if !math.IsInf(SetLimit(math.Inf(1)), 1) {
		t.Error("SetLimit(+Inf): expected +Inf")
	}
}

// A bound lying a hair off the grid must still round outward, not snap
// onto the nearer tenth.
func TestSetLimitJustOffGrid(t *testing.T) {
	if got := SetLimit(-0.3 - 1e-12); got != -0.4 {
		t.Errorf("SetLimit(-0.3-1e-12): expected -0.4, actual %v", got)
	}
	if got := SetLimit(0.3 + 1e-12); got != 0.4 {
		t.Errorf("SetLimit(0.3+1e-12): expected 0.4, actual %v", got)
	}
	down := math.Nextafter(-0.3, math.Inf(-1))
	if got := SetLimit(down); got > down {
		t.Errorf("SetLimit(%v): %v is inside the raw bound", down, got)
	}
	up := math.Nextafter(0.3, math.Inf(1))
	if got := SetLimit(up); got < up {
		t.Errorf("SetLimit(%v): %v is inside the raw bound", up, got)
	}
}

func TestSetLimitOutwardGuarantee(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for run := 0; run < 1000; run++ {
		data := make([]float64, 64)
		for i := range data {
			data[i] = (rng.Float64() - 0.5) * 20
		}
		stats := ComputeRangeStats(data)
		rounded := stats.Rounded()
		if rounded.Min > stats.Min {
			t.Fatalf("run %d: rounded min %v above true min %v", run, rounded.Min, stats.Min)
		}
		if rounded.Max < stats.Max {
			t.Fatalf("run %d: rounded max %v below true max %v", run, rounded.Max, stats.Max)
		}
		// outward rounding of all three statistics keeps the default
		// threshold inside the published bounds
		if rounded.Median < rounded.Min || rounded.Median > rounded.Max {
			t.Fatalf("run %d: rounded median %v outside [%v, %v]", run, rounded.Median, rounded.Min, rounded.Max)
		}
	}
}

func TestComputeRangeStats(t *testing.T) {
	stats := ComputeRangeStats([]float64{3, 1, 2, 5, 4})
	if stats.Min != 1 || stats.Max != 5 || stats.Median != 3 {
		t.Errorf("odd length: expected (1, 5, 3), actual (%v, %v, %v)", stats.Min, stats.Max, stats.Median)
	}

	stats = ComputeRangeStats([]float64{4, 1, 3, 2})
	if stats.Median != 2.5 {
		t.Errorf("even length: expected median 2.5, actual %v", stats.Median)
	}
}

func TestComputeRangeStatsPropagatesNaN(t *testing.T) {
	stats := ComputeRangeStats([]float64{1, math.NaN(), 3})
	if !math.IsNaN(stats.Min) || !math.IsNaN(stats.Max) || !math.IsNaN(stats.Median) {
		t.Errorf("expected NaN statistics, actual (%v, %v, %v)", stats.Min, stats.Max, stats.Median)
	}
}

func TestComputeRangeStatsPropagatesInf(t *testing.T) {
	stats := ComputeRangeStats([]float64{1, math.Inf(1), 3, math.Inf(-1)})
	if !math.IsInf(stats.Min, -1) {
		t.Errorf("expected -Inf min, actual %v", stats.Min)
	}
	if !math.IsInf(stats.Max, 1) {
		t.Errorf("expected +Inf max, actual %v", stats.Max)
	}
}
