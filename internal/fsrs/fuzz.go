package fsrs

import (
	"math"
	"math/rand"
)

type fuzzRange struct {
	start, end float64
	factor     float64
}

var fuzzRanges = []fuzzRange{
	{2.5, 7.0, 0.15},
	{7.0, 20.0, 0.10},
	{20.0, math.Inf(1), 0.05},
}

// fuzzDelta computes the half-width of the fuzz window for an interval:
// delta = 1.0 + sum(factor * max(min(interval, end) - start, 0)).
func fuzzDelta(interval float64) float64 {
	delta := 1.0
	for _, r := range fuzzRanges {
		delta += r.factor * math.Max(math.Min(interval, r.end)-r.start, 0)
	}
	return delta
}

// applyFuzz spreads review intervals to avoid due-date clustering.
// Intervals under 2.5 days are returned unchanged.
func applyFuzz(interval, maxIvl int, rng *rand.Rand) int {
	if float64(interval) < 2.5 {
		return interval
	}

	ivl := float64(interval)
	delta := fuzzDelta(ivl)

	lo := int(math.Round(ivl - delta))
	if lo < 2 {
		lo = 2
	}
	hi := int(math.Round(ivl + delta))
	if hi > maxIvl {
		hi = maxIvl
	}
	if lo > hi {
		lo = hi
	}

	fuzzed := lo + rng.Intn(hi-lo+1)
	if fuzzed > maxIvl {
		fuzzed = maxIvl
	}
	return fuzzed
}
