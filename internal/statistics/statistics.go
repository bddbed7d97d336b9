// =============================================================================
// BoQ Price Leveling - Statistics Engine
// =============================================================================
//
// Pure functions over bidder values: central tendency, deviation against a
// baseline, and severity banding.
//
// CALCULATION METHODS:
//   - average:                arithmetic mean
//   - average-minus-extremes: drop one lowest and one highest value, then
//                             average (plain mean for two values or fewer)
//   - median:                 middle value, or mean of the two middle values
//
// =============================================================================

package statistics

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/ginjaninja78/boq-price-leveling/internal/types"
)

var (
	// ErrThresholdOrder reports thresholds that are not yellow < orange < red.
	ErrThresholdOrder = errors.New("deviation thresholds must satisfy yellow < orange < red")

	// ErrNegativeThreshold reports a threshold below zero.
	ErrNegativeThreshold = errors.New("deviation thresholds must not be negative")
)

// Statistic computes the configured central-tendency value.
// An empty slice or an unknown method yields 0. values is not modified.
func Statistic(values []float64, method types.CalculationMethod) float64 {
	if len(values) == 0 {
		return 0
	}

	switch method {
	case types.MethodAverage:
		return Mean(values)

	case types.MethodAverageMinusExtremes:
		if len(values) <= 2 {
			return Mean(values)
		}
		sorted := sortedCopy(values)
		return Mean(sorted[1 : len(sorted)-1])

	case types.MethodMedian:
		sorted := sortedCopy(values)
		mid := len(sorted) / 2
		if len(sorted)%2 == 0 {
			return (sorted[mid-1] + sorted[mid]) / 2
		}
		return sorted[mid]
	}

	return 0
}

// Mean returns the arithmetic mean, or 0 for no values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func sortedCopy(values []float64) []float64 {
	out := append([]float64(nil), values...)
	sort.Float64s(out)
	return out
}

// Deviation returns the percentage difference of value from baseline.
// A zero baseline yields 0.
func Deviation(value, baseline float64) float64 {
	if baseline == 0 {
		return 0
	}
	return (value - baseline) / baseline * 100
}

// Band classifies |deviation| against the thresholds, most severe first.
// A cutoff that is met exactly counts.
func Band(deviation float64, th types.DeviationThresholds) types.Band {
	d := math.Abs(deviation)
	switch {
	case d >= th.Red:
		return types.BandRed
	case d >= th.Orange:
		return types.BandOrange
	case d >= th.Yellow:
		return types.BandYellow
	}
	return types.BandNone
}

// ValidateThresholds checks the ordering precondition Band relies on.
// Violations are reported, never corrected: callers decide whether to abort
// or to proceed with the thresholds as given.
func ValidateThresholds(th types.DeviationThresholds) error {
	if th.Yellow < 0 || th.Orange < 0 || th.Red < 0 {
		return fmt.Errorf("%w: yellow=%g orange=%g red=%g", ErrNegativeThreshold, th.Yellow, th.Orange, th.Red)
	}
	if !(th.Yellow < th.Orange && th.Orange < th.Red) {
		return fmt.Errorf("%w: yellow=%g orange=%g red=%g", ErrThresholdOrder, th.Yellow, th.Orange, th.Red)
	}
	return nil
}
