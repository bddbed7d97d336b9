package statistics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/boq-price-leveling/internal/types"
)

func TestStatistic(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		method types.CalculationMethod
		want   float64
	}{
		{"average pair", []float64{3, 8}, types.MethodAverage, 5.5},
		{"trimmed pair falls back", []float64{3, 8}, types.MethodAverageMinusExtremes, 5.5},
		{"trimmed single", []float64{7}, types.MethodAverageMinusExtremes, 7},
		{"trimmed four", []float64{1, 2, 3, 4}, types.MethodAverageMinusExtremes, 2.5},
		{"trimmed unsorted", []float64{4, 1, 3, 2}, types.MethodAverageMinusExtremes, 2.5},
		{"trimmed drops one of each duplicate", []float64{1, 1, 9, 9}, types.MethodAverageMinusExtremes, 5},
		{"median odd", []float64{1, 3, 2}, types.MethodMedian, 2},
		{"median even", []float64{1, 2, 3, 4}, types.MethodMedian, 2.5},
		{"median single", []float64{42}, types.MethodMedian, 42},
		{"empty", nil, types.MethodAverage, 0},
		{"empty median", []float64{}, types.MethodMedian, 0},
		{"unknown method", []float64{1, 2}, types.CalculationMethod("mode"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Statistic(tt.values, tt.method), 1e-12)
		})
	}
}

func TestStatisticDoesNotReorderInput(t *testing.T) {
	values := []float64{4, 1, 3}
	Statistic(values, types.MethodMedian)
	Statistic(values, types.MethodAverageMinusExtremes)
	assert.Equal(t, []float64{4, 1, 3}, values)
}

func TestThreeBidderMethodsAgree(t *testing.T) {
	rates := []float64{100, 120, 140}
	for _, m := range []types.CalculationMethod{types.MethodAverage, types.MethodMedian, types.MethodAverageMinusExtremes} {
		assert.InDelta(t, 120.0, Statistic(rates, m), 1e-12, string(m))
	}
}

func TestDeviation(t *testing.T) {
	for _, v := range []float64{-7, 0.5, 1, 120, 1e9} {
		assert.Equal(t, 0.0, Deviation(v, v), "v=%g", v)
		assert.Equal(t, 0.0, Deviation(v, 0), "v=%g", v)
	}
	assert.InDelta(t, 20.0, Deviation(120, 100), 1e-12)
	assert.InDelta(t, -25.0, Deviation(75, 100), 1e-12)
}

func TestBand(t *testing.T) {
	th := types.DeviationThresholds{Yellow: 10, Orange: 20, Red: 30}
	tests := map[float64]types.Band{
		0:     types.BandNone,
		9.9:   types.BandNone,
		10:    types.BandYellow,
		-15:   types.BandYellow,
		20:    types.BandOrange,
		29.99: types.BandOrange,
		30:    types.BandRed,
		-35:   types.BandRed,
		500:   types.BandRed,
	}
	for d, want := range tests {
		assert.Equal(t, want, Band(d, th), "d=%g", d)
	}
}

func TestBandWithUnorderedThresholdsChecksRedFirst(t *testing.T) {
	th := types.DeviationThresholds{Yellow: 30, Orange: 20, Red: 10}
	assert.ErrorIs(t, ValidateThresholds(th), ErrThresholdOrder)
	// Not reordered: anything at or above the red cutoff is red.
	assert.Equal(t, types.BandRed, Band(15, th))
	assert.Equal(t, types.BandNone, Band(5, th))
}

func TestValidateThresholds(t *testing.T) {
	require.NoError(t, ValidateThresholds(types.DefaultThresholds()))

	assert.ErrorIs(t, ValidateThresholds(types.DeviationThresholds{Yellow: -1, Orange: 20, Red: 30}), ErrNegativeThreshold)
	assert.ErrorIs(t, ValidateThresholds(types.DeviationThresholds{Yellow: 10, Orange: 10, Red: 30}), ErrThresholdOrder)
	assert.ErrorIs(t, ValidateThresholds(types.DeviationThresholds{Yellow: 10, Orange: 40, Red: 30}), ErrThresholdOrder)
}
