package services

import (
	"testing"

	"github.com/smarttransit/route-analytics-backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestClassifyStability_InsufficientData(t *testing.T) {
	cases := [][]float64{
		nil,
		{},
		{10},
		{10, 12, 14},
		{10, 12, 14, 16, 18, 20}, // six points, one short
	}

	for _, series := range cases {
		result := ClassifyStability(series)
		assert.Equal(t, models.StabilityInsufficient, result.Stability)
		assert.Equal(t, models.TrendUnknown, result.Trend)
	}
}

func TestClassifyStability_FlatSeries(t *testing.T) {
	result := ClassifyStability([]float64{10, 10, 10, 10, 10, 10, 10})

	assert.Equal(t, models.StabilityVeryStable, result.Stability)
	assert.Equal(t, models.TrendStable, result.Trend)
	assert.Equal(t, 0.0, result.CoefficientOfVariation)
	assert.Equal(t, 10.0, result.AvgEPKM)
	assert.Equal(t, 0.0, result.StdDeviation)
}

func TestClassifyStability_Improving(t *testing.T) {
	// First three average 10, last three average 12: a 20% rise.
	result := ClassifyStability([]float64{10, 10, 10, 11, 12, 12, 12})

	assert.Equal(t, models.TrendImproving, result.Trend)
}

func TestClassifyStability_Declining(t *testing.T) {
	result := ClassifyStability([]float64{12, 12, 12, 11, 10, 10, 10})

	assert.Equal(t, models.TrendDeclining, result.Trend)
}

func TestClassifyStability_SmallDriftIsStable(t *testing.T) {
	// Last-three mean within ±5% of first-three mean.
	result := ClassifyStability([]float64{10, 10, 10, 10, 10.2, 10.2, 10.2})

	assert.Equal(t, models.TrendStable, result.Trend)
}

func TestClassifyStability_Buckets(t *testing.T) {
	tests := []struct {
		name   string
		series []float64
		bucket string
	}{
		{
			// cv ≈ 0.047
			name:   "VeryStable",
			series: []float64{10, 10.5, 9.5, 10, 10.5, 9.5, 10},
			bucket: models.StabilityVeryStable,
		},
		{
			// cv ≈ 0.14
			name:   "Stable",
			series: []float64{10, 12, 8, 10, 12, 8, 10},
			bucket: models.StabilityStable,
		},
		{
			// cv ≈ 0.25
			name:   "Moderate",
			series: []float64{10, 13.5, 6.5, 10, 13.5, 6.5, 10},
			bucket: models.StabilityModerate,
		},
		{
			// cv ≈ 0.46
			name:   "Unstable",
			series: []float64{10, 16.5, 3.5, 10, 16.5, 3.5, 10},
			bucket: models.StabilityUnstable,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := ClassifyStability(tc.series)
			assert.Equal(t, tc.bucket, result.Stability)
		})
	}
}

func TestClassifyStability_ZeroMean(t *testing.T) {
	result := ClassifyStability([]float64{0, 0, 0, 0, 0, 0, 0})

	// cv is defined as 0 when the mean is not positive
	assert.Equal(t, 0.0, result.CoefficientOfVariation)
	assert.Equal(t, models.StabilityVeryStable, result.Stability)
}
