package forecast

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/seasonflow/core"
)

// seasonalWeekly builds a smooth two-year weekly series with a clear yearly
// cycle, the shape both sub-models converge on.
func seasonalWeekly() []float64 {
	weekly := make([]float64, 104)
	for i := range weekly {
		weekly[i] = 500 + 200*math.Sin(2*math.Pi*float64(i%52)/52)
	}
	return weekly
}

func TestEnsembleBothModelsConverge(t *testing.T) {
	e := New()
	result, err := e.TrainAndForecastSeries(context.Background(), seasonalWeekly(), 16)
	require.NoError(t, err)

	assert.Equal(t, core.ModelEnsemble, result.ModelUsed)
	assert.NotEmpty(t, result.Version)
	assert.Len(t, result.WeeklyCurve, 16)
	assert.Equal(t, result.EnsembleTotal, result.CurveTotal())
	assert.GreaterOrEqual(t, result.Confidence, 0.0)
	assert.LessOrEqual(t, result.Confidence, 1.0)

	// Mean of totals, with integer rounding.
	want := int(math.Round(float64(result.SeasonalTotal+result.AutoregressiveTotal) / 2))
	assert.Equal(t, want, result.EnsembleTotal)
}

func TestEnsembleSeasonalFallback(t *testing.T) {
	// A perfectly linear series has constant first differences, which the
	// autoregressive model rejects as degenerate; only the seasonal model
	// survives.
	weekly := make([]float64, 104)
	for i := range weekly {
		weekly[i] = 100 + 2*float64(i)
	}

	e := New()
	result, err := e.TrainAndForecastSeries(context.Background(), weekly, 8)
	require.NoError(t, err)
	assert.Equal(t, core.ModelSeasonalOnly, result.ModelUsed)
	assert.Equal(t, result.SeasonalTotal, result.EnsembleTotal)
	assert.Equal(t, 0, result.AutoregressiveTotal)
	assert.Equal(t, result.EnsembleTotal, result.CurveTotal())
}

func TestEnsembleAllModelsFail(t *testing.T) {
	// Too short for the seasonal model, constant for the autoregressive one.
	weekly := []float64{5, 5, 5, 5, 5, 5, 5, 5}

	e := New()
	_, err := e.TrainAndForecastSeries(context.Background(), weekly, 8)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all forecasting models failed")
}

func TestEnsembleDeterministic(t *testing.T) {
	e := New()
	a, err := e.TrainAndForecastSeries(context.Background(), seasonalWeekly(), 12)
	require.NoError(t, err)
	b, err := e.TrainAndForecastSeries(context.Background(), seasonalWeekly(), 12)
	require.NoError(t, err)

	assert.Equal(t, a.EnsembleTotal, b.EnsembleTotal)
	assert.Equal(t, a.WeeklyCurve, b.WeeklyCurve)
	assert.Equal(t, a.Confidence, b.Confidence)
	assert.NotEqual(t, a.Version, b.Version)
}

func TestEnsembleHorizonValidation(t *testing.T) {
	e := New()
	var verr *core.ParameterValidationError
	_, err := e.TrainAndForecastSeries(context.Background(), seasonalWeekly(), 0)
	require.ErrorAs(t, err, &verr)
	_, err = e.TrainAndForecastSeries(context.Background(), seasonalWeekly(), MaxHorizonWeeks+1)
	require.ErrorAs(t, err, &verr)
}

func TestEnsembleCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := New()
	_, err := e.TrainAndForecastSeries(ctx, seasonalWeekly(), 8)
	require.Error(t, err)
}

func TestApplyPriceUplift(t *testing.T) {
	e := New()
	base, err := e.TrainAndForecastSeries(context.Background(), seasonalWeekly(), 10)
	require.NoError(t, err)

	boosted := ApplyPriceUplift(base, 0.20, 2.0)
	want := int(math.Round(float64(base.EnsembleTotal) * 1.4))
	assert.Equal(t, want, boosted.EnsembleTotal)
	assert.Equal(t, boosted.EnsembleTotal, boosted.CurveTotal())
	assert.NotEqual(t, base.Version, boosted.Version)

	// Zero markdown leaves the forecast untouched.
	same := ApplyPriceUplift(base, 0, 2.0)
	assert.Equal(t, base.EnsembleTotal, same.EnsembleTotal)
}

func TestRescaleCurveConservesTotal(t *testing.T) {
	tests := []struct {
		name  string
		curve []float64
		total int
	}{
		{"uneven", []float64{1.2, 3.7, 2.1}, 100},
		{"degenerate flat", []float64{0, 0, 0, 0}, 10},
		{"single week", []float64{9.9}, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := rescaleCurve(tt.curve, tt.total)
			got := 0
			for _, v := range out {
				got += v
			}
			assert.Equal(t, tt.total, got)
		})
	}
}
