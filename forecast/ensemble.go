package forecast

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/hupe1980/seasonflow/core"
	"github.com/hupe1980/seasonflow/logging"
)

// MaxHorizonWeeks bounds the forecast horizon.
const MaxHorizonWeeks = 52

// subModel is one univariate forecaster in the ensemble.
type subModel interface {
	ModelName() string
	Fit(series []float64) error
	Forecast(horizon int) ([]float64, float64, error)
}

// Options configures the Ensemble.
type Options struct {
	// SeasonalPeriod is the length of one seasonal cycle in weeks.
	SeasonalPeriod int

	// Logger provides structured logging. Defaults to NoOp.
	Logger logging.Logger
}

// Ensemble runs both sub-models concurrently over the same history and
// reconciles them into a single core.ForecastResult. It holds no state
// between calls; identical inputs always produce identical forecasts.
type Ensemble struct {
	period int
	logger logging.Logger
}

// New creates an Ensemble with optional overrides.
func New(optFns ...func(o *Options)) *Ensemble {
	opts := Options{
		SeasonalPeriod: core.MinHistoryPeriods,
		Logger:         logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Ensemble{period: opts.SeasonalPeriod, logger: opts.Logger}
}

// fitOutcome captures one sub-model's run: either a forecast curve with its
// confidence, or the fit error. Failures are captured, not propagated, so
// the join step can apply fallback logic.
type fitOutcome struct {
	model      string
	curve      []float64
	confidence float64
	err        error
}

// TrainAndForecast aggregates the series to weekly totals and forecasts the
// horizon. History must cover at least core.MinHistoryPeriods weekly periods.
func (e *Ensemble) TrainAndForecast(ctx context.Context, history core.HistoricalSeries, horizon int) (core.ForecastResult, error) {
	weekly := history.WeeklyTotals()
	if len(weekly) < core.MinHistoryPeriods {
		return core.ForecastResult{}, &core.InsufficientHistoryError{Key: "weekly totals", Periods: len(weekly), Required: core.MinHistoryPeriods}
	}
	return e.TrainAndForecastSeries(ctx, weekly, horizon)
}

// TrainAndForecastSeries forecasts directly from an already-aggregated
// weekly series. Used on re-forecast cycles where observed in-season actuals
// have been appended to the historical totals.
func (e *Ensemble) TrainAndForecastSeries(ctx context.Context, weekly []float64, horizon int) (core.ForecastResult, error) {
	if horizon < 1 || horizon > MaxHorizonWeeks {
		return core.ForecastResult{}, &core.ParameterValidationError{Field: "horizon", Reason: fmt.Sprintf("must be in [1,%d], got %d", MaxHorizonWeeks, horizon)}
	}

	models := []subModel{
		newSeasonalAdditive(e.period),
		newAutoregressiveIntegrated(),
	}

	// The two fits are independent and share no mutable state; run them
	// concurrently and join before reconciling.
	outcomes := make([]fitOutcome, len(models))
	var wg sync.WaitGroup
	for i, m := range models {
		wg.Add(1)
		go func(i int, m subModel) {
			defer wg.Done()
			outcomes[i] = e.runModel(ctx, m, weekly, horizon)
		}(i, m)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return core.ForecastResult{}, ctx.Err()
	case <-done:
	}

	return e.reconcile(outcomes, horizon)
}

// runModel executes one sub-model fit + forecast, honoring cancellation.
func (e *Ensemble) runModel(ctx context.Context, m subModel, weekly []float64, horizon int) fitOutcome {
	start := time.Now()
	out := fitOutcome{model: m.ModelName()}

	if err := ctx.Err(); err != nil {
		out.err = err
		return out
	}
	if err := m.Fit(weekly); err != nil {
		e.logger.Warn("forecast.fit.failed", "model", m.ModelName(), "error", err.Error())
		out.err = err
		return out
	}
	curve, confidence, err := m.Forecast(horizon)
	if err != nil {
		out.err = err
		return out
	}
	out.curve = curve
	out.confidence = confidence
	e.logger.Debug("forecast.fit.success", "model", m.ModelName(), "duration_ms", time.Since(start).Milliseconds(), "confidence", confidence)
	return out
}

// reconcile merges the captured sub-model outcomes: mean of totals when both
// converged, single-model fallback when one did, error when neither did.
func (e *Ensemble) reconcile(outcomes []fitOutcome, horizon int) (core.ForecastResult, error) {
	seasonal, autoreg := outcomes[0], outcomes[1]

	if seasonal.err != nil && autoreg.err != nil {
		return core.ForecastResult{}, fmt.Errorf("all forecasting models failed: %s: %v; %s: %v",
			seasonal.model, seasonal.err, autoreg.model, autoreg.err)
	}

	result := core.ForecastResult{
		Version:   core.NewID(),
		CreatedAt: time.Now().UTC(),
	}

	seasonalTotal := int(math.Round(sum(seasonal.curve)))
	autoregTotal := int(math.Round(sum(autoreg.curve)))

	var blended []float64
	switch {
	case seasonal.err == nil && autoreg.err == nil:
		result.ModelUsed = core.ModelEnsemble
		result.SeasonalTotal = seasonalTotal
		result.AutoregressiveTotal = autoregTotal
		result.EnsembleTotal = int(math.Round(float64(seasonalTotal+autoregTotal) / 2))
		result.Confidence = (seasonal.confidence + autoreg.confidence) / 2
		blended = make([]float64, horizon)
		for i := range blended {
			blended[i] = (seasonal.curve[i] + autoreg.curve[i]) / 2
		}
	case seasonal.err == nil:
		result.ModelUsed = core.ModelSeasonalOnly
		result.SeasonalTotal = seasonalTotal
		result.EnsembleTotal = seasonalTotal
		result.Confidence = seasonal.confidence
		blended = seasonal.curve
	default:
		result.ModelUsed = core.ModelAutoregressiveOnly
		result.AutoregressiveTotal = autoregTotal
		result.EnsembleTotal = autoregTotal
		result.Confidence = autoreg.confidence
		blended = autoreg.curve
	}

	result.WeeklyCurve = rescaleCurve(blended, result.EnsembleTotal)
	return result, nil
}

// ApplyPriceUplift supersedes a forecast with the demand uplift expected
// from a price reduction: factor = 1 + markdownPct*elasticity. The returned
// result carries a fresh version; the input is left untouched.
func ApplyPriceUplift(r core.ForecastResult, markdownPct, elasticity float64) core.ForecastResult {
	factor := 1 + markdownPct*elasticity
	if factor <= 0 || len(r.WeeklyCurve) == 0 {
		return r
	}
	scaled := make([]float64, len(r.WeeklyCurve))
	for i, v := range r.WeeklyCurve {
		scaled[i] = float64(v) * factor
	}
	out := r
	out.Version = core.NewID()
	out.CreatedAt = time.Now().UTC()
	out.EnsembleTotal = int(math.Round(float64(r.EnsembleTotal) * factor))
	out.WeeklyCurve = rescaleCurve(scaled, out.EnsembleTotal)
	return out
}

func sum(xs []float64) float64 {
	total := 0.0
	for _, x := range xs {
		total += x
	}
	return total
}

// rescaleCurve converts a fractional weekly curve into integers that sum
// exactly to total: proportional scaling, floor, then the remainder is
// distributed to the weeks with the largest fractional parts (ties to the
// earlier week).
func rescaleCurve(curve []float64, total int) []int {
	n := len(curve)
	out := make([]int, n)
	raw := sum(curve)
	if raw <= 0 {
		// Degenerate flat curve: spread evenly, front-loading the remainder.
		base, rem := total/n, total%n
		for i := range out {
			out[i] = base
			if i < rem {
				out[i]++
			}
		}
		return out
	}

	type frac struct {
		idx  int
		part float64
	}
	fracs := make([]frac, n)
	assigned := 0
	for i, v := range curve {
		scaled := v / raw * float64(total)
		out[i] = int(math.Floor(scaled))
		assigned += out[i]
		fracs[i] = frac{idx: i, part: scaled - math.Floor(scaled)}
	}
	sort.Slice(fracs, func(i, j int) bool {
		if fracs[i].part != fracs[j].part {
			return fracs[i].part > fracs[j].part
		}
		return fracs[i].idx < fracs[j].idx
	})
	for i := 0; i < total-assigned; i++ {
		out[fracs[i%n].idx]++
	}
	return out
}
