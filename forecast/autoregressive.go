package forecast

import (
	"fmt"
	"math"

	"github.com/hupe1980/seasonflow/core"
)

// autoregressiveIntegrated is an AR(1) model fit on the first difference of
// the series: the differenced process is modeled as d[t] = c + phi*d[t-1],
// then the forecast integrates the projected differences back onto the last
// observed level.
type autoregressiveIntegrated struct {
	phi, c float64

	lastValue   float64
	lastDiff    float64
	residualStd float64
	fitted      bool
}

func newAutoregressiveIntegrated() *autoregressiveIntegrated {
	return &autoregressiveIntegrated{}
}

func (m *autoregressiveIntegrated) ModelName() string { return "autoregressive_integrated" }

// Fit estimates the AR coefficient by least squares on lagged differences.
// A degenerate (zero-variance) differenced series or a non-stationary
// estimate fails the fit; the ensemble handles the fallback.
func (m *autoregressiveIntegrated) Fit(series []float64) error {
	n := len(series)
	if n < 3 {
		return &core.ModelFitError{Model: m.ModelName(), Reason: fmt.Sprintf("need at least 3 observations, got %d", n)}
	}

	diffs := make([]float64, n-1)
	for i := 1; i < n; i++ {
		diffs[i-1] = series[i] - series[i-1]
	}

	lagged := diffs[:len(diffs)-1]
	current := diffs[1:]
	lagVar := variance(lagged)
	if lagVar < 1e-12 {
		return &core.ModelFitError{Model: m.ModelName(), Reason: "degenerate variance in differenced series"}
	}

	lagMean := mean(lagged)
	curMean := mean(current)
	cov := 0.0
	for i := range lagged {
		cov += (lagged[i] - lagMean) * (current[i] - curMean)
	}
	cov /= float64(len(lagged))

	m.phi = cov / lagVar
	if math.Abs(m.phi) >= 1 {
		return &core.ModelFitError{Model: m.ModelName(), Reason: fmt.Sprintf("non-stationary coefficient %.4f", m.phi)}
	}
	m.c = curMean - m.phi*lagMean

	var residuals []float64
	for i := range lagged {
		pred := m.c + m.phi*lagged[i]
		residuals = append(residuals, current[i]-pred)
	}
	m.residualStd = stddev(residuals)
	m.lastValue = series[n-1]
	m.lastDiff = diffs[len(diffs)-1]
	m.fitted = true
	return nil
}

// Forecast projects differences forward and integrates them, flooring each
// point at zero.
func (m *autoregressiveIntegrated) Forecast(horizon int) ([]float64, float64, error) {
	if !m.fitted {
		return nil, 0, &core.ModelFitError{Model: m.ModelName(), Reason: "forecast before fit"}
	}
	curve := make([]float64, horizon)
	value, diff := m.lastValue, m.lastDiff
	for i := 0; i < horizon; i++ {
		diff = m.c + m.phi*diff
		value = math.Max(0, value+diff)
		curve[i] = value
	}
	return curve, intervalConfidence(curve, m.residualStd), nil
}
