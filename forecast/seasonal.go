package forecast

import (
	"fmt"
	"math"

	"github.com/hupe1980/seasonflow/core"
)

// seasonalAdditive is a Holt-Winters additive model: level + trend +
// additive seasonal components over a fixed weekly period. Smoothing
// constants are fixed for the domain; category demand curves are smooth
// enough that tuning them per series buys nothing.
type seasonalAdditive struct {
	alpha, beta, gamma float64
	period             int

	level       float64
	trend       float64
	seasonals   []float64
	fitted      int
	residualStd float64
}

func newSeasonalAdditive(period int) *seasonalAdditive {
	return &seasonalAdditive{alpha: 0.3, beta: 0.05, gamma: 0.2, period: period}
}

func (m *seasonalAdditive) ModelName() string { return "seasonal_additive" }

// Fit estimates level, trend and seasonal components from the weekly series.
// Requires at least one full seasonal period of observations.
func (m *seasonalAdditive) Fit(series []float64) error {
	n := len(series)
	if n < m.period {
		return &core.ModelFitError{Model: m.ModelName(), Reason: fmt.Sprintf("need at least %d observations, got %d", m.period, n)}
	}

	m.level = mean(series[:m.period])

	if n >= 2*m.period {
		first := mean(series[:m.period])
		second := mean(series[m.period : 2*m.period])
		m.trend = (second - first) / float64(m.period)
	} else {
		m.trend = olsSlope(series)
	}

	// Initial seasonal indices: average deviation from the season mean at
	// each in-season position, over all complete seasons.
	m.seasonals = make([]float64, m.period)
	seasons := n / m.period
	for i := 0; i < m.period; i++ {
		sum := 0.0
		for k := 0; k < seasons; k++ {
			season := series[k*m.period : (k+1)*m.period]
			sum += series[k*m.period+i] - mean(season)
		}
		m.seasonals[i] = sum / float64(seasons)
	}

	var residuals []float64
	for t := m.period; t < n; t++ {
		idx := t % m.period
		oneStep := m.level + m.trend + m.seasonals[idx]
		residuals = append(residuals, series[t]-oneStep)

		prevLevel := m.level
		m.level = m.alpha*(series[t]-m.seasonals[idx]) + (1-m.alpha)*(m.level+m.trend)
		m.trend = m.beta*(m.level-prevLevel) + (1-m.beta)*m.trend
		m.seasonals[idx] = m.gamma*(series[t]-m.level) + (1-m.gamma)*m.seasonals[idx]
	}
	m.fitted = n
	m.residualStd = stddev(residuals)

	if math.IsNaN(m.level) || math.IsInf(m.level, 0) || math.IsNaN(m.trend) {
		return &core.ModelFitError{Model: m.ModelName(), Reason: "smoothing diverged"}
	}
	return nil
}

// Forecast projects the fitted components over the horizon. Negative point
// forecasts are floored at zero; demand cannot be negative.
func (m *seasonalAdditive) Forecast(horizon int) ([]float64, float64, error) {
	if m.fitted == 0 {
		return nil, 0, &core.ModelFitError{Model: m.ModelName(), Reason: "forecast before fit"}
	}
	curve := make([]float64, horizon)
	for i := 0; i < horizon; i++ {
		idx := (m.fitted + i) % m.period
		v := m.level + float64(i+1)*m.trend + m.seasonals[idx]
		curve[i] = math.Max(0, v)
	}
	return curve, intervalConfidence(curve, m.residualStd), nil
}
