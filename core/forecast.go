package core

import "time"

// ModelUsed identifies which sub-models contributed to a ForecastResult.
type ModelUsed string

const (
	// ModelEnsemble means both sub-models converged and were averaged.
	ModelEnsemble ModelUsed = "ensemble"
	// ModelSeasonalOnly means only the seasonal additive model converged.
	ModelSeasonalOnly ModelUsed = "seasonal_only"
	// ModelAutoregressiveOnly means only the autoregressive model converged.
	ModelAutoregressiveOnly ModelUsed = "autoregressive_only"
)

// ForecastResult is the reconciled output of one forecasting cycle. It is
// immutable once created; a re-forecast produces a new result with a fresh
// Version rather than mutating the prior one.
type ForecastResult struct {
	Version             string    `json:"version"`
	SeasonalTotal       int       `json:"seasonal_total"`
	AutoregressiveTotal int       `json:"autoregressive_total"`
	EnsembleTotal       int       `json:"ensemble_total"`
	WeeklyCurve         []int     `json:"weekly_curve"`
	Confidence          float64   `json:"confidence"`
	ModelUsed           ModelUsed `json:"model_used"`
	CreatedAt           time.Time `json:"created_at"`
}

// CurveTotal sums the weekly curve. A well-formed result satisfies
// CurveTotal() == EnsembleTotal exactly.
func (r ForecastResult) CurveTotal() int {
	total := 0
	for _, v := range r.WeeklyCurve {
		total += v
	}
	return total
}
