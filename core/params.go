package core

import (
	"fmt"
	"time"
)

// ReplenishmentStrategy controls whether and how often stores are topped up
// from DC holdback during the season.
type ReplenishmentStrategy string

const (
	// ReplenishmentNone disables in-season replenishment entirely. The
	// replenishment stage is skipped, not invoked with empty input.
	ReplenishmentNone ReplenishmentStrategy = "none"
	// ReplenishmentWeekly tops stores up every monitoring period.
	ReplenishmentWeekly ReplenishmentStrategy = "weekly"
	// ReplenishmentBiweekly tops stores up every second monitoring period.
	ReplenishmentBiweekly ReplenishmentStrategy = "biweekly"
)

// Valid reports whether the strategy is one of the known enum values.
func (s ReplenishmentStrategy) Valid() bool {
	switch s {
	case ReplenishmentNone, ReplenishmentWeekly, ReplenishmentBiweekly:
		return true
	}
	return false
}

// Cadence returns the period interval between replenishment runs, or 0 when
// replenishment is disabled.
func (s ReplenishmentStrategy) Cadence() int {
	switch s {
	case ReplenishmentWeekly:
		return 1
	case ReplenishmentBiweekly:
		return 2
	}
	return 0
}

// SeasonParameters is the typed output of strategy extraction and the
// contract every downstream stage plans against. Treat it as immutable once
// confirmed; EndDate is always derived from StartDate and HorizonWeeks.
type SeasonParameters struct {
	HorizonWeeks          int                   `json:"horizon_weeks" yaml:"horizon_weeks"`
	StartDate             time.Time             `json:"start_date" yaml:"start_date"`
	EndDate               time.Time             `json:"end_date" yaml:"end_date"`
	Replenishment         ReplenishmentStrategy `json:"replenishment_strategy" yaml:"replenishment_strategy"`
	DCHoldbackPct         float64               `json:"dc_holdback_pct" yaml:"dc_holdback_pct"`
	MarkdownCheckpoint    *int                  `json:"markdown_checkpoint_week,omitempty" yaml:"markdown_checkpoint_week,omitempty"`
	MarkdownThreshold     *float64              `json:"markdown_threshold,omitempty" yaml:"markdown_threshold,omitempty"`
}

// Normalize derives EndDate from StartDate and HorizonWeeks. Call before
// Validate when parameters were assembled by hand or by an extractor.
func (p *SeasonParameters) Normalize() {
	p.EndDate = p.StartDate.AddDate(0, 0, p.HorizonWeeks*7)
}

// Validate checks ranges, enums and the derived-date invariant. The first
// violation is returned as a *ParameterValidationError.
func (p SeasonParameters) Validate() error {
	if p.HorizonWeeks < 4 || p.HorizonWeeks > 52 {
		return &ParameterValidationError{Field: "horizon_weeks", Reason: fmt.Sprintf("must be in [4,52], got %d", p.HorizonWeeks)}
	}
	if p.StartDate.IsZero() {
		return &ParameterValidationError{Field: "start_date", Reason: "must be set"}
	}
	if want := p.StartDate.AddDate(0, 0, p.HorizonWeeks*7); !p.EndDate.Equal(want) {
		return &ParameterValidationError{Field: "end_date", Reason: fmt.Sprintf("must equal start_date + %d weeks (want %s, got %s)", p.HorizonWeeks, want.Format("2006-01-02"), p.EndDate.Format("2006-01-02"))}
	}
	if !p.Replenishment.Valid() {
		return &ParameterValidationError{Field: "replenishment_strategy", Reason: fmt.Sprintf("unknown strategy %q", p.Replenishment)}
	}
	if p.DCHoldbackPct < 0 || p.DCHoldbackPct > 1 {
		return &ParameterValidationError{Field: "dc_holdback_pct", Reason: fmt.Sprintf("must be in [0,1], got %g", p.DCHoldbackPct)}
	}
	if p.MarkdownCheckpoint != nil {
		if w := *p.MarkdownCheckpoint; w < 1 || w > p.HorizonWeeks {
			return &ParameterValidationError{Field: "markdown_checkpoint_week", Reason: fmt.Sprintf("must be in [1,%d], got %d", p.HorizonWeeks, w)}
		}
		if p.MarkdownThreshold == nil {
			return &ParameterValidationError{Field: "markdown_threshold", Reason: "required when markdown_checkpoint_week is set"}
		}
	}
	if p.MarkdownThreshold != nil {
		if t := *p.MarkdownThreshold; t <= 0 || t > 1 {
			return &ParameterValidationError{Field: "markdown_threshold", Reason: fmt.Sprintf("must be in (0,1], got %g", t)}
		}
	}
	return nil
}
