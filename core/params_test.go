package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validParams() SeasonParameters {
	p := SeasonParameters{
		HorizonWeeks:  16,
		StartDate:     time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		Replenishment: ReplenishmentWeekly,
		DCHoldbackPct: 0.15,
	}
	p.Normalize()
	return p
}

func TestSeasonParametersDateInvariant(t *testing.T) {
	p := validParams()
	require.NoError(t, p.Validate())
	assert.Equal(t, p.StartDate.AddDate(0, 0, 16*7), p.EndDate)

	// A drifted end date must be rejected, whatever direction it drifted.
	p.EndDate = p.EndDate.AddDate(0, 0, 1)
	err := p.Validate()
	var verr *ParameterValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "end_date", verr.Field)
}

func TestSeasonParametersValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *SeasonParameters)
		field  string
	}{
		{"horizon too short", func(p *SeasonParameters) { p.HorizonWeeks = 3; p.Normalize() }, "horizon_weeks"},
		{"horizon too long", func(p *SeasonParameters) { p.HorizonWeeks = 53; p.Normalize() }, "horizon_weeks"},
		{"unknown strategy", func(p *SeasonParameters) { p.Replenishment = "monthly" }, "replenishment_strategy"},
		{"holdback negative", func(p *SeasonParameters) { p.DCHoldbackPct = -0.01 }, "dc_holdback_pct"},
		{"holdback above one", func(p *SeasonParameters) { p.DCHoldbackPct = 1.01 }, "dc_holdback_pct"},
		{"checkpoint out of range", func(p *SeasonParameters) {
			w := 17
			p.MarkdownCheckpoint = &w
		}, "markdown_checkpoint_week"},
		{"checkpoint without threshold", func(p *SeasonParameters) {
			w := 8
			p.MarkdownCheckpoint = &w
		}, "markdown_threshold"},
		{"threshold out of range", func(p *SeasonParameters) {
			w, th := 8, 1.5
			p.MarkdownCheckpoint, p.MarkdownThreshold = &w, &th
		}, "markdown_threshold"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParams()
			tt.mutate(&p)
			err := p.Validate()
			var verr *ParameterValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestReplenishmentStrategyCadence(t *testing.T) {
	assert.Equal(t, 0, ReplenishmentNone.Cadence())
	assert.Equal(t, 1, ReplenishmentWeekly.Cadence())
	assert.Equal(t, 2, ReplenishmentBiweekly.Cadence())
	assert.False(t, ReplenishmentStrategy("monthly").Valid())
}
