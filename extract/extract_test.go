package extract

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/seasonflow/core"
)

func ptr[T any](v T) *T { return &v }

func TestResolveCompleteExtraction(t *testing.T) {
	params, err := Resolve(Extraction{
		HorizonWeeks:           ptr(16),
		StartDate:              ptr("2026-08-31"),
		ReplenishmentStrategy:  ptr("biweekly"),
		DCHoldbackPct:          ptr(0.15),
		MarkdownCheckpointWeek: ptr(8),
		MarkdownThreshold:      ptr(0.60),
	})
	require.NoError(t, err)

	assert.Equal(t, 16, params.HorizonWeeks)
	assert.Equal(t, core.ReplenishmentBiweekly, params.Replenishment)
	assert.Equal(t, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), params.StartDate)
	assert.Equal(t, params.StartDate.AddDate(0, 0, 16*7), params.EndDate)
	require.NotNil(t, params.MarkdownCheckpoint)
	assert.Equal(t, 8, *params.MarkdownCheckpoint)
}

func TestResolveMissingFields(t *testing.T) {
	_, err := Resolve(Extraction{
		HorizonWeeks: ptr(16),
		Missing:      []string{"dc_holdback_pct"},
	})
	var merr *core.MissingFieldsError
	require.ErrorAs(t, err, &merr)
	assert.ElementsMatch(t, []string{"dc_holdback_pct", "start_date", "replenishment_strategy"}, merr.Fields)
}

func TestResolveBadDate(t *testing.T) {
	_, err := Resolve(Extraction{
		HorizonWeeks:          ptr(16),
		StartDate:             ptr("August 31st"),
		ReplenishmentStrategy: ptr("none"),
		DCHoldbackPct:         ptr(0.15),
	})
	var verr *core.ParameterValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "start_date", verr.Field)
}

func TestResolveRejectsInvalidValues(t *testing.T) {
	// A syntactically complete extraction still goes through full parameter
	// validation; model output is untrusted.
	_, err := Resolve(Extraction{
		HorizonWeeks:          ptr(2),
		StartDate:             ptr("2026-08-31"),
		ReplenishmentStrategy: ptr("weekly"),
		DCHoldbackPct:         ptr(0.15),
	})
	var verr *core.ParameterValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "horizon_weeks", verr.Field)
}

func TestStaticExtractor(t *testing.T) {
	want := core.SeasonParameters{HorizonWeeks: 12}
	s := &Static{Params: want}
	got, err := s.ExtractParameters(context.Background(), "whatever")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	failing := &Static{Err: &core.MissingFieldsError{Fields: []string{"start_date"}}}
	_, err = failing.ExtractParameters(context.Background(), "whatever")
	var merr *core.MissingFieldsError
	require.ErrorAs(t, err, &merr)
}

func TestSchemaCoversExtractionFields(t *testing.T) {
	props, ok := Schema()["properties"].(map[string]any)
	require.True(t, ok)
	for _, field := range []string{
		"horizon_weeks", "start_date", "replenishment_strategy",
		"dc_holdback_pct", "markdown_checkpoint_week", "markdown_threshold",
		"missing_fields",
	} {
		assert.Contains(t, props, field)
	}
}
