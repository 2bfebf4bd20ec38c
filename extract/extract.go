package extract

import (
	"context"
	"time"

	"github.com/hupe1980/seasonflow/core"
)

// ToolName is the structured-output tool every provider exposes to the model.
const ToolName = "record_season_parameters"

// Extraction is the raw structured output of a provider before local
// validation. Pointer fields distinguish "absent" from zero values; Missing
// lists required fields the model could not find in the description.
type Extraction struct {
	HorizonWeeks           *int     `json:"horizon_weeks,omitempty"`
	StartDate              *string  `json:"start_date,omitempty"`
	ReplenishmentStrategy  *string  `json:"replenishment_strategy,omitempty"`
	DCHoldbackPct          *float64 `json:"dc_holdback_pct,omitempty"`
	MarkdownCheckpointWeek *int     `json:"markdown_checkpoint_week,omitempty"`
	MarkdownThreshold      *float64 `json:"markdown_threshold,omitempty"`
	Missing                []string `json:"missing_fields,omitempty"`
}

// Extractor derives season parameters from a strategy description.
type Extractor interface {
	ExtractParameters(ctx context.Context, description string) (core.SeasonParameters, error)
}

// Schema is the JSON schema the providers hand to the model for ToolName.
// Shared so both providers stay in sync field for field with Extraction.
func Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"horizon_weeks": map[string]any{
				"type":        "integer",
				"description": "Season length in weeks, between 4 and 52.",
			},
			"start_date": map[string]any{
				"type":        "string",
				"description": "Season start date in YYYY-MM-DD format.",
			},
			"replenishment_strategy": map[string]any{
				"type":        "string",
				"enum":        []string{"none", "weekly", "biweekly"},
				"description": "How often stores are replenished from DC holdback.",
			},
			"dc_holdback_pct": map[string]any{
				"type":        "number",
				"description": "Fraction of manufactured units held at the DC, between 0 and 1.",
			},
			"markdown_checkpoint_week": map[string]any{
				"type":        "integer",
				"description": "Week at which sell-through is reviewed for a markdown. Omit if the description sets no checkpoint.",
			},
			"markdown_threshold": map[string]any{
				"type":        "number",
				"description": "Target sell-through fraction at the checkpoint, between 0 and 1.",
			},
			"missing_fields": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Names of required fields the description does not specify. Never guess a value for a field listed here.",
			},
		},
		"required": []string{"missing_fields"},
	}
}

// SystemPrompt is the shared instruction given to every provider model.
const SystemPrompt = "You are a retail planning assistant. Read the season strategy description and record its parameters by calling the " + ToolName + " tool exactly once. Extract only what the text states; list anything required but absent in missing_fields instead of guessing."

// Resolve converts a raw extraction into validated season parameters. Fields
// the model flagged or left unset are collected into one MissingFieldsError
// so the caller can ask for all of them at once.
func Resolve(ex Extraction) (core.SeasonParameters, error) {
	missing := append([]string(nil), ex.Missing...)
	appendMissing := func(name string, absent bool) {
		if !absent {
			return
		}
		for _, m := range missing {
			if m == name {
				return
			}
		}
		missing = append(missing, name)
	}
	appendMissing("horizon_weeks", ex.HorizonWeeks == nil)
	appendMissing("start_date", ex.StartDate == nil)
	appendMissing("replenishment_strategy", ex.ReplenishmentStrategy == nil)
	appendMissing("dc_holdback_pct", ex.DCHoldbackPct == nil)
	if len(missing) > 0 {
		return core.SeasonParameters{}, &core.MissingFieldsError{Fields: missing}
	}

	start, err := time.Parse("2006-01-02", *ex.StartDate)
	if err != nil {
		return core.SeasonParameters{}, &core.ParameterValidationError{Field: "start_date", Reason: "not a YYYY-MM-DD date: " + *ex.StartDate}
	}

	params := core.SeasonParameters{
		HorizonWeeks:       *ex.HorizonWeeks,
		StartDate:          start,
		Replenishment:      core.ReplenishmentStrategy(*ex.ReplenishmentStrategy),
		DCHoldbackPct:      *ex.DCHoldbackPct,
		MarkdownCheckpoint: ex.MarkdownCheckpointWeek,
		MarkdownThreshold:  ex.MarkdownThreshold,
	}
	params.Normalize()
	if err := params.Validate(); err != nil {
		return core.SeasonParameters{}, err
	}
	return params, nil
}

// Static is an Extractor that returns fixed parameters regardless of the
// description. Used in tests and offline runs where no model is available.
type Static struct {
	Params core.SeasonParameters
	Err    error
}

var _ Extractor = (*Static)(nil)

// ExtractParameters implements Extractor.
func (s *Static) ExtractParameters(_ context.Context, _ string) (core.SeasonParameters, error) {
	if s.Err != nil {
		return core.SeasonParameters{}, s.Err
	}
	return s.Params, nil
}
