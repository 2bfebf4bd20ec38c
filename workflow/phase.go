package workflow

// Phase is one state of the season workflow state machine.
type Phase string

const (
	// PhaseParameterGathering collects and validates season parameters.
	PhaseParameterGathering Phase = "parameter_gathering"
	// PhasePreSeasonForecast runs the demand and inventory stages.
	PhasePreSeasonForecast Phase = "pre_season_forecast"
	// PhaseSeasonStartAllocation is the gated commit of the opening plan.
	PhaseSeasonStartAllocation Phase = "season_start_allocation"
	// PhaseInSeasonMonitoring ingests weekly actuals during the season.
	PhaseInSeasonMonitoring Phase = "in_season_monitoring"
	// PhaseConditionalReforecast is entered when variance or a markdown
	// requires a new forecast version.
	PhaseConditionalReforecast Phase = "conditional_reforecast"
	// PhaseMidSeasonMarkdown is the one-time sell-through checkpoint.
	PhaseMidSeasonMarkdown Phase = "mid_season_markdown"
	// PhaseSeasonEnd is terminal.
	PhaseSeasonEnd Phase = "season_end"
)

// transitions encodes the legal edges of the state machine. Anything not
// listed is rejected; there is no way to re-open a finished season.
var transitions = map[Phase][]Phase{
	PhaseParameterGathering:    {PhasePreSeasonForecast},
	PhasePreSeasonForecast:     {PhaseSeasonStartAllocation},
	PhaseSeasonStartAllocation: {PhaseInSeasonMonitoring},
	PhaseInSeasonMonitoring:    {PhaseConditionalReforecast, PhaseMidSeasonMarkdown, PhaseSeasonEnd},
	PhaseConditionalReforecast: {PhaseInSeasonMonitoring, PhaseSeasonEnd},
	PhaseMidSeasonMarkdown:     {PhaseInSeasonMonitoring, PhaseConditionalReforecast},
	PhaseSeasonEnd:             nil,
}

// CanTransition reports whether the state machine allows moving from one
// phase to another.
func CanTransition(from, to Phase) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
