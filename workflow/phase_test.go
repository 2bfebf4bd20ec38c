package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(PhaseParameterGathering, PhasePreSeasonForecast))
	assert.True(t, CanTransition(PhaseInSeasonMonitoring, PhaseConditionalReforecast))
	assert.True(t, CanTransition(PhaseMidSeasonMarkdown, PhaseConditionalReforecast))
	assert.True(t, CanTransition(PhaseConditionalReforecast, PhaseSeasonEnd))

	// No skipping ahead, no going back, no leaving a finished season.
	assert.False(t, CanTransition(PhaseParameterGathering, PhaseInSeasonMonitoring))
	assert.False(t, CanTransition(PhaseInSeasonMonitoring, PhasePreSeasonForecast))
	assert.False(t, CanTransition(PhaseSeasonEnd, PhaseInSeasonMonitoring))
}
