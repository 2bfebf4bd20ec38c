package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/seasonflow/core"
)

func TestCreateAndGet(t *testing.T) {
	store := NewInMemoryStore()
	created, err := store.Create("fall-2026")
	require.NoError(t, err)
	created.SetPhase("pre_season_forecast")

	got, err := store.Get("fall-2026")
	require.NoError(t, err)
	assert.Equal(t, "fall-2026", got.ID)
	assert.Equal(t, "pre_season_forecast", got.Phase)
}

func TestCreateDuplicate(t *testing.T) {
	store := NewInMemoryStore()
	_, err := store.Create("fall-2026")
	require.NoError(t, err)
	_, err = store.Create("fall-2026")
	require.Error(t, err)
	assert.Equal(t, 1, store.Len())
}

func TestGetUnknown(t *testing.T) {
	store := NewInMemoryStore()
	_, err := store.Get("missing")
	var nerr *core.DataNotFoundError
	require.ErrorAs(t, err, &nerr)
}

func TestGetReturnsClone(t *testing.T) {
	store := NewInMemoryStore()
	created, err := store.Create("fall-2026")
	require.NoError(t, err)
	created.AddForecast(core.ForecastResult{Version: "v1", EnsembleTotal: 100})

	clone, err := store.Get("fall-2026")
	require.NoError(t, err)
	clone.AddForecast(core.ForecastResult{Version: "v2"})

	fresh, err := store.Get("fall-2026")
	require.NoError(t, err)
	assert.Len(t, fresh.Forecasts, 1)
}

func TestSaveReplaces(t *testing.T) {
	store := NewInMemoryStore()
	_, err := store.Create("fall-2026")
	require.NoError(t, err)

	replacement := core.NewWorkflowSession("fall-2026")
	replacement.SetPhase("season_end")
	require.NoError(t, store.Save(replacement))

	got, err := store.Get("fall-2026")
	require.NoError(t, err)
	assert.Equal(t, "season_end", got.Phase)

	require.Error(t, store.Save(nil))
}
