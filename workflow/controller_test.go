package workflow

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/seasonflow/assemble"
	"github.com/hupe1980/seasonflow/core"
)

var sessionCounter int

func nextSessionID() string {
	sessionCounter++
	return fmt.Sprintf("test-session-%d", sessionCounter)
}

func fleet() core.AttributeTable {
	return core.AttributeTable{
		{EntityID: "store-001", CapacityScore: 0.95, IncomeIndex: 1.30, Tier: 1, TrailingSalesRate: 140},
		{EntityID: "store-002", CapacityScore: 0.90, IncomeIndex: 1.25, Tier: 1, TrailingSalesRate: 132},
		{EntityID: "store-003", CapacityScore: 0.70, IncomeIndex: 1.02, Tier: 2, TrailingSalesRate: 90},
		{EntityID: "store-004", CapacityScore: 0.68, IncomeIndex: 0.99, Tier: 2, TrailingSalesRate: 86},
		{EntityID: "store-005", CapacityScore: 0.45, IncomeIndex: 0.80, Tier: 3, TrailingSalesRate: 52},
		{EntityID: "store-006", CapacityScore: 0.42, IncomeIndex: 0.78, Tier: 3, TrailingSalesRate: 48},
	}
}

func seededLoader() *assemble.InMemoryLoader {
	loader := assemble.NewInMemoryLoader()
	stores := fleet()
	start := time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC)

	var series core.HistoricalSeries
	for week := 0; week < 104; week++ {
		date := start.AddDate(0, 0, week*7)
		seasonal := 1 + 0.5*math.Sin(2*math.Pi*float64(week%52)/52)
		for i, store := range stores {
			qty := int(math.Round((40 + 10*float64(i)) * seasonal))
			series = append(series, core.SeriesPoint{
				Date: date, EntityID: store.EntityID, CategoryID: "knitwear", Quantity: qty,
			})
		}
	}
	loader.PutHistory("knitwear", series)
	loader.PutAttributes(stores)
	return loader
}

func testParams(horizon int, strategy core.ReplenishmentStrategy) core.SeasonParameters {
	p := core.SeasonParameters{
		HorizonWeeks:  horizon,
		StartDate:     time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		Replenishment: strategy,
		DCHoldbackPct: 0.15,
	}
	p.Normalize()
	return p
}

func newTestController(t *testing.T, optFns ...func(o *Options)) *Controller {
	t.Helper()
	all := append([]func(o *Options){func(o *Options) {
		o.Loader = seededLoader()
	}}, optFns...)
	c, err := NewController(nextSessionID(), all...)
	require.NoError(t, err)
	return c
}

// runPreSeason is the shared setup for in-season tests.
func runPreSeason(t *testing.T, c *Controller, params core.SeasonParameters) *core.WorkflowSession {
	t.Helper()
	ctx := context.Background()
	_, err := c.SetParameters(params)
	require.NoError(t, err)
	sess, err := c.RunPreSeason(ctx, "knitwear")
	require.NoError(t, err)
	return sess
}

func TestPreSeasonCommitsOpeningPlan(t *testing.T) {
	c := newTestController(t)
	sess := runPreSeason(t, c, testParams(12, core.ReplenishmentNone))

	assert.Equal(t, PhaseInSeasonMonitoring, Phase(sess.Phase))
	require.Len(t, sess.Forecasts, 1)
	require.Len(t, sess.Plans, 1)

	plan := sess.Plans[0]
	require.NoError(t, plan.Validate())
	assert.Len(t, plan.EntityAllocations, 6)

	// Safety stock inflates manufacturing above the ensemble total.
	assert.Greater(t, plan.ManufacturingQty, sess.Forecasts[0].EnsembleTotal)

	log := c.Log()
	require.Len(t, log.ByStage(StageDemand), 1)
	require.Len(t, log.ByStage(StageInventory), 1)
	assert.Equal(t, core.StatusSuccess, log.ByStage(StageDemand)[0].Status)
}

func TestStrategyNoneSkipsReplenishment(t *testing.T) {
	c := newTestController(t)
	runPreSeason(t, c, testParams(6, core.ReplenishmentNone))

	ctx := context.Background()
	for week := 1; week <= 6; week++ {
		actual := c.forecastForWeek(week)
		outcome, err := c.ObserveWeek(ctx, WeekActuals{Total: actual})
		require.NoError(t, err)
		assert.Empty(t, outcome.Replenishment)
	}

	// The disabled phase shows up exactly once, as a skip, never as an
	// invocation.
	records := c.Log().ByStage(StageReplenishment)
	require.Len(t, records, 1)
	assert.Equal(t, core.StatusSkipped, records[0].Status)
}

func TestWeeklyReplenishmentRuns(t *testing.T) {
	c := newTestController(t)
	runPreSeason(t, c, testParams(6, core.ReplenishmentWeekly))

	ctx := context.Background()
	for week := 1; week <= 6; week++ {
		actual := c.forecastForWeek(week)
		outcome, err := c.ObserveWeek(ctx, WeekActuals{Total: actual})
		require.NoError(t, err)
		if week < 6 {
			assert.Len(t, outcome.Replenishment, 6)
		} else {
			assert.True(t, outcome.SeasonEnded)
		}
	}

	records := c.Log().ByStage(StageReplenishment)
	require.Len(t, records, 5)
	for _, rec := range records {
		assert.Equal(t, core.StatusSuccess, rec.Status)
	}
}

func TestVarianceTriggersReforecast(t *testing.T) {
	c := newTestController(t)
	sess := runPreSeason(t, c, testParams(12, core.ReplenishmentNone))
	require.Len(t, sess.Forecasts, 1)

	ctx := context.Background()

	// On-plan week: no new forecast version.
	outcome, err := c.ObserveWeek(ctx, WeekActuals{Total: c.forecastForWeek(1)})
	require.NoError(t, err)
	assert.False(t, outcome.Reforecast)

	// Double the forecast blows through the 20% threshold.
	outcome, err = c.ObserveWeek(ctx, WeekActuals{Total: 2 * c.forecastForWeek(2)})
	require.NoError(t, err)
	assert.True(t, outcome.Reforecast)
	assert.Greater(t, outcome.Variance, 0.20)

	sess, err = c.Session()
	require.NoError(t, err)
	assert.Len(t, sess.Forecasts, 2)
	assert.Equal(t, PhaseInSeasonMonitoring, Phase(sess.Phase))

	// The superseding forecast covers only the remaining weeks.
	assert.Len(t, sess.Forecasts[1].WeeklyCurve, 10)
}

func TestMarkdownCheckpointTriggersAndReforecasts(t *testing.T) {
	checkpoint, threshold := 2, 0.9
	params := testParams(12, core.ReplenishmentNone)
	params.MarkdownCheckpoint = &checkpoint
	params.MarkdownThreshold = &threshold

	c := newTestController(t)
	runPreSeason(t, c, params)

	ctx := context.Background()
	_, err := c.ObserveWeek(ctx, WeekActuals{Total: c.forecastForWeek(1)})
	require.NoError(t, err)

	outcome, err := c.ObserveWeek(ctx, WeekActuals{Total: c.forecastForWeek(2)})
	require.NoError(t, err)
	require.NotNil(t, outcome.Markdown)
	assert.True(t, outcome.Markdown.Triggered)
	assert.True(t, outcome.Reforecast)

	sess, err := c.Session()
	require.NoError(t, err)
	require.Len(t, sess.Markdowns, 1)
	assert.Len(t, sess.Forecasts, 2)

	// The checkpoint never fires twice.
	outcome, err = c.ObserveWeek(ctx, WeekActuals{Total: c.forecastForWeek(3)})
	require.NoError(t, err)
	assert.Nil(t, outcome.Markdown)
}

func TestGateModifyRerunsAllocation(t *testing.T) {
	calls := 0
	gate := GateFunc(func(_ context.Context, _ core.ForecastResult, _ core.AllocationPlan) (Approval, error) {
		calls++
		if calls == 1 {
			return Approval{Decision: DecisionModify, SafetyStockPct: 0.30}, nil
		}
		return Approval{Decision: DecisionApprove}, nil
	})

	c := newTestController(t, func(o *Options) { o.Gate = gate })
	sess := runPreSeason(t, c, testParams(12, core.ReplenishmentNone))

	assert.Equal(t, 2, calls)
	require.Len(t, sess.Plans, 2)
	assert.Greater(t, sess.Plans[1].ManufacturingQty, sess.Plans[0].ManufacturingQty)
	require.NoError(t, sess.Plans[1].Validate())
}

func TestGateRejectAbortsCommit(t *testing.T) {
	gate := GateFunc(func(context.Context, core.ForecastResult, core.AllocationPlan) (Approval, error) {
		return Approval{Decision: DecisionReject}, nil
	})

	c := newTestController(t, func(o *Options) { o.Gate = gate })
	_, err := c.SetParameters(testParams(12, core.ReplenishmentNone))
	require.NoError(t, err)

	_, err = c.RunPreSeason(context.Background(), "knitwear")
	require.Error(t, err)
	assert.Equal(t, PhasePreSeasonForecast, c.Phase())
}

func TestSeasonEnds(t *testing.T) {
	c := newTestController(t)
	runPreSeason(t, c, testParams(6, core.ReplenishmentNone))

	ctx := context.Background()
	var last WeekOutcome
	for week := 1; week <= 6; week++ {
		outcome, err := c.ObserveWeek(ctx, WeekActuals{Total: c.forecastForWeek(week)})
		require.NoError(t, err)
		last = outcome
	}
	assert.True(t, last.SeasonEnded)
	assert.Equal(t, PhaseSeasonEnd, c.Phase())

	_, err := c.ObserveWeek(ctx, WeekActuals{Total: 10})
	require.Error(t, err)
}

func TestOperationsRequireTheRightPhase(t *testing.T) {
	c := newTestController(t)

	// Monitoring before any committed plan is rejected.
	_, err := c.ObserveWeek(context.Background(), WeekActuals{Total: 10})
	require.Error(t, err)

	// Pre-season without confirmed parameters is rejected.
	_, err = c.RunPreSeason(context.Background(), "knitwear")
	require.Error(t, err)

	// Parameters cannot be replaced once the workflow moved on.
	runPreSeason(t, c, testParams(12, core.ReplenishmentNone))
	_, err = c.SetParameters(testParams(12, core.ReplenishmentNone))
	require.Error(t, err)
}

func TestStatusUpdatesReachSink(t *testing.T) {
	var updates []core.StatusUpdate
	sink := core.SinkFunc(func(u core.StatusUpdate) { updates = append(updates, u) })

	c := newTestController(t, func(o *Options) { o.Sink = sink })
	runPreSeason(t, c, testParams(12, core.ReplenishmentNone))

	require.NotEmpty(t, updates)
	assert.Equal(t, "parameter_gathering", updates[0].Stage)
	final := updates[len(updates)-1]
	assert.Equal(t, StageInventory, final.Stage)
	assert.Equal(t, core.StateComplete, final.State)
	assert.Equal(t, 100, final.Percent)
}

func TestDuplicateSessionRejected(t *testing.T) {
	c := newTestController(t)
	_, err := NewController(c.SessionID(), func(o *Options) {
		o.Store = c.store
	})
	require.Error(t, err)
}
