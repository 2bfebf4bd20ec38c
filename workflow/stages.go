package workflow

import (
	"context"
	"fmt"
	"math"

	"github.com/hupe1980/seasonflow/core"
	"github.com/hupe1980/seasonflow/forecast"
	"github.com/hupe1980/seasonflow/handoff"
)

// Stage names registered on the handoff manager. One handoff call per
// invocation, one execution record per call.
const (
	StageDemand        = "demand"
	StageInventory     = "inventory"
	StagePricing       = "pricing"
	StageReplenishment = "replenishment"
)

// registerStages wires the four domain stages into the session's manager.
func (c *Controller) registerStages() {
	c.manager.Register(handoff.NewStageFunc(StageDemand, c.demandStage))
	c.manager.Register(handoff.NewStageFunc(StageInventory, c.inventoryStage))
	c.manager.Register(handoff.NewStageFunc(StagePricing, c.pricingStage))
	c.manager.Register(handoff.NewStageFunc(StageReplenishment, c.replenishmentStage))
}

// demandStage forecasts the season and produces the demand-view segmentation
// and allocation. On re-forecast cycles the observed actuals extend the
// historical totals and the horizon shrinks to the remaining weeks; an
// applied markdown scales the result by the expected elasticity uplift.
func (c *Controller) demandStage(ctx context.Context, input any) (any, error) {
	dc, ok := input.(core.DemandContext)
	if !ok {
		return nil, fmt.Errorf("demand stage: unexpected input %T", input)
	}

	weekly := dc.History.WeeklyTotals()
	if len(weekly) < core.MinHistoryPeriods {
		return nil, &core.InsufficientHistoryError{Key: dc.CategoryID, Periods: len(weekly), Required: core.MinHistoryPeriods}
	}
	for _, actual := range dc.ObservedWeeks {
		weekly = append(weekly, float64(actual))
	}
	horizon := dc.Params.HorizonWeeks - len(dc.ObservedWeeks)
	if horizon < 1 {
		return nil, &core.ParameterValidationError{Field: "horizon", Reason: "no weeks remain to forecast"}
	}

	fc, err := c.forecaster.TrainAndForecastSeries(ctx, weekly, horizon)
	if err != nil {
		return nil, err
	}
	if dc.PriceAdjustmentPct > 0 {
		fc = forecast.ApplyPriceUplift(fc, dc.PriceAdjustmentPct, dc.Elasticity)
	}

	clusters, err := c.clusterer.Fit(dc.Attributes)
	if err != nil {
		return nil, err
	}
	plan, err := c.allocator.Allocate(fc.EnsembleTotal, clusters, dc.Attributes, dc.Params.DCHoldbackPct)
	if err != nil {
		return nil, err
	}
	return core.DemandResult{Context: dc, Forecast: fc, Clusters: clusters, Plan: plan}, nil
}

// inventoryStage commits a manufacturing quantity (ensemble total plus
// safety stock) and allocates it. It accepts either the demand result when
// running in the pre-season chain or a bare InventoryContext when a modify
// round re-runs allocation alone.
func (c *Controller) inventoryStage(_ context.Context, input any) (any, error) {
	var ic core.InventoryContext
	switch v := input.(type) {
	case core.DemandResult:
		ic = v.ToInventoryContext(c.safetyStock, c.cfg.Allocation.MinPerEntity)
	case core.InventoryContext:
		ic = v
	default:
		return nil, fmt.Errorf("inventory stage: unexpected input %T", input)
	}

	mfgQty := int(math.Round(float64(ic.Forecast.EnsembleTotal) * (1 + ic.SafetyStockPct)))
	plan, err := c.allocator.Allocate(mfgQty, ic.Clusters, ic.Attributes, ic.Params.DCHoldbackPct)
	if err != nil {
		return nil, err
	}
	return core.InventoryResult{Context: ic, Plan: plan}, nil
}

// pricingStage evaluates the markdown checkpoint.
func (c *Controller) pricingStage(_ context.Context, input any) (any, error) {
	pc, ok := input.(core.PricingContext)
	if !ok {
		return nil, fmt.Errorf("pricing stage: unexpected input %T", input)
	}
	decision, err := c.pricer.Evaluate(pc.CheckpointWeek, pc.TotalManufactured, pc.TotalSoldToDate, pc.TargetSellThrough, pc.Elasticity)
	if err != nil {
		return nil, err
	}
	return core.PricingResult{Decision: decision}, nil
}

// replenishmentStage computes one period's top-up queue from DC holdback.
func (c *Controller) replenishmentStage(_ context.Context, input any) (any, error) {
	rc, ok := input.(core.ReplenishmentContext)
	if !ok {
		return nil, fmt.Errorf("replenishment stage: unexpected input %T", input)
	}
	queue, left, err := c.planner.PlanPeriod(rc.PeriodIndex, rc.RemainingTotal, rc.PeriodsRemaining, rc.EntityOnHand, rc.DCUnits)
	if err != nil {
		return nil, err
	}
	return core.ReplenishmentResult{Queue: queue, DCUnitsRemaining: left}, nil
}
