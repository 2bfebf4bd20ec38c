package core

// Typed per-stage contexts threaded through the handoff chain. Each stage
// receives exactly the struct it declares and produces a result that the
// next stage's context is adapted from, instead of a single growing untyped
// bag.

// DemandContext is the input to the demand stage: validated season
// parameters plus the assembled history and attribute tables.
//
// ObservedWeeks carries in-season actuals appended to the historical weekly
// totals on a re-forecast cycle. PriceAdjustmentPct is non-zero only after a
// markdown has been applied; the demand stage scales the remaining curve by
// the expected elasticity uplift.
type DemandContext struct {
	Params             SeasonParameters
	CategoryID         string
	History            HistoricalSeries
	Attributes         AttributeTable
	ObservedWeeks      []int
	PriceAdjustmentPct float64
	Elasticity         float64
}

// DemandResult is the demand stage output: the reconciled forecast, the
// store segmentation and the demand-view allocation of the ensemble total.
type DemandResult struct {
	Context  DemandContext
	Forecast ForecastResult
	Clusters ClusterAssignment
	Plan     AllocationPlan
}

// InventoryContext adapts a DemandResult into the inventory stage input.
// SafetyStockPct scales the ensemble total into the manufacturing quantity.
type InventoryContext struct {
	Params         SeasonParameters
	Forecast       ForecastResult
	Clusters       ClusterAssignment
	Attributes     AttributeTable
	SafetyStockPct float64
	MinPerEntity   int
}

// ToInventoryContext converts the demand output into the inventory input.
func (r DemandResult) ToInventoryContext(safetyStockPct float64, minPerEntity int) InventoryContext {
	return InventoryContext{
		Params:         r.Context.Params,
		Forecast:       r.Forecast,
		Clusters:       r.Clusters,
		Attributes:     r.Context.Attributes,
		SafetyStockPct: safetyStockPct,
		MinPerEntity:   minPerEntity,
	}
}

// InventoryResult is the inventory stage output: the committed manufacturing
// allocation plan.
type InventoryResult struct {
	Context InventoryContext
	Plan    AllocationPlan
}

// PricingContext is the input to the pricing stage at the markdown
// checkpoint.
type PricingContext struct {
	Params            SeasonParameters
	CheckpointWeek    int
	TotalManufactured int
	TotalSoldToDate   int
	TargetSellThrough float64
	Elasticity        float64
}

// PricingResult is the pricing stage output.
type PricingResult struct {
	Decision MarkdownDecision
}

// ReplenishmentContext is the input to the replenishment stage for one
// monitoring period.
type ReplenishmentContext struct {
	PeriodIndex      int
	RemainingTotal   float64
	PeriodsRemaining int
	EntityOnHand     map[string]int
	DCUnits          int
}

// ReplenishmentResult is the replenishment stage output: the period's queue
// plus the DC units left after shipping.
type ReplenishmentResult struct {
	Queue            []ReplenishmentQueueItem
	DCUnitsRemaining int
}
