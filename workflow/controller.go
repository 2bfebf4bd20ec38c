package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/seasonflow/allocation"
	"github.com/hupe1980/seasonflow/assemble"
	"github.com/hupe1980/seasonflow/cluster"
	"github.com/hupe1980/seasonflow/config"
	"github.com/hupe1980/seasonflow/core"
	"github.com/hupe1980/seasonflow/extract"
	"github.com/hupe1980/seasonflow/forecast"
	"github.com/hupe1980/seasonflow/handoff"
	"github.com/hupe1980/seasonflow/logging"
	"github.com/hupe1980/seasonflow/markdown"
	"github.com/hupe1980/seasonflow/replenish"
	"github.com/hupe1980/seasonflow/session"
)

// maxModifyRounds bounds the gate's modify loop so a gate that never
// approves cannot spin the pre-season run forever.
const maxModifyRounds = 5

// Options configures a Controller.
type Options struct {
	// Store persists the workflow session. Defaults to an in-memory store.
	Store core.SessionStore

	// Loader supplies history and attributes. Defaults to an empty in-memory
	// loader; real runs pass a populated one.
	Loader assemble.Loader

	// Extractor derives season parameters from strategy text. Optional;
	// SetParameters covers callers that already hold typed parameters.
	Extractor extract.Extractor

	// Gate confirms the opening plan. Defaults to AutoApproveGate.
	Gate ConfirmationGate

	// Sink receives status updates. Defaults to NoOpSink.
	Sink core.StatusSink

	// Logger provides structured logging. Defaults to NoOp.
	Logger logging.Logger

	// Config carries thresholds and timeouts. Defaults to config defaults.
	Config *config.Config
}

// Controller drives one season workflow session through its phases. All
// operations are serialized per session: a second call while one is in
// flight is rejected rather than queued, so two operators cannot race the
// same season.
type Controller struct {
	mu sync.Mutex

	sessionID string
	store     core.SessionStore
	session   *core.WorkflowSession
	manager   *handoff.Manager
	assembler *assemble.Assembler
	extractor extract.Extractor
	gate      ConfirmationGate
	sink      core.StatusSink
	logger    logging.Logger
	cfg       *config.Config

	forecaster *forecast.Ensemble
	clusterer  *cluster.Clusterer
	allocator  *allocation.Engine
	planner    *replenish.Planner
	pricer     *markdown.Engine

	// In-season state, initialized when the opening plan is committed.
	categoryID   string
	safetyStock  float64
	observed     []int
	totalSold    int
	entityOnHand map[string]int
	dcUnits      int
	curveOffset  int
	priceAdjust  float64
	markdownDone bool
}

// WeekActuals is one monitoring period's observed sales: the category total
// plus optional per-entity detail used to maintain store on-hand levels.
type WeekActuals struct {
	Total    int
	ByEntity map[string]int
}

// WeekOutcome reports everything a monitoring period triggered.
type WeekOutcome struct {
	Week          int
	Actual        int
	ForecastUnits int
	Variance      float64
	Reforecast    bool
	Markdown      *core.MarkdownDecision
	Replenishment []core.ReplenishmentQueueItem
	SeasonEnded   bool
}

// NewController creates a controller for one session id and registers the
// domain stages on a fresh handoff manager.
func NewController(sessionID string, optFns ...func(o *Options)) (*Controller, error) {
	opts := Options{
		Gate:   AutoApproveGate{},
		Sink:   core.NoOpSink{},
		Logger: logging.NoOpLogger{},
		Config: config.DefaultConfig(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Store == nil {
		opts.Store = session.NewInMemoryStore()
	}
	if opts.Loader == nil {
		opts.Loader = assemble.NewInMemoryLoader()
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}

	sess, err := opts.Store.Create(sessionID)
	if err != nil {
		return nil, err
	}
	sess.SetPhase(string(PhaseParameterGathering))

	c := &Controller{
		sessionID:   sessionID,
		store:       opts.Store,
		session:     sess,
		extractor:   opts.Extractor,
		gate:        opts.Gate,
		sink:        opts.Sink,
		logger:      opts.Logger,
		cfg:         opts.Config,
		safetyStock: opts.Config.Allocation.SafetyStockPct,
		assembler: assemble.New(opts.Loader, func(o *assemble.Options) {
			o.Elasticity = opts.Config.Markdown.Elasticity
			o.Logger = opts.Logger
		}),
		forecaster: forecast.New(func(o *forecast.Options) {
			o.SeasonalPeriod = opts.Config.Forecast.SeasonalPeriod
			o.Logger = opts.Logger
		}),
		clusterer: cluster.New(func(o *cluster.Options) {
			o.Logger = opts.Logger
		}),
		allocator: allocation.New(func(o *allocation.Options) {
			o.MinPerEntity = opts.Config.Allocation.MinPerEntity
			o.Logger = opts.Logger
		}),
		planner: replenish.New(func(o *replenish.Options) {
			o.Logger = opts.Logger
		}),
		pricer: markdown.New(func(o *markdown.Options) {
			o.Cap = opts.Config.Markdown.Cap
			o.Logger = opts.Logger
		}),
	}
	c.manager = handoff.New(func(o *handoff.Options) {
		o.DefaultTimeout = opts.Config.Handoff.StageTimeout
		o.Logger = opts.Logger
	})
	c.registerStages()
	return c, nil
}

// SessionID returns the id this controller drives.
func (c *Controller) SessionID() string { return c.sessionID }

// Session returns a clone of the current session state.
func (c *Controller) Session() (*core.WorkflowSession, error) {
	return c.store.Get(c.sessionID)
}

// Log returns the execution log of this session's stage calls.
func (c *Controller) Log() *core.ExecutionLog { return c.manager.Log() }

// Phase returns the current workflow phase.
func (c *Controller) Phase() Phase {
	return Phase(c.session.Clone().Phase)
}

// acquire takes the per-session operation lock, rejecting re-entrancy.
func (c *Controller) acquire() error {
	if !c.mu.TryLock() {
		return fmt.Errorf("session %q: an operation is already in flight", c.sessionID)
	}
	return nil
}

func (c *Controller) transition(to Phase) error {
	from := Phase(c.session.Phase)
	if !CanTransition(from, to) {
		return fmt.Errorf("invalid phase transition %s -> %s", from, to)
	}
	c.session.SetPhase(string(to))
	c.logger.Info("workflow.phase.transition", "session_id", c.sessionID, "from", string(from), "to", string(to))
	return nil
}

// publish emits one status update to the sink and the session history.
func (c *Controller) publish(stage string, state core.StatusState, percent int, summary string) {
	update := core.StatusUpdate{
		Stage:     stage,
		State:     state,
		Percent:   percent,
		Summary:   summary,
		Timestamp: time.Now().UTC(),
	}
	c.session.AddStatus(update)
	c.sink.Publish(update)
}

func (c *Controller) save() {
	if err := c.store.Save(c.session); err != nil {
		c.logger.Error("workflow.session.save_failed", "session_id", c.sessionID, "error", err.Error())
	}
}

// GatherParameters runs the extractor over a strategy description and stores
// the validated parameters on the session. Only legal while the workflow is
// still in parameter gathering.
func (c *Controller) GatherParameters(ctx context.Context, description string) (core.SeasonParameters, error) {
	if err := c.acquire(); err != nil {
		return core.SeasonParameters{}, err
	}
	defer c.mu.Unlock()

	if Phase(c.session.Phase) != PhaseParameterGathering {
		return core.SeasonParameters{}, fmt.Errorf("parameters already confirmed for session %q", c.sessionID)
	}
	if c.extractor == nil {
		return core.SeasonParameters{}, fmt.Errorf("no extractor configured; use SetParameters")
	}

	params, err := c.extractor.ExtractParameters(ctx, description)
	if err != nil {
		c.publish("parameter_gathering", core.StateError, 0, "parameter extraction failed")
		return core.SeasonParameters{}, err
	}
	return c.setParams(params)
}

// SetParameters stores already-typed season parameters on the session,
// normalizing the derived end date and validating before accepting.
func (c *Controller) SetParameters(params core.SeasonParameters) (core.SeasonParameters, error) {
	if err := c.acquire(); err != nil {
		return core.SeasonParameters{}, err
	}
	defer c.mu.Unlock()

	if Phase(c.session.Phase) != PhaseParameterGathering {
		return core.SeasonParameters{}, fmt.Errorf("parameters already confirmed for session %q", c.sessionID)
	}
	return c.setParams(params)
}

func (c *Controller) setParams(params core.SeasonParameters) (core.SeasonParameters, error) {
	if params.EndDate.IsZero() {
		params.Normalize()
	}
	if err := params.Validate(); err != nil {
		c.publish("parameter_gathering", core.StateError, 0, err.Error())
		return core.SeasonParameters{}, err
	}
	c.session.SetParams(params)
	c.publish("parameter_gathering", core.StateComplete, 100, fmt.Sprintf("season parameters confirmed: %d weeks from %s", params.HorizonWeeks, params.StartDate.Format("2006-01-02")))
	c.save()
	return params, nil
}

// RunPreSeason executes the demand and inventory stages for one category and
// presents the opening plan to the confirmation gate. A modify verdict
// re-runs the inventory stage with the adjusted safety stock; approval
// commits the plan and moves the session into in-season monitoring.
func (c *Controller) RunPreSeason(ctx context.Context, categoryID string) (*core.WorkflowSession, error) {
	if err := c.acquire(); err != nil {
		return nil, err
	}
	defer c.mu.Unlock()

	if c.session.Params == nil {
		return nil, fmt.Errorf("session %q has no confirmed parameters", c.sessionID)
	}
	if err := c.transition(PhasePreSeasonForecast); err != nil {
		return nil, err
	}
	params := *c.session.Params
	c.categoryID = categoryID

	c.publish(StageDemand, core.StateStarted, 0, fmt.Sprintf("forecasting category %s over %d weeks", categoryID, params.HorizonWeeks))

	dc, err := c.assembler.DemandContext(ctx, categoryID, params)
	if err != nil {
		c.publish(StageDemand, core.StateError, 0, "input assembly failed")
		return nil, err
	}

	out, err := c.manager.Chain(ctx, []string{StageDemand, StageInventory}, dc)
	if err != nil {
		c.publish(StageInventory, core.StateError, 0, "pre-season run failed")
		c.save()
		return nil, err
	}
	inv, ok := out.(core.InventoryResult)
	if !ok {
		return nil, fmt.Errorf("pre-season chain returned unexpected result %T", out)
	}

	fc := inv.Context.Forecast
	plan := inv.Plan
	c.session.AddForecast(fc)
	c.session.AddPlan(plan)
	c.publish(StageInventory, core.StateProgress, 70, fmt.Sprintf("proposed plan: %d units, %d held at DC", plan.ManufacturingQty, plan.DCHoldbackUnits))

	for round := 0; ; round++ {
		approval, err := c.gate.Confirm(ctx, fc, plan)
		if err != nil {
			c.publish(StageInventory, core.StateError, 70, "confirmation gate failed")
			c.save()
			return nil, err
		}
		switch approval.Decision {
		case DecisionApprove:
			return c.commitPlan(params, plan)

		case DecisionModify:
			if round >= maxModifyRounds {
				c.save()
				return nil, fmt.Errorf("confirmation gate requested %d modify rounds without approving", round)
			}
			c.safetyStock = approval.SafetyStockPct
			ic := core.InventoryContext{
				Params:         params,
				Forecast:       fc,
				Clusters:       inv.Context.Clusters,
				Attributes:     inv.Context.Attributes,
				SafetyStockPct: approval.SafetyStockPct,
				MinPerEntity:   c.cfg.Allocation.MinPerEntity,
			}
			out, err := c.manager.Call(ctx, StageInventory, ic, 0)
			if err != nil {
				c.publish(StageInventory, core.StateError, 70, "re-allocation failed")
				c.save()
				return nil, err
			}
			inv = out.(core.InventoryResult)
			plan = inv.Plan
			c.session.AddPlan(plan)
			c.publish(StageInventory, core.StateProgress, 70, fmt.Sprintf("revised plan at %.0f%% safety stock: %d units", approval.SafetyStockPct*100, plan.ManufacturingQty))

		case DecisionReject:
			c.publish(StageInventory, core.StateError, 70, "opening plan rejected")
			c.save()
			return nil, fmt.Errorf("opening plan rejected by confirmation gate")

		default:
			return nil, fmt.Errorf("unknown gate decision %q", approval.Decision)
		}
	}
}

// commitPlan finalizes the approved opening plan and initializes the
// in-season state.
func (c *Controller) commitPlan(params core.SeasonParameters, plan core.AllocationPlan) (*core.WorkflowSession, error) {
	if err := c.transition(PhaseSeasonStartAllocation); err != nil {
		return nil, err
	}

	c.entityOnHand = make(map[string]int, len(plan.EntityAllocations))
	for _, ea := range plan.EntityAllocations {
		c.entityOnHand[ea.EntityID] = ea.Units
	}
	c.dcUnits = plan.DCHoldbackUnits
	c.observed = nil
	c.totalSold = 0
	c.curveOffset = 0
	c.priceAdjust = 0
	c.markdownDone = false

	if params.Replenishment.Cadence() == 0 {
		// The disabled phase is recorded once so the log shows the decision,
		// not an invocation.
		c.manager.Log().Append(core.ExecutionRecord{
			Stage:     StageReplenishment,
			StartTime: time.Now().UTC(),
			Status:    core.StatusSkipped,
			Detail:    "replenishment strategy is none",
		})
	}

	if err := c.transition(PhaseInSeasonMonitoring); err != nil {
		return nil, err
	}
	c.publish(StageInventory, core.StateComplete, 100, fmt.Sprintf("opening plan committed: %d units to %d stores", plan.StoreUnits(), len(plan.EntityAllocations)))
	c.save()
	return c.session.Clone(), nil
}

// ObserveWeek ingests one monitoring period's actuals and runs everything
// the period triggers: the variance check, the one-time markdown checkpoint,
// a conditional re-forecast and the replenishment cadence. The final period
// ends the season.
func (c *Controller) ObserveWeek(ctx context.Context, actuals WeekActuals) (WeekOutcome, error) {
	if err := c.acquire(); err != nil {
		return WeekOutcome{}, err
	}
	defer c.mu.Unlock()

	if Phase(c.session.Phase) != PhaseInSeasonMonitoring {
		return WeekOutcome{}, fmt.Errorf("session %q is in phase %s, not monitoring", c.sessionID, c.session.Phase)
	}
	if actuals.Total < 0 {
		return WeekOutcome{}, &core.ParameterValidationError{Field: "actuals", Reason: "weekly total must be non-negative"}
	}
	params := *c.session.Params

	week := len(c.observed) + 1
	c.observed = append(c.observed, actuals.Total)
	c.totalSold += actuals.Total
	for id, sold := range actuals.ByEntity {
		if onHand, ok := c.entityOnHand[id]; ok {
			if sold > onHand {
				sold = onHand
			}
			c.entityOnHand[id] = onHand - sold
		}
	}

	outcome := WeekOutcome{Week: week, Actual: actuals.Total}
	outcome.ForecastUnits = c.forecastForWeek(week)

	reforecast := false
	if outcome.ForecastUnits > 0 {
		diff := float64(actuals.Total - outcome.ForecastUnits)
		if diff < 0 {
			diff = -diff
		}
		outcome.Variance = diff / float64(outcome.ForecastUnits)
		reforecast = outcome.Variance > c.cfg.Monitoring.VarianceThreshold
	}
	if reforecast {
		c.logger.Warn("workflow.variance.exceeded", "session_id", c.sessionID, "week", week, "variance", outcome.Variance, "threshold", c.cfg.Monitoring.VarianceThreshold)
	}

	if params.MarkdownCheckpoint != nil && week == *params.MarkdownCheckpoint && !c.markdownDone {
		decision, err := c.runMarkdownCheckpoint(ctx, params, week)
		if err != nil {
			c.save()
			return outcome, err
		}
		outcome.Markdown = &decision
		if decision.Triggered {
			c.priceAdjust = decision.MarkdownPct
			reforecast = true
		}
		if err := c.leaveMarkdownPhase(reforecast); err != nil {
			return outcome, err
		}
	}

	if reforecast && week < params.HorizonWeeks {
		if err := c.runReforecast(ctx, params, week); err != nil {
			c.save()
			return outcome, err
		}
		outcome.Reforecast = true
	}

	if week == params.HorizonWeeks {
		if err := c.transition(PhaseSeasonEnd); err != nil {
			return outcome, err
		}
		outcome.SeasonEnded = true
		c.publish("season_end", core.StateComplete, 100, fmt.Sprintf("season closed after %d weeks, %d units sold", week, c.totalSold))
		c.save()
		return outcome, nil
	}

	if cadence := params.Replenishment.Cadence(); cadence > 0 && week%cadence == 0 {
		queue, err := c.runReplenishment(ctx, week, params.HorizonWeeks)
		if err != nil {
			c.save()
			return outcome, err
		}
		outcome.Replenishment = queue
	}

	c.save()
	return outcome, nil
}

// forecastForWeek returns the latest forecast's units for a season week, or
// 0 when the week is outside the current curve.
func (c *Controller) forecastForWeek(week int) int {
	fc, ok := c.session.LatestForecast()
	if !ok {
		return 0
	}
	idx := week - 1 - c.curveOffset
	if idx < 0 || idx >= len(fc.WeeklyCurve) {
		return 0
	}
	return fc.WeeklyCurve[idx]
}

// remainingForecast sums the latest curve strictly after the given week.
func (c *Controller) remainingForecast(week int) float64 {
	fc, ok := c.session.LatestForecast()
	if !ok {
		return 0
	}
	start := week - c.curveOffset
	if start < 0 {
		start = 0
	}
	total := 0.0
	for idx := start; idx < len(fc.WeeklyCurve); idx++ {
		total += float64(fc.WeeklyCurve[idx])
	}
	return total
}

// runMarkdownCheckpoint invokes the pricing stage once at the checkpoint
// week and records the decision.
func (c *Controller) runMarkdownCheckpoint(ctx context.Context, params core.SeasonParameters, week int) (core.MarkdownDecision, error) {
	if err := c.transition(PhaseMidSeasonMarkdown); err != nil {
		return core.MarkdownDecision{}, err
	}
	c.publish(StagePricing, core.StateStarted, 0, fmt.Sprintf("markdown checkpoint at week %d", week))

	plan, ok := c.session.LatestPlan()
	if !ok {
		return core.MarkdownDecision{}, fmt.Errorf("no allocation plan to evaluate markdown against")
	}
	pc := core.PricingContext{
		Params:            params,
		CheckpointWeek:    week,
		TotalManufactured: plan.ManufacturingQty,
		TotalSoldToDate:   c.totalSold,
		TargetSellThrough: *params.MarkdownThreshold,
		Elasticity:        c.cfg.Markdown.Elasticity,
	}
	out, err := c.manager.Call(ctx, StagePricing, pc, 0)
	if err != nil {
		c.publish(StagePricing, core.StateError, 0, "markdown evaluation failed")
		return core.MarkdownDecision{}, err
	}
	decision := out.(core.PricingResult).Decision
	c.session.AddMarkdown(decision)
	c.markdownDone = true

	summary := fmt.Sprintf("sell-through %.1f%% vs target %.1f%%: no markdown", decision.SellThroughActual*100, decision.Target*100)
	if decision.Triggered {
		summary = fmt.Sprintf("sell-through %.1f%% vs target %.1f%%: %.0f%% markdown", decision.SellThroughActual*100, decision.Target*100, decision.MarkdownPct*100)
	}
	c.publish(StagePricing, core.StateComplete, 100, summary)
	return decision, nil
}

func (c *Controller) leaveMarkdownPhase(reforecast bool) error {
	if reforecast {
		return c.transition(PhaseConditionalReforecast)
	}
	return c.transition(PhaseInSeasonMonitoring)
}

// runReforecast produces a superseding forecast version from the historical
// totals extended by the observed weeks, scaled by any applied markdown.
func (c *Controller) runReforecast(ctx context.Context, params core.SeasonParameters, week int) error {
	if Phase(c.session.Phase) == PhaseInSeasonMonitoring {
		if err := c.transition(PhaseConditionalReforecast); err != nil {
			return err
		}
	}
	c.publish(StageDemand, core.StateStarted, 0, fmt.Sprintf("re-forecasting from week %d", week))

	dc, err := c.assembler.DemandContext(ctx, c.categoryID, params)
	if err != nil {
		c.publish(StageDemand, core.StateError, 0, "input assembly failed")
		return err
	}
	dc.ObservedWeeks = append([]int(nil), c.observed...)
	dc.PriceAdjustmentPct = c.priceAdjust

	out, err := c.manager.Call(ctx, StageDemand, dc, 0)
	if err != nil {
		c.publish(StageDemand, core.StateError, 0, "re-forecast failed")
		return err
	}
	result := out.(core.DemandResult)
	c.session.AddForecast(result.Forecast)
	c.curveOffset = week

	if err := c.transition(PhaseInSeasonMonitoring); err != nil {
		return err
	}
	c.publish(StageDemand, core.StateComplete, 100, fmt.Sprintf("forecast superseded: %d units over %d remaining weeks", result.Forecast.EnsembleTotal, len(result.Forecast.WeeklyCurve)))
	return nil
}

// runReplenishment invokes the replenishment stage for one period and
// applies the shipment to the store and DC inventories.
func (c *Controller) runReplenishment(ctx context.Context, week, horizonWeeks int) ([]core.ReplenishmentQueueItem, error) {
	onHand := make(map[string]int, len(c.entityOnHand))
	for id, units := range c.entityOnHand {
		onHand[id] = units
	}
	rc := core.ReplenishmentContext{
		PeriodIndex:      week,
		RemainingTotal:   c.remainingForecast(week),
		PeriodsRemaining: horizonWeeks - week,
		EntityOnHand:     onHand,
		DCUnits:          c.dcUnits,
	}
	out, err := c.manager.Call(ctx, StageReplenishment, rc, 0)
	if err != nil {
		c.publish(StageReplenishment, core.StateError, 0, "replenishment planning failed")
		return nil, err
	}
	result := out.(core.ReplenishmentResult)
	c.dcUnits = result.DCUnitsRemaining

	shipped := 0
	for _, item := range result.Queue {
		c.entityOnHand[item.EntityID] += item.Needed
		shipped += item.Needed
	}
	c.publish(StageReplenishment, core.StateComplete, 100, fmt.Sprintf("week %d: %d units shipped, %d left at DC", week, shipped, c.dcUnits))
	return result.Queue, nil
}
