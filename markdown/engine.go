// Package markdown evaluates mid-season sell-through against the target and
// computes a bounded, formula-driven price discount: the shortfall gap times
// elasticity, rounded to the nearest five percentage points and capped.
//
// The discount is applied uniformly across all segments; per-segment
// differentiation is a possible future extension. Percentage arithmetic runs
// on decimals so the 5-point rounding is exact.
package markdown

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hupe1980/seasonflow/core"
	"github.com/hupe1980/seasonflow/logging"
)

// MaxMarkdownPct caps any computed discount.
const MaxMarkdownPct = 0.40

// roundStep is the markdown granularity: discounts land on 5-point steps.
var roundStep = decimal.NewFromFloat(0.05)

// Options configures an Engine.
type Options struct {
	// Cap bounds the computed discount. Defaults to MaxMarkdownPct.
	Cap float64

	// Logger provides structured logging. Defaults to NoOp.
	Logger logging.Logger
}

// Engine computes markdown decisions. Stateless between calls.
type Engine struct {
	cap    decimal.Decimal
	logger logging.Logger
}

// New creates an Engine with optional overrides.
func New(optFns ...func(o *Options)) *Engine {
	opts := Options{Cap: MaxMarkdownPct, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Engine{cap: decimal.NewFromFloat(opts.Cap), logger: opts.Logger}
}

// Evaluate compares actual sell-through against the target at a checkpoint.
// A non-positive gap means the season is ahead of plan: the decision is not
// triggered and the markdown is zero. Otherwise the discount is
// gap × elasticity rounded to the nearest 5 points and capped.
func (e *Engine) Evaluate(checkpointWeek, totalManufactured, totalSoldToDate int, targetSellThrough, elasticity float64) (core.MarkdownDecision, error) {
	if totalManufactured <= 0 {
		return core.MarkdownDecision{}, &core.ParameterValidationError{Field: "total_manufactured", Reason: fmt.Sprintf("must be positive, got %d", totalManufactured)}
	}
	if totalSoldToDate < 0 {
		return core.MarkdownDecision{}, &core.ParameterValidationError{Field: "total_sold_to_date", Reason: fmt.Sprintf("must be non-negative, got %d", totalSoldToDate)}
	}
	if targetSellThrough <= 0 || targetSellThrough > 1 {
		return core.MarkdownDecision{}, &core.ParameterValidationError{Field: "target_sell_through", Reason: fmt.Sprintf("must be in (0,1], got %g", targetSellThrough)}
	}
	if elasticity <= 0 {
		return core.MarkdownDecision{}, &core.ParameterValidationError{Field: "elasticity", Reason: fmt.Sprintf("must be positive, got %g", elasticity)}
	}

	sellThrough := decimal.NewFromInt(int64(totalSoldToDate)).Div(decimal.NewFromInt(int64(totalManufactured)))
	target := decimal.NewFromFloat(targetSellThrough)
	gap := target.Sub(sellThrough)

	decision := core.MarkdownDecision{
		Version:           core.NewID(),
		CheckpointWeek:    checkpointWeek,
		SellThroughActual: sellThrough.InexactFloat64(),
		Target:            targetSellThrough,
		Gap:               gap.InexactFloat64(),
		Elasticity:        elasticity,
		CreatedAt:         time.Now().UTC(),
	}

	if gap.LessThanOrEqual(decimal.Zero) {
		e.logger.Info("markdown.evaluate.ahead_of_plan", "checkpoint_week", checkpointWeek, "sell_through", decision.SellThroughActual, "target", targetSellThrough)
		return decision, nil
	}

	raw := gap.Mul(decimal.NewFromFloat(elasticity))
	pct := raw.Div(roundStep).Round(0).Mul(roundStep)
	if pct.GreaterThan(e.cap) {
		pct = e.cap
	}

	decision.MarkdownPct = pct.InexactFloat64()
	decision.Triggered = decision.MarkdownPct > 0
	e.logger.Info("markdown.evaluate.triggered", "checkpoint_week", checkpointWeek, "gap", decision.Gap, "markdown_pct", decision.MarkdownPct)
	return decision, nil
}
