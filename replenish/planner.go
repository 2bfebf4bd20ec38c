// Package replenish computes the periodic top-up each store needs from DC
// holdback: the remaining forecast spread over the remaining periods, minus
// what the store already has on hand. When the workflow's strategy forbids
// replenishment this package is never invoked at all; the controller skips
// the phase rather than calling it with empty input.
package replenish

import (
	"fmt"
	"math"
	"sort"

	"github.com/hupe1980/seasonflow/core"
	"github.com/hupe1980/seasonflow/logging"
)

// Options configures a Planner.
type Options struct {
	// Logger provides structured logging. Defaults to NoOp.
	Logger logging.Logger
}

// Planner computes per-period replenishment queues. Stateless between calls.
type Planner struct {
	logger logging.Logger
}

// New creates a Planner with optional overrides.
func New(optFns ...func(o *Options)) *Planner {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Planner{logger: opts.Logger}
}

// PlanPeriod computes the replenishment queue for one monitoring period.
// Entities are served in ascending id order; when DC inventory runs out the
// remaining need ships partially with DCAvailable=false so the caller can
// surface a warning instead of silently under-promising. Returns the queue
// and the DC units left after shipping.
func (p *Planner) PlanPeriod(periodIndex int, remainingTotal float64, periodsRemaining int, entityOnHand map[string]int, dcUnits int) ([]core.ReplenishmentQueueItem, int, error) {
	if periodsRemaining <= 0 {
		return nil, dcUnits, fmt.Errorf("periods_remaining must be positive, got %d", periodsRemaining)
	}
	if remainingTotal < 0 {
		remainingTotal = 0
	}

	ids := make([]string, 0, len(entityOnHand))
	for id := range entityOnHand {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	// Per-period demand target shared by every entity: the remaining
	// forecast spread evenly over the remaining periods.
	periodTarget := remainingTotal / float64(periodsRemaining)

	queue := make([]core.ReplenishmentQueueItem, 0, len(ids))
	shortfall := 0
	for _, id := range ids {
		onHand := entityOnHand[id]
		need := int(math.Round(math.Max(0, periodTarget-float64(onHand))))
		item := core.ReplenishmentQueueItem{
			EntityID:         id,
			CurrentInventory: onHand,
			Needed:           need,
			DCAvailable:      true,
		}
		if need > dcUnits {
			item.Needed = dcUnits
			item.DCAvailable = false
			shortfall += need - dcUnits
		}
		dcUnits -= item.Needed
		queue = append(queue, item)
	}

	if shortfall > 0 {
		p.logger.Warn("replenish.plan.dc_short", "period", periodIndex, "shortfall_units", shortfall)
	}
	p.logger.Debug("replenish.plan.complete", "period", periodIndex, "entities", len(queue), "dc_remaining", dcUnits)
	return queue, dcUnits, nil
}
