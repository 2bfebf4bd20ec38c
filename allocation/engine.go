package allocation

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/hupe1980/seasonflow/core"
	"github.com/hupe1980/seasonflow/logging"
)

// Blend weights for the entity layer: how much of an entity's slice comes
// from its trailing sales versus its capacity score.
const (
	historicalWeight = 0.7
	capacityWeight   = 0.3
)

// Options configures an Engine.
type Options struct {
	// MinPerEntity floors every entity allocation. Zero disables the floor.
	MinPerEntity int

	// Logger provides structured logging. Defaults to NoOp.
	Logger logging.Logger
}

// Engine performs the two-layer hierarchical allocation. Stateless between
// calls and safe for concurrent use.
type Engine struct {
	minPerEntity int
	logger       logging.Logger
}

// New creates an Engine with optional overrides.
func New(optFns ...func(o *Options)) *Engine {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Engine{minPerEntity: opts.MinPerEntity, logger: opts.Logger}
}

// Allocate splits total units across the clustered entities. The holdback
// is carved off first; the two-layer allocation operates on what remains.
func (e *Engine) Allocate(total int, clusters core.ClusterAssignment, attrs core.AttributeTable, holdbackPct float64) (core.AllocationPlan, error) {
	if total < 0 {
		return core.AllocationPlan{}, &core.ParameterValidationError{Field: "total", Reason: fmt.Sprintf("must be non-negative, got %d", total)}
	}
	if holdbackPct < 0 || holdbackPct > 1 {
		return core.AllocationPlan{}, &core.ParameterValidationError{Field: "holdback_pct", Reason: fmt.Sprintf("must be in [0,1], got %g", holdbackPct)}
	}
	if err := clusters.ValidateShares(); err != nil {
		return core.AllocationPlan{}, err
	}
	start := time.Now()

	holdback := int(math.Round(float64(total) * holdbackPct))
	available := total - holdback

	plan := core.AllocationPlan{
		Version:          core.NewID(),
		ManufacturingQty: total,
		DCHoldbackUnits:  holdback,
		CreatedAt:        time.Now().UTC(),
	}

	// Segment layer: shares of the available units, exact by construction.
	segIDs := make([]string, len(clusters.Segments))
	segWeights := make([]float64, len(clusters.Segments))
	for i, seg := range clusters.Segments {
		segIDs[i] = fmt.Sprintf("%d", seg.SegmentID)
		segWeights[i] = seg.SharePct
	}
	segUnits := largestRemainder(available, segWeights, segIDs)

	segTotal := 0
	for i, seg := range clusters.Segments {
		plan.SegmentAllocations = append(plan.SegmentAllocations, core.SegmentAllocation{
			SegmentID: seg.SegmentID,
			Label:     seg.Label,
			Units:     segUnits[i],
		})
		segTotal += segUnits[i]
	}
	if segTotal != available {
		return core.AllocationPlan{}, &core.AllocationConservationError{Layer: "segment", Want: available, Got: segTotal}
	}

	// Entity layer inside each segment.
	for i, seg := range clusters.Segments {
		entityAllocs, err := e.allocateSegment(segUnits[i], seg.SegmentID, clusters, attrs)
		if err != nil {
			return core.AllocationPlan{}, err
		}
		plan.EntityAllocations = append(plan.EntityAllocations, entityAllocs...)
	}
	sort.Slice(plan.EntityAllocations, func(i, j int) bool {
		return plan.EntityAllocations[i].EntityID < plan.EntityAllocations[j].EntityID
	})

	if err := plan.Validate(); err != nil {
		return core.AllocationPlan{}, err
	}
	e.logger.Info("allocation.complete", "manufacturing_qty", total, "dc_holdback_units", holdback, "entities", len(plan.EntityAllocations), "duration_ms", time.Since(start).Milliseconds())
	return plan, nil
}

// allocateSegment splits one segment's units across its entities using the
// blended historical/capacity factor, then enforces the per-entity floor
// while keeping the segment total exact.
func (e *Engine) allocateSegment(segmentUnits, segmentID int, clusters core.ClusterAssignment, attrs core.AttributeTable) ([]core.EntityAllocation, error) {
	ids := clusters.Entities(segmentID)
	sort.Strings(ids)
	if len(ids) == 0 {
		if segmentUnits > 0 {
			return nil, fmt.Errorf("segment %d has %d units but no entities", segmentID, segmentUnits)
		}
		return nil, nil
	}
	if e.minPerEntity*len(ids) > segmentUnits {
		return nil, &core.ParameterValidationError{
			Field:  "min_per_entity",
			Reason: fmt.Sprintf("segment %d cannot floor %d entities at %d units each within %d units", segmentID, len(ids), e.minPerEntity, segmentUnits),
		}
	}

	histTotal, capTotal := 0.0, 0.0
	rows := make(map[string]core.EntityRow, len(ids))
	for _, id := range ids {
		row, ok := attrs.Row(id)
		if !ok {
			return nil, fmt.Errorf("entity %q assigned to segment %d has no attribute row", id, segmentID)
		}
		rows[id] = row
		histTotal += row.TrailingSalesRate
		capTotal += row.CapacityScore
	}

	factors := make([]float64, len(ids))
	even := 1.0 / float64(len(ids))
	for i, id := range ids {
		row := rows[id]
		histShare, capShare := even, even
		if histTotal > 0 {
			histShare = row.TrailingSalesRate / histTotal
		}
		if capTotal > 0 {
			capShare = row.CapacityScore / capTotal
		}
		factors[i] = historicalWeight*histShare + capacityWeight*capShare
	}

	units := largestRemainder(segmentUnits, factors, ids)
	units = applyFloor(units, ids, e.minPerEntity)

	allocs := make([]core.EntityAllocation, len(ids))
	got := 0
	for i, id := range ids {
		allocs[i] = core.EntityAllocation{
			EntityID:         id,
			SegmentID:        segmentID,
			Units:            units[i],
			AllocationFactor: factors[i],
		}
		got += units[i]
	}
	if got != segmentUnits {
		return nil, &core.AllocationConservationError{Layer: "entity", Want: segmentUnits, Got: got}
	}
	return allocs, nil
}

// largestRemainder apportions total across weights: proportional targets are
// floored, then leftover units go to the largest fractional remainders, ties
// broken by ascending id. Weights are normalized internally; an all-zero
// weight vector falls back to an even split.
func largestRemainder(total int, weights []float64, ids []string) []int {
	n := len(weights)
	out := make([]int, n)
	if n == 0 || total == 0 {
		return out
	}

	wTotal := 0.0
	for _, w := range weights {
		wTotal += w
	}

	type slice struct {
		idx  int
		id   string
		frac float64
	}
	slices := make([]slice, n)
	assigned := 0
	for i := range weights {
		share := 1.0 / float64(n)
		if wTotal > 0 {
			share = weights[i] / wTotal
		}
		target := share * float64(total)
		out[i] = int(math.Floor(target))
		assigned += out[i]
		slices[i] = slice{idx: i, id: ids[i], frac: target - math.Floor(target)}
	}
	sort.Slice(slices, func(i, j int) bool {
		if slices[i].frac != slices[j].frac {
			return slices[i].frac > slices[j].frac
		}
		return slices[i].id < slices[j].id
	})
	for k := 0; k < total-assigned; k++ {
		out[slices[k%n].idx]++
	}
	return out
}

// applyFloor raises allocations below the minimum and reclaims the excess
// from the largest allocations (never dropping any below the floor), so the
// segment total is preserved exactly. Caller guarantees feasibility.
func applyFloor(units []int, ids []string, minPerEntity int) []int {
	if minPerEntity <= 0 {
		return units
	}
	excess := 0
	for i := range units {
		if units[i] < minPerEntity {
			excess += minPerEntity - units[i]
			units[i] = minPerEntity
		}
	}
	for excess > 0 {
		// Take one unit from the current largest allocation above the floor;
		// ties resolved by ascending id for determinism.
		best := -1
		for i := range units {
			if units[i] <= minPerEntity {
				continue
			}
			if best == -1 || units[i] > units[best] || (units[i] == units[best] && ids[i] < ids[best]) {
				best = i
			}
		}
		if best == -1 {
			break
		}
		units[best]--
		excess--
	}
	return units
}
