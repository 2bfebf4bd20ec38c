package core

import "time"

// SegmentAllocation is the segment-layer slice of a manufactured total.
type SegmentAllocation struct {
	SegmentID int    `json:"segment_id"`
	Label     string `json:"label"`
	Units     int    `json:"units"`
}

// EntityAllocation is the entity-layer slice within a segment. The
// AllocationFactor records the blended historical/capacity weight the units
// were derived from, before rounding and floor corrections.
type EntityAllocation struct {
	EntityID         string  `json:"entity_id"`
	SegmentID        int     `json:"segment_id"`
	Units            int     `json:"units"`
	AllocationFactor float64 `json:"allocation_factor"`
}

// AllocationPlan converts one scalar manufactured total into a tree of
// quantities: DC holdback, segment slices and per-entity units. Immutable
// once created; re-allocation supersedes with a new Version.
//
// Invariant: sum(EntityAllocations.Units) + DCHoldbackUnits == ManufacturingQty
// exactly. Rounding drift is corrected deterministically, never dropped.
type AllocationPlan struct {
	Version            string             `json:"version"`
	ManufacturingQty   int                `json:"manufacturing_qty"`
	DCHoldbackUnits    int                `json:"dc_holdback_units"`
	SegmentAllocations []SegmentAllocation `json:"segment_allocations"`
	EntityAllocations  []EntityAllocation  `json:"entity_allocations"`
	CreatedAt          time.Time          `json:"created_at"`
}

// StoreUnits sums the entity-layer units.
func (p AllocationPlan) StoreUnits() int {
	total := 0
	for _, ea := range p.EntityAllocations {
		total += ea.Units
	}
	return total
}

// SegmentUnits sums the segment-layer units.
func (p AllocationPlan) SegmentUnits() int {
	total := 0
	for _, sa := range p.SegmentAllocations {
		total += sa.Units
	}
	return total
}

// Validate checks unit conservation at both layer boundaries. A mismatch is
// an *AllocationConservationError and must be treated as fatal.
func (p AllocationPlan) Validate() error {
	available := p.ManufacturingQty - p.DCHoldbackUnits
	if got := p.SegmentUnits(); got != available {
		return &AllocationConservationError{Layer: "segment", Want: available, Got: got}
	}
	if got := p.StoreUnits(); got != available {
		return &AllocationConservationError{Layer: "entity", Want: available, Got: got}
	}
	return nil
}

// UnitsFor returns the allocated units for an entity, 0 if absent.
func (p AllocationPlan) UnitsFor(entityID string) int {
	for _, ea := range p.EntityAllocations {
		if ea.EntityID == entityID {
			return ea.Units
		}
	}
	return 0
}
