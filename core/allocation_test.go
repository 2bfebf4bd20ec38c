package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocationPlanValidate(t *testing.T) {
	plan := AllocationPlan{
		ManufacturingQty: 100,
		DCHoldbackUnits:  20,
		SegmentAllocations: []SegmentAllocation{
			{SegmentID: 0, Units: 50},
			{SegmentID: 1, Units: 30},
		},
		EntityAllocations: []EntityAllocation{
			{EntityID: "a", SegmentID: 0, Units: 50},
			{EntityID: "b", SegmentID: 1, Units: 30},
		},
	}
	require.NoError(t, plan.Validate())
	assert.Equal(t, 80, plan.StoreUnits())
	assert.Equal(t, 50, plan.UnitsFor("a"))
	assert.Equal(t, 0, plan.UnitsFor("missing"))
}

func TestAllocationPlanValidateLostUnits(t *testing.T) {
	plan := AllocationPlan{
		ManufacturingQty:   100,
		DCHoldbackUnits:    20,
		SegmentAllocations: []SegmentAllocation{{SegmentID: 0, Units: 79}},
		EntityAllocations:  []EntityAllocation{{EntityID: "a", Units: 79}},
	}
	err := plan.Validate()
	var cerr *AllocationConservationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "segment", cerr.Layer)
	assert.Equal(t, 80, cerr.Want)
	assert.Equal(t, 79, cerr.Got)
}

func TestExecutionLogAppendOnly(t *testing.T) {
	log := NewExecutionLog()
	log.Append(ExecutionRecord{Stage: "demand", Status: StatusSuccess})
	log.Append(ExecutionRecord{Stage: "pricing", Status: StatusFailed, Detail: "boom"})
	log.Append(ExecutionRecord{Stage: "demand", Status: StatusTimeout})

	assert.Equal(t, 3, log.Len())
	assert.Len(t, log.ByStage("demand"), 2)

	// Mutating the returned copy must not affect the log.
	records := log.Records()
	records[0].Stage = "mutated"
	assert.Equal(t, "demand", log.Records()[0].Stage)
}
