package assemble

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/seasonflow/core"
)

func seededLoader(weeks int) *InMemoryLoader {
	loader := NewInMemoryLoader()
	start := time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC)
	var series core.HistoricalSeries
	for w := 0; w < weeks; w++ {
		series = append(series, core.SeriesPoint{
			Date: start.AddDate(0, 0, w*7), EntityID: "store-001", CategoryID: "knitwear", Quantity: 25,
		})
	}
	loader.PutHistory("knitwear", series)
	loader.PutAttributes(core.AttributeTable{
		{EntityID: "store-001", CapacityScore: 0.9, TrailingSalesRate: 100},
		{EntityID: "store-002", CapacityScore: 0.5, TrailingSalesRate: 60},
	})
	return loader
}

func testParams() core.SeasonParameters {
	p := core.SeasonParameters{
		HorizonWeeks:  12,
		StartDate:     time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		Replenishment: core.ReplenishmentNone,
	}
	p.Normalize()
	return p
}

func TestDemandContextAssembly(t *testing.T) {
	a := New(seededLoader(60))
	dc, err := a.DemandContext(context.Background(), "knitwear", testParams())
	require.NoError(t, err)

	assert.Equal(t, "knitwear", dc.CategoryID)
	assert.Equal(t, 60, dc.History.Periods())
	assert.Len(t, dc.Attributes, 2)
	assert.Equal(t, 2.0, dc.Elasticity)
	assert.Empty(t, dc.ObservedWeeks)
}

func TestDemandContextUnknownCategory(t *testing.T) {
	a := New(seededLoader(60))
	_, err := a.DemandContext(context.Background(), "footwear", testParams())
	var nerr *core.DataNotFoundError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, "footwear", nerr.Key)
}

func TestDemandContextInsufficientHistory(t *testing.T) {
	a := New(seededLoader(20))
	_, err := a.DemandContext(context.Background(), "knitwear", testParams())
	var ierr *core.InsufficientHistoryError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, 20, ierr.Periods)
}

func TestDemandContextMissingAttributes(t *testing.T) {
	loader := NewInMemoryLoader()
	loader.PutHistory("knitwear", seededLoader(60).history["knitwear"])

	a := New(loader)
	_, err := a.DemandContext(context.Background(), "knitwear", testParams())
	var nerr *core.DataNotFoundError
	require.ErrorAs(t, err, &nerr)
}

func TestLoaderReturnsCopies(t *testing.T) {
	loader := seededLoader(60)
	attrs, err := loader.Attributes(context.Background())
	require.NoError(t, err)

	attrs[0].EntityID = "mutated"
	fresh, err := loader.Attributes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "store-001", fresh[0].EntityID)
}
