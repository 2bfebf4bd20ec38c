package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weeklySeries(weeks int) HistoricalSeries {
	start := time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC) // a Monday
	var series HistoricalSeries
	for w := 0; w < weeks; w++ {
		series = append(series,
			SeriesPoint{Date: start.AddDate(0, 0, w*7), EntityID: "a", CategoryID: "knitwear", Quantity: 10},
			SeriesPoint{Date: start.AddDate(0, 0, w*7+2), EntityID: "b", CategoryID: "knitwear", Quantity: 5},
		)
	}
	return series
}

func TestHistoricalSeriesWeeklyTotals(t *testing.T) {
	series := weeklySeries(60)
	require.NoError(t, series.Validate("knitwear"))
	assert.Equal(t, 60, series.Periods())

	totals := series.WeeklyTotals()
	require.Len(t, totals, 60)
	for _, v := range totals {
		// Wednesday observations land in the same bucket as the Monday ones.
		assert.Equal(t, 15.0, v)
	}

	byEntity := series.TotalsByEntity()
	assert.Equal(t, 600.0, byEntity["a"])
	assert.Equal(t, 300.0, byEntity["b"])
}

func TestHistoricalSeriesValidate(t *testing.T) {
	var ierr *InsufficientHistoryError
	err := weeklySeries(10).Validate("knitwear")
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, 10, ierr.Periods)
	assert.Equal(t, MinHistoryPeriods, ierr.Required)

	var nerr *DataNotFoundError
	require.ErrorAs(t, HistoricalSeries(nil).Validate("missing"), &nerr)

	bad := weeklySeries(60)
	bad[0].Quantity = -1
	assert.Error(t, bad.Validate("knitwear"))
}

func TestAttributeTableValidate(t *testing.T) {
	attrs := AttributeTable{
		{EntityID: "a", CapacityScore: 0.5, TrailingSalesRate: 10},
		{EntityID: "b", CapacityScore: 0.6, TrailingSalesRate: 12},
	}
	require.NoError(t, attrs.Validate(0))
	require.NoError(t, attrs.Validate(2))
	assert.Error(t, attrs.Validate(3))
	assert.Equal(t, []string{"a", "b"}, attrs.EntityIDs())

	dup := append(attrs, EntityRow{EntityID: "a"})
	assert.Error(t, dup.Validate(0))
}
