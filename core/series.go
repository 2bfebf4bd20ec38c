package core

import (
	"fmt"
	"sort"
	"time"
)

// MinHistoryPeriods is the minimum number of weekly periods a series must
// cover before the forecaster will accept it.
const MinHistoryPeriods = 52

// SeriesPoint is one observed row of category demand: units sold by one
// entity (store) in one weekly period.
type SeriesPoint struct {
	Date       time.Time `json:"date"`
	EntityID   string    `json:"entity_id"`
	CategoryID string    `json:"category_id"`
	Quantity   int       `json:"quantity"`
}

// HistoricalSeries is an ordered sequence of weekly demand observations for
// a single category across all entities.
type HistoricalSeries []SeriesPoint

// Validate checks the series covers at least MinHistoryPeriods distinct
// weekly periods and contains no negative quantities.
func (h HistoricalSeries) Validate(key string) error {
	if len(h) == 0 {
		return &DataNotFoundError{Resource: "historical series", Key: key}
	}
	for _, pt := range h {
		if pt.Quantity < 0 {
			return fmt.Errorf("historical series %q contains negative quantity at %s", key, pt.Date.Format("2006-01-02"))
		}
	}
	if n := h.Periods(); n < MinHistoryPeriods {
		return &InsufficientHistoryError{Key: key, Periods: n, Required: MinHistoryPeriods}
	}
	return nil
}

// Periods returns the number of distinct weekly periods covered.
func (h HistoricalSeries) Periods() int {
	weeks := map[time.Time]struct{}{}
	for _, pt := range h {
		weeks[weekStart(pt.Date)] = struct{}{}
	}
	return len(weeks)
}

// WeeklyTotals aggregates quantities per weekly period in chronological
// order, summing across entities.
func (h HistoricalSeries) WeeklyTotals() []float64 {
	byWeek := map[time.Time]float64{}
	for _, pt := range h {
		byWeek[weekStart(pt.Date)] += float64(pt.Quantity)
	}
	weeks := make([]time.Time, 0, len(byWeek))
	for w := range byWeek {
		weeks = append(weeks, w)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Before(weeks[j]) })
	totals := make([]float64, len(weeks))
	for i, w := range weeks {
		totals[i] = byWeek[w]
	}
	return totals
}

// TotalsByEntity sums historical quantities per entity across the full series.
func (h HistoricalSeries) TotalsByEntity() map[string]float64 {
	totals := map[string]float64{}
	for _, pt := range h {
		totals[pt.EntityID] += float64(pt.Quantity)
	}
	return totals
}

// weekStart truncates a date to the Monday of its ISO week so observations
// logged on different weekdays land in the same period bucket.
func weekStart(t time.Time) time.Time {
	t = t.UTC().Truncate(24 * time.Hour)
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}

// EntityRow holds the fixed attribute set for one entity (store). Numeric
// fields feed clustering and allocation; Format and Region are categorical
// and carried for display only.
type EntityRow struct {
	EntityID          string  `json:"entity_id"`
	CapacityScore     float64 `json:"capacity_score"`
	IncomeIndex       float64 `json:"income_index"`
	Tier              int     `json:"tier"`
	Format            string  `json:"format"`
	Region            string  `json:"region"`
	TrailingSalesRate float64 `json:"trailing_sales_rate"`
}

// AttributeTable is one row per entity. The workflow treats the entity set
// as closed: every row complete, exactly the expected count.
type AttributeTable []EntityRow

// Validate checks completeness. expectedCount <= 0 skips the count check.
func (t AttributeTable) Validate(expectedCount int) error {
	if len(t) == 0 {
		return &DataNotFoundError{Resource: "entity attributes", Key: "all"}
	}
	if expectedCount > 0 && len(t) != expectedCount {
		return fmt.Errorf("entity attributes: expected %d entities, got %d", expectedCount, len(t))
	}
	seen := map[string]struct{}{}
	for _, row := range t {
		if row.EntityID == "" {
			return fmt.Errorf("entity attributes: row with empty entity_id")
		}
		if _, dup := seen[row.EntityID]; dup {
			return fmt.Errorf("entity attributes: duplicate entity_id %q", row.EntityID)
		}
		seen[row.EntityID] = struct{}{}
		if row.CapacityScore < 0 || row.TrailingSalesRate < 0 {
			return fmt.Errorf("entity attributes: negative feature for entity %q", row.EntityID)
		}
	}
	return nil
}

// Row returns the attribute row for an entity.
func (t AttributeTable) Row(entityID string) (EntityRow, bool) {
	for _, row := range t {
		if row.EntityID == entityID {
			return row, true
		}
	}
	return EntityRow{}, false
}

// EntityIDs returns all entity identifiers in sorted order.
func (t AttributeTable) EntityIDs() []string {
	ids := make([]string, len(t))
	for i, row := range t {
		ids[i] = row.EntityID
	}
	sort.Strings(ids)
	return ids
}
