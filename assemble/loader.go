package assemble

import (
	"context"
	"sync"

	"github.com/hupe1980/seasonflow/core"
)

// Loader supplies the raw tables a demand cycle is assembled from.
// Implementations should return core.DataNotFoundError when a key is unknown
// so callers can distinguish a wrong key from an empty result.
type Loader interface {
	// History returns the full demand series for one category.
	History(ctx context.Context, categoryID string) (core.HistoricalSeries, error)

	// Attributes returns the attribute table for the closed entity set.
	Attributes(ctx context.Context) (core.AttributeTable, error)
}

// InMemoryLoader is a map-backed Loader for tests, examples and small
// deployments. Safe for concurrent use. Reads return copies so callers
// cannot mutate the stored tables.
type InMemoryLoader struct {
	mu      sync.RWMutex
	history map[string]core.HistoricalSeries
	attrs   core.AttributeTable
}

var _ Loader = (*InMemoryLoader)(nil)

// NewInMemoryLoader creates an empty loader.
func NewInMemoryLoader() *InMemoryLoader {
	return &InMemoryLoader{history: map[string]core.HistoricalSeries{}}
}

// PutHistory stores the demand series for a category, replacing any existing
// series under the same id.
func (l *InMemoryLoader) PutHistory(categoryID string, series core.HistoricalSeries) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.history[categoryID] = append(core.HistoricalSeries(nil), series...)
}

// PutAttributes stores the entity attribute table.
func (l *InMemoryLoader) PutAttributes(attrs core.AttributeTable) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attrs = append(core.AttributeTable(nil), attrs...)
}

// History implements Loader.
func (l *InMemoryLoader) History(_ context.Context, categoryID string) (core.HistoricalSeries, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	series, ok := l.history[categoryID]
	if !ok {
		return nil, &core.DataNotFoundError{Resource: "historical series", Key: categoryID}
	}
	return append(core.HistoricalSeries(nil), series...), nil
}

// Attributes implements Loader.
func (l *InMemoryLoader) Attributes(_ context.Context) (core.AttributeTable, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.attrs) == 0 {
		return nil, &core.DataNotFoundError{Resource: "entity attributes", Key: "all"}
	}
	return append(core.AttributeTable(nil), l.attrs...), nil
}
