package assemble

import (
	"context"

	"github.com/hupe1980/seasonflow/core"
	"github.com/hupe1980/seasonflow/logging"
)

// Options configures an Assembler.
type Options struct {
	// Elasticity is the price elasticity carried into the demand context for
	// later markdown-driven re-forecasts.
	Elasticity float64

	// Logger provides structured logging. Defaults to NoOp.
	Logger logging.Logger
}

// Assembler builds validated demand contexts from a Loader. Validation
// happens here, before any stage runs, so model code can assume clean input.
type Assembler struct {
	loader     Loader
	elasticity float64
	logger     logging.Logger
}

// New creates an Assembler over the given loader.
func New(loader Loader, optFns ...func(o *Options)) *Assembler {
	opts := Options{Elasticity: 2.0, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Assembler{loader: loader, elasticity: opts.Elasticity, logger: opts.Logger}
}

// DemandContext loads and validates everything the demand stage needs for
// one category under the given season parameters. Parameters must already be
// normalized and validated by the caller.
func (a *Assembler) DemandContext(ctx context.Context, categoryID string, params core.SeasonParameters) (core.DemandContext, error) {
	history, err := a.loader.History(ctx, categoryID)
	if err != nil {
		return core.DemandContext{}, err
	}
	if err := history.Validate(categoryID); err != nil {
		return core.DemandContext{}, err
	}

	attrs, err := a.loader.Attributes(ctx)
	if err != nil {
		return core.DemandContext{}, err
	}
	if err := attrs.Validate(0); err != nil {
		return core.DemandContext{}, err
	}

	a.logger.Debug("assemble.demand_context", "category_id", categoryID, "periods", history.Periods(), "entities", len(attrs))
	return core.DemandContext{
		Params:     params,
		CategoryID: categoryID,
		History:    history,
		Attributes: attrs,
		Elasticity: a.elasticity,
	}, nil
}
