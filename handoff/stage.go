package handoff

import "context"

// Stage is a named unit of computation executed by the Manager. Execute
// receives the stage context produced by the caller (or the previous stage
// in a chain) and returns the result threaded to the next stage.
//
// Implementations must respect context cancellation: when the deadline set
// by the Manager expires the handler's context is cancelled and its result,
// if any, is discarded.
type Stage interface {
	Name() string
	Execute(ctx context.Context, input any) (any, error)
}

// StageFunc adapts a plain Go function as a Stage. It is the lightweight way
// to register a computation without defining a dedicated type.
type StageFunc struct {
	name string
	fn   func(ctx context.Context, input any) (any, error)
}

// NewStageFunc constructs a StageFunc with the given name and handler.
func NewStageFunc(name string, fn func(ctx context.Context, input any) (any, error)) *StageFunc {
	return &StageFunc{name: name, fn: fn}
}

// Name returns the stage identifier used for registration and routing.
func (s *StageFunc) Name() string { return s.name }

// Execute invokes the wrapped function.
func (s *StageFunc) Execute(ctx context.Context, input any) (any, error) {
	return s.fn(ctx, input)
}
