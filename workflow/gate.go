package workflow

import (
	"context"

	"github.com/hupe1980/seasonflow/core"
)

// Decision is a confirmation gate verdict on the proposed opening plan.
type Decision string

const (
	// DecisionApprove commits the plan as presented.
	DecisionApprove Decision = "approve"
	// DecisionModify requests a re-allocation with a different safety stock
	// percentage before asking again.
	DecisionModify Decision = "modify"
	// DecisionReject abandons the proposed plan without committing.
	DecisionReject Decision = "reject"
)

// Approval is the gate's full answer. SafetyStockPct is only read when the
// decision is DecisionModify.
type Approval struct {
	Decision       Decision
	SafetyStockPct float64
}

// ConfirmationGate is consulted exactly once per proposed opening plan,
// before the season-start allocation is committed. It is the single human
// checkpoint in the workflow; everything after it runs unattended.
type ConfirmationGate interface {
	Confirm(ctx context.Context, forecast core.ForecastResult, plan core.AllocationPlan) (Approval, error)
}

// GateFunc adapts a plain function to the ConfirmationGate interface.
type GateFunc func(ctx context.Context, forecast core.ForecastResult, plan core.AllocationPlan) (Approval, error)

// Confirm calls the wrapped function.
func (f GateFunc) Confirm(ctx context.Context, forecast core.ForecastResult, plan core.AllocationPlan) (Approval, error) {
	return f(ctx, forecast, plan)
}

// AutoApproveGate approves every plan. Used in examples and unattended runs.
type AutoApproveGate struct{}

var _ ConfirmationGate = AutoApproveGate{}

// Confirm always approves.
func (AutoApproveGate) Confirm(context.Context, core.ForecastResult, core.AllocationPlan) (Approval, error) {
	return Approval{Decision: DecisionApprove}, nil
}
