// Package core defines the shared data model for the seasonflow workflow:
// season parameters, historical series and entity attributes, forecast /
// cluster / allocation / markdown results, the append-only execution log,
// status updates and the typed per-stage context structs threaded through
// the handoff chain.
//
// Everything in this package is plain data plus validation. Results produced
// during a season cycle (ForecastResult, AllocationPlan, MarkdownDecision)
// are versioned and superseded rather than mutated, so a full audit trail of
// every re-forecast and re-markdown survives for the life of a session.
package core
