// Package handoff implements the stage registry and executor the workflow
// controller runs its computation stages through. Stages are registered by
// name and invoked either individually (Call) or as a chain (Chain) where
// each stage's result becomes the next stage's context.
//
// Every call, whether it succeeds, times out or fails, appends one immutable
// record to the shared execution log, which is the primary debugging surface
// for a workflow run. Timeouts cancel the in-flight handler and discard any
// partial result; chain execution aborts on the first stage failure and
// never recovers internally.
package handoff
