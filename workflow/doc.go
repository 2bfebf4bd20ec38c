// Package workflow orchestrates one retail season end to end: parameter
// gathering, the pre-season forecast and allocation with a human
// confirmation gate, in-season monitoring with automatic variance-driven
// re-forecasts, the mid-season markdown checkpoint, periodic replenishment
// and season end.
//
// A Controller owns exactly one session. Phases advance through a fixed
// state machine; results are versioned and superseded, never mutated, so a
// session's history is a complete audit trail of every cycle that ran.
package workflow
