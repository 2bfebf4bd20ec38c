// Package allocation converts one scalar manufactured total into a tree of
// quantities: DC holdback first, then segment slices by historical-sales
// share, then per-entity units inside each segment from a blended
// historical/capacity weight.
//
// Integer conservation is enforced at every layer boundary. Rounding drift
// is corrected with a deterministic largest-remainder step (largest
// fractional remainder first, ties broken by ascending id); a residual
// mismatch after correction is a fatal internal error, never tolerated,
// because manufacturing and shipping commitments depend on exact totals.
package allocation
