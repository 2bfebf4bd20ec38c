// Package forecast implements the ensemble demand forecaster: two
// independent univariate time-series models (a seasonality-aware additive
// model and an autoregressive integrated model) fit concurrently over the
// same weekly history and reconciled into one point forecast plus a
// confidence signal.
//
// A single sub-model failing to converge is recovered locally by falling
// back to the surviving model; the ensemble only fails when both do. The
// final point forecast is the arithmetic mean of the two totals rather
// than a confidence-weighted blend.
package forecast
