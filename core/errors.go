package core

import (
	"fmt"
	"strings"
	"time"
)

// ParameterValidationError reports a season parameter outside its allowed
// range or enum. It is raised before any stage runs; a workflow never starts
// on invalid parameters.
type ParameterValidationError struct {
	Field  string
	Reason string
}

func (e *ParameterValidationError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Field, e.Reason)
}

// DataNotFoundError indicates a requested series or attribute table does not
// exist at the loader. Distinct from InsufficientHistoryError so callers can
// tell "wrong key" apart from "not enough data".
type DataNotFoundError struct {
	Resource string
	Key      string
}

func (e *DataNotFoundError) Error() string {
	return fmt.Sprintf("%s not found for %q", e.Resource, e.Key)
}

// InsufficientHistoryError indicates a series exists but covers fewer periods
// than forecasting requires.
type InsufficientHistoryError struct {
	Key      string
	Periods  int
	Required int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("history for %q covers %d periods, need at least %d", e.Key, e.Periods, e.Required)
}

// ModelFitError reports that a single forecasting sub-model failed to
// converge. It is recoverable: the ensemble falls back to the surviving
// sub-model and only fails outright when both sub-models return one.
type ModelFitError struct {
	Model  string
	Reason string
}

func (e *ModelFitError) Error() string {
	return fmt.Sprintf("model %s failed to fit: %s", e.Model, e.Reason)
}

// StageTimeoutError indicates a stage handler exceeded its execution budget.
// The in-flight handler is cancelled and any partial result discarded.
type StageTimeoutError struct {
	Stage   string
	Timeout time.Duration
}

func (e *StageTimeoutError) Error() string {
	return fmt.Sprintf("stage %s exceeded timeout of %s", e.Stage, e.Timeout)
}

// NotRegisteredError indicates a handoff call referenced a stage name that
// was never registered.
type NotRegisteredError struct {
	Stage string
}

func (e *NotRegisteredError) Error() string {
	return fmt.Sprintf("stage %s is not registered", e.Stage)
}

// StageExecutionError wraps an error returned by a stage handler with the
// stage name so chain failures identify where they originated.
type StageExecutionError struct {
	Stage string
	Err   error
}

func (e *StageExecutionError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

// Unwrap exposes the handler error for errors.Is / errors.As.
func (e *StageExecutionError) Unwrap() error { return e.Err }

// AllocationConservationError reports a unit-sum mismatch at an allocation
// layer boundary. It always indicates a logic bug and is never swallowed:
// manufacturing and shipping decisions depend on exact totals.
type AllocationConservationError struct {
	Layer string
	Want  int
	Got   int
}

func (e *AllocationConservationError) Error() string {
	return fmt.Sprintf("allocation %s layer lost units: want %d, got %d", e.Layer, e.Want, e.Got)
}

// MissingFieldsError is returned by parameter extraction when the strategy
// text did not contain enough information to populate required fields.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("strategy description is missing required fields: %s", strings.Join(e.Fields, ", "))
}
