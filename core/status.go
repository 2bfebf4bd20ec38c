package core

import "time"

// StatusState is the lifecycle state carried by a StatusUpdate.
type StatusState string

const (
	// StateStarted signals a stage began executing.
	StateStarted StatusState = "started"
	// StateProgress signals intermediate progress within a stage.
	StateProgress StatusState = "progress"
	// StateComplete signals a stage finished successfully.
	StateComplete StatusState = "complete"
	// StateError signals a stage failed; Summary carries the user-facing
	// message, never a stack trace.
	StateError StatusState = "error"
)

// StatusUpdate is the message emitted to the progress sink on every stage
// transition. Transport (poll endpoint or push channel) is external; the
// core only produces the messages.
type StatusUpdate struct {
	Stage     string      `json:"stage"`
	State     StatusState `json:"status"`
	Percent   int         `json:"percent"`
	Summary   string      `json:"payload_summary"`
	Timestamp time.Time   `json:"timestamp"`
}

// StatusSink receives status updates. Implementations must not block for
// long; the workflow publishes synchronously between transitions.
type StatusSink interface {
	Publish(update StatusUpdate)
}

// SinkFunc adapts a plain function to the StatusSink interface.
type SinkFunc func(update StatusUpdate)

// Publish calls the wrapped function.
func (f SinkFunc) Publish(update StatusUpdate) { f(update) }

// NoOpSink discards all status updates. Useful for tests.
type NoOpSink struct{}

// Publish discards the update.
func (NoOpSink) Publish(StatusUpdate) {}
