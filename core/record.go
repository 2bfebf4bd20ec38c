package core

import (
	"sync"
	"time"
)

// StageStatus is the terminal outcome of one stage call.
type StageStatus string

const (
	// StatusSuccess means the handler returned a result within budget.
	StatusSuccess StageStatus = "success"
	// StatusTimeout means the handler exceeded its timeout and was cancelled.
	StatusTimeout StageStatus = "timeout"
	// StatusFailed means the handler returned an error.
	StatusFailed StageStatus = "failed"
	// StatusSkipped marks a phase the controller deliberately never invoked,
	// e.g. replenishment when the strategy forbids it. No handler ran.
	StatusSkipped StageStatus = "skipped"
)

// ExecutionRecord is one immutable entry in the workflow execution log.
// Detail carries the technical error text for failed calls; it is meant for
// logs, never for the status sink.
type ExecutionRecord struct {
	Stage     string        `json:"stage"`
	StartTime time.Time     `json:"start_time"`
	Duration  time.Duration `json:"duration"`
	Status    StageStatus   `json:"status"`
	Detail    string        `json:"detail,omitempty"`
}

// ExecutionLog is the append-only record of every stage call in one workflow
// run. It grows monotonically, is never mutated in place, and is the primary
// debugging surface. Safe for concurrent use.
type ExecutionLog struct {
	mu      sync.RWMutex
	records []ExecutionRecord
}

// NewExecutionLog constructs an empty log.
func NewExecutionLog() *ExecutionLog { return &ExecutionLog{} }

// Append adds one record. Records are value copies; callers cannot mutate
// appended entries afterwards.
func (l *ExecutionLog) Append(rec ExecutionRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
}

// Records returns a defensive copy of all entries in append order.
func (l *ExecutionLog) Records() []ExecutionRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]ExecutionRecord, len(l.records))
	copy(out, l.records)
	return out
}

// ByStage returns all records for a stage name, in append order.
func (l *ExecutionLog) ByStage(stage string) []ExecutionRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []ExecutionRecord
	for _, rec := range l.records {
		if rec.Stage == stage {
			out = append(out, rec)
		}
	}
	return out
}

// Len returns the number of records.
func (l *ExecutionLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}
