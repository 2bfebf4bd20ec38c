package core

import (
	"sync"
	"time"
)

// WorkflowSession is the per-run container for one season workflow: the
// confirmed parameters, every versioned result produced so far, the status
// history and creation/update timestamps. It is safe for concurrent access.
//
// Result slices are append-only: each re-forecast, re-allocation or
// re-markdown appends a new versioned value; earlier versions are preserved
// as the audit trail. The latest element is the current one.
type WorkflowSession struct {
	ID        string             `json:"id"`
	Phase     string             `json:"phase"`
	Params    *SeasonParameters  `json:"params,omitempty"`
	Forecasts []ForecastResult   `json:"forecasts"`
	Plans     []AllocationPlan   `json:"plans"`
	Markdowns []MarkdownDecision `json:"markdowns"`
	Statuses  []StatusUpdate     `json:"statuses"`
	Created   time.Time          `json:"created"`
	Updated   time.Time          `json:"updated"`
	mu        sync.RWMutex
}

// NewWorkflowSession creates an empty session with the given ID.
func NewWorkflowSession(id string) *WorkflowSession {
	now := time.Now()
	return &WorkflowSession{ID: id, Created: now, Updated: now}
}

// SetPhase records the current workflow phase.
func (s *WorkflowSession) SetPhase(phase string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Phase = phase
	s.Updated = time.Now()
}

// SetParams stores the confirmed season parameters.
func (s *WorkflowSession) SetParams(p SeasonParameters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Params = &p
	s.Updated = time.Now()
}

// AddForecast appends a versioned forecast result.
func (s *WorkflowSession) AddForecast(f ForecastResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Forecasts = append(s.Forecasts, f)
	s.Updated = time.Now()
}

// AddPlan appends a versioned allocation plan.
func (s *WorkflowSession) AddPlan(p AllocationPlan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Plans = append(s.Plans, p)
	s.Updated = time.Now()
}

// AddMarkdown appends a markdown decision.
func (s *WorkflowSession) AddMarkdown(d MarkdownDecision) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Markdowns = append(s.Markdowns, d)
	s.Updated = time.Now()
}

// AddStatus appends a status update to the session history.
func (s *WorkflowSession) AddStatus(u StatusUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Statuses = append(s.Statuses, u)
	s.Updated = time.Now()
}

// LatestForecast returns the current forecast version, if any.
func (s *WorkflowSession) LatestForecast() (ForecastResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.Forecasts) == 0 {
		return ForecastResult{}, false
	}
	return s.Forecasts[len(s.Forecasts)-1], true
}

// LatestPlan returns the current allocation plan version, if any.
func (s *WorkflowSession) LatestPlan() (AllocationPlan, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.Plans) == 0 {
		return AllocationPlan{}, false
	}
	return s.Plans[len(s.Plans)-1], true
}

// Clone returns a deep copy safe for independent inspection.
func (s *WorkflowSession) Clone() *WorkflowSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clone := &WorkflowSession{
		ID:      s.ID,
		Phase:   s.Phase,
		Created: s.Created,
		Updated: s.Updated,
	}
	if s.Params != nil {
		p := *s.Params
		clone.Params = &p
	}
	clone.Forecasts = append([]ForecastResult(nil), s.Forecasts...)
	clone.Plans = append([]AllocationPlan(nil), s.Plans...)
	clone.Markdowns = append([]MarkdownDecision(nil), s.Markdowns...)
	clone.Statuses = append([]StatusUpdate(nil), s.Statuses...)
	return clone
}

// SessionStore persists workflow sessions. Get returns a clone; mutations go
// through the store so concurrent workflow sessions stay isolated.
type SessionStore interface {
	Create(id string) (*WorkflowSession, error)
	Get(id string) (*WorkflowSession, error)
	Save(session *WorkflowSession) error
}
