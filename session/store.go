// Package session provides session storage backends for season workflows.
// The in-memory store covers tests and single-process deployments; anything
// durable implements core.SessionStore against its own backend.
package session

import (
	"fmt"
	"sync"

	"github.com/hupe1980/seasonflow/core"
)

// InMemoryStore is a map-backed core.SessionStore. Get returns clones, so a
// caller can inspect a session while the workflow keeps mutating the stored
// one; Save replaces the stored session wholesale.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*core.WorkflowSession
}

var _ core.SessionStore = (*InMemoryStore)(nil)

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: map[string]*core.WorkflowSession{}}
}

// Create implements core.SessionStore. Creating an id twice is an error;
// session ids are caller-chosen and a collision means two workflows would
// silently share state.
func (s *InMemoryStore) Create(id string) (*core.WorkflowSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[id]; exists {
		return nil, fmt.Errorf("session %q already exists", id)
	}
	session := core.NewWorkflowSession(id)
	s.sessions[id] = session
	return session, nil
}

// Get implements core.SessionStore.
func (s *InMemoryStore) Get(id string) (*core.WorkflowSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, &core.DataNotFoundError{Resource: "session", Key: id}
	}
	return session.Clone(), nil
}

// Save implements core.SessionStore.
func (s *InMemoryStore) Save(session *core.WorkflowSession) error {
	if session == nil || session.ID == "" {
		return fmt.Errorf("session must have an id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return nil
}

// Len returns the number of stored sessions.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
