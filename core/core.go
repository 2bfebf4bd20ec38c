package core

import "github.com/google/uuid"

// NewID generates a unique identifier used for sessions, runs and result
// versions. Returns a string representation of a new UUID.
func NewID() string { return uuid.NewString() }
