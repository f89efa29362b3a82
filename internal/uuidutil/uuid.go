package uuidutil

import (
	"github.com/google/uuid"
)

// NewString generates a random UUID v4 in its canonical string form.
// Script and execution ids are stored as strings so they round-trip through JSON unchanged.
func NewString() string {
	return uuid.NewString()
}

// IsValid checks if a string is a valid UUID format
func IsValid(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// Short returns the first block of an id for compact display, or the id itself when it is not a UUID.
func Short(id string) string {
	if !IsValid(id) {
		return id
	}
	return id[:8]
}
