// Package uuid generates identifiers for trackers and HTTP requests.
package uuid

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator creates time-ordered UUIDv7 values.
type Generator struct{}

// New creates a new Generator.
func New() *Generator {
	return &Generator{}
}

// NewID returns a UUIDv7 string.
func (g Generator) NewID() (string, error) {
	id, err := g.NewRawID()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// NewRawID returns a UUIDv7.
func (Generator) NewRawID() (uuid.UUID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, fmt.Errorf("generate uuid7: %w", err)
	}
	return id, nil
}

// NewTrackerID returns a UUIDv7 in the 16-byte form carried by lifecycle
// events, falling back to a random v4 if the v7 source fails.
func (g Generator) NewTrackerID() [16]byte {
	id, err := g.NewRawID()
	if err != nil {
		id = uuid.New()
	}
	return [16]byte(id)
}
