// Package uuid generates session and request identifiers.
package uuid

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator creates time-ordered UUID v7 strings, so session IDs sort by
// start time in logs and redis key listings.
type Generator struct {
	newV7 func() (uuid.UUID, error)
}

// New creates a Generator.
func New() *Generator {
	return &Generator{newV7: uuid.NewV7}
}

// NewID returns a UUID v7 string.
func (g *Generator) NewID() (string, error) {
	id, err := g.newV7()
	if err != nil {
		return "", fmt.Errorf("generate uuid7: %w", err)
	}
	return id.String(), nil
}

// MustID returns a UUID v7 string, or a random v4 one when the v7 source
// fails. Use it where an identifier is only informational.
func (g *Generator) MustID() string {
	if id, err := g.NewID(); err == nil {
		return id
	}
	return uuid.NewString()
}
