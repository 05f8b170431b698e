// Package uuid provides ID generation helpers.
package uuid

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Generator creates UUID v7 strings.
type Generator struct{}

// New creates a new Generator.
func New() *Generator {
	return &Generator{}
}

// NewID returns a UUID7 string.
func (Generator) NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuid7: %w", err)
	}
	return id.String(), nil
}

// Prefixed wraps a Generator so entity IDs carry a readable type
// prefix, e.g. "client_018f2c...". Collisions are as unlikely as the
// underlying UUID.
type Prefixed struct {
	gen    Generator
	prefix string
}

// NewPrefixed returns a Prefixed generator for the given entity prefix.
func NewPrefixed(prefix string) *Prefixed {
	return &Prefixed{prefix: prefix}
}

// NewID returns "<prefix>_<uuid-hex>".
func (p *Prefixed) NewID() (string, error) {
	id, err := p.gen.NewID()
	if err != nil {
		return "", err
	}
	return p.prefix + "_" + strings.ReplaceAll(id, "-", ""), nil
}
