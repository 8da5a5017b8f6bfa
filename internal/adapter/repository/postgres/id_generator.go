package postgres

import (
	"github.com/oklog/ulid/v2"
)

// ULIDGenerator mints payment ids. ULIDs are unique and sort
// lexicographically by creation time.
type ULIDGenerator struct{}

// NewULIDGenerator creates a new ULIDGenerator.
func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{}
}

// Generate returns a new ULID string.
func (g *ULIDGenerator) Generate() string {
	return ulid.Make().String()
}
