package graph

import (
	"math/rand/v2"
	"strconv"

	"github.com/google/uuid"
)

// Default placement region for new persons.
const (
	PlacementMinX   = 100.0
	PlacementWidth  = 400.0
	PlacementMinY   = 100.0
	PlacementHeight = 300.0
)

// Generator supplies identifiers and initial canvas positions for new records.
type Generator interface {
	NewID() string
	Position() (x, y float64)
}

type randomGenerator struct{}

// NewGenerator returns a Generator issuing UUIDv4 ids and uniform random
// positions inside the default placement region.
func NewGenerator() Generator {
	return randomGenerator{}
}

func (randomGenerator) NewID() string {
	return uuid.NewString()
}

func (randomGenerator) Position() (float64, float64) {
	return rand.Float64()*PlacementWidth + PlacementMinX, rand.Float64()*PlacementHeight + PlacementMinY
}

// Sequence is a deterministic Generator issuing "<Prefix>1", "<Prefix>2", ...
// and positions stepping across the placement region. Used by tests and replays.
type Sequence struct {
	Prefix string
	n      int
}

// NewID returns the next id in the sequence.
func (s *Sequence) NewID() string {
	s.n++
	return s.Prefix + strconv.Itoa(s.n)
}

// Position returns a position derived from the number of ids issued so far.
func (s *Sequence) Position() (float64, float64) {
	step := float64(s.n % 10)
	return PlacementMinX + step*40, PlacementMinY + step*30
}
