package generator

import (
	"github.com/toyz/ngmod/internal/metadata"
	"github.com/toyz/ngmod/internal/models"
)

// Planner computes the artifacts of one generation pass from a snapshot of
// the live module records
type Planner interface {
	Plan(snap *metadata.Snapshot) *Plan
	Layout() models.Layout
}
