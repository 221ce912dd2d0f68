// Package constraints expresses solution-level feasibility checks as
// composable predicate functions: one function per rule, combined by
// the caller rather than by a rule engine.
package constraints

import (
	"github.com/brodin-oss/familysched/internal/catalog"
	"github.com/brodin-oss/familysched/internal/solution"
)

// Predicate reports whether sol satisfies a single constraint.
type Predicate func(sol *solution.Solution) bool

// CapacityBand returns a Predicate enforcing the per-day occupancy band
// [cat.MinOccupancy, cat.MaxOccupancy].
func CapacityBand(cat *catalog.Catalog) Predicate {
	return func(sol *solution.Solution) bool {
		return sol.IsFeasible(cat.MinOccupancy, cat.MaxOccupancy)
	}
}

// OccupancyConsistency returns a Predicate checking that sol.Occupancy
// matches what sol.Assign implies, given each family's size. It is
// O(NumFamilies + NumDays) and is intended for tests and debug
// assertions, not the hot path.
func OccupancyConsistency(cat *catalog.Catalog) Predicate {
	return func(sol *solution.Solution) bool {
		want := make([]int, len(sol.Occupancy))
		for f, d := range sol.Assign {
			want[d] += cat.Size(f)
		}
		for d := 1; d <= cat.NumDays; d++ {
			if want[d] != sol.Occupancy[d] {
				return false
			}
		}
		return true
	}
}

// All reports whether sol satisfies every predicate.
func All(sol *solution.Solution, preds ...Predicate) bool {
	for _, p := range preds {
		if !p(sol) {
			return false
		}
	}
	return true
}
