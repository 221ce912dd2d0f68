// Package cost aggregates the two weighted cost-model terms — per-family
// preference penalty and day-to-day occupancy accounting — into the
// total cost of a solution.
package cost

import (
	"github.com/brodin-oss/familysched/internal/catalog"
	"github.com/brodin-oss/familysched/internal/objectives/accounting"
	"github.com/brodin-oss/familysched/internal/objectives/penalty"
	"github.com/brodin-oss/familysched/internal/solution"
)

// Total returns penalty(assign) + weight*accounting(occupancy).
func Total(cat *catalog.Catalog, ctx *catalog.ScoringContext, sol *solution.Solution) float64 {
	p, a := split(cat, ctx, sol)
	return p + a
}

// Split returns (total, penaltyPart, accountingPart), used by
// --diagnostics logging.
func Split(cat *catalog.Catalog, ctx *catalog.ScoringContext, sol *solution.Solution) (total, penaltyPart, accountingPart float64) {
	p, a := split(cat, ctx, sol)
	return p + a, p, a
}

func split(cat *catalog.Catalog, ctx *catalog.ScoringContext, sol *solution.Solution) (penaltyPart, accountingPart float64) {
	p := penalty.Score(cat, sol.Assign)
	a := accounting.Score(sol.Occupancy, cat.NumDays, cat.MinOccupancy) * ctx.Weight
	return p, a
}

// Rescore recomputes sol.Cost from scratch and returns it. Called after
// every accepted move so cached cost never drifts from delta-scoring
// accumulation error.
func Rescore(cat *catalog.Catalog, ctx *catalog.ScoringContext, sol *solution.Solution) float64 {
	sol.Cost = Total(cat, ctx, sol)
	return sol.Cost
}
