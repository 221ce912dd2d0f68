// Package move implements the chained multi-family swap operator: a
// sequence of families reassigned to new days in one atomic step, with
// delta-scoring so the search engine can evaluate a candidate move
// without committing it.
package move

import (
	"github.com/brodin-oss/familysched/internal/catalog"
	"github.com/brodin-oss/familysched/internal/cost"
	"github.com/brodin-oss/familysched/internal/objectives/accounting"
	"github.com/brodin-oss/familysched/internal/solution"
)

// Move describes moving each Candidates[i] from OldDays[i] to
// NewDays[i], applied in order. A Move is well-formed iff all
// Candidates are pairwise distinct and OldDays[i] == sol.Assign[Candidates[i]]
// at the time of evaluation.
type Move struct {
	Candidates []int
	OldDays    []int
	NewDays    []int
}

// New returns an empty Move with Candidates seeded to a single family.
func New(firstCandidate int) *Move {
	return &Move{Candidates: []int{firstCandidate}}
}

// WellFormed checks the distinctness half of well-formedness. The
// OldDays-consistency half is enforced by construction in package
// search, which always appends sol.Assign[f] as it extends a chain.
func (m *Move) WellFormed() bool {
	seen := make(map[int]bool, len(m.Candidates))
	for _, f := range m.Candidates {
		if seen[f] {
			return false
		}
		seen[f] = true
	}
	return true
}

func applyDeltas(sol *solution.Solution, cat *catalog.Catalog, m *Move) {
	for i, f := range m.Candidates {
		sol.Occupancy[m.OldDays[i]] -= cat.Size(f)
		sol.Occupancy[m.NewDays[i]] += cat.Size(f)
	}
}

func undoDeltas(sol *solution.Solution, cat *catalog.Catalog, m *Move) {
	for i, f := range m.Candidates {
		sol.Occupancy[m.OldDays[i]] += cat.Size(f)
		sol.Occupancy[m.NewDays[i]] -= cat.Size(f)
	}
}

// Feasible reports whether m keeps every day's occupancy within the
// catalog's capacity band. It leaves sol bit-identical on return.
func Feasible(sol *solution.Solution, cat *catalog.Catalog, m *Move) bool {
	if !m.WellFormed() {
		return false
	}
	applyDeltas(sol, cat, m)
	feasible := sol.IsFeasible(cat.MinOccupancy, cat.MaxOccupancy)
	undoDeltas(sol, cat, m)
	return feasible
}

// Score returns the cost delta of applying m to sol without mutating
// sol. A positive value means the move would strictly decrease total
// cost.
func Score(sol *solution.Solution, cat *catalog.Catalog, ctx *catalog.ScoringContext, m *Move) float64 {
	total, _, _ := SplitScore(sol, cat, ctx, m)
	return total
}

// SplitScore returns (total, penaltyPart, accountingPart) of the cost
// delta; Score is its total.
func SplitScore(sol *solution.Solution, cat *catalog.Catalog, ctx *catalog.ScoringContext, m *Move) (total, penaltyPart, accountingPart float64) {
	deltaAccounting := accounting.Score(sol.Occupancy, cat.NumDays, cat.MinOccupancy) * ctx.Weight

	var deltaPenalty float64
	for i, f := range m.Candidates {
		deltaPenalty += cat.Penalty(f, sol.Assign[f])
		deltaPenalty -= cat.Penalty(f, m.NewDays[i])
	}
	applyDeltas(sol, cat, m)

	deltaAccounting -= accounting.Score(sol.Occupancy, cat.NumDays, cat.MinOccupancy) * ctx.Weight
	undoDeltas(sol, cat, m)

	return deltaPenalty + deltaAccounting, deltaPenalty, deltaAccounting
}

// Apply commits m to sol: updates Assign and Occupancy for every
// candidate, then recomputes Cost from scratch so it never drifts from
// accumulated delta-scoring error.
func Apply(sol *solution.Solution, cat *catalog.Catalog, ctx *catalog.ScoringContext, m *Move) float64 {
	for i, f := range m.Candidates {
		sol.Occupancy[m.OldDays[i]] -= cat.Size(f)
		sol.Occupancy[m.NewDays[i]] += cat.Size(f)
		sol.Assign[f] = m.NewDays[i]
	}
	return cost.Rescore(cat, ctx, sol)
}

// Inverse returns the move that undoes m: swapping OldDays and NewDays
// restores the prior assignment when applied to the post-move
// solution.
func (m *Move) Inverse() *Move {
	return &Move{
		Candidates: append([]int(nil), m.Candidates...),
		OldDays:    append([]int(nil), m.NewDays...),
		NewDays:    append([]int(nil), m.OldDays...),
	}
}
