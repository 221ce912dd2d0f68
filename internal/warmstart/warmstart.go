// Package warmstart builds feasible initial solutions for the ILS
// engine to start from: a preference-biased pseudo-greedy builder and a
// uniform-random builder.
package warmstart

import (
	"golang.org/x/exp/rand"

	"github.com/brodin-oss/familysched/internal/catalog"
	"github.com/brodin-oss/familysched/internal/cost"
	"github.com/brodin-oss/familysched/internal/solution"
)

// Strategy names accepted by the --init-strategy CLI flag.
const (
	StrategyGreedy = "greedy"
	StrategyRandom = "random"
)

// Build constructs a feasible Solution using the named strategy,
// retrying from scratch until a feasible candidate is found. Both
// loops are bounded in expectation; no explicit iteration cap is
// needed.
func Build(cat *catalog.Catalog, ctx *catalog.ScoringContext, rng *rand.Rand, strategy string) *solution.Solution {
	switch strategy {
	case StrategyRandom:
		return UniformRandom(cat, ctx, rng)
	default:
		return PseudoGreedy(cat, ctx, rng)
	}
}

// PseudoGreedy shuffles family order, then for each family scans its
// full day-preference order and assigns it to the first day whose
// occupancy is below the capacity band's minimum and would stay below
// the maximum after the addition.
func PseudoGreedy(cat *catalog.Catalog, ctx *catalog.ScoringContext, rng *rand.Rand) *solution.Solution {
	for {
		if sol, ok := pseudoGreedyAttempt(cat, rng); ok {
			cost.Rescore(cat, ctx, sol)
			return sol
		}
	}
}

func pseudoGreedyAttempt(cat *catalog.Catalog, rng *rand.Rand) (*solution.Solution, bool) {
	order := shuffledFamilies(cat.NumFamilies, rng)
	sol := solution.New(cat.NumFamilies, cat.NumDays)

	assigned := make([]bool, cat.NumFamilies)
	for _, f := range order {
		size := cat.Size(f)
		for _, d := range cat.Choices(f) {
			if sol.Occupancy[d] < cat.MinOccupancy && sol.Occupancy[d]+size < cat.MaxOccupancy {
				sol.Assign[f] = d
				sol.Occupancy[d] += size
				assigned[f] = true
				break
			}
		}
	}

	for _, ok := range assigned {
		if !ok {
			return nil, false
		}
	}
	return sol, sol.IsFeasible(cat.MinOccupancy, cat.MaxOccupancy)
}

// UniformRandom shuffles family order, then for each family draws days
// uniformly until one has room, without biasing toward the lower bound.
func UniformRandom(cat *catalog.Catalog, ctx *catalog.ScoringContext, rng *rand.Rand) *solution.Solution {
	for {
		if sol, ok := uniformRandomAttempt(cat, rng); ok {
			cost.Rescore(cat, ctx, sol)
			return sol
		}
	}
}

func uniformRandomAttempt(cat *catalog.Catalog, rng *rand.Rand) (*solution.Solution, bool) {
	order := shuffledFamilies(cat.NumFamilies, rng)
	sol := solution.New(cat.NumFamilies, cat.NumDays)

	for _, f := range order {
		size := cat.Size(f)
		for {
			d := 1 + rng.Intn(cat.NumDays)
			if sol.Occupancy[d]+size < cat.MaxOccupancy {
				sol.Assign[f] = d
				sol.Occupancy[d] += size
				break
			}
		}
	}

	return sol, sol.IsFeasible(cat.MinOccupancy, cat.MaxOccupancy)
}

func shuffledFamilies(numFamilies int, rng *rand.Rand) []int {
	order := make([]int, numFamilies)
	for i := range order {
		order[i] = i
	}
	rng.Shuffle(numFamilies, func(i, j int) { order[i], order[j] = order[j], order[i] })
	return order
}
