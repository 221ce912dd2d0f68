// Package search implements the iterated local search engine that
// drives a single Solution toward a low-cost optimum: neighborhood
// descent via chained multi-family moves, plus weight-perturbation
// restarts to escape local optima.
//
// An Engine is single-goroutine: the controller gives each worker its
// own Engine over a private ScoringContext so perturbation's temporary
// weight change never leaks across workers.
package search

import (
	"golang.org/x/exp/rand"
	"k8s.io/klog/v2"

	"github.com/brodin-oss/familysched/internal/catalog"
	"github.com/brodin-oss/familysched/internal/cost"
	"github.com/brodin-oss/familysched/internal/move"
	"github.com/brodin-oss/familysched/internal/solution"
)

// Fixed search parameters. MoveDepth and perturbation count are the
// only two exposed as CLI flags; the rest are empirical constants.
const (
	localBreakAfter    = 2  // consecutive no-op improve() calls before local_search stops
	triesPerFamilyMain = 40 // find_move attempts per family during descent
	triesPerFamilyPert = 25 // find_move attempts per family inside perturbate's descent
	perturbWeightMin   = 0.2
	perturbWeightMax   = 2.2
	alternativeRankTop = 5 // alternative days are drawn from the top-N preferences
)

// Engine runs ILS over a private catalog scoring context and RNG
// stream. NumFamilies/NumDays/MoveDepth come from the shared Catalog and
// the controller's configuration; Engine itself owns no Solution.
type Engine struct {
	cat       *catalog.Catalog
	ctx       *catalog.ScoringContext
	rng       *rand.Rand
	moveDepth int

	familiesPerDay [][]int
	allFamilies    []int
}

// New builds an Engine with a fresh families_per_day scratch vector.
func New(cat *catalog.Catalog, ctx *catalog.ScoringContext, rng *rand.Rand, moveDepth int) *Engine {
	all := make([]int, cat.NumFamilies)
	for i := range all {
		all[i] = i
	}
	return &Engine{
		cat:         cat,
		ctx:         ctx,
		rng:         rng,
		moveDepth:   moveDepth,
		allFamilies: all,
	}
}

// Optimize runs perturbations rounds of local_search + perturbate
// starting from seed, returning the best solution found.
func (e *Engine) Optimize(seed *solution.Solution, perturbations int) *solution.Solution {
	best := seed.Clone()
	cur := best.Clone()
	for i := 0; i < perturbations; i++ {
		cand := e.localSearch(cur.Clone(), localBreakAfter, triesPerFamilyMain)
		if cand.Cost < best.Cost {
			best = cand
		}
		cur = best.Clone()
		cur = e.perturbate(cur)
	}
	klog.V(2).InfoS("ils run complete", "perturbations", perturbations, "bestCost", best.Cost)
	return best
}

// localSearch repeatedly calls improve until breakAfter consecutive
// calls produce no cost change.
func (e *Engine) localSearch(sol *solution.Solution, breakAfter, triesPerFamily int) *solution.Solution {
	e.rebuildFamiliesPerDay(sol)
	unchanged := 0
	for {
		if e.improve(sol, triesPerFamily) {
			unchanged = 0
		} else {
			unchanged++
		}
		if unchanged >= breakAfter {
			return sol
		}
	}
}

// improve shuffles the family order and attempts up to triesPerFamily
// moves per family, stopping at the first accepted move for that family.
func (e *Engine) improve(sol *solution.Solution, triesPerFamily int) bool {
	e.rng.Shuffle(len(e.allFamilies), func(i, j int) {
		e.allFamilies[i], e.allFamilies[j] = e.allFamilies[j], e.allFamilies[i]
	})
	before := sol.Cost
	for _, f := range e.allFamilies {
		for try := 0; try < triesPerFamily; try++ {
			if e.findMove(sol, f) {
				break
			}
		}
	}
	return sol.Cost != before
}

// findMove builds a chained move of length up to e.moveDepth starting
// at family f0, testing only the terminal configuration at each
// extension: a chain only has to improve cost at its final length, not
// at every intermediate length, so a two-family chain can be accepted
// even when neither half alone would help.
func (e *Engine) findMove(sol *solution.Solution, f0 int) bool {
	m := move.New(f0)
	i := 0
	for {
		f := m.Candidates[i]
		dOld := sol.Assign[f]
		m.OldDays = append(m.OldDays, dOld)
		dNew := e.pickAlternative(f, dOld)
		m.NewDays = append(m.NewDays, dNew)

		if move.Feasible(sol, e.cat, m) && move.Score(sol, e.cat, e.ctx, m) > 0 {
			move.Apply(sol, e.cat, e.ctx, m)
			e.rebuildFamiliesPerDay(sol)
			return true
		}

		if i+1 >= e.moveDepth {
			return false
		}
		m.Candidates = append(m.Candidates, e.pickFromDay(dNew))
		i++
	}
}

// perturbate reweights the accounting term, runs a shorter local_search
// under the skewed landscape, then restores the true weight and
// rescores under it.
func (e *Engine) perturbate(sol *solution.Solution) *solution.Solution {
	e.ctx.Weight = perturbWeightMin + e.rng.Float64()*(perturbWeightMax-perturbWeightMin)
	newSol := e.localSearch(sol.Clone(), localBreakAfter, triesPerFamilyPert)
	e.ctx.Weight = 1.0
	cost.Rescore(e.cat, e.ctx, newSol)
	return newSol
}

// pickAlternative draws an alternative day for family f from its five
// most-preferred entries, rejecting the family's current day.
func (e *Engine) pickAlternative(f, current int) int {
	choices := e.cat.Choices(f)
	for {
		rank := e.rng.Intn(alternativeRankTop)
		day := choices[rank]
		if day != current {
			return day
		}
	}
}

// pickFromDay draws a family uniformly at random from those currently
// assigned to day d.
func (e *Engine) pickFromDay(d int) int {
	fams := e.familiesPerDay[d]
	return fams[e.rng.Intn(len(fams))]
}

func (e *Engine) rebuildFamiliesPerDay(sol *solution.Solution) {
	e.familiesPerDay = solution.FamiliesPerDay(sol, e.cat.NumDays)
}
