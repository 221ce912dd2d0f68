// Package controller runs the population-based Monte Carlo search: a
// fixed pool of worker goroutines that repeatedly pull a seed from a
// shared archive, run it through iterated local search, and feed the
// result back into the archive.
package controller

import (
	"context"
	"sync"
	"time"

	"golang.org/x/exp/rand"
	"k8s.io/klog/v2"

	"github.com/brodin-oss/familysched/internal/archive"
	"github.com/brodin-oss/familysched/internal/catalog"
	"github.com/brodin-oss/familysched/internal/constraints"
	"github.com/brodin-oss/familysched/internal/search"
	"github.com/brodin-oss/familysched/internal/solution"
)

// Config holds the parameters that shape a search run. MoveDepth and
// Perturbations feed directly into each worker's search.Engine.
type Config struct {
	NThreads      int
	RepsPerSol    int
	MoveDepth     int
	Perturbations int
}

// Hooks lets callers observe progress without the controller knowing
// about metrics or plotting concerns directly.
type Hooks struct {
	// OnCheckpoint is forwarded to archive.Queue.OnCheckpoint.
	OnCheckpoint func(path string, cost float64)
	// OnRoundComplete fires after every insert_history call, reporting
	// the worker id, the cost the worker just produced, and how long the
	// round's optimize->insert_history steps took (the select that fed
	// the round is not timed).
	OnRoundComplete func(workerID int, cost float64, duration time.Duration)
}

// Run seeds q with the initial solutions (one job per seed, each
// repeated cfg.RepsPerSol times) and launches cfg.NThreads workers,
// each with its own rng stream and ScoringContext. Run blocks until ctx
// is cancelled, then waits for all workers to finish their current
// round before returning. A worker also stops when Select finds both
// the todo queue and the archive empty, so Run returns early if every
// worker stops that way.
func Run(ctx context.Context, cat *catalog.Catalog, seeds []*solution.Solution, cfg Config, q *archive.Queue, rng *rand.Rand, hooks Hooks) {
	q.OnCheckpoint = hooks.OnCheckpoint

	for _, seed := range seeds {
		q.InsertTodo(seed, cfg.RepsPerSol)
	}

	var wg sync.WaitGroup
	for w := 0; w < cfg.NThreads; w++ {
		workerRNG := rand.New(rand.NewSource(rng.Uint64()))
		wg.Add(1)
		go func(id int, workerRNG *rand.Rand) {
			defer wg.Done()
			runWorker(ctx, id, cat, cfg, q, workerRNG, hooks)
		}(w, workerRNG)
	}
	wg.Wait()
	klog.V(1).InfoS("controller stopped", "nthreads", cfg.NThreads)
}

func runWorker(ctx context.Context, id int, cat *catalog.Catalog, cfg Config, q *archive.Queue, rng *rand.Rand, hooks Hooks) {
	workerCtx := catalog.NewScoringContext()
	engine := search.New(cat, workerCtx, rng, cfg.MoveDepth)
	feasible := constraints.CapacityBand(cat)

	sol := q.Select(rng)
	for {
		select {
		case <-ctx.Done():
			klog.V(2).InfoS("worker stopping", "worker", id)
			return
		default:
		}
		if sol == nil {
			klog.V(2).InfoS("worker idle: empty archive", "worker", id)
			return
		}

		roundStart := time.Now()
		result := engine.Optimize(sol, cfg.Perturbations)
		if !constraints.All(result, feasible) {
			klog.ErrorS(nil, "ils produced an infeasible solution, dropping round", "worker", id, "cost", result.Cost)
			sol = q.Select(rng)
			continue
		}
		q.InsertHistory(result)
		duration := time.Since(roundStart)
		if hooks.OnRoundComplete != nil {
			hooks.OnRoundComplete(id, result.Cost, duration)
		}
		sol = q.Select(rng)
	}
}
