// Package archive implements the solution queue: a LIFO todo queue for
// seed work plus a diversity-filtered, rank-biased archive of
// historical solutions sampled by the population controller.
//
// Queue is the sole piece of state shared between worker goroutines; a
// single sync.Mutex protects it. Lock hold times are kept to
// O(archive size * NumFamilies) at worst (the similarity scan) by
// never calling into package search while the lock is held.
package archive

import (
	"math"
	"sort"
	"sync"

	"golang.org/x/exp/rand"
	"k8s.io/klog/v2"

	"github.com/brodin-oss/familysched/internal/schedulerio"
	"github.com/brodin-oss/familysched/internal/solution"
)

// AdmissionBand maps a cost range to a similarity threshold θ(cost).
type AdmissionBand struct {
	CostBelow           float64 // band applies while cost < CostBelow; last band should use +Inf
	SimilarityThreshold int
}

// DefaultAdmissionPolicy returns the similarity thresholds tuned for
// the full 5000-family problem, scaled proportionally for smaller
// catalogs so the same policy shape works on synthetic test fixtures.
func DefaultAdmissionPolicy(numFamilies int) []AdmissionBand {
	ratio := func(n int) int { return (n * numFamilies) / 5000 }
	return []AdmissionBand{
		{CostBelow: 70000, SimilarityThreshold: ratio(4970)},
		{CostBelow: 71000, SimilarityThreshold: ratio(4960)},
		{CostBelow: math.Inf(1), SimilarityThreshold: ratio(4800)},
	}
}

func thresholdFor(bands []AdmissionBand, cost float64) int {
	for _, b := range bands {
		if cost < b.CostBelow {
			return b.SimilarityThreshold
		}
	}
	return bands[len(bands)-1].SimilarityThreshold
}

// Node wraps an archived solution with its visit count and a stable id.
type Node struct {
	Sol     *solution.Solution
	Visited int
	ID      int
}

type job struct {
	sol           *solution.Solution
	remainingReps int
}

// Queue holds the todo queue and the cost-descending archive.
type Queue struct {
	mu sync.Mutex

	todo    []*job
	archive []*Node

	haveFmin bool
	fmin     float64

	outdir    string
	idCounter int
	bands     []AdmissionBand

	// OnCheckpoint, if set, is invoked (outside the lock) every time a
	// new global best is written, for metrics/plotting wiring. It must
	// not call back into Queue.
	OnCheckpoint func(path string, cost float64)
}

// New builds an empty Queue. outdir must already exist.
func New(outdir string, bands []AdmissionBand) *Queue {
	return &Queue{outdir: outdir, bands: bands}
}

// InsertTodo pushes a new seed job with the given repetition count.
func (q *Queue) InsertTodo(sol *solution.Solution, reps int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.todo = append(q.todo, &job{sol: sol, remainingReps: reps})
}

// Select returns the next seed a worker should optimize: the most
// recently pushed todo job if any remain, otherwise a rank-biased
// sample from the archive.
func (q *Queue) Select(rng *rand.Rand) *solution.Solution {
	q.mu.Lock()
	defer q.mu.Unlock()

	if n := len(q.todo); n > 0 {
		j := q.todo[n-1]
		j.remainingReps--
		clone := j.sol.Clone()
		if j.remainingReps <= 0 {
			q.todo = q.todo[:n-1]
		}
		return clone
	}
	return q.sampleArchiveLocked(rng)
}

func (q *Queue) sampleArchiveLocked(rng *rand.Rand) *solution.Solution {
	n := len(q.archive)
	if n == 0 {
		return nil
	}

	type entry struct {
		origIdx int
		visits  int
	}
	byVisits := make([]entry, n)
	for i, node := range q.archive {
		byVisits[i] = entry{origIdx: i, visits: node.Visited}
	}
	sort.SliceStable(byVisits, func(i, j int) bool { return byVisits[i].visits > byVisits[j].visits })

	weights := make([]float64, n)
	var total float64
	for rv, e := range byVisits {
		rs := e.origIdx
		w := float64(rs + rv)
		w *= w
		if w == 0 {
			w = 1
		}
		weights[rv] = w
		total += w
	}

	draw := rng.Float64() * total
	chosen := len(weights) - 1
	var cum float64
	for i, w := range weights {
		cum += w
		if draw < cum {
			chosen = i
			break
		}
	}

	origIdx := byVisits[chosen].origIdx
	q.archive[origIdx].Visited++
	return q.archive[origIdx].Sol.Clone()
}

// InsertHistory admits a completed ILS result into the archive,
// applying a similarity-gated tabu policy: if some archived node is more
// similar to sol than θ(sol.Cost) from the AdmissionBands, the most
// similar one is replaced when sol is cheaper and sol is dropped
// otherwise; with no such node sol is inserted in cost-descending order.
// It returns whether the archive changed.
func (q *Queue) InsertHistory(sol *solution.Solution) bool {
	q.mu.Lock()

	similarNode, similarSim, found := q.mostSimilarLocked(sol)
	var (
		checkpointPath string
		checkpointCost float64
		doCheckpoint   bool
		changed        bool
	)

	switch {
	case found && sol.Cost < similarNode.Sol.Cost:
		klog.V(3).InfoS("archive replacing similar node", "similarity", similarSim, "oldCost", similarNode.Sol.Cost, "newCost", sol.Cost)
		similarNode.Sol = sol
		// Visited is inherited in place; ID is also kept.
		q.resortLocked()
		changed = true
		if !q.haveFmin || sol.Cost < q.fmin {
			q.fmin = sol.Cost
			q.haveFmin = true
			doCheckpoint = true
		}
	case found:
		// Tabu: a close-enough but worse solution is simply dropped.
	default:
		changed = true
		inserted := false
		for i, node := range q.archive {
			if node.Sol.Cost < sol.Cost {
				q.insertAtLocked(i, sol)
				inserted = true
				break
			}
		}
		if !inserted {
			q.insertAtLocked(len(q.archive), sol)
			if !q.haveFmin || sol.Cost < q.fmin {
				q.fmin = sol.Cost
				q.haveFmin = true
				doCheckpoint = true
			}
		}
	}

	var path string
	var err error
	if doCheckpoint {
		path, err = schedulerio.WriteCheckpoint(q.outdir, sol)
		if err != nil {
			klog.ErrorS(err, "failed to write checkpoint")
		} else {
			checkpointPath = path
			checkpointCost = sol.Cost
		}
	}
	archiveSize := len(q.archive)
	fminSnap := q.fmin
	cb := q.OnCheckpoint
	q.mu.Unlock()

	klog.V(1).InfoS("archive updated", "archiveSize", archiveSize, "fmin", fminSnap)
	if doCheckpoint && checkpointPath != "" && cb != nil {
		cb(checkpointPath, checkpointCost)
	}
	return changed
}

func (q *Queue) insertAtLocked(i int, sol *solution.Solution) {
	node := &Node{Sol: sol, ID: q.idCounter}
	q.idCounter++
	q.archive = append(q.archive, nil)
	copy(q.archive[i+1:], q.archive[i:])
	q.archive[i] = node
}

func (q *Queue) resortLocked() {
	sort.SliceStable(q.archive, func(i, j int) bool {
		return q.archive[i].Sol.Cost > q.archive[j].Sol.Cost
	})
}

// mostSimilarLocked returns the archived node with the highest
// similarity to sol among those exceeding θ(sol.Cost).
func (q *Queue) mostSimilarLocked(sol *solution.Solution) (*Node, int, bool) {
	threshold := thresholdFor(q.bands, sol.Cost)
	var best *Node
	bestSim := threshold
	found := false
	for _, node := range q.archive {
		sim := similarity(sol, node.Sol)
		if sim > threshold && sim > bestSim {
			best, bestSim, found = node, sim, true
		}
	}
	return best, bestSim, found
}

func similarity(a, b *solution.Solution) int {
	n := 0
	for f := range a.Assign {
		if a.Assign[f] == b.Assign[f] {
			n++
		}
	}
	return n
}

// Len returns the current archive size, for tests and metrics.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.archive)
}

// Snapshot returns a defensive copy of the archive's costs, ordered
// cost-descending, for tests asserting archive ordering invariants.
func (q *Queue) Snapshot() []float64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	costs := make([]float64, len(q.archive))
	for i, node := range q.archive {
		costs[i] = node.Sol.Cost
	}
	return costs
}

// Fmin returns the best cost observed so far and whether any solution
// has been inserted yet.
func (q *Queue) Fmin() (float64, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.fmin, q.haveFmin
}
