package archive

import (
	"math"
	"testing"

	"golang.org/x/exp/rand"

	"github.com/brodin-oss/familysched/internal/solution"
)

func sol(assign []int, cost float64) *solution.Solution {
	return &solution.Solution{Assign: assign, Occupancy: []int{0}, Cost: cost}
}

func TestDefaultAdmissionPolicyScalesToFullSize(t *testing.T) {
	bands := DefaultAdmissionPolicy(5000)
	want := []int{4970, 4960, 4800}
	for i, b := range bands {
		if b.SimilarityThreshold != want[i] {
			t.Errorf("band %d threshold = %d, want %d", i, b.SimilarityThreshold, want[i])
		}
	}
	if !math.IsInf(bands[len(bands)-1].CostBelow, 1) {
		t.Error("last band should have +Inf CostBelow")
	}
}

func TestDefaultAdmissionPolicyScalesDownProportionally(t *testing.T) {
	bands := DefaultAdmissionPolicy(500)
	want := []int{497, 496, 480}
	for i, b := range bands {
		if b.SimilarityThreshold != want[i] {
			t.Errorf("band %d threshold = %d, want %d", i, b.SimilarityThreshold, want[i])
		}
	}
}

func TestInsertTodoThenSelectIsLIFO(t *testing.T) {
	q := New(t.TempDir(), DefaultAdmissionPolicy(2))
	rng := rand.New(rand.NewSource(1))

	a := sol([]int{1, 1}, 100)
	b := sol([]int{2, 2}, 200)
	q.InsertTodo(a, 1)
	q.InsertTodo(b, 1)

	got := q.Select(rng)
	if got.Cost != b.Cost {
		t.Errorf("Select() cost = %v, want most-recently-pushed %v", got.Cost, b.Cost)
	}
	got2 := q.Select(rng)
	if got2.Cost != a.Cost {
		t.Errorf("second Select() cost = %v, want %v", got2.Cost, a.Cost)
	}
}

func TestSelectRepeatsUntilRepsExhausted(t *testing.T) {
	q := New(t.TempDir(), DefaultAdmissionPolicy(2))
	rng := rand.New(rand.NewSource(1))

	q.InsertTodo(sol([]int{1, 1}, 100), 2)
	first := q.Select(rng)
	second := q.Select(rng)
	if first.Cost != 100 || second.Cost != 100 {
		t.Fatal("expected both draws to come from the same seed job")
	}
	// Reps exhausted; queue and archive are both empty now.
	if got := q.Select(rng); got != nil {
		t.Errorf("Select() after exhausting todo and empty archive = %v, want nil", got)
	}
}

func TestSelectReturnsIndependentClones(t *testing.T) {
	q := New(t.TempDir(), DefaultAdmissionPolicy(2))
	rng := rand.New(rand.NewSource(1))
	q.InsertTodo(sol([]int{1, 1}, 100), 1)

	got := q.Select(rng)
	got.Assign[0] = 99
	q.InsertTodo(sol([]int{1, 1}, 100), 1)
	again := q.Select(rng)
	if again.Assign[0] == 99 {
		t.Error("Select should return a clone, not shared state")
	}
}

func TestInsertHistoryOrdersArchiveCostDescending(t *testing.T) {
	q := New(t.TempDir(), []AdmissionBand{{CostBelow: math.Inf(1), SimilarityThreshold: 0}})

	q.InsertHistory(sol([]int{1, 1, 1}, 300))
	q.InsertHistory(sol([]int{2, 2, 2}, 100))
	q.InsertHistory(sol([]int{3, 3, 3}, 200))

	costs := q.Snapshot()
	for i := 1; i < len(costs); i++ {
		if costs[i] > costs[i-1] {
			t.Fatalf("archive not cost-descending: %v", costs)
		}
	}
	if len(costs) != 3 {
		t.Fatalf("expected all 3 dissimilar solutions admitted, got %d", len(costs))
	}
}

func TestInsertHistoryDropsSimilarWorse(t *testing.T) {
	// Threshold 1: anything matching in >1 of 2 positions (i.e. identical)
	// is considered similar.
	q := New(t.TempDir(), []AdmissionBand{{CostBelow: math.Inf(1), SimilarityThreshold: 1}})

	q.InsertHistory(sol([]int{1, 1}, 100))
	changed := q.InsertHistory(sol([]int{1, 1}, 150)) // identical assignment, worse cost
	if changed {
		t.Error("expected a close, worse duplicate to be dropped (tabu)")
	}
	if got := q.Snapshot(); len(got) != 1 || got[0] != 100 {
		t.Errorf("archive after tabu drop = %v, want [100]", got)
	}
}

func TestInsertHistoryReplacesSimilarBetter(t *testing.T) {
	q := New(t.TempDir(), []AdmissionBand{{CostBelow: math.Inf(1), SimilarityThreshold: 1}})

	q.InsertHistory(sol([]int{1, 1}, 150))
	changed := q.InsertHistory(sol([]int{1, 1}, 100)) // identical assignment, better cost
	if !changed {
		t.Error("expected a close, better duplicate to replace the archived node")
	}
	if got := q.Snapshot(); len(got) != 1 || got[0] != 100 {
		t.Errorf("archive after replace = %v, want [100]", got)
	}
}

func TestInsertHistoryFiresOnCheckpointOnNewGlobalBest(t *testing.T) {
	q := New(t.TempDir(), []AdmissionBand{{CostBelow: math.Inf(1), SimilarityThreshold: 0}})

	var calledPath string
	var calledCost float64
	calls := 0
	q.OnCheckpoint = func(path string, cost float64) {
		calls++
		calledPath = path
		calledCost = cost
	}

	q.InsertHistory(sol([]int{1, 1, 1}, 500))
	if calls != 1 {
		t.Fatalf("expected 1 checkpoint call after first insert, got %d", calls)
	}
	if calledCost != 500 || calledPath == "" {
		t.Errorf("checkpoint callback got cost=%v path=%q", calledCost, calledPath)
	}

	q.InsertHistory(sol([]int{2, 2, 2}, 900)) // worse, not a new global best
	if calls != 1 {
		t.Errorf("expected no additional checkpoint for a worse insert, got %d calls", calls)
	}

	q.InsertHistory(sol([]int{3, 3, 3}, 50)) // new global best
	if calls != 2 {
		t.Errorf("expected a second checkpoint for a new global best, got %d calls", calls)
	}
}

func TestFminReflectsBestSeenCost(t *testing.T) {
	q := New(t.TempDir(), []AdmissionBand{{CostBelow: math.Inf(1), SimilarityThreshold: 0}})
	if _, ok := q.Fmin(); ok {
		t.Fatal("expected no Fmin before any insert")
	}
	q.InsertHistory(sol([]int{1}, 300))
	q.InsertHistory(sol([]int{2}, 150))
	q.InsertHistory(sol([]int{3}, 400))

	best, ok := q.Fmin()
	if !ok || best != 150 {
		t.Errorf("Fmin() = (%v, %v), want (150, true)", best, ok)
	}
}

func TestSampleArchiveReturnsClone(t *testing.T) {
	q := New(t.TempDir(), []AdmissionBand{{CostBelow: math.Inf(1), SimilarityThreshold: 0}})
	q.InsertHistory(sol([]int{1, 1}, 100))
	rng := rand.New(rand.NewSource(7))

	got := q.Select(rng)
	if got == nil {
		t.Fatal("expected a sample from a non-empty archive")
	}
	got.Assign[0] = 999
	again := q.Select(rng)
	if again.Assign[0] == 999 {
		t.Error("archive sampling should return independent clones")
	}
}
