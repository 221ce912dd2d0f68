package cost

import (
	"math"
	"testing"

	"github.com/brodin-oss/familysched/internal/catalog"
	"github.com/brodin-oss/familysched/internal/solution"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	choices := [][]int{
		{1, 2, 3},
		{2, 3, 1},
		{3, 1, 2},
	}
	sizes := []int{10, 10, 10}
	cat, err := catalog.New(choices, sizes, 3, 3, 10, 30)
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return cat
}

func testSolution(cat *catalog.Catalog) *solution.Solution {
	s := solution.New(cat.NumFamilies, cat.NumDays)
	s.Assign[0] = 1
	s.Assign[1] = 2
	s.Assign[2] = 3
	s.InitOccupancy([]int{cat.Size(0), cat.Size(1), cat.Size(2)})
	return s
}

func TestTotalIsPenaltyPlusWeightedAccounting(t *testing.T) {
	cat := testCatalog(t)
	ctx := &catalog.ScoringContext{Weight: 2.0}
	sol := testSolution(cat)

	total, p, a := Split(cat, ctx, sol)
	if math.Abs(total-(p+a)) > 1e-9 {
		t.Errorf("total %v != penalty %v + accounting %v", total, p, a)
	}
	if got := Total(cat, ctx, sol); math.Abs(got-total) > 1e-9 {
		t.Errorf("Total() = %v, want Split()'s total %v", got, total)
	}
}

func TestSplitWeightScalesOnlyAccountingPart(t *testing.T) {
	cat := testCatalog(t)
	sol := testSolution(cat)

	_, p1, a1 := Split(cat, &catalog.ScoringContext{Weight: 1.0}, sol)
	_, p2, a2 := Split(cat, &catalog.ScoringContext{Weight: 2.0}, sol)

	if p1 != p2 {
		t.Errorf("penalty part changed with weight: %v vs %v", p1, p2)
	}
	if a1 != 0 && math.Abs(a2-2*a1) > 1e-9 {
		t.Errorf("accounting part did not scale linearly with weight: %v vs %v", a1, a2)
	}
}

func TestRescoreUpdatesCachedCost(t *testing.T) {
	cat := testCatalog(t)
	ctx := catalog.NewScoringContext()
	sol := testSolution(cat)
	sol.Cost = -999 // deliberately stale

	got := Rescore(cat, ctx, sol)
	want := Total(cat, ctx, sol)
	if got != want || sol.Cost != want {
		t.Errorf("Rescore = %v, sol.Cost = %v, want %v", got, sol.Cost, want)
	}
}
