package penalty

import (
	"testing"

	"github.com/brodin-oss/familysched/internal/catalog"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	choices := [][]int{
		{1, 2, 3, 4, 5},
		{3, 1, 2, 4, 5},
	}
	sizes := []int{4, 3}
	cat, err := catalog.New(choices, sizes, 5, 5, 1, 100)
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return cat
}

func TestScoreSumsPerFamilyPenalty(t *testing.T) {
	cat := testCatalog(t)
	assign := []int{1, 3} // both families at their first choice
	got := Score(cat, assign)
	if got != 0 {
		t.Errorf("Score at all-first-choice = %v, want 0", got)
	}
}

func TestScoreAccumulatesAcrossFamilies(t *testing.T) {
	cat := testCatalog(t)
	assign := []int{2, 1} // family 0 at rank 1, family 1 at rank 1
	want := cat.Penalty(0, 2) + cat.Penalty(1, 1)
	if got := Score(cat, assign); got != want {
		t.Errorf("Score = %v, want %v", got, want)
	}
}

func TestOfMatchesCatalogPenalty(t *testing.T) {
	cat := testCatalog(t)
	if got, want := Of(cat, 0, 4), cat.Penalty(0, 4); got != want {
		t.Errorf("Of(0, 4) = %v, want %v", got, want)
	}
}
