package schedulerio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/brodin-oss/familysched/internal/catalog"
	"github.com/brodin-oss/familysched/internal/solution"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	choices := [][]int{
		{1, 2, 3, 4},
		{2, 3, 4, 1},
		{3, 4, 1, 2},
	}
	sizes := []int{4, 4, 4}
	cat, err := catalog.New(choices, sizes, 4, 4, 2, 20)
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return cat
}

func TestWriteCheckpointThenReadSolutionRoundTrips(t *testing.T) {
	cat := testCatalog(t)
	ctx := catalog.NewScoringContext()

	sol := solution.New(cat.NumFamilies, cat.NumDays)
	sol.Assign = []int{1, 2, 3}
	sol.InitOccupancy([]int{cat.Size(0), cat.Size(1), cat.Size(2)})
	want := sol.Clone()

	dir := t.TempDir()
	path, err := WriteCheckpoint(dir, sol)
	if err != nil {
		t.Fatalf("WriteCheckpoint: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("checkpoint written outside dir: %s", path)
	}

	got, err := ReadSolution(cat, ctx, path)
	if err != nil {
		t.Fatalf("ReadSolution: %v", err)
	}
	if diff := cmp.Diff(want.Assign, got.Assign); diff != "" {
		t.Errorf("Assign mismatch after round trip (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want.Occupancy, got.Occupancy); diff != "" {
		t.Errorf("Occupancy mismatch after round trip (-want +got):\n%s", diff)
	}
}

func TestWriteCheckpointRejectsMissingDir(t *testing.T) {
	cat := testCatalog(t)
	sol := solution.New(cat.NumFamilies, cat.NumDays)
	sol.Assign = []int{1, 2, 3}

	if _, err := WriteCheckpoint(filepath.Join(t.TempDir(), "does-not-exist"), sol); err == nil {
		t.Fatal("expected error writing to a nonexistent directory")
	}
}

func TestReadSolutionRejectsRowCountMismatch(t *testing.T) {
	cat := testCatalog(t)
	ctx := catalog.NewScoringContext()
	path := filepath.Join(t.TempDir(), "bad.csv")
	content := "family_id,assigned_day\n0,1\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadSolution(cat, ctx, path); err == nil {
		t.Fatal("expected error for row count mismatching NumFamilies")
	}
}

func TestReadSolutionRejectsOutOfRangeDay(t *testing.T) {
	cat := testCatalog(t)
	ctx := catalog.NewScoringContext()
	path := filepath.Join(t.TempDir(), "bad.csv")
	content := "family_id,assigned_day\n0,1\n1,2\n2,99\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadSolution(cat, ctx, path); err == nil {
		t.Fatal("expected error for out-of-range assigned_day")
	}
}
