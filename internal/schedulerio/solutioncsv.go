package schedulerio

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/brodin-oss/familysched/internal/catalog"
	"github.com/brodin-oss/familysched/internal/cost"
	"github.com/brodin-oss/familysched/internal/solution"
)

var solutionHeader = []string{"family_id", "assigned_day"}

// ReadSolution loads a single pre-built solution from a checkpoint-style
// CSV, then derives Occupancy and Cost from it under cat.
func ReadSolution(cat *catalog.Catalog, ctx *catalog.ScoringContext, path string) (*solution.Solution, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("schedulerio: opening solution file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	if _, err := r.Read(); err != nil {
		return nil, fmt.Errorf("schedulerio: reading solution header: %w", err)
	}
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("schedulerio: reading solution rows: %w", err)
	}
	if len(records) != cat.NumFamilies {
		return nil, fmt.Errorf("schedulerio: solution has %d rows, want %d", len(records), cat.NumFamilies)
	}

	sol := solution.New(cat.NumFamilies, cat.NumDays)
	for i, record := range records {
		if len(record) != len(solutionHeader) {
			return nil, fmt.Errorf("schedulerio: solution row %d has %d fields, want %d", i, len(record), len(solutionHeader))
		}
		day, err := strconv.Atoi(record[1])
		if err != nil {
			return nil, fmt.Errorf("schedulerio: solution row %d: bad assigned_day %q: %w", i, record[1], err)
		}
		if day < 1 || day > cat.NumDays {
			return nil, fmt.Errorf("schedulerio: solution row %d: assigned_day %d out of range", i, day)
		}
		sol.Assign[i] = day
	}

	sol.InitOccupancy(sizesOf(cat))
	cost.Rescore(cat, ctx, sol)
	return sol, nil
}

func sizesOf(cat *catalog.Catalog) []int {
	sizes := make([]int, cat.NumFamilies)
	for f := range sizes {
		sizes[f] = cat.Size(f)
	}
	return sizes
}

// WriteCheckpoint writes sol to "<dir>/<cost>.csv", 5000 rows in family
// order plus a header. It returns the path written.
func WriteCheckpoint(dir string, sol *solution.Solution) (string, error) {
	if _, err := os.Stat(dir); err != nil {
		return "", fmt.Errorf("schedulerio: output directory: %w", err)
	}

	path := filepath.Join(dir, strconv.FormatFloat(sol.Cost, 'g', -1, 64)+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("schedulerio: creating checkpoint: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(solutionHeader); err != nil {
		return "", fmt.Errorf("schedulerio: writing checkpoint header: %w", err)
	}
	for f, d := range sol.Assign {
		if err := w.Write([]string{strconv.Itoa(f), strconv.Itoa(d)}); err != nil {
			return "", fmt.Errorf("schedulerio: writing checkpoint row %d: %w", f, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("schedulerio: flushing checkpoint: %w", err)
	}
	return path, nil
}
