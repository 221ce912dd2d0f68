// Package schedulerio is the thin collaborator layer: CSV parsing of
// family data and solutions, and checkpoint writing. The core only
// depends on the types these functions return/accept
// (*catalog.Catalog, *solution.Solution), never on encoding/csv
// directly.
package schedulerio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/brodin-oss/familysched/internal/catalog"
)

// NumStatedChoices is the width of the stated-preference prefix in the
// family data CSV: columns choice_0..choice_9.
const NumStatedChoices = 10

// TotalDays is the fixed day count of the full-size problem. Smaller
// synthetic catalogs built for tests bypass this file entirely and
// call catalog.New directly with a smaller NumDays.
const TotalDays = 100

// DefaultMinOccupancy and DefaultMaxOccupancy are the fixed capacity
// band of the full-size problem.
const (
	DefaultMinOccupancy = 125
	DefaultMaxOccupancy = 300
)

var familyHeader = []string{
	"family_id",
	"choice_0", "choice_1", "choice_2", "choice_3", "choice_4",
	"choice_5", "choice_6", "choice_7", "choice_8", "choice_9",
	"n_people",
}

// ReadFamilies parses the family data CSV at path and returns a fully
// built Catalog (including the precomputed penalty table). Row order
// must match family_id.
func ReadFamilies(path string) (*catalog.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("schedulerio: opening family file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("schedulerio: reading family file header: %w", err)
	}
	if len(header) != len(familyHeader) {
		return nil, fmt.Errorf("schedulerio: family file has %d columns, want %d", len(header), len(familyHeader))
	}

	var choices [][]int
	var sizes []int
	rowIdx := 0
	for {
		record, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("schedulerio: reading family row %d: %w", rowIdx, err)
		}
		if len(record) == 0 {
			break
		}
		row, size, err := parseFamilyRow(record, rowIdx)
		if err != nil {
			return nil, err
		}
		choices = append(choices, extendChoices(row, TotalDays))
		sizes = append(sizes, size)
		rowIdx++
	}

	cat, err := catalog.New(choices, sizes, TotalDays, NumStatedChoices, DefaultMinOccupancy, DefaultMaxOccupancy)
	if err != nil {
		return nil, fmt.Errorf("schedulerio: building catalog: %w", err)
	}
	return cat, nil
}

func parseFamilyRow(record []string, rowIdx int) ([]int, int, error) {
	if len(record) != len(familyHeader) {
		return nil, 0, fmt.Errorf("schedulerio: family row %d has %d fields, want %d", rowIdx, len(record), len(familyHeader))
	}
	familyID, err := strconv.Atoi(record[0])
	if err != nil {
		return nil, 0, fmt.Errorf("schedulerio: family row %d: bad family_id %q: %w", rowIdx, record[0], err)
	}
	if familyID != rowIdx {
		return nil, 0, fmt.Errorf("schedulerio: family row %d: family_id %d does not match row index", rowIdx, familyID)
	}

	choices := make([]int, NumStatedChoices)
	for i := 0; i < NumStatedChoices; i++ {
		d, err := strconv.Atoi(record[1+i])
		if err != nil {
			return nil, 0, fmt.Errorf("schedulerio: family row %d: bad choice_%d %q: %w", rowIdx, i, record[1+i], err)
		}
		choices[i] = d
	}

	size, err := strconv.Atoi(record[len(record)-1])
	if err != nil {
		return nil, 0, fmt.Errorf("schedulerio: family row %d: bad n_people %q: %w", rowIdx, record[len(record)-1], err)
	}
	if size <= 0 {
		return nil, 0, fmt.Errorf("schedulerio: family row %d: non-positive n_people %d", rowIdx, size)
	}

	return choices, size, nil
}

// extendChoices appends the days missing from the stated prefix, in
// ascending order, so every family's choice row is a full permutation
// of 1..numDays.
func extendChoices(stated []int, numDays int) []int {
	present := make(map[int]bool, numDays)
	for _, d := range stated {
		present[d] = true
	}
	full := append([]int(nil), stated...)
	for d := 1; d <= numDays; d++ {
		if !present[d] {
			full = append(full, d)
		}
	}
	return full
}
