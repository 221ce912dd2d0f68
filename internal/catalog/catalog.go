// Package catalog holds the immutable, process-wide family data: each
// family's full day-preference order, its size, and a precomputed
// penalty table keyed by family and day.
//
// A Catalog is built once (from CSV, or synthetically for tests) and
// shared by pointer across worker goroutines. The only per-family-search
// mutable state — the accounting-term weight — lives outside the
// Catalog in a ScoringContext so that workers never contend on it.
package catalog

import "fmt"

// Rank-keyed penalty constants.
const (
	rank1Base = 50.0
	rank2Base = 50.0
	rank3Base = 100.0
	rank4Base = 200.0
	rank5Base = 200.0
	rank6Base = 300.0
	rank7Base = 300.0
	rank8Base = 400.0
	rank9Base = 500.0
	rank10Base = 500.0

	rank2Per  = 9.0
	rank3Per  = 9.0
	rank4Per  = 9.0
	rank5Per  = 18.0
	rank6Per  = 18.0
	rank7Per  = 36.0
	rank8Per  = 36.0
	rank9PerA = 36.0
	rank9PerB = 199.0
	rank10PerA = 36.0
	rank10PerB = 398.0
)

// Catalog is immutable after New returns successfully.
type Catalog struct {
	NumFamilies int
	NumDays     int // days are indexed 1..NumDays; index 0 is unused
	NumChoices  int // length of each family's stated-preference prefix

	MinOccupancy int // closed lower bound of the capacity band
	MaxOccupancy int // closed upper bound of the capacity band

	// choices[f] is a permutation of 1..NumDays; the first NumChoices
	// entries are family f's stated preferences in rank order, the rest
	// follow in caller-supplied order ("rank other").
	choices [][]int
	sizes   []int
	penalty [][]float64 // penalty[f][d], d in 0..NumDays, index 0 unused
}

// ScoringContext carries the one piece of per-worker mutable state: the
// accounting-term weight multiplier. Workers clone a ScoringContext, not
// the Catalog, to avoid copying the O(NumFamilies*NumDays) penalty table.
type ScoringContext struct {
	Weight float64
}

// NewScoringContext returns a context with the default weight of 1.0.
func NewScoringContext() *ScoringContext {
	return &ScoringContext{Weight: 1.0}
}

// New validates and builds a Catalog from raw per-family data.
//
// choices[f] must be a permutation of 1..numDays for every family f, and
// must be at least numChoices long. sizes[f] must be positive.
func New(choices [][]int, sizes []int, numDays, numChoices, minOcc, maxOcc int) (*Catalog, error) {
	numFamilies := len(choices)
	if numFamilies == 0 {
		return nil, fmt.Errorf("catalog: no families supplied")
	}
	if len(sizes) != numFamilies {
		return nil, fmt.Errorf("catalog: %d families but %d sizes", numFamilies, len(sizes))
	}
	if numChoices <= 0 || numChoices > numDays {
		return nil, fmt.Errorf("catalog: invalid numChoices %d for numDays %d", numChoices, numDays)
	}
	for f, row := range choices {
		if len(row) != numDays {
			return nil, fmt.Errorf("catalog: family %d has %d choices, want %d", f, len(row), numDays)
		}
		seen := make(map[int]bool, numDays)
		for _, d := range row {
			if d < 1 || d > numDays {
				return nil, fmt.Errorf("catalog: family %d references out-of-range day %d", f, d)
			}
			if seen[d] {
				return nil, fmt.Errorf("catalog: family %d lists day %d more than once", f, d)
			}
			seen[d] = true
		}
		if sizes[f] <= 0 {
			return nil, fmt.Errorf("catalog: family %d has non-positive size %d", f, sizes[f])
		}
	}

	c := &Catalog{
		NumFamilies:  numFamilies,
		NumDays:      numDays,
		NumChoices:   numChoices,
		MinOccupancy: minOcc,
		MaxOccupancy: maxOcc,
		choices:      choices,
		sizes:        sizes,
	}
	c.precalcPenalty()
	return c, nil
}

// Choices returns family f's full day-preference order (read-only).
func (c *Catalog) Choices(f int) []int { return c.choices[f] }

// Size returns family f's size.
func (c *Catalog) Size(f int) int { return c.sizes[f] }

// Penalty returns the precomputed cost of assigning family f to day d.
func (c *Catalog) Penalty(f, d int) float64 { return c.penalty[f][d] }

func (c *Catalog) precalcPenalty() {
	c.penalty = make([][]float64, c.NumFamilies)
	for f := 0; f < c.NumFamilies; f++ {
		row := make([]float64, c.NumDays+1)
		s := float64(c.sizes[f])
		for d := 1; d <= c.NumDays; d++ {
			row[d] = c.rankPenalty(f, d, s)
		}
		c.penalty[f] = row
	}
}

// rankPenalty computes the penalty of assigning a family of size s to day
// d by locating d's 0-based rank in the family's stated-preference
// prefix (ranks 0..NumChoices-1) or treating it as "other" otherwise.
func (c *Catalog) rankPenalty(f, d int, s float64) float64 {
	rank := c.NumChoices // "other" by default
	for r, choice := range c.choices[f][:c.NumChoices] {
		if choice == d {
			rank = r
			break
		}
	}
	return penaltyForRank(rank, s)
}

// penaltyForRank implements the tiered penalty table. Ranks 0..9 follow
// the explicit formula and any rank of 10 or more takes the rank-10
// penalty. The "other" sentinel passed by rankPenalty is NumChoices, so
// in a catalog with fewer than 10 stated choices days outside the prefix
// get that rank's tier rather than the rank-10 penalty; the curve stays
// monotone by rank either way.
func penaltyForRank(rank int, s float64) float64 {
	switch {
	case rank == 0:
		return 0
	case rank == 1:
		return rank1Base
	case rank == 2:
		return rank2Base + rank2Per*s
	case rank == 3:
		return rank3Base + rank3Per*s
	case rank == 4:
		return rank4Base + rank4Per*s
	case rank == 5:
		return rank5Base + rank5Per*s
	case rank == 6:
		return rank6Base + rank6Per*s
	case rank == 7:
		return rank7Base + rank7Per*s
	case rank == 8:
		return rank8Base + rank8Per*s
	case rank == 9:
		return rank9Base + rank9PerA*s + rank9PerB*s
	default:
		return rank10Base + rank10PerA*s + rank10PerB*s
	}
}
