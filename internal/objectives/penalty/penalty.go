// Package penalty scores a solution's per-family preference penalty —
// the first of the two weighted terms in the total cost model.
package penalty

import "github.com/brodin-oss/familysched/internal/catalog"

// Score sums the precomputed per-family penalty of the day each family
// is currently assigned to.
func Score(cat *catalog.Catalog, assign []int) float64 {
	var total float64
	for f, d := range assign {
		total += cat.Penalty(f, d)
	}
	return total
}

// Of returns the penalty of assigning family f to day d, a thin
// pass-through kept here so callers scoring a single family need not
// reach into package catalog directly.
func Of(cat *catalog.Catalog, f, d int) float64 {
	return cat.Penalty(f, d)
}
