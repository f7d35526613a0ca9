// Package reconcile merges candidate regions from multiple detection
// strategies into one deduplicated set.
//
// Reconciliation is greedy and area-biased: candidates are considered
// largest first, and a candidate is dropped when it overlaps an already
// accepted region by more than the threshold. Regions are never merged;
// the larger of two duplicates always wins whole.
package reconcile

import (
	"fmt"
	"sort"

	"github.com/clipline/clipline/model"
)

// DefaultOverlapThreshold is the overlap fraction above which the smaller
// of two candidates is discarded.
const DefaultOverlapThreshold = 0.5

// Config holds configuration for reconciliation.
type Config struct {
	// OverlapThreshold is the overlap fraction (intersection area over the
	// smaller box's area) a candidate must strictly exceed against an
	// accepted region to be discarded. Must be in (0, 1].
	OverlapThreshold float64
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{OverlapThreshold: DefaultOverlapThreshold}
}

// Validate checks configuration values before any reconciliation runs.
func (c Config) Validate() error {
	if c.OverlapThreshold <= 0 || c.OverlapThreshold > 1 {
		return fmt.Errorf("reconcile: OverlapThreshold must be in (0,1], got %g", c.OverlapThreshold)
	}
	return nil
}

// Reconciler deduplicates candidate regions across detection strategies.
type Reconciler struct {
	config Config
}

// NewReconciler creates a reconciler with default configuration.
func NewReconciler() *Reconciler {
	return &Reconciler{config: DefaultConfig()}
}

// NewReconcilerWithConfig creates a reconciler with custom configuration.
func NewReconcilerWithConfig(config Config) (*Reconciler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Reconciler{config: config}, nil
}

// Reconcile merges candidate sets into one deduplicated result. The inputs
// are not mutated. Candidates are ranked by area descending (ties broken by
// top-left position) and accepted greedily; a candidate overlapping any
// accepted region by strictly more than the threshold is dropped. Overlap
// at exactly the threshold keeps both. The result is ordered top-to-bottom,
// left-to-right for stable downstream numbering.
func (r *Reconciler) Reconcile(candidates ...[]model.Region) []model.Region {
	var pool []model.Region
	for _, set := range candidates {
		pool = append(pool, set...)
	}
	if len(pool) == 0 {
		return nil
	}

	sort.SliceStable(pool, func(i, j int) bool {
		ai, aj := pool[i].BBox.Area(), pool[j].BBox.Area()
		if ai != aj {
			return ai > aj
		}
		if pool[i].BBox.Y0 != pool[j].BBox.Y0 {
			return pool[i].BBox.Y0 < pool[j].BBox.Y0
		}
		return pool[i].BBox.X0 < pool[j].BBox.X0
	})

	accepted := make([]model.Region, 0, len(pool))
	for _, cand := range pool {
		duplicate := false
		for _, kept := range accepted {
			if cand.BBox.OverlapFraction(kept.BBox) > r.config.OverlapThreshold {
				duplicate = true
				break
			}
		}
		if !duplicate {
			accepted = append(accepted, cand)
		}
	}

	sort.SliceStable(accepted, func(i, j int) bool {
		if accepted[i].BBox.Y0 != accepted[j].BBox.Y0 {
			return accepted[i].BBox.Y0 < accepted[j].BBox.Y0
		}
		return accepted[i].BBox.X0 < accepted[j].BBox.X0
	})

	return accepted
}
