package recommendation

import "math"

// PriceRange is an inclusive price band. Min <= Max always holds.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// NewPriceRange builds a range rounded to whole units, swapping inverted bounds.
func NewPriceRange(lo, hi float64) PriceRange {
	lo, hi = math.Round(lo), math.Round(hi)
	if lo > hi {
		lo, hi = hi, lo
	}
	return PriceRange{Min: lo, Max: hi}
}

// BudgetInfo summarizes what the tiering saw and what was held back.
type BudgetInfo struct {
	WithinBudgetCount  int         `json:"within_budget_count"`
	SlightlyAboveCount int         `json:"slightly_above_count"`
	AboveCount         int         `json:"above_count"`
	TotalExcludedCount int         `json:"total_excluded_count"`
	HasMoreOptions     bool        `json:"has_more_options"`
	ExcludedPriceRange *PriceRange `json:"excluded_price_range,omitempty"`
}

// CountTiers fills the tier counts from a partition.
func CountTiers(t Tiers) BudgetInfo {
	return BudgetInfo{
		WithinBudgetCount:  len(t.Within),
		SlightlyAboveCount: len(t.SlightlyAbove),
		AboveCount:         len(t.Above),
	}
}
