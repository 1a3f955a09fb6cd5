// Package recommendation holds the budget tiers, selection policy knobs and
// the result shape returned by the recommender.
package recommendation

import "github.com/kailas-cloud/vecrec/internal/domain/catalog"

// DefaultSlightlyAboveMultiplier separates "slightly above budget" from "above budget".
const DefaultSlightlyAboveMultiplier = 1.3

// Tier is a price band relative to the stated per-unit budget.
type Tier string

const (
	// TierWithinBudget means price <= budget.
	TierWithinBudget Tier = "within_budget"
	// TierSlightlyAbove means budget < price <= budget*multiplier.
	TierSlightlyAbove Tier = "slightly_above"
	// TierAbove means price > budget*multiplier.
	TierAbove Tier = "above"
)

// TierOf places price into a tier. Every tier computation goes through here
// so that reported counts match what selection filters on.
func TierOf(price, budget, multiplier float64) Tier {
	switch {
	case price <= budget:
		return TierWithinBudget
	case price <= budget*multiplier:
		return TierSlightlyAbove
	default:
		return TierAbove
	}
}

// Tiers is a stable three-way partition of a candidate list.
type Tiers struct {
	Within        []catalog.Candidate
	SlightlyAbove []catalog.Candidate
	Above         []catalog.Candidate
}

// Len returns the number of partitioned candidates.
func (t Tiers) Len() int {
	return len(t.Within) + len(t.SlightlyAbove) + len(t.Above)
}
