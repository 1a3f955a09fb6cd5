package recommend

import (
	domcat "github.com/kailas-cloud/vecrec/internal/domain/catalog"
	"github.com/kailas-cloud/vecrec/internal/domain/need"
	"github.com/kailas-cloud/vecrec/internal/domain/recommendation"
)

// Select decides which candidates to surface and summarizes the rest.
//
// Show-all surfaces the head of the similarity ranking and excludes nothing.
// Budget-first surfaces the head of the within-budget tier, or the head of the
// full ranking when nothing fits the budget, and reports what was held back.
func Select(
	cands []domcat.Candidate, q need.Query, tiers recommendation.Tiers, p recommendation.Policy,
) ([]domcat.Candidate, recommendation.BudgetInfo) {
	info := recommendation.CountTiers(tiers)

	if q.ShowAllOptions {
		return head(cands, p.ShowAllLimit), info
	}

	// Surfaced candidates are tracked by position, not by id.
	withinOnly := len(tiers.Within) > 0
	picked := make([]bool, len(cands))
	surfaced := make([]domcat.Candidate, 0, p.BudgetFirstLimit)
	for i, c := range cands {
		if len(surfaced) == p.BudgetFirstLimit {
			break
		}
		if withinOnly &&
			recommendation.TierOf(c.Price, q.BudgetPerUnit, p.SlightlyAboveMultiplier) != recommendation.TierWithinBudget {
			continue
		}
		picked[i] = true
		surfaced = append(surfaced, c)
	}

	var lo, hi float64
	for i, c := range cands {
		if picked[i] {
			continue
		}
		if info.TotalExcludedCount == 0 {
			lo, hi = c.Price, c.Price
		}
		lo, hi = min(lo, c.Price), max(hi, c.Price)
		info.TotalExcludedCount++
	}

	if info.TotalExcludedCount > 0 {
		r := recommendation.NewPriceRange(lo, hi)
		info.ExcludedPriceRange = &r
		info.HasMoreOptions = true
	}
	return surfaced, info
}

func head(cands []domcat.Candidate, n int) []domcat.Candidate {
	if len(cands) > n {
		cands = cands[:n]
	}
	out := make([]domcat.Candidate, len(cands))
	copy(out, cands)
	return out
}
