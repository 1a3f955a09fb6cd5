package recommend

import (
	domcat "github.com/kailas-cloud/vecrec/internal/domain/catalog"
	"github.com/kailas-cloud/vecrec/internal/domain/recommendation"
)

// Classify partitions candidates into budget tiers, keeping their relative order.
func Classify(cands []domcat.Candidate, budget, multiplier float64) recommendation.Tiers {
	var t recommendation.Tiers
	for _, c := range cands {
		switch recommendation.TierOf(c.Price, budget, multiplier) {
		case recommendation.TierWithinBudget:
			t.Within = append(t.Within, c)
		case recommendation.TierSlightlyAbove:
			t.SlightlyAbove = append(t.SlightlyAbove, c)
		default:
			t.Above = append(t.Above, c)
		}
	}
	return t
}
