package recommendation

import (
	"github.com/kailas-cloud/vecrec/internal/domain/catalog"
	"github.com/kailas-cloud/vecrec/internal/domain/need"
)

// Mode records which branch produced a result.
type Mode string

const (
	// ModeBudgetFirst surfaces affordable items first.
	ModeBudgetFirst Mode = "budget_first"
	// ModeShowAll surfaces the similarity-ranked landscape.
	ModeShowAll Mode = "show_all"
	// ModeFallback surfaces the cheapest catalog items after an empty retrieval.
	ModeFallback Mode = "fallback"
)

// Surfaced is a shown candidate annotated with its tier and order total.
type Surfaced struct {
	catalog.Candidate
	Tier           Tier    `json:"tier"`
	EstimatedTotal float64 `json:"estimated_total"`
}

// Annotate tiers every candidate and prices it for quantity units.
func Annotate(cands []catalog.Candidate, q need.Query, multiplier float64) []Surfaced {
	out := make([]Surfaced, len(cands))
	for i := range cands {
		out[i] = Surfaced{
			Candidate:      cands[i],
			Tier:           TierOf(cands[i].Price, q.BudgetPerUnit, multiplier),
			EstimatedTotal: cands[i].Price * float64(q.Quantity),
		}
	}
	return out
}

// Result is the output of one recommendation.
type Result struct {
	ID          string       `json:"id"`
	Mode        Mode         `json:"mode"`
	Items       []Surfaced   `json:"items"`
	Budget      BudgetInfo   `json:"budget"`
	Fallback    bool         `json:"fallback"`
	MissingInfo []need.Field `json:"missing_info,omitempty"`
	Need        need.Query   `json:"need"`
}
