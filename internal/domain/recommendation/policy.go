package recommendation

// Policy defaults.
const (
	DefaultRetrieveLimit    = 20
	DefaultBudgetFirstLimit = 3
	DefaultShowAllLimit     = 10
	DefaultFallbackLimit    = 5

	MinFallbackLimit = 3
	MaxFallbackLimit = 5
)

// Policy holds the window sizes and tier boundary used by the recommender.
type Policy struct {
	RetrieveLimit           int     `yaml:"retrieve_limit" json:"retrieve_limit"`
	BudgetFirstLimit        int     `yaml:"budget_first_limit" json:"budget_first_limit"`
	ShowAllLimit            int     `yaml:"show_all_limit" json:"show_all_limit"`
	FallbackLimit           int     `yaml:"fallback_limit" json:"fallback_limit"`
	SlightlyAboveMultiplier float64 `yaml:"slightly_above_multiplier" json:"slightly_above_multiplier"`
}

// DefaultPolicy returns the stock policy: 20 retrieved, 3 or 10 shown, 5 fallback, 1.3x.
func DefaultPolicy() Policy {
	return Policy{
		RetrieveLimit:           DefaultRetrieveLimit,
		BudgetFirstLimit:        DefaultBudgetFirstLimit,
		ShowAllLimit:            DefaultShowAllLimit,
		FallbackLimit:           DefaultFallbackLimit,
		SlightlyAboveMultiplier: DefaultSlightlyAboveMultiplier,
	}
}

// Normalize fills zero values with defaults and clamps the fallback size to 3..5.
func (p Policy) Normalize() Policy {
	if p.RetrieveLimit <= 0 {
		p.RetrieveLimit = DefaultRetrieveLimit
	}
	if p.BudgetFirstLimit <= 0 {
		p.BudgetFirstLimit = DefaultBudgetFirstLimit
	}
	if p.ShowAllLimit <= 0 {
		p.ShowAllLimit = DefaultShowAllLimit
	}
	if p.FallbackLimit <= 0 {
		p.FallbackLimit = DefaultFallbackLimit
	}
	p.FallbackLimit = max(MinFallbackLimit, min(MaxFallbackLimit, p.FallbackLimit))
	if p.SlightlyAboveMultiplier < 1 {
		p.SlightlyAboveMultiplier = DefaultSlightlyAboveMultiplier
	}
	return p
}
