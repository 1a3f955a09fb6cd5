package catalog

// SimilarQuery is a similarity search with the hard eligibility filters.
// Every value travels as a structured parameter to the store.
type SimilarQuery struct {
	Vector          []float32
	Quantity        int  // minQty <= Quantity <= maxQty
	MaxLeadTimeDays *int // nil means no lead-time filter
	Limit           int
}

// Eligible reports whether it passes the hard filters of q.
func (q SimilarQuery) Eligible(it *Item) bool {
	return it.HasEmbedding() && it.Accepts(q.Quantity) && it.DeliversWithin(q.MaxLeadTimeDays)
}
