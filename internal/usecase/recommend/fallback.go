package recommend

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/vecrec/internal/domain"
	domcat "github.com/kailas-cloud/vecrec/internal/domain/catalog"
)

// FallbackSelector picks the cheapest catalog items when retrieval comes back empty.
type FallbackSelector struct {
	catalog Catalog
	limit   int
}

// NewFallbackSelector creates a selector returning at most limit items.
func NewFallbackSelector(c Catalog, limit int) *FallbackSelector {
	return &FallbackSelector{catalog: c, limit: limit}
}

// Fallback returns the cheapest items catalog-wide, unranked and unfiltered.
func (f *FallbackSelector) Fallback(ctx context.Context) ([]domcat.Candidate, error) {
	items, err := f.catalog.Cheapest(ctx, f.limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCatalogUnavailable, err)
	}

	domcat.SortByPrice(items)
	if len(items) > f.limit {
		items = items[:f.limit]
	}

	out := make([]domcat.Candidate, len(items))
	for i := range items {
		out[i] = domcat.Unranked(items[i])
	}
	return out, nil
}
