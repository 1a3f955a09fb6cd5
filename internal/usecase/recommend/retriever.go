package recommend

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/vecrec/internal/domain"
	domcat "github.com/kailas-cloud/vecrec/internal/domain/catalog"
	"github.com/kailas-cloud/vecrec/internal/domain/need"
)

// Retriever finds items semantically close to a need that pass the hard filters.
type Retriever struct {
	catalog Catalog
	embed   Embedder
	limit   int
}

// NewRetriever creates a retriever returning at most limit candidates.
func NewRetriever(c Catalog, e Embedder, limit int) *Retriever {
	return &Retriever{catalog: c, embed: e, limit: limit}
}

// Retrieve embeds the need and queries the catalog. Price never filters here.
// The result is ordered by similarity descending, then price ascending.
func (r *Retriever) Retrieve(ctx context.Context, q need.Query) ([]domcat.Candidate, error) {
	emb, err := r.embed.Embed(ctx, q.SearchText())
	if err != nil {
		return nil, fmt.Errorf("embed need: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cands, err := r.catalog.SearchSimilar(ctx, domcat.SimilarQuery{
		Vector:          emb.Embedding,
		Quantity:        q.Quantity,
		MaxLeadTimeDays: q.DeadlineDays,
		Limit:           r.limit,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCatalogUnavailable, err)
	}

	domcat.SortBySimilarity(cands)
	if len(cands) > r.limit {
		cands = cands[:r.limit]
	}
	return cands, nil
}
