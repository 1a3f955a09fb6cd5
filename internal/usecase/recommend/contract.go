package recommend

import (
	"context"

	"github.com/kailas-cloud/vecrec/internal/domain"
	domcat "github.com/kailas-cloud/vecrec/internal/domain/catalog"
)

// Catalog is the read side of the catalog store.
type Catalog interface {
	SearchSimilar(ctx context.Context, q domcat.SimilarQuery) ([]domcat.Candidate, error)
	Cheapest(ctx context.Context, limit int) ([]domcat.Item, error)
}

// Embedder vectorizes the need text. The production wiring never returns an error
// and substitutes a neutral vector instead.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
