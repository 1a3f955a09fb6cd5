package ingest

import (
	"context"

	"github.com/kailas-cloud/vecrec/internal/domain"
	domcat "github.com/kailas-cloud/vecrec/internal/domain/catalog"
)

// Store is the write side of the catalog.
type Store interface {
	EnsureIndex(ctx context.Context) error
	Upsert(ctx context.Context, items []domcat.Item) error
	List(ctx context.Context) ([]domcat.Item, error)
	SetEmbedding(ctx context.Context, id string, vec []float32) error
}

// Embedder vectorizes item text. Errors are reported, never replaced by neutral vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
