package recommend

import (
	"context"
	"sync"

	"github.com/kailas-cloud/vecrec/internal/domain"
	domcat "github.com/kailas-cloud/vecrec/internal/domain/catalog"
)

// fakeCatalog serves canned results and records the last query.
type fakeCatalog struct {
	mu         sync.Mutex
	similar    []domcat.Candidate
	cheapest   []domcat.Item
	similarErr error
	cheapErr   error

	lastQuery  domcat.SimilarQuery
	lastLimit  int
	searches   int
	cheapCalls int
}

func (f *fakeCatalog) SearchSimilar(_ context.Context, q domcat.SimilarQuery) ([]domcat.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = q
	f.searches++
	if f.similarErr != nil {
		return nil, f.similarErr
	}
	out := make([]domcat.Candidate, len(f.similar))
	copy(out, f.similar)
	return out, nil
}

func (f *fakeCatalog) Cheapest(_ context.Context, limit int) ([]domcat.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLimit = limit
	f.cheapCalls++
	if f.cheapErr != nil {
		return nil, f.cheapErr
	}
	out := make([]domcat.Item, len(f.cheapest))
	copy(out, f.cheapest)
	domcat.SortByPrice(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// fakeEmbedder returns a fixed vector.
type fakeEmbedder struct {
	vec      []float32
	err      error
	lastText string
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	f.lastText = text
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}
	return domain.EmbeddingResult{Embedding: f.vec}, nil
}

func ranked(id string, price, sim float64) domcat.Candidate {
	return domcat.Ranked(domcat.Item{ID: id, Price: price, MinQty: 1, MaxQty: 1000}, sim)
}

func ids(cands []domcat.Candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.ID
	}
	return out
}

func prices(cands []domcat.Candidate) []float64 {
	out := make([]float64, len(cands))
	for i, c := range cands {
		out[i] = c.Price
	}
	return out
}
