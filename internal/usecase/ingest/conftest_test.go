package ingest

import (
	"context"
	"fmt"
	"sync"

	"github.com/kailas-cloud/vecrec/internal/domain"
	domcat "github.com/kailas-cloud/vecrec/internal/domain/catalog"
)

type fakeStore struct {
	mu         sync.Mutex
	items      []domcat.Item
	embeddings map[string][]float32
	ensured    int
	upserted   []domcat.Item
	listErr    error
	setErr     map[string]error
}

func (f *fakeStore) EnsureIndex(context.Context) error {
	f.ensured++
	return nil
}

func (f *fakeStore) Upsert(_ context.Context, items []domcat.Item) error {
	f.upserted = append(f.upserted, items...)
	return nil
}

func (f *fakeStore) List(context.Context) ([]domcat.Item, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.items, nil
}

func (f *fakeStore) SetEmbedding(_ context.Context, id string, vec []float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.setErr[id]; err != nil {
		return err
	}
	if f.embeddings == nil {
		f.embeddings = make(map[string][]float32)
	}
	f.embeddings[id] = vec
	return nil
}

// fakeEmbedder fails for texts listed in fail.
type fakeEmbedder struct {
	fail  map[string]error
	texts []string
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	f.texts = append(f.texts, text)
	if err, ok := f.fail[text]; ok {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{Embedding: []float32{float32(len(text)), 1}}, nil
}

func item(id string, price float64) domcat.Item {
	return domcat.Item{
		ID: id, Name: fmt.Sprintf("Item %s", id), Type: "t-shirt",
		Price: price, MinQty: 1, MaxQty: 100, LeadTimeDays: 3,
	}
}
