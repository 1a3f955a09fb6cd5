package catalog

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/kailas-cloud/vecrec/internal/domain"
	domcat "github.com/kailas-cloud/vecrec/internal/domain/catalog"
)

// Memory is an in-process catalog with brute-force cosine search.
// It serves tests, the CLI and the embedded SDK.
type Memory struct {
	mu    sync.RWMutex
	dim   int
	items map[string]domcat.Item
}

// NewMemory creates an empty in-memory catalog. dim 0 disables the dimension check.
func NewMemory(dim int) *Memory {
	return &Memory{dim: dim, items: make(map[string]domcat.Item)}
}

// EnsureIndex is a no-op.
func (m *Memory) EnsureIndex(context.Context) error { return nil }

// Upsert writes items. An item without an embedding keeps the stored one.
func (m *Memory) Upsert(_ context.Context, items []domcat.Item) error {
	for i := range items {
		if err := items[i].Validate(); err != nil {
			return err
		}
		if !items[i].HasEmbedding() {
			continue
		}
		if err := m.checkDim(items[i].ID, items[i].Embedding); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range items {
		it = cloneItem(it)
		if !it.HasEmbedding() {
			if prev, ok := m.items[it.ID]; ok {
				it.Embedding = prev.Embedding
			}
		}
		m.items[it.ID] = it
	}
	return nil
}

// Get returns one item.
func (m *Memory) Get(_ context.Context, id string) (domcat.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, ok := m.items[id]
	if !ok {
		return domcat.Item{}, fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
	}
	return cloneItem(it), nil
}

// List returns every item ordered by ID.
func (m *Memory) List(context.Context) ([]domcat.Item, error) {
	m.mu.RLock()
	out := make([]domcat.Item, 0, len(m.items))
	for _, it := range m.items {
		out = append(out, cloneItem(it))
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b domcat.Item) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

// Delete removes an item. Missing items are ignored.
func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.items, id)
	m.mu.Unlock()
	return nil
}

// SetEmbedding stores the vector of an existing item.
func (m *Memory) SetEmbedding(_ context.Context, id string, vec []float32) error {
	if err := m.checkDim(id, vec); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
	}
	it.Embedding = slices.Clone(vec)
	m.items[it.ID] = it
	return nil
}

// SearchSimilar scores every eligible item against q.Vector.
func (m *Memory) SearchSimilar(_ context.Context, q domcat.SimilarQuery) ([]domcat.Candidate, error) {
	if q.Limit <= 0 {
		return nil, nil
	}

	m.mu.RLock()
	out := make([]domcat.Candidate, 0, len(m.items))
	for _, it := range m.items {
		if !q.Eligible(&it) {
			continue
		}
		sim := domcat.Cosine(q.Vector, it.Embedding)
		it = cloneItem(it)
		it.Embedding = nil
		out = append(out, domcat.Ranked(it, sim))
	}
	m.mu.RUnlock()

	// map iteration is random; fix the order of exact ties
	slices.SortFunc(out, func(a, b domcat.Candidate) int { return strings.Compare(a.ID, b.ID) })
	domcat.SortBySimilarity(out)
	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// Cheapest returns up to limit items ordered by price.
func (m *Memory) Cheapest(ctx context.Context, limit int) ([]domcat.Item, error) {
	if limit <= 0 {
		return nil, nil
	}
	items, _ := m.List(ctx)
	domcat.SortByPrice(items)
	if len(items) > limit {
		items = items[:limit]
	}
	for i := range items {
		items[i].Embedding = nil
	}
	return items, nil
}

// Ping reports the in-process catalog as reachable.
func (m *Memory) Ping(context.Context) error { return nil }

// Len returns the number of stored items.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

func (m *Memory) checkDim(id string, vec []float32) error {
	if m.dim > 0 && len(vec) != m.dim {
		return fmt.Errorf("%w: %s: got %d, want %d", domain.ErrVectorDimMismatch, id, len(vec), m.dim)
	}
	return nil
}

func cloneItem(it domcat.Item) domcat.Item {
	it.Tags = slices.Clone(it.Tags)
	it.Customization = slices.Clone(it.Customization)
	it.Sizes = slices.Clone(it.Sizes)
	it.Colors = slices.Clone(it.Colors)
	it.Embedding = slices.Clone(it.Embedding)
	it.Stock = maps.Clone(it.Stock)
	return it
}
