// Package catalog stores catalog items and answers the retrieval queries of the recommender.
// Repo is backed by Valkey hashes with a valkey-search vector index, PGRepo by Postgres with
// pgvector, and Memory by a process-local slice.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/kailas-cloud/vecrec/internal/db"
	"github.com/kailas-cloud/vecrec/internal/domain"
	domcat "github.com/kailas-cloud/vecrec/internal/domain/catalog"
	"github.com/kailas-cloud/vecrec/internal/domain/search/filter"
)

// Index defaults for the HNSW graph.
const (
	DefaultHNSWM              = 16
	DefaultHNSWEFConstruction = 200
)

// overfetchFactor widens the KNN window so price tie-breaks see past the cut.
const overfetchFactor = 2

// store is the consumer interface for catalog operations (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// IndexConfig shapes the vector index.
type IndexConfig struct {
	Dimensions     int
	M              int
	EFConstruction int
}

// Repo is the Valkey-backed catalog.
type Repo struct {
	store     store
	index     IndexConfig
	prefix    string
	indexName string
}

// New creates a Valkey catalog repository.
func New(s store, cfg IndexConfig) *Repo {
	if cfg.M <= 0 {
		cfg.M = DefaultHNSWM
	}
	if cfg.EFConstruction <= 0 {
		cfg.EFConstruction = DefaultHNSWEFConstruction
	}
	prefix := domain.KeyPrefix + "catalog:"
	return &Repo{
		store:     s,
		index:     cfg,
		prefix:    prefix,
		indexName: prefix + "idx",
	}
}

// IndexName returns the FT index name.
func (r *Repo) IndexName() string { return r.indexName }

// EnsureIndex creates the vector index when it is missing.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.indexName)
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	if exists {
		return nil
	}

	def, err := db.NewIndex(r.indexName).
		Prefix(r.prefix).
		Numeric(fieldPrice, fieldMinQty, fieldMaxQty, fieldLeadTime).
		Tag(fieldType).
		Tag(fieldHasEmbedding).
		VectorHNSW(fieldVector, r.index.Dimensions, db.DistanceCosine, r.index.M, r.index.EFConstruction).
		Build()
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// Upsert writes items. An item without an embedding keeps the stored one.
func (r *Repo) Upsert(ctx context.Context, items []domcat.Item) error {
	batch := make([]db.HashSetItem, 0, len(items))
	for i := range items {
		it := &items[i]
		if err := it.Validate(); err != nil {
			return err
		}
		if it.HasEmbedding() && len(it.Embedding) != r.index.Dimensions {
			return fmt.Errorf("%w: %s: got %d, want %d",
				domain.ErrVectorDimMismatch, it.ID, len(it.Embedding), r.index.Dimensions)
		}
		fields, err := buildHashFields(it)
		if err != nil {
			return fmt.Errorf("item %s: %w", it.ID, err)
		}
		batch = append(batch, db.HashSetItem{Key: r.key(it.ID), Fields: fields})
	}
	if err := r.store.HSetMulti(ctx, batch); err != nil {
		return fmt.Errorf("upsert items: %w", err)
	}
	return nil
}

// Get loads one item with its embedding.
func (r *Repo) Get(ctx context.Context, id string) (domcat.Item, error) {
	m, err := r.store.HGetAll(ctx, r.key(id))
	if err != nil {
		return domcat.Item{}, fmt.Errorf("get item %s: %w", id, err)
	}
	if len(m) == 0 {
		return domcat.Item{}, fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
	}
	return parseHashFields(id, m)
}

// List returns every item ordered by ID.
func (r *Repo) List(ctx context.Context) ([]domcat.Item, error) {
	keys, err := r.store.Scan(ctx, r.prefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan items: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}

	items := make([]domcat.Item, 0, len(hashes))
	for i, m := range hashes {
		// deleted between SCAN and HGETALL
		if len(m) == 0 {
			continue
		}
		it, err := parseHashFields(strings.TrimPrefix(keys[i], r.prefix), m)
		if err != nil {
			return nil, fmt.Errorf("item %s: %w", keys[i], err)
		}
		items = append(items, it)
	}
	slices.SortFunc(items, func(a, b domcat.Item) int { return strings.Compare(a.ID, b.ID) })
	return items, nil
}

// Delete removes an item.
func (r *Repo) Delete(ctx context.Context, id string) error {
	if err := r.store.Del(ctx, r.key(id)); err != nil {
		return fmt.Errorf("delete item %s: %w", id, err)
	}
	return nil
}

// SetEmbedding stores the vector of an existing item and marks it eligible for retrieval.
func (r *Repo) SetEmbedding(ctx context.Context, id string, vec []float32) error {
	if len(vec) != r.index.Dimensions {
		return fmt.Errorf("%w: %s: got %d, want %d",
			domain.ErrVectorDimMismatch, id, len(vec), r.index.Dimensions)
	}
	key := r.key(id)
	ok, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check item %s: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
	}
	err = r.store.HSet(ctx, key, map[string]string{
		fieldVector:       vectorBytes(vec),
		fieldHasEmbedding: "true",
	})
	if err != nil {
		return fmt.Errorf("set embedding %s: %w", id, err)
	}
	return nil
}

// SearchSimilar returns the items nearest to q.Vector that pass the hard filters,
// ordered by similarity descending and price ascending.
//
// KNN cuts at K before ties are broken by price, so the search over-fetches and trims
// after sorting. The neutral vector scores every item equally and skips KNN entirely.
func (r *Repo) SearchSimilar(ctx context.Context, q domcat.SimilarQuery) ([]domcat.Candidate, error) {
	if q.Limit <= 0 {
		return nil, nil
	}
	if domain.IsNeutral(q.Vector) {
		return r.searchNeutral(ctx, q)
	}

	filters, err := similarFilters(q)
	if err != nil {
		return nil, err
	}

	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.indexName,
		VectorField:  fieldVector,
		Filters:      filters,
		Vector:       q.Vector,
		K:            q.Limit * overfetchFactor,
		ReturnFields: returnFields,
	})
	if err != nil {
		return nil, fmt.Errorf("search similar: %w", err)
	}
	if sr == nil || len(sr.Entries) == 0 {
		return nil, nil
	}

	out := make([]domcat.Candidate, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		it, err := parseHashFields(strings.TrimPrefix(e.Key, r.prefix), e.Fields)
		if err != nil {
			return nil, fmt.Errorf("hit %s: %w", e.Key, err)
		}
		out = append(out, domcat.Ranked(it, e.Score))
	}
	domcat.SortBySimilarity(out)
	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// searchNeutral lists the eligible items and keeps the cheapest, all at similarity 0.
func (r *Repo) searchNeutral(ctx context.Context, q domcat.SimilarQuery) ([]domcat.Candidate, error) {
	items, err := r.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("search similar: %w", err)
	}

	out := make([]domcat.Candidate, 0, len(items))
	for i := range items {
		if !q.Eligible(&items[i]) {
			continue
		}
		it := items[i]
		it.Embedding = nil
		out = append(out, domcat.Ranked(it, 0))
	}
	domcat.SortBySimilarity(out)
	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// Cheapest returns up to limit items ordered by price, regardless of embeddings.
// valkey-search only answers KNN queries, so the ordering happens client-side.
func (r *Repo) Cheapest(ctx context.Context, limit int) ([]domcat.Item, error) {
	if limit <= 0 {
		return nil, nil
	}
	items, err := r.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("cheapest: %w", err)
	}
	domcat.SortByPrice(items)
	if len(items) > limit {
		items = items[:limit]
	}
	for i := range items {
		items[i].Embedding = nil
	}
	return items, nil
}

func (r *Repo) key(id string) string { return r.prefix + id }

// similarFilters maps the hard eligibility rules onto index filters.
func similarFilters(q domcat.SimilarQuery) (filter.Expression, error) {
	qty := float64(q.Quantity)
	ranges := map[string]filter.Range{
		fieldMinQty: filter.AtMost(qty),
		fieldMaxQty: filter.AtLeast(qty),
	}
	if q.MaxLeadTimeDays != nil {
		ranges[fieldLeadTime] = filter.AtMost(float64(*q.MaxLeadTimeDays))
	}

	must := make([]filter.Condition, 0, len(ranges)+1)
	for _, key := range []string{fieldMinQty, fieldMaxQty, fieldLeadTime} {
		rng, ok := ranges[key]
		if !ok {
			continue
		}
		cond, err := filter.NewRange(key, rng)
		if err != nil {
			return filter.Expression{}, fmt.Errorf("filter %s: %w", key, err)
		}
		must = append(must, cond)
	}

	hasEmb, err := filter.NewMatch(fieldHasEmbedding, "true")
	if err != nil {
		return filter.Expression{}, fmt.Errorf("filter %s: %w", fieldHasEmbedding, err)
	}
	must = append(must, hasEmb)

	expr, err := filter.NewExpression(must, nil)
	if err != nil {
		return filter.Expression{}, fmt.Errorf("filter: %w", err)
	}
	return expr, nil
}
