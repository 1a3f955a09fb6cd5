package catalog

import (
	"context"
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/kailas-cloud/vecrec/internal/domain"
	domcat "github.com/kailas-cloud/vecrec/internal/domain/catalog"
)

func seededMemory(t *testing.T) *Memory {
	t.Helper()
	m := NewMemory(2)
	near := withEmbedding(testItem("near", 40), 1, 0)
	far := withEmbedding(testItem("far", 10), 0, 1)
	slow := withEmbedding(testItem("slow", 5), 1, 0)
	slow.LeadTimeDays = 30
	bare := testItem("bare", 1)
	if err := m.Upsert(context.Background(), []domcat.Item{near, far, slow, bare}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return m
}

func TestMemory_SearchSimilar(t *testing.T) {
	ten := 10
	tests := []struct {
		name  string
		query domcat.SimilarQuery
		want  []string
	}{
		{
			name:  "hard filters",
			query: domcat.SimilarQuery{Vector: []float32{1, 0}, Quantity: 50, MaxLeadTimeDays: &ten, Limit: 20},
			want:  []string{"near", "far"},
		},
		{
			name:  "quantity above max",
			query: domcat.SimilarQuery{Vector: []float32{1, 0}, Quantity: 501, Limit: 20},
			want:  []string{},
		},
		{
			// near and slow tie on similarity; slow is cheaper
			name:  "limit after tie-break",
			query: domcat.SimilarQuery{Vector: []float32{1, 0}, Quantity: 50, Limit: 1},
			want:  []string{"slow"},
		},
		{
			name:  "zero vector falls back to price",
			query: domcat.SimilarQuery{Vector: []float32{0, 0}, Quantity: 50, Limit: 20},
			want:  []string{"slow", "far", "near"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := seededMemory(t)
			got, err := m.SearchSimilar(context.Background(), tt.query)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ids := candidateIDs(got); !slices.Equal(ids, tt.want) {
				t.Fatalf("ids = %v, want %v", ids, tt.want)
			}
			for _, c := range got {
				if c.Embedding != nil {
					t.Errorf("%s carries its embedding", c.ID)
				}
			}
		})
	}
}

func TestMemory_SearchSimilarScores(t *testing.T) {
	m := seededMemory(t)

	got, err := m.SearchSimilar(context.Background(), domcat.SimilarQuery{
		Vector: []float32{1, 0}, Quantity: 50, Limit: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got[0].Score()-1) > 1e-9 {
		t.Errorf("score = %v, want 1", got[0].Score())
	}

	got, err = m.SearchSimilar(context.Background(), domcat.SimilarQuery{
		Vector: []float32{0, 0}, Quantity: 50, Limit: 20,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, c := range got {
		if c.Score() != 0 {
			t.Errorf("%s score = %v, want 0", c.ID, c.Score())
		}
	}
}

func TestMemory_CheapestIgnoresEmbeddings(t *testing.T) {
	m := seededMemory(t)
	got, err := m.Cheapest(context.Background(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ids := make([]string, len(got))
	for i, it := range got {
		ids[i] = it.ID
	}
	if want := []string{"bare", "slow", "far"}; !slices.Equal(ids, want) {
		t.Errorf("ids = %v, want %v", ids, want)
	}
}

func TestMemory_UpsertKeepsEmbedding(t *testing.T) {
	m := seededMemory(t)
	ctx := context.Background()

	if err := m.Upsert(ctx, []domcat.Item{testItem("near", 45)}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := m.Get(ctx, "near")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Price != 45 {
		t.Errorf("Price = %v, want 45", got.Price)
	}
	if !slices.Equal(got.Embedding, []float32{1, 0}) {
		t.Errorf("Embedding = %v, want kept [1 0]", got.Embedding)
	}
}

func TestMemory_SetEmbedding(t *testing.T) {
	m := seededMemory(t)
	ctx := context.Background()

	if err := m.SetEmbedding(ctx, "bare", []float32{0, 1}); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := m.Get(ctx, "bare")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.HasEmbedding() {
		t.Error("expected embedding")
	}

	if err := m.SetEmbedding(ctx, "missing", []float32{0, 1}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := m.SetEmbedding(ctx, "bare", []float32{0, 1, 2}); !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Errorf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestMemory_ReturnsCopies(t *testing.T) {
	m := seededMemory(t)
	ctx := context.Background()

	got, err := m.Get(ctx, "near")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	got.Tags[0] = "mutated"
	got.Embedding[0] = 42

	again, err := m.Get(ctx, "near")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if again.Tags[0] != "cotton" || again.Embedding[0] != 1 {
		t.Errorf("stored item mutated: %+v", again)
	}
}

func TestMemory_Delete(t *testing.T) {
	m := seededMemory(t)
	if err := m.Delete(context.Background(), "near"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if m.Len() != 3 {
		t.Errorf("Len = %d, want 3", m.Len())
	}
}
