package vecrec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(context.Background(), optionFunc(func(c *clientConfig) { c.driver = "unknown" }))
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestNew_ValkeyWithoutAddress(t *testing.T) {
	_, err := New(context.Background(), WithValkey("", ""))
	if err == nil {
		t.Fatal("expected error when no address provided")
	}
}

func TestNoopEmbedder(t *testing.T) {
	noop := &noopEmbedder{}
	_, err := noop.Embed(context.Background(), "test")
	if err == nil {
		t.Fatal("expected error from noopEmbedder")
	}
}

func TestEmbedderAdapter(t *testing.T) {
	called := false
	mock := &mockEmbedder{
		fn: func(_ context.Context, _ string) (EmbeddingResult, error) {
			called = true
			return EmbeddingResult{
				Embedding:    []float32{1, 2, 3},
				PromptTokens: 5,
				TotalTokens:  10,
			}, nil
		},
	}

	adapter := &embedderAdapter{inner: mock}
	result, err := adapter.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("inner embedder was not called")
	}
	if len(result.Embedding) != 3 {
		t.Errorf("embedding len = %d, want 3", len(result.Embedding))
	}
	if result.TotalTokens != 10 {
		t.Errorf("total tokens = %d, want 10", result.TotalTokens)
	}
}

func TestEmbedderAdapter_Error(t *testing.T) {
	mock := &mockEmbedder{
		fn: func(_ context.Context, _ string) (EmbeddingResult, error) {
			return EmbeddingResult{}, errors.New("provider down")
		},
	}

	adapter := &embedderAdapter{inner: mock}
	_, err := adapter.Embed(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error from adapter")
	}
}

func TestClientOptions(t *testing.T) {
	cfg := &clientConfig{}

	WithValkey("localhost:6379", "secret").apply(cfg)
	if cfg.driver != driverValkey {
		t.Errorf("driver = %q, want valkey", cfg.driver)
	}
	if cfg.addrs[0] != "localhost:6379" {
		t.Errorf("addr = %q, want localhost:6379", cfg.addrs[0])
	}
	if cfg.password != "secret" {
		t.Errorf("password = %q, want secret", cfg.password)
	}

	WithMemory().apply(cfg)
	if cfg.driver != driverMemory || cfg.addrs != nil {
		t.Errorf("WithMemory left driver=%q addrs=%v", cfg.driver, cfg.addrs)
	}

	cfg2 := &clientConfig{}
	WithRedis("localhost:6380", "pass").apply(cfg2)
	if cfg2.driver != driverRedis {
		t.Errorf("driver = %q, want redis", cfg2.driver)
	}

	WithPostgres("postgres://localhost/vecrec").apply(cfg2)
	if cfg2.driver != driverPostgres || cfg2.dsn != "postgres://localhost/vecrec" {
		t.Errorf("postgres = (%q, %q)", cfg2.driver, cfg2.dsn)
	}

	cfg3 := &clientConfig{}
	WithVectorDimensions(768).apply(cfg3)
	if cfg3.vectorDimensions != 768 {
		t.Errorf("vectorDimensions = %d, want 768", cfg3.vectorDimensions)
	}

	WithHNSW(16, 200).apply(cfg3)
	if cfg3.hnswM != 16 || cfg3.hnswEFConstruct != 200 {
		t.Errorf("hnsw = (%d, %d), want (16, 200)", cfg3.hnswM, cfg3.hnswEFConstruct)
	}

	WithPolicy(Policy{BudgetFirstLimit: 4}).apply(cfg3)
	if cfg3.policy.BudgetFirstLimit != 4 {
		t.Errorf("policy.BudgetFirstLimit = %d, want 4", cfg3.policy.BudgetFirstLimit)
	}

	WithEmbeddingTimeout(time.Second).apply(cfg3)
	WithEmbeddingRate(10).apply(cfg3)
	WithReadinessTimeout(3 * time.Second).apply(cfg3)
	if cfg3.embeddingTimeout != time.Second || cfg3.embeddingRate != 10 || cfg3.readinessTimeout != 3*time.Second {
		t.Errorf("timeouts = (%v, %v, %v)", cfg3.embeddingTimeout, cfg3.embeddingRate, cfg3.readinessTimeout)
	}

	cfg4 := &clientConfig{}
	logger := slog.Default()
	WithLogger(logger).apply(cfg4)
	if cfg4.logger != logger {
		t.Error("expected logger to be set")
	}

	cfg5 := &clientConfig{}
	reg := prometheus.NewRegistry()
	WithPrometheus(reg).apply(cfg5)
	if cfg5.metricsReg != reg {
		t.Error("expected metricsReg to be set")
	}
}

func TestClient_Close_NilCloser(t *testing.T) {
	c := &Client{}
	c.Close()
}

func TestObserver_NilSafe(t *testing.T) {
	var obs *observer
	obs.observe(opPing, time.Now(), nil)
	obs.observeRecommend(time.Now(), &Result{}, nil)
	obs.observeReembed(time.Now(), ReembedReport{}, errors.New("err"))
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, statusOK},
		{fmt.Errorf("retrieve: %w", ErrCatalogUnavailable), statusUnavailable},
		{context.Canceled, statusCanceled},
		{fmt.Errorf("embed: %w", context.DeadlineExceeded), statusCanceled},
		{ErrInvalidItem, statusError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusOf(tt.err), "%v", tt.err)
	}
}

func TestObserver_SharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := newObserver(nil, reg)
	require.NoError(t, err)
	second, err := newObserver(nil, reg)
	require.NoError(t, err)

	first.observe(opCheapest, time.Now(), nil)
	second.observe(opCheapest, time.Now(), nil)
	assert.Equal(t, 2.0, testutil.ToFloat64(first.metrics.operations.WithLabelValues("cheapest", statusOK)))
}

func TestClient_ObservesOperations(t *testing.T) {
	reg := prometheus.NewRegistry()
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c := newMemoryClient(t, WithEmbedder(keywordEmbedder()), WithPrometheus(reg), WithLogger(logger))
	ctx := context.Background()

	_, err := c.Seed(ctx, testCatalog())
	require.NoError(t, err)
	_, err = c.Seed(ctx, []Item{{ID: "bad", MinQty: 10, MaxQty: 1}})
	require.Error(t, err)
	_, err = c.Reembed(ctx, false)
	require.NoError(t, err)
	_, err = c.Recommend(ctx, Need{ProductType: "hoodie", Quantity: 50, BudgetPerUnit: 60})
	require.NoError(t, err)
	_, err = c.Recommend(ctx, Need{ProductType: "hoodie", Quantity: 50, BudgetPerUnit: 60, ShowAllOptions: true})
	require.NoError(t, err)
	_, err = c.Cheapest(ctx, 2)
	require.NoError(t, err)

	m := c.obs.metrics
	ops := func(op operation, status string) float64 {
		return testutil.ToFloat64(m.operations.WithLabelValues(string(op), status))
	}
	assert.Equal(t, 1.0, ops(opSeed, statusOK))
	assert.Equal(t, 1.0, ops(opSeed, statusError))
	assert.Equal(t, 1.0, ops(opReembed, statusOK))
	assert.Equal(t, 2.0, ops(opRecommend, statusOK))
	assert.Equal(t, 1.0, ops(opCheapest, statusOK))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.recommendations.WithLabelValues("budget_first")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.recommendations.WithLabelValues("show_all")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.reembedItems.WithLabelValues("embedded")))
	assert.Equal(t, 4, testutil.CollectAndCount(m.duration))

	out := logs.String()
	assert.Contains(t, out, `"op":"recommend"`)
	assert.Contains(t, out, `"mode":"budget_first"`)
	assert.Contains(t, out, `"surfaced":3`)
	assert.Contains(t, out, `"op":"reembed"`)
	assert.Contains(t, out, `"embedded":5`)
	assert.Contains(t, out, `"op":"seed","status":"error"`)
}

func TestClient_ObservesCatalogOutage(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := newObserver(nil, reg)
	require.NoError(t, err)

	obs.observeRecommend(time.Now(), &Result{}, fmt.Errorf("retrieve: %w", ErrCatalogUnavailable))

	assert.Equal(t, 1.0, testutil.ToFloat64(obs.metrics.operations.WithLabelValues("recommend", statusUnavailable)))
	assert.Zero(t, testutil.CollectAndCount(obs.metrics.recommendations))
}

// --- end to end over the in-memory catalog ---

func hoodie(id string, price float64) Item {
	return Item{
		ID: id, Name: "Hoodie " + id, Type: "hoodie",
		Price: price, MinQty: 10, MaxQty: 500, LeadTimeDays: 7,
	}
}

func testCatalog() []Item {
	return []Item{
		hoodie("h38", 38),
		hoodie("h55", 55),
		hoodie("h75", 75),
		hoodie("h95", 95),
		{ID: "tee5", Name: "Basic Tee", Type: "t-shirt", Price: 5, MinQty: 10, MaxQty: 500, LeadTimeDays: 3},
	}
}

func newMemoryClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	base := []Option{
		WithVectorDimensions(3),
		WithEmbeddingRate(1000),
	}
	c, err := New(context.Background(), append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestClient_RecommendBudgetFirst(t *testing.T) {
	c := newMemoryClient(t, WithEmbedder(keywordEmbedder()))
	ctx := context.Background()

	n, err := c.Seed(ctx, testCatalog())
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	rep, err := c.Reembed(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 5, rep.Embedded)

	res, err := c.Recommend(ctx, Need{ProductType: "hoodie", Quantity: 50, BudgetPerUnit: 60})
	require.NoError(t, err)

	assert.False(t, res.Fallback)
	ids := make([]string, len(res.Items))
	for i, it := range res.Items {
		ids[i] = it.ID
	}
	assert.Equal(t, []string{"h38", "h55", "tee5"}, ids)
	assert.Equal(t, 2, res.Budget.TotalExcludedCount)
	require.NotNil(t, res.Budget.ExcludedPriceRange)
	assert.InDelta(t, 75, res.Budget.ExcludedPriceRange.Min, 1e-9)
	assert.InDelta(t, 95, res.Budget.ExcludedPriceRange.Max, 1e-9)
}

func TestClient_RecommendWithoutEmbedderFallsBack(t *testing.T) {
	c := newMemoryClient(t)
	ctx := context.Background()

	_, err := c.Seed(ctx, testCatalog())
	require.NoError(t, err)

	res, err := c.Recommend(ctx, Need{ProductType: "hoodie", Quantity: 50, BudgetPerUnit: 60})
	require.NoError(t, err)

	assert.True(t, res.Fallback)
	require.NotEmpty(t, res.Items)
	assert.Equal(t, "tee5", res.Items[0].ID)
	assert.Equal(t, BudgetInfo{}, res.Budget)
}

func TestNew_WithItems(t *testing.T) {
	c := newMemoryClient(t, WithEmbedder(keywordEmbedder()), WithItems(testCatalog()...))

	res, err := c.Recommend(context.Background(), Need{ProductType: "hoodie", Quantity: 50, BudgetPerUnit: 60, ShowAllOptions: true})
	require.NoError(t, err)
	require.Len(t, res.Items, 5)
	assert.Equal(t, "h38", res.Items[0].ID)
	assert.Equal(t, 0, res.Budget.TotalExcludedCount)
}

func TestNew_WithInvalidItems(t *testing.T) {
	_, err := New(context.Background(), WithVectorDimensions(3), WithItems(Item{ID: ""}))
	require.ErrorIs(t, err, ErrInvalidItem)
}

func TestClient_Cheapest(t *testing.T) {
	c := newMemoryClient(t)
	ctx := context.Background()

	_, err := c.Seed(ctx, testCatalog())
	require.NoError(t, err)

	items, err := c.Cheapest(ctx, 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "tee5", items[0].ID)
	assert.Equal(t, "h38", items[1].ID)
}

func TestClient_SeedRejectsInvalid(t *testing.T) {
	c := newMemoryClient(t)

	_, err := c.Seed(context.Background(), []Item{{ID: "bad", MinQty: 10, MaxQty: 1}})
	require.ErrorIs(t, err, ErrInvalidItem)
}

func TestClient_PingAndHealth(t *testing.T) {
	c := newMemoryClient(t)

	require.NoError(t, c.Ping(context.Background()))
	h := c.Health(context.Background())
	assert.Equal(t, HealthOK, h.Status)
	assert.True(t, h.CanRecommend())
	assert.Equal(t, "ok", h.Checks["database"])
}

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

// keywordEmbedder maps hoodies, tees and everything else onto orthogonal axes.
func keywordEmbedder() *mockEmbedder {
	return &mockEmbedder{fn: func(_ context.Context, text string) (EmbeddingResult, error) {
		text = strings.ToLower(text)
		switch {
		case strings.Contains(text, "hoodie"):
			return EmbeddingResult{Embedding: []float32{1, 0, 0}}, nil
		case strings.Contains(text, "t-shirt"), strings.Contains(text, "tee"):
			return EmbeddingResult{Embedding: []float32{0, 1, 0}}, nil
		default:
			return EmbeddingResult{Embedding: []float32{0, 0, 1}}, nil
		}
	}}
}
