package vecrec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.uber.org/zap"

	dbPostgres "github.com/kailas-cloud/vecrec/internal/db/postgres"
	dbValkey "github.com/kailas-cloud/vecrec/internal/db/valkey"
	"github.com/kailas-cloud/vecrec/internal/domain"
	catalogrepo "github.com/kailas-cloud/vecrec/internal/repository/catalog"
	embeddinguc "github.com/kailas-cloud/vecrec/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/vecrec/internal/usecase/health"
	"github.com/kailas-cloud/vecrec/internal/usecase/ingest"
	"github.com/kailas-cloud/vecrec/internal/usecase/recommend"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces, swapped out in tests.
type recommendUseCase interface {
	Recommend(ctx context.Context, q Need) (Result, error)
	Cheapest(ctx context.Context, limit int) ([]Item, error)
}

type ingestUseCase interface {
	Seed(ctx context.Context, items []Item) (int, error)
	Reembed(ctx context.Context, all bool) (ReembedReport, error)
}

type catalogStore interface {
	recommend.Catalog
	ingest.Store
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Client is the vecrec SDK entry point.
type Client struct {
	pinger    pinger
	closer    func()
	recSvc    recommendUseCase
	ingestSvc ingestUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client. With a remote driver it waits for the database, bounded
// by the readiness timeout and ctx.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		driver:           driverMemory,
		vectorDimensions: domain.DefaultVectorConfig().Dimensions,
		readinessTimeout: defaultReadinessTimeout,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	cat, p, closer, err := openCatalog(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c := wireClient(cat, p, closer, cfg, obs)

	if len(cfg.items) > 0 {
		if _, err := c.Seed(ctx, cfg.items); err != nil {
			c.Close()
			return nil, fmt.Errorf("vecrec: seed: %w", err)
		}
		if cfg.embedder == nil {
			return c, nil
		}
		if _, err := c.Reembed(ctx, false); err != nil {
			c.Close()
			return nil, fmt.Errorf("vecrec: embed: %w", err)
		}
	}
	return c, nil
}

func openCatalog(ctx context.Context, cfg *clientConfig) (catalogStore, pinger, func(), error) {
	switch cfg.driver {
	case driverMemory:
		mem := catalogrepo.NewMemory(cfg.vectorDimensions)
		return mem, mem, func() {}, nil
	case driverValkey, driverRedis:
		if len(cfg.addrs) == 0 || cfg.addrs[0] == "" {
			return nil, nil, nil, errors.New("vecrec: database address required")
		}
		s, err := dbValkey.NewStore(dbValkey.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("vecrec: create %s store: %w", cfg.driver, err)
		}
		if err := s.WaitForReady(ctx, cfg.readinessTimeout); err != nil {
			s.Close()
			return nil, nil, nil, fmt.Errorf("vecrec: database not ready: %w", err)
		}
		repo := catalogrepo.New(s, catalogrepo.IndexConfig{
			Dimensions:     cfg.vectorDimensions,
			M:              cfg.hnswM,
			EFConstruction: cfg.hnswEFConstruct,
		})
		return repo, s, s.Close, nil
	case driverPostgres:
		s, err := dbPostgres.Open(dbPostgres.Config{DSN: cfg.dsn}, zap.NewNop())
		if err != nil {
			return nil, nil, nil, fmt.Errorf("vecrec: create postgres store: %w", err)
		}
		if err := s.WaitForReady(ctx, cfg.readinessTimeout); err != nil {
			s.Close()
			return nil, nil, nil, fmt.Errorf("vecrec: database not ready: %w", err)
		}
		return catalogrepo.NewPostgres(s, cfg.vectorDimensions), s, s.Close, nil
	default:
		return nil, nil, nil, fmt.Errorf("vecrec: unknown driver %q", cfg.driver)
	}
}

func wireClient(cat catalogStore, p pinger, closer func(), cfg *clientConfig, obs *observer) *Client {
	// Embedder: noop if not set, queries then fall back to neutral vectors.
	var domEmb domain.Embedder = &noopEmbedder{}
	if cfg.embedder != nil {
		domEmb = &embedderAdapter{inner: cfg.embedder}
	}
	query := embeddinguc.NewGateway(domEmb, cfg.vectorDimensions, cfg.embeddingTimeout, zap.NewNop())

	var embCheck healthuc.EmbeddingChecker
	if hc, ok := cfg.embedder.(domain.HealthChecker); ok {
		embCheck = hc
	}

	return &Client{
		pinger:    p,
		closer:    closer,
		recSvc:    recommend.New(cat, query, cfg.policy, nil),
		ingestSvc: ingest.New(cat, domEmb, cfg.embeddingRate, nil),
		healthSvc: healthuc.New(p, embCheck),
		obs:       obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.closer != nil {
		c.closer()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe(opPing, start, err) }()

	if err = c.pinger.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Recommend matches a need against the catalog. The only error it returns wraps
// ErrCatalogUnavailable (or a context error).
func (c *Client) Recommend(ctx context.Context, q Need) (res Result, err error) {
	start := time.Now()
	defer func() { c.obs.observeRecommend(start, &res, err) }()

	return c.recSvc.Recommend(ctx, q)
}

// Cheapest returns up to limit items ordered by ascending price.
func (c *Client) Cheapest(ctx context.Context, limit int) (items []Item, err error) {
	start := time.Now()
	defer func() { c.obs.observe(opCheapest, start, err, slog.Int("limit", limit), slog.Int("returned", len(items))) }()

	return c.recSvc.Cheapest(ctx, limit)
}

// Seed upserts items, creating the vector index when needed. Stored vectors of
// existing items are kept. It returns the number of items written.
func (c *Client) Seed(ctx context.Context, items []Item) (n int, err error) {
	start := time.Now()
	defer func() { c.obs.observe(opSeed, start, err, slog.Int("items", n)) }()

	return c.ingestSvc.Seed(ctx, items)
}

// Reembed computes embeddings for items that have none, or for every item when all is set.
func (c *Client) Reembed(ctx context.Context, all bool) (rep ReembedReport, err error) {
	start := time.Now()
	defer func() { c.obs.observeReembed(start, rep, err) }()

	return c.ingestSvc.Reembed(ctx, all)
}

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// noopEmbedder returns an error on Embed call (used when no embedder configured).
type noopEmbedder struct{}

func (noopEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, errors.New("vecrec: embedder not configured (use WithEmbedder)")
}
