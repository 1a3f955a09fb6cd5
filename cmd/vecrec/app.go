package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecrec/internal/config"
	"github.com/kailas-cloud/vecrec/internal/db/postgres"
	dbValkey "github.com/kailas-cloud/vecrec/internal/db/valkey"
	"github.com/kailas-cloud/vecrec/internal/domain"
	domcat "github.com/kailas-cloud/vecrec/internal/domain/catalog"
	"github.com/kailas-cloud/vecrec/internal/metrics"
	budgetrepo "github.com/kailas-cloud/vecrec/internal/repository/budget"
	catalogrepo "github.com/kailas-cloud/vecrec/internal/repository/catalog"
	"github.com/kailas-cloud/vecrec/internal/repository/embcache"
	openaiEmb "github.com/kailas-cloud/vecrec/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/vecrec/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/vecrec/internal/usecase/health"
	"github.com/kailas-cloud/vecrec/internal/usecase/ingest"
	"github.com/kailas-cloud/vecrec/internal/usecase/recommend"
	usageuc "github.com/kailas-cloud/vecrec/internal/usecase/usage"
)

// catalogStore is what every catalog backend provides.
type catalogStore interface {
	recommend.Catalog
	ingest.Store
}

// kvStore is the key-value surface shared by the embedding cache and the budget counters.
type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// app is the composition root shared by every subcommand.
type app struct {
	cfg    config.Config
	logger *zap.Logger

	catalog catalogStore
	pinger  healthuc.DBPinger

	// provider is the undecorated embedder, used for health probes.
	provider      *openaiEmb.Embedder
	docEmbedder   domain.Embedder
	queryEmbedder *embeddinguc.Gateway
	budget        *embeddinguc.BudgetTracker

	closers []func()
}

func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	logger.Info("Opening catalog store",
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	var kv kvStore
	readiness := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
	dim := cfg.Embedding.Dimensions

	switch cfg.Database.Driver {
	case config.DriverValkey, config.DriverRedis:
		store, err := dbValkey.NewStore(dbValkey.Config{
			Addrs:    cfg.Database.Addrs,
			Username: cfg.Database.Username,
			Password: cfg.Database.Password,
			DB:       cfg.Database.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("create %s store: %w", cfg.Database.Driver, err)
		}
		a.closers = append(a.closers, store.Close)
		if err := store.WaitForReady(ctx, readiness); err != nil {
			a.Close()
			return nil, fmt.Errorf("database not ready: %w", err)
		}
		a.catalog = catalogrepo.New(store, catalogrepo.IndexConfig{
			Dimensions:     dim,
			M:              cfg.Index.HNSWM,
			EFConstruction: cfg.Index.HNSWEFConstruct,
		})
		a.pinger = store
		kv = store
	case config.DriverPostgres:
		store, err := postgres.Open(postgres.Config{
			DSN:          cfg.Database.DSN,
			MaxIdleConns: cfg.Database.MaxIdleConns,
			MaxOpenConns: cfg.Database.MaxOpenConns,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("create postgres store: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		if err := store.WaitForReady(ctx, readiness); err != nil {
			a.Close()
			return nil, fmt.Errorf("database not ready: %w", err)
		}
		a.catalog = catalogrepo.NewPostgres(store, dim)
		a.pinger = store
	case config.DriverMemory:
		mem := catalogrepo.NewMemory(dim)
		a.catalog = mem
		a.pinger = mem
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterRecommendMetrics()
	metrics.RegisterHTTPMetrics()

	a.budget = newBudgetTracker(ctx, cfg.Embedding, kv, logger)

	// Pass nil interface (not typed nil pointer!) if budget is not configured.
	var budget embeddinguc.BudgetChecker
	if a.budget != nil {
		budget = a.budget
	}

	a.provider = openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: dim,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})
	a.docEmbedder = buildEmbedder(a.provider, cfg.Embedding, cfg.Embedding.DocumentInstruction, kv, budget, logger)
	a.queryEmbedder = embeddinguc.NewGateway(
		buildEmbedder(a.provider, cfg.Embedding, cfg.Embedding.QueryInstruction, kv, budget, logger),
		dim, cfg.Embedding.Timeout(), logger,
	)
	logger.Info("Embedders created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", dim),
		zap.Bool("cache", kv != nil && cfg.Embedding.Cache.Enabled),
	)

	return a, nil
}

// Close releases store connections in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *app) recommender() *recommend.Service {
	return recommend.New(a.catalog, a.queryEmbedder, a.cfg.Recommend, a.logger)
}

func (a *app) ingester() *ingest.Service {
	return ingest.New(a.catalog, a.docEmbedder, a.cfg.Catalog.ReembedRatePerSec, a.logger)
}

func (a *app) usage() *usageuc.Service {
	var br usageuc.BudgetReader
	if a.budget != nil {
		br = a.budget
	}
	return usageuc.New(br)
}

func (a *app) health() *healthuc.Service {
	return healthuc.New(a.pinger, newEmbeddingHealthChecker(a.provider))
}

// seedFromFile loads the configured catalog file, upserts it and embeds what is missing.
func (a *app) seedFromFile(ctx context.Context, path string) error {
	items, err := ingest.LoadCatalogFile(path)
	if err != nil {
		return err
	}
	return a.seed(ctx, items)
}

func (a *app) seed(ctx context.Context, items []domcat.Item) error {
	svc := a.ingester()
	n, err := svc.Seed(ctx, items)
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	rep, err := svc.Reembed(ctx, false)
	if err != nil {
		return fmt.Errorf("embed catalog: %w", err)
	}
	a.logger.Info("Catalog seeded",
		zap.Int("items", n),
		zap.Int("embedded", rep.Embedded),
		zap.Int("failed", rep.Failed),
	)
	return nil
}

// newBudgetTracker returns nil when no limit is configured.
func newBudgetTracker(
	ctx context.Context, cfg config.EmbeddingConfig, kv kvStore, logger *zap.Logger,
) *embeddinguc.BudgetTracker {
	b := cfg.Budget
	if b.DailyTokenLimit <= 0 && b.MonthlyTokenLimit <= 0 {
		return nil
	}
	action := embeddinguc.BudgetActionWarn
	if b.Action == "reject" {
		action = embeddinguc.BudgetActionReject
	}
	tracker := embeddinguc.NewBudgetTracker(cfg.Provider, b.DailyTokenLimit, b.MonthlyTokenLimit, action, logger)
	if kv != nil {
		// Counters survive restarts only on the key-value drivers.
		tracker.WithStore(ctx, budgetrepo.New(kv, 0, 0))
	}
	return tracker
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction
func buildEmbedder(
	base *openaiEmb.Embedder,
	cfg config.EmbeddingConfig,
	instruction string,
	kv kvStore,
	budget embeddinguc.BudgetChecker,
	logger *zap.Logger,
) domain.Embedder {
	var embedder domain.Embedder = base
	if kv != nil && cfg.Cache.Enabled {
		embedder = embcache.New(
			base, kv, cfg.Model, time.Duration(cfg.Cache.TTLSec)*time.Second,
			metrics.EmbeddingCacheTotal, logger,
		)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Provider, cfg.Model, budget, logger)

	// Instruction prefix (outermost, cache key includes instruction)
	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}
	return embedder
}

// embeddingHealthChecker adapts a provider to health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}
