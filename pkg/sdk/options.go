package vecrec

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

// Catalog drivers.
const (
	driverMemory   = "memory"
	driverValkey   = "valkey"
	driverRedis    = "redis"
	driverPostgres = "postgres"
)

type clientConfig struct {
	driver   string
	addrs    []string
	password string
	dsn      string

	embedder         Embedder
	embeddingTimeout time.Duration
	embeddingRate    float64

	vectorDimensions int
	hnswM            int
	hnswEFConstruct  int
	policy           Policy

	readinessTimeout time.Duration
	items            []Item

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithMemory keeps the catalog in process memory. This is the default.
func WithMemory() Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverMemory
		c.addrs = nil
	})
}

// WithValkey stores the catalog in a Valkey instance with valkey-search.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverValkey
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis stores the catalog in a Redis 8+ instance with the query engine.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverRedis
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithPostgres stores the catalog in PostgreSQL with the pgvector extension.
func WithPostgres(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverPostgres
		c.dsn = dsn
	})
}

// WithItems seeds the catalog during New and embeds items that have no vector.
func WithItems(items ...Item) Option {
	return optionFunc(func(c *clientConfig) {
		c.items = append(c.items, items...)
	})
}

// WithEmbedder sets the text embedding provider.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithEmbeddingTimeout bounds each query embedding. Defaults to 5s.
func WithEmbeddingTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.embeddingTimeout = d
	})
}

// WithEmbeddingRate caps item embeddings per second during Reembed. Defaults to 2.
func WithEmbeddingRate(perSec float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.embeddingRate = perSec
	})
}

// WithVectorDimensions sets the embedding size. Defaults to 1024.
func WithVectorDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.vectorDimensions = dim
	})
}

// WithHNSW configures HNSW index parameters for the Valkey and Redis drivers.
// Defaults: M=16, EFConstruct=200.
func WithHNSW(m, efConstruct int) Option {
	return optionFunc(func(c *clientConfig) {
		c.hnswM = m
		c.hnswEFConstruct = efConstruct
	})
}

// WithPolicy overrides the recommendation policy. Zero fields keep their defaults.
func WithPolicy(p Policy) Option {
	return optionFunc(func(c *clientConfig) {
		c.policy = p
	})
}

// WithReadinessTimeout bounds the initial database readiness wait. Defaults to 10s.
func WithReadinessTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.readinessTimeout = d
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (call outcomes and latency, recommendations
// by mode, re-embed item outcomes) on the given registerer. Pass nil to disable
// (default). Clients sharing a registerer share the collectors.
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
