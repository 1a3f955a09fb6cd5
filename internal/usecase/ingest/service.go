// Package ingest loads the catalog and keeps item embeddings up to date.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/vecrec/internal/domain"
	domcat "github.com/kailas-cloud/vecrec/internal/domain/catalog"
)

// DefaultRatePerSec paces embedding calls during a re-embed run.
const DefaultRatePerSec = 2.0

// Report summarizes a re-embed run.
type Report struct {
	Total    int `json:"total"`
	Embedded int `json:"embedded"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Service seeds the catalog and backfills embeddings.
type Service struct {
	store   Store
	embed   Embedder
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New creates an ingest service. A non-positive rate uses DefaultRatePerSec.
func New(store Store, embed Embedder, ratePerSec float64, logger *zap.Logger) *Service {
	if ratePerSec <= 0 {
		ratePerSec = DefaultRatePerSec
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:   store,
		embed:   embed,
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), 1),
		logger:  logger,
	}
}

// Seed ensures the index exists and upserts items. Existing embeddings survive.
func (s *Service) Seed(ctx context.Context, items []domcat.Item) (int, error) {
	for i := range items {
		if err := items[i].Validate(); err != nil {
			return 0, err
		}
	}
	if err := s.store.EnsureIndex(ctx); err != nil {
		return 0, fmt.Errorf("ensure index: %w", err)
	}
	if len(items) == 0 {
		return 0, nil
	}
	if err := s.store.Upsert(ctx, items); err != nil {
		return 0, fmt.Errorf("upsert: %w", err)
	}
	s.logger.Info("catalog seeded", zap.Int("items", len(items)))
	return len(items), nil
}

// Reembed embeds items lacking a vector, or every item when all is set.
// A failing item is logged and counted. An exhausted quota stops the run.
func (s *Service) Reembed(ctx context.Context, all bool) (Report, error) {
	start := time.Now()
	items, err := s.store.List(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list items: %w", err)
	}

	rep := Report{Total: len(items)}
	for i := range items {
		it := &items[i]
		if it.HasEmbedding() && !all {
			rep.Skipped++
			continue
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return rep, fmt.Errorf("reembed: %w", err)
		}

		res, err := s.embed.Embed(ctx, it.EmbeddingText())
		if err == nil {
			err = s.store.SetEmbedding(ctx, it.ID, res.Embedding)
		}
		if err != nil {
			rep.Failed++
			s.logger.Warn("item embedding failed", zap.String("item_id", it.ID), zap.Error(err))
			if errors.Is(err, domain.ErrEmbeddingQuotaExceeded) || ctx.Err() != nil {
				return rep, fmt.Errorf("reembed stopped at %s: %w", it.ID, err)
			}
			continue
		}
		rep.Embedded++
	}

	s.logger.Info("reembed finished",
		zap.Int("total", rep.Total),
		zap.Int("embedded", rep.Embedded),
		zap.Int("skipped", rep.Skipped),
		zap.Int("failed", rep.Failed),
		zap.Duration("duration", time.Since(start)),
	)
	return rep, nil
}
