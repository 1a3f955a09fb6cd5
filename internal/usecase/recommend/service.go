// Package recommend turns a structured customer need into a short list of catalog items.
package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecrec/internal/domain"
	domcat "github.com/kailas-cloud/vecrec/internal/domain/catalog"
	"github.com/kailas-cloud/vecrec/internal/domain/need"
	"github.com/kailas-cloud/vecrec/internal/domain/recommendation"
	"github.com/kailas-cloud/vecrec/internal/logger"
	"github.com/kailas-cloud/vecrec/internal/metrics"
)

// Service assembles recommendations. It holds no per-request state and is safe
// for concurrent use.
type Service struct {
	catalog   Catalog
	retriever *Retriever
	fallback  *FallbackSelector
	policy    recommendation.Policy
	logger    *zap.Logger
}

// New creates a recommendation service. The policy is normalized.
func New(c Catalog, e Embedder, p recommendation.Policy, logger *zap.Logger) *Service {
	p = p.Normalize()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		catalog:   c,
		retriever: NewRetriever(c, e, p.RetrieveLimit),
		fallback:  NewFallbackSelector(c, p.FallbackLimit),
		policy:    p,
		logger:    logger,
	}
}

// Policy returns the effective selection policy.
func (s *Service) Policy() recommendation.Policy { return s.policy }

// Recommend retrieves, tiers and selects items for q.
// It fails only when the catalog is unavailable or ctx is done.
func (s *Service) Recommend(ctx context.Context, q need.Query) (recommendation.Result, error) {
	start := time.Now()
	q = q.Normalize()
	id := uuid.NewString()
	ctx = logger.With(ctx, s.logger, zap.String("recommendation_id", id))

	res, err := s.recommend(ctx, id, q)
	if err != nil {
		metrics.RecommendErrorsTotal.Inc()
		s.log(ctx).Warn("recommendation failed",
			zap.String("product_type", q.ProductType),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return recommendation.Result{}, err
	}

	elapsed := time.Since(start)
	metrics.RecommendationsTotal.WithLabelValues(string(res.Mode)).Inc()
	metrics.RecommendSurfacedItems.WithLabelValues(string(res.Mode)).Observe(float64(len(res.Items)))
	metrics.RecommendDuration.Observe(elapsed.Seconds())

	s.log(ctx).Info("recommendation",
		zap.String("mode", string(res.Mode)),
		zap.String("product_type", q.ProductType),
		zap.Int("quantity", q.Quantity),
		zap.Float64("budget_per_unit", q.BudgetPerUnit),
		zap.Int("surfaced", len(res.Items)),
		zap.Int("within_budget", res.Budget.WithinBudgetCount),
		zap.Int("slightly_above", res.Budget.SlightlyAboveCount),
		zap.Int("above", res.Budget.AboveCount),
		zap.Int("excluded", res.Budget.TotalExcludedCount),
		zap.Bool("fallback", res.Fallback),
		zap.Duration("duration", elapsed),
	)
	return res, nil
}

// Cheapest lists up to limit items by ascending price, ignoring every filter.
func (s *Service) Cheapest(ctx context.Context, limit int) ([]domcat.Item, error) {
	items, err := s.catalog.Cheapest(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCatalogUnavailable, err)
	}
	return items, nil
}

func (s *Service) recommend(ctx context.Context, id string, q need.Query) (recommendation.Result, error) {
	res := recommendation.Result{
		ID:          id,
		Need:        q,
		MissingInfo: q.MissingInfo(),
	}

	cands, err := s.retriever.Retrieve(ctx, q)
	if err != nil {
		return res, fmt.Errorf("retrieve: %w", err)
	}

	var shown []domcat.Candidate
	if len(cands) == 0 {
		if shown, err = s.fallback.Fallback(ctx); err != nil {
			return res, fmt.Errorf("fallback: %w", err)
		}
		res.Mode = recommendation.ModeFallback
		res.Fallback = true
	} else {
		tiers := Classify(cands, q.BudgetPerUnit, s.policy.SlightlyAboveMultiplier)
		shown, res.Budget = Select(cands, q, tiers, s.policy)
		res.Mode = recommendation.ModeBudgetFirst
		if q.ShowAllOptions {
			res.Mode = recommendation.ModeShowAll
		}
	}

	res.Items = recommendation.Annotate(shown, q, s.policy.SlightlyAboveMultiplier)
	return res, nil
}

func (s *Service) log(ctx context.Context) *zap.Logger {
	return logger.FromContextOr(ctx, s.logger)
}
