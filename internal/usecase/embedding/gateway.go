package embedding

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecrec/internal/domain"
	"github.com/kailas-cloud/vecrec/internal/logger"
	"github.com/kailas-cloud/vecrec/internal/metrics"
)

// DefaultTimeout bounds a single embedding round trip.
const DefaultTimeout = 5 * time.Second

// Fallback reasons reported on vecrec_embedding_fallback_total.
const (
	ReasonTimeout   = "timeout"
	ReasonCanceled  = "canceled"
	ReasonQuota     = "quota"
	ReasonDimension = "dimension"
	ReasonError     = "error"
)

// Gateway makes one bounded embedding attempt and substitutes an all-zero vector
// of the configured dimension when it fails. Embed never returns an error.
type Gateway struct {
	inner   domain.Embedder
	dim     int
	timeout time.Duration
	logger  *zap.Logger
}

// NewGateway wraps inner. A non-positive timeout uses DefaultTimeout.
func NewGateway(inner domain.Embedder, dim int, timeout time.Duration, logger *zap.Logger) *Gateway {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if dim <= 0 {
		dim = domain.DefaultVectorConfig().Dimensions
	}
	return &Gateway{inner: inner, dim: dim, timeout: timeout, logger: logger}
}

// Dimensions returns the vector size produced by Embed.
func (g *Gateway) Dimensions() int { return g.dim }

// Embed returns the provider vector or a neutral vector with Neutral set.
func (g *Gateway) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	result, err := g.inner.Embed(callCtx, text)
	if err == nil && len(result.Embedding) != g.dim {
		return g.neutral(ctx, ReasonDimension, errors.New("unexpected vector dimension"),
			zap.Int("got", len(result.Embedding)), zap.Int("want", g.dim)), nil
	}
	if err != nil {
		return g.neutral(ctx, g.reason(ctx, callCtx, err), err), nil
	}
	return result, nil
}

func (g *Gateway) reason(parent, call context.Context, err error) string {
	switch {
	case parent.Err() != nil:
		return ReasonCanceled
	case errors.Is(call.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case errors.Is(err, domain.ErrEmbeddingQuotaExceeded):
		return ReasonQuota
	default:
		return ReasonError
	}
}

func (g *Gateway) neutral(ctx context.Context, reason string, err error, fields ...zap.Field) domain.EmbeddingResult {
	metrics.EmbeddingFallbackTotal.WithLabelValues(reason).Inc()
	logger.FromContextOr(ctx, g.logger).Warn("Embedding unavailable, using neutral vector",
		append(fields,
			zap.String("reason", reason),
			zap.Duration("timeout", g.timeout),
			zap.Error(err),
		)...,
	)
	return domain.EmbeddingResult{Embedding: domain.NeutralVector(g.dim), Neutral: true}
}
