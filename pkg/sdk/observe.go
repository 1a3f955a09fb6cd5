package vecrec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/vecrec/internal/domain"
)

// operation names a client call in logs and metric labels.
type operation string

const (
	opPing      operation = "ping"
	opHealth    operation = "health"
	opRecommend operation = "recommend"
	opCheapest  operation = "cheapest"
	opSeed      operation = "seed"
	opReembed   operation = "reembed"
)

// Outcome labels. Callers alert on catalog_unavailable, not on canceled.
const (
	statusOK          = "ok"
	statusUnavailable = "catalog_unavailable"
	statusCanceled    = "canceled"
	statusError       = "error"
)

func statusOf(err error) string {
	switch {
	case err == nil:
		return statusOK
	case errors.Is(err, domain.ErrCatalogUnavailable):
		return statusUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return statusCanceled
	default:
		return statusError
	}
}

// sdkMetrics is the client's view of the recommender: call outcomes, selection
// modes and re-embed progress.
type sdkMetrics struct {
	operations      *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	recommendations *prometheus.CounterVec
	reembedItems    *prometheus.CounterVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vecrec",
			Subsystem: "sdk",
			Name:      "operations_total",
			Help:      "Client calls by operation and outcome.",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vecrec",
			Subsystem: "sdk",
			Name:      "operation_duration_seconds",
			Help:      "Client call latency by operation.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 5, 30},
		}, []string{"operation"}),
		recommendations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vecrec",
			Subsystem: "sdk",
			Name:      "recommendations_total",
			Help:      "Recommendations returned by selection mode.",
		}, []string{"mode"}),
		reembedItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vecrec",
			Subsystem: "sdk",
			Name:      "reembed_items_total",
			Help:      "Items processed by Reembed, by outcome.",
		}, []string{"outcome"}),
	}
	if err := registerOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.recommendations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.reembedItems); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse lets several clients share one registry.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	err := reg.Register(*c)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return fmt.Errorf("vecrec: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return fmt.Errorf("vecrec: metric already registered with incompatible type: %T", are.ExistingCollector)
	}
	*c = existing
	return nil
}

// observer logs and counts client calls. A nil observer is a no-op.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg != nil {
		m, err := newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
		o.metrics = m
	}
	return o, nil
}

func (o *observer) observe(op operation, start time.Time, err error, attrs ...slog.Attr) {
	if o == nil {
		return
	}
	dur := time.Since(start)
	status := statusOf(err)

	if o.metrics != nil {
		o.metrics.operations.WithLabelValues(string(op), status).Inc()
		o.metrics.duration.WithLabelValues(string(op)).Observe(dur.Seconds())
	}
	if o.logger == nil {
		return
	}

	attrs = append(attrs,
		slog.String("op", string(op)),
		slog.String("status", status),
		slog.Duration("duration", dur),
	)
	if err != nil {
		attrs = append(attrs, slog.Any("error", err))
		o.logger.LogAttrs(context.Background(), slog.LevelWarn, "vecrec operation failed", attrs...)
		return
	}
	o.logger.LogAttrs(context.Background(), slog.LevelDebug, "vecrec operation completed", attrs...)
}

func (o *observer) observeRecommend(start time.Time, res *Result, err error) {
	if o == nil {
		return
	}
	if err != nil {
		o.observe(opRecommend, start, err)
		return
	}
	if o.metrics != nil {
		o.metrics.recommendations.WithLabelValues(string(res.Mode)).Inc()
	}
	o.observe(opRecommend, start, nil,
		slog.String("recommendation_id", res.ID),
		slog.String("mode", string(res.Mode)),
		slog.Int("surfaced", len(res.Items)),
		slog.Int("excluded", res.Budget.TotalExcludedCount),
	)
}

func (o *observer) observeReembed(start time.Time, rep ReembedReport, err error) {
	if o == nil {
		return
	}
	if o.metrics != nil {
		o.metrics.reembedItems.WithLabelValues("embedded").Add(float64(rep.Embedded))
		o.metrics.reembedItems.WithLabelValues("skipped").Add(float64(rep.Skipped))
		o.metrics.reembedItems.WithLabelValues("failed").Add(float64(rep.Failed))
	}
	o.observe(opReembed, start, err,
		slog.Int("total", rep.Total),
		slog.Int("embedded", rep.Embedded),
		slog.Int("failed", rep.Failed),
	)
}
