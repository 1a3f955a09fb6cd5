package vecrec

import (
	"context"
	"time"

	healthuc "github.com/kailas-cloud/vecrec/internal/usecase/health"
)

// HealthState is the aggregated state of the catalog store and the embedding provider.
type HealthState string

// Health states. Degraded still serves recommendations, with neutral vectors
// standing in for query embeddings.
const (
	HealthOK       HealthState = HealthState(healthuc.Healthy)
	HealthDegraded HealthState = HealthState(healthuc.Degraded)
	HealthError    HealthState = HealthState(healthuc.Unhealthy)
)

// HealthStatus is the result of Client.Health.
type HealthStatus struct {
	Status HealthState
	Checks map[string]string // "database", "embedding" -> "ok" | "error"
}

// CanRecommend reports whether Recommend is expected to succeed.
func (h HealthStatus) CanRecommend() bool {
	return h.Status == HealthOK || h.Status == HealthDegraded
}

// Health probes the catalog store and, when the embedder supports it, the embedding provider.
func (c *Client) Health(ctx context.Context) HealthStatus {
	start := time.Now()
	report := c.healthSvc.Check(ctx)

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	h := HealthStatus{Status: HealthState(report.Status), Checks: checks}

	var err error
	if !h.CanRecommend() {
		err = ErrCatalogUnavailable
	}
	c.obs.observe(opHealth, start, err)
	return h
}

// healthUseCase is the internal interface for health checks.
type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}
