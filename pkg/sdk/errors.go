package vecrec

import "github.com/kailas-cloud/vecrec/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound               = domain.ErrNotFound
	ErrInvalidItem            = domain.ErrInvalidItem
	ErrInvalidNeed            = domain.ErrInvalidNeed
	ErrCatalogUnavailable     = domain.ErrCatalogUnavailable
	ErrVectorDimMismatch      = domain.ErrVectorDimMismatch
	ErrEmbeddingQuotaExceeded = domain.ErrEmbeddingQuotaExceeded
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
)
