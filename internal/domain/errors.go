package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidItem signals a catalog item that breaks its own invariants.
	ErrInvalidItem = errors.New("invalid catalog item")
	// ErrInvalidNeed signals a needs query that cannot be decoded.
	ErrInvalidNeed = errors.New("invalid needs query")
	// ErrCatalogUnavailable signals that the catalog store could not be queried.
	// This is the only failure Recommend surfaces to its callers.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingQuotaExceeded signals an exhausted embedding budget.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)
