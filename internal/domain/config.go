package domain

// KeyPrefix namespaces every key vecrec writes to a shared Valkey/Redis instance.
const KeyPrefix = "vecrec:"

// VectorConfig holds internal vectorization settings, not exposed to clients.
type VectorConfig struct {
	Model               string
	Dimensions          int
	DistanceMetric      string
	DocumentInstruction string
	QueryInstruction    string
}

// DefaultVectorConfig returns the default configuration for jina-embeddings-v3.
func DefaultVectorConfig() VectorConfig {
	return VectorConfig{
		Model:          "jina-embeddings-v3",
		Dimensions:     1024,
		DistanceMetric: "cosine",
	}
}
