package contract

import (
	"context"

	"shopassist-be/pkg/store"
)

// ScoredChunk pairs a chunk with both retrieval signals from one call: vector
// similarity and lexical rank.
type ScoredChunk struct {
	Chunk        *store.Chunk
	Similarity   float64 // cosine similarity, 0..1
	LexicalScore float64 // normalized ts_rank, 0..1
}

// ChunkSearchParams narrows a hybrid search. Sku empty means unfiltered.
type ChunkSearchParams struct {
	Sku       string
	Limit     int
	Threshold float64 // minimum cosine similarity applied in the query
}

// ChunkRepository is the vector/hybrid search index over catalog knowledge.
type ChunkRepository interface {
	// SearchHybridWithScore runs one similarity search returning both vector
	// and lexical scores per result.
	SearchHybridWithScore(ctx context.Context, embedding []float32, queryText string, params ChunkSearchParams) ([]*ScoredChunk, error)
	// SearchSimilar is the plain fallback search with no lexical signal.
	SearchSimilar(ctx context.Context, embedding []float32, params ChunkSearchParams) ([]*store.Chunk, error)
}

// ProductRepository is the catalog record store.
type ProductRepository interface {
	GetBySKU(ctx context.Context, sku string) (*store.ProductRecord, error)
	FindBySKUs(ctx context.Context, skus []string) ([]*store.ProductRecord, error)
	SearchByText(ctx context.Context, query string, limit int) ([]*store.ProductRecord, error)
}

// AvailabilityRepository exposes store and nearby-store stock.
type AvailabilityRepository interface {
	GetAvailability(ctx context.Context, sku, storeID string) (*store.Availability, error)
}
