// Package vector provides embedding-based similarity search over item
// names. The index stores one vector per item id alongside flat string
// metadata used to rehydrate matches without a store round trip.
package vector

import "context"

// Match is one scored index hit, best first. Score is cosine similarity
// in [-1, 1]; the pipeline treats anything at or above its configured
// threshold as definite.
type Match struct {
	ID       string
	Score    float64
	Metadata map[string]string
}

// Index is the vector storage boundary.
type Index interface {
	Upsert(ctx context.Context, id string, vec []float32, metadata map[string]string) error
	Delete(ctx context.Context, id string) error
	// Query returns up to k matches sorted by descending score.
	Query(ctx context.Context, vec []float32, k int) ([]Match, error)
}

// Embedder turns text into a vector. Implementations own model choice.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
