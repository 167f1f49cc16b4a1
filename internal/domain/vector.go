package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

// VectorMetadata travels with every stored vector and must be enough to
// reconstruct a dereferenceable link to the source section.
type VectorMetadata struct {
	ArticleTitle     string
	ArticleURL       string
	Lang             string
	Slug             string
	ChunkHTMLID      string
	ChunkTextPreview string
}

// VectorRecord is one upsert unit for the vector index.
type VectorRecord struct {
	ID        string
	Embedding []float32
	Metadata  VectorMetadata
}

// VectorMatch is one nearest-neighbour hit with its similarity score.
type VectorMatch struct {
	ID       string
	Score    float32
	Metadata VectorMetadata
}

// VectorIndex is an external nearest-neighbour store for one language.
type VectorIndex interface {
	// Name returns the index identifier, e.g. "semantic-search-en".
	Name() string

	// Upsert writes records by id; re-indexing the same id overwrites.
	Upsert(ctx context.Context, records []VectorRecord) error

	// Query returns the topK nearest neighbours with metadata, ordered by the
	// backend's native similarity ordering.
	Query(ctx context.Context, vector []float32, topK int) ([]VectorMatch, error)
}

// VectorEncoder generates embeddings in the index's vector space.
type VectorEncoder interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
	Version() string
}

// VectorID derives a deterministic vector id from a unique key, so re-indexing
// the same logical unit overwrites instead of duplicating.
func VectorID(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
