// Package index builds and queries the nearest-neighbour index over model chunks.
package index

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrIndexBuild reports empty input, inconsistent vectors or a corrupt index pair
	ErrIndexBuild = errors.New("index build error")
	// ErrIndexNotFound reports retrieval against an index that was never built
	ErrIndexNotFound = errors.New("index not found")
	// ErrEmbeddingMismatch reports a query vector whose dimension differs from the index
	ErrEmbeddingMismatch = errors.New("embedding dimension mismatch")
)

// Manifest describes one persisted index build. BuildID is written to both
// halves of the index so that a reader can detect a mismatched pair.
type Manifest struct {
	BuildID     string    `yaml:"build_id" json:"build_id"`
	Fingerprint string    `yaml:"fingerprint" json:"fingerprint"`
	Dimension   int       `yaml:"dimension" json:"dimension"`
	BatchSize   int       `yaml:"batch_size" json:"batch_size"`
	Count       int       `yaml:"count" json:"count"`
	BuiltAt     time.Time `yaml:"built_at" json:"built_at"`
}

// Hit is a retrieved chunk with its L2 distance to the query
type Hit struct {
	Position int
	Content  string
	Distance float32
}

// Store persists the vector index and its parallel chunk sequence under a key
type Store interface {
	// Save replaces whatever is stored under key
	Save(ctx context.Context, key string, manifest Manifest, chunks []string, vectors [][]float32) error
	// Manifest returns ErrIndexNotFound when nothing is stored under key
	Manifest(ctx context.Context, key string) (Manifest, error)
	// Search returns up to k hits, nearest first
	Search(ctx context.Context, key string, query []float32, k int) ([]Hit, error)
	// Delete removes the index stored under key; a missing index is not an error
	Delete(ctx context.Context, key string) error
}

// Contents returns the chunk texts of hits in order
func Contents(hits []Hit) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.Content
	}
	return out
}
