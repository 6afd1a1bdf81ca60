package index

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
)

type Retriever struct {
	store    Store
	embedder embeddings.Embedder
}

func NewRetriever(store Store, embedder embeddings.Embedder) *Retriever {
	return &Retriever{store: store, embedder: embedder}
}

// Retrieve returns the k chunks nearest to query, nearest first. When k
// exceeds the number of indexed chunks every chunk is returned.
func (r *Retriever) Retrieve(ctx context.Context, query, key string, k int) ([]Hit, error) {
	if k <= 0 {
		return []Hit{}, nil
	}

	manifest, err := r.store.Manifest(ctx, key)
	if err != nil {
		return nil, err
	}

	vec, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vec) != manifest.Dimension {
		return nil, fmt.Errorf("%w: query has dimension %d, index has %d", ErrEmbeddingMismatch, len(vec), manifest.Dimension)
	}

	return r.store.Search(ctx, key, vec, min(k, manifest.Count))
}
