package index

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"bim-rag/internal/embedding"
	"bim-rag/internal/helper"
	"bim-rag/internal/models"
)

// Source identifies the model content an index was built from
type Source struct {
	Fingerprint string
	BatchSize   int
}

type Builder struct {
	store    Store
	embedder embeddings.Embedder
}

func NewBuilder(store Store, embedder embeddings.Embedder) *Builder {
	return &Builder{store: store, embedder: embedder}
}

// Build embeds the chunks and stores them under key, replacing any previous build
func (b *Builder) Build(ctx context.Context, key string, src Source, chunks []models.Chunk) (Manifest, error) {
	if len(chunks) == 0 {
		return Manifest{}, fmt.Errorf("%w: no chunks to index", ErrIndexBuild)
	}

	vectors, err := embedding.GenerateEmbedding(ctx, b.embedder, chunks)
	if err != nil {
		return Manifest{}, err
	}

	dim := len(vectors[0])
	if dim == 0 {
		return Manifest{}, fmt.Errorf("%w: empty embedding vector", ErrIndexBuild)
	}
	for i, v := range vectors {
		if len(v) != dim {
			return Manifest{}, fmt.Errorf("%w: vector %d has dimension %d, want %d", ErrIndexBuild, i, len(v), dim)
		}
	}

	buildID, err := helper.GenerateUUID()
	if err != nil {
		return Manifest{}, err
	}
	manifest := Manifest{
		BuildID:     buildID,
		Fingerprint: src.Fingerprint,
		Dimension:   dim,
		BatchSize:   src.BatchSize,
		Count:       len(chunks),
		BuiltAt:     time.Now().UTC(),
	}

	if err := b.store.Save(ctx, key, manifest, models.Contents(chunks), vectors); err != nil {
		return Manifest{}, fmt.Errorf("failed to save index: %w", err)
	}

	log.Info().Str("key", key).Str("build_id", buildID).Int("chunks", len(chunks)).Int("dimension", dim).Msg("Built index")
	return manifest, nil
}

// Current reports whether the stored index was built from src
func (b *Builder) Current(ctx context.Context, key string, src Source) bool {
	m, err := b.store.Manifest(ctx, key)
	if err != nil {
		return false
	}
	return m.Fingerprint != "" && m.Fingerprint == src.Fingerprint && m.BatchSize == src.BatchSize
}
