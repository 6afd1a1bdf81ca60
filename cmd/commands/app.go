package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"bim-rag/internal/chromemdb"
	"bim-rag/internal/config"
	"bim-rag/internal/db"
	"bim-rag/internal/embedding"
	"bim-rag/internal/helper"
	"bim-rag/internal/index"
	"bim-rag/internal/llmservice"
	"bim-rag/internal/rag"
)

// newStore opens the index backend named by rag.vector_store. The returned
// function releases it.
func newStore(ctx context.Context, cfg *config.Config) (index.Store, func(), error) {
	noop := func() {}

	switch cfg.RAG.VectorStore {
	case "memory":
		return index.NewMemoryStore(), noop, nil
	case "pgvector":
		dbClient, err := db.ConnectDB(&cfg.Database)
		if err != nil {
			return nil, noop, err
		}
		dbInstance := db.NewDB(dbClient, cfg.Database.Debug)
		if err := db.InitDB(ctx, dbInstance); err != nil {
			dbInstance.Close()
			return nil, noop, fmt.Errorf("error initializing database: %w", err)
		}
		return db.NewVectorStore(dbInstance), func() { dbInstance.Close() }, nil
	case "", "chromem":
		if cfg.RAG.IndexDir != "" {
			if err := helper.CreateFolder(cfg.RAG.IndexDir); err != nil {
				return nil, noop, err
			}
		}
		store, err := chromemdb.NewVectorDBManager(cfg.RAG.IndexDir, cfg.RAG.Compress, cfg.RAG.EncryptionKey)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	}
	return nil, noop, fmt.Errorf("unknown vector store %q", cfg.RAG.VectorStore)
}

// newRAG wires the store, embedder and generator selected by cfg
func newRAG(ctx context.Context, cfg *config.Config) (*rag.RAG, func(), error) {
	store, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	embedder, err := embedding.NewFromConfig(&cfg.EmbedLLM)
	if err != nil {
		closeStore()
		return nil, nil, fmt.Errorf("error initializing embedder: %w", err)
	}

	generator, err := llmservice.NewFromConfig(&cfg.InferenceLLM)
	if err != nil {
		closeStore()
		return nil, nil, fmt.Errorf("error initializing generator: %w", err)
	}

	log.Debug().
		Str("store", cfg.RAG.VectorStore).
		Str("embedder", cfg.EmbedLLM.Provider).
		Str("generator", generator.Provider()).
		Msg("Initialized pipeline")
	return rag.NewRAG(cfg, store, embedder, generator), closeStore, nil
}
