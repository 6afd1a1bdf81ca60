package embedding

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"bim-rag/internal/config"
	"bim-rag/internal/models"
)

// NewFromConfig returns the embedder selected by LLMconfig.Provider
func NewFromConfig(LLMconfig *config.LLMConfig) (embeddings.Embedder, error) {
	switch LLMconfig.Provider {
	case "", "hash":
		return NewHashEmbedder(LLMconfig.Dimension), nil
	case "ollama":
		return NewOllamaEmbedder(LLMconfig)
	case "openai":
		return NewOpenAIEmbedder(LLMconfig)
	}
	return nil, fmt.Errorf("unknown embedding provider %q", LLMconfig.Provider)
}

// NewOpenAIEmbedder creates an embedder for any OpenAI-compatible endpoint
func NewOpenAIEmbedder(LLMconfig *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	log.Debug().Interface("config", map[string]string{
		"base_url":        LLMconfig.BaseURL,
		"embedding_model": LLMconfig.Model,
	}).Msg("Creating openai embedder")

	opts := []openai.Option{
		openai.WithToken(strings.TrimPrefix(LLMconfig.Key, "Bearer ")),
		openai.WithEmbeddingModel(LLMconfig.Model),
		openai.WithHTTPClient(httpClient(LLMconfig)),
	}
	if LLMconfig.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(LLMconfig.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize openai client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return embedder, nil
}

// NewOllamaEmbedder creates an embedder backed by an Ollama server
func NewOllamaEmbedder(LLMconfig *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	log.Debug().Interface("config", map[string]string{
		"base_url":        LLMconfig.BaseURL,
		"embedding_model": LLMconfig.Model,
	}).Msg("Creating ollama embedder")

	llm, err := ollama.New(
		ollama.WithServerURL(LLMconfig.BaseURL),
		ollama.WithModel(LLMconfig.Model),
		ollama.WithHTTPClient(httpClient(LLMconfig)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ollama client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return embedder, nil
}

func httpClient(LLMconfig *config.LLMConfig) *http.Client {
	timeout := time.Duration(LLMconfig.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = config.DefaultTimeoutSecs * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// GenerateEmbedding embeds every chunk in one batch and returns vectors in chunk order
func GenerateEmbedding(ctx context.Context, embedder embeddings.Embedder, chunks []models.Chunk) ([][]float32, error) {
	if len(chunks) == 0 {
		log.Info().Msg("No chunks to embed")
		return nil, nil
	}

	vectors, err := embedder.EmbedDocuments(ctx, models.Contents(chunks))
	if err != nil {
		return nil, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}
	return vectors, nil
}
