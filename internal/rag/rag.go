// Package rag answers questions about the loaded model, either with a
// structured query or by retrieval-augmented generation.
package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"bim-rag/internal/config"
	"bim-rag/internal/geometry"
	"bim-rag/internal/helper"
	"bim-rag/internal/ifc"
	"bim-rag/internal/index"
	"bim-rag/internal/intent"
	"bim-rag/internal/llmservice"
	"bim-rag/internal/models"
	"bim-rag/internal/parser"
	"bim-rag/internal/query"
)

var ErrEmptyQuestion = errors.New("empty question")

// loadedModel is a parsed model together with the fingerprint of its file
type loadedModel struct {
	fingerprint string
	model       *ifc.Model
	kernel      *geometry.Kernel
}

type RAG struct {
	cfg         *config.Config
	store       index.Store
	builder     *index.Builder
	retriever   *index.Retriever
	synthesizer *Synthesizer

	locks index.KeyedMutex

	mu     sync.Mutex
	loaded *loadedModel
}

func NewRAG(cfg *config.Config, store index.Store, embedder embeddings.Embedder, generator llmservice.Generator) *RAG {
	return &RAG{
		cfg:         cfg,
		store:       store,
		builder:     index.NewBuilder(store, embedder),
		retriever:   index.NewRetriever(store, embedder),
		synthesizer: NewSynthesizer(generator),
	}
}

// ModelPath is the file every question is answered against
func (r *RAG) ModelPath() string {
	return r.cfg.Model.Path
}

// load parses the model file, reusing the previous parse while the file
// content is unchanged
func (r *RAG) load() (*loadedModel, error) {
	path := r.ModelPath()
	fingerprint, err := helper.FileFingerprint(path)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loaded != nil && r.loaded.fingerprint == fingerprint {
		return r.loaded, nil
	}

	model, err := ifc.Open(path)
	if err != nil {
		return nil, err
	}
	log.Info().Str("path", path).Str("schema", model.Schema).Int("entities", model.Len()).Msg("Loaded model")

	r.loaded = &loadedModel{fingerprint: fingerprint, model: model, kernel: geometry.NewKernel(model)}
	return r.loaded, nil
}

// Model returns the parsed model and its geometry kernel
func (r *RAG) Model() (*ifc.Model, *geometry.Kernel, error) {
	lm, err := r.load()
	if err != nil {
		return nil, nil, err
	}
	return lm.model, lm.kernel, nil
}

// Query classifies the question and answers it
func (r *RAG) Query(ctx context.Context, question string) (*models.PromptResponse, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	lm, err := r.load()
	if err != nil {
		return nil, err
	}

	d := intent.Classify(question)
	log.Debug().Str("intent", d.Kind.String()).Str("token", d.Token).Str("type", string(d.Type)).Msg("Classified question")

	var answer string
	switch d.Kind {
	case intent.StoreyCount:
		answer = formatStoreys(d.Language, query.Storeys(lm.model))
	case intent.Count:
		answer = formatCount(d.Language, query.Count(lm.model, d.Type), d.Token)
	case intent.Area:
		if d.Err != nil {
			answer = fmt.Sprintf(models.UnknownAreaType, d.Err.Token)
			break
		}
		area, err := query.Area(lm.model, lm.kernel, d.Type)
		if err != nil {
			return nil, err
		}
		answer = fmt.Sprintf(models.AreaPL, d.Token, area)
	default:
		answer, err = r.fallback(ctx, lm, question)
		if err != nil {
			return nil, err
		}
	}

	return &models.PromptResponse{
		Query:   question,
		Source:  d.Kind.String(),
		Content: answer,
	}, nil
}

func formatStoreys(lang intent.Language, info query.StoreyInfo) string {
	names := strings.Join(info.Names, ", ")
	if lang == intent.English {
		return fmt.Sprintf(models.StoreysEN, info.Count, names)
	}
	return fmt.Sprintf(models.StoreysPL, info.Count, names)
}

func formatCount(lang intent.Language, n int, token string) string {
	if lang == intent.English {
		return fmt.Sprintf(models.CountEN, n, token)
	}
	return fmt.Sprintf(models.CountPL, n, token)
}

// fallback indexes the model, retrieves the nearest chunks and asks the generator
func (r *RAG) fallback(ctx context.Context, lm *loadedModel, question string) (string, error) {
	key := r.ModelPath()
	unlock := r.locks.Lock(key)
	defer unlock()

	if err := r.ensureIndex(ctx, key, lm, false); err != nil {
		return "", err
	}

	hits, err := r.retriever.Retrieve(ctx, question, key, r.cfg.RAG.TopK)
	if err != nil {
		return "", fmt.Errorf("failed to retrieve chunks: %w", err)
	}
	log.Debug().Int("hits", len(hits)).Msg("Retrieved chunks")

	return r.synthesizer.Answer(ctx, question, index.Contents(hits)), nil
}

// ensureIndex rebuilds the index unless reuse is enabled and the stored
// build matches the model content
func (r *RAG) ensureIndex(ctx context.Context, key string, lm *loadedModel, force bool) error {
	src := index.Source{Fingerprint: lm.fingerprint, BatchSize: r.cfg.RAG.BatchSize}
	if !force && r.cfg.RAG.ReuseIndex && r.builder.Current(ctx, key, src) {
		log.Debug().Str("key", key).Msg("Reusing index")
		return nil
	}
	chunks := parser.ParseModel(lm.model, r.cfg)
	_, err := r.builder.Build(ctx, key, src, chunks)
	return err
}

// ResetIndex removes the stored fallback index for the model
func (r *RAG) ResetIndex(ctx context.Context) error {
	key := r.ModelPath()
	unlock := r.locks.Lock(key)
	defer unlock()

	if err := r.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to reset index: %w", err)
	}
	log.Info().Str("key", key).Msg("Removed index")
	return nil
}

// BuildIndex rebuilds the fallback index for the model
func (r *RAG) BuildIndex(ctx context.Context) (index.Manifest, error) {
	lm, err := r.load()
	if err != nil {
		return index.Manifest{}, err
	}
	key := r.ModelPath()
	unlock := r.locks.Lock(key)
	defer unlock()

	if err := r.ensureIndex(ctx, key, lm, true); err != nil {
		return index.Manifest{}, err
	}
	return r.store.Manifest(ctx, key)
}
