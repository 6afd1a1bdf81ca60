package rag

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bim-rag/internal/config"
	"bim-rag/internal/embedding"
	"bim-rag/internal/ifc/ifctest"
	"bim-rag/internal/index"
	"bim-rag/internal/llmservice"
)

type fakeGenerator struct {
	mu      sync.Mutex
	prompts []string
	result  llmservice.Generation
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) llmservice.Generation {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.result
}

func (f *fakeGenerator) Provider() string { return "Gemini" }

func newTestRAG(t *testing.T, b *ifctest.Builder, gen *fakeGenerator) (*RAG, *index.MemoryStore) {
	t.Helper()
	cfg := config.Default()
	cfg.Model.Path = b.WriteFile(t, t.TempDir())
	store := index.NewMemoryStore()
	return NewRAG(cfg, store, embedding.NewHashEmbedder(256), gen), store
}

func ask(t *testing.T, r *RAG, question string) string {
	t.Helper()
	resp, err := r.Query(context.Background(), question)
	require.NoError(t, err)
	return resp.Content
}

func TestQueryCountEnglish(t *testing.T) {
	b := ifctest.New()
	b.Elements("IFCWALL", "Wall", 5)
	r, _ := newTestRAG(t, b, &fakeGenerator{})

	resp, err := r.Query(context.Background(), "How many walls are there?")
	require.NoError(t, err)
	assert.Equal(t, "There are 5 walls in the model.", resp.Content)
	assert.Equal(t, "count", resp.Source)
}

func TestQueryCountPolish(t *testing.T) {
	b := ifctest.New()
	b.Elements("IFCDOOR", "Drzwi", 3)
	b.Elements("IFCWALL", "Ściana", 2)
	r, _ := newTestRAG(t, b, &fakeGenerator{})

	assert.Equal(t, "W modelu jest 3 drzwi.", ask(t, r, "Ile jest drzwi?"))
}

func TestQueryArea(t *testing.T) {
	b := ifctest.New()
	b.ElementWithSquare("IFCWALL", "A", 1)
	b.ElementWithSquare("IFCWALL", "B", 1)
	r, _ := newTestRAG(t, b, &fakeGenerator{})

	assert.Equal(t, "Powierzchnia wszystkich obiektów typu ścian wynosi 2.00 m².", ask(t, r, "powierzchnia ścian"))
	assert.Equal(t, "Nie znam typu 'garaży' do obliczenia powierzchni.", ask(t, r, "powierzchnia garaży"))
}

func TestQueryStoreys(t *testing.T) {
	b := ifctest.New()
	b.Storey("Parter", 0)
	b.Storey("", 3000)
	r, _ := newTestRAG(t, b, &fakeGenerator{})

	assert.Equal(t, "The building has 2 storeys: 3000.0, Parter.", ask(t, r, "How many storeys are in the building?"))
	assert.Equal(t, "Budynek ma 2 pięter: 3000.0, Parter.", ask(t, r, "Ile jest kondygnacji?"))
}

func TestQueryCountBeatsArea(t *testing.T) {
	b := ifctest.New()
	b.Elements("IFCWINDOW", "Okno", 4)
	gen := &fakeGenerator{}
	r, _ := newTestRAG(t, b, gen)

	assert.Equal(t, "W modelu jest 4 okien.", ask(t, r, "ile okien i jaka powierzchnia ścian"))
	assert.Empty(t, gen.prompts)
}

func TestQueryFallback(t *testing.T) {
	b := ifctest.New()
	b.Elements("IFCWALL", "Ściana nośna", 12)
	b.Element("IFCSPACE", "Kuchnia")
	gen := &fakeGenerator{result: llmservice.Generation{Status: llmservice.StatusOK, Text: "Kuchnia jest na parterze."}}
	r, store := newTestRAG(t, b, gen)

	resp, err := r.Query(context.Background(), "Gdzie jest kuchnia?")
	require.NoError(t, err)
	assert.Equal(t, "Kuchnia jest na parterze.", resp.Content)
	assert.Equal(t, "semantic", resp.Source)

	require.Len(t, gen.prompts, 1)
	prompt := gen.prompts[0]
	assert.True(t, strings.HasPrefix(prompt, "Context:\n"))
	assert.True(t, strings.HasSuffix(prompt, "\n\nQuestion: Gdzie jest kuchnia?\nAnswer:"))
	assert.Contains(t, prompt, "Name: Kuchnia")

	m, err := store.Manifest(context.Background(), r.ModelPath())
	require.NoError(t, err)
	assert.Equal(t, 3, m.Count)
}

func TestQueryFallbackGenerationFailure(t *testing.T) {
	b := ifctest.New()
	b.Element("IFCSLAB", "Strop")
	gen := &fakeGenerator{result: llmservice.Generation{Status: llmservice.StatusHTTPError, StatusCode: 500, Body: "boom"}}
	r, _ := newTestRAG(t, b, gen)

	assert.Equal(t, "Gemini API error 500: boom", ask(t, r, "Z czego jest strop?"))

	gen.result = llmservice.Generation{Status: llmservice.StatusMalformed}
	assert.Equal(t, "Nie udało się sparsować odpowiedzi Gemini.", ask(t, r, "Z czego jest strop?"))
}

func TestQueryReuseIndex(t *testing.T) {
	b := ifctest.New()
	b.Element("IFCBEAM", "Belka")
	gen := &fakeGenerator{result: llmservice.Generation{Status: llmservice.StatusOK, Text: "ok"}}
	r, store := newTestRAG(t, b, gen)
	ctx := context.Background()

	ask(t, r, "opisz belkę")
	first, err := store.Manifest(ctx, r.ModelPath())
	require.NoError(t, err)

	ask(t, r, "opisz belkę")
	second, err := store.Manifest(ctx, r.ModelPath())
	require.NoError(t, err)
	assert.NotEqual(t, first.BuildID, second.BuildID)

	r.cfg.RAG.ReuseIndex = true
	ask(t, r, "opisz belkę")
	third, err := store.Manifest(ctx, r.ModelPath())
	require.NoError(t, err)
	assert.Equal(t, second.BuildID, third.BuildID)

	b.Element("IFCBEAM", "Belka 2")
	require.NoError(t, os.WriteFile(r.ModelPath(), []byte(b.String()), 0o644))
	ask(t, r, "opisz belkę")
	fourth, err := store.Manifest(ctx, r.ModelPath())
	require.NoError(t, err)
	assert.NotEqual(t, third.BuildID, fourth.BuildID)
}

func TestQueryFallbackEmptyModel(t *testing.T) {
	r, _ := newTestRAG(t, ifctest.New(), &fakeGenerator{})
	_, err := r.Query(context.Background(), "co jest w modelu?")
	assert.ErrorIs(t, err, index.ErrIndexBuild)
}

func TestQueryErrors(t *testing.T) {
	r, _ := newTestRAG(t, ifctest.New(), &fakeGenerator{})
	_, err := r.Query(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuestion)

	r.cfg.Model.Path = filepath.Join(t.TempDir(), "missing.ifc")
	_, err = r.Query(context.Background(), "ile ścian")
	assert.Error(t, err)
}

func TestBuildIndex(t *testing.T) {
	b := ifctest.New()
	b.Elements("IFCCOLUMN", "Słup", 11)
	r, _ := newTestRAG(t, b, &fakeGenerator{})

	m, err := r.BuildIndex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, m.Count)
	assert.Equal(t, 10, m.BatchSize)
}

func TestResetIndex(t *testing.T) {
	b := ifctest.New()
	b.Elements("IFCCOLUMN", "Słup", 3)
	r, _ := newTestRAG(t, b, &fakeGenerator{})
	ctx := context.Background()

	_, err := r.BuildIndex(ctx)
	require.NoError(t, err)

	require.NoError(t, r.ResetIndex(ctx))
	_, err = r.store.Manifest(ctx, r.ModelPath())
	assert.ErrorIs(t, err, index.ErrIndexNotFound)
}

func TestBuildPrompt(t *testing.T) {
	assert.Equal(t, "Context:\na\n\nb\n\nQuestion: q?\nAnswer:", BuildPrompt("q?", []string{"a", "b"}))
	assert.Equal(t, "Context:\n\n\nQuestion: q\nAnswer:", BuildPrompt("q", nil))
}
