package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"bim-rag/internal/llmservice"
	"bim-rag/internal/models"
)

// Synthesizer turns retrieved chunks into a generated answer
type Synthesizer struct {
	generator llmservice.Generator
}

func NewSynthesizer(generator llmservice.Generator) *Synthesizer {
	return &Synthesizer{generator: generator}
}

// BuildPrompt grounds the question in the retrieved chunks
func BuildPrompt(question string, chunks []string) string {
	return fmt.Sprintf(models.ContextPromptTemplate, strings.Join(chunks, models.ChunkJoiner), question)
}

// Answer always returns text. Generation failures become a diagnostic message.
func (s *Synthesizer) Answer(ctx context.Context, question string, chunks []string) string {
	prompt := BuildPrompt(question, chunks)
	g := s.generator.Generate(ctx, prompt)
	if g.Status != llmservice.StatusOK {
		log.Warn().Str("provider", s.generator.Provider()).Str("status", g.Status.String()).Int("code", g.StatusCode).Msg("Generation did not succeed")
	}
	return llmservice.Message(s.generator.Provider(), g)
}
