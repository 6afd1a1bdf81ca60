package llmservice

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"bim-rag/internal/config"
)

// LangchainGenerator wraps any langchaingo model
type LangchainGenerator struct {
	llm      llms.Model
	provider string
	timeout  time.Duration
}

func NewLangchainGenerator(llm llms.Model, provider string, timeout time.Duration) *LangchainGenerator {
	return &LangchainGenerator{llm: llm, provider: provider, timeout: timeout}
}

func (l *LangchainGenerator) Provider() string {
	return l.provider
}

func (l *LangchainGenerator) Generate(ctx context.Context, prompt string) Generation {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	text, err := llms.GenerateFromSinglePrompt(ctx, l.llm, prompt)
	if err != nil {
		log.Error().Err(err).Str("provider", l.provider).Msg("Generation failed")
		return Generation{Status: StatusTransportError, Err: err}
	}
	if strings.TrimSpace(text) == "" {
		return Generation{Status: StatusMalformed}
	}
	return Generation{Status: StatusOK, Text: text}
}

// NewFromConfig returns the generator selected by LLMconfig.Provider
func NewFromConfig(LLMconfig *config.LLMConfig) (Generator, error) {
	log.Debug().Interface("llmConfig", map[string]string{
		"provider": LLMconfig.Provider,
		"base_url": LLMconfig.BaseURL,
		"model":    LLMconfig.Model,
	}).Msg("Creating generator")

	timeout := time.Duration(LLMconfig.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = config.DefaultTimeoutSecs * time.Second
	}
	client := &http.Client{Timeout: timeout}

	switch LLMconfig.Provider {
	case "", "gemini":
		return NewGeminiClient(LLMconfig), nil
	case "ollama":
		llm, err := ollama.New(
			ollama.WithServerURL(LLMconfig.BaseURL),
			ollama.WithModel(LLMconfig.Model),
			ollama.WithHTTPClient(client),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ollama client: %w", err)
		}
		return NewLangchainGenerator(llm, "Ollama", timeout), nil
	case "openai":
		opts := []openai.Option{
			openai.WithToken(strings.TrimPrefix(LLMconfig.Key, "Bearer ")),
			openai.WithModel(LLMconfig.Model),
			openai.WithHTTPClient(client),
		}
		if LLMconfig.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(LLMconfig.BaseURL))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize openai client: %w", err)
		}
		return NewLangchainGenerator(llm, "OpenAI", timeout), nil
	}
	return nil, fmt.Errorf("unknown inference provider %q", LLMconfig.Provider)
}
