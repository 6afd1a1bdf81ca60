package llmservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"bim-rag/internal/config"
)

type geminiPart struct {
	Text *string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content *geminiContent `json:"content"`
	} `json:"candidates"`
}

// GeminiClient calls the generateContent REST method
type GeminiClient struct {
	baseURL string
	model   string
	key     string
	client  *http.Client
}

func NewGeminiClient(LLMconfig *config.LLMConfig) *GeminiClient {
	baseURL := LLMconfig.BaseURL
	if baseURL == "" {
		baseURL = config.DefaultGeminiURL
	}
	model := LLMconfig.Model
	if model == "" {
		model = config.DefaultGeminiModel
	}
	timeout := time.Duration(LLMconfig.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = config.DefaultTimeoutSecs * time.Second
	}
	return &GeminiClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		key:     LLMconfig.Key,
		client:  &http.Client{Timeout: timeout},
	}
}

func (g *GeminiClient) Provider() string {
	return "Gemini"
}

// endpoint carries no credentials; the key travels in the x-goog-api-key header
func (g *GeminiClient) endpoint() string {
	return fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model)
}

func (g *GeminiClient) Generate(ctx context.Context, prompt string) Generation {
	payload := geminiRequest{Contents: []geminiContent{{Parts: []geminiPart{{Text: &prompt}}}}}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return Generation{Status: StatusTransportError, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint(), bytes.NewBuffer(jsonData))
	if err != nil {
		return Generation{Status: StatusTransportError, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.key)

	log.Debug().Str("model", g.model).Int("prompt_len", len(prompt)).Msg("Calling Gemini")
	resp, err := g.client.Do(req)
	if err != nil {
		log.Error().Err(err).Msg("Gemini request failed")
		return Generation{Status: StatusTransportError, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Generation{Status: StatusTransportError, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Msg("Gemini returned an error")
		return Generation{Status: StatusHTTPError, StatusCode: resp.StatusCode, Body: string(body)}
	}

	text, ok := parseGeminiResponse(body)
	if !ok {
		log.Warn().Str("body", string(body)).Msg("Unexpected Gemini response shape")
		return Generation{Status: StatusMalformed, StatusCode: resp.StatusCode, Body: string(body)}
	}
	return Generation{Status: StatusOK, Text: text, StatusCode: resp.StatusCode}
}

// parseGeminiResponse extracts candidates[0].content.parts[0].text
func parseGeminiResponse(body []byte) (string, bool) {
	var r geminiResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return "", false
	}
	if len(r.Candidates) == 0 || r.Candidates[0].Content == nil || len(r.Candidates[0].Content.Parts) == 0 {
		return "", false
	}
	text := r.Candidates[0].Content.Parts[0].Text
	if text == nil {
		return "", false
	}
	return *text, true
}
