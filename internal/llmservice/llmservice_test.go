package llmservice

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"bim-rag/internal/config"
)

func geminiServer(t *testing.T, status int, body string) (*GeminiClient, *string) {
	t.Helper()
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "k1", r.Header.Get("x-goog-api-key"))
		assert.Empty(t, r.URL.RawQuery)
		b, _ := io.ReadAll(r.Body)
		got = string(b)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return NewGeminiClient(&config.LLMConfig{BaseURL: srv.URL, Model: "gemini-test", Key: "k1", TimeoutSecs: 5}), &got
}

func TestGeminiGenerate(t *testing.T) {
	client, sent := geminiServer(t, http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"Two walls."}]}}]}`)

	g := client.Generate(context.Background(), "Context:\nx\n\nQuestion: q\nAnswer:")
	require.Equal(t, StatusOK, g.Status)
	assert.Equal(t, "Two walls.", g.Text)
	assert.JSONEq(t, `{"contents":[{"parts":[{"text":"Context:\nx\n\nQuestion: q\nAnswer:"}]}]}`, *sent)
}

func TestGeminiHTTPError(t *testing.T) {
	client, _ := geminiServer(t, http.StatusForbidden, `{"error":"denied"}`)

	g := client.Generate(context.Background(), "p")
	assert.Equal(t, StatusHTTPError, g.Status)
	assert.Equal(t, http.StatusForbidden, g.StatusCode)
	assert.Equal(t, `Gemini API error 403: {"error":"denied"}`, Message(client.Provider(), g))
}

func TestGeminiMalformed(t *testing.T) {
	for _, body := range []string{
		`{"candidates":[]}`,
		`not json`,
		`{"candidates":[{"content":{"parts":[]}}]}`,
		`{"candidates":[{}]}`,
		`{"candidates":[{"content":{"parts":[{}]}}]}`,
		`{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"image/png","data":"AA=="}}]}}]}`,
		`{"candidates":[{"content":{"parts":[{"text":null}]}}]}`,
	} {
		client, _ := geminiServer(t, http.StatusOK, body)
		g := client.Generate(context.Background(), "p")
		assert.Equal(t, StatusMalformed, g.Status, body)
		assert.Equal(t, "Nie udało się sparsować odpowiedzi Gemini.", Message(client.Provider(), g))
	}
}

func TestGeminiTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	client := NewGeminiClient(&config.LLMConfig{BaseURL: srv.URL, Key: "SECRET-API-KEY"})
	g := client.Generate(context.Background(), "p")
	assert.Equal(t, StatusTransportError, g.Status)
	msg := Message(client.Provider(), g)
	assert.True(t, strings.HasPrefix(msg, "Gemini API error: "))
	assert.NotContains(t, msg, "SECRET-API-KEY")
}

type fakeModel struct {
	text string
	err  error
}

func (f fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.text}}}, nil
}

func (f fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestLangchainGenerator(t *testing.T) {
	g := NewLangchainGenerator(fakeModel{text: "answer"}, "Ollama", 0).Generate(context.Background(), "p")
	assert.Equal(t, Generation{Status: StatusOK, Text: "answer"}, g)

	g = NewLangchainGenerator(fakeModel{text: "  "}, "Ollama", 0).Generate(context.Background(), "p")
	assert.Equal(t, StatusMalformed, g.Status)

	gen := NewLangchainGenerator(fakeModel{err: errors.New("refused")}, "Ollama", 0)
	g = gen.Generate(context.Background(), "p")
	assert.Equal(t, StatusTransportError, g.Status)
	assert.Equal(t, "Ollama API error: refused", Message(gen.Provider(), g))
}

func TestNewFromConfig(t *testing.T) {
	g, err := NewFromConfig(&config.LLMConfig{Provider: "gemini"})
	require.NoError(t, err)
	assert.Equal(t, "Gemini", g.Provider())

	g, err = NewFromConfig(&config.LLMConfig{Provider: "ollama", BaseURL: "http://localhost:11434", Model: "llama3"})
	require.NoError(t, err)
	assert.Equal(t, "Ollama", g.Provider())

	_, err = NewFromConfig(&config.LLMConfig{Provider: "bard"})
	assert.Error(t, err)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "http_error", StatusHTTPError.String())
	assert.Equal(t, "status(9)", Status(9).String())
}
