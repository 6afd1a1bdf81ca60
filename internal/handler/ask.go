package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"bim-rag/internal/helper"
	"bim-rag/internal/models"
)

// Answerer answers one question about the loaded model
type Answerer interface {
	Query(ctx context.Context, question string) (*models.PromptResponse, error)
}

type AskRequest struct {
	Question string `json:"question"`
}

type AskResponse struct {
	Answer     string `json:"answer"`
	AnswerHTML string `json:"answer_html"`
	Source     string `json:"source"`
	RequestID  string `json:"request_id"`
}

// AskHandler handles question requests
type AskHandler struct {
	rag Answerer
}

func NewAskHandler(rag Answerer) *AskHandler {
	return &AskHandler{rag: rag}
}

// Ask handles POST /ask
func (h *AskHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Brak question"})
		return
	}

	resp, err := h.rag.Query(c.Request.Context(), question)
	if err != nil {
		log.Error().Err(err).Str("request_id", c.GetString(requestIDKey)).Msg("Error answering question")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	html, err := helper.RenderMarkdown(resp.Content)
	if err != nil {
		log.Warn().Err(err).Msg("Error rendering answer")
		html = ""
	}

	c.JSON(http.StatusOK, AskResponse{
		Answer:     resp.Content,
		AnswerHTML: html,
		Source:     resp.Source,
		RequestID:  c.GetString(requestIDKey),
	})
}
