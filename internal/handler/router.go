// Package handler exposes the question answering over HTTP.
package handler

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"bim-rag/internal/config"
	"bim-rag/internal/helper"
)

const requestIDKey = "request_id"

// RequestLogger assigns a request id and logs every request through zerolog
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id, err := helper.GenerateUUID()
		if err != nil {
			log.Warn().Err(err).Msg("Error generating request id")
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)

		c.Next()

		log.Info().
			Str("request_id", id).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("Handled request")
	}
}

// NewRouter wires the routes for the question endpoint and the model viewer
func NewRouter(cfg *config.Config, rag Answerer) *gin.Engine {
	gin.SetMode(cfg.Server.GinMode)

	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
	if len(corsConfig.AllowOrigins) == 1 && corsConfig.AllowOrigins[0] == "*" {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type"}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "bim-rag"})
	})

	askHandler := NewAskHandler(rag)
	router.POST("/ask", askHandler.Ask)

	staticDir := cfg.Server.StaticDir
	router.StaticFile("/", filepath.Join(staticDir, "index.html"))
	router.Static("/static", filepath.Join(staticDir, "static"))

	modelPath := cfg.Model.Path
	router.GET("/default-model.ifc", func(c *gin.Context) {
		c.Header("Content-Type", "application/octet-stream")
		c.File(modelPath)
	})

	return router
}
