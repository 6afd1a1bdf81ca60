package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Model        ModelConfig    `yaml:"model"`
	Server       ServerConfig   `yaml:"server"`
	Database     DatabaseConfig `yaml:"database"`
	EmbedLLM     LLMConfig      `yaml:"embed_llm"`
	InferenceLLM LLMConfig      `yaml:"inference_llm"`
	RAG          RAGConfig      `yaml:"rag"`
	Logging      LoggingConfig  `yaml:"logging"`
}

type ModelConfig struct {
	Path string `yaml:"path"`
}

type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	GinMode        string   `yaml:"gin_mode"`
	StaticDir      string   `yaml:"static_dir"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	// Driver is "pgdriver" or "pq"
	Driver   string `yaml:"driver"`
	DSN      string `yaml:"dsn"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

type LLMConfig struct {
	// Provider selects the client: "hash", "ollama", "openai" for embeddings,
	// "gemini", "ollama", "openai" for generation
	Provider    string `yaml:"provider"`
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	Key         string `yaml:"key"`
	Dimension   int    `yaml:"dimension"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

type RAGConfig struct {
	BatchSize int `yaml:"batch_size"`
	TopK      int `yaml:"top_k"`
	// VectorStore is "chromem", "pgvector" or "memory"
	VectorStore   string `yaml:"vector_store"`
	IndexDir      string `yaml:"index_dir"`
	Compress      bool   `yaml:"compress"`
	EncryptionKey string `yaml:"encryption_key"`
	ReuseIndex    bool   `yaml:"reuse_index"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

const (
	DefaultBatchSize   = 10
	DefaultTopK        = 10
	DefaultTimeoutSecs = 60
	DefaultDimension   = 384
	DefaultPort        = 8000
	DefaultModelPath   = "default.ifc"
	DefaultGeminiURL   = "https://generativelanguage.googleapis.com/v1beta"
	DefaultGeminiModel = "gemini-2.0-flash"
)

// LoadConfig reads the YAML file at path, then .env and environment overrides.
// A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	_ = godotenv.Load()
	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

func applyEnv(cfg *Config) {
	cfg.Model.Path = getEnv("BIM_MODEL_PATH", cfg.Model.Path)
	cfg.Server.Host = getEnv("SERVER_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnvAsInt("SERVER_PORT", cfg.Server.Port)
	cfg.Server.GinMode = getEnv("GIN_MODE", cfg.Server.GinMode)
	cfg.Database.DSN = getEnv("DATABASE_URL", cfg.Database.DSN)
	cfg.Database.Password = getEnv("DATABASE_PASSWORD", cfg.Database.Password)
	cfg.InferenceLLM.Key = getEnv("INFERENCE_API_KEY", cfg.InferenceLLM.Key)
	cfg.EmbedLLM.Key = getEnv("EMBED_API_KEY", cfg.EmbedLLM.Key)
	cfg.RAG.VectorStore = getEnv("VECTOR_STORE", cfg.RAG.VectorStore)
	cfg.RAG.EncryptionKey = getEnv("INDEX_ENCRYPTION_KEY", cfg.RAG.EncryptionKey)
	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
}

func applyDefaults(cfg *Config) {
	if cfg.Model.Path == "" {
		cfg.Model.Path = DefaultModelPath
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.GinMode == "" {
		cfg.Server.GinMode = "release"
	}
	if cfg.Server.StaticDir == "" {
		cfg.Server.StaticDir = "./web"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "pgdriver"
	}

	if cfg.EmbedLLM.Provider == "" {
		cfg.EmbedLLM.Provider = "hash"
	}
	if cfg.EmbedLLM.Dimension == 0 {
		cfg.EmbedLLM.Dimension = DefaultDimension
	}
	if cfg.EmbedLLM.TimeoutSecs == 0 {
		cfg.EmbedLLM.TimeoutSecs = DefaultTimeoutSecs
	}

	if cfg.InferenceLLM.Provider == "" {
		cfg.InferenceLLM.Provider = "gemini"
	}
	if cfg.InferenceLLM.Provider == "gemini" {
		if cfg.InferenceLLM.Key == "" {
			cfg.InferenceLLM.Key = getEnv("GEMINI_API_KEY", "")
		}
		if cfg.InferenceLLM.BaseURL == "" {
			cfg.InferenceLLM.BaseURL = DefaultGeminiURL
		}
		if cfg.InferenceLLM.Model == "" {
			cfg.InferenceLLM.Model = DefaultGeminiModel
		}
	}
	if cfg.InferenceLLM.TimeoutSecs == 0 {
		cfg.InferenceLLM.TimeoutSecs = DefaultTimeoutSecs
	}

	if cfg.RAG.BatchSize == 0 {
		cfg.RAG.BatchSize = DefaultBatchSize
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = DefaultTopK
	}
	if cfg.RAG.VectorStore == "" {
		cfg.RAG.VectorStore = "chromem"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}

// Validate checks option values that defaults cannot repair
func (c *Config) Validate() error {
	if c.RAG.BatchSize < 1 {
		return fmt.Errorf("rag.batch_size must be positive, got %d", c.RAG.BatchSize)
	}
	if c.RAG.TopK < 1 {
		return fmt.Errorf("rag.top_k must be positive, got %d", c.RAG.TopK)
	}
	switch c.RAG.VectorStore {
	case "chromem":
		if k := c.RAG.EncryptionKey; k != "" && len(k) != 32 {
			return fmt.Errorf("rag.encryption_key must be 32 bytes, got %d", len(k))
		}
	case "memory":
	case "pgvector":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for the pgvector store")
		}
	default:
		return fmt.Errorf("unknown rag.vector_store %q", c.RAG.VectorStore)
	}
	switch c.Database.Driver {
	case "pgdriver", "pq":
	default:
		return fmt.Errorf("unknown database.driver %q", c.Database.Driver)
	}
	switch c.EmbedLLM.Provider {
	case "hash", "ollama", "openai":
	default:
		return fmt.Errorf("unknown embed_llm.provider %q", c.EmbedLLM.Provider)
	}
	switch c.InferenceLLM.Provider {
	case "gemini", "ollama", "openai":
	default:
		return fmt.Errorf("unknown inference_llm.provider %q", c.InferenceLLM.Provider)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}

// Addr returns host:port for the HTTP listener
func (c *Config) Addr() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
