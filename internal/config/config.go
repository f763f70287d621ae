package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
)

// ErrMissingAPIKey is returned when neither the secrets file nor the
// environment provides an API key.
var ErrMissingAPIKey = errors.New("api key not configured")

// Config holds all service configuration loaded from the environment.
type Config struct {
	Port     string `env:"PORT" env-default:"8080"`
	LogLevel string `env:"LOG_LEVEL" env-default:"info"`

	Provider    string `env:"LLM_PROVIDER" env-default:"openrouter"`
	BaseURL     string `env:"OPENROUTER_BASE_URL" env-default:"https://openrouter.ai/api/v1"`
	SecretsFile string `env:"SECRETS_FILE" env-default:"secrets.toml"`
	APIKey      string

	PipelineModel     string  `env:"MODEL_NAME" env-default:"x-ai/grok-4.1-fast:free"`
	ChatModel         string  `env:"CHATBOT_MODEL" env-default:"minimax/minimax-m2:free"`
	ChatTemperature   float32 `env:"CHATBOT_TEMPERATURE" env-default:"0.7"`
	ChatHistoryWindow int     `env:"CHATBOT_HISTORY_WINDOW" env-default:"10"`
	MaxTokens         int     `env:"MAX_TOKENS" env-default:"16000"`

	SessionTTL    time.Duration `env:"SESSION_TTL" env-default:"24h"`
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`

	MinioEndpoint  string `env:"MINIO_ENDPOINT"`
	MinioAccessKey string `env:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `env:"MINIO_SECRET_KEY"`
	MinioBucket    string `env:"MINIO_BUCKET" env-default:"research-exports"`
	MinioUseSSL    bool   `env:"MINIO_USE_SSL" env-default:"false"`

	PandocPath string `env:"PANDOC_PATH" env-default:"pandoc"`
	PDFEngine  string `env:"PDF_ENGINE" env-default:"xelatex"`
	PDFFont    string `env:"PDF_MAIN_FONT" env-default:"DejaVu Serif"`

	CORSOrigins []string `env:"CORS_ORIGINS" env-separator:"," env-default:"http://localhost:5173,http://localhost:3000"`
}

// secrets mirrors the secrets file. Only keys listed here are read from it.
type secrets struct {
	OpenRouterAPIKey string `toml:"OPENROUTER_API_KEY" yaml:"OPENROUTER_API_KEY"`
	GeminiAPIKey     string `toml:"GEMINI_API_KEY" yaml:"GEMINI_API_KEY"`
}

// Load reads .env (if present) and the environment, then resolves the API key.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	if cfg.Provider != ProviderOpenRouter && cfg.Provider != ProviderGemini {
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.Provider)
	}

	key, err := ResolveAPIKey(cfg.SecretsFile, cfg.Provider)
	if err != nil {
		return nil, err
	}
	cfg.APIKey = key
	return &cfg, nil
}

// APIKeyName returns the secrets/env key holding the API key for provider.
func APIKeyName(provider string) string {
	if provider == ProviderGemini {
		return "GEMINI_API_KEY"
	}
	return "OPENROUTER_API_KEY"
}

// ResolveAPIKey looks the key up in the secrets file first and the
// environment second.
func ResolveAPIKey(secretsFile, provider string) (string, error) {
	name := APIKeyName(provider)

	if secretsFile != "" {
		if _, err := os.Stat(secretsFile); err == nil {
			var s secrets
			if err := cleanenv.ReadConfig(secretsFile, &s); err != nil {
				return "", fmt.Errorf("read secrets file %s: %w", secretsFile, err)
			}
			key := s.OpenRouterAPIKey
			if provider == ProviderGemini {
				key = s.GeminiAPIKey
			}
			if key = strings.TrimSpace(key); key != "" {
				return key, nil
			}
		}
	}

	if key := strings.TrimSpace(os.Getenv(name)); key != "" {
		return key, nil
	}
	return "", fmt.Errorf("%w: %s not found in %s or environment variables", ErrMissingAPIKey, name, secretsFile)
}
