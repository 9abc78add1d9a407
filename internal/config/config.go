package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/parkj/tubelens-go/internal/constants"
)

type Config struct {
	Backend  BackendConfig
	YouTube  YouTubeConfig
	Gemini   GeminiConfig
	OpenAI   OpenAIConfig
	Redis    RedisConfig
	Postgres PostgresConfig
	Cache    CacheConfig
	Search   SearchConfig
	Logging  LoggingConfig
}

// BackendConfig points at the hosted analysis API. When BaseURL is empty the
// assistant talks to YouTube and the AI providers directly.
type BackendConfig struct {
	BaseURL string
}

type YouTubeConfig struct {
	APIKey         string
	EnableCaptions bool
}

type GeminiConfig struct {
	APIKey string
}

type OpenAIConfig struct {
	APIKey         string
	EnableFallback bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

type CacheConfig struct {
	Dir string
}

type SearchConfig struct {
	MaxResults    int
	DebounceDelay time.Duration
}

type LoggingConfig struct {
	Level string
	File  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Backend: BackendConfig{
			BaseURL: getEnv("BACKEND_API_URL", ""),
		},
		YouTube: YouTubeConfig{
			APIKey:         getEnv("YOUTUBE_API_KEY", ""),
			EnableCaptions: getEnvBool("YOUTUBE_ENABLE_CAPTIONS_API", false),
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
		},
		OpenAI: OpenAIConfig{
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			EnableFallback: getEnvBool("OPENAI_ENABLE_FALLBACK", true),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Postgres: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", ""),
			Port:     getEnvInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "tubelens"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			Database: getEnv("POSTGRES_DB", "tubelens"),
		},
		Cache: CacheConfig{
			Dir: getEnv("CACHE_DIR", ".cache"),
		},
		Search: SearchConfig{
			MaxResults:    getEnvInt("SEARCH_MAX_RESULTS", constants.SearchConfig.MaxResults),
			DebounceDelay: time.Duration(getEnvInt("QUERY_DEBOUNCE_MS", int(constants.DebounceConfig.QueryDelay/time.Millisecond))) * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		if c.YouTube.APIKey == "" {
			return fmt.Errorf("either BACKEND_API_URL or YOUTUBE_API_KEY is required")
		}
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when no backend is configured")
		}
	}
	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("SEARCH_MAX_RESULTS must be positive")
	}
	return nil
}

// UseBackend reports whether operations go through the hosted backend
// instead of the direct providers.
func (c *Config) UseBackend() bool {
	return c.Backend.BaseURL != ""
}

func (c *Config) UseRedis() bool {
	return c.Redis.Host != ""
}

func (c *Config) UsePostgres() bool {
	return c.Postgres.Host != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
