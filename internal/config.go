package internal

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env         string
	Port        int
	LogLevel    string
	DatabaseUrl string // Optional; enables the generation ledger

	// AI Provider Configuration
	AIProvider       string // "openai", "anthropic", "gemini" or "mock"
	OpenAIAPIKey     string
	OpenAIModel      string
	OpenAIBaseURL    string // Optional OpenAI-compatible endpoint
	AnthropicAPIKey  string
	AnthropicModel   string
	GeminiAPIKey     string
	GeminiModel      string
	AIRetryBackoff   time.Duration
	AIRequestTimeout time.Duration
	AISeed           *int64 // Set by AI_SEED; overrides the profile seed, negative disables

	// Generation
	GenerationTimeout time.Duration
	ProfilePath       string // Optional YAML channel profile

	// Archive Configuration
	ArchiveProvider string // "none", "local" or "r2"

	// Local Storage (development)
	LocalStoragePath string

	// R2 Storage (production)
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2Endpoint        string // Optional; any S3 compatible endpoint

	// Rate limiting for POST /api/rams
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Env:         getEnv("ENV", "development"),
		Port:        getEnvInt("PORT", 8080),
		LogLevel:    getEnv("LOG_LEVEL", "debug"),
		DatabaseUrl: getEnv("DATABASE_URL", ""),

		// AI provider defaults
		AIProvider:       getEnv("AI_PROVIDER", "openai"),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-4o"),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", ""),
		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:   getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		AIRetryBackoff:   getEnvDuration("AI_RETRY_BACKOFF", 550*time.Millisecond),
		AIRequestTimeout: getEnvDuration("AI_REQUEST_TIMEOUT", 45*time.Second),
		AISeed:           getEnvInt64Ptr("AI_SEED"),

		GenerationTimeout: getEnvDuration("GENERATION_TIMEOUT", 60*time.Second),
		ProfilePath:       getEnv("RAMS_PROFILE", ""),

		// Archive is off unless configured
		ArchiveProvider:  getEnv("ARCHIVE_PROVIDER", "none"),
		LocalStoragePath: getEnv("LOCAL_STORAGE_PATH", "./storage"),

		// R2 configuration (production only)
		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2BucketName:      getEnv("R2_BUCKET_NAME", ""),
		R2Endpoint:        getEnv("R2_ENDPOINT", ""),

		RateLimitRequests: getEnvInt("RATE_LIMIT_REQUESTS", 10),
		RateLimitWindow:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),

		// Metrics authentication
		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated settings. A missing AI credential is not an
// error here; it is reported per request.
func (cfg *Config) Validate() error {
	switch cfg.ArchiveProvider {
	case "none", "local":
	case "r2":
		if cfg.R2AccountID == "" {
			return fmt.Errorf("R2_ACCOUNT_ID is required when ARCHIVE_PROVIDER is 'r2'")
		}
		if cfg.R2AccessKeyID == "" {
			return fmt.Errorf("R2_ACCESS_KEY_ID is required when ARCHIVE_PROVIDER is 'r2'")
		}
		if cfg.R2SecretAccessKey == "" {
			return fmt.Errorf("R2_SECRET_ACCESS_KEY is required when ARCHIVE_PROVIDER is 'r2'")
		}
		if cfg.R2BucketName == "" {
			return fmt.Errorf("R2_BUCKET_NAME is required when ARCHIVE_PROVIDER is 'r2'")
		}
	default:
		return fmt.Errorf("ARCHIVE_PROVIDER must be 'none', 'local' or 'r2', got: %s", cfg.ArchiveProvider)
	}

	switch cfg.AIProvider {
	case "openai", "anthropic", "gemini", "mock":
	default:
		return fmt.Errorf("AI_PROVIDER must be one of 'openai', 'anthropic', 'gemini' or 'mock', got: %s", cfg.AIProvider)
	}

	if cfg.GenerationTimeout <= 0 {
		return fmt.Errorf("GENERATION_TIMEOUT must be positive, got: %s", cfg.GenerationTimeout)
	}
	if cfg.AIRetryBackoff < 0 {
		return fmt.Errorf("AI_RETRY_BACKOFF must not be negative, got: %s", cfg.AIRetryBackoff)
	}
	if cfg.RateLimitRequests <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive, got: %d", cfg.RateLimitRequests)
	}
	return nil
}

// AIAPIKey returns the credential for the configured provider.
func (cfg *Config) AIAPIKey() string {
	switch cfg.AIProvider {
	case "openai":
		return cfg.OpenAIAPIKey
	case "anthropic":
		return cfg.AnthropicAPIKey
	case "gemini":
		return cfg.GeminiAPIKey
	}
	return ""
}

// SeedOverride returns the seed set by AI_SEED and whether it was set.
// A nil seed with ok true means seeding is disabled.
func (cfg *Config) SeedOverride() (seed *int64, ok bool) {
	if cfg.AISeed == nil {
		return nil, false
	}
	if *cfg.AISeed < 0 {
		return nil, true
	}
	s := *cfg.AISeed
	return &s, true
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvInt64Ptr(key string) *int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return &i
		}
	}
	return nil
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
