package internal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/DukeRupert/rams/internal/ai"
	"github.com/DukeRupert/rams/internal/ai/anthropic"
	"github.com/DukeRupert/rams/internal/ai/gemini"
	"github.com/DukeRupert/rams/internal/ai/mock"
	"github.com/DukeRupert/rams/internal/ai/openai"
	"github.com/DukeRupert/rams/internal/rams"
	"github.com/DukeRupert/rams/internal/repository"
	"github.com/DukeRupert/rams/internal/service"
	"github.com/DukeRupert/rams/internal/storage"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// NewCompletionProvider builds the configured provider. It returns a nil
// provider without error when the credential is missing; generation requests
// then fail with a missing credential error instead of the process refusing
// to start.
func NewCompletionProvider(ctx context.Context, cfg *Config, logger *slog.Logger) (ai.CompletionProvider, error) {
	providerCfg := ai.ProviderConfig{RequestTimeout: cfg.AIRequestTimeout}

	if cfg.AIProvider == ai.ProviderMock {
		return mock.New(logger), nil
	}

	key := cfg.AIAPIKey()
	if key == "" {
		logger.Warn("AI credential not set; generation requests will be rejected", "provider", cfg.AIProvider)
		return nil, nil
	}

	switch cfg.AIProvider {
	case ai.ProviderOpenAI:
		providerCfg.BaseURL = cfg.OpenAIBaseURL
		return openai.New(openai.Config{APIKey: key, Model: cfg.OpenAIModel, ProviderConfig: providerCfg}, logger)
	case ai.ProviderAnthropic:
		return anthropic.New(anthropic.Config{APIKey: key, Model: cfg.AnthropicModel, ProviderConfig: providerCfg}, logger)
	case ai.ProviderGemini:
		return gemini.New(ctx, gemini.Config{APIKey: key, Model: cfg.GeminiModel, ProviderConfig: providerCfg}, logger)
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.AIProvider)
	}
}

// loadProfile reads the channel profile. AI_SEED, when set, wins over the
// profile's seed.
func loadProfile(cfg *Config) (rams.Profile, error) {
	profile, err := rams.LoadProfile(cfg.ProfilePath)
	if err != nil {
		return rams.Profile{}, err
	}
	if seed, ok := cfg.SeedOverride(); ok {
		profile = profile.WithSeed(seed)
	}
	return profile, nil
}

// NewOrchestrator loads the channel profile and builds the generation
// orchestrator around the configured provider.
func NewOrchestrator(ctx context.Context, cfg *Config, logger *slog.Logger) (*rams.Orchestrator, error) {
	profile, err := loadProfile(cfg)
	if err != nil {
		return nil, err
	}

	provider, err := NewCompletionProvider(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("ai provider initialization failed: %w", err)
	}

	return rams.NewOrchestrator(provider, rams.Config{
		Credentials: ai.Credentials{Provider: cfg.AIProvider, APIKey: cfg.AIAPIKey()},
		Profile:     profile,
		Timeout:     cfg.GenerationTimeout,
	}, logger, rams.WithBackoff(cfg.AIRetryBackoff)), nil
}

// OpenLedger connects to Postgres and applies migrations. It returns nil
// values when DATABASE_URL is unset.
func OpenLedger(ctx context.Context, cfg *Config, logger *slog.Logger) (*sql.DB, *repository.Queries, error) {
	if cfg.DatabaseUrl == "" {
		logger.Info("DATABASE_URL not set; generation ledger disabled")
		return nil, nil, nil
	}

	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("database ping failed: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migration failed: %w", err)
	}

	logger.Info("Database ready")
	return db, repository.New(db), nil
}

// NewArchive builds the document archive for ARCHIVE_PROVIDER, or nil when
// archiving is off.
func NewArchive(cfg *Config, logger *slog.Logger) (*storage.Archive, error) {
	var store storage.Storage
	switch cfg.ArchiveProvider {
	case storage.ProviderLocal:
		local, err := storage.NewLocalStorage(storage.LocalConfig{BasePath: cfg.LocalStoragePath}, logger)
		if err != nil {
			return nil, fmt.Errorf("local storage initialization failed: %w", err)
		}
		store = local
	case storage.ProviderR2:
		r2, err := storage.NewR2Storage(storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			Endpoint:        cfg.R2Endpoint,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("r2 storage initialization failed: %w", err)
		}
		store = r2
	default:
		return nil, nil
	}

	logger.Info("Archive ready", "provider", cfg.ArchiveProvider)
	return storage.NewArchive(store, logger), nil
}

// NewGenerationService assembles the service from optional sinks.
func NewGenerationService(orch *rams.Orchestrator, queries *repository.Queries, archive *storage.Archive, logger *slog.Logger) service.GenerationService {
	var ledger service.Ledger
	if queries != nil {
		ledger = queries
	}
	var docs service.DocumentArchive
	if archive != nil {
		docs = archive
	}
	return service.NewGenerationService(orch, ledger, docs, logger)
}
