package internal

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DukeRupert/rams/internal/ai"
	"github.com/DukeRupert/rams/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func baseConfig() *Config {
	return &Config{
		AIProvider:        ai.ProviderMock,
		AIRequestTimeout:  time.Second,
		GenerationTimeout: 5 * time.Second,
		ArchiveProvider:   "none",
	}
}

func TestNewCompletionProvider_Mock(t *testing.T) {
	p, err := NewCompletionProvider(context.Background(), baseConfig(), discardLogger())
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, ai.ProviderMock, p.Name())
}

func TestNewCompletionProvider_MissingKeyIsNil(t *testing.T) {
	for _, provider := range []string{ai.ProviderOpenAI, ai.ProviderAnthropic, ai.ProviderGemini} {
		t.Run(provider, func(t *testing.T) {
			cfg := baseConfig()
			cfg.AIProvider = provider

			p, err := NewCompletionProvider(context.Background(), cfg, discardLogger())
			require.NoError(t, err)
			assert.Nil(t, p)
		})
	}
}

func TestNewCompletionProvider_WithKey(t *testing.T) {
	cfg := baseConfig()
	cfg.AIProvider = ai.ProviderOpenAI
	cfg.OpenAIAPIKey = "sk-test"

	p, err := NewCompletionProvider(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, ai.ProviderOpenAI, p.Name())

	cfg.AIProvider = ai.ProviderAnthropic
	cfg.AnthropicAPIKey = "sk-ant-test"
	p, err = NewCompletionProvider(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, ai.ProviderAnthropic, p.Name())
}

func TestNewOrchestrator_MissingCredentialRejectsRequests(t *testing.T) {
	cfg := baseConfig()
	cfg.AIProvider = ai.ProviderOpenAI

	orch, err := NewOrchestrator(context.Background(), cfg, discardLogger())
	require.NoError(t, err)

	_, err = orch.Generate(context.Background(), "Install ceiling fan")
	assert.Equal(t, domain.EMISSINGCREDENTIAL, domain.ErrorCode(err))
}

func TestNewOrchestrator_Mock(t *testing.T) {
	orch, err := NewOrchestrator(context.Background(), baseConfig(), discardLogger())
	require.NoError(t, err)

	result, err := orch.Generate(context.Background(), "Replace roof tiles")
	require.NoError(t, err)
	assert.NotEmpty(t, result.SequenceOfWorks)
	assert.NotEmpty(t, result.PlantAndMaterials)
	assert.NotEmpty(t, result.PPE)
}

func TestNewOrchestrator_BadProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("channels:\n  welding: {}\n"), 0o644))

	cfg := baseConfig()
	cfg.ProfilePath = path

	_, err := NewOrchestrator(context.Background(), cfg, discardLogger())
	assert.ErrorContains(t, err, "unknown channel")
}

func TestLoadProfile_SeedPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("seed: 9\n"), 0o644))

	int64Ptr := func(v int64) *int64 { return &v }

	tests := []struct {
		name     string
		profile  string
		envSeed  *int64
		wantSeed *int64
	}{
		{name: "defaults", wantSeed: int64Ptr(42)},
		{name: "profile seed", profile: path, wantSeed: int64Ptr(9)},
		{name: "AI_SEED wins over profile", profile: path, envSeed: int64Ptr(3), wantSeed: int64Ptr(3)},
		{name: "negative AI_SEED disables", profile: path, envSeed: int64Ptr(-1), wantSeed: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			cfg.ProfilePath = tt.profile
			cfg.AISeed = tt.envSeed

			profile, err := loadProfile(cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSeed, profile.Seed)
		})
	}
}

func TestOpenLedger_Disabled(t *testing.T) {
	db, queries, err := OpenLedger(context.Background(), baseConfig(), discardLogger())
	require.NoError(t, err)
	assert.Nil(t, db)
	assert.Nil(t, queries)
}

func TestNewArchive(t *testing.T) {
	cfg := baseConfig()
	archive, err := NewArchive(cfg, discardLogger())
	require.NoError(t, err)
	assert.Nil(t, archive)

	cfg.ArchiveProvider = "local"
	cfg.LocalStoragePath = t.TempDir()
	archive, err = NewArchive(cfg, discardLogger())
	require.NoError(t, err)
	assert.NotNil(t, archive)
}

func TestNewGenerationService_WithoutSinks(t *testing.T) {
	cfg := baseConfig()
	orch, err := NewOrchestrator(context.Background(), cfg, discardLogger())
	require.NoError(t, err)

	svc := NewGenerationService(orch, nil, nil, discardLogger())
	out, err := svc.Generate(context.Background(), "Install ceiling fan")
	require.NoError(t, err)
	assert.False(t, out.Recorded)
}
