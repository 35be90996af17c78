package internal

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets the settings these tests depend on.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"AI_PROVIDER", "OPENAI_API_KEY", "OPENAI_MODEL", "GEMINI_API_KEY", "AI_RETRY_BACKOFF",
		"AI_SEED", "GENERATION_TIMEOUT", "ARCHIVE_PROVIDER", "RATE_LIMIT_REQUESTS",
	} {
		t.Setenv(k, "")
	}
}

func TestNewConfig_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.AIProvider)
	assert.Equal(t, "gpt-4o", cfg.OpenAIModel)
	assert.Equal(t, 550*time.Millisecond, cfg.AIRetryBackoff)
	assert.Equal(t, 60*time.Second, cfg.GenerationTimeout)
	assert.Equal(t, "none", cfg.ArchiveProvider)
	_, ok := cfg.SeedOverride()
	assert.False(t, ok, "without AI_SEED the profile seed applies")
}

func TestNewConfig_MissingCredentialDoesNotFailStartup(t *testing.T) {
	clearEnv(t)
	t.Setenv("AI_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.Empty(t, cfg.AIAPIKey())
}

func TestNewConfig_ProviderKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("AI_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("OPENAI_API_KEY", "sk-other")

	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "g-key", cfg.AIAPIKey())
}

func TestNewConfig_SeedDisabled(t *testing.T) {
	clearEnv(t)
	t.Setenv("AI_SEED", "-1")

	cfg, err := NewConfig()
	require.NoError(t, err)
	seed, ok := cfg.SeedOverride()
	assert.True(t, ok)
	assert.Nil(t, seed)
}

func TestNewConfig_SeedOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("AI_SEED", "7")

	cfg, err := NewConfig()
	require.NoError(t, err)
	seed, ok := cfg.SeedOverride()
	require.True(t, ok)
	require.NotNil(t, seed)
	assert.Equal(t, int64(7), *seed)
}

func TestNewConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "unknown provider", env: map[string]string{"AI_PROVIDER": "llama"}, want: "AI_PROVIDER must be"},
		{name: "unknown archive", env: map[string]string{"ARCHIVE_PROVIDER": "s3"}, want: "ARCHIVE_PROVIDER must be"},
		{name: "r2 without account", env: map[string]string{"ARCHIVE_PROVIDER": "r2"}, want: "R2_ACCOUNT_ID is required"},
		{name: "zero timeout", env: map[string]string{"GENERATION_TIMEOUT": "0s"}, want: "GENERATION_TIMEOUT must be positive"},
		{name: "zero rate limit", env: map[string]string{"RATE_LIMIT_REQUESTS": "0"}, want: "RATE_LIMIT_REQUESTS must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := NewConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, "production", "info").Info("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	NewLogger(&buf, "development", "warn").Info("hidden")
	assert.Empty(t, buf.String())
}
