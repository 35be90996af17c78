package ai

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "rate limit", err: EAIRateLimit, want: true},
		{name: "wrapped timeout", err: fmt.Errorf("call: %w", EAITimeout), want: true},
		{name: "unavailable", err: WrapError("complete", EAIUnavailable), want: true},
		{name: "empty response", err: EAIEmptyResponse, want: true},
		{name: "unauthorized", err: EAIUnauthorized, want: false},
		{name: "content policy", err: EAIContentPolicy, want: false},
		{name: "other", err: errors.New("bad request"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestWrapError(t *testing.T) {
	assert.NoError(t, WrapError("op", nil))

	err := WrapError("chat completion", EAIRateLimit)
	assert.ErrorIs(t, err, EAIRateLimit)
	assert.Equal(t, "ai chat completion: ai provider rate limit exceeded", err.Error())
}

func TestStatusError(t *testing.T) {
	err := StatusError(EAIUnavailable, 503, "down")
	assert.ErrorIs(t, err, EAIUnavailable)
	assert.Equal(t, "ai service temporarily unavailable: 503 down", err.Error())

	err = StatusError(EAIUnauthorized, 401, "")
	assert.ErrorIs(t, err, EAIUnauthorized)
	assert.Equal(t, "ai provider authentication failed: 401 Unauthorized", err.Error())
}

func TestCredentials_Configured(t *testing.T) {
	assert.False(t, Credentials{}.Configured())
	assert.False(t, Credentials{Provider: ProviderOpenAI}.Configured())
	assert.True(t, Credentials{Provider: ProviderOpenAI, APIKey: "sk-test"}.Configured())
	assert.True(t, Credentials{Provider: ProviderMock}.Configured())
}
