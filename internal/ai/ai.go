package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// CompletionProvider defines the interface for text-completion backends.
// Implementations make exactly one backend call per Complete; retry policy
// belongs to the caller.
type CompletionProvider interface {
	// Complete sends a single prompt and returns the generated text
	Complete(ctx context.Context, params CompletionParams) (*Completion, error)

	// Name identifies the provider (e.g., "openai")
	Name() string
}

// CompletionParams contains parameters for a single completion request
type CompletionParams struct {
	Prompt            string  // User prompt text
	SystemInstruction string  // Optional system message
	MaxOutputTokens   int     // Output token budget
	Temperature       float64 // Sampling temperature (0-2)
	TopP              float64 // Nucleus sampling; 0 leaves the backend default
	Seed              *int64  // Optional reproducibility hint
	Tag               string  // Caller label for logging (e.g., channel name)
}

// Completion is the text returned by a provider
type Completion struct {
	Text  string    // Generated text, possibly empty
	Usage UsageInfo // Token usage information
}

// UsageInfo tracks API usage for monitoring
type UsageInfo struct {
	Model        string        // AI model used
	InputTokens  int           // Tokens in the request
	OutputTokens int           // Tokens in the response
	Duration     time.Duration // Request duration
}

// ProviderConfig contains common configuration for AI providers
type ProviderConfig struct {
	RequestTimeout time.Duration // Timeout for individual requests
	BaseURL        string        // Optional endpoint override
}

// Error codes for AI provider operations
var (
	// EAIRateLimit indicates the API rate limit has been exceeded
	EAIRateLimit = errors.New("ai provider rate limit exceeded")

	// EAIContentPolicy indicates the prompt violates content policy
	EAIContentPolicy = errors.New("prompt violates content policy")

	// EAITimeout indicates the request timed out
	EAITimeout = errors.New("ai request timed out")

	// EAIUnavailable indicates the AI service is temporarily unavailable
	EAIUnavailable = errors.New("ai service temporarily unavailable")

	// EAIUnauthorized indicates invalid API credentials
	EAIUnauthorized = errors.New("ai provider authentication failed")

	// EAIEmptyResponse indicates the provider returned no usable content
	EAIEmptyResponse = errors.New("ai provider returned no content")
)

// IsRetryable returns true if the error is a transient error that can be retried
func IsRetryable(err error) bool {
	return errors.Is(err, EAIRateLimit) ||
		errors.Is(err, EAITimeout) ||
		errors.Is(err, EAIUnavailable) ||
		errors.Is(err, EAIEmptyResponse)
}

// WrapError wraps an error with context about the AI operation
func WrapError(operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("ai %s: %w", operation, err)
}

// StatusError wraps a sentinel with the status code and message reported by
// the backend, so the caller can surface the upstream text.
func StatusError(sentinel error, status int, message string) error {
	if message == "" {
		message = http.StatusText(status)
	}
	return fmt.Errorf("%w: %d %s", sentinel, status, message)
}

// Credentials holds the completion-service credential loaded at startup.
// The zero value means the backend is not configured.
type Credentials struct {
	Provider string
	APIKey   string
}

// Configured reports whether a credential is present. The mock provider
// needs no key.
func (c Credentials) Configured() bool {
	return c.Provider == ProviderMock || c.APIKey != ""
}

// Provider names accepted in configuration
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderMock      = "mock"
)
