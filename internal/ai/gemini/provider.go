package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/DukeRupert/rams/internal/ai"
	"google.golang.org/genai"
)

// DefaultModel is the default Gemini model to use
const DefaultModel = "gemini-2.5-flash"

// Config contains configuration for the Gemini provider
type Config struct {
	APIKey         string
	Model          string
	ProviderConfig ai.ProviderConfig
}

// Provider implements the CompletionProvider interface using the Gemini API.
type Provider struct {
	config Config
	client *genai.Client
	logger *slog.Logger
}

// New creates a new Gemini completion provider
func New(ctx context.Context, config Config, logger *slog.Logger) (*Provider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.ProviderConfig.RequestTimeout == 0 {
		config.ProviderConfig.RequestTimeout = 45 * time.Second
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      config.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: config.ProviderConfig.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &Provider{
		config: config,
		client: client,
		logger: logger,
	}, nil
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return ai.ProviderGemini
}

// Complete issues a single GenerateContent call
func (p *Provider) Complete(ctx context.Context, params ai.CompletionParams) (*ai.Completion, error) {
	startTime := time.Now()

	callCtx, cancel := context.WithTimeout(ctx, p.config.ProviderConfig.RequestTimeout)
	defer cancel()

	resp, err := p.client.Models.GenerateContent(callCtx, p.config.Model,
		genai.Text(params.Prompt),
		buildConfig(params),
	)
	if err != nil {
		return nil, ai.WrapError("generate content", mapError(callCtx, err))
	}

	text := ""
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		var b strings.Builder
		for _, part := range resp.Candidates[0].Content.Parts {
			if part != nil && !part.Thought {
				b.WriteString(part.Text)
			}
		}
		text = b.String()
	}
	if text == "" {
		return nil, ai.WrapError("generate content", ai.EAIEmptyResponse)
	}

	usage := ai.UsageInfo{
		Model:    p.config.Model,
		Duration: time.Since(startTime),
	}
	if resp.UsageMetadata != nil {
		usage.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	return &ai.Completion{Text: text, Usage: usage}, nil
}

func buildConfig(params ai.CompletionParams) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(params.Temperature)),
		MaxOutputTokens: int32(params.MaxOutputTokens),
	}
	if params.TopP > 0 {
		cfg.TopP = genai.Ptr(float32(params.TopP))
	}
	if params.Seed != nil {
		cfg.Seed = genai.Ptr(int32(*params.Seed))
	}
	if params.SystemInstruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(params.SystemInstruction, genai.RoleUser)
	}
	return cfg
}

// mapError maps GenAI errors to provider-neutral sentinel errors
func mapError(ctx context.Context, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ai.EAITimeout, err)
	}

	var code int
	var message string
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code, message = apiErr.Code, apiErr.Message
	case errors.As(err, &apiErrPtr):
		code, message = apiErrPtr.Code, apiErrPtr.Message
	default:
		return fmt.Errorf("%w: %v", ai.EAIUnavailable, err)
	}

	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ai.StatusError(ai.EAIUnauthorized, code, message)
	case http.StatusTooManyRequests:
		return ai.StatusError(ai.EAIRateLimit, code, message)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return ai.StatusError(ai.EAITimeout, code, message)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return ai.StatusError(ai.EAIUnavailable, code, message)
	default:
		return fmt.Errorf("API error (status %d): %s", code, message)
	}
}
