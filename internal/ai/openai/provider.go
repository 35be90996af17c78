package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/DukeRupert/rams/internal/ai"
	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	// DefaultModel is the default chat model to use
	DefaultModel = "gpt-4o"
)

// Config contains configuration for the OpenAI provider
type Config struct {
	APIKey         string
	Model          string
	ProviderConfig ai.ProviderConfig
}

// Provider implements the CompletionProvider interface using the OpenAI
// chat completions API.
type Provider struct {
	config Config
	client openai.Client
	logger *slog.Logger
}

// New creates a new OpenAI completion provider
func New(config Config, logger *slog.Logger) (*Provider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	// Set defaults
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.ProviderConfig.RequestTimeout == 0 {
		config.ProviderConfig.RequestTimeout = 45 * time.Second
	}

	// The SDK retries on its own by default; retries are owned by the caller.
	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(config.ProviderConfig.RequestTimeout),
	}
	if config.ProviderConfig.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.ProviderConfig.BaseURL))
	}

	return &Provider{
		config: config,
		client: openai.NewClient(opts...),
		logger: logger,
	}, nil
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return ai.ProviderOpenAI
}

// Complete issues a single chat completion request
func (p *Provider) Complete(ctx context.Context, params ai.CompletionParams) (*ai.Completion, error) {
	startTime := time.Now()

	resp, err := p.client.Chat.Completions.New(ctx, p.buildParams(params))
	if err != nil {
		return nil, ai.WrapError("chat completion", mapError(ctx, err))
	}
	if len(resp.Choices) == 0 {
		return nil, ai.WrapError("chat completion", ai.EAIEmptyResponse)
	}

	model := resp.Model
	if model == "" {
		model = p.config.Model
	}

	p.logger.Debug("OpenAI completion finished",
		"tag", params.Tag,
		"model", model,
		"finish_reason", resp.Choices[0].FinishReason,
		"duration_ms", time.Since(startTime).Milliseconds(),
	)

	return &ai.Completion{
		Text: resp.Choices[0].Message.Content,
		Usage: ai.UsageInfo{
			Model:        model,
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
			Duration:     time.Since(startTime),
		},
	}, nil
}

// buildParams maps provider-neutral parameters onto the SDK request
func (p *Provider) buildParams(params ai.CompletionParams) openai.ChatCompletionNewParams {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if params.SystemInstruction != "" {
		msgs = append(msgs, openai.SystemMessage(params.SystemInstruction))
	}
	msgs = append(msgs, openai.UserMessage(params.Prompt))

	req := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(p.config.Model),
		Messages:    msgs,
		Temperature: openai.Float(params.Temperature),
		MaxTokens:   openai.Int(int64(params.MaxOutputTokens)),
	}
	if params.TopP > 0 {
		req.TopP = openai.Float(params.TopP)
	}
	if params.Seed != nil {
		req.Seed = openai.Int(*params.Seed)
	}
	return req
}

// mapError maps SDK errors to provider-neutral sentinel errors
func mapError(ctx context.Context, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ai.EAITimeout, err)
	}

	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		// Network errors are typically retryable
		return fmt.Errorf("%w: %v", ai.EAIUnavailable, err)
	}

	switch apiErr.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ai.StatusError(ai.EAIUnauthorized, apiErr.StatusCode, apiErr.Message)
	case http.StatusTooManyRequests:
		return ai.StatusError(ai.EAIRateLimit, apiErr.StatusCode, apiErr.Message)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return ai.StatusError(ai.EAITimeout, apiErr.StatusCode, apiErr.Message)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return ai.StatusError(ai.EAIUnavailable, apiErr.StatusCode, apiErr.Message)
	case http.StatusBadRequest:
		if apiErr.Code == "content_policy_violation" || apiErr.Code == "content_filter" {
			return ai.StatusError(ai.EAIContentPolicy, apiErr.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("bad request: %s", apiErr.Message)
	default:
		return fmt.Errorf("API error (status %d): %s", apiErr.StatusCode, apiErr.Message)
	}
}
