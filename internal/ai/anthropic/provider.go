package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/DukeRupert/rams/internal/ai"
)

const (
	// APIBaseURL is the base URL for the Anthropic messages API
	APIBaseURL = "https://api.anthropic.com/v1/messages"

	// APIVersion is the Anthropic API version
	APIVersion = "2023-06-01"

	// DefaultModel is the default Claude model to use
	DefaultModel = "claude-3-5-sonnet-20241022"
)

// Config contains configuration for the Anthropic provider
type Config struct {
	APIKey         string
	Model          string
	ProviderConfig ai.ProviderConfig
}

// Provider implements the CompletionProvider interface using Anthropic's Claude API
type Provider struct {
	config   Config
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

// New creates a new Anthropic completion provider
func New(config Config, logger *slog.Logger) (*Provider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	// Set defaults
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.ProviderConfig.RequestTimeout == 0 {
		config.ProviderConfig.RequestTimeout = 45 * time.Second
	}
	endpoint := APIBaseURL
	if config.ProviderConfig.BaseURL != "" {
		endpoint = config.ProviderConfig.BaseURL
	}

	return &Provider{
		config:   config,
		endpoint: endpoint,
		client: &http.Client{
			Timeout: config.ProviderConfig.RequestTimeout,
		},
		logger: logger,
	}, nil
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return ai.ProviderAnthropic
}

// Complete sends a single messages request to Claude.
// The API has no seed parameter, so params.Seed is ignored.
func (p *Provider) Complete(ctx context.Context, params ai.CompletionParams) (*ai.Completion, error) {
	startTime := time.Now()

	req, err := p.buildRequest(ctx, params)
	if err != nil {
		return nil, ai.WrapError("build request", err)
	}

	resp, err := p.executeRequest(ctx, req)
	if err != nil {
		return nil, ai.WrapError("execute request", err)
	}

	var text strings.Builder
	for _, content := range resp.Content {
		if content.Type == "text" {
			text.WriteString(content.Text)
		}
	}
	if text.Len() == 0 {
		return nil, ai.WrapError("parse response", ai.EAIEmptyResponse)
	}

	return &ai.Completion{
		Text: text.String(),
		Usage: ai.UsageInfo{
			Model:        p.config.Model,
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
			Duration:     time.Since(startTime),
		},
	}, nil
}

// buildRequest builds the HTTP request for a text completion
func (p *Provider) buildRequest(ctx context.Context, params ai.CompletionParams) (*http.Request, error) {
	temperature := params.Temperature
	// Claude accepts temperatures in [0, 1]
	if temperature > 1 {
		temperature = 1
	}

	reqBody := apiRequest{
		Model:       p.config.Model,
		MaxTokens:   params.MaxOutputTokens,
		System:      params.SystemInstruction,
		Temperature: &temperature,
		Messages: []apiMessage{
			{
				Role: "user",
				Content: []apiContent{
					{Type: "text", Text: params.Prompt},
				},
			},
		},
	}
	if params.TopP > 0 && params.TopP < 1 {
		reqBody.TopP = &params.TopP
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.config.APIKey)
	req.Header.Set("anthropic-version", APIVersion)

	return req, nil
}

// executeRequest executes a single HTTP request
func (p *Provider) executeRequest(ctx context.Context, req *http.Request) (*apiResponse, error) {
	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ai.EAITimeout, err)
		}
		// Network errors are typically retryable
		return nil, fmt.Errorf("%w: %v", ai.EAIUnavailable, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, p.mapHTTPError(resp.StatusCode, bodyBytes)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &apiResp, nil
}

// mapHTTPError maps HTTP status codes to provider-neutral errors
func (p *Provider) mapHTTPError(statusCode int, body []byte) error {
	var errResp apiErrorResponse
	_ = json.Unmarshal(body, &errResp)

	message := errResp.Error.Message

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ai.StatusError(ai.EAIUnauthorized, statusCode, message)
	case http.StatusTooManyRequests:
		return ai.StatusError(ai.EAIRateLimit, statusCode, message)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return ai.StatusError(ai.EAITimeout, statusCode, message)
	case http.StatusBadRequest:
		return fmt.Errorf("bad request: %s", message)
	case http.StatusInternalServerError, http.StatusServiceUnavailable, http.StatusBadGateway, 529:
		// 529 is Anthropic's "overloaded" status
		return ai.StatusError(ai.EAIUnavailable, statusCode, message)
	default:
		return fmt.Errorf("API error (status %d): %s", statusCode, message)
	}
}

// API request/response types

type apiRequest struct {
	Model       string       `json:"model"`
	MaxTokens   int          `json:"max_tokens"`
	System      string       `json:"system,omitempty"`
	Temperature *float64     `json:"temperature,omitempty"`
	TopP        *float64     `json:"top_p,omitempty"`
	Messages    []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string       `json:"role"`
	Content []apiContent `json:"content"`
}

type apiContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type apiResponse struct {
	ID         string             `json:"id"`
	Type       string             `json:"type"`
	Role       string             `json:"role"`
	Content    []apiContentOutput `json:"content"`
	Model      string             `json:"model"`
	StopReason string             `json:"stop_reason"`
	Usage      apiUsage           `json:"usage"`
}

type apiContentOutput struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type apiUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type apiErrorResponse struct {
	Type  string   `json:"type"`
	Error apiError `json:"error"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
