package mock

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/DukeRupert/rams/internal/ai"
)

// Response is one scripted outcome for a Complete call.
type Response struct {
	Text  string
	Err   error
	Delay time.Duration // Simulated latency; honours context cancellation
}

// Provider is a mock completion provider for testing and development.
// It is safe for concurrent use.
type Provider struct {
	logger *slog.Logger

	mu sync.Mutex
	// scripts holds queued responses keyed by CompletionParams.Tag.
	// When a tag's queue is exhausted the last entry repeats.
	scripts map[string][]Response
	calls   map[string]int
	params  []ai.CompletionParams
}

// New creates a new mock completion provider
func New(logger *slog.Logger) *Provider {
	return &Provider{
		logger:  logger,
		scripts: make(map[string][]Response),
		calls:   make(map[string]int),
	}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return ai.ProviderMock
}

// Script queues responses for calls carrying the given tag.
func (p *Provider) Script(tag string, responses ...Response) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scripts[tag] = append(p.scripts[tag], responses...)
}

// Complete returns the next scripted response for params.Tag, or a canned
// response when nothing is scripted.
func (p *Provider) Complete(ctx context.Context, params ai.CompletionParams) (*ai.Completion, error) {
	p.mu.Lock()
	p.calls[params.Tag]++
	p.params = append(p.params, params)
	resp, scripted := p.next(params.Tag)
	p.mu.Unlock()

	if !scripted {
		resp = Response{Text: cannedText(params.Tag)}
	}

	if resp.Delay > 0 {
		timer := time.NewTimer(resp.Delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ai.WrapError("mock completion", ai.EAITimeout)
		}
	}

	if resp.Err != nil {
		return nil, resp.Err
	}

	return &ai.Completion{
		Text: resp.Text,
		Usage: ai.UsageInfo{
			Model:        "mock-ai-v1",
			InputTokens:  len(params.Prompt) / 4,
			OutputTokens: len(resp.Text) / 4,
			Duration:     resp.Delay,
		},
	}, nil
}

// next pops the next scripted response for tag. Caller holds p.mu.
func (p *Provider) next(tag string) (Response, bool) {
	queue := p.scripts[tag]
	if len(queue) == 0 {
		return Response{}, false
	}
	resp := queue[0]
	if len(queue) > 1 {
		p.scripts[tag] = queue[1:]
	}
	return resp, true
}

// Calls returns how many times Complete was called with the given tag.
func (p *Provider) Calls(tag string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[tag]
}

// TotalCalls returns the number of Complete calls across all tags.
func (p *Provider) TotalCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	total := 0
	for _, n := range p.calls {
		total += n
	}
	return total
}

// Params returns a copy of every CompletionParams received, in call order.
func (p *Provider) Params() []ai.CompletionParams {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ai.CompletionParams, len(p.params))
	copy(out, p.params)
	return out
}

// Reset clears call counters and scripted responses for testing
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scripts = make(map[string][]Response)
	p.calls = make(map[string]int)
	p.params = nil
}

// cannedText returns development output shaped like real model responses,
// including the markdown noise the normalizer strips.
func cannedText(tag string) string {
	switch tag {
	case "sequence":
		return "Certainly! Here is the sequence of works:\n\n" +
			"## 1. Preparation:\n" +
			"* Confirm permits and RAMS briefing signed by all operatives\n" +
			"* Inspect access equipment before use\n\n\n" +
			"## 2. Installation:\n" +
			"* Set out work area and install barriers\n" +
			"* Carry out the works in accordance with the method statement\n\n" +
			"## 3. Completion:\n" +
			"* Remove waste and reinstate the area\n" +
			"* Sign off with the site manager"
	case "materials":
		return "- Mobile scaffold tower\n- Cordless drill\n- Fixings\n- Dust sheets"
	case "ppe":
		return "- Safety boots (EN ISO 20345, S1P)\n" +
			"- Safety helmet (EN 397)\n" +
			"- Safety glasses (EN 166, impact grade F)\n" +
			"- High-visibility clothing (EN ISO 20471, Class 2)"
	default:
		return "Mock completion"
	}
}
