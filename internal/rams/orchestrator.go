// Package rams generates Risk Assessment Method Statement content by sending
// three independent prompts to a completion backend concurrently and
// normalizing each response into a section of the document.
package rams

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/DukeRupert/rams/internal/ai"
	"github.com/DukeRupert/rams/internal/domain"
	"golang.org/x/sync/errgroup"
)

// DefaultTimeout bounds a whole generation request.
const DefaultTimeout = 60 * time.Second

// Config holds the orchestrator settings, read once at startup.
type Config struct {
	Credentials ai.Credentials
	Profile     Profile
	Timeout     time.Duration
}

// Report is a generation result together with the bookkeeping collected
// while producing it.
type Report struct {
	Result   domain.GenerationResult
	Attempts map[domain.Channel]int
	Usage    domain.Usage
	Duration time.Duration
}

// Orchestrator runs the three channel prompts for a task and assembles the
// normalized result. It holds no per-request state and is safe for
// concurrent use.
type Orchestrator struct {
	provider    ai.CompletionProvider
	invoker     *Invoker
	normalizer  Normalizer
	credentials ai.Credentials
	profile     Profile
	timeout     time.Duration
	logger      *slog.Logger
}

// NewOrchestrator creates an Orchestrator. Invoker options are passed through
// to the retry invoker.
func NewOrchestrator(provider ai.CompletionProvider, cfg Config, logger *slog.Logger, opts ...InvokerOption) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Profile.Channels == nil {
		cfg.Profile = DefaultProfile()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Orchestrator{
		provider:    provider,
		invoker:     NewInvoker(provider, logger, opts...),
		normalizer:  NewNormalizer(cfg.Profile.NormalizeModes()),
		credentials: cfg.Credentials,
		profile:     cfg.Profile,
		timeout:     cfg.Timeout,
		logger:      logger,
	}
}

// ProviderName returns the name of the completion backend in use.
func (o *Orchestrator) ProviderName() string {
	if o.provider == nil {
		return ""
	}
	return o.provider.Name()
}

// Generate produces the three RAMS sections for task.
func (o *Orchestrator) Generate(ctx context.Context, task string) (domain.GenerationResult, error) {
	report, err := o.GenerateReport(ctx, task)
	if err != nil {
		return domain.GenerationResult{}, err
	}
	return report.Result, nil
}

// GenerateReport produces the three RAMS sections for task and returns them
// with per-channel attempt counts and aggregated token usage.
//
// The three prompts run concurrently. If any channel fails after its retry
// the whole request fails; the remaining channels are cancelled.
func (o *Orchestrator) GenerateReport(ctx context.Context, task string) (*Report, error) {
	const op = "rams.generate"
	start := time.Now()

	req := domain.GenerationRequest{Task: task}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if o.provider == nil || !o.credentials.Configured() {
		return nil, domain.MissingCredential(op)
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	specs := BuildPrompts(req.Task, o.profile)
	raws := make([]domain.RawCompletion, len(specs))

	g, gctx := errgroup.WithContext(ctx)
	for i, spec := range specs {
		g.Go(func() error {
			raw, err := o.invoker.Invoke(gctx, spec)
			if err != nil {
				return err
			}
			raws[i] = raw
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			o.logger.Error("generation timed out", "timeout", o.timeout, "error", err)
			return nil, domain.UpstreamTimeout(err, op, "Failed to generate RAMS", o.timeout)
		}
		o.logger.Error("generation failed", "error", err)
		return nil, domain.Upstream(err, op, "Failed to generate RAMS")
	}

	report := &Report{Attempts: make(map[domain.Channel]int, len(raws))}
	for _, raw := range raws {
		section := o.normalizer.Normalize(raw.Channel, raw.Text)
		report.Result.Set(section.Channel, section.Text)
		report.Attempts[raw.Channel] = raw.SucceededOnAttempt
		report.Usage = report.Usage.Add(raw.Usage)
	}
	report.Duration = time.Since(start)

	o.logger.Info("generation completed",
		"duration_ms", report.Duration.Milliseconds(),
		"input_tokens", report.Usage.InputTokens,
		"output_tokens", report.Usage.OutputTokens,
	)
	return report, nil
}
