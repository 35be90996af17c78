package rams

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/DukeRupert/rams/internal/ai"
	"github.com/DukeRupert/rams/internal/domain"
	"github.com/DukeRupert/rams/internal/metrics"
)

// DefaultBackoff is the pause between the first and second attempt.
const DefaultBackoff = 550 * time.Millisecond

// maxAttempts is the total number of backend calls per prompt.
const maxAttempts = 2

// invokeState is a step in the single-retry state machine.
type invokeState int

const (
	stateFirstAttempt invokeState = iota
	stateBackoff
	stateSecondAttempt
	stateDone
	stateFailed
)

func (s invokeState) String() string {
	switch s {
	case stateFirstAttempt:
		return "first_attempt"
	case stateBackoff:
		return "backoff"
	case stateSecondAttempt:
		return "second_attempt"
	case stateDone:
		return "done"
	case stateFailed:
		return "failed"
	}
	return "unknown"
}

// AttemptError carries the last backend error for a channel after its
// attempts are exhausted.
type AttemptError struct {
	Channel  domain.Channel
	Attempts int
	Err      error
}

func (e *AttemptError) Error() string {
	return fmt.Sprintf("%s channel failed after %d attempt(s): %v", e.Channel, e.Attempts, e.Err)
}

func (e *AttemptError) Unwrap() error {
	return e.Err
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Invoker sends one prompt to the completion backend with at most one retry.
type Invoker struct {
	provider ai.CompletionProvider
	backoff  time.Duration
	sleep    SleepFunc
	logger   *slog.Logger
}

// InvokerOption configures an Invoker.
type InvokerOption func(*Invoker)

// WithBackoff sets the pause before the second attempt.
func WithBackoff(d time.Duration) InvokerOption {
	return func(i *Invoker) {
		if d >= 0 {
			i.backoff = d
		}
	}
}

// WithSleep replaces the backoff sleep, mainly for tests.
func WithSleep(fn SleepFunc) InvokerOption {
	return func(i *Invoker) {
		if fn != nil {
			i.sleep = fn
		}
	}
}

// NewInvoker creates an Invoker for the given provider.
func NewInvoker(provider ai.CompletionProvider, logger *slog.Logger, opts ...InvokerOption) *Invoker {
	if logger == nil {
		logger = slog.Default()
	}
	inv := &Invoker{
		provider: provider,
		backoff:  DefaultBackoff,
		sleep:    sleepContext,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Invoke sends the prompt, retrying exactly once after the backoff if the
// first attempt fails. Any failure is retried, not only transient ones.
func (i *Invoker) Invoke(ctx context.Context, spec domain.PromptSpec) (domain.RawCompletion, error) {
	const op = "rams.invoke"

	if err := spec.Validate(); err != nil {
		return domain.RawCompletion{}, err
	}

	var (
		state    = stateFirstAttempt
		attempts int
		lastErr  error
		result   domain.RawCompletion
	)

	for state != stateDone && state != stateFailed {
		switch state {
		case stateFirstAttempt, stateSecondAttempt:
			attempts++
			completion, err := i.attempt(ctx, spec)
			if err == nil {
				result = domain.RawCompletion{
					Channel:            spec.Channel,
					Text:               completion.Text,
					SucceededOnAttempt: attempts,
					Usage: domain.Usage{
						Model:        completion.Usage.Model,
						InputTokens:  completion.Usage.InputTokens,
						OutputTokens: completion.Usage.OutputTokens,
					},
				}
				state = stateDone
				continue
			}

			lastErr = err
			next := stateFailed
			if state == stateFirstAttempt && ctx.Err() == nil {
				next = stateBackoff
			}
			i.logger.Warn("completion attempt failed",
				"channel", spec.Channel,
				"attempt", attempts,
				"retryable", ai.IsRetryable(err),
				"next", next.String(),
				"error", err,
			)
			state = next

		case stateBackoff:
			if err := i.sleep(ctx, i.backoff); err != nil {
				lastErr = fmt.Errorf("%w (backoff interrupted: %v)", lastErr, err)
				state = stateFailed
				continue
			}
			state = stateSecondAttempt
		}
	}

	if state == stateFailed {
		upstream := domain.Upstream(lastErr, op, fmt.Sprintf("%s completion failed", spec.Channel))
		upstream.Err = &AttemptError{Channel: spec.Channel, Attempts: attempts, Err: lastErr}
		return domain.RawCompletion{}, upstream
	}

	if result.SucceededOnAttempt > 1 {
		i.logger.Info("completion succeeded on retry", "channel", spec.Channel, "attempt", result.SucceededOnAttempt)
	}
	return result, nil
}

// attempt makes one backend call. Whitespace-only text counts as a failure.
func (i *Invoker) attempt(ctx context.Context, spec domain.PromptSpec) (*ai.Completion, error) {
	completion, err := i.provider.Complete(ctx, ai.CompletionParams{
		Prompt:            spec.PromptText,
		SystemInstruction: spec.SystemInstruction,
		MaxOutputTokens:   spec.MaxOutputTokens,
		Temperature:       spec.Temperature,
		TopP:              spec.TopP,
		Seed:              spec.Seed,
		Tag:               spec.Channel.String(),
	})
	if err == nil && (completion == nil || strings.TrimSpace(completion.Text) == "") {
		err = ai.WrapError("complete", ai.EAIEmptyResponse)
	}
	if err != nil {
		metrics.AttemptRecorded(spec.Channel.String(), metrics.OutcomeFailure)
		return nil, err
	}

	metrics.AttemptRecorded(spec.Channel.String(), metrics.OutcomeSuccess)
	metrics.TokensUsed(completion.Usage.InputTokens, completion.Usage.OutputTokens)
	return completion, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
