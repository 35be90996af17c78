package mock

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/DukeRupert/rams/internal/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProvider() *Provider {
	return New(slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

func TestProvider_ScriptedResponsesInOrder(t *testing.T) {
	p := newProvider()
	boom := errors.New("boom")
	p.Script("ppe", Response{Err: boom}, Response{Text: "second"})

	_, err := p.Complete(context.Background(), ai.CompletionParams{Tag: "ppe"})
	assert.ErrorIs(t, err, boom)

	got, err := p.Complete(context.Background(), ai.CompletionParams{Tag: "ppe"})
	require.NoError(t, err)
	assert.Equal(t, "second", got.Text)

	// Last scripted entry repeats once the queue is exhausted
	got, err = p.Complete(context.Background(), ai.CompletionParams{Tag: "ppe"})
	require.NoError(t, err)
	assert.Equal(t, "second", got.Text)

	assert.Equal(t, 3, p.Calls("ppe"))
	assert.Equal(t, 3, p.TotalCalls())
}

func TestProvider_CannedResponseWhenUnscripted(t *testing.T) {
	p := newProvider()

	got, err := p.Complete(context.Background(), ai.CompletionParams{Tag: "materials", Prompt: "List plant"})
	require.NoError(t, err)
	assert.Contains(t, got.Text, "Mobile scaffold tower")
	assert.Equal(t, "mock-ai-v1", got.Usage.Model)
}

func TestProvider_DelayHonoursCancellation(t *testing.T) {
	p := newProvider()
	p.Script("sequence", Response{Text: "late", Delay: time.Minute})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := p.Complete(ctx, ai.CompletionParams{Tag: "sequence"})
	assert.ErrorIs(t, err, ai.EAITimeout)
}

func TestProvider_Reset(t *testing.T) {
	p := newProvider()
	p.Script("ppe", Response{Text: "x"})
	_, _ = p.Complete(context.Background(), ai.CompletionParams{Tag: "ppe"})

	p.Reset()

	assert.Equal(t, 0, p.TotalCalls())
	assert.Empty(t, p.Params())
	got, err := p.Complete(context.Background(), ai.CompletionParams{Tag: "ppe"})
	require.NoError(t, err)
	assert.Contains(t, got.Text, "EN 397")
}
