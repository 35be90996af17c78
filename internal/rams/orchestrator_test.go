package rams

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DukeRupert/rams/internal/ai"
	"github.com/DukeRupert/rams/internal/ai/mock"
	"github.com/DukeRupert/rams/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func noSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func newTestOrchestrator(provider *mock.Provider, cfg Config) *Orchestrator {
	if cfg.Credentials.Provider == "" {
		cfg.Credentials = ai.Credentials{Provider: ai.ProviderMock}
	}
	return NewOrchestrator(provider, cfg, testLogger(), WithSleep(noSleep))
}

func TestOrchestrator_Generate(t *testing.T) {
	provider := mock.New(testLogger())
	provider.Script("sequence", mock.Response{Text: "**Certainly!**\n# 1. Prep:\n* check site\n\n\n* check access"})
	provider.Script("materials", mock.Response{Text: "Here are the items:\n* Drill\n* Ladder"})
	provider.Script("ppe", mock.Response{Text: "- **Safety helmet** (EN 397)"})

	orch := newTestOrchestrator(provider, Config{})
	got, err := orch.Generate(context.Background(), "Install ceiling fan")

	require.NoError(t, err)
	assert.Equal(t, domain.GenerationResult{
		SequenceOfWorks:   "*1. Prep:*\n- check site\n\n- check access",
		PlantAndMaterials: "- Drill\n- Ladder",
		PPE:               "- Safety helmet (EN 397)",
	}, got)
	assert.Equal(t, 3, provider.TotalCalls())
}

func TestOrchestrator_PromptsCarryTask(t *testing.T) {
	provider := mock.New(testLogger())

	orch := newTestOrchestrator(provider, Config{})
	_, err := orch.Generate(context.Background(), "  Replace roof tiles  ")
	require.NoError(t, err)

	params := provider.Params()
	require.Len(t, params, 3)
	budgets := map[string]int{}
	for _, p := range params {
		assert.Contains(t, p.Prompt, "Replace roof tiles")
		assert.NotContains(t, p.Prompt, "  Replace roof tiles  ")
		budgets[p.Tag] = p.MaxOutputTokens
	}
	assert.Equal(t, map[string]int{"sequence": 1400, "materials": 600, "ppe": 900}, budgets)
}

func TestOrchestrator_EmptyTaskMakesNoCalls(t *testing.T) {
	for _, task := range []string{"", "   ", "\n\t"} {
		provider := mock.New(testLogger())
		orch := newTestOrchestrator(provider, Config{})

		_, err := orch.Generate(context.Background(), task)

		assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
		assert.Equal(t, "Missing or invalid task", domain.ErrorMessage(err))
		assert.Zero(t, provider.TotalCalls())
	}
}

func TestOrchestrator_MissingCredentialMakesNoCalls(t *testing.T) {
	provider := mock.New(testLogger())
	orch := newTestOrchestrator(provider, Config{
		Credentials: ai.Credentials{Provider: ai.ProviderOpenAI},
	})

	_, err := orch.Generate(context.Background(), "Install ceiling fan")

	assert.Equal(t, domain.EMISSINGCREDENTIAL, domain.ErrorCode(err))
	assert.Zero(t, provider.TotalCalls())
}

func TestOrchestrator_RetryOnOneChannel(t *testing.T) {
	provider := mock.New(testLogger())
	provider.Script("ppe",
		mock.Response{Err: ai.EAIUnavailable},
		mock.Response{Text: "- Safety boots (EN ISO 20345)"},
	)

	orch := newTestOrchestrator(provider, Config{})
	report, err := orch.GenerateReport(context.Background(), "Install ceiling fan")

	require.NoError(t, err)
	assert.Equal(t, "- Safety boots (EN ISO 20345)", report.Result.PPE)
	assert.Equal(t, map[domain.Channel]int{
		domain.ChannelSequence:  1,
		domain.ChannelMaterials: 1,
		domain.ChannelPPE:       2,
	}, report.Attempts)
	assert.Equal(t, 2, provider.Calls("ppe"))
	assert.Equal(t, "mock-ai-v1", report.Usage.Model)
	assert.Positive(t, report.Usage.InputTokens)
}

func TestOrchestrator_ChannelFailsTwice(t *testing.T) {
	provider := mock.New(testLogger())
	provider.Script("materials", mock.Response{Err: errors.New("503 service unavailable")})

	orch := newTestOrchestrator(provider, Config{})
	_, err := orch.Generate(context.Background(), "Install ceiling fan")

	require.Error(t, err)
	assert.Equal(t, domain.EUPSTREAM, domain.ErrorCode(err))
	assert.Equal(t, "Failed to generate RAMS", domain.ErrorMessage(err))
	assert.Equal(t, "503 service unavailable", domain.ErrorDetail(err))
	assert.Equal(t, 2, provider.Calls("materials"))
	assert.GreaterOrEqual(t, provider.Calls("sequence"), 1)
	assert.GreaterOrEqual(t, provider.Calls("ppe"), 1)
}

func TestOrchestrator_CompletionOrderDoesNotAffectMapping(t *testing.T) {
	provider := mock.New(testLogger())
	provider.Script("sequence", mock.Response{Text: "SEQ", Delay: 30 * time.Millisecond})
	provider.Script("materials", mock.Response{Text: "MAT", Delay: 10 * time.Millisecond})
	provider.Script("ppe", mock.Response{Text: "PPE", Delay: 20 * time.Millisecond})

	orch := newTestOrchestrator(provider, Config{})
	got, err := orch.Generate(context.Background(), "Install ceiling fan")

	require.NoError(t, err)
	assert.Equal(t, "SEQ", got.SequenceOfWorks)
	assert.Equal(t, "MAT", got.PlantAndMaterials)
	assert.Equal(t, "PPE", got.PPE)
}

func TestOrchestrator_RunsChannelsConcurrently(t *testing.T) {
	provider := mock.New(testLogger())
	for _, ch := range domain.AllChannels() {
		provider.Script(ch.String(), mock.Response{Text: "- ok", Delay: 50 * time.Millisecond})
	}

	orch := newTestOrchestrator(provider, Config{})
	start := time.Now()
	_, err := orch.Generate(context.Background(), "Install ceiling fan")

	require.NoError(t, err)
	assert.Less(t, time.Since(start), 140*time.Millisecond)
}

func TestOrchestrator_Timeout(t *testing.T) {
	provider := mock.New(testLogger())
	provider.Script("sequence", mock.Response{Text: "late", Delay: 5 * time.Second})

	orch := newTestOrchestrator(provider, Config{Timeout: 50 * time.Millisecond})
	start := time.Now()
	_, err := orch.Generate(context.Background(), "Install ceiling fan")

	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, domain.EUPSTREAM, domain.ErrorCode(err))
	assert.Equal(t, "generation timed out after 50ms", domain.ErrorDetail(err))
	assert.Equal(t, 1, provider.Calls("sequence"))
}

func TestOrchestrator_CallerCancellation(t *testing.T) {
	provider := mock.New(testLogger())
	provider.Script("ppe", mock.Response{Text: "late", Delay: 5 * time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	orch := newTestOrchestrator(provider, Config{})
	_, err := orch.Generate(ctx, "Install ceiling fan")

	require.Error(t, err)
	assert.Equal(t, domain.EUPSTREAM, domain.ErrorCode(err))
	assert.ErrorIs(t, err, ai.EAITimeout)
}

func TestOrchestrator_TrimModeChannel(t *testing.T) {
	profile := DefaultProfile()
	s := profile.Channels[domain.ChannelMaterials]
	s.Normalize = NormalizeTrim
	profile.Channels[domain.ChannelMaterials] = s

	provider := mock.New(testLogger())
	provider.Script("materials", mock.Response{Text: "  * **Drill**  "})

	orch := newTestOrchestrator(provider, Config{Profile: profile})
	got, err := orch.Generate(context.Background(), "Install ceiling fan")

	require.NoError(t, err)
	assert.Equal(t, "* **Drill**", got.PlantAndMaterials)
}

func TestOrchestrator_ProviderName(t *testing.T) {
	orch := newTestOrchestrator(mock.New(testLogger()), Config{})
	assert.Equal(t, ai.ProviderMock, orch.ProviderName())
}
