package main

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/DukeRupert/rams/internal"
	"github.com/DukeRupert/rams/internal/domain"
	"github.com/DukeRupert/rams/internal/handler"
	"github.com/spf13/cobra"
)

// reportOutput is printed by generate --report.
type reportOutput struct {
	Result       domain.GenerationResult `json:"result"`
	Provider     string                  `json:"provider"`
	Model        string                  `json:"model,omitempty"`
	Attempts     map[domain.Channel]int  `json:"attempts"`
	InputTokens  int                     `json:"inputTokens"`
	OutputTokens int                     `json:"outputTokens"`
	DurationMs   int64                   `json:"durationMs"`
}

func newGenerateCmd() *cobra.Command {
	var (
		provider string
		profile  string
		timeout  time.Duration
		report   bool
	)

	cmd := &cobra.Command{
		Use:   "generate <task>",
		Short: "Generate a RAMS document for a task",
		Example: `  ramsctl generate "Install ceiling fan in a domestic kitchen"
  AI_PROVIDER=mock ramsctl generate --report "Replace roof tiles"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			if provider != "" {
				cfg.AIProvider = provider
			}
			if profile != "" {
				cfg.ProfilePath = profile
			}
			if timeout > 0 {
				cfg.GenerationTimeout = timeout
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			orch, err := internal.NewOrchestrator(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}

			task := strings.Join(args, " ")
			rep, err := orch.GenerateReport(cmd.Context(), task)
			if err != nil {
				redact := handler.NewRedactor(cfg.OpenAIAPIKey, cfg.AnthropicAPIKey, cfg.GeminiAPIKey)
				enc := json.NewEncoder(cmd.ErrOrStderr())
				enc.SetIndent("", "  ")
				_ = enc.Encode(handler.NewErrorBody(redact, err))
				return &reportedError{err: err}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if !report {
				return enc.Encode(rep.Result)
			}
			return enc.Encode(reportOutput{
				Result:       rep.Result,
				Provider:     orch.ProviderName(),
				Model:        rep.Usage.Model,
				Attempts:     rep.Attempts,
				InputTokens:  rep.Usage.InputTokens,
				OutputTokens: rep.Usage.OutputTokens,
				DurationMs:   rep.Duration.Milliseconds(),
			})
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "Completion provider (openai, anthropic, gemini, mock); overrides AI_PROVIDER")
	cmd.Flags().StringVar(&profile, "profile", "", "YAML channel profile; overrides RAMS_PROFILE")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Overall generation timeout; overrides GENERATION_TIMEOUT")
	cmd.Flags().BoolVar(&report, "report", false, "Include attempts, token usage and duration in the output")
	return cmd
}
