package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/DukeRupert/rams/internal"
	"github.com/DukeRupert/rams/internal/domain"
	"github.com/DukeRupert/rams/internal/service"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var errLedgerDisabled = errors.New("DATABASE_URL is not set; the generation ledger is disabled")

func newHistoryCmd() *cobra.Command {
	var (
		limit int
		stats bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent generations from the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			if cfg.DatabaseUrl == "" {
				return errLedgerDisabled
			}
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive, got %d", limit)
			}

			db, queries, err := internal.OpenLedger(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			defer w.Flush()

			if stats {
				rows, err := queries.CountGenerationsByStatus(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(w, "STATUS\tCOUNT")
				for _, row := range rows {
					fmt.Fprintf(w, "%s\t%d\n", row.Status, row.Count)
				}
				return nil
			}

			rows, err := queries.ListRecentGenerations(cmd.Context(), int32(limit))
			if err != nil {
				return err
			}

			fmt.Fprintln(w, "ID\tCREATED\tSTATUS\tPROVIDER\tATTEMPTS\tTOKENS\tDURATION\tTASK")
			for _, row := range rows {
				gen, err := service.GenerationFromRow(row)
				if err != nil {
					return err
				}
				fmt.Fprintln(w, historyLine(gen))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of generations to list")
	cmd.Flags().BoolVar(&stats, "stats", false, "Show counts per status instead of recent generations")
	return cmd
}

// historyLine renders one tab separated ledger row.
func historyLine(gen domain.Generation) string {
	status := string(gen.Status)
	if gen.ErrorCode != "" {
		status += " (" + gen.ErrorCode + ")"
	}
	return strings.Join([]string{
		gen.ID.String(),
		gen.CreatedAt.Local().Format(time.DateTime),
		status,
		gen.Provider,
		fmt.Sprint(gen.TotalAttempts()),
		fmt.Sprintf("%d/%d", gen.Usage.InputTokens, gen.Usage.OutputTokens),
		gen.Duration.Round(time.Millisecond).String(),
		truncate(gen.Task, 48),
	}, "\t")
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print an archived generation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}

			id, err := uuid.Parse(args[0])
			if err != nil {
				return domain.Invalid("ramsctl.show", "invalid generation id")
			}

			archive, err := internal.NewArchive(cfg, logger)
			if err != nil {
				return err
			}
			if archive == nil {
				return errors.New("ARCHIVE_PROVIDER is 'none'; nothing is archived")
			}

			doc, err := archive.Load(cmd.Context(), id)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(doc)
		},
	}
}
