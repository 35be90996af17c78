package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/DukeRupert/rams/internal"
	"github.com/DukeRupert/rams/internal/domain"
	"github.com/spf13/cobra"
)

// Exit codes
const (
	exitFailure  = 1
	exitUsage    = 2 // invalid task or missing credential
	exitUpstream = 3
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ramsctl",
		Short:         "ramsctl generates RAMS documents from the command line",
		Long:          `ramsctl runs the same three-prompt RAMS pipeline as the server and prints the result as JSON.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("log-level", "warn", "Log level written to stderr (debug, info, warn, error)")

	root.AddCommand(
		newGenerateCmd(),
		newShowCmd(),
		newHistoryCmd(),
		newVersionCmd(),
	)
	return root
}

// setup loads configuration and a stderr logger for a subcommand.
func setup(cmd *cobra.Command) (*internal.Config, *slog.Logger, error) {
	cfg, err := internal.NewConfig()
	if err != nil {
		return nil, nil, err
	}
	level, _ := cmd.Flags().GetString("log-level")
	logger := internal.NewLogger(cmd.ErrOrStderr(), "development", level)
	return cfg, logger, nil
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	var domainErr *domain.Error
	if !errors.As(err, &domainErr) {
		return exitFailure
	}
	switch domainErr.Code {
	case domain.EINVALID, domain.EMISSINGCREDENTIAL:
		return exitUsage
	case domain.EUPSTREAM:
		return exitUpstream
	default:
		return exitFailure
	}
}

// Execute runs the CLI and returns the exit status.
func Execute(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	// Ctrl-C cancels an in-flight generation.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		var reported *reportedError
		if !errors.As(err, &reported) {
			root.PrintErrln("Error:", err)
		}
		return exitCode(err)
	}
	return 0
}

// reportedError marks an error whose JSON body was already written.
type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func main() {
	os.Exit(Execute(os.Args[1:], os.Stdout, os.Stderr))
}
