package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/genrewiki/genrewiki-server/internal/config"
	"github.com/genrewiki/genrewiki-server/internal/di"
	"github.com/genrewiki/genrewiki-server/internal/domain"
	"github.com/genrewiki/genrewiki-server/internal/service"
)

const (
	exitOK       = 0
	exitFailure  = 1
	exitRejected = 2
)

// app holds state shared by every subcommand.
type app struct {
	flags    config.Overrides
	account  string
	injector *do.RootScope
	stdin    io.Reader
}

func (a *app) genres() (*service.GenreService, error) {
	return do.Invoke[*service.GenreService](a.injector)
}

func (a *app) searchService() (*service.SearchService, error) {
	return do.Invoke[*service.SearchService](a.injector)
}

// run executes genrectl with args and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{stdin: stdin}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if a.injector != nil {
		if shutdownErr := a.injector.Shutdown(); shutdownErr != nil {
			fmt.Fprintf(stderr, "shutdown: %v\n", shutdownErr)
		}
	}
	if err == nil {
		return exitOK
	}

	var genreErr domain.GenreError
	if errors.As(err, &genreErr) {
		writeJSON(stderr, map[string]any{"error": genreErr.AppError()})
		return exitRejected
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return exitFailure
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "genrectl",
		Short:         "Manage the genre taxonomy",
		Long:          "genrectl creates, edits, deletes and rates genres while keeping the hierarchy acyclic and every change audited.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a.injector = di.NewContainer(a.flags)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.account, "account", os.Getenv("GENREWIKI_ACCOUNT"), "Account id recorded on changes (env GENREWIKI_ACCOUNT)")
	pf.StringVar(&a.flags.Env, "env", "", "Environment (development, staging, production)")
	pf.StringVar(&a.flags.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&a.flags.DataPath, "data-path", "", "Directory holding the database and search index")
	pf.StringVar(&a.flags.BusyTimeout, "busy-timeout", "", "SQLite busy timeout (e.g. 5s)")
	pf.StringVar(&a.flags.SearchEnabled, "search", "", "Maintain the full-text index (true/false)")
	pf.StringVar(&a.flags.EnvFile, "env-file", ".env", "Path to .env file")

	root.AddCommand(
		newCreateCmd(a),
		newUpdateCmd(a),
		newDeleteCmd(a),
		newVoteCmd(a),
		newShowCmd(a),
		newHistoryCmd(a),
		newVotesCmd(a),
		newTreeCmd(a),
		newSearchCmd(a),
		newReindexCmd(a),
	)
	return root
}

func writeJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
