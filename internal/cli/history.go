package cli

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"depspin/internal/app"
	"depspin/internal/shared"
)

type historyOptions struct {
	Repo  string
	File  string
	Limit int
}

func newHistoryCommand() *cobra.Command {
	opts := historyOptions{}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the version bumps each commit made to a DEPS file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Repo, "repo", ".", "Git repository root")
	cmd.Flags().StringVar(&opts.File, "file", "DEPS", "DEPS file path relative to the repository root")
	cmd.Flags().IntVar(&opts.Limit, "limit", 10, "Maximum commits to show (0 for all)")
	return cmd
}

func runHistory(ctx context.Context, cmd *cobra.Command, opts historyOptions) error {
	service := newAppService()
	result, err := service.History(ctx, app.HistoryRequest{
		RepoDir: resolveString(cmd, opts.Repo, "repo", "repo"),
		File:    resolveString(cmd, opts.File, "history_file", "file"),
		Limit:   resolveInt(cmd, opts.Limit, "history_limit", "limit"),
	})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(result.Entries) == 0 {
		fmt.Fprintf(out, "no commits touch %s\n", result.File)
		return nil
	}
	for _, entry := range result.Entries {
		fmt.Fprintf(out, "%s %s (%s, %s)\n", shared.ShortHash(entry.Commit), entry.Subject, entry.Author, humanize.Time(entry.When))
		if entry.Deleted {
			fmt.Fprintf(out, "    %s deleted\n", result.File)
		}
		if len(entry.Bumps) == 0 && !entry.Deleted {
			fmt.Fprintln(out, "    no version changes")
		}
		for _, bump := range entry.Bumps {
			printBump(out, "    ", bump)
		}
	}
	return nil
}
