package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"depspin/internal/app"
	"depspin/internal/types"
)

func newDiffCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "diff OLD NEW",
		Short: "List version changes between two DEPS files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd.Context(), cmd, args[0], args[1])
		},
	}
}

func runDiff(ctx context.Context, cmd *cobra.Command, oldPath string, newPath string) error {
	service := newAppService()
	result, err := service.Diff(ctx, app.DiffRequest{OldPath: oldPath, NewPath: newPath})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(result.Bumps) == 0 {
		fmt.Fprintln(out, "no version changes")
		return nil
	}
	for _, bump := range result.Bumps {
		printBump(out, "", bump)
	}
	return nil
}

func printBump(out io.Writer, indent string, bump types.Bump) {
	name := bump.Path
	if bump.Package != "" {
		name += " " + bump.Package
	}
	switch bump.Direction {
	case types.BumpAdded:
		fmt.Fprintf(out, "%s+ %s %s\n", indent, name, bump.To)
	case types.BumpRemoved:
		fmt.Fprintf(out, "%s- %s %s\n", indent, name, bump.From)
	default:
		fmt.Fprintf(out, "%s~ %s %s -> %s (%s)\n", indent, name, bump.From, bump.To, bump.Direction)
	}
}
