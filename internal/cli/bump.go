package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"depspin/internal/app"
)

type bumpOptions struct {
	Manifest  string
	Package   string
	ExtraVars []string
	DryRun    bool
}

func newBumpCommand() *cobra.Command {
	opts := bumpOptions{}
	cmd := &cobra.Command{
		Use:   "bump PATH VERSION",
		Short: "Re-pin a dependency in place, keeping the rest of the file untouched",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBump(cmd.Context(), cmd, args[0], args[1], opts)
		},
	}
	cmd.Flags().StringVar(&opts.Manifest, "manifest", "DEPS", "DEPS file path")
	cmd.Flags().StringVar(&opts.Package, "package", "", "Package template to re-pin when the entry lists several")
	cmd.Flags().StringSliceVar(&opts.ExtraVars, "extra-var", nil, "Additional variable names allowed in conditions")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Report the change without writing the file")
	return cmd
}

func runBump(ctx context.Context, cmd *cobra.Command, path string, version string, opts bumpOptions) error {
	service := newAppService()
	result, err := service.Bump(ctx, app.BumpRequest{
		ManifestPath: resolveString(cmd, opts.Manifest, "manifest", "manifest"),
		Path:         path,
		Package:      opts.Package,
		Version:      version,
		ExtraVars:    resolveStrings(cmd, opts.ExtraVars, "extra_condition_vars", "extra-var"),
		DryRun:       resolveBool(cmd, opts.DryRun, "dry_run", "dry-run"),
	})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(result.Bumps) == 0 {
		fmt.Fprintf(out, "%s already pins %s\n", path, version)
		return nil
	}
	for _, bump := range result.Bumps {
		printBump(out, "", bump)
	}
	if result.Written {
		fmt.Fprintf(out, "updated: %s\n", result.Manifest)
	} else {
		fmt.Fprintln(out, "dry run: nothing written")
	}
	return nil
}
