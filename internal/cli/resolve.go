package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"depspin/internal/app"
)

type resolveOptions struct {
	Manifest  string
	Platform  string
	OutputDir string
	Vars      map[string]string
	ExtraVars []string
}

func newResolveCommand() *cobra.Command {
	opts := resolveOptions{}
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Pin the packages a platform would check out and write a lock and ensure file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runResolve(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Manifest, "manifest", "DEPS", "DEPS file path")
	cmd.Flags().StringVar(&opts.Platform, "platform", "", "Target platform as <os>-<arch> (defaults to the host)")
	cmd.Flags().StringVar(&opts.OutputDir, "output", "out", "Output directory")
	cmd.Flags().StringToStringVar(&opts.Vars, "var", nil, "Checkout variable override as name=value")
	cmd.Flags().StringSliceVar(&opts.ExtraVars, "extra-var", nil, "Additional variable names allowed in conditions")
	return cmd
}

func runResolve(ctx context.Context, cmd *cobra.Command, opts resolveOptions) error {
	service := newAppService()
	result, err := service.Resolve(ctx, app.ResolveRequest{
		ManifestPath: resolveString(cmd, opts.Manifest, "manifest", "manifest"),
		Platform:     resolveString(cmd, opts.Platform, "platform", "platform"),
		OutputDir:    resolveString(cmd, opts.OutputDir, "output", "output"),
		Vars:         resolveVars(cmd, opts.Vars, "vars", "var"),
		ExtraVars:    resolveStrings(cmd, opts.ExtraVars, "extra_condition_vars", "extra-var"),
	})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "resolved: %s for %s\n", result.Manifest, result.Platform)
	fmt.Fprintf(out, "pins: %d, skipped: %d, fingerprint: %s\n", len(result.Pins), len(result.Skipped), result.Fingerprint)
	for _, skipped := range result.Skipped {
		fmt.Fprintf(out, "- skipped %s: %s\n", skipped.Path, skipped.Reason)
	}
	fmt.Fprintf(out, "output: %s\n", result.OutputDir)
	return nil
}
