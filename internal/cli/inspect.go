package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"depspin/internal/app"
)

type inspectOptions struct {
	OutputDir string
}

func newInspectCommand() *cobra.Command {
	opts := inspectOptions{}
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Summarize a lock file and check the ensure file against it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInspect(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.OutputDir, "output", "out", "Output directory")
	return cmd
}

func runInspect(cmd *cobra.Command, opts inspectOptions) error {
	service := newAppService()
	result, err := service.Inspect(app.InspectRequest{
		OutputDir: resolveString(cmd, opts.OutputDir, "output", "output"),
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	lock := result.Lock
	fmt.Fprintf(out, "manifest: %s\n", lock.Manifest)
	fmt.Fprintf(out, "platform: %s\n", lock.Platform)
	fmt.Fprintf(out, "fingerprint: %s\n", lock.Fingerprint)
	if !result.GeneratedAt.IsZero() {
		fmt.Fprintf(out, "generated: %s (%s)\n", lock.GeneratedAt, humanize.Time(result.GeneratedAt))
	}
	fmt.Fprintf(out, "pins: %d\n", len(lock.Pins))
	for _, summary := range result.Subdirs {
		fmt.Fprintf(out, "- %s\n", summary.Subdir)
		for _, pkg := range summary.Packages {
			fmt.Fprintf(out, "    %s\n", pkg)
		}
	}
	if len(lock.Skipped) > 0 {
		fmt.Fprintf(out, "skipped: %d\n", len(lock.Skipped))
		for _, skipped := range lock.Skipped {
			fmt.Fprintf(out, "- %s: %s\n", skipped.Path, skipped.Reason)
		}
	}
	if result.InSync {
		fmt.Fprintln(out, "ensure file: in sync")
	} else {
		fmt.Fprintln(out, "ensure file: out of sync with lock")
	}
	return nil
}
