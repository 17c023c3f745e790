package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"depspin/internal/app"
	"depspin/internal/core"
	"depspin/internal/types"
)

type validateOptions struct {
	Manifest    string
	Workspace   string
	ExtraVars   []string
	Concurrency int
}

func newValidateCommand() *cobra.Command {
	opts := validateOptions{}
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check DEPS manifests for structural problems",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Manifest, "manifest", "DEPS", "DEPS file path")
	cmd.Flags().StringVar(&opts.Workspace, "workspace", "", "Validate every DEPS file below this directory")
	cmd.Flags().StringSliceVar(&opts.ExtraVars, "extra-var", nil, "Additional variable names allowed in conditions")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", 4, "Manifests validated in parallel")
	cmd.MarkFlagsMutuallyExclusive("manifest", "workspace")
	return cmd
}

func runValidate(ctx context.Context, cmd *cobra.Command, opts validateOptions) error {
	service := newAppService()
	extraVars := resolveStrings(cmd, opts.ExtraVars, "extra_condition_vars", "extra-var")
	out := cmd.OutOrStdout()

	if workspace := resolveString(cmd, opts.Workspace, "workspace", "workspace"); workspace != "" && !flagChanged(cmd, "manifest") {
		result, err := service.ValidateWorkspace(ctx, app.ValidateWorkspaceRequest{
			Root:        workspace,
			ExtraVars:   extraVars,
			Concurrency: resolveInt(cmd, opts.Concurrency, "concurrency", "concurrency"),
		})
		if err != nil {
			return err
		}
		failed := 0
		for _, report := range result.Reports {
			if report.Error != "" {
				failed++
				fmt.Fprintf(out, "%s: %s\n", report.Manifest, report.Error)
				continue
			}
			if core.HasErrors(report.Findings) {
				failed++
			}
			printFindings(out, report.Manifest, report.Entries, report.Findings)
		}
		for _, conflict := range result.Conflicts {
			fmt.Fprintf(out, "warning: %s\n", conflict)
			for _, site := range conflict.Sites {
				fmt.Fprintf(out, "  %s %s: %s\n", site.Manifest, site.Path, site.Version)
			}
		}
		if result.Failed() {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("%d of %d manifests failed validation", failed, len(result.Reports)))
		}
		return nil
	}

	result, err := service.Validate(ctx, app.ValidateRequest{
		ManifestPath: resolveString(cmd, opts.Manifest, "manifest", "manifest"),
		ExtraVars:    extraVars,
	})
	if err != nil {
		return err
	}
	printFindings(out, result.Manifest, result.Entries, result.Findings)
	if core.HasErrors(result.Findings) {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("%s failed validation", result.Manifest))
	}
	return nil
}

func printFindings(out io.Writer, manifest string, entries int, findings []types.Finding) {
	if len(findings) == 0 {
		fmt.Fprintf(out, "validated: %s (%d entries)\n", manifest, entries)
		return
	}
	fmt.Fprintf(out, "%s:\n", manifest)
	for _, finding := range findings {
		fmt.Fprintf(out, "  %s\n", core.FormatFinding(finding))
	}
}

// resolveString prefers an explicitly set flag, then config or environment,
// then the flag default.
func resolveString(cmd *cobra.Command, value string, key string, flagName string) string {
	if cmd == nil {
		if value != "" {
			return value
		}
		return viper.GetString(key)
	}
	if flagChanged(cmd, flagName) || !viper.IsSet(key) {
		return value
	}
	return viper.GetString(key)
}

func resolveStrings(cmd *cobra.Command, values []string, key string, flagName string) []string {
	if cmd == nil {
		if len(values) > 0 {
			return values
		}
		return viper.GetStringSlice(key)
	}
	if flagChanged(cmd, flagName) || !viper.IsSet(key) {
		return values
	}
	return viper.GetStringSlice(key)
}

func resolveBool(cmd *cobra.Command, value bool, key string, flagName string) bool {
	if cmd == nil {
		return value
	}
	if flagChanged(cmd, flagName) || !viper.IsSet(key) {
		return value
	}
	return viper.GetBool(key)
}

func resolveInt(cmd *cobra.Command, value int, key string, flagName string) int {
	if cmd == nil {
		return value
	}
	if flagChanged(cmd, flagName) || !viper.IsSet(key) {
		return value
	}
	return viper.GetInt(key)
}

// resolveVars merges checkout variable overrides from config with
// key=value flags. "true" and "false" become booleans, like the bare
// True/False a DEPS vars mapping would hold.
func resolveVars(cmd *cobra.Command, values map[string]string, key string, flagName string) map[string]any {
	out := map[string]any{}
	for name, value := range viper.GetStringMap(key) {
		out[name] = normalizeVar(value)
	}
	if cmd == nil || flagChanged(cmd, flagName) {
		for name, value := range values {
			out[name] = normalizeVar(value)
		}
	}
	return out
}

func normalizeVar(value any) any {
	text, ok := value.(string)
	if !ok {
		return value
	}
	switch trimmed := strings.TrimSpace(text); {
	case strings.EqualFold(trimmed, "true"):
		return true
	case strings.EqualFold(trimmed, "false"):
		return false
	}
	return text
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil || strings.TrimSpace(name) == "" {
		return false
	}
	if flag := cmd.Flags().Lookup(name); flag != nil {
		return flag.Changed
	}
	if flag := cmd.PersistentFlags().Lookup(name); flag != nil {
		return flag.Changed
	}
	return false
}
