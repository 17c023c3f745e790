package core

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	cipdcommon "go.chromium.org/luci/cipd/common"

	"depspin/internal/types"
)

// Validator checks the structural properties of a loaded manifest.
type Validator struct {
	// ExtraVars are additional identifiers accepted in conditions, on top
	// of the predefined checkout variables and the manifest's own vars.
	ExtraVars []string
}

var validDepTypes = map[types.DepType]struct{}{
	types.DepTypeCIPD: {},
	types.DepTypeGit:  {},
}

func NewValidator(extraVars ...string) Validator {
	return Validator{ExtraVars: extraVars}
}

// Validate returns every problem found in the manifest, in entry order.
func (v Validator) Validate(ctx context.Context, manifest types.Manifest) []types.Finding {
	known := v.knownIdentifiers(manifest)
	var findings []types.Finding
	seen := map[string]struct{}{}
	for _, entry := range manifest.Deps {
		if _, dup := seen[entry.Path]; dup && entry.Path != "" {
			findings = append(findings, errorFinding(entry.Path, "path", "duplicate dependency path"))
		}
		seen[entry.Path] = struct{}{}
		findings = append(findings, validatePath(entry.Path, manifest.UseRelativePaths)...)
		findings = append(findings, validateEntry(entry)...)
		if strings.TrimSpace(entry.Condition) != "" {
			findings = append(findings, validateCondition(entry, known)...)
		}
	}
	log.Ctx(ctx).Debug().
		Str("manifest", manifest.Source).
		Int("entries", len(manifest.Deps)).
		Int("findings", len(findings)).
		Msg("manifest validated")
	return findings
}

// Check collapses the error findings of Validate into a single error.
// Warnings never fail the check.
func (v Validator) Check(ctx context.Context, manifest types.Manifest) error {
	var problems []string
	for _, finding := range v.Validate(ctx, manifest) {
		if finding.Severity != types.SeverityError {
			continue
		}
		problems = append(problems, FormatFinding(finding))
	}
	if len(problems) == 0 {
		return nil
	}
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("manifest has %d problem(s): %s", len(problems), strings.Join(problems, "; ")))
}

// HasErrors reports whether any finding is an error.
func HasErrors(findings []types.Finding) bool {
	for _, finding := range findings {
		if finding.Severity == types.SeverityError {
			return true
		}
	}
	return false
}

func FormatFinding(finding types.Finding) string {
	location := finding.Path
	if location == "" {
		location = "<empty path>"
	}
	if finding.Field != "" {
		location += "." + finding.Field
	}
	return fmt.Sprintf("%s: %s: %s", finding.Severity, location, finding.Message)
}

func (v Validator) knownIdentifiers(manifest types.Manifest) map[string]struct{} {
	known := map[string]struct{}{}
	for _, name := range KnownConditionVars() {
		known[name] = struct{}{}
	}
	for _, name := range manifest.VarNames() {
		known[name] = struct{}{}
	}
	for _, name := range v.ExtraVars {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			known[trimmed] = struct{}{}
		}
	}
	return known
}

func validatePath(p string, relative bool) []types.Finding {
	if strings.TrimSpace(p) == "" {
		return []types.Finding{errorFinding(p, "path", "dependency path must not be empty")}
	}
	var findings []types.Finding
	if strings.Contains(p, `\`) {
		findings = append(findings, warningFinding(p, "path", "path uses backslashes; use forward slashes"))
	}
	if relative && strings.HasPrefix(p, "/") {
		findings = append(findings, errorFinding(p, "path", "absolute path with use_relative_paths"))
	}
	cleaned := path.Clean(strings.ReplaceAll(p, `\`, "/"))
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return append(findings, errorFinding(p, "path", "path escapes the checkout root"))
	}
	if cleaned != strings.TrimSuffix(strings.ReplaceAll(p, `\`, "/"), "/") {
		findings = append(findings, warningFinding(p, "path", fmt.Sprintf("path is not clean (expected %s)", cleaned)))
	}
	if err := cipdcommon.ValidateSubdir(CheckoutSubdir(p)); err != nil {
		findings = append(findings, errorFinding(p, "path", err.Error()))
	}
	return findings
}

// CheckoutSubdir is the ensure file subdir a dependency path installs to:
// forward slashes, cleaned and relative to the checkout root.
func CheckoutSubdir(p string) string {
	return strings.TrimPrefix(path.Clean(strings.ReplaceAll(p, `\`, "/")), "/")
}

func validateEntry(entry types.Entry) []types.Finding {
	if entry.DepType == "" {
		return []types.Finding{errorFinding(entry.Path, "dep_type", "dep_type must be set")}
	}
	if _, ok := validDepTypes[entry.DepType]; !ok {
		return []types.Finding{errorFinding(entry.Path, "dep_type", fmt.Sprintf("unsupported dep_type %q", entry.DepType))}
	}
	if entry.DepType == types.DepTypeGit {
		return validateGitEntry(entry)
	}
	if len(entry.Packages) == 0 {
		return []types.Finding{errorFinding(entry.Path, "packages", "packages must not be empty")}
	}
	var findings []types.Finding
	seen := map[string]struct{}{}
	for i, pkg := range entry.Packages {
		field := fmt.Sprintf("packages[%d]", i)
		if err := ValidatePackageTemplate(pkg.Package); err != nil {
			findings = append(findings, errorFinding(entry.Path, field+".package", errorText(err)))
		}
		if err := ValidateVersion(pkg.Version); err != nil {
			findings = append(findings, errorFinding(entry.Path, field+".version", errorText(err)))
		}
		key := NormalizeTemplate(pkg.Package)
		if _, dup := seen[key]; dup {
			findings = append(findings, warningFinding(entry.Path, field+".package", fmt.Sprintf("package %s listed more than once", pkg.Package)))
		}
		seen[key] = struct{}{}
	}
	return findings
}

func validateGitEntry(entry types.Entry) []types.Finding {
	url := strings.TrimSpace(entry.URL)
	if url == "" {
		return []types.Finding{errorFinding(entry.Path, "url", "git dependency url must not be empty")}
	}
	if !strings.Contains(url, "@") {
		return []types.Finding{warningFinding(entry.Path, "url", "git dependency is not pinned to a revision")}
	}
	return nil
}

func validateCondition(entry types.Entry, known map[string]struct{}) []types.Finding {
	names, err := ConditionIdentifiers(entry.Condition)
	if err != nil {
		return []types.Finding{errorFinding(entry.Path, "condition", errorText(err))}
	}
	var findings []types.Finding
	for _, name := range names {
		if _, ok := known[name]; !ok {
			findings = append(findings, errorFinding(entry.Path, "condition", fmt.Sprintf("unknown condition variable %s", name)))
		}
	}
	return findings
}

func errorFinding(p string, field string, message string) types.Finding {
	return types.Finding{Path: p, Field: field, Severity: types.SeverityError, Message: message}
}

func warningFinding(p string, field string, message string) types.Finding {
	return types.Finding{Path: p, Field: field, Severity: types.SeverityWarning, Message: message}
}

// errorText prefers the builder message over the full chained error.
func errorText(err error) string {
	var builder *errbuilder.ErrBuilder
	if errors.As(err, &builder) && strings.TrimSpace(builder.Msg) != "" {
		return builder.Msg
	}
	return err.Error()
}
