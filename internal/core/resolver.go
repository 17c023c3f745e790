package core

import (
	"context"
	"fmt"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	cipdcommon "go.chromium.org/luci/cipd/common"

	"depspin/internal/types"
)

// Resolver turns manifest entries into concrete pins for one platform.
type Resolver struct {
	Platform Platform
	Vars     CheckoutVars
}

type ResolveResult struct {
	Pins    []types.Pin
	Skipped []types.SkippedEntry
}

// NewResolver layers the manifest's vars and the caller's overrides on top
// of the platform's predefined checkout variables.
func NewResolver(platform Platform, manifest types.Manifest, overrides map[string]any) Resolver {
	vars := NewCheckoutVars(platform).
		Merge(ManifestVars(manifest)).
		Merge(overrides)
	return Resolver{Platform: platform, Vars: vars}
}

// ManifestVars returns the vars mapping of a manifest as plain values.
func ManifestVars(manifest types.Manifest) map[string]any {
	out := make(map[string]any, len(manifest.Vars))
	for _, v := range manifest.Vars {
		out[v.Name] = v.Value
	}
	return out
}

// Resolve walks entries in manifest order. Entries whose condition is false
// and git entries are reported as skipped rather than pinned.
func (r Resolver) Resolve(ctx context.Context, manifest types.Manifest) (ResolveResult, error) {
	result := ResolveResult{Pins: []types.Pin{}}
	for _, entry := range manifest.Deps {
		if entry.DepType == types.DepTypeGit {
			result.Skipped = append(result.Skipped, types.SkippedEntry{Path: entry.Path, Reason: "git dependency"})
			continue
		}
		active, err := EvaluateCondition(entry.Condition, r.Vars)
		if err != nil {
			return ResolveResult{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("dependency %s: condition failed", entry.Path)).
				WithCause(err)
		}
		if !active {
			result.Skipped = append(result.Skipped, types.SkippedEntry{
				Path:   entry.Path,
				Reason: fmt.Sprintf("condition %q is false", entry.Condition),
			})
			continue
		}
		pins, err := r.resolveEntry(ctx, entry)
		if err != nil {
			return ResolveResult{}, err
		}
		if len(pins) == 0 {
			result.Skipped = append(result.Skipped, types.SkippedEntry{
				Path:   entry.Path,
				Reason: fmt.Sprintf("no package for %s", r.Platform),
			})
			continue
		}
		result.Pins = append(result.Pins, pins...)
	}
	log.Ctx(ctx).Debug().
		Str("platform", r.Platform.String()).
		Int("pins", len(result.Pins)).
		Int("skipped", len(result.Skipped)).
		Msg("manifest resolved")
	return result, nil
}

func (r Resolver) resolveEntry(ctx context.Context, entry types.Entry) ([]types.Pin, error) {
	subdir := CheckoutSubdir(entry.Path)
	if err := cipdcommon.ValidateSubdir(subdir); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("dependency %s: %s", entry.Path, err.Error())).
			WithCause(err)
	}
	var pins []types.Pin
	for _, pkg := range entry.Packages {
		name, skip, err := ExpandPackage(pkg.Package, r.Platform)
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("dependency %s: cannot expand %s", entry.Path, pkg.Package)).
				WithCause(err)
		}
		if skip {
			continue
		}
		if err := ValidateVersion(pkg.Version); err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("dependency %s: bad version for %s", entry.Path, name)).
				WithCause(err)
		}
		assert.NotEmpty(ctx, name, "expanded package name must not be empty")
		pins = append(pins, types.Pin{
			Subdir:  subdir,
			Package: name,
			Version: pkg.Version,
		})
	}
	return pins, nil
}
