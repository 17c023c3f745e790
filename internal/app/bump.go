package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"depspin/internal/core"
)

// Bump re-pins one package in a manifest. The rewritten file must still
// pass validation before it replaces the original.
func (s Service) Bump(ctx context.Context, req BumpRequest) (BumpResult, error) {
	manifestPath := strings.TrimSpace(req.ManifestPath)
	if manifestPath == "" {
		return BumpResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("manifest path is required")
	}
	depPath := strings.TrimSpace(req.Path)
	if depPath == "" {
		return BumpResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("dependency path is required")
	}
	version := strings.TrimSpace(req.Version)
	if err := core.ValidateVersion(version); err != nil {
		return BumpResult{}, err
	}

	info, err := os.Stat(manifestPath)
	if err != nil {
		return BumpResult{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("DEPS file not found").
			WithCause(err)
	}
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return BumpResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read DEPS file").
			WithCause(err)
	}
	before, err := s.Manifests.ParseManifest(manifestPath, data)
	if err != nil {
		return BumpResult{}, err
	}
	updated, err := s.Editor.SetVersion(data, depPath, strings.TrimSpace(req.Package), version)
	if err != nil {
		return BumpResult{}, err
	}
	after, err := s.Manifests.ParseManifest(manifestPath, updated)
	if err != nil {
		return BumpResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("rewritten DEPS file no longer parses").
			WithCause(err)
	}
	if err := core.NewValidator(req.ExtraVars...).Check(ctx, after); err != nil {
		return BumpResult{}, err
	}

	bumps := core.Diff(before, after)
	result := BumpResult{Manifest: manifestPath, Bumps: bumps}
	if len(bumps) == 0 || req.DryRun {
		return result, nil
	}
	if err := os.WriteFile(manifestPath, updated, info.Mode().Perm()); err != nil {
		return BumpResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to write %s", manifestPath)).
			WithCause(err)
	}
	log.Ctx(ctx).Info().
		Str("manifest", manifestPath).
		Str("path", depPath).
		Str("version", version).
		Msg("dependency re-pinned")
	result.Written = true
	return result, nil
}
