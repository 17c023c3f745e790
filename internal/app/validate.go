package app

import (
	"context"
	"errors"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"depspin/internal/core"
	"depspin/internal/policies"
	"depspin/internal/types"
)

const defaultConcurrency = 4

func (s Service) Validate(ctx context.Context, req ValidateRequest) (ValidateResult, error) {
	manifestPath := strings.TrimSpace(req.ManifestPath)
	if manifestPath == "" {
		return ValidateResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("manifest path is required")
	}
	manifest, err := s.Manifests.LoadManifest(manifestPath)
	if err != nil {
		return ValidateResult{}, err
	}
	findings := core.NewValidator(req.ExtraVars...).Validate(ctx, manifest)
	return ValidateResult{
		Manifest: manifestPath,
		Entries:  len(manifest.Deps),
		Findings: findings,
	}, nil
}

// ValidateWorkspace validates every manifest under a root directory. Files
// are checked concurrently; reports keep the discovery order.
func (s Service) ValidateWorkspace(ctx context.Context, req ValidateWorkspaceRequest) (ValidateWorkspaceResult, error) {
	root := strings.TrimSpace(req.Root)
	if root == "" {
		return ValidateWorkspaceResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("workspace root is required")
	}
	paths, err := s.Workspace.FindManifests(root)
	if err != nil {
		return ValidateWorkspaceResult{}, err
	}
	if len(paths) == 0 {
		return ValidateWorkspaceResult{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("no DEPS files found in " + root)
	}
	limit := req.Concurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}
	validator := core.NewValidator(req.ExtraVars...)
	reports := make([]ManifestReport, len(paths))
	loaded := make([]*types.Manifest, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			report := ManifestReport{Manifest: path}
			manifest, err := s.Manifests.LoadManifest(path)
			if err != nil {
				report.Error = errorMessage(err)
				reports[i] = report
				return nil
			}
			report.Entries = len(manifest.Deps)
			report.Findings = validator.Validate(gctx, manifest)
			reports[i] = report
			loaded[i] = &manifest
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ValidateWorkspaceResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("workspace validation interrupted").
			WithCause(err)
	}
	var manifests []types.Manifest
	for _, manifest := range loaded {
		if manifest != nil {
			manifests = append(manifests, *manifest)
		}
	}
	conflicts := policies.FindPinConflicts(manifests)
	log.Ctx(ctx).Debug().
		Str("root", root).
		Int("manifests", len(reports)).
		Int("conflicts", len(conflicts)).
		Int("concurrency", limit).
		Msg("workspace validated")
	return ValidateWorkspaceResult{Root: root, Reports: reports, Conflicts: conflicts}, nil
}

// Failed reports whether any manifest failed to load or has errors. Pin
// conflicts are warnings and never fail a workspace.
func (r ValidateWorkspaceResult) Failed() bool {
	for _, report := range r.Reports {
		if report.Error != "" || core.HasErrors(report.Findings) {
			return true
		}
	}
	return false
}

func errorMessage(err error) string {
	var builder *errbuilder.ErrBuilder
	if errors.As(err, &builder) && strings.TrimSpace(builder.Msg) != "" {
		return builder.Msg
	}
	return err.Error()
}
