package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/cespare/xxhash/v2"

	"depspin/internal/core"
	"depspin/internal/types"
)

func (s Service) Resolve(ctx context.Context, req ResolveRequest) (ResolveResult, error) {
	manifestPath := strings.TrimSpace(req.ManifestPath)
	if manifestPath == "" {
		return ResolveResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("manifest path is required")
	}
	outputDir := strings.TrimSpace(req.OutputDir)
	if outputDir == "" {
		return ResolveResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output directory is required")
	}
	platform := core.HostPlatform()
	if value := strings.TrimSpace(req.Platform); value != "" {
		parsed, err := core.ParsePlatform(value)
		if err != nil {
			return ResolveResult{}, err
		}
		platform = parsed
	}

	manifest, err := s.Manifests.LoadManifest(manifestPath)
	if err != nil {
		return ResolveResult{}, err
	}
	if err := core.NewValidator(req.ExtraVars...).Check(ctx, manifest); err != nil {
		return ResolveResult{}, err
	}
	resolver := core.NewResolver(platform, manifest, req.Vars)
	resolved, err := resolver.Resolve(ctx, manifest)
	if err != nil {
		return ResolveResult{}, err
	}

	fingerprint := buildFingerprint(platform, resolved.Pins)
	lock := types.Lock{
		Manifest:    manifestPath,
		Platform:    platform.String(),
		Fingerprint: fingerprint,
		GeneratedAt: generatedAt(s.Clock),
		Vars:        resolver.Vars.Strings(),
		Pins:        resolved.Pins,
		Skipped:     resolved.Skipped,
	}
	output := s.Output(outputDir)
	if err := output.WriteLock(lock); err != nil {
		return ResolveResult{}, err
	}
	if err := output.WriteEnsureFile(resolved.Pins); err != nil {
		return ResolveResult{}, err
	}
	return ResolveResult{
		Manifest:    manifestPath,
		Platform:    platform.String(),
		OutputDir:   outputDir,
		Fingerprint: fingerprint,
		Pins:        resolved.Pins,
		Skipped:     resolved.Skipped,
	}, nil
}

func generatedAt(clock func() time.Time) string {
	now := time.Now().UTC()
	if clock != nil {
		now = clock().UTC()
	}
	return now.Format(time.RFC3339)
}

// buildFingerprint hashes the platform and the pins in a stable order, so
// two resolutions with the same outcome share a fingerprint.
func buildFingerprint(platform core.Platform, pins []types.Pin) string {
	ordered := append([]types.Pin(nil), pins...)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Subdir != ordered[j].Subdir {
			return ordered[i].Subdir < ordered[j].Subdir
		}
		return ordered[i].Package < ordered[j].Package
	})
	digest := xxhash.New()
	_, _ = digest.WriteString(platform.String())
	_, _ = digest.WriteString("\n")
	for _, pin := range ordered {
		_, _ = digest.WriteString(pin.Subdir)
		_, _ = digest.WriteString("\x00")
		_, _ = digest.WriteString(pin.Package)
		_, _ = digest.WriteString("=")
		_, _ = digest.WriteString(pin.Version)
		_, _ = digest.WriteString("\n")
	}
	return fmt.Sprintf("%016x", digest.Sum64())
}
