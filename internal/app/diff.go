package app

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"depspin/internal/core"
)

func (s Service) Diff(ctx context.Context, req DiffRequest) (DiffResult, error) {
	oldPath := strings.TrimSpace(req.OldPath)
	newPath := strings.TrimSpace(req.NewPath)
	if oldPath == "" || newPath == "" {
		return DiffResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("two manifest paths are required")
	}
	before, err := s.Manifests.LoadManifest(oldPath)
	if err != nil {
		return DiffResult{}, err
	}
	after, err := s.Manifests.LoadManifest(newPath)
	if err != nil {
		return DiffResult{}, err
	}
	bumps := core.Diff(before, after)
	log.Ctx(ctx).Debug().
		Str("old", oldPath).
		Str("new", newPath).
		Int("bumps", len(bumps)).
		Msg("manifests compared")
	return DiffResult{Bumps: bumps}, nil
}
