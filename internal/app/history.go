package app

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"depspin/internal/core"
	"depspin/internal/types"
)

// History lists the commits that changed a manifest, newest first, each
// with the version bumps it introduced. The oldest commit is compared with
// an empty manifest, so everything it pins shows up as added. A commit that
// deleted the file removes every pin, and the commit that brings it back
// adds them again.
func (s Service) History(ctx context.Context, req HistoryRequest) (HistoryResult, error) {
	repoDir := strings.TrimSpace(req.RepoDir)
	if repoDir == "" {
		repoDir = "."
	}
	file := strings.TrimSpace(req.File)
	if file == "" {
		return HistoryResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("manifest file is required")
	}
	if filepath.IsAbs(file) {
		return HistoryResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("manifest file must be relative to the repository root")
	}
	// One extra revision gives the last listed commit something to diff with.
	fetch := req.Limit
	if fetch > 0 {
		fetch++
	}
	revisions, err := s.HistorySource.Revisions(ctx, repoDir, file, fetch)
	if err != nil {
		return HistoryResult{}, err
	}

	entries := make([]HistoryEntry, 0, len(revisions))
	for i, revision := range revisions {
		if req.Limit > 0 && i >= req.Limit {
			break
		}
		previous := types.Manifest{}
		if i+1 < len(revisions) {
			previous = revisions[i+1].Manifest
		}
		entries = append(entries, HistoryEntry{
			Commit:  revision.Commit,
			Author:  revision.Author,
			When:    revision.When,
			Subject: revision.Subject,
			Deleted: revision.Deleted,
			Bumps:   core.Diff(previous, revision.Manifest),
		})
	}
	return HistoryResult{File: file, Entries: entries}, nil
}
