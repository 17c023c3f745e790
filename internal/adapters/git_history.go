package adapters

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/rs/zerolog/log"

	"depspin/internal/ports"
	"depspin/internal/shared"
	"depspin/internal/types"
)

// GitHistoryAdapter reads manifest revisions straight from a git
// repository, without shelling out to git.
type GitHistoryAdapter struct {
	Manifests ports.ManifestPort
}

func NewGitHistoryAdapter(manifests ports.ManifestPort) GitHistoryAdapter {
	return GitHistoryAdapter{Manifests: manifests}
}

func (a GitHistoryAdapter) Revisions(ctx context.Context, repoDir string, file string, limit int) ([]types.Revision, error) {
	if a.Manifests == nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("git history requires a manifest parser")
	}
	repo, err := git.PlainOpen(repoDir)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("no git repository at %s", repoDir)).
			WithCause(err)
	}
	head, err := repo.Head()
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("repository has no HEAD commit").
			WithCause(err)
	}
	relative := filepath.ToSlash(filepath.Clean(file))
	iter, err := repo.Log(&git.LogOptions{From: head.Hash(), FileName: &relative})
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read git log").
			WithCause(err)
	}
	defer iter.Close()

	var revisions []types.Revision
	err = iter.ForEach(func(commit *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if limit > 0 && len(revisions) >= limit {
			return storer.ErrStop
		}
		revision, err := a.revisionAt(commit, relative)
		if err != nil {
			return err
		}
		revisions = append(revisions, revision)
		return nil
	})
	if err != nil && !errors.Is(err, storer.ErrStop) {
		var builder *errbuilder.ErrBuilder
		if errors.As(err, &builder) {
			return nil, err
		}
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to walk git history").
			WithCause(err)
	}
	log.Ctx(ctx).Debug().
		Str("repo", repoDir).
		Str("file", relative).
		Int("revisions", len(revisions)).
		Msg("history loaded")
	return revisions, nil
}

// revisionAt loads the manifest as of commit. The log only yields commits
// that touched file, so a missing file means the commit deleted it.
func (a GitHistoryAdapter) revisionAt(commit *object.Commit, file string) (types.Revision, error) {
	name := fmt.Sprintf("%s@%s", file, shared.ShortHash(commit.Hash.String()))
	subject, _, _ := strings.Cut(commit.Message, "\n")
	revision := types.Revision{
		Commit:  commit.Hash.String(),
		Author:  commit.Author.Name,
		When:    commit.Author.When,
		Subject: strings.TrimSpace(subject),
	}
	blob, err := commit.File(file)
	if errors.Is(err, object.ErrFileNotFound) {
		revision.Manifest = types.Manifest{Source: name}
		revision.Deleted = true
		return revision, nil
	}
	if err != nil {
		return types.Revision{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to read %s at %s", file, commit.Hash)).
			WithCause(err)
	}
	contents, err := blob.Contents()
	if err != nil {
		return types.Revision{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to read %s at %s", file, commit.Hash)).
			WithCause(err)
	}
	manifest, err := a.Manifests.ParseManifest(name, []byte(contents))
	if err != nil {
		return types.Revision{}, err
	}
	revision.Manifest = manifest
	return revision, nil
}

var _ ports.HistoryPort = GitHistoryAdapter{}
