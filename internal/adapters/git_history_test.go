package adapters

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func depsWithNode(version string) string {
	return `deps = {
  'nodejs': {
    'packages': [
      {'package': 'infra/3pp/tools/nodejs/${{platform}}', 'version': '` + version + `'},
    ],
    'dep_type': 'cipd',
  },
}
`
}

type historyRepo struct {
	t    *testing.T
	dir  string
	repo *git.Repository
	when time.Time
}

func newHistoryRepo(t *testing.T) *historyRepo {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	return &historyRepo{t: t, dir: dir, repo: repo, when: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (h *historyRepo) commit(file string, content string, message string) {
	h.t.Helper()
	path := filepath.Join(h.dir, file)
	require.NoError(h.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(h.t, os.WriteFile(path, []byte(content), 0o644))
	worktree, err := h.repo.Worktree()
	require.NoError(h.t, err)
	_, err = worktree.Add(file)
	require.NoError(h.t, err)
	h.when = h.when.Add(time.Hour)
	_, err = worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{Name: "Release Bot", Email: "bot@example.com", When: h.when},
	})
	require.NoError(h.t, err)
}

func (h *historyRepo) remove(file string, message string) {
	h.t.Helper()
	worktree, err := h.repo.Worktree()
	require.NoError(h.t, err)
	_, err = worktree.Remove(file)
	require.NoError(h.t, err)
	h.when = h.when.Add(time.Hour)
	_, err = worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{Name: "Release Bot", Email: "bot@example.com", When: h.when},
	})
	require.NoError(h.t, err)
}

func TestRevisionsNewestFirst(t *testing.T) {
	h := newHistoryRepo(t)
	h.commit("DEPS", depsWithNode("version:2@16.13.0"), "Roll nodejs to 16.13.0")
	h.commit("README.md", "docs\n", "Add readme")
	h.commit("DEPS", depsWithNode("version:2@18.20.1"), "Roll nodejs to 18.20.1\n\nBody text.")

	adapter := NewGitHistoryAdapter(NewDepsFileAdapter())
	revisions, err := adapter.Revisions(context.Background(), h.dir, "DEPS", 0)
	require.NoError(t, err)
	require.Len(t, revisions, 2)

	subjects := []string{revisions[0].Subject, revisions[1].Subject}
	if diff := cmp.Diff([]string{"Roll nodejs to 18.20.1", "Roll nodejs to 16.13.0"}, subjects); diff != "" {
		t.Fatalf("unexpected subjects (-want +got):\n%s", diff)
	}
	assert.Equal(t, "Release Bot", revisions[0].Author)
	assert.Len(t, revisions[0].Commit, 40)
	assert.True(t, revisions[0].When.After(revisions[1].When))
	assert.Equal(t, "version:2@18.20.1", revisions[0].Manifest.Deps[0].Packages[0].Version)
	assert.Equal(t, "version:2@16.13.0", revisions[1].Manifest.Deps[0].Packages[0].Version)
}

func TestRevisionsHonoursLimit(t *testing.T) {
	h := newHistoryRepo(t)
	h.commit("DEPS", depsWithNode("version:2@16.13.0"), "first")
	h.commit("DEPS", depsWithNode("version:2@16.14.0"), "second")
	h.commit("DEPS", depsWithNode("version:2@16.15.0"), "third")

	revisions, err := NewGitHistoryAdapter(NewDepsFileAdapter()).Revisions(context.Background(), h.dir, "DEPS", 2)
	require.NoError(t, err)
	require.Len(t, revisions, 2)
	assert.Equal(t, "third", revisions[0].Subject)
	assert.Equal(t, "second", revisions[1].Subject)
}

func TestRevisionsNestedManifest(t *testing.T) {
	h := newHistoryRepo(t)
	h.commit("DEPS", depsWithNode("version:2@16.13.0"), "root")
	h.commit("client/DEPS", depsWithNode("version:2@20.0.0"), "client")

	revisions, err := NewGitHistoryAdapter(NewDepsFileAdapter()).Revisions(context.Background(), h.dir, "client/DEPS", 0)
	require.NoError(t, err)
	require.Len(t, revisions, 1)
	assert.Equal(t, "client", revisions[0].Subject)
}

func TestRevisionsErrors(t *testing.T) {
	empty := t.TempDir()
	_, err := git.PlainInit(empty, false)
	require.NoError(t, err)

	tests := []struct {
		name     string
		dir      string
		wantCode errbuilder.ErrCode
	}{
		{name: "not a repository", dir: t.TempDir(), wantCode: errbuilder.CodeNotFound},
		{name: "no commits", dir: empty, wantCode: errbuilder.CodeFailedPrecondition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGitHistoryAdapter(NewDepsFileAdapter()).Revisions(context.Background(), tt.dir, "DEPS", 0)
			require.Error(t, err)
			if diff := cmp.Diff(tt.wantCode, errbuilder.CodeOf(err)); diff != "" {
				t.Fatalf("unexpected code (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRevisionsRejectsBrokenRevision(t *testing.T) {
	h := newHistoryRepo(t)
	h.commit("DEPS", "deps = {\n", "broken")

	_, err := NewGitHistoryAdapter(NewDepsFileAdapter()).Revisions(context.Background(), h.dir, "DEPS", 0)
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
	assert.Contains(t, err.Error(), "DEPS@")
}

func TestRevisionsIncludeDeletion(t *testing.T) {
	h := newHistoryRepo(t)
	h.commit("DEPS", depsWithNode("version:2@16.13.0"), "add")
	h.remove("DEPS", "delete")
	h.commit("DEPS", depsWithNode("version:2@18.0.0"), "readd")

	revisions, err := NewGitHistoryAdapter(NewDepsFileAdapter()).Revisions(context.Background(), h.dir, "DEPS", 0)
	require.NoError(t, err)
	require.Len(t, revisions, 3)

	subjects := []string{revisions[0].Subject, revisions[1].Subject, revisions[2].Subject}
	if diff := cmp.Diff([]string{"readd", "delete", "add"}, subjects); diff != "" {
		t.Fatalf("unexpected subjects (-want +got):\n%s", diff)
	}
	deleted := revisions[1]
	assert.True(t, deleted.Deleted)
	assert.Empty(t, deleted.Manifest.Deps)
	assert.Contains(t, deleted.Manifest.Source, "DEPS@")
	assert.False(t, revisions[0].Deleted)
	assert.False(t, revisions[2].Deleted)
}
