package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"depspin/internal/types"
)

const nodeRevision = "git_revision:0123456789abcdef0123456789abcdef01234567"

func sampleManifest() types.Manifest {
	return types.Manifest{
		Source:           "DEPS",
		UseRelativePaths: true,
		Vars:             []types.Var{{Name: "checkout_nsjail", Value: true}},
		Deps: []types.Entry{
			{
				Path:    "nodejs",
				DepType: types.DepTypeCIPD,
				Packages: []types.Package{
					{Package: "infra/3pp/tools/nodejs/${{platform}}", Version: "version:2@16.13.0"},
				},
				Condition: "checkout_linux or checkout_mac",
			},
			{
				Path:    "luci/client",
				DepType: types.DepTypeCIPD,
				Packages: []types.Package{
					{Package: "infra/tools/luci/isolate/${{platform}}", Version: nodeRevision},
					{Package: "infra/tools/luci/swarming/${{platform}}", Version: nodeRevision},
				},
			},
			{
				Path:    "nsjail",
				DepType: types.DepTypeCIPD,
				Packages: []types.Package{
					{Package: "infra/3pp/tools/nsjail/${{platform}}", Version: "version:2@3.4.chromium.1"},
				},
				Condition: "checkout_linux and checkout_x64 and checkout_nsjail",
			},
		},
	}
}

func TestValidatorAcceptsWellFormedManifest(t *testing.T) {
	validator := NewValidator()
	findings := validator.Validate(t.Context(), sampleManifest())
	assert.Empty(t, findings)
	require.NoError(t, validator.Check(t.Context(), sampleManifest()))
}

func TestValidatorFindings(t *testing.T) {
	tests := []struct {
		name  string
		entry types.Entry
		want  []types.Finding
	}{
		{
			name:  "empty path",
			entry: types.Entry{DepType: types.DepTypeCIPD, Packages: []types.Package{{Package: "a/b", Version: "version:1"}}},
			want:  []types.Finding{{Path: "", Field: "path", Severity: types.SeverityError, Message: "dependency path must not be empty"}},
		},
		{
			name:  "missing dep_type",
			entry: types.Entry{Path: "x", Packages: []types.Package{{Package: "a/b", Version: "version:1"}}},
			want:  []types.Finding{{Path: "x", Field: "dep_type", Severity: types.SeverityError, Message: "dep_type must be set"}},
		},
		{
			name:  "unknown dep_type",
			entry: types.Entry{Path: "x", DepType: "svn"},
			want:  []types.Finding{{Path: "x", Field: "dep_type", Severity: types.SeverityError, Message: `unsupported dep_type "svn"`}},
		},
		{
			name:  "empty packages",
			entry: types.Entry{Path: "x", DepType: types.DepTypeCIPD},
			want:  []types.Finding{{Path: "x", Field: "packages", Severity: types.SeverityError, Message: "packages must not be empty"}},
		},
		{
			name: "bad version prefix",
			entry: types.Entry{Path: "x", DepType: types.DepTypeCIPD, Packages: []types.Package{
				{Package: "a/b", Version: "latest"},
			}},
			want: []types.Finding{{Path: "x", Field: "packages[0].version", Severity: types.SeverityError,
				Message: `version "latest" must start with "version:" or "git_revision:"`}},
		},
		{
			name: "duplicate package",
			entry: types.Entry{Path: "x", DepType: types.DepTypeCIPD, Packages: []types.Package{
				{Package: "a/${{platform}}", Version: "version:1"},
				{Package: "a/${platform}", Version: "version:2"},
			}},
			want: []types.Finding{{Path: "x", Field: "packages[1].package", Severity: types.SeverityWarning,
				Message: "package a/${platform} listed more than once"}},
		},
		{
			name: "unknown condition variable",
			entry: types.Entry{Path: "x", DepType: types.DepTypeCIPD, Condition: "checkout_linux and checkout_amiga",
				Packages: []types.Package{{Package: "a/b", Version: "version:1"}}},
			want: []types.Finding{{Path: "x", Field: "condition", Severity: types.SeverityError,
				Message: "unknown condition variable checkout_amiga"}},
		},
		{
			name:  "escaping path",
			entry: types.Entry{Path: "../outside", DepType: types.DepTypeCIPD, Packages: []types.Package{{Package: "a/b", Version: "version:1"}}},
			want:  []types.Finding{{Path: "../outside", Field: "path", Severity: types.SeverityError, Message: "path escapes the checkout root"}},
		},
		{
			name:  "unclean path",
			entry: types.Entry{Path: "./tools//node", DepType: types.DepTypeCIPD, Packages: []types.Package{{Package: "a/b", Version: "version:1"}}},
			want: []types.Finding{{Path: "./tools//node", Field: "path", Severity: types.SeverityWarning,
				Message: "path is not clean (expected tools/node)"}},
		},
		{
			name:  "colon in path",
			entry: types.Entry{Path: "c:/tools", DepType: types.DepTypeCIPD, Packages: []types.Package{{Package: "a/b", Version: "version:1"}}},
			want: []types.Finding{{Path: "c:/tools", Field: "path", Severity: types.SeverityError,
				Message: `bad subdir: colons are not allowed: "c:/tools"`}},
		},
		{
			name:  "checkout root",
			entry: types.Entry{Path: ".", DepType: types.DepTypeCIPD, Packages: []types.Package{{Package: "a/b", Version: "version:1"}}},
			want: []types.Finding{{Path: ".", Field: "path", Severity: types.SeverityError,
				Message: `bad subdir: invalid ".": "."`}},
		},
		{
			name:  "unpinned git dependency",
			entry: types.Entry{Path: "src/x", DepType: types.DepTypeGit, URL: "https://example.com/x.git"},
			want: []types.Finding{{Path: "src/x", Field: "url", Severity: types.SeverityWarning,
				Message: "git dependency is not pinned to a revision"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manifest := types.Manifest{Deps: []types.Entry{tt.entry}}
			got := NewValidator().Validate(t.Context(), manifest)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("unexpected findings (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidatorAbsolutePathWithRelativePaths(t *testing.T) {
	manifest := types.Manifest{
		UseRelativePaths: true,
		Deps: []types.Entry{{Path: "/abs", DepType: types.DepTypeCIPD,
			Packages: []types.Package{{Package: "a/b", Version: "version:1"}}}},
	}
	findings := NewValidator().Validate(t.Context(), manifest)
	require.Len(t, findings, 1)
	assert.Equal(t, "absolute path with use_relative_paths", findings[0].Message)
}

func TestValidatorExtraVars(t *testing.T) {
	manifest := types.Manifest{Deps: []types.Entry{{
		Path: "x", DepType: types.DepTypeCIPD, Condition: "build_with_chromium",
		Packages: []types.Package{{Package: "a/b", Version: "version:1"}},
	}}}
	assert.NotEmpty(t, NewValidator().Validate(t.Context(), manifest))
	assert.Empty(t, NewValidator("build_with_chromium").Validate(t.Context(), manifest))
}

func TestValidatorCheckCollapsesErrors(t *testing.T) {
	manifest := sampleManifest()
	manifest.Deps[0].Packages[0].Version = "16.13.0"
	manifest.Deps = append(manifest.Deps, manifest.Deps[1])

	err := NewValidator().Check(t.Context(), manifest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "manifest has 2 problem(s)")
	assert.Contains(t, err.Error(), "duplicate dependency path")
}

func TestValidatorCheckIgnoresWarnings(t *testing.T) {
	manifest := types.Manifest{Deps: []types.Entry{{Path: "src/x", DepType: types.DepTypeGit, URL: "https://example.com/x.git"}}}
	findings := NewValidator().Validate(t.Context(), manifest)
	require.Len(t, findings, 1)
	assert.False(t, HasErrors(findings))
	require.NoError(t, NewValidator().Check(t.Context(), manifest))
}

func TestFormatFinding(t *testing.T) {
	got := FormatFinding(types.Finding{Path: "nodejs", Field: "condition", Severity: types.SeverityError, Message: "boom"})
	assert.Equal(t, "error: nodejs.condition: boom", got)
	got = FormatFinding(types.Finding{Severity: types.SeverityWarning, Message: "empty"})
	assert.Equal(t, "warning: <empty path>: empty", got)
}
