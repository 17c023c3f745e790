package policies

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"depspin/internal/types"
)

func cipdEntry(path string, pkg string, version string) types.Entry {
	return types.Entry{
		Path:     path,
		DepType:  types.DepTypeCIPD,
		Packages: []types.Package{{Package: pkg, Version: version}},
	}
}

func TestFindPinConflicts(t *testing.T) {
	root := types.Manifest{Source: "DEPS", Deps: []types.Entry{
		cipdEntry("nodejs", "infra/3pp/tools/nodejs/${{platform}}", "version:2@16.13.0"),
		cipdEntry("nsjail", "infra/3pp/tools/nsjail/${platform}", "version:2@3.4.chromium.1"),
		{Path: "third_party/depot_tools", DepType: types.DepTypeGit, URL: "https://example.com/depot_tools.git@abc"},
	}}
	client := types.Manifest{Source: "client/DEPS", Deps: []types.Entry{
		cipdEntry("tools/nodejs", "infra/3pp/tools/nodejs/${platform}", "version:2@18.20.1"),
		cipdEntry("tools/nsjail", "infra/3pp/tools/nsjail/${platform}", "version:2@3.4.chromium.1"),
		{Path: "third_party/depot_tools", DepType: types.DepTypeGit, URL: "https://example.com/depot_tools.git@def"},
	}}

	conflicts := FindPinConflicts([]types.Manifest{client, root})
	require.Len(t, conflicts, 1)
	want := PinConflict{
		Package: "infra/3pp/tools/nodejs/${platform}",
		Sites: []PinSite{
			{Manifest: "DEPS", Path: "nodejs", Version: "version:2@16.13.0"},
			{Manifest: "client/DEPS", Path: "tools/nodejs", Version: "version:2@18.20.1"},
		},
	}
	if diff := cmp.Diff(want, conflicts[0]); diff != "" {
		t.Fatalf("unexpected conflict (-want +got):\n%s", diff)
	}
	assert.Equal(t, "infra/3pp/tools/nodejs/${platform} pinned at version:2@16.13.0, version:2@18.20.1", conflicts[0].String())
}

func TestFindPinConflictsNoneWhenAligned(t *testing.T) {
	a := types.Manifest{Source: "a/DEPS", Deps: []types.Entry{cipdEntry("x", "infra/x", "version:1")}}
	b := types.Manifest{Source: "b/DEPS", Deps: []types.Entry{cipdEntry("x", "infra/x", "version:1")}}
	assert.Empty(t, FindPinConflicts([]types.Manifest{a, b}))
}

func TestFindPinConflictsWithinOneManifest(t *testing.T) {
	m := types.Manifest{Source: "DEPS", Deps: []types.Entry{
		cipdEntry("a", "infra/x", "version:1"),
		cipdEntry("b", "infra/x", "version:2"),
	}}
	conflicts := FindPinConflicts([]types.Manifest{m})
	require.Len(t, conflicts, 1)
	assert.Equal(t, []string{"version:1", "version:2"}, conflicts[0].Versions())
}
