package core

import (
	"sort"

	"depspin/internal/types"
)

type pinKey struct {
	path string
	pkg  string
}

// Diff lists every package whose pinned version differs between two
// manifests, ordered by path and package.
func Diff(old types.Manifest, updated types.Manifest) []types.Bump {
	before := versionsByKey(old)
	after := versionsByKey(updated)
	cache := newVersionCache()

	var bumps []types.Bump
	for key, from := range before {
		to, ok := after[key]
		if !ok {
			bumps = append(bumps, types.Bump{Path: key.path, Package: key.pkg, From: from, Direction: types.BumpRemoved})
			continue
		}
		if from == to {
			continue
		}
		bumps = append(bumps, types.Bump{
			Path:      key.path,
			Package:   key.pkg,
			From:      from,
			To:        to,
			Direction: bumpDirection(cache, from, to),
		})
	}
	for key, to := range after {
		if _, ok := before[key]; !ok {
			bumps = append(bumps, types.Bump{Path: key.path, Package: key.pkg, To: to, Direction: types.BumpAdded})
		}
	}
	sort.Slice(bumps, func(i, j int) bool {
		if bumps[i].Path != bumps[j].Path {
			return bumps[i].Path < bumps[j].Path
		}
		return bumps[i].Package < bumps[j].Package
	})
	return bumps
}

func bumpDirection(cache *versionCache, from string, to string) types.BumpDirection {
	order, ok := cache.compare(from, to)
	switch {
	case !ok || order == 0:
		return types.BumpChanged
	case order < 0:
		return types.BumpUpgrade
	default:
		return types.BumpDowngrade
	}
}

func versionsByKey(manifest types.Manifest) map[pinKey]string {
	out := map[pinKey]string{}
	for _, entry := range manifest.Deps {
		if entry.DepType == types.DepTypeGit {
			out[pinKey{path: entry.Path, pkg: ""}] = entry.URL
			continue
		}
		for _, pkg := range entry.Packages {
			out[pinKey{path: entry.Path, pkg: NormalizeTemplate(pkg.Package)}] = pkg.Version
		}
	}
	return out
}
