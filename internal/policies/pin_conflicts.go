// Package policies holds checks that span more than one manifest.
package policies

import (
	"fmt"
	"sort"
	"strings"

	"depspin/internal/core"
	"depspin/internal/types"
)

// PinSite is one place a package is pinned.
type PinSite struct {
	Manifest string
	Path     string
	Version  string
}

// PinConflict is a package pinned at more than one version across a
// workspace.
type PinConflict struct {
	Package string
	Sites   []PinSite
}

// Versions returns the distinct versions involved, sorted.
func (c PinConflict) Versions() []string {
	seen := map[string]struct{}{}
	for _, site := range c.Sites {
		seen[site.Version] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for version := range seen {
		out = append(out, version)
	}
	sort.Strings(out)
	return out
}

func (c PinConflict) String() string {
	return fmt.Sprintf("%s pinned at %s", c.Package, strings.Join(c.Versions(), ", "))
}

// FindPinConflicts groups CIPD packages by template across manifests and
// reports every template with more than one pinned version. Conditions are
// ignored: two checkouts may still end up with different copies.
func FindPinConflicts(manifests []types.Manifest) []PinConflict {
	sites := map[string][]PinSite{}
	for _, manifest := range manifests {
		for _, entry := range manifest.Deps {
			if entry.DepType != types.DepTypeCIPD {
				continue
			}
			for _, pkg := range entry.Packages {
				key := core.NormalizeTemplate(strings.TrimSpace(pkg.Package))
				if key == "" {
					continue
				}
				sites[key] = append(sites[key], PinSite{
					Manifest: manifest.Source,
					Path:     entry.Path,
					Version:  pkg.Version,
				})
			}
		}
	}

	var conflicts []PinConflict
	for pkg, pinned := range sites {
		conflict := PinConflict{Package: pkg, Sites: pinned}
		if len(conflict.Versions()) < 2 {
			continue
		}
		sort.SliceStable(conflict.Sites, func(i, j int) bool {
			if conflict.Sites[i].Manifest != conflict.Sites[j].Manifest {
				return conflict.Sites[i].Manifest < conflict.Sites[j].Manifest
			}
			return conflict.Sites[i].Path < conflict.Sites[j].Path
		})
		conflicts = append(conflicts, conflict)
	}
	sort.Slice(conflicts, func(i, j int) bool {
		return conflicts[i].Package < conflicts[j].Package
	})
	return conflicts
}
