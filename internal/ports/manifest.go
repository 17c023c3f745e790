package ports

import "depspin/internal/types"

type ManifestPort interface {
	LoadManifest(path string) (types.Manifest, error)
	ParseManifest(name string, data []byte) (types.Manifest, error)
}

// ManifestEditorPort rewrites pinned versions inside raw DEPS content,
// leaving every other byte untouched.
type ManifestEditorPort interface {
	SetVersion(data []byte, path string, pkg string, version string) ([]byte, error)
}
