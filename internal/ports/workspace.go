package ports

// WorkspacePort discovers DEPS manifests within a checkout tree.
type WorkspacePort interface {
	FindManifests(root string) ([]string, error)
}
