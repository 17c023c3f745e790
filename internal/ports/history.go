package ports

import (
	"context"

	"depspin/internal/types"
)

// HistoryPort reads past states of a manifest from version control.
type HistoryPort interface {
	// Revisions returns the commits that touched file, newest first, with
	// the manifest as it was at each of them. A limit <= 0 means no limit.
	Revisions(ctx context.Context, repoDir string, file string, limit int) ([]types.Revision, error)
}
