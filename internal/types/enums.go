package types

type DepType string

const (
	DepTypeCIPD DepType = "cipd"
	DepTypeGit  DepType = "git"
)

type VersionKind string

const (
	VersionKindTag         VersionKind = "version"
	VersionKindGitRevision VersionKind = "git_revision"
	VersionKindUnknown     VersionKind = "unknown"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

type BumpDirection string

const (
	BumpUpgrade   BumpDirection = "upgrade"
	BumpDowngrade BumpDirection = "downgrade"
	BumpChanged   BumpDirection = "changed"
	BumpAdded     BumpDirection = "added"
	BumpRemoved   BumpDirection = "removed"
)
