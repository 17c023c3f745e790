package types

import "time"

// VersionRef is a parsed CIPD version string.
type VersionRef struct {
	Raw   string
	Kind  VersionKind
	Value string
}

type Finding struct {
	Path     string   `yaml:"path"`
	Field    string   `yaml:"field"`
	Severity Severity `yaml:"severity"`
	Message  string   `yaml:"message"`
}

// Pin is a concrete package instance selected for one platform.
type Pin struct {
	Subdir  string `yaml:"subdir"`
	Package string `yaml:"package"`
	Version string `yaml:"version"`
}

type SkippedEntry struct {
	Path   string `yaml:"path"`
	Reason string `yaml:"reason"`
}

type Lock struct {
	Manifest    string            `yaml:"manifest"`
	Platform    string            `yaml:"platform"`
	Fingerprint string            `yaml:"fingerprint"`
	GeneratedAt string            `yaml:"generated_at"`
	Vars        map[string]string `yaml:"vars,omitempty"`
	Pins        []Pin             `yaml:"pins"`
	Skipped     []SkippedEntry    `yaml:"skipped,omitempty"`
}

type Bump struct {
	Path      string
	Package   string
	From      string
	To        string
	Direction BumpDirection
}

// Revision is the state of a manifest at one commit. A commit that deleted
// the file has Deleted set and an empty Manifest.
type Revision struct {
	Commit   string
	Author   string
	When     time.Time
	Subject  string
	Manifest Manifest
	Deleted  bool
}
