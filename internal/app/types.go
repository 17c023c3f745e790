package app

import (
	"time"

	"depspin/internal/policies"
	"depspin/internal/types"
)

type ValidateRequest struct {
	ManifestPath string
	ExtraVars    []string
}

type ValidateResult struct {
	Manifest string
	Entries  int
	Findings []types.Finding
}

type ValidateWorkspaceRequest struct {
	Root        string
	ExtraVars   []string
	Concurrency int
}

// ManifestReport is the outcome for one manifest of a workspace. Error is
// set when the file could not be loaded at all.
type ManifestReport struct {
	Manifest string
	Entries  int
	Findings []types.Finding
	Error    string
}

type ValidateWorkspaceResult struct {
	Root      string
	Reports   []ManifestReport
	Conflicts []policies.PinConflict
}

type ResolveRequest struct {
	ManifestPath string
	Platform     string
	OutputDir    string
	Vars         map[string]any
	ExtraVars    []string
}

type ResolveResult struct {
	Manifest    string
	Platform    string
	OutputDir   string
	Fingerprint string
	Pins        []types.Pin
	Skipped     []types.SkippedEntry
}

type InspectRequest struct {
	OutputDir string
}

type InspectSubdirSummary struct {
	Subdir   string
	Packages []string
}

type InspectResult struct {
	Lock        types.Lock
	GeneratedAt time.Time
	Subdirs     []InspectSubdirSummary
	// InSync is false when the ensure file no longer matches the lock.
	InSync bool
}

type DiffRequest struct {
	OldPath string
	NewPath string
}

type DiffResult struct {
	Bumps []types.Bump
}

type HistoryRequest struct {
	RepoDir string
	File    string
	Limit   int
}

type HistoryEntry struct {
	Commit  string
	Author  string
	When    time.Time
	Subject string
	Deleted bool
	Bumps   []types.Bump
}

type HistoryResult struct {
	File    string
	Entries []HistoryEntry
}

type BumpRequest struct {
	ManifestPath string
	Path         string
	Package      string
	Version      string
	ExtraVars    []string
	DryRun       bool
}

type BumpResult struct {
	Manifest string
	Bumps    []types.Bump
	Written  bool
}
