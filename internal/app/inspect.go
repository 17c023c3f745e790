package app

import (
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"depspin/internal/adapters"
	"depspin/internal/types"
)

func (s Service) Inspect(req InspectRequest) (InspectResult, error) {
	outputDir := strings.TrimSpace(req.OutputDir)
	if outputDir == "" {
		return InspectResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output directory is required")
	}
	lock, err := s.OutputReader.ReadLock(filepath.Join(outputDir, adapters.LockFileName))
	if err != nil {
		return InspectResult{}, err
	}
	ensured, err := s.OutputReader.ReadEnsureFile(filepath.Join(outputDir, adapters.EnsureFileName))
	if err != nil {
		return InspectResult{}, err
	}

	bySubdir := summarizePins(lock.Pins)
	var summaries []InspectSubdirSummary
	for _, subdir := range sortedKeys(bySubdir) {
		packages := bySubdir[subdir]
		sort.Strings(packages)
		summaries = append(summaries, InspectSubdirSummary{Subdir: subdir, Packages: packages})
	}
	// The reader normalizes generated_at to RFC 3339.
	generated, _ := time.Parse(time.RFC3339, lock.GeneratedAt)
	return InspectResult{
		Lock:        lock,
		GeneratedAt: generated,
		Subdirs:     summaries,
		InSync:      samePins(lock.Pins, ensured),
	}, nil
}

func summarizePins(pins []types.Pin) map[string][]string {
	packages := map[string][]string{}
	for _, pin := range pins {
		packages[pin.Subdir] = append(packages[pin.Subdir], pin.Package+" "+pin.Version)
	}
	return packages
}

func samePins(a []types.Pin, b []types.Pin) bool {
	if len(a) != len(b) {
		return false
	}
	counts := map[types.Pin]int{}
	for _, pin := range a {
		counts[pin]++
	}
	for _, pin := range b {
		counts[pin]--
		if counts[pin] < 0 {
			return false
		}
	}
	return true
}

func sortedKeys[V any](input map[string]V) []string {
	keys := make([]string, 0, len(input))
	for key := range input {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
