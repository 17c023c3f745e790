package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"depspin/internal/adapters"
)

func TestInspectApp(t *testing.T) {
	outputDir := t.TempDir()
	service := NewService()
	service.Clock = fixedClock
	_, err := service.Resolve(t.Context(), ResolveRequest{
		ManifestPath: fixturePath(t, "DEPS"),
		Platform:     "linux-amd64",
		OutputDir:    outputDir,
	})
	require.NoError(t, err)

	result, err := service.Inspect(InspectRequest{OutputDir: outputDir})
	require.NoError(t, err)
	assert.True(t, result.InSync)
	assert.Equal(t, "linux-amd64", result.Lock.Platform)
	assert.Equal(t, fixedClock(), result.GeneratedAt)

	var subdirs []string
	for _, summary := range result.Subdirs {
		subdirs = append(subdirs, summary.Subdir)
	}
	if diff := cmp.Diff([]string{"luci/client/bin", "nodejs", "nsjail"}, subdirs); diff != "" {
		t.Fatalf("unexpected subdirs (-want +got):\n%s", diff)
	}
	assert.Len(t, result.Subdirs[0].Packages, 2)
}

func TestInspectAppDetectsDrift(t *testing.T) {
	outputDir := t.TempDir()
	service := NewService()
	_, err := service.Resolve(t.Context(), ResolveRequest{
		ManifestPath: fixturePath(t, "DEPS"),
		Platform:     "linux-amd64",
		OutputDir:    outputDir,
	})
	require.NoError(t, err)
	ensure := filepath.Join(outputDir, adapters.EnsureFileName)
	require.NoError(t, os.WriteFile(ensure, []byte("@Subdir nodejs\ninfra/3pp/tools/nodejs/linux-amd64 version:2@18.0.0\n"), 0o644))

	result, err := service.Inspect(InspectRequest{OutputDir: outputDir})
	require.NoError(t, err)
	assert.False(t, result.InSync)
}

func TestInspectAppRequiresOutputDir(t *testing.T) {
	_, err := NewService().Inspect(InspectRequest{})
	require.Error(t, err)
}
