package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fixturePath(t *testing.T, parts ...string) string {
	t.Helper()
	root, err := filepath.Abs(filepath.Join("..", ".."))
	require.NoError(t, err)
	return filepath.Join(append([]string{root, "fixtures"}, parts...)...)
}

// copyFixture copies a fixture into a temp dir so tests may rewrite it.
func copyFixture(t *testing.T, parts ...string) string {
	t.Helper()
	data, err := os.ReadFile(fixturePath(t, parts...))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "DEPS")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func fixedClock() time.Time {
	return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
}

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func depsWithNodejs(version string) string {
	return `deps = {
  'nodejs': {
    'packages': [
      {'package': 'infra/3pp/tools/nodejs/${{platform}}', 'version': '` + version + `'},
    ],
    'dep_type': 'cipd',
  },
}
`
}
