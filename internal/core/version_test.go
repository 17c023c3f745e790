package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"depspin/internal/types"
)

// ---------------------------------------------------------------------------
// ParseVersion / ValidateVersion
// ---------------------------------------------------------------------------

func TestParseVersion(t *testing.T) {
	tests := []struct {
		raw   string
		kind  types.VersionKind
		value string
	}{
		{"version:2@16.13.0", types.VersionKindTag, "2@16.13.0"},
		{"git_revision:1a5b7b3b1c4e7e9f0a2d3c4b5a6f7e8d9c0b1a2f", types.VersionKindGitRevision, "1a5b7b3b1c4e7e9f0a2d3c4b5a6f7e8d9c0b1a2f"},
		{"latest", types.VersionKindUnknown, "latest"},
		{"  version:1.0  ", types.VersionKindTag, "1.0"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			ref := ParseVersion(tt.raw)
			assert.Equal(t, tt.kind, ref.Kind)
			assert.Equal(t, tt.value, ref.Value)
			assert.Equal(t, tt.raw, ref.Raw)
		})
	}
}

func TestValidateVersion(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr string
	}{
		{name: "tag", raw: "version:2@3.4.chromium.1"},
		{name: "sha1 revision", raw: "git_revision:0123456789abcdef0123456789abcdef01234567"},
		{name: "sha256 revision", raw: "git_revision:0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"},
		{name: "empty tag", raw: "version:", wantErr: "version tag must not be empty"},
		{name: "tag with space", raw: "version:1 2", wantErr: "whitespace"},
		{name: "short revision", raw: "git_revision:abc123", wantErr: "full lowercase hex hash"},
		{name: "uppercase revision", raw: "git_revision:0123456789ABCDEF0123456789abcdef01234567", wantErr: "full lowercase hex hash"},
		{name: "padded tag", raw: " version:1.0 ", wantErr: "leading or trailing whitespace"},
		{name: "trailing newline", raw: "version:1.0\n", wantErr: "leading or trailing whitespace"},
		{name: "overlong tag", raw: "version:" + strings.Repeat("1", 400), wantErr: "too long"},
		{name: "unknown prefix", raw: "latest", wantErr: "must start with"},
		{name: "instance id", raw: "abcdefabcdefabcdefabcdefabcdefabcdefabcd", wantErr: "must start with"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVersion(tt.raw)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// ---------------------------------------------------------------------------
// versionCache
// ---------------------------------------------------------------------------

func TestVersionCacheMemoizesInvalid(t *testing.T) {
	cache := newVersionCache()
	assert.Nil(t, cache.pepVersion("not-a-pep440!!!"))
	_, cached := cache.pep["not-a-pep440!!!"]
	assert.True(t, cached)

	first := cache.debVersion("1.0.0")
	require.NotNil(t, first)
	assert.Same(t, first, cache.debVersion("1.0.0"))
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		name  string
		a, b  string
		order int
		ok    bool
	}{
		{name: "pep440 upgrade", a: "version:2@16.13.0", b: "version:2@18.20.4", order: -1, ok: true},
		{name: "pep440 equal", a: "version:2@16.13.0", b: "version:2@16.13.0", order: 0, ok: true},
		{name: "epoch dominates", a: "version:3@1.0.0", b: "version:2@9.0.0", order: 1, ok: true},
		{name: "debian fallback", a: "version:2@3.4.chromium.1", b: "version:2@3.4.chromium.2", order: -1, ok: true},
		{name: "no epoch", a: "version:1.2.0", b: "version:1.10.0", order: -1, ok: true},
		{name: "git revisions differ", a: "git_revision:aaaa", b: "git_revision:bbbb", order: 0, ok: false},
		{name: "git revisions equal", a: "git_revision:aaaa", b: "git_revision:aaaa", order: 0, ok: true},
		{name: "mixed kinds", a: "version:1.0", b: "git_revision:aaaa", order: 0, ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, ok := CompareVersions(tt.a, tt.b)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.order, order)
		})
	}
}

func TestSplitEpoch(t *testing.T) {
	epoch, rest := splitEpoch("2@16.13.0")
	assert.Equal(t, 2, epoch)
	assert.Equal(t, "16.13.0", rest)

	epoch, rest = splitEpoch("abc@1.0")
	assert.Equal(t, 0, epoch)
	assert.Equal(t, "abc@1.0", rest)
}
