package core

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	pep440 "github.com/aquasecurity/go-pep440-version"
	debversion "github.com/knqyf263/go-deb-version"
	cipdcommon "go.chromium.org/luci/cipd/common"

	"depspin/internal/types"
)

const (
	tagPrefix         = "version:"
	gitRevisionPrefix = "git_revision:"
)

// SHA-1 or SHA-256 object names, lowercase only.
var gitHashPattern = regexp.MustCompile(`^[0-9a-f]{40}([0-9a-f]{24})?$`)

// ParseVersion splits a version string into its kind and value. Strings
// without a known prefix are returned with VersionKindUnknown.
func ParseVersion(raw string) types.VersionRef {
	trimmed := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(trimmed, tagPrefix):
		return types.VersionRef{Raw: raw, Kind: types.VersionKindTag, Value: trimmed[len(tagPrefix):]}
	case strings.HasPrefix(trimmed, gitRevisionPrefix):
		return types.VersionRef{Raw: raw, Kind: types.VersionKindGitRevision, Value: trimmed[len(gitRevisionPrefix):]}
	default:
		return types.VersionRef{Raw: raw, Kind: types.VersionKindUnknown, Value: trimmed}
	}
}

// ValidateVersion checks that raw is a CIPD instance tag using one of the
// two known conventions and that its value is well formed. Versions are
// written verbatim to ensure files, so surrounding whitespace is rejected.
func ValidateVersion(raw string) error {
	if raw != strings.TrimSpace(raw) {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("version has leading or trailing whitespace: %q", raw))
	}
	ref := ParseVersion(raw)
	if ref.Kind != types.VersionKindUnknown {
		if err := cipdcommon.ValidateInstanceTag(raw); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(err.Error()).
				WithCause(err)
		}
	}
	switch ref.Kind {
	case types.VersionKindTag:
		if ref.Value == "" {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("version tag must not be empty")
		}
		if strings.ContainsAny(ref.Value, " \t\n") {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("version tag contains whitespace: %q", ref.Value))
		}
	case types.VersionKindGitRevision:
		if !gitHashPattern.MatchString(ref.Value) {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("git_revision must be a full lowercase hex hash: %q", ref.Value))
		}
	default:
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("version %q must start with %q or %q", raw, tagPrefix, gitRevisionPrefix))
	}
	return nil
}

// versionCache memoizes parsed tag values so that ordering a revision
// history does not reparse the same strings.
type versionCache struct {
	deb map[string]*debversion.Version
	pep map[string]*pep440.Version
}

func newVersionCache() *versionCache {
	return &versionCache{
		deb: map[string]*debversion.Version{},
		pep: map[string]*pep440.Version{},
	}
}

// pepVersion returns nil when value is not a PEP 440 version.
func (c *versionCache) pepVersion(value string) *pep440.Version {
	if parsed, ok := c.pep[value]; ok {
		return parsed
	}
	var out *pep440.Version
	if parsed, err := pep440.Parse(value); err == nil {
		out = &parsed
	}
	c.pep[value] = out
	return out
}

// debVersion returns nil when value is not a Debian version.
func (c *versionCache) debVersion(value string) *debversion.Version {
	if parsed, ok := c.deb[value]; ok {
		return parsed
	}
	var out *debversion.Version
	if parsed, err := debversion.NewVersion(value); err == nil {
		out = &parsed
	}
	c.deb[value] = out
	return out
}

// compareTags orders two version tag values. 3pp tags carry an epoch
// ("2@16.13.0") which dominates the rest of the tag.
func (c *versionCache) compareTags(a string, b string) int {
	epochA, restA := splitEpoch(a)
	epochB, restB := splitEpoch(b)
	if epochA != epochB {
		if epochA < epochB {
			return -1
		}
		return 1
	}
	if pa, pb := c.pepVersion(restA), c.pepVersion(restB); pa != nil && pb != nil {
		return pa.Compare(*pb)
	}
	if da, db := c.debVersion(restA), c.debVersion(restB); da != nil && db != nil {
		return da.Compare(*db)
	}
	return strings.Compare(restA, restB)
}

// compare returns the ordering of two raw version strings and whether the
// two are comparable at all. Git revisions are only comparable for
// equality.
func (c *versionCache) compare(a string, b string) (int, bool) {
	refA := ParseVersion(a)
	refB := ParseVersion(b)
	if refA.Kind != refB.Kind {
		return 0, false
	}
	switch refA.Kind {
	case types.VersionKindTag:
		return c.compareTags(refA.Value, refB.Value), true
	default:
		if refA.Value == refB.Value {
			return 0, true
		}
		return 0, false
	}
}

// CompareVersions orders two version strings; ok is false when they
// cannot be ordered (different kinds or different git revisions).
func CompareVersions(a string, b string) (int, bool) {
	return newVersionCache().compare(a, b)
}

func splitEpoch(tag string) (int, string) {
	head, rest, found := strings.Cut(tag, "@")
	if !found {
		return 0, tag
	}
	epoch, err := strconv.Atoi(head)
	if err != nil {
		return 0, tag
	}
	return epoch, rest
}
