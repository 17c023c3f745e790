package core

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	cipdcommon "go.chromium.org/luci/cipd/common"
)

var templateParam = regexp.MustCompile(`\${[^}]*}`)

// NormalizeTemplate undoes the str.format escaping gclient applies to
// DEPS strings, so "${{platform}}" becomes "${platform}".
func NormalizeTemplate(template string) string {
	return strings.NewReplacer("{{", "{", "}}", "}").Replace(template)
}

// ValidatePackageName checks a fully expanded CIPD package name.
func ValidatePackageName(name string) error {
	if err := cipdcommon.ValidatePackageName(name); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(err.Error()).
			WithCause(err)
	}
	return nil
}

// ValidatePackageTemplate checks a template without expanding it: every
// placeholder must name a known variable and the rest must form a valid
// package name.
func ValidatePackageTemplate(template string) error {
	normalized := NormalizeTemplate(strings.TrimSpace(template))
	if normalized == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("package must not be empty")
	}
	var err error
	probe := templateParam.ReplaceAllStringFunc(normalized, func(param string) string {
		name, _, _ := strings.Cut(param[2:len(param)-1], "=")
		if _, ok := templateVars[name]; !ok && err == nil {
			err = errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("unknown variable ${%s} in package %q", name, template))
		}
		return "x"
	})
	if err != nil {
		return err
	}
	if strings.ContainsRune(probe, '$') {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unable to process some variables in %q", template))
	}
	return ValidatePackageName(probe)
}

var templateVars = map[string]struct{}{
	"platform": {},
	"os":       {},
	"arch":     {},
}

func expansionLookup(p Platform) map[string]string {
	return map[string]string{
		"platform": p.String(),
		"os":       p.OS,
		"arch":     p.Arch,
	}
}

// ExpandPackage resolves the placeholders of a package template for one
// platform. skip is true when a ${var=a,b} filter excludes the platform.
func ExpandPackage(template string, p Platform) (pkg string, skip bool, err error) {
	lookup := expansionLookup(p)
	normalized := NormalizeTemplate(strings.TrimSpace(template))

	pkg = templateParam.ReplaceAllStringFunc(normalized, func(param string) string {
		contents := param[2 : len(param)-1]
		name, values, filtered := strings.Cut(contents, "=")
		ourValue, ok := lookup[name]
		if !ok {
			if err == nil {
				err = errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg(fmt.Sprintf("unknown variable in ${%s}", contents))
			}
			return param
		}
		if !filtered {
			return ourValue
		}
		for _, value := range strings.Split(values, ",") {
			if strings.TrimSpace(value) == ourValue {
				return ourValue
			}
		}
		skip = true
		return param
	})
	if err != nil {
		return "", false, err
	}
	if skip {
		return "", true, nil
	}
	if strings.ContainsRune(pkg, '$') {
		return "", false, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unable to process some variables in %q", template))
	}
	if err := ValidatePackageName(pkg); err != nil {
		return "", false, err
	}
	return pkg, false, nil
}
