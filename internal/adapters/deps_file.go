package adapters

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"go.starlark.net/starlark"

	"depspin/internal/ports"
	"depspin/internal/types"
)

const (
	keyDeps             = "deps"
	keyVars             = "vars"
	keyUseRelativePaths = "use_relative_paths"
)

// DepsFileAdapter evaluates gclient DEPS files. DEPS files are Python
// literals, which Starlark accepts as is.
type DepsFileAdapter struct{}

func NewDepsFileAdapter() DepsFileAdapter {
	return DepsFileAdapter{}
}

func (a DepsFileAdapter) LoadManifest(path string) (types.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Manifest{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("DEPS file not found").
			WithCause(err)
	}
	return a.ParseManifest(path, data)
}

func (a DepsFileAdapter) ParseManifest(name string, data []byte) (types.Manifest, error) {
	globals, err := execDeps(name, data)
	if err != nil {
		return types.Manifest{}, err
	}
	manifest := types.Manifest{Source: name}

	if value, ok := globals[keyUseRelativePaths]; ok {
		flag, ok := value.(starlark.Bool)
		if !ok {
			return types.Manifest{}, invalidDeps(name, fmt.Sprintf("%s must be a bool, got %s", keyUseRelativePaths, value.Type()))
		}
		manifest.UseRelativePaths = bool(flag)
	}
	if value, ok := globals[keyVars]; ok {
		vars, err := convertVars(name, value)
		if err != nil {
			return types.Manifest{}, err
		}
		manifest.Vars = vars
	}
	value, ok := globals[keyDeps]
	if !ok {
		return manifest, nil
	}
	deps, ok := value.(*starlark.Dict)
	if !ok {
		return types.Manifest{}, invalidDeps(name, fmt.Sprintf("deps must be a dict, got %s", value.Type()))
	}
	vars := varStrings(manifest.Vars)
	for _, item := range deps.Items() {
		path, ok := starlark.AsString(item[0])
		if !ok {
			return types.Manifest{}, invalidDeps(name, fmt.Sprintf("deps key must be a string, got %s", item[0].Type()))
		}
		entry, err := convertEntry(name, path, item[1])
		if err != nil {
			return types.Manifest{}, err
		}
		entry, err = expandEntry(name, entry, vars)
		if err != nil {
			return types.Manifest{}, err
		}
		manifest.Deps = append(manifest.Deps, entry)
	}
	return manifest, nil
}

// execDeps runs the file with the two helpers gclient predeclares. Like
// gclient, Var("x") evaluates to the placeholder "{x}" which is expanded
// once the vars mapping is known.
func execDeps(name string, data []byte) (starlark.StringDict, error) {
	varBuiltin := starlark.NewBuiltin("Var", func(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var varName string
		if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &varName); err != nil {
			return nil, err
		}
		return starlark.String("{" + varName + "}"), nil
	})
	strBuiltin := starlark.NewBuiltin("Str", func(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var value string
		if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &value); err != nil {
			return nil, err
		}
		return starlark.String(value), nil
	})

	thread := &starlark.Thread{
		Name: name,
		Load: func(_ *starlark.Thread, module string) (starlark.StringDict, error) {
			return nil, fmt.Errorf("load(%q) is not supported in DEPS files", module)
		},
	}
	predeclared := starlark.StringDict{
		"Var": varBuiltin,
		"Str": strBuiltin,
	}
	globals, err := starlark.ExecFile(thread, name, data, predeclared)
	if err != nil {
		var evalErr *starlark.EvalError
		if errors.As(err, &evalErr) {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("failed to evaluate %s: %s", name, evalErr.Msg)).
				WithCause(err)
		}
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("failed to parse %s: %s", name, err.Error())).
			WithCause(err)
	}
	return globals, nil
}

// formatVars applies the str.format pass gclient runs over dependency
// strings: "{name}" is replaced by the var's value and doubled braces are
// unescaped.
func formatVars(value string, vars map[string]string) (string, error) {
	if !strings.ContainsAny(value, "{}") {
		return value, nil
	}
	var out strings.Builder
	for i := 0; i < len(value); i++ {
		c := value[i]
		switch {
		case c == '{' && i+1 < len(value) && value[i+1] == '{':
			out.WriteByte('{')
			i++
		case c == '}' && i+1 < len(value) && value[i+1] == '}':
			out.WriteByte('}')
			i++
		case c == '{':
			end := strings.IndexByte(value[i:], '}')
			if end < 0 {
				return "", fmt.Errorf("unbalanced '{' in %q", value)
			}
			key := value[i+1 : i+end]
			replacement, ok := vars[key]
			if !ok {
				return "", fmt.Errorf("undefined var %q in %q", key, value)
			}
			out.WriteString(replacement)
			i += end
		case c == '}':
			return "", fmt.Errorf("unbalanced '}' in %q", value)
		default:
			out.WriteByte(c)
		}
	}
	return out.String(), nil
}

func varStrings(vars []types.Var) map[string]string {
	out := make(map[string]string, len(vars))
	for _, v := range vars {
		switch value := v.Value.(type) {
		case bool:
			if value {
				out[v.Name] = "True"
			} else {
				out[v.Name] = "False"
			}
		default:
			out[v.Name] = fmt.Sprint(value)
		}
	}
	return out
}

func expandEntry(name string, entry types.Entry, vars map[string]string) (types.Entry, error) {
	var err error
	if entry.URL, err = formatVars(entry.URL, vars); err != nil {
		return types.Entry{}, invalidDeps(name, fmt.Sprintf("deps[%q].url: %s", entry.Path, err.Error()))
	}
	for i := range entry.Packages {
		if entry.Packages[i].Package, err = formatVars(entry.Packages[i].Package, vars); err != nil {
			return types.Entry{}, invalidDeps(name, fmt.Sprintf("deps[%q].packages[%d].package: %s", entry.Path, i, err.Error()))
		}
		if entry.Packages[i].Version, err = formatVars(entry.Packages[i].Version, vars); err != nil {
			return types.Entry{}, invalidDeps(name, fmt.Sprintf("deps[%q].packages[%d].version: %s", entry.Path, i, err.Error()))
		}
	}
	return entry, nil
}

func convertVars(name string, value starlark.Value) ([]types.Var, error) {
	dict, ok := value.(*starlark.Dict)
	if !ok {
		return nil, invalidDeps(name, fmt.Sprintf("vars must be a dict, got %s", value.Type()))
	}
	var vars []types.Var
	for _, item := range dict.Items() {
		key, ok := starlark.AsString(item[0])
		if !ok {
			return nil, invalidDeps(name, fmt.Sprintf("vars key must be a string, got %s", item[0].Type()))
		}
		switch v := item[1].(type) {
		case starlark.Bool:
			vars = append(vars, types.Var{Name: key, Value: bool(v)})
		case starlark.String:
			vars = append(vars, types.Var{Name: key, Value: string(v)})
		default:
			return nil, invalidDeps(name, fmt.Sprintf("vars[%q] must be a bool or string, got %s", key, item[1].Type()))
		}
	}
	return vars, nil
}

func convertEntry(name string, path string, value starlark.Value) (types.Entry, error) {
	if url, ok := starlark.AsString(value); ok {
		return types.Entry{Path: path, DepType: types.DepTypeGit, URL: url}, nil
	}
	dict, ok := value.(*starlark.Dict)
	if !ok {
		return types.Entry{}, invalidDeps(name, fmt.Sprintf("deps[%q] must be a dict or string, got %s", path, value.Type()))
	}
	entry := types.Entry{Path: path}
	for _, item := range dict.Items() {
		key, ok := starlark.AsString(item[0])
		if !ok {
			return types.Entry{}, invalidDeps(name, fmt.Sprintf("deps[%q] has a non-string key", path))
		}
		switch key {
		case "dep_type":
			depType, err := stringField(name, path, key, item[1])
			if err != nil {
				return types.Entry{}, err
			}
			entry.DepType = types.DepType(depType)
		case "condition":
			condition, err := stringField(name, path, key, item[1])
			if err != nil {
				return types.Entry{}, err
			}
			entry.Condition = condition
		case "url":
			url, err := stringField(name, path, key, item[1])
			if err != nil {
				return types.Entry{}, err
			}
			entry.URL = url
		case "packages":
			packages, err := convertPackages(name, path, item[1])
			if err != nil {
				return types.Entry{}, err
			}
			entry.Packages = packages
		}
	}
	// gclient treats a dict with a url and no dep_type as a git dependency.
	if entry.DepType == "" && entry.URL != "" {
		entry.DepType = types.DepTypeGit
	}
	return entry, nil
}

func convertPackages(name string, path string, value starlark.Value) ([]types.Package, error) {
	list, ok := value.(*starlark.List)
	if !ok {
		return nil, invalidDeps(name, fmt.Sprintf("deps[%q].packages must be a list, got %s", path, value.Type()))
	}
	packages := make([]types.Package, 0, list.Len())
	for i := 0; i < list.Len(); i++ {
		dict, ok := list.Index(i).(*starlark.Dict)
		if !ok {
			return nil, invalidDeps(name, fmt.Sprintf("deps[%q].packages[%d] must be a dict", path, i))
		}
		var pkg types.Package
		for _, item := range dict.Items() {
			key, _ := starlark.AsString(item[0])
			field := fmt.Sprintf("packages[%d].%s", i, key)
			switch key {
			case "package":
				s, err := stringField(name, path, field, item[1])
				if err != nil {
					return nil, err
				}
				pkg.Package = s
			case "version":
				s, err := stringField(name, path, field, item[1])
				if err != nil {
					return nil, err
				}
				pkg.Version = s
			}
		}
		packages = append(packages, pkg)
	}
	return packages, nil
}

func stringField(name string, path string, field string, value starlark.Value) (string, error) {
	s, ok := starlark.AsString(value)
	if !ok {
		return "", invalidDeps(name, fmt.Sprintf("deps[%q].%s must be a string, got %s", path, field, value.Type()))
	}
	return s, nil
}

func invalidDeps(name string, msg string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("%s: %s", name, msg))
}

var _ ports.ManifestPort = DepsFileAdapter{}
