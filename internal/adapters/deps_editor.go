package adapters

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/bazelbuild/buildtools/build"

	"depspin/internal/core"
	"depspin/internal/ports"
)

// DepsEditorAdapter locates version literals with the buildtools Python
// parser and splices replacements into the original bytes, so comments,
// quoting and layout survive untouched.
type DepsEditorAdapter struct{}

func NewDepsEditorAdapter() DepsEditorAdapter {
	return DepsEditorAdapter{}
}

// SetVersion replaces the version of pkg in the entry at path. An empty
// pkg selects the entry's only package.
func (a DepsEditorAdapter) SetVersion(data []byte, path string, pkg string, version string) ([]byte, error) {
	if strings.ContainsAny(version, "'\"\\\n") {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("version contains characters that cannot be written: %q", version))
	}
	file, err := build.ParseDefault(manifestFileName, data)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse DEPS for editing").
			WithCause(err)
	}
	deps := topLevelDict(file, keyDeps)
	if deps == nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("DEPS has no deps mapping")
	}
	entryKV := dictEntry(deps, path)
	if entryKV == nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("dependency %s not found", path))
	}
	entry, ok := entryKV.Value.(*build.DictExpr)
	if !ok {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("dependency %s is not a package entry", path))
	}
	literal, err := packageVersionLiteral(entry, path, pkg)
	if err != nil {
		return nil, err
	}
	return spliceString(data, literal, version)
}

func packageVersionLiteral(entry *build.DictExpr, path string, pkg string) (*build.StringExpr, error) {
	packagesKV := dictEntry(entry, "packages")
	if packagesKV == nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("dependency %s has no packages", path))
	}
	list, ok := packagesKV.Value.(*build.ListExpr)
	if !ok {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("dependency %s packages is not a list literal", path))
	}
	var candidates []*build.DictExpr
	for _, item := range list.List {
		pkgDict, ok := item.(*build.DictExpr)
		if !ok {
			continue
		}
		if pkg == "" {
			candidates = append(candidates, pkgDict)
			continue
		}
		nameKV := dictEntry(pkgDict, "package")
		if nameKV == nil {
			continue
		}
		name, ok := nameKV.Value.(*build.StringExpr)
		if ok && core.NormalizeTemplate(name.Value) == core.NormalizeTemplate(pkg) {
			candidates = append(candidates, pkgDict)
		}
	}
	switch {
	case len(candidates) == 0:
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("package %s not found in %s", pkg, path))
	case len(candidates) > 1:
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("dependency %s has %d packages; name one", path, len(candidates)))
	}
	versionKV := dictEntry(candidates[0], "version")
	if versionKV == nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("package in %s has no version", path))
	}
	literal, ok := versionKV.Value.(*build.StringExpr)
	if !ok {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("version in %s is not a string literal; edit the var it refers to", path))
	}
	return literal, nil
}

// spliceString swaps the contents of a string literal, reusing the quote
// style of the original token.
func spliceString(data []byte, literal *build.StringExpr, value string) ([]byte, error) {
	start, end := literal.Start.Byte, literal.End.Byte
	if start < 0 || end > len(data) || start >= end {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("string literal position out of range")
	}
	token := data[start:end]
	quoteAt := bytes.IndexAny(token, `'"`)
	if quoteAt < 0 {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("string literal has no quote")
	}
	quote := token[quoteAt]
	var out bytes.Buffer
	out.Grow(len(data) + len(value))
	out.Write(data[:start])
	out.WriteByte(quote)
	out.WriteString(value)
	out.WriteByte(quote)
	out.Write(data[end:])
	return out.Bytes(), nil
}

func topLevelDict(file *build.File, name string) *build.DictExpr {
	for _, stmt := range file.Stmt {
		assign, ok := stmt.(*build.AssignExpr)
		if !ok {
			continue
		}
		ident, ok := assign.LHS.(*build.Ident)
		if !ok || ident.Name != name {
			continue
		}
		if dict, ok := assign.RHS.(*build.DictExpr); ok {
			return dict
		}
	}
	return nil
}

func dictEntry(dict *build.DictExpr, key string) *build.KeyValueExpr {
	for _, kv := range dict.List {
		if str, ok := kv.Key.(*build.StringExpr); ok && str.Value == key {
			return kv
		}
	}
	return nil
}

var _ ports.ManifestEditorPort = DepsEditorAdapter{}
