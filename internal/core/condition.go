package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

const conditionFilename = "<condition>"

// builtinConditionNames are always resolvable inside a condition.
var builtinConditionNames = map[string]struct{}{
	"True":  {},
	"False": {},
	"None":  {},
}

// ConditionIdentifiers parses a condition and returns the variable names
// it references, sorted and deduplicated. Only boolean logic, comparisons,
// membership tests and literals are accepted.
func ConditionIdentifiers(expr string) ([]string, error) {
	parsed, err := parseCondition(expr)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	var walkErr error
	syntax.Walk(parsed, func(node syntax.Node) bool {
		if walkErr != nil {
			return false
		}
		switch n := node.(type) {
		case *syntax.Ident:
			if _, ok := builtinConditionNames[n.Name]; !ok {
				seen[n.Name] = struct{}{}
			}
		case *syntax.BinaryExpr, *syntax.UnaryExpr, *syntax.ParenExpr,
			*syntax.Literal, *syntax.ListExpr, *syntax.TupleExpr:
		default:
			walkErr = errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("unsupported construct %T in condition %q", node, expr))
			return false
		}
		return true
	})
	if walkErr != nil {
		return nil, walkErr
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// EvaluateCondition evaluates expr against vars. An empty condition is
// always true.
func EvaluateCondition(expr string, vars CheckoutVars) (bool, error) {
	if strings.TrimSpace(expr) == "" {
		return true, nil
	}
	if _, err := ConditionIdentifiers(expr); err != nil {
		return false, err
	}
	env, err := conditionEnv(vars)
	if err != nil {
		return false, err
	}
	thread := &starlark.Thread{Name: "condition"}
	value, err := starlark.Eval(thread, conditionFilename, expr, env)
	if err != nil {
		return false, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("failed to evaluate condition %q", expr)).
			WithCause(err)
	}
	result, ok := value.(starlark.Bool)
	if !ok {
		return false, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("condition %q evaluated to %s, not bool", expr, value.Type()))
	}
	return bool(result), nil
}

func parseCondition(expr string) (syntax.Expr, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("condition must not be empty")
	}
	parsed, err := syntax.ParseExpr(conditionFilename, expr, 0)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid condition syntax %q", expr)).
			WithCause(err)
	}
	return parsed, nil
}

func conditionEnv(vars CheckoutVars) (starlark.StringDict, error) {
	env := make(starlark.StringDict, len(vars))
	for name, raw := range vars {
		value, err := toStarlark(raw)
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("checkout variable %s: %s", name, err.Error()))
		}
		env[name] = value
	}
	return env, nil
}

func toStarlark(raw any) (starlark.Value, error) {
	switch v := raw.(type) {
	case bool:
		return starlark.Bool(v), nil
	case string:
		return starlark.String(v), nil
	case int:
		return starlark.MakeInt(v), nil
	case int64:
		return starlark.MakeInt64(v), nil
	case nil:
		return starlark.None, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", raw)
	}
}
