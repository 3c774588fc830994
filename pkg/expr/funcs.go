package expr

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// regexCache caches compiled case-insensitive patterns used by regex_match.
var regexCache sync.Map // map[string]*regexp.Regexp

// evalCall dispatches a built-in function invocation. All functions return
// boolean. Unknown names and wrong arities are structural errors recovered by
// the Evaluator as a non-match.
func evalCall(call *CallNode, ctx Context) (any, error) {
	switch call.Name {
	case "has":
		return evalHas(call, ctx)
	case "contains":
		return evalStringPair(call, ctx, func(hay, needle string) bool {
			return strings.Contains(strings.ToLower(hay), strings.ToLower(needle))
		})
	case "starts_with":
		return evalStringPair(call, ctx, func(value, prefix string) bool {
			return strings.HasPrefix(strings.ToLower(value), strings.ToLower(prefix))
		})
	case "ends_with":
		return evalStringPair(call, ctx, func(value, suffix string) bool {
			return strings.HasSuffix(strings.ToLower(value), strings.ToLower(suffix))
		})
	case "regex_match":
		return evalRegexMatch(call, ctx)
	case "length":
		return evalLength(call, ctx)
	}
	return nil, fmt.Errorf("unknown function %q", call.Name)
}

// evalHas reports whether a field path resolves in the context. The argument
// may be a quoted path ('user.role') or a bare field path.
func evalHas(call *CallNode, ctx Context) (any, error) {
	if len(call.Args) != 1 {
		return nil, fmt.Errorf("has() requires exactly 1 argument, got %d", len(call.Args))
	}

	var path []string
	switch arg := call.Args[0].(type) {
	case *LiteralNode:
		str, ok := arg.Value.(string)
		if !ok {
			return nil, fmt.Errorf("has() argument must be a field path")
		}
		path = strings.Split(str, ".")
	case *FieldNode:
		path = arg.Path
	default:
		return nil, fmt.Errorf("has() argument must be a field path")
	}

	_, found := resolvePath(ctx, path)
	return found, nil
}

// evalStringPair evaluates two-argument string predicates (contains,
// starts_with, ends_with). A non-string on either side yields false rather
// than an error.
func evalStringPair(call *CallNode, ctx Context, pred func(a, b string) bool) (any, error) {
	if len(call.Args) != 2 {
		return nil, fmt.Errorf("%s() requires exactly 2 arguments, got %d", call.Name, len(call.Args))
	}

	a, err := evalNode(call.Args[0], ctx)
	if err != nil {
		return nil, err
	}
	b, err := evalNode(call.Args[1], ctx)
	if err != nil {
		return nil, err
	}

	sa, aok := a.(string)
	sb, bok := b.(string)
	if !aok || !bok {
		return false, nil
	}
	return pred(sa, sb), nil
}

func evalRegexMatch(call *CallNode, ctx Context) (any, error) {
	if len(call.Args) != 2 {
		return nil, fmt.Errorf("regex_match() requires exactly 2 arguments, got %d", len(call.Args))
	}

	value, err := evalNode(call.Args[0], ctx)
	if err != nil {
		return nil, err
	}
	pattern, err := evalNode(call.Args[1], ctx)
	if err != nil {
		return nil, err
	}

	sv, vok := value.(string)
	sp, pok := pattern.(string)
	if !vok || !pok {
		return false, nil
	}

	re, err := compileInsensitive(sp)
	if err != nil {
		return nil, fmt.Errorf("Invalid regex pattern")
	}
	return re.MatchString(sv), nil
}

// evalLength coerces string length, array length, or object key count to a
// boolean non-empty check.
func evalLength(call *CallNode, ctx Context) (any, error) {
	if len(call.Args) != 1 {
		return nil, fmt.Errorf("length() requires exactly 1 argument, got %d", len(call.Args))
	}

	value, err := evalNode(call.Args[0], ctx)
	if err != nil {
		return nil, err
	}

	switch v := value.(type) {
	case string:
		return len(v) > 0, nil
	case []any:
		return len(v) > 0, nil
	case []string:
		return len(v) > 0, nil
	case map[string]any:
		return len(v) > 0, nil
	}
	return false, nil
}

func compileInsensitive(pattern string) (*regexp.Regexp, error) {
	if cached, ok := regexCache.Load(pattern); ok {
		return cached.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, err
	}
	regexCache.Store(pattern, re)
	return re, nil
}
