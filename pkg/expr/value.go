package expr

import "strings"

// Context is the key/value map a condition is evaluated against. Values are
// the JSON-compatible variant: nil, bool, float64 (or other numeric types),
// string, []any, map[string]any.
type Context map[string]any

// Truthy coerces a context value to boolean:
// booleans pass through, nil is false, numbers are n != 0, strings and arrays
// are non-empty, objects have at least one key.
func Truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return len(val) > 0
	case []any:
		return len(val) > 0
	case []string:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		if n, ok := asNumber(v); ok {
			return n != 0
		}
		return false
	}
}

// deepEqual performs structural equality over primitives, arrays, and maps.
// Numbers compare by value regardless of their Go representation.
func deepEqual(a, b any) bool {
	if na, ok := asNumber(a); ok {
		nb, ok := asNumber(b)
		return ok && na == nb
	}

	switch av := a.(type) {
	case nil:
		return b == nil
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case []any:
		bv, ok := toArray(b)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !deepEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case []string:
		return deepEqual(stringsToAny(av), b)
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			ov, present := bv[k]
			if !present || !deepEqual(v, ov) {
				return false
			}
		}
		return true
	}
	return false
}

// compareOrdered evaluates >, <, >=, <= between two values. Both sides
// numeric compares numerically; both sides string compares lexicographically;
// any other mix is false rather than an error.
func compareOrdered(op BinaryOp, a, b any) bool {
	if na, ok := asNumber(a); ok {
		if nb, ok := asNumber(b); ok {
			switch op {
			case OpGt:
				return na > nb
			case OpLt:
				return na < nb
			case OpGte:
				return na >= nb
			case OpLte:
				return na <= nb
			}
		}
		return false
	}

	sa, aok := a.(string)
	sb, bok := b.(string)
	if aok && bok {
		cmp := strings.Compare(sa, sb)
		switch op {
		case OpGt:
			return cmp > 0
		case OpLt:
			return cmp < 0
		case OpGte:
			return cmp >= 0
		case OpLte:
			return cmp <= 0
		}
	}
	return false
}

// resolvePath walks a dot-separated path through nested maps. Missing
// intermediate keys yield (nil, false).
func resolvePath(ctx Context, path []string) (any, bool) {
	var current any = map[string]any(ctx)
	for _, key := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// asNumber extracts a float64 from any numeric Go representation. JSON
// decoding produces float64, but contexts assembled in code may carry native
// ints.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// toArray normalizes array-shaped values to []any.
func toArray(v any) ([]any, bool) {
	switch arr := v.(type) {
	case []any:
		return arr, true
	case []string:
		return stringsToAny(arr), true
	}
	return nil, false
}

func stringsToAny(items []string) []any {
	out := make([]any, len(items))
	for i, s := range items {
		out[i] = s
	}
	return out
}
