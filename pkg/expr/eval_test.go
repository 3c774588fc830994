package expr

import (
	"strings"
	"testing"
)

func evalCtx() Context {
	return Context{
		"data_class":           "health_record",
		"destination_region":   "US",
		"personal_information": true,
		"contains_pii":         true,
		"pii_types":            []any{"email", "phone"},
		"risk_score":           0.9,
		"tokens":               float64(1000),
		"message":              "Patient requires MRI results sent overseas.",
		"empty_list":           []any{},
		"request": map[string]any{
			"user": map[string]any{"role": "admin"},
		},
	}
}

// TestEvaluate_Matching tests expressions that should match the context.
func TestEvaluate_Matching(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"string equality", `data_class == 'health_record'`},
		{"inequality", `destination_region != 'AU'`},
		{"numeric gt", `tokens > 500`},
		{"numeric gte boundary", `tokens >= 1000`},
		{"string lexicographic", `destination_region > 'AU'`},
		{"membership hit", `data_class in ['health_record', 'cdr_data']`},
		{"bool passthrough", `personal_information`},
		{"conjunction", `data_class in ['health_record'] && destination_region != 'AU'`},
		{"disjunction second arm", `data_class == 'other' || contains_pii`},
		{"negated false", `!has('missing_field')`},
		{"has quoted path", `has('pii_types')`},
		{"has nested path", `has('request.user.role')`},
		{"dotted path value", `request.user.role == 'admin'`},
		{"contains case-insensitive", `contains(message, 'PATIENT')`},
		{"starts_with", `starts_with(message, 'patient')`},
		{"ends_with", `ends_with(message, 'OVERSEAS.')`},
		{"regex", `regex_match(message, 'mri\s+results')`},
		{"length non-empty array", `length(pii_types)`},
		{"length string", `length(message)`},
		{"coercion scenario", `has('pii_types') && length(pii_types)`},
		{"parens grouping", `(data_class == 'other' || contains_pii) && tokens > 1`},
	}

	e := NewEvaluator()
	ctx := evalCtx()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := e.Evaluate(tt.expr, ctx)
			if !result.Matched {
				t.Errorf("Evaluate(%q) = not matched, reason %q; want matched", tt.expr, result.Reason)
			}
		})
	}
}

// TestEvaluate_NonMatching tests expressions that should not match, without
// raising errors.
func TestEvaluate_NonMatching(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"string mismatch", `data_class == 'cdr_data'`},
		{"membership miss", `data_class in ['cdr_data', 'demographic_data']`},
		{"in on non-array is false", `data_class in message`},
		{"in on missing field is false", `data_class in missing`},
		{"numeric vs string mix is false", `tokens > 'abc'`},
		{"missing leaf coerces false", `missing_field`},
		{"length empty array", `length(empty_list)`},
		{"length missing field", `length(nope)`},
		{"contains non-string", `contains(pii_types, 'email')`},
		{"short-circuit and", `data_class == 'other' && tokens > 0`},
	}

	e := NewEvaluator()
	ctx := evalCtx()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := e.Evaluate(tt.expr, ctx)
			if result.Matched {
				t.Errorf("Evaluate(%q) = matched; want not matched", tt.expr)
			}
			if strings.HasPrefix(result.Reason, "Expression evaluation error") {
				t.Errorf("Evaluate(%q) reported error reason %q; want plain non-match", tt.expr, result.Reason)
			}
		})
	}
}

// TestEvaluate_ErrorsAreNonMatches tests that structural failures are
// recovered as non-matches with the error reason prefix.
func TestEvaluate_ErrorsAreNonMatches(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"mismatched parens", `(a == 1`},
		{"unknown function", `frobnicate(a)`},
		{"wrong arity", `contains(message)`},
		{"malformed regex", `regex_match(message, '[unclosed')`},
		{"empty condition", ``},
	}

	e := NewEvaluator()
	ctx := evalCtx()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := e.Evaluate(tt.expr, ctx)
			if result.Matched {
				t.Fatalf("Evaluate(%q) = matched; want non-match", tt.expr)
			}
			if !strings.HasPrefix(result.Reason, "Expression evaluation error:") {
				t.Errorf("Evaluate(%q) reason = %q; want error prefix", tt.expr, result.Reason)
			}
		})
	}
}

// TestEvaluate_MalformedRegexReason tests the specific regex failure message.
func TestEvaluate_MalformedRegexReason(t *testing.T) {
	e := NewEvaluator()
	result := e.Evaluate(`regex_match(message, '[unclosed')`, evalCtx())
	if result.Reason != "Expression evaluation error: Invalid regex pattern" {
		t.Errorf("reason = %q; want invalid regex pattern message", result.Reason)
	}
}

// TestEvaluate_Deterministic tests that repeated evaluation is byte-identical.
func TestEvaluate_Deterministic(t *testing.T) {
	e := NewEvaluator()
	ctx := evalCtx()
	expr := `data_class in ['health_record'] && destination_region != 'AU' && length(pii_types)`

	first := e.Evaluate(expr, ctx)
	for i := 0; i < 50; i++ {
		if got := e.Evaluate(expr, ctx); got != first {
			t.Fatalf("iteration %d: result %+v differs from first %+v", i, got, first)
		}
	}
}

// TestEvaluate_DeepEquality tests structural == over arrays and maps.
func TestEvaluate_DeepEquality(t *testing.T) {
	ctx := Context{
		"tags":   []any{"a", "b"},
		"number": 5, // native int, not float64
	}

	e := NewEvaluator()
	if r := e.Evaluate(`tags == ['a', 'b']`, ctx); !r.Matched {
		t.Errorf("array equality failed: %q", r.Reason)
	}
	if r := e.Evaluate(`tags == ['b', 'a']`, ctx); r.Matched {
		t.Error("array equality ignored order")
	}
	if r := e.Evaluate(`number == 5`, ctx); !r.Matched {
		t.Errorf("numeric equality across representations failed: %q", r.Reason)
	}
}

// TestEvaluator_CacheReuse tests that the AST cache does not change results.
func TestEvaluator_CacheReuse(t *testing.T) {
	e := NewEvaluator()
	expr := `tokens > 500`

	first := e.Evaluate(expr, Context{"tokens": float64(1000)})
	second := e.Evaluate(expr, Context{"tokens": float64(100)})

	if !first.Matched {
		t.Error("first evaluation should match")
	}
	if second.Matched {
		t.Error("second evaluation with different context should not match")
	}
}
