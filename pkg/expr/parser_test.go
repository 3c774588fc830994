package expr

import "testing"

// TestParse_ValidExpressions tests that the parser accepts the full grammar.
func TestParse_ValidExpressions(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"simple equality", `data_class == 'health_record'`},
		{"double quotes", `destination_region != "AU"`},
		{"numeric comparison", `risk_score >= 0.8`},
		{"membership", `data_class in ['health_record', 'cdr_data']`},
		{"boolean literal", `personal_information == true`},
		{"bare field", `contains_pii`},
		{"negation", `!contains_pii`},
		{"conjunction", `data_class == 'health_record' && destination_region != 'AU'`},
		{"disjunction", `a == 1 || b == 2`},
		{"parenthesized", `(a == 1 || b == 2) && c == 3`},
		{"nested parens", `((a == 1))`},
		{"function call", `has('pii_types')`},
		{"function with field arg", `length(pii_types)`},
		{"two-arg function", `contains(message, 'patient')`},
		{"mixed", `has('pii_types') && length(pii_types)`},
		{"dotted path", `request.user.role == 'admin'`},
		{"numeric array", `code in [1, 2, 3]`},
		{"negative number", `delta > -5`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.input); err != nil {
				t.Errorf("Parse(%q) returned error: %v", tt.input, err)
			}
		})
	}
}

// TestParse_InvalidExpressions tests structural failures.
func TestParse_InvalidExpressions(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ``},
		{"whitespace only", `   `},
		{"unbalanced paren", `(a == 1`},
		{"unbalanced bracket", `a in [1, 2`},
		{"unterminated string", `a == 'oops`},
		{"dangling operator", `a ==`},
		{"lone ampersand", `a & b`},
		{"chained comparison", `a == b == c`},
		{"non-literal array item", `a in [b]`},
		{"trailing garbage", `a == 1 )`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.input); err == nil {
				t.Errorf("Parse(%q) expected error, got none", tt.input)
			}
		})
	}
}

// TestParse_ArrayNormalization tests that single-quoted array items parse to
// plain strings.
func TestParse_ArrayNormalization(t *testing.T) {
	node, err := Parse(`x in ['a', "b"]`)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	bin, ok := node.(*BinaryNode)
	if !ok || bin.Op != OpIn {
		t.Fatalf("expected in expression, got %T", node)
	}

	lit, ok := bin.Right.(*LiteralNode)
	if !ok {
		t.Fatalf("expected literal RHS, got %T", bin.Right)
	}

	items, ok := lit.Value.([]any)
	if !ok || len(items) != 2 {
		t.Fatalf("expected 2-item array, got %#v", lit.Value)
	}
	if items[0] != "a" || items[1] != "b" {
		t.Errorf("expected normalized strings, got %#v", items)
	}
}
