package expr

import (
	"fmt"
	"sync"
)

// Result is the outcome of evaluating a condition against a context.
type Result struct {
	// Matched indicates whether the condition evaluated to true.
	Matched bool `json:"matched"`

	// Reason is a human-readable explanation when the condition did not
	// match. Empty when Matched is true.
	Reason string `json:"reason,omitempty"`
}

// Evaluator evaluates condition expressions against contexts. It caches
// parsed ASTs keyed by the expression string, so a rule whose condition is
// evaluated on every request is parsed once.
//
// The zero value is not usable; call NewEvaluator.
type Evaluator struct {
	cache sync.Map // map[string]Node
}

// NewEvaluator creates a new expression evaluator with an empty AST cache.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Evaluate evaluates a condition expression against a context. Structural
// failures (syntax errors, unknown functions, wrong arity, malformed regex
// patterns) are recovered as a non-match whose reason carries the
// "Expression evaluation error:" prefix; they are never returned as errors.
func (e *Evaluator) Evaluate(condition string, ctx Context) Result {
	node, err := e.parse(condition)
	if err != nil {
		return Result{Matched: false, Reason: fmt.Sprintf("Expression evaluation error: %v", err)}
	}

	value, err := evalNode(node, ctx)
	if err != nil {
		return Result{Matched: false, Reason: fmt.Sprintf("Expression evaluation error: %v", err)}
	}

	if Truthy(value) {
		return Result{Matched: true}
	}
	return Result{Matched: false, Reason: fmt.Sprintf("Condition not satisfied: %s", condition)}
}

// parse returns the cached AST for the condition, parsing on first use.
func (e *Evaluator) parse(condition string) (Node, error) {
	if cached, ok := e.cache.Load(condition); ok {
		return cached.(Node), nil
	}

	node, err := Parse(condition)
	if err != nil {
		return nil, err
	}
	e.cache.Store(condition, node)
	return node, nil
}

// evalNode evaluates an AST node to a value. Boolean operators short-circuit:
// && stops at the first false, || at the first true.
func evalNode(node Node, ctx Context) (any, error) {
	switch n := node.(type) {
	case *LiteralNode:
		return n.Value, nil

	case *FieldNode:
		// Missing paths resolve to nil, which coerces to false in
		// boolean position and compares unequal to any non-nil value.
		value, _ := resolvePath(ctx, n.Path)
		return value, nil

	case *NotNode:
		value, err := evalNode(n.Child, ctx)
		if err != nil {
			return nil, err
		}
		return !Truthy(value), nil

	case *CallNode:
		return evalCall(n, ctx)

	case *BinaryNode:
		return evalBinary(n, ctx)
	}

	return nil, fmt.Errorf("unknown expression node %T", node)
}

func evalBinary(n *BinaryNode, ctx Context) (any, error) {
	switch n.Op {
	case OpAnd:
		left, err := evalNode(n.Left, ctx)
		if err != nil {
			return nil, err
		}
		if !Truthy(left) {
			return false, nil
		}
		right, err := evalNode(n.Right, ctx)
		if err != nil {
			return nil, err
		}
		return Truthy(right), nil

	case OpOr:
		left, err := evalNode(n.Left, ctx)
		if err != nil {
			return nil, err
		}
		if Truthy(left) {
			return true, nil
		}
		right, err := evalNode(n.Right, ctx)
		if err != nil {
			return nil, err
		}
		return Truthy(right), nil
	}

	left, err := evalNode(n.Left, ctx)
	if err != nil {
		return nil, err
	}
	right, err := evalNode(n.Right, ctx)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case OpEq:
		return deepEqual(left, right), nil
	case OpNeq:
		return !deepEqual(left, right), nil
	case OpGt, OpLt, OpGte, OpLte:
		return compareOrdered(n.Op, left, right), nil
	case OpIn:
		// Membership against a non-array RHS is false, not an error, so
		// compound AND conditions fall through cleanly.
		arr, ok := toArray(right)
		if !ok {
			return false, nil
		}
		for _, item := range arr {
			if deepEqual(left, item) {
				return true, nil
			}
		}
		return false, nil
	}

	return nil, fmt.Errorf("unknown operator %q", n.Op)
}
