// Package expr implements the restricted boolean expression language used by
// policy rule conditions.
//
// The language supports logical operators (||, &&, !), comparisons
// (==, !=, >=, <=, >, <), membership (in), parenthesized subexpressions,
// function calls, literals (strings, numbers, booleans, arrays), and
// dot-separated field paths resolved against a per-request context.
//
// Built-in functions (all boolean-valued):
//
//	has(fieldPath)               - true iff the path resolves
//	contains(hay, needle)        - case-insensitive substring
//	regex_match(value, pattern)  - case-insensitive regular expression match
//	starts_with(value, prefix)   - case-insensitive prefix check
//	ends_with(value, suffix)     - case-insensitive suffix check
//	length(x)                    - true iff string/array/object is non-empty
//
// Evaluation is pure: the same expression and context always produce the same
// result. Structural failures (parse errors, unknown functions, wrong arity,
// malformed regex patterns) never propagate as errors; they yield a non-match
// with a reason prefixed by "Expression evaluation error:". The Evaluator
// caches parsed ASTs keyed by the expression string, so repeated evaluation of
// the same condition does not re-parse.
package expr
