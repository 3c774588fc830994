package expr

// Node is a parsed expression tree node.
type Node interface {
	node()
}

// BinaryOp identifies a binary operator.
type BinaryOp string

const (
	OpOr  BinaryOp = "||"
	OpAnd BinaryOp = "&&"
	OpEq  BinaryOp = "=="
	OpNeq BinaryOp = "!="
	OpGte BinaryOp = ">="
	OpLte BinaryOp = "<="
	OpGt  BinaryOp = ">"
	OpLt  BinaryOp = "<"
	OpIn  BinaryOp = "in"
)

// BinaryNode applies a binary operator to two subexpressions.
type BinaryNode struct {
	Op    BinaryOp
	Left  Node
	Right Node
}

// NotNode negates the boolean value of its child.
type NotNode struct {
	Child Node
}

// CallNode is a built-in function invocation.
type CallNode struct {
	Name string
	Args []Node
}

// LiteralNode holds a literal value: string, float64, bool, or []any for
// array literals whose items are themselves literals.
type LiteralNode struct {
	Value any
}

// FieldNode is a dot-separated field path resolved against the context.
type FieldNode struct {
	Path []string
}

func (*BinaryNode) node()  {}
func (*NotNode) node()     {}
func (*CallNode) node()    {}
func (*LiteralNode) node() {}
func (*FieldNode) node()   {}
