package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// parser builds an AST from a token stream using recursive descent.
// Precedence, loosest to tightest: || , && , comparison/in, ! , primary.
type parser struct {
	toks []token
	pos  int
}

// Parse parses an expression string into an AST.
func Parse(input string) (Node, error) {
	if strings.TrimSpace(input) == "" {
		return nil, fmt.Errorf("empty expression")
	}

	toks, err := newLexer(input).tokens()
	if err != nil {
		return nil, err
	}

	p := &parser{toks: toks}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokenEOF {
		return nil, fmt.Errorf("unexpected token %s after expression", p.peek())
	}
	return node, nil
}

func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokenOr {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{Op: OpOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Node, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokenAnd {
		p.advance()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{Op: OpAnd, Left: left, Right: right}
	}
	return left, nil
}

// parseComparison parses an optional comparison or membership operator
// between two unary expressions. Comparisons do not chain: a == b == c is a
// syntax error, matching the restricted grammar.
func (p *parser) parseComparison() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	var op BinaryOp
	switch p.peek().kind {
	case tokenEq:
		op = OpEq
	case tokenNeq:
		op = OpNeq
	case tokenGte:
		op = OpGte
	case tokenLte:
		op = OpLte
	case tokenGt:
		op = OpGt
	case tokenLt:
		op = OpLt
	case tokenIn:
		op = OpIn
	default:
		return left, nil
	}
	p.advance()

	right, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &BinaryNode{Op: op, Left: left, Right: right}, nil
}

func (p *parser) parseUnary() (Node, error) {
	if p.peek().kind == tokenNot {
		p.advance()
		child, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &NotNode{Child: child}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Node, error) {
	tok := p.peek()

	switch tok.kind {
	case tokenLParen:
		p.advance()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokenRParen {
			return nil, fmt.Errorf("expected closing parenthesis, got %s", p.peek())
		}
		p.advance()
		return inner, nil

	case tokenLBracket:
		return p.parseArrayLiteral()

	case tokenString:
		p.advance()
		return &LiteralNode{Value: tok.text}, nil

	case tokenNumber:
		p.advance()
		n, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", tok.text)
		}
		return &LiteralNode{Value: n}, nil

	case tokenBool:
		p.advance()
		return &LiteralNode{Value: tok.text == "true"}, nil

	case tokenIdent:
		p.advance()
		if p.peek().kind == tokenLParen {
			return p.parseCall(tok.text)
		}
		return &FieldNode{Path: strings.Split(tok.text, ".")}, nil
	}

	return nil, fmt.Errorf("unexpected token %s", tok)
}

// parseArrayLiteral parses [v1, v2, ...] where every item is a literal.
// Single-quoted strings are permitted and normalized to plain strings.
func (p *parser) parseArrayLiteral() (Node, error) {
	p.advance() // consume [

	items := []any{}
	for p.peek().kind != tokenRBracket {
		tok := p.peek()
		switch tok.kind {
		case tokenString:
			items = append(items, tok.text)
		case tokenNumber:
			n, err := strconv.ParseFloat(tok.text, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid number %q in array literal", tok.text)
			}
			items = append(items, n)
		case tokenBool:
			items = append(items, tok.text == "true")
		default:
			return nil, fmt.Errorf("array literals may only contain literals, got %s", tok)
		}
		p.advance()

		if p.peek().kind == tokenComma {
			p.advance()
			continue
		}
		break
	}

	if p.peek().kind != tokenRBracket {
		return nil, fmt.Errorf("expected closing bracket, got %s", p.peek())
	}
	p.advance()
	return &LiteralNode{Value: items}, nil
}

func (p *parser) parseCall(name string) (Node, error) {
	p.advance() // consume (

	var args []Node
	for p.peek().kind != tokenRParen {
		arg, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		if p.peek().kind == tokenComma {
			p.advance()
			continue
		}
		break
	}

	if p.peek().kind != tokenRParen {
		return nil, fmt.Errorf("expected closing parenthesis in call to %s, got %s", name, p.peek())
	}
	p.advance()
	return &CallNode{Name: name, Args: args}, nil
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) advance() {
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
}
