package tagquery

import (
	"fmt"
	"strconv"
)

// Node is a parsed query expression node.
type Node interface {
	eval(values map[string]Value) (Value, error)
}

// identNode resolves a tag name against the entity's value map.
type identNode struct {
	name string
}

// numberNode is a numeric literal.
type numberNode struct {
	value float64
}

// notNode negates the truthiness of its operand.
type notNode struct {
	operand Node
}

// boolNode is a short-circuiting and/or.
type boolNode struct {
	op    tokenKind // tokenAnd or tokenOr
	left  Node
	right Node
}

// cmpNode compares two operands numerically.
type cmpNode struct {
	op    tokenKind
	left  Node
	right Node
}

// Parse parses a query into an AST.
//
// Precedence, loosest first: or, and, not, comparison.
func Parse(query string) (Node, error) {
	tokens, err := lex(query)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokenEOF {
		return nil, fmt.Errorf("unexpected %s after expression", p.peek().kind)
	}
	return node, nil
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokenEOF {
		p.pos++
	}
	return tok
}

func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokenOr {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &boolNode{op: tokenOr, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokenAnd {
		p.next()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &boolNode{op: tokenAnd, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (Node, error) {
	if p.peek().kind == tokenNot {
		p.next()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &notNode{operand: operand}, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (Node, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	switch op := p.peek().kind; op {
	case tokenEq, tokenNe, tokenLt, tokenLe, tokenGt, tokenGe:
		p.next()
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return &cmpNode{op: op, left: left, right: right}, nil
	default:
		return left, nil
	}
}

func (p *parser) parsePrimary() (Node, error) {
	switch tok := p.next(); tok.kind {
	case tokenIdent:
		return &identNode{name: tok.text}, nil

	case tokenNumber:
		value, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", tok.text, err)
		}
		return &numberNode{value: value}, nil

	case tokenLParen:
		node, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.next().kind != tokenRParen {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		return node, nil

	default:
		return nil, fmt.Errorf("unexpected %s", tok.kind)
	}
}
