// Package parser turns a filter string into the ast.Node tree
// FilterResultIterator evaluates — spec.md §4.6's "parsed filter AST",
// SPEC_FULL.md §6's CLI filter-string surface.
//
// Grammar (infix boolean over leaf predicates):
//
//	expr       := andExpr ( "||" andExpr )*
//	andExpr    := unary ( "&&" unary )*
//	unary      := "!" primary | primary
//	primary    := "(" expr ")" | refJoin | leaf
//	refJoin    := "$" ident "(" expr ")"
//	leaf       := ident leafOp value
//	leafOp     := ":=" | ":!=" | ":<=" | ":<" | ":>=" | ":>" | ":"
//	value      := "[" lo ".." hi "]"          (RANGE)
//	            | "[" value ("," value)* "]"  (IN / NOT_IN)
//	            | scalar                       (EQ / NEQ / comparator)
package parser

import (
	"fmt"

	"github.com/gralok/postingcore/pkg/filter/ast"
)

// Parse parses a filter string into an ast.Node, consulting then
// populating the package parse cache (spec.md §6, SPEC_FULL.md §4.10
// fasthash memoization).
func Parse(filter string) (ast.Node, error) {
	if n, ok := cacheGet(filter); ok {
		return n, nil
	}
	p := &parser{lex: newLexer(filter), src: filter}
	if err := p.advance(); err != nil {
		return nil, err
	}
	node, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.cur.kind != tokEOF {
		return nil, fmt.Errorf("filter parser: unexpected trailing input near %q", p.cur.text)
	}
	cachePut(filter, node)
	return node, nil
}

type parser struct {
	lex *lexer
	src string
	cur token
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.cur = t
	return nil
}

func (p *parser) expect(k tokenKind, what string) error {
	if p.cur.kind != k {
		return fmt.Errorf("filter parser: expected %s near %q", what, p.cur.text)
	}
	return p.advance()
}

func (p *parser) parseExpr() (ast.Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	children := []ast.Node{left}
	for p.cur.kind == tokOr {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		children = append(children, right)
	}
	if len(children) == 1 {
		return left, nil
	}
	return &ast.Compound{Op: ast.Or, Children: children}, nil
}

func (p *parser) parseAnd() (ast.Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	children := []ast.Node{left}
	for p.cur.kind == tokAnd {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		children = append(children, right)
	}
	if len(children) == 1 {
		return left, nil
	}
	return &ast.Compound{Op: ast.And, Children: children}, nil
}

func (p *parser) parseUnary() (ast.Node, error) {
	if p.cur.kind == tokNot {
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		negate(inner)
		return inner, nil
	}
	return p.parsePrimary()
}

// negate flips a leaf in place: EQ<->NEQ, IN<->NOT_IN, and for a
// REFERENCE_JOIN leaf sets Negate so the executor knows to complement
// the joined id set (spec.md §4.6/§4.8 "!$Collection(inner)").
func negate(n ast.Node) {
	leaf, ok := n.(*ast.Leaf)
	if !ok {
		return
	}
	switch leaf.Op {
	case ast.EQ:
		leaf.Op = ast.NEQ
	case ast.NEQ:
		leaf.Op = ast.EQ
	case ast.IN:
		leaf.Op = ast.NotIn
	case ast.NotIn:
		leaf.Op = ast.IN
	case ast.ReferenceJoin:
		leaf.Negate = !leaf.Negate
	}
}

func (p *parser) parsePrimary() (ast.Node, error) {
	switch p.cur.kind {
	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return inner, nil
	case tokDollar:
		return p.parseReferenceJoin()
	case tokIdent:
		return p.parseLeaf()
	default:
		return nil, fmt.Errorf("filter parser: unexpected token near %q", p.cur.text)
	}
}

func (p *parser) parseReferenceJoin() (ast.Node, error) {
	if err := p.advance(); err != nil { // consume '$'
		return nil, err
	}
	if p.cur.kind != tokIdent {
		return nil, fmt.Errorf("filter parser: expected collection name after '$'")
	}
	collection := p.cur.text
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.expect(tokLParen, "'(' after reference collection name"); err != nil {
		return nil, err
	}
	inner, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(tokRParen, "')' closing reference join"); err != nil {
		return nil, err
	}
	return &ast.Leaf{Op: ast.ReferenceJoin, Collection: collection, Inner: inner}, nil
}

func (p *parser) parseLeaf() (ast.Node, error) {
	field := p.cur.text
	if err := p.advance(); err != nil {
		return nil, err
	}
	op, err := p.parseLeafOp()
	if err != nil {
		return nil, err
	}
	values, isRange, err := p.parseValues()
	if err != nil {
		return nil, err
	}
	if isRange {
		op = ast.Range
	} else if len(values) > 1 && op == ast.EQ {
		op = ast.IN
	} else if len(values) > 1 && op == ast.NEQ {
		op = ast.NotIn
	}
	return &ast.Leaf{Field: field, Op: op, Values: values}, nil
}

func (p *parser) parseLeafOp() (ast.Op, error) {
	var op ast.Op
	switch p.cur.kind {
	case tokColon, tokEqColon:
		op = ast.EQ
	case tokNeColon:
		op = ast.NEQ
	case tokLt:
		op = ast.LT
	case tokLe:
		op = ast.LE
	case tokGt:
		op = ast.GT
	case tokGe:
		op = ast.GE
	default:
		return 0, fmt.Errorf("filter parser: expected a leaf operator near %q", p.cur.text)
	}
	return op, nil
}

// parseValues consumes either a bracketed range/IN list or a bare scalar,
// positioned right after the leaf operator. It works directly against the
// lexer's byte cursor since value syntax mixes freely with bare words that
// would otherwise tokenize ambiguously (spec.md §3 leaf "values").
func (p *parser) parseValues() (values []string, isRange bool, err error) {
	p.lex.skipSpace()
	if p.lex.peekByte() != '[' {
		v := p.lex.nextValueWord()
		if v == "" {
			return nil, false, fmt.Errorf("filter parser: expected a value")
		}
		if err := p.advance(); err != nil {
			return nil, false, err
		}
		return []string{v}, false, nil
	}

	p.lex.pos++ // consume '['
	first := p.lex.nextValueWord()
	values = append(values, first)
	p.lex.skipSpace()
	if len(p.lex.input) >= p.lex.pos+2 && p.lex.input[p.lex.pos:p.lex.pos+2] == ".." {
		p.lex.pos += 2
		hi := p.lex.nextValueWord()
		values = append(values, hi)
		isRange = true
	} else {
		for p.lex.peekByte() == ',' {
			p.lex.pos++
			values = append(values, p.lex.nextValueWord())
			p.lex.skipSpace()
		}
	}
	p.lex.skipSpace()
	if p.lex.peekByte() != ']' {
		return nil, false, fmt.Errorf("filter parser: expected ']' closing value list")
	}
	p.lex.pos++
	if err := p.advance(); err != nil {
		return nil, false, err
	}
	return values, isRange, nil
}
