// Package parser implements a recursive-descent parser with two-token
// lookahead over the token stream produced by internal/lexer, building the
// statement/expression tree defined in internal/ast.
package parser

import (
	"github.com/loomlang/loom/internal/ast"
	"github.com/loomlang/loom/internal/diagnostic"
	"github.com/loomlang/loom/internal/span"
	"github.com/loomlang/loom/internal/token"
)

// Parser walks a fixed token slice with an explicit cursor, mirroring the
// lexer's cursor-based design rather than a channel or iterator.
type Parser struct {
	toks  []token.Token
	index int
}

// New returns a Parser over toks, which must end in a single EOF token.
func New(toks []token.Token) *Parser {
	return &Parser{toks: toks}
}

// Parse parses a token stream's top-level statement list in one call.
func Parse(toks []token.Token) ([]ast.Statement, error) {
	return New(toks).ParseStatements()
}

func (p *Parser) peek() token.Token {
	return p.toks[p.index]
}

func (p *Parser) peekAt(offset int) (token.Token, bool) {
	idx := p.index + offset
	if idx >= len(p.toks) {
		return token.Token{}, false
	}
	return p.toks[idx], true
}

func (p *Parser) advance() token.Token {
	t := p.toks[p.index]
	if p.index < len(p.toks)-1 {
		p.index++
	}
	return t
}

func (p *Parser) isEOF() bool {
	return p.peek().Kind == token.EOF
}

func (p *Parser) consume(kind token.Kind) (token.Token, error) {
	tok := p.peek()
	if tok.Kind != kind {
		return token.Token{}, &diagnostic.ParseError{
			Kind: diagnostic.ExpectedToken, Span: tok.Span,
			Expected: kind.String(), Found: tok.Kind.String(),
		}
	}
	return p.advance(), nil
}

// ParseStatements parses statements until EOF or a closing brace, matching
// the grammar's `statement*` production for both the top level and block
// bodies (the caller consumes the closing brace itself).
func (p *Parser) ParseStatements() ([]ast.Statement, error) {
	var out []ast.Statement
	for {
		tok := p.peek()
		if tok.Kind == token.EOF || tok.Kind == token.RightBrace {
			return out, nil
		}

		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		out = append(out, stmt)
	}
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	tok := p.peek()
	switch tok.Kind {
	case token.Identifier:
		if next, ok := p.peekAt(1); ok && next.Kind == token.Assign {
			m, err := p.parseMutate()
			if err != nil {
				return ast.Statement{}, err
			}
			return ast.NewMutateStmt(m), nil
		}
		expr, err := p.parseExpr()
		if err != nil {
			return ast.Statement{}, err
		}
		if _, err := p.consume(token.Semicolon); err != nil {
			return ast.Statement{}, err
		}
		return ast.NewExprStmt(expr), nil

	case token.Number, token.Bool, token.Char, token.LeftParen, token.Bang, token.Minus:
		expr, err := p.parseExpr()
		if err != nil {
			return ast.Statement{}, err
		}
		if _, err := p.consume(token.Semicolon); err != nil {
			return ast.Statement{}, err
		}
		return ast.NewExprStmt(expr), nil

	case token.Let:
		l, err := p.parseLet()
		if err != nil {
			return ast.Statement{}, err
		}
		return ast.NewLetStmt(l), nil

	case token.While, token.If:
		return p.parseIfOrWhile()

	case token.Yield:
		return p.parseYield()

	default:
		return ast.Statement{}, &diagnostic.ParseError{
			Kind: diagnostic.UnexpectedToken, Span: tok.Span,
			Found: tok.Kind.String(), Expected: "statement",
		}
	}
}

func (p *Parser) parseYield() (ast.Statement, error) {
	if _, err := p.consume(token.Yield); err != nil {
		return ast.Statement{}, err
	}
	expr, err := p.parseExpr()
	if err != nil {
		return ast.Statement{}, err
	}
	if _, err := p.consume(token.Semicolon); err != nil {
		return ast.Statement{}, err
	}
	return ast.NewYieldStmt(expr), nil
}

// parseIfOrWhile implements the shared `ifOrWhile` production: both forms
// are `keyword expr '{' statement* '}'`, differing only in which Statement
// variant wraps the result.
func (p *Parser) parseIfOrWhile() (ast.Statement, error) {
	start := p.advance()

	condition, err := p.parseExpr()
	if err != nil {
		return ast.Statement{}, err
	}
	if _, err := p.consume(token.LeftBrace); err != nil {
		return ast.Statement{}, err
	}
	body, err := p.ParseStatements()
	if err != nil {
		return ast.Statement{}, err
	}
	closeBrace, err := p.consume(token.RightBrace)
	if err != nil {
		return ast.Statement{}, err
	}

	sp := span.Together(start.Span, condition.Span, closeBrace.Span)

	switch start.Kind {
	case token.If:
		return ast.NewIfStmt(ast.If{Condition: condition, Body: body, Span: sp}), nil
	case token.While:
		return ast.NewWhileStmt(ast.While{Condition: condition, Body: body, Span: sp}), nil
	default:
		panic("parseIfOrWhile called on non-if/while token")
	}
}

func (p *Parser) parseLet() (ast.Let, error) {
	if _, err := p.consume(token.Let); err != nil {
		return ast.Let{}, err
	}
	variable, value, err := p.parseAssign()
	if err != nil {
		return ast.Let{}, err
	}
	return ast.Let{Variable: variable.Name, Value: value, Span: span.Join(variable.Span, value.Span)}, nil
}

func (p *Parser) parseMutate() (ast.Mutate, error) {
	variable, value, err := p.parseAssign()
	if err != nil {
		return ast.Mutate{}, err
	}
	return ast.Mutate{Variable: variable.Name, Value: value, Span: span.Join(variable.Span, value.Span)}, nil
}

// parseAssign consumes `IDENT ':=' expr ';'`, shared by let and mutate.
func (p *Parser) parseAssign() (token.Token, *ast.Expression, error) {
	variable := p.advance()
	if variable.Kind != token.Identifier {
		return token.Token{}, nil, &diagnostic.ParseError{
			Kind: diagnostic.UnexpectedToken, Span: variable.Span,
			Found: variable.Kind.String(), Expected: "identifier",
		}
	}
	if _, err := p.consume(token.Assign); err != nil {
		return token.Token{}, nil, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return token.Token{}, nil, err
	}
	if _, err := p.consume(token.Semicolon); err != nil {
		return token.Token{}, nil, err
	}
	return variable, value, nil
}

// parseExpr parses one expression and, if a binary operator follows,
// recurses to build its right operand. This is intentionally
// precedence-free and right-associative: `2 * 3 + 1` parses as
// `2 * (3 + 1)`, matching the documented source behavior rather than
// introducing a precedence climb. Parentheses are the only way to control
// grouping.
func (p *Parser) parseExpr() (*ast.Expression, error) {
	if p.isEOF() {
		tok := p.peek()
		return nil, &diagnostic.ParseError{
			Kind: diagnostic.UnexpectedEndOfFile, Span: tok.Span, Expected: "expression",
		}
	}

	tok := p.peek()
	var left *ast.Expression
	var err error

	switch tok.Kind {
	case token.Number, token.Bool, token.Char:
		lit, err2 := p.parseLiteral()
		if err2 != nil {
			return nil, err2
		}
		left = ast.NewLiteralExpr(lit)

	case token.Minus, token.Bang:
		opTok := p.advance()
		op, err2 := unaryOperator(opTok)
		if err2 != nil {
			return nil, err2
		}
		inner, err2 := p.parseExpr()
		if err2 != nil {
			return nil, err2
		}
		left = ast.NewUnaryExpr(op, opTok.Span, inner)

	case token.LeftParen:
		openSpan := p.advance().Span
		inner, err2 := p.parseExpr()
		if err2 != nil {
			return nil, err2
		}
		closeTok := p.peek()
		if closeTok.Kind != token.RightParen {
			return nil, &diagnostic.ParseError{
				Kind: diagnostic.UnmatchedDelimiter, Span: closeTok.Span,
				Expected: token.RightParen.String(), Found: closeTok.Kind.String(),
			}
		}
		p.advance()
		left = ast.NewGroupExpr(inner, span.Join(openSpan, closeTok.Span))

	case token.Identifier:
		id := ast.Identifier{Name: tok.Name, Span: tok.Span}
		p.advance()
		if p.peek().Kind == token.LeftSquare {
			p.advance()
			index, err2 := p.parseExpr()
			if err2 != nil {
				return nil, err2
			}
			closeTok, err2 := p.consume(token.RightSquare)
			if err2 != nil {
				return nil, err2
			}
			left = ast.NewIndexExpr(id, index, span.Join(id.Span, closeTok.Span))
		} else {
			left = ast.NewIdentifierExpr(id)
		}

	case token.LeftSquare:
		left, err = p.parseArray()
		if err != nil {
			return nil, err
		}

	default:
		return nil, &diagnostic.ParseError{
			Kind: diagnostic.UnexpectedToken, Span: tok.Span, Found: tok.Kind.String(), Expected: "expression",
		}
	}

	return p.parsePartial(left)
}

// parsePartial checks for a trailing binary operator after an already-parsed
// left operand, recursing into parseExpr for the right operand.
func (p *Parser) parsePartial(left *ast.Expression) (*ast.Expression, error) {
	if p.isEOF() {
		return left, nil
	}

	tok := p.peek()
	if !isBinaryOperatorStart(tok.Kind) {
		return left, nil
	}

	opTok := p.advance()
	op, err := binaryOperator(opTok)
	if err != nil {
		return nil, err
	}
	right, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return ast.NewBinaryExpr(op, left, right), nil
}

func isBinaryOperatorStart(k token.Kind) bool {
	switch k {
	case token.Minus, token.Plus, token.Slash, token.Star,
		token.LessThan, token.GreaterThan, token.LessThanEq, token.GreaterThanEq,
		token.EqEq, token.BangEq:
		return true
	default:
		return false
	}
}

func (p *Parser) parseLiteral() (ast.Literal, error) {
	tok := p.peek()
	var lit ast.Literal
	switch tok.Kind {
	case token.Bool:
		lit = ast.NewBoolLiteral(tok.Bool, tok.Span)
	case token.Char:
		lit = ast.NewCharLiteral(tok.Ch, tok.Span)
	case token.Number:
		lit = ast.NewNumberLiteral(int32(tok.Num), tok.Span)
	default:
		return ast.Literal{}, &diagnostic.ParseError{
			Kind: diagnostic.InvalidLiteral, Span: tok.Span, Found: tok.Kind.String(),
		}
	}
	p.advance()
	return lit, nil
}

func unaryOperator(tok token.Token) (ast.OperatorType, error) {
	switch tok.Kind {
	case token.Bang:
		return ast.Not, nil
	case token.Minus:
		return ast.Minus, nil
	default:
		return 0, &diagnostic.ParseError{
			Kind: diagnostic.InvalidUnaryOperator, Span: tok.Span, Found: tok.Kind.String(),
		}
	}
}

func binaryOperator(tok token.Token) (ast.OperatorType, error) {
	switch tok.Kind {
	case token.Minus:
		return ast.Minus, nil
	case token.Plus:
		return ast.Plus, nil
	case token.Slash:
		return ast.Divide, nil
	case token.Star:
		return ast.Multiply, nil
	case token.LessThan:
		return ast.LessThan, nil
	case token.GreaterThan:
		return ast.GreaterThan, nil
	case token.LessThanEq:
		return ast.LessThanEq, nil
	case token.GreaterThanEq:
		return ast.GreaterThanEq, nil
	case token.EqEq:
		return ast.Equal, nil
	case token.BangEq:
		return ast.NotEqual, nil
	default:
		return 0, &diagnostic.ParseError{
			Kind: diagnostic.InvalidBinaryOperator, Span: tok.Span, Found: tok.Kind.String(),
		}
	}
}

func (p *Parser) parseArray() (*ast.Expression, error) {
	open, err := p.consume(token.LeftSquare)
	if err != nil {
		return nil, err
	}
	var elements []*ast.Expression
	for p.peek().Kind != token.RightSquare {
		if p.peek().Kind == token.Comma {
			p.advance()
		}
		elem, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elements = append(elements, elem)
	}
	closeTok, err := p.consume(token.RightSquare)
	if err != nil {
		return nil, err
	}
	return ast.NewArrayExpr(elements, span.Join(open.Span, closeTok.Span)), nil
}
