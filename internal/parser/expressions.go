package parser

import (
	"fmt"
	"gul/internal/lexer"
)

type Precedence int

const (
	PrecNone Precedence = iota
	PrecAssignment
	PrecPipeline
	PrecOr
	PrecAnd
	PrecComparison
	PrecTerm
	PrecFactor
	PrecPower
	PrecRange
	PrecPrefix
	PrecCall
	PrecUnpack
)

// '=' stays at PrecNone so assignment is left to the statement parser.
var precedence = map[lexer.TokenType]Precedence{
	lexer.TokenPipe:        PrecPipeline,
	lexer.TokenOr:          PrecOr,
	lexer.TokenAnd:         PrecAnd,
	lexer.TokenDoubleEqual: PrecComparison,
	lexer.TokenNotEqual:    PrecComparison,
	lexer.TokenLT:          PrecComparison,
	lexer.TokenLE:          PrecComparison,
	lexer.TokenGT:          PrecComparison,
	lexer.TokenGE:          PrecComparison,
	lexer.TokenPlus:        PrecTerm,
	lexer.TokenMinus:       PrecTerm,
	lexer.TokenStar:        PrecFactor,
	lexer.TokenSlash:       PrecFactor,
	lexer.TokenPercent:     PrecFactor,
	lexer.TokenPower:       PrecPower,
	lexer.TokenRange:       PrecRange,
	lexer.TokenLParen:      PrecCall,
	lexer.TokenLBracket:    PrecCall,
	lexer.TokenDot:         PrecCall,
}

func precedenceOf(t lexer.TokenType) Precedence {
	return precedence[t]
}

// --- Expression Parsing with Precedence ---
func (p *Parser) expression() Expr {
	return p.parsePrecedence(PrecNone)
}

// parsePrecedence keeps folding infix operators while they bind tighter
// than min.
func (p *Parser) parsePrecedence(min Precedence) Expr {
	left := p.prefix()
	for {
		if p.depth > 0 && p.check(lexer.TokenNewline) && precedenceOf(p.peekPastNewlines()) > min {
			p.skipNewlines()
		}
		prec := precedenceOf(p.peek().Type)
		if prec <= min {
			break
		}
		left = p.infix(left, prec)
	}
	return left
}

func (p *Parser) peekPastNewlines() lexer.TokenType {
	for i := p.current; i < len(p.tokens); i++ {
		if p.tokens[i].Type != lexer.TokenNewline {
			return p.tokens[i].Type
		}
	}
	return lexer.TokenEOF
}

func (p *Parser) infix(left Expr, prec Precedence) Expr {
	op := p.advance()
	pos := left.Pos()

	switch op.Type {
	case lexer.TokenLParen:
		return p.finishCall(left, pos)
	case lexer.TokenLBracket:
		p.depth++
		p.skipNewlines()
		index := p.expression()
		p.skipNewlines()
		p.depth--
		p.consume(lexer.TokenRBracket, "Expected ']' after index")
		return &Index{Position: pos, Object: left, Index: index}
	case lexer.TokenDot:
		name := p.consume(lexer.TokenIdent, "Expected attribute name after '.'")
		attr := &Attribute{Position: pos, Object: left, Name: name.Lexeme}
		if p.match(lexer.TokenLParen) {
			return p.finishCall(attr, pos)
		}
		return attr
	case lexer.TokenPipe:
		right := p.parsePrecedence(prec)
		if call, ok := right.(*Call); ok {
			call.Args = append([]Expr{left}, call.Args...)
			return call
		}
		return &Call{Position: right.Pos(), Callee: right, Args: []Expr{left}}
	case lexer.TokenPower:
		right := p.parsePrecedence(prec - 1)
		return &Binary{Position: pos, Left: left, Op: op.Type, Right: right}
	}

	right := p.parsePrecedence(prec)
	return &Binary{Position: pos, Left: left, Op: op.Type, Right: right}
}

// finishCall parses arguments after '('. name=value pairs become keyword
// arguments.
func (p *Parser) finishCall(callee Expr, pos Position) Expr {
	call := &Call{Position: pos, Callee: callee}
	p.depth++
	for {
		p.skipNewlines()
		if p.check(lexer.TokenRParen) || p.isAtEnd() {
			break
		}
		if p.check(lexer.TokenIdent) && p.checkNext(lexer.TokenEqual) {
			name := p.advance().Lexeme
			p.advance()
			call.KwArgs = append(call.KwArgs, KwArg{Name: name, Value: p.expression()})
		} else {
			call.Args = append(call.Args, p.expression())
		}
		p.skipNewlines()
		if !p.match(lexer.TokenComma) {
			break
		}
	}
	p.depth--
	p.consume(lexer.TokenRParen, "Expected ')' after arguments")
	return call
}

func (p *Parser) prefix() Expr {
	for p.check(lexer.TokenNewline) {
		p.advance()
	}
	tok := p.peek()
	pos := posOf(tok)

	switch tok.Type {
	case lexer.TokenInteger, lexer.TokenFloat, lexer.TokenString,
		lexer.TokenTrue, lexer.TokenFalse, lexer.TokenNone:
		p.advance()
		return &Literal{Position: pos, Value: tok.Lexeme, Kind: tok.Type}
	case lexer.TokenIdent:
		p.advance()
		return &Identifier{Position: pos, Name: tok.Lexeme}
	case lexer.TokenLParen:
		p.advance()
		return p.parenthesized(pos)
	case lexer.TokenLBracket:
		p.advance()
		return &ListExpr{Position: pos, Elements: p.elements(lexer.TokenRBracket, "Expected ']' after list elements")}
	case lexer.TokenLBrace:
		p.advance()
		return p.braced(pos, false)
	case lexer.TokenMinus:
		p.advance()
		operand := p.parsePrecedence(PrecPrefix)
		// -x ** 2 negates the power.
		if p.check(lexer.TokenPower) {
			operand = p.infix(operand, PrecPower)
		}
		return &Unary{Position: pos, Op: tok.Type, Operand: operand}
	case lexer.TokenNot:
		p.advance()
		operand := p.parsePrecedence(PrecAnd)
		return &Unary{Position: pos, Op: tok.Type, Operand: operand}
	case lexer.TokenAwait:
		p.advance()
		return &Await{Position: pos, Inner: p.parsePrecedence(PrecPrefix)}
	case lexer.TokenFn:
		p.advance()
		return p.lambda(pos)
	case lexer.TokenMatch:
		p.advance()
		return p.matchExpr(pos)
	}

	if tok.Type.IsTypeConstructor() {
		p.advance()
		return p.typeConstructor(tok)
	}

	p.errorAt(tok, fmt.Sprintf("Unexpected token '%s' in expression", tok.Lexeme))
	if !tok.Type.IsLayout() && !p.isAtEnd() && tok.Type != lexer.TokenColon {
		p.advance()
	}
	return &Literal{Position: pos, Value: "None", Kind: lexer.TokenNone}
}

// parenthesized handles (), (expr) and (a, b, ...).
func (p *Parser) parenthesized(pos Position) Expr {
	p.depth++
	p.skipNewlines()
	if p.check(lexer.TokenRParen) {
		p.depth--
		p.advance()
		return &TupleExpr{Position: pos}
	}
	first := p.expression()
	p.skipNewlines()
	if p.check(lexer.TokenComma) {
		elements := []Expr{first}
		for p.match(lexer.TokenComma) {
			p.skipNewlines()
			if p.check(lexer.TokenRParen) {
				break
			}
			elements = append(elements, p.expression())
			p.skipNewlines()
		}
		p.depth--
		p.consume(lexer.TokenRParen, "Expected ')' after tuple elements")
		return &TupleExpr{Position: pos, Elements: elements}
	}
	p.depth--
	p.consume(lexer.TokenRParen, "Expected ')' after expression")
	return &Grouped{Position: pos, Inner: first}
}

// elements parses a comma separated list up to the closing token.
func (p *Parser) elements(closing lexer.TokenType, msg string) []Expr {
	var elems []Expr
	p.depth++
	for {
		p.skipNewlines()
		if p.check(closing) || p.isAtEnd() {
			break
		}
		elems = append(elems, p.expression())
		p.skipNewlines()
		if !p.match(lexer.TokenComma) {
			break
		}
	}
	p.depth--
	p.consume(closing, msg)
	return elems
}

// braced disambiguates '{': empty or key ':' value is a dict, anything
// else is a set. With identKeys, bare identifier keys become strings.
func (p *Parser) braced(pos Position, identKeys bool) Expr {
	p.depth++
	p.skipNewlines()
	if p.check(lexer.TokenRBrace) {
		p.depth--
		p.advance()
		return &DictExpr{Position: pos}
	}

	first := p.dictKey(identKeys)
	p.skipNewlines()
	if !p.check(lexer.TokenColon) {
		p.depth--
		set := &SetExpr{Position: pos, Elements: []Expr{first}}
		if p.match(lexer.TokenComma) {
			set.Elements = append(set.Elements, p.elements(lexer.TokenRBrace, "Expected '}' after set elements")...)
		} else {
			p.consume(lexer.TokenRBrace, "Expected '}' after set elements")
		}
		return set
	}

	dict := &DictExpr{Position: pos}
	key := first
	for {
		p.consume(lexer.TokenColon, "Expected ':' after dict key")
		p.skipNewlines()
		dict.Pairs = append(dict.Pairs, DictPair{Key: key, Value: p.expression()})
		p.skipNewlines()
		if !p.match(lexer.TokenComma) {
			break
		}
		p.skipNewlines()
		if p.check(lexer.TokenRBrace) {
			break
		}
		key = p.dictKey(identKeys)
		p.skipNewlines()
	}
	p.depth--
	p.consume(lexer.TokenRBrace, "Expected '}' after dict entries")
	return dict
}

func (p *Parser) dictKey(identKeys bool) Expr {
	if identKeys && p.check(lexer.TokenIdent) && p.checkNext(lexer.TokenColon) {
		tok := p.advance()
		return &Literal{Position: posOf(tok), Value: tok.Lexeme, Kind: lexer.TokenString}
	}
	return p.expression()
}

// typeConstructor handles @list[...], @dict{...}, @set{...}, @tabl{...},
// @frame{...}, @int(x) and bare @type identifiers.
func (p *Parser) typeConstructor(tok lexer.Token) Expr {
	pos := posOf(tok)
	switch {
	case tok.Type == lexer.TokenAtList && p.match(lexer.TokenLBracket):
		return &ListExpr{Position: pos, Elements: p.elements(lexer.TokenRBracket, "Expected ']' after @list elements")}
	case tok.Type == lexer.TokenAtDict && p.match(lexer.TokenLBrace):
		if d, ok := p.braced(pos, true).(*DictExpr); ok {
			return d
		}
		p.errorAt(tok, "Expected key: value pairs in @dict literal")
		return &DictExpr{Position: pos}
	case tok.Type == lexer.TokenAtSet && p.match(lexer.TokenLBrace):
		return &SetExpr{Position: pos, Elements: p.elements(lexer.TokenRBrace, "Expected '}' after @set elements")}
	case tok.Type == lexer.TokenAtTuple && p.match(lexer.TokenLParen):
		return &TupleExpr{Position: pos, Elements: p.elements(lexer.TokenRParen, "Expected ')' after @tuple elements")}
	case tok.Type == lexer.TokenAtTabl && (p.check(lexer.TokenLBrace) || p.check(lexer.TokenIdent)):
		return p.table(pos)
	case tok.Type == lexer.TokenAtFrame && p.check(lexer.TokenLBrace):
		return p.frame(pos)
	case p.check(lexer.TokenLParen) && !p.checkNext(lexer.TokenRParen):
		p.advance()
		p.depth++
		p.skipNewlines()
		arg := p.expression()
		p.skipNewlines()
		p.depth--
		p.consume(lexer.TokenRParen, fmt.Sprintf("Expected ')' after %s argument", tok.Lexeme))
		return &TypeConstructor{Position: pos, TypeName: canonicalType(tok.Lexeme), Arg: arg}
	}
	return &Identifier{Position: pos, Name: tok.Lexeme}
}

// table parses
//
//	@tabl [sparse] {
//	    (c1, c2): r1: {1, 2}, r2: {3, 4}
//	}
func (p *Parser) table(pos Position) Expr {
	t := &Table{Position: pos}
	if p.check(lexer.TokenIdent) && p.peek().Lexeme == "sparse" {
		p.advance()
		t.Sparse = true
	}
	p.consume(lexer.TokenLBrace, "Expected '{' after @tabl")
	p.depth++
	p.skipNewlines()

	p.consume(lexer.TokenLParen, "Expected '(' before table columns")
	for !p.check(lexer.TokenRParen) && !p.isAtEnd() {
		p.skipNewlines()
		col := p.advance()
		t.Columns = append(t.Columns, col.Lexeme)
		p.skipNewlines()
		if !p.match(lexer.TokenComma) {
			break
		}
	}
	p.consume(lexer.TokenRParen, "Expected ')' after table columns")
	p.consume(lexer.TokenColon, "Expected ':' after table columns")

	for {
		p.skipNewlines()
		if p.check(lexer.TokenRBrace) || p.isAtEnd() {
			break
		}
		start := p.current
		row := TableRow{Name: p.advance().Lexeme}
		p.consume(lexer.TokenColon, fmt.Sprintf("Expected ':' after row '%s'", row.Name))
		p.consume(lexer.TokenLBrace, fmt.Sprintf("Expected '{' before values of row '%s'", row.Name))
		row.Values = p.elements(lexer.TokenRBrace, fmt.Sprintf("Expected '}' after values of row '%s'", row.Name))
		t.Rows = append(t.Rows, row)
		p.skipNewlines()
		p.match(lexer.TokenComma)
		if p.current == start {
			p.advance()
		}
	}
	p.depth--
	p.consume(lexer.TokenRBrace, "Expected '}' after table rows")
	return t
}

// frame parses @frame { columns: ("a", "b") }.
func (p *Parser) frame(pos Position) Expr {
	f := &DataFrame{Position: pos}
	p.consume(lexer.TokenLBrace, "Expected '{' after @frame")
	p.depth++
	for {
		p.skipNewlines()
		if p.check(lexer.TokenRBrace) || p.isAtEnd() {
			break
		}
		key := p.advance()
		p.consume(lexer.TokenColon, fmt.Sprintf("Expected ':' after frame key '%s'", key.Lexeme))
		value := p.expression()
		if key.Lexeme == "columns" {
			f.Columns = append(f.Columns, stringElements(value)...)
		}
		p.skipNewlines()
		if !p.match(lexer.TokenComma) {
			p.skipNewlines()
			break
		}
	}
	p.depth--
	p.consume(lexer.TokenRBrace, "Expected '}' after @frame body")
	return f
}

func stringElements(e Expr) []string {
	var elems []Expr
	switch v := Unwrap(e).(type) {
	case *TupleExpr:
		elems = v.Elements
	case *ListExpr:
		elems = v.Elements
	default:
		elems = []Expr{v}
	}
	var out []string
	for _, el := range elems {
		switch lit := el.(type) {
		case *Literal:
			out = append(out, lit.Value)
		case *Identifier:
			out = append(out, lit.Name)
		}
	}
	return out
}

// lambda parses fn(a, b) => expr after the 'fn' keyword.
func (p *Parser) lambda(pos Position) Expr {
	l := &Lambda{Position: pos}
	p.consume(lexer.TokenLParen, "Expected '(' after 'fn' in lambda")
	for !p.check(lexer.TokenRParen) && !p.isAtEnd() {
		l.Params = append(l.Params, p.param().Name)
		if !p.match(lexer.TokenComma) {
			break
		}
	}
	p.consume(lexer.TokenRParen, "Expected ')' after lambda parameters")
	p.consume(lexer.TokenFatArrow, "Expected '=>' before lambda body")
	l.Body = p.expression()
	return l
}

// matchExpr parses match x { pattern => expr, ... } after 'match'.
func (p *Parser) matchExpr(pos Position) Expr {
	m := &MatchExpr{Position: pos, Scrutinee: p.parsePrecedence(PrecPrefix)}
	p.consume(lexer.TokenLBrace, "Expected '{' after match subject")
	p.depth++
	for {
		p.skipNewlines()
		if p.check(lexer.TokenRBrace) || p.isAtEnd() {
			break
		}
		c := MatchCase{Pattern: p.expression()}
		p.consume(lexer.TokenFatArrow, "Expected '=>' after match pattern")
		c.Body = p.expression()
		m.Cases = append(m.Cases, c)
		p.skipNewlines()
		if !p.match(lexer.TokenComma) {
			p.skipNewlines()
			break
		}
	}
	p.depth--
	p.consume(lexer.TokenRBrace, "Expected '}' after match cases")
	return m
}
