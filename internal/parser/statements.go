package parser

import (
	"fmt"
	"gul/internal/lexer"
	"strings"
)

func (p *Parser) statement() Stmt {
	tok := p.peek()
	switch tok.Type {
	case lexer.TokenLet, lexer.TokenVar:
		return p.declaration()
	case lexer.TokenFn:
		if p.checkNext(lexer.TokenLParen) {
			return p.expressionStatement()
		}
		p.advance()
		return p.function(tok, false)
	case lexer.TokenAsync:
		p.advance()
		fnTok := p.consume(lexer.TokenFn, "Expected 'fn' after 'async'")
		return p.function(fnTok, true)
	case lexer.TokenStruct:
		return p.structDecl()
	case lexer.TokenEnum:
		return p.enumDecl()
	case lexer.TokenIf:
		return p.ifStatement()
	case lexer.TokenWhile:
		return p.whileStatement()
	case lexer.TokenFor:
		return p.forStatement(false)
	case lexer.TokenLoop:
		p.advance()
		p.consume(lexer.TokenColon, "Expected ':' after 'loop'")
		return &LoopStmt{Position: posOf(tok), Body: p.block()}
	case lexer.TokenMatch:
		return p.matchStatement()
	case lexer.TokenTry:
		return p.tryStatement()
	case lexer.TokenBreak:
		p.advance()
		return &BreakStmt{Position: posOf(tok)}
	case lexer.TokenContinue:
		p.advance()
		return &ContinueStmt{Position: posOf(tok)}
	case lexer.TokenPass:
		p.advance()
		return &PassStmt{Position: posOf(tok)}
	case lexer.TokenReturn:
		p.advance()
		var value Expr
		if !p.endOfStatement() {
			value = p.expression()
		}
		return &ReturnStmt{Position: posOf(tok), Value: value}
	case lexer.TokenImport, lexer.TokenAtImp:
		return p.importStatement()
	case lexer.TokenAtPython, lexer.TokenAtRust, lexer.TokenAtSQL, lexer.TokenAtJS:
		return p.foreignBlock()
	case lexer.TokenAtParallel:
		p.advance()
		if !p.check(lexer.TokenFor) {
			p.errorAt(p.peek(), "Expected 'for' after '@parallel'")
			return nil
		}
		return p.forStatement(true)
	case lexer.TokenAtGrad, lexer.TokenAtFlow, lexer.TokenAtUI:
		// Decorators carry no semantics in this dialect.
		p.advance()
		p.skipNewlines()
		return p.statement()
	case lexer.TokenMn:
		p.errorAt(tok, "'mn' block is only allowed at top level")
		p.advance()
		p.consume(lexer.TokenColon, "Expected ':' after 'mn'")
		p.block()
		return nil
	}
	return p.expressionStatement()
}

func (p *Parser) declaration() Stmt {
	kw := p.advance()
	decl := DeclStmt{Position: posOf(kw), Mutable: kw.Type == lexer.TokenVar}
	decl.Name = p.consume(lexer.TokenIdent, "Expected variable name").Lexeme
	if p.match(lexer.TokenColon) {
		decl.Type = p.typeName()
	}
	p.consume(lexer.TokenEqual, fmt.Sprintf("Expected '=' after variable '%s'", decl.Name))
	decl.Value = p.expression()

	if decl.Mutable {
		return &VarStmt{DeclStmt: decl}
	}
	return &LetStmt{DeclStmt: decl}
}

// typeName reads an annotation: int, @int, list[int], Point.
func (p *Parser) typeName() string {
	tok := p.peek()
	var name string
	switch {
	case tok.Type == lexer.TokenIdent:
		name = p.advance().Lexeme
	case tok.Type.IsTypeConstructor():
		name = canonicalType(p.advance().Lexeme)
	case tok.Type == lexer.TokenNone:
		name = p.advance().Lexeme
	default:
		p.errorAt(tok, fmt.Sprintf("Expected type name (got '%s')", tok.Lexeme))
		return ""
	}
	if p.check(lexer.TokenLBracket) {
		p.advance()
		var args []string
		for !p.check(lexer.TokenRBracket) && !p.isAtEnd() {
			args = append(args, p.typeName())
			if !p.match(lexer.TokenComma) {
				break
			}
		}
		p.consume(lexer.TokenRBracket, "Expected ']' after type arguments")
		name = fmt.Sprintf("%s<%s>", name, strings.Join(args, ","))
	}
	return name
}

// canonicalType maps @flt to float and drops the @ from other constructors.
func canonicalType(lexeme string) string {
	name := strings.TrimPrefix(lexeme, "@")
	switch name {
	case "flt":
		return "float"
	case "string":
		return "str"
	}
	return name
}

func (p *Parser) function(fnTok lexer.Token, async bool) *FunctionDecl {
	fn := &FunctionDecl{Position: posOf(fnTok), Async: async}

	// fn @int name(...) puts the return type first.
	if p.peek().Type.IsTypeConstructor() {
		fn.ReturnType = canonicalType(p.advance().Lexeme)
	}
	fn.Name = p.consume(lexer.TokenIdent, "Expected function name").Lexeme

	p.consume(lexer.TokenLParen, fmt.Sprintf("Expected '(' after function name '%s'", fn.Name))
	p.depth++
	p.skipNewlines()
	for !p.check(lexer.TokenRParen) && !p.isAtEnd() {
		fn.Params = append(fn.Params, p.param())
		p.skipNewlines()
		if !p.match(lexer.TokenComma) {
			break
		}
		p.skipNewlines()
	}
	p.depth--
	p.consume(lexer.TokenRParen, "Expected ')' after parameters")

	if p.match(lexer.TokenArrow) {
		fn.ReturnType = p.typeName()
	}
	p.consume(lexer.TokenColon, "Expected ':' before function body")

	fn.Body = p.block()
	return fn
}

func (p *Parser) param() Param {
	var param Param
	param.Name = p.consume(lexer.TokenIdent, "Expected parameter name").Lexeme
	if p.match(lexer.TokenColon) {
		switch p.peek().Type {
		case lexer.TokenBorrow, lexer.TokenRef, lexer.TokenMove, lexer.TokenKept:
			param.Mode = p.advance().Lexeme
		}
		param.Type = p.typeName()
	}
	if p.match(lexer.TokenEqual) {
		param.Default = p.expression()
	}
	return param
}

func (p *Parser) structDecl() Stmt {
	kw := p.advance()
	decl := &StructDecl{Position: posOf(kw)}
	decl.Name = p.consume(lexer.TokenIdent, "Expected struct name").Lexeme
	p.consume(lexer.TokenColon, fmt.Sprintf("Expected ':' after struct '%s'", decl.Name))
	p.skipNewlines()
	if !p.match(lexer.TokenIndent) {
		p.errorAt(p.peek(), "Expected indented struct body")
		return decl
	}

	for {
		p.skipNewlines()
		if p.isAtEnd() || p.match(lexer.TokenDedent) {
			break
		}
		tok := p.peek()
		switch tok.Type {
		case lexer.TokenFn:
			p.advance()
			decl.Methods = append(decl.Methods, p.function(tok, false))
		case lexer.TokenIdent:
			p.advance()
			field := FieldDecl{Position: posOf(tok), Name: tok.Lexeme}
			p.consume(lexer.TokenColon, fmt.Sprintf("Expected ':' after field '%s'", tok.Lexeme))
			field.Type = p.typeName()
			decl.Fields = append(decl.Fields, field)
		case lexer.TokenPass:
			p.advance()
		default:
			p.errorAt(tok, fmt.Sprintf("Unexpected token '%s' in struct body", tok.Lexeme))
			p.advance()
		}
	}
	return decl
}

func (p *Parser) enumDecl() Stmt {
	kw := p.advance()
	decl := &EnumDecl{Position: posOf(kw)}
	decl.Name = p.consume(lexer.TokenIdent, "Expected enum name").Lexeme
	p.consume(lexer.TokenColon, fmt.Sprintf("Expected ':' after enum '%s'", decl.Name))
	p.skipNewlines()
	if !p.match(lexer.TokenIndent) {
		p.errorAt(p.peek(), "Expected indented enum body")
		return decl
	}
	for {
		p.skipNewlines()
		if p.isAtEnd() || p.match(lexer.TokenDedent) {
			break
		}
		if p.match(lexer.TokenComma) {
			continue
		}
		tok := p.consume(lexer.TokenIdent, "Expected enum variant")
		if tok.Lexeme == "" {
			p.advance()
			continue
		}
		decl.Variants = append(decl.Variants, tok.Lexeme)
	}
	return decl
}

func (p *Parser) ifStatement() Stmt {
	kw := p.advance()
	stmt := &IfStmt{Position: posOf(kw)}
	stmt.Condition = p.expression()
	p.consume(lexer.TokenColon, "Expected ':' after if condition")
	stmt.Then = p.block()

	for {
		// elif/else may only follow on a fresh line at the same level.
		saved := p.current
		p.skipNewlines()
		switch {
		case p.check(lexer.TokenElif):
			tok := p.advance()
			clause := ElifClause{Position: posOf(tok)}
			clause.Condition = p.expression()
			p.consume(lexer.TokenColon, "Expected ':' after elif condition")
			clause.Body = p.block()
			stmt.Elifs = append(stmt.Elifs, clause)
			continue
		case p.check(lexer.TokenElse):
			p.advance()
			p.consume(lexer.TokenColon, "Expected ':' after 'else'")
			stmt.Else = p.block()
		default:
			p.current = saved
		}
		return stmt
	}
}

func (p *Parser) whileStatement() Stmt {
	kw := p.advance()
	stmt := &WhileStmt{Position: posOf(kw)}
	stmt.Condition = p.expression()
	p.consume(lexer.TokenColon, "Expected ':' after while condition")
	stmt.Body = p.block()
	return stmt
}

func (p *Parser) forStatement(parallel bool) Stmt {
	kw := p.advance()
	stmt := &ForStmt{Position: posOf(kw), Parallel: parallel}
	stmt.Variable = p.consume(lexer.TokenIdent, "Expected loop variable after 'for'").Lexeme
	p.consume(lexer.TokenIn, "Expected 'in' after loop variable")
	stmt.Iterable = p.expression()
	p.consume(lexer.TokenColon, "Expected ':' after for iterable")
	stmt.Body = p.block()
	return stmt
}

func (p *Parser) matchStatement() Stmt {
	kw := p.advance()
	stmt := &MatchStmt{Position: posOf(kw)}
	stmt.Scrutinee = p.expression()
	p.consume(lexer.TokenColon, "Expected ':' after match subject")
	p.skipNewlines()
	if !p.match(lexer.TokenIndent) {
		p.errorAt(p.peek(), "Expected indented match arms")
		return stmt
	}
	for {
		p.skipNewlines()
		if p.isAtEnd() || p.match(lexer.TokenDedent) {
			break
		}
		start := p.current
		arm := MatchArm{Pattern: p.expression()}
		p.consume(lexer.TokenFatArrow, "Expected '=>' after match pattern")
		if p.match(lexer.TokenColon) {
			arm.Body = p.block()
		} else if s := p.statement(); s != nil {
			arm.Body = []Stmt{s}
		}
		stmt.Arms = append(stmt.Arms, arm)
		if p.current == start {
			p.advance()
		}
	}
	return stmt
}

func (p *Parser) tryStatement() Stmt {
	kw := p.advance()
	stmt := &TryStmt{Position: posOf(kw)}
	p.consume(lexer.TokenColon, "Expected ':' after 'try'")
	stmt.Body = p.block()

	saved := p.current
	p.skipNewlines()
	if p.match(lexer.TokenCatch) {
		if p.check(lexer.TokenIdent) {
			stmt.CatchName = p.advance().Lexeme
		}
		p.consume(lexer.TokenColon, "Expected ':' after 'catch'")
		stmt.Catch = p.block()
		saved = p.current
		p.skipNewlines()
	}
	if p.match(lexer.TokenFinally) {
		p.consume(lexer.TokenColon, "Expected ':' after 'finally'")
		stmt.Finally = p.block()
	} else {
		p.current = saved
	}
	return stmt
}

// importStatement handles the three import shapes:
//
//	@imp std.math{sin, cos}
//	@imp:
//	    std.io
//	    std.math
//	@imp (std.io, std.math)
func (p *Parser) importStatement() Stmt {
	kw := p.advance()
	stmt := &ImportStmt{Position: posOf(kw)}

	switch {
	case p.match(lexer.TokenColon):
		p.skipNewlines()
		if !p.match(lexer.TokenIndent) {
			p.errorAt(p.peek(), "Expected indented import list")
			return stmt
		}
		for {
			p.skipNewlines()
			if p.isAtEnd() || p.match(lexer.TokenDedent) {
				break
			}
			if p.match(lexer.TokenComma) {
				continue
			}
			start := p.current
			stmt.Modules = append(stmt.Modules, p.importSpec())
			if p.current == start {
				p.advance()
			}
		}
	case p.match(lexer.TokenLParen):
		p.depth++
		for {
			p.skipNewlines()
			if p.check(lexer.TokenRParen) || p.isAtEnd() {
				break
			}
			stmt.Modules = append(stmt.Modules, p.importSpec())
			p.skipNewlines()
			if !p.match(lexer.TokenComma) {
				break
			}
		}
		p.depth--
		p.consume(lexer.TokenRParen, "Expected ')' after import list")
	default:
		stmt.Modules = append(stmt.Modules, p.importSpec())
	}
	return stmt
}

func (p *Parser) importSpec() ImportSpec {
	var spec ImportSpec
	spec.Path = append(spec.Path, p.importName())
	for p.match(lexer.TokenDot) {
		spec.Path = append(spec.Path, p.importName())
	}
	if p.match(lexer.TokenLBrace) {
		p.depth++
		for {
			p.skipNewlines()
			if p.check(lexer.TokenRBrace) || p.isAtEnd() {
				break
			}
			spec.Items = append(spec.Items, p.consume(lexer.TokenIdent, "Expected imported name").Lexeme)
			p.skipNewlines()
			if !p.match(lexer.TokenComma) {
				break
			}
		}
		p.depth--
		p.consume(lexer.TokenRBrace, "Expected '}' after imported names")
	}
	return spec
}

// importName accepts plain identifiers and @-prefixed roots like @python.
func (p *Parser) importName() string {
	tok := p.peek()
	if tok.Type == lexer.TokenIdent || strings.HasPrefix(tok.Lexeme, "@") {
		return p.advance().Lexeme
	}
	return p.consume(lexer.TokenIdent, "Expected module name").Lexeme
}

// foreignBlock keeps the indented block as raw text. Lines are rebuilt
// from token lexemes, so formatting inside a line is normalized.
func (p *Parser) foreignBlock() Stmt {
	kw := p.advance()
	stmt := &ForeignCodeBlock{Position: posOf(kw), Language: strings.TrimPrefix(kw.Lexeme, "@")}
	p.consume(lexer.TokenColon, fmt.Sprintf("Expected ':' after '%s'", kw.Lexeme))
	p.skipNewlines()
	if !p.match(lexer.TokenIndent) {
		p.errorAt(p.peek(), "Expected indented foreign code block")
		return stmt
	}

	var lines []string
	var line []string
	level := 0
	flush := func() {
		if len(line) > 0 {
			lines = append(lines, strings.Repeat("    ", level)+strings.Join(line, " "))
			line = nil
		}
	}
	for !p.isAtEnd() {
		tok := p.advance()
		switch tok.Type {
		case lexer.TokenNewline:
			flush()
			continue
		case lexer.TokenIndent:
			level++
			continue
		case lexer.TokenDedent:
			if level == 0 {
				flush()
				stmt.Code = strings.Join(lines, "\n")
				return stmt
			}
			level--
			continue
		case lexer.TokenString:
			line = append(line, fmt.Sprintf("%q", tok.Lexeme))
		default:
			line = append(line, tok.Lexeme)
		}
	}
	flush()
	stmt.Code = strings.Join(lines, "\n")
	return stmt
}

func (p *Parser) expressionStatement() Stmt {
	tok := p.peek()
	expr := p.expression()

	switch p.peek().Type {
	case lexer.TokenEqual, lexer.TokenPlusEqual, lexer.TokenMinusEqual,
		lexer.TokenStarEqual, lexer.TokenSlashEqual:
		op := p.advance()
		switch Unwrap(expr).(type) {
		case *Identifier, *Attribute, *Index:
		default:
			p.errorAt(op, "Invalid assignment target")
		}
		value := p.expression()
		return &AssignmentStmt{Position: posOf(tok), Target: expr, Op: op.Type, Value: value}
	}
	return &ExpressionStmt{Position: posOf(tok), Expr: expr}
}
