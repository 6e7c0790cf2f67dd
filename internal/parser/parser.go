// internal/parser/parser.go
package parser

import (
	"fmt"
	"gul/internal/errors"
	"gul/internal/lexer"
	"strings"
)

type Parser struct {
	tokens      []lexer.Token
	current     int
	depth       int // open (), [] and {} around the current expression
	Errors      []error
	file        string
	sourceLines []string // Source lines for error reporting
}

// NewParser drops ERROR tokens from the stream and records each of them
// as a LexError. A lexeme longer than one byte is the scanner's own message.
func NewParser(tokens []lexer.Token) *Parser {
	p := &Parser{Errors: []error{}}
	for _, tok := range tokens {
		if tok.Type == lexer.TokenError {
			msg := tok.Lexeme
			if len(msg) <= 1 {
				msg = fmt.Sprintf("unexpected character '%s'", tok.Lexeme)
			}
			p.Errors = append(p.Errors, errors.NewLexError(msg, "", tok.Line, tok.Column))
			continue
		}
		p.tokens = append(p.tokens, tok)
	}
	if len(p.tokens) == 0 || p.tokens[len(p.tokens)-1].Type != lexer.TokenEOF {
		p.tokens = append(p.tokens, lexer.Token{Type: lexer.TokenEOF})
	}
	return p
}

func NewParserWithSource(tokens []lexer.Token, source string, file string) *Parser {
	p := NewParser(tokens)
	p.file = file
	p.sourceLines = strings.Split(source, "\n")
	for _, err := range p.Errors {
		if ge, ok := err.(*errors.GulError); ok {
			ge.Location.File = file
			ge.WithSourceLines(p.sourceLines)
		}
	}
	return p
}

// Parse never panics. Problems are collected in p.Errors and the
// returned program holds whatever could be recovered.
func (p *Parser) Parse() *Program {
	prog := &Program{}
	for {
		p.skipNewlines()
		if p.isAtEnd() {
			break
		}
		start := p.current

		switch p.peek().Type {
		case lexer.TokenMn:
			p.advance()
			p.consume(lexer.TokenColon, "Expected ':' after 'mn'")
			prog.MainEntry = append(prog.MainEntry, p.block()...)
		case lexer.TokenIndent:
			p.advance()
			prog.Statements = append(prog.Statements, p.statementsUntilDedent()...)
		case lexer.TokenDedent:
			p.advance()
		default:
			prog.route(p.statement())
		}

		if p.current == start {
			p.errorAt(p.peek(), fmt.Sprintf("Unexpected token '%s'", p.peek().Lexeme))
			p.advance()
		}
	}
	return prog
}

func (prog *Program) route(stmt Stmt) {
	switch s := stmt.(type) {
	case nil:
	case *FunctionDecl:
		prog.Functions = append(prog.Functions, s)
	case *ImportStmt:
		prog.Imports = append(prog.Imports, s)
	default:
		prog.Statements = append(prog.Statements, s)
	}
}

// block parses ':' NEWLINE INDENT stmts DEDENT; the colon has already
// been consumed. A statement on the same line as the colon is a
// one-statement block.
func (p *Parser) block() []Stmt {
	if !p.check(lexer.TokenNewline) && !p.check(lexer.TokenIndent) && !p.isAtEnd() {
		if stmt := p.statement(); stmt != nil {
			return []Stmt{stmt}
		}
		return nil
	}
	p.skipNewlines()
	if !p.match(lexer.TokenIndent) {
		p.errorAt(p.peek(), "Expected indented block")
		return nil
	}
	return p.statementsUntilDedent()
}

// statementsUntilDedent parses statements up to and including the DEDENT
// closing the current block.
func (p *Parser) statementsUntilDedent() []Stmt {
	var stmts []Stmt
	for {
		p.skipNewlines()
		if p.isAtEnd() {
			break
		}
		if p.match(lexer.TokenDedent) {
			return stmts
		}
		if p.match(lexer.TokenIndent) {
			stmts = append(stmts, p.statementsUntilDedent()...)
			continue
		}

		start := p.current
		if stmt := p.statement(); stmt != nil {
			stmts = append(stmts, stmt)
		}
		if p.current == start {
			p.errorAt(p.peek(), fmt.Sprintf("Unexpected token '%s'", p.peek().Lexeme))
			p.advance()
		}
	}
	return stmts
}

// --- Utility methods ---

func (p *Parser) errorAt(tok lexer.Token, msg string) {
	err := errors.NewSyntaxError(msg, p.file, tok.Line, tok.Column)
	if p.sourceLines != nil {
		err.WithSourceLines(p.sourceLines)
	}
	p.Errors = append(p.Errors, err)
}

func (p *Parser) match(t lexer.TokenType) bool {
	if p.check(t) {
		p.advance()
		return true
	}
	return false
}

// consume records a diagnostic on mismatch and does not advance.
func (p *Parser) consume(t lexer.TokenType, msg string) lexer.Token {
	if p.check(t) {
		return p.advance()
	}
	tok := p.peek()
	got := tok.Lexeme
	if got == "" || tok.Type.IsLayout() {
		got = string(tok.Type)
	}
	p.errorAt(tok, fmt.Sprintf("%s (got '%s')", msg, got))
	return lexer.Token{Type: t, Line: tok.Line, Column: tok.Column}
}

func (p *Parser) check(t lexer.TokenType) bool {
	if p.isAtEnd() {
		return t == lexer.TokenEOF
	}
	return p.peek().Type == t
}

func (p *Parser) checkNext(t lexer.TokenType) bool {
	if p.current+1 >= len(p.tokens) {
		return false
	}
	return p.tokens[p.current+1].Type == t
}

func (p *Parser) advance() lexer.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) previous() lexer.Token {
	if p.current == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.current-1]
}

func (p *Parser) peek() lexer.Token {
	return p.tokens[p.current]
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Type == lexer.TokenEOF
}

func (p *Parser) skipNewlines() {
	for p.match(lexer.TokenNewline) || p.match(lexer.TokenSemicolon) {
	}
}

// endOfStatement reports whether the current token closes a simple statement.
func (p *Parser) endOfStatement() bool {
	switch p.peek().Type {
	case lexer.TokenNewline, lexer.TokenDedent, lexer.TokenEOF, lexer.TokenSemicolon:
		return true
	}
	return false
}
