package lexer

import (
	"fmt"
	"strings"
)

const tabWidth = 4

type Scanner struct {
	source       string
	tokens       []Token
	start        int
	current      int
	line         int
	column       int
	startLine    int
	startColumn  int
	indents      []int
	atLineStart  bool
	bracketLevel int
}

func NewScanner(source string) *Scanner {
	return &Scanner{
		source:      source,
		line:        1,
		column:      1,
		indents:     []int{0},
		atLineStart: true,
	}
}

// Tokenize scans source in one call.
func Tokenize(source string) []Token {
	return NewScanner(source).ScanTokens()
}

// ScanTokens never fails. Problems surface as TokenError entries.
func (s *Scanner) ScanTokens() []Token {
	for !s.isAtEnd() {
		if s.atLineStart {
			s.indentation()
			if s.isAtEnd() {
				break
			}
		}
		s.start = s.current
		s.startLine = s.line
		s.startColumn = s.column
		s.scanToken()
	}

	s.start = s.current
	s.startLine = s.line
	s.startColumn = s.column
	for len(s.indents) > 1 {
		s.indents = s.indents[:len(s.indents)-1]
		s.emit(TokenDedent, "")
	}
	s.emit(TokenEOF, "")
	return s.tokens
}

// indentation measures the leading whitespace of a line and emits the
// INDENT/DEDENT tokens needed to bring the stack in line with it.
func (s *Scanner) indentation() {
	s.atLineStart = false
	width := 0
measure:
	for !s.isAtEnd() {
		switch s.peek() {
		case ' ':
			width++
		case '\t':
			width += tabWidth
		case '\r':
		default:
			break measure
		}
		s.advance()
	}
	if s.isAtEnd() || s.peek() == '\n' || s.peek() == '#' || s.bracketLevel > 0 {
		return
	}

	s.start = s.current
	s.startLine = s.line
	s.startColumn = s.column

	top := s.indents[len(s.indents)-1]
	switch {
	case width > top:
		s.indents = append(s.indents, width)
		s.emit(TokenIndent, "")
	case width < top:
		for len(s.indents) > 1 && s.indents[len(s.indents)-1] > width {
			s.indents = s.indents[:len(s.indents)-1]
			s.emit(TokenDedent, "")
		}
		if s.indents[len(s.indents)-1] != width {
			s.emit(TokenError, fmt.Sprintf("inconsistent indentation: column %d matches no enclosing block", width))
			// The recovered level still owes a DEDENT, so it gets an INDENT too.
			s.indents = append(s.indents, width)
			s.emit(TokenIndent, "")
		}
	}
}

func (s *Scanner) scanToken() {
	c := s.advance()
	switch c {
	case '(':
		s.bracketLevel++
		s.addToken(TokenLParen)
	case ')':
		s.closeBracket()
		s.addToken(TokenRParen)
	case '[':
		s.bracketLevel++
		s.addToken(TokenLBracket)
	case ']':
		s.closeBracket()
		s.addToken(TokenRBracket)
	case '{':
		s.bracketLevel++
		s.addToken(TokenLBrace)
	case '}':
		s.closeBracket()
		s.addToken(TokenRBrace)
	case ',':
		s.addToken(TokenComma)
	case ':':
		s.addToken(TokenColon)
	case ';':
		s.addToken(TokenSemicolon)
	case '%':
		s.addToken(TokenPercent)
	case '.':
		s.pick('.', TokenRange, TokenDot)
	case '+':
		s.pick('=', TokenPlusEqual, TokenPlus)
	case '-':
		if s.match('>') {
			s.addToken(TokenArrow)
		} else {
			s.pick('=', TokenMinusEqual, TokenMinus)
		}
	case '*':
		if s.match('*') {
			s.addToken(TokenPower)
		} else {
			s.pick('=', TokenStarEqual, TokenStar)
		}
	case '/':
		s.pick('=', TokenSlashEqual, TokenSlash)
	case '=':
		if s.match('>') {
			s.addToken(TokenFatArrow)
		} else {
			s.pick('=', TokenDoubleEqual, TokenEqual)
		}
	case '!':
		if s.match('=') {
			s.addToken(TokenNotEqual)
		} else {
			s.addToken(TokenError)
		}
	case '<':
		s.pick('=', TokenLE, TokenLT)
	case '>':
		s.pick('=', TokenGE, TokenGT)
	case '|':
		if s.match('>') {
			s.addToken(TokenPipe)
		} else if s.match('|') {
			s.addToken(TokenOr)
		} else {
			s.addToken(TokenError)
		}
	case '&':
		if s.match('&') {
			s.addToken(TokenAnd)
		} else {
			s.addToken(TokenError)
		}
	case '#':
		for s.peek() != '\n' && !s.isAtEnd() {
			s.advance()
		}
	case '"':
		s.string()
	case '\n':
		s.emit(TokenNewline, "\n")
		s.line++
		s.column = 1
		s.atLineStart = true
	case ' ', '\r', '\t':
		// Ignore whitespace
	default:
		if isDigit(c) {
			s.number()
		} else if isAlpha(c) {
			s.identifier()
		} else {
			s.addToken(TokenError)
		}
	}
}

func (s *Scanner) closeBracket() {
	if s.bracketLevel > 0 {
		s.bracketLevel--
	}
}

// pick emits long when the next byte is next, short otherwise.
func (s *Scanner) pick(next byte, long, short TokenType) {
	if s.match(next) {
		s.addToken(long)
	} else {
		s.addToken(short)
	}
}

func (s *Scanner) match(expected byte) bool {
	if s.isAtEnd() || s.source[s.current] != expected {
		return false
	}
	s.advance()
	return true
}

func (s *Scanner) identifier() {
	for isAlphaNumeric(s.peek()) {
		s.advance()
	}
	text := s.source[s.start:s.current]
	if t, ok := keywords[text]; ok {
		s.addToken(t)
		return
	}
	if t, ok := typeConstructors[text]; ok {
		s.addToken(t)
		return
	}
	if t, ok := decorators[text]; ok {
		s.addToken(t)
		return
	}
	s.addToken(TokenIdent)
}

func (s *Scanner) number() {
	for isDigit(s.peek()) {
		s.advance()
	}
	if s.peek() == '.' && isDigit(s.peekNext()) {
		s.advance()
		for isDigit(s.peek()) {
			s.advance()
		}
		s.addToken(TokenFloat)
		return
	}
	s.addToken(TokenInteger)
}

func (s *Scanner) string() {
	var sb strings.Builder
	for s.peek() != '"' && !s.isAtEnd() {
		c := s.advance()
		if c == '\n' {
			s.line++
			s.column = 1
		}
		if c != '\\' || s.isAtEnd() {
			sb.WriteByte(c)
			continue
		}
		esc := s.advance()
		switch esc {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case '\\':
			sb.WriteByte('\\')
		case '"':
			sb.WriteByte('"')
		default:
			sb.WriteByte('\\')
			sb.WriteByte(esc)
		}
	}
	if s.isAtEnd() {
		s.emit(TokenError, "unterminated string")
		return
	}
	s.advance()
	s.emit(TokenString, sb.String())
}

func (s *Scanner) addToken(t TokenType) {
	s.emit(t, s.source[s.start:s.current])
}

func (s *Scanner) emit(t TokenType, lexeme string) {
	s.tokens = append(s.tokens, Token{Type: t, Lexeme: lexeme, Line: s.startLine, Column: s.startColumn})
}

func (s *Scanner) advance() byte {
	s.current++
	s.column++
	return s.source[s.current-1]
}

func (s *Scanner) peek() byte {
	if s.isAtEnd() {
		return '\000'
	}
	return s.source[s.current]
}

func (s *Scanner) peekNext() byte {
	if s.current+1 >= len(s.source) {
		return '\000'
	}
	return s.source[s.current+1]
}

func (s *Scanner) isAtEnd() bool {
	return s.current >= len(s.source)
}

func isAlpha(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || c == '_' || c == '@'
}

func isAlphaNumeric(c byte) bool {
	return isAlpha(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}
