package lexer

import (
	"testing"

	"github.com/nalgeon/be"
)

func types(tokens []Token) []TokenType {
	out := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Type
	}
	return out
}

// assertBalanced checks that INDENT never trails DEDENT and that both
// counts agree at the end of the stream.
func assertBalanced(t *testing.T, tokens []Token) {
	t.Helper()
	depth := 0
	for _, tok := range tokens {
		switch tok.Type {
		case TokenIndent:
			depth++
		case TokenDedent:
			depth--
		}
		if depth < 0 {
			t.Fatalf("dedent without matching indent at %d:%d", tok.Line, tok.Column)
		}
	}
	be.Equal(t, depth, 0)
}

func TestScanOperators(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []TokenType
	}{
		{"arithmetic", "+ - * / % **", []TokenType{TokenPlus, TokenMinus, TokenStar, TokenSlash, TokenPercent, TokenPower, TokenEOF}},
		{"comparison", "== != < <= > >=", []TokenType{TokenDoubleEqual, TokenNotEqual, TokenLT, TokenLE, TokenGT, TokenGE, TokenEOF}},
		{"compound assignment", "= += -= *= /=", []TokenType{TokenEqual, TokenPlusEqual, TokenMinusEqual, TokenStarEqual, TokenSlashEqual, TokenEOF}},
		{"arrows and pipe", "-> => |> ..", []TokenType{TokenArrow, TokenFatArrow, TokenPipe, TokenRange, TokenEOF}},
		{"logical aliases", "and or not && ||", []TokenType{TokenAnd, TokenOr, TokenNot, TokenAnd, TokenOr, TokenEOF}},
		{"range between integers", "0..3", []TokenType{TokenInteger, TokenRange, TokenInteger, TokenEOF}},
		{"method on integer", "1.to_string", []TokenType{TokenInteger, TokenDot, TokenIdent, TokenEOF}},
		{"float", "3.25", []TokenType{TokenFloat, TokenEOF}},
		{"unknown byte", "$", []TokenType{TokenError, TokenEOF}},
		{"lone bang", "!", []TokenType{TokenError, TokenEOF}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			be.Equal(t, types(Tokenize(test.input)), test.want)
		})
	}
}

func TestScanIdentifierTables(t *testing.T) {
	tests := []struct {
		input string
		want  TokenType
	}{
		{"let", TokenLet},
		{"elif", TokenElif},
		{"mn", TokenMn},
		{"None", TokenNone},
		{"true", TokenTrue},
		{"@int", TokenAtInt},
		{"@flt", TokenAtFloat},
		{"@float", TokenAtFloat},
		{"@tabl", TokenAtTabl},
		{"@imp", TokenAtImp},
		{"@python", TokenAtPython},
		{"@unknown", TokenIdent},
		{"snake_case2", TokenIdent},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			tokens := Tokenize(test.input)
			be.Equal(t, tokens[0].Type, test.want)
			be.Equal(t, tokens[0].Lexeme, test.input)
		})
	}
}

func TestScanStrings(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", `"Hello, World!"`, "Hello, World!"},
		{"newline escape", `"a\nb"`, "a\nb"},
		{"tab and quote", `"\t\"q\""`, "\t\"q\""},
		{"backslash", `"a\\b"`, `a\b`},
		{"unknown escape kept", `"\d"`, `\d`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			tokens := Tokenize(test.input)
			be.Equal(t, tokens[0].Type, TokenString)
			be.Equal(t, tokens[0].Lexeme, test.want)
		})
	}

	t.Run("unterminated", func(t *testing.T) {
		tokens := Tokenize(`"open`)
		be.Equal(t, tokens[0].Type, TokenError)
	})
}

func TestScanIndentation(t *testing.T) {
	src := "fn f():\n    if x:\n        pass\n    return 1\nmn:\n    f()\n"
	tokens := Tokenize(src)
	assertBalanced(t, tokens)

	want := []TokenType{
		TokenFn, TokenIdent, TokenLParen, TokenRParen, TokenColon, TokenNewline,
		TokenIndent, TokenIf, TokenIdent, TokenColon, TokenNewline,
		TokenIndent, TokenPass, TokenNewline,
		TokenDedent, TokenReturn, TokenInteger, TokenNewline,
		TokenDedent, TokenMn, TokenColon, TokenNewline,
		TokenIndent, TokenIdent, TokenLParen, TokenRParen, TokenNewline,
		TokenDedent, TokenEOF,
	}
	be.Equal(t, types(tokens), want)
}

func TestScanBlankAndCommentLines(t *testing.T) {
	src := "mn:\n    let x = 1\n\n  # dangling comment\n\t\n    print(x)\n"
	tokens := Tokenize(src)
	assertBalanced(t, tokens)

	indents := 0
	for _, tok := range tokens {
		if tok.Type == TokenIndent {
			indents++
		}
		be.True(t, tok.Type != TokenError)
	}
	be.Equal(t, indents, 1)
}

func TestScanTabsCountAsFour(t *testing.T) {
	tokens := Tokenize("mn:\n\tlet a = 1\n    let b = 2\n")
	assertBalanced(t, tokens)
	for _, tok := range tokens {
		be.True(t, tok.Type != TokenError)
	}
}

func TestScanInconsistentDedent(t *testing.T) {
	tokens := Tokenize("mn:\n    let a = 1\n  let b = 2\n")
	assertBalanced(t, tokens)

	errs := 0
	for _, tok := range tokens {
		if tok.Type == TokenError {
			errs++
			be.Equal(t, tok.Line, 3)
		}
	}
	be.Equal(t, errs, 1)
}

func TestScanBracketsSuppressLayout(t *testing.T) {
	src := "mn:\n    let xs = [\n        1,\n        2,\n    ]\n    print(xs)\n"
	tokens := Tokenize(src)
	assertBalanced(t, tokens)

	indents := 0
	for _, tok := range tokens {
		if tok.Type == TokenIndent {
			indents++
		}
	}
	be.Equal(t, indents, 1)
}

func TestScanPositions(t *testing.T) {
	tokens := Tokenize("mn:\n    print(\"hi\")\n")
	var print Token
	for _, tok := range tokens {
		if tok.Lexeme == "print" {
			print = tok
		}
	}
	be.Equal(t, print.Line, 2)
	be.Equal(t, print.Column, 5)
}

func TestScanDedentsAtEOF(t *testing.T) {
	tokens := Tokenize("mn:\n    if a:\n        if b:\n            pass")
	assertBalanced(t, tokens)
	n := len(tokens)
	be.Equal(t, types(tokens[n-4:]), []TokenType{TokenDedent, TokenDedent, TokenDedent, TokenEOF})
}
