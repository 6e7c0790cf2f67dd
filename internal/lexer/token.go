package lexer

import "fmt"

type TokenType string

const (
	// Keywords
	TokenLet      TokenType = "LET"
	TokenVar      TokenType = "VAR"
	TokenFn       TokenType = "FN"
	TokenAsync    TokenType = "ASYNC"
	TokenStruct   TokenType = "STRUCT"
	TokenEnum     TokenType = "ENUM"
	TokenMatch    TokenType = "MATCH"
	TokenIf       TokenType = "IF"
	TokenElif     TokenType = "ELIF"
	TokenElse     TokenType = "ELSE"
	TokenFor      TokenType = "FOR"
	TokenWhile    TokenType = "WHILE"
	TokenLoop     TokenType = "LOOP"
	TokenIn       TokenType = "IN"
	TokenBreak    TokenType = "BREAK"
	TokenContinue TokenType = "CONTINUE"
	TokenReturn   TokenType = "RETURN"
	TokenTry      TokenType = "TRY"
	TokenCatch    TokenType = "CATCH"
	TokenFinally  TokenType = "FINALLY"
	TokenMn       TokenType = "MN"
	TokenAwait    TokenType = "AWAIT"
	TokenImport   TokenType = "IMPORT"
	TokenPass     TokenType = "PASS"
	TokenAnd      TokenType = "AND"
	TokenOr       TokenType = "OR"
	TokenNot      TokenType = "NOT"
	TokenBorrow   TokenType = "BORROW"
	TokenRef      TokenType = "REF"
	TokenMove     TokenType = "MOVE"
	TokenKept     TokenType = "KEPT"

	// Literals
	TokenInteger TokenType = "INTEGER"
	TokenFloat   TokenType = "FLOAT"
	TokenString  TokenType = "STRING"
	TokenTrue    TokenType = "TRUE"
	TokenFalse   TokenType = "FALSE"
	TokenNone    TokenType = "NONE"
	TokenIdent   TokenType = "IDENT"

	// Type constructors
	TokenAtInt    TokenType = "@int"
	TokenAtFloat  TokenType = "@float"
	TokenAtStr    TokenType = "@str"
	TokenAtBool   TokenType = "@bool"
	TokenAtList   TokenType = "@list"
	TokenAtTuple  TokenType = "@tuple"
	TokenAtSet    TokenType = "@set"
	TokenAtDict   TokenType = "@dict"
	TokenAtTensor TokenType = "@tensor"
	TokenAtTabl   TokenType = "@tabl"
	TokenAtFrame  TokenType = "@frame"
	TokenAtChan   TokenType = "@chan"

	// Decorators
	TokenAtImp      TokenType = "@imp"
	TokenAtPython   TokenType = "@python"
	TokenAtRust     TokenType = "@rust"
	TokenAtSQL      TokenType = "@sql"
	TokenAtJS       TokenType = "@js"
	TokenAtUI       TokenType = "@ui"
	TokenAtGrad     TokenType = "@grad"
	TokenAtFlow     TokenType = "@flow"
	TokenAtParallel TokenType = "@parallel"

	// Symbols
	TokenLParen      TokenType = "("
	TokenRParen      TokenType = ")"
	TokenLBrace      TokenType = "{"
	TokenRBrace      TokenType = "}"
	TokenLBracket    TokenType = "["
	TokenRBracket    TokenType = "]"
	TokenComma       TokenType = ","
	TokenDot         TokenType = "."
	TokenColon       TokenType = ":"
	TokenSemicolon   TokenType = ";"
	TokenPlus        TokenType = "+"
	TokenMinus       TokenType = "-"
	TokenStar        TokenType = "*"
	TokenSlash       TokenType = "/"
	TokenPercent     TokenType = "%"
	TokenEqual       TokenType = "="
	TokenLT          TokenType = "<"
	TokenGT          TokenType = ">"
	TokenDoubleEqual TokenType = "=="
	TokenNotEqual    TokenType = "!="
	TokenLE          TokenType = "<="
	TokenGE          TokenType = ">="
	TokenArrow       TokenType = "->"
	TokenFatArrow    TokenType = "=>"
	TokenPipe        TokenType = "|>"
	TokenPower       TokenType = "**"
	TokenRange       TokenType = ".."
	TokenPlusEqual   TokenType = "+="
	TokenMinusEqual  TokenType = "-="
	TokenStarEqual   TokenType = "*="
	TokenSlashEqual  TokenType = "/="

	// Layout
	TokenNewline TokenType = "NEWLINE"
	TokenIndent  TokenType = "INDENT"
	TokenDedent  TokenType = "DEDENT"
	TokenEOF     TokenType = "EOF"
	TokenError   TokenType = "ERROR"
)

var keywords = map[string]TokenType{
	"let":      TokenLet,
	"var":      TokenVar,
	"fn":       TokenFn,
	"async":    TokenAsync,
	"struct":   TokenStruct,
	"enum":     TokenEnum,
	"match":    TokenMatch,
	"if":       TokenIf,
	"elif":     TokenElif,
	"else":     TokenElse,
	"for":      TokenFor,
	"while":    TokenWhile,
	"loop":     TokenLoop,
	"in":       TokenIn,
	"break":    TokenBreak,
	"continue": TokenContinue,
	"return":   TokenReturn,
	"try":      TokenTry,
	"catch":    TokenCatch,
	"finally":  TokenFinally,
	"mn":       TokenMn,
	"await":    TokenAwait,
	"import":   TokenImport,
	"pass":     TokenPass,
	"and":      TokenAnd,
	"or":       TokenOr,
	"not":      TokenNot,
	"borrow":   TokenBorrow,
	"ref":      TokenRef,
	"move":     TokenMove,
	"kept":     TokenKept,
	"true":     TokenTrue,
	"false":    TokenFalse,
	"None":     TokenNone,
}

var typeConstructors = map[string]TokenType{
	"@int":    TokenAtInt,
	"@float":  TokenAtFloat,
	"@flt":    TokenAtFloat,
	"@str":    TokenAtStr,
	"@bool":   TokenAtBool,
	"@list":   TokenAtList,
	"@tuple":  TokenAtTuple,
	"@set":    TokenAtSet,
	"@dict":   TokenAtDict,
	"@tensor": TokenAtTensor,
	"@tabl":   TokenAtTabl,
	"@frame":  TokenAtFrame,
	"@chan":   TokenAtChan,
}

var decorators = map[string]TokenType{
	"@imp":      TokenAtImp,
	"@python":   TokenAtPython,
	"@rust":     TokenAtRust,
	"@sql":      TokenAtSQL,
	"@js":       TokenAtJS,
	"@ui":       TokenAtUI,
	"@grad":     TokenAtGrad,
	"@flow":     TokenAtFlow,
	"@parallel": TokenAtParallel,
}

// IsTypeConstructor reports whether t is one of the @-prefixed type tokens.
func (t TokenType) IsTypeConstructor() bool {
	for _, tc := range typeConstructors {
		if tc == t {
			return true
		}
	}
	return false
}

// IsForeignLanguage reports whether t opens a foreign code block.
func (t TokenType) IsForeignLanguage() bool {
	switch t {
	case TokenAtPython, TokenAtRust, TokenAtSQL, TokenAtJS:
		return true
	}
	return false
}

// Layout tokens are synthesized from whitespace.
func (t TokenType) IsLayout() bool {
	return t == TokenNewline || t == TokenIndent || t == TokenDedent
}

type Token struct {
	Type   TokenType
	Lexeme string
	Line   int
	Column int
}

func (t Token) String() string {
	return fmt.Sprintf("[%s] '%s' %d:%d", t.Type, t.Lexeme, t.Line, t.Column)
}
