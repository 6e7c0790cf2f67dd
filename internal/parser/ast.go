package parser

import "gul/internal/lexer"

// Position is the line and column of the token that starts a node.
type Position struct {
	Line   int
	Column int
}

func (p Position) Pos() Position { return p }

func posOf(tok lexer.Token) Position {
	return Position{Line: tok.Line, Column: tok.Column}
}

type Expr interface {
	Accept(visitor ExprVisitor) interface{}
	Pos() Position
}

// Literal expression. Value holds the lexeme; strings are already unescaped.
type Literal struct {
	Position
	Value string
	Kind  lexer.TokenType
}

func (l *Literal) Accept(visitor ExprVisitor) interface{} {
	return visitor.VisitLiteralExpr(l)
}

// Identifier expression: x
type Identifier struct {
	Position
	Name string
}

func (i *Identifier) Accept(visitor ExprVisitor) interface{} {
	return visitor.VisitIdentifierExpr(i)
}

// Binary expression: a + b
type Binary struct {
	Position
	Left  Expr
	Op    lexer.TokenType
	Right Expr
}

func (b *Binary) Accept(visitor ExprVisitor) interface{} {
	return visitor.VisitBinaryExpr(b)
}

// Unary expression: -x, not x
type Unary struct {
	Position
	Op      lexer.TokenType
	Operand Expr
}

func (u *Unary) Accept(visitor ExprVisitor) interface{} {
	return visitor.VisitUnaryExpr(u)
}

type KwArg struct {
	Name  string
	Value Expr
}

// Call expression: callee(args...)
type Call struct {
	Position
	Callee Expr
	Args   []Expr
	KwArgs []KwArg
}

func (c *Call) Accept(visitor ExprVisitor) interface{} {
	return visitor.VisitCallExpr(c)
}

// Index expression: obj[index]
type Index struct {
	Position
	Object Expr
	Index  Expr
}

func (i *Index) Accept(visitor ExprVisitor) interface{} {
	return visitor.VisitIndexExpr(i)
}

// Attribute expression: obj.name
type Attribute struct {
	Position
	Object Expr
	Name   string
}

func (a *Attribute) Accept(visitor ExprVisitor) interface{} {
	return visitor.VisitAttributeExpr(a)
}

// List literal: [1, 2, 3]
type ListExpr struct {
	Position
	Elements []Expr
}

func (l *ListExpr) Accept(visitor ExprVisitor) interface{} {
	return visitor.VisitListExpr(l)
}

// Tuple literal: (a, b)
type TupleExpr struct {
	Position
	Elements []Expr
}

func (t *TupleExpr) Accept(visitor ExprVisitor) interface{} {
	return visitor.VisitTupleExpr(t)
}

// Set literal: {1, 2}
type SetExpr struct {
	Position
	Elements []Expr
}

func (s *SetExpr) Accept(visitor ExprVisitor) interface{} {
	return visitor.VisitSetExpr(s)
}

type DictPair struct {
	Key   Expr
	Value Expr
}

// Dict literal: {"a": 1}
type DictExpr struct {
	Position
	Pairs []DictPair
}

func (d *DictExpr) Accept(visitor ExprVisitor) interface{} {
	return visitor.VisitDictExpr(d)
}

// Lambda: fn(a, b) => a + b
type Lambda struct {
	Position
	Params []string
	Body   Expr
}

func (l *Lambda) Accept(visitor ExprVisitor) interface{} {
	return visitor.VisitLambdaExpr(l)
}

type MatchCase struct {
	Pattern Expr
	Body    Expr
}

// Match expression: match x { 1 => a, _ => b }
type MatchExpr struct {
	Position
	Scrutinee Expr
	Cases     []MatchCase
}

func (m *MatchExpr) Accept(visitor ExprVisitor) interface{} {
	return visitor.VisitMatchExpr(m)
}

// TypeConstructor applies an @-type to one argument: @int(x).
// TypeName is normalized without the @ ("int", "float", "str", ...).
type TypeConstructor struct {
	Position
	TypeName string
	Arg      Expr
}

func (t *TypeConstructor) Accept(visitor ExprVisitor) interface{} {
	return visitor.VisitTypeConstructorExpr(t)
}

// Await expression: await f()
type Await struct {
	Position
	Inner Expr
}

func (a *Await) Accept(visitor ExprVisitor) interface{} {
	return visitor.VisitAwaitExpr(a)
}

type TableRow struct {
	Name   string
	Values []Expr
}

// Table literal: @tabl { (a, b): r1: {1, 2} }
type Table struct {
	Position
	Columns []string
	Rows    []TableRow
	Sparse  bool
}

func (t *Table) Accept(visitor ExprVisitor) interface{} {
	return visitor.VisitTableExpr(t)
}

// DataFrame literal: @frame { columns: ("a", "b") }
type DataFrame struct {
	Position
	Columns []string
}

func (d *DataFrame) Accept(visitor ExprVisitor) interface{} {
	return visitor.VisitDataFrameExpr(d)
}

// Grouped expression: (expr)
type Grouped struct {
	Position
	Inner Expr
}

func (g *Grouped) Accept(visitor ExprVisitor) interface{} {
	return visitor.VisitGroupedExpr(g)
}

// ExprVisitor handles all expression types.
type ExprVisitor interface {
	VisitLiteralExpr(expr *Literal) interface{}
	VisitIdentifierExpr(expr *Identifier) interface{}
	VisitBinaryExpr(expr *Binary) interface{}
	VisitUnaryExpr(expr *Unary) interface{}
	VisitCallExpr(expr *Call) interface{}
	VisitIndexExpr(expr *Index) interface{}
	VisitAttributeExpr(expr *Attribute) interface{}
	VisitListExpr(expr *ListExpr) interface{}
	VisitTupleExpr(expr *TupleExpr) interface{}
	VisitSetExpr(expr *SetExpr) interface{}
	VisitDictExpr(expr *DictExpr) interface{}
	VisitLambdaExpr(expr *Lambda) interface{}
	VisitMatchExpr(expr *MatchExpr) interface{}
	VisitTypeConstructorExpr(expr *TypeConstructor) interface{}
	VisitAwaitExpr(expr *Await) interface{}
	VisitTableExpr(expr *Table) interface{}
	VisitDataFrameExpr(expr *DataFrame) interface{}
	VisitGroupedExpr(expr *Grouped) interface{}
}

// Unwrap strips any Grouped wrappers.
func Unwrap(e Expr) Expr {
	for {
		g, ok := e.(*Grouped)
		if !ok {
			return e
		}
		e = g.Inner
	}
}
