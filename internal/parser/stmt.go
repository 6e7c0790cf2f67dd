package parser

import "gul/internal/lexer"

// Stmt represents a statement.
type Stmt interface {
	Accept(visitor StmtVisitor) interface{}
	Pos() Position
}

// DeclStmt holds what let and var declarations share.
type DeclStmt struct {
	Position
	Name    string
	Type    string // annotation, empty when omitted
	Value   Expr
	Mutable bool
}

// LetStmt represents an immutable binding: let x: int = expr
type LetStmt struct {
	DeclStmt
}

func (l *LetStmt) Accept(visitor StmtVisitor) interface{} {
	return visitor.VisitLetStmt(l)
}

// VarStmt represents a mutable binding: var x = expr
type VarStmt struct {
	DeclStmt
}

func (v *VarStmt) Accept(visitor StmtVisitor) interface{} {
	return visitor.VisitVarStmt(v)
}

// Param is a function parameter. Mode is one of borrow, ref, move, kept or empty.
type Param struct {
	Name    string
	Type    string
	Mode    string
	Default Expr
}

// FunctionDecl represents a function declaration.
type FunctionDecl struct {
	Position
	Name       string
	Params     []Param
	ReturnType string
	Body       []Stmt
	Async      bool
}

func (f *FunctionDecl) Accept(visitor StmtVisitor) interface{} {
	return visitor.VisitFunctionDecl(f)
}

type FieldDecl struct {
	Position
	Name string
	Type string
}

// StructDecl represents a struct with fields and methods.
type StructDecl struct {
	Position
	Name    string
	Fields  []FieldDecl
	Methods []*FunctionDecl
}

func (s *StructDecl) Accept(visitor StmtVisitor) interface{} {
	return visitor.VisitStructDecl(s)
}

// EnumDecl represents an enum with bare variants.
type EnumDecl struct {
	Position
	Name     string
	Variants []string
}

func (e *EnumDecl) Accept(visitor StmtVisitor) interface{} {
	return visitor.VisitEnumDecl(e)
}

type ElifClause struct {
	Position
	Condition Expr
	Body      []Stmt
}

type IfStmt struct {
	Position
	Condition Expr
	Then      []Stmt
	Elifs     []ElifClause
	Else      []Stmt
}

func (i *IfStmt) Accept(visitor StmtVisitor) interface{} {
	return visitor.VisitIfStmt(i)
}

type WhileStmt struct {
	Position
	Condition Expr
	Body      []Stmt
}

func (w *WhileStmt) Accept(visitor StmtVisitor) interface{} {
	return visitor.VisitWhileStmt(w)
}

// ForStmt represents for x in iterable. Parallel marks @parallel for.
type ForStmt struct {
	Position
	Variable string
	Iterable Expr
	Body     []Stmt
	Parallel bool
}

func (f *ForStmt) Accept(visitor StmtVisitor) interface{} {
	return visitor.VisitForStmt(f)
}

type LoopStmt struct {
	Position
	Body []Stmt
}

func (l *LoopStmt) Accept(visitor StmtVisitor) interface{} {
	return visitor.VisitLoopStmt(l)
}

type MatchArm struct {
	Pattern Expr
	Body    []Stmt
}

type MatchStmt struct {
	Position
	Scrutinee Expr
	Arms      []MatchArm
}

func (m *MatchStmt) Accept(visitor StmtVisitor) interface{} {
	return visitor.VisitMatchStmt(m)
}

type BreakStmt struct {
	Position
}

func (b *BreakStmt) Accept(visitor StmtVisitor) interface{} {
	return visitor.VisitBreakStmt(b)
}

type ContinueStmt struct {
	Position
}

func (c *ContinueStmt) Accept(visitor StmtVisitor) interface{} {
	return visitor.VisitContinueStmt(c)
}

// ReturnStmt represents a return statement. Value is nil for a bare return.
type ReturnStmt struct {
	Position
	Value Expr
}

func (r *ReturnStmt) Accept(visitor StmtVisitor) interface{} {
	return visitor.VisitReturnStmt(r)
}

type TryStmt struct {
	Position
	Body      []Stmt
	CatchName string
	Catch     []Stmt
	Finally   []Stmt
}

func (t *TryStmt) Accept(visitor StmtVisitor) interface{} {
	return visitor.VisitTryStmt(t)
}

// ExpressionStmt wraps a raw expression as a statement.
type ExpressionStmt struct {
	Position
	Expr Expr
}

func (e *ExpressionStmt) Accept(visitor StmtVisitor) interface{} {
	return visitor.VisitExpressionStmt(e)
}

// AssignmentStmt represents target op value where op is =, +=, -=, *= or /=.
type AssignmentStmt struct {
	Position
	Target Expr
	Op     lexer.TokenType
	Value  Expr
}

func (a *AssignmentStmt) Accept(visitor StmtVisitor) interface{} {
	return visitor.VisitAssignmentStmt(a)
}

// ImportSpec is one dotted module path with an optional item list.
type ImportSpec struct {
	Path  []string
	Items []string
}

type ImportStmt struct {
	Position
	Modules []ImportSpec
}

func (i *ImportStmt) Accept(visitor StmtVisitor) interface{} {
	return visitor.VisitImportStmt(i)
}

// ForeignCodeBlock holds raw code for another language: @python: ...
type ForeignCodeBlock struct {
	Position
	Language string
	Code     string
}

func (f *ForeignCodeBlock) Accept(visitor StmtVisitor) interface{} {
	return visitor.VisitForeignCodeBlock(f)
}

type PassStmt struct {
	Position
}

func (p *PassStmt) Accept(visitor StmtVisitor) interface{} {
	return visitor.VisitPassStmt(p)
}

// StmtVisitor handles all statement types.
type StmtVisitor interface {
	VisitLetStmt(stmt *LetStmt) interface{}
	VisitVarStmt(stmt *VarStmt) interface{}
	VisitFunctionDecl(stmt *FunctionDecl) interface{}
	VisitStructDecl(stmt *StructDecl) interface{}
	VisitEnumDecl(stmt *EnumDecl) interface{}
	VisitIfStmt(stmt *IfStmt) interface{}
	VisitWhileStmt(stmt *WhileStmt) interface{}
	VisitForStmt(stmt *ForStmt) interface{}
	VisitLoopStmt(stmt *LoopStmt) interface{}
	VisitMatchStmt(stmt *MatchStmt) interface{}
	VisitBreakStmt(stmt *BreakStmt) interface{}
	VisitContinueStmt(stmt *ContinueStmt) interface{}
	VisitReturnStmt(stmt *ReturnStmt) interface{}
	VisitTryStmt(stmt *TryStmt) interface{}
	VisitExpressionStmt(stmt *ExpressionStmt) interface{}
	VisitAssignmentStmt(stmt *AssignmentStmt) interface{}
	VisitImportStmt(stmt *ImportStmt) interface{}
	VisitForeignCodeBlock(stmt *ForeignCodeBlock) interface{}
	VisitPassStmt(stmt *PassStmt) interface{}
}

// Program is the root of the tree.
type Program struct {
	Imports    []*ImportStmt
	Statements []Stmt
	Functions  []*FunctionDecl
	MainEntry  []Stmt
}

// Empty reports whether the program holds nothing to compile.
func (p *Program) Empty() bool {
	return len(p.Imports) == 0 && len(p.Statements) == 0 && len(p.Functions) == 0 && len(p.MainEntry) == 0
}
