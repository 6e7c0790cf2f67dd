// internal/semantic/analyzer.go
package semantic

import (
	"fmt"
	"strings"

	"gul/internal/lexer"
	"gul/internal/parser"
)

// Result holds the diagnostics of one analysis run.
type Result struct {
	Errors   []string
	Warnings []string
}

func (r *Result) OK() bool {
	return len(r.Errors) == 0
}

// Analyzer walks a program with a scope chain and a shallow type model.
// It implements parser.StmtVisitor and parser.ExprVisitor; expression
// visits return the inferred type name.
type Analyzer struct {
	scope     *Scope
	structs   map[string]*parser.StructDecl
	loopDepth int
	result    *Result
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze runs a fresh analysis over prog. The program is not modified,
// so repeated runs give the same diagnostics.
func Analyze(prog *parser.Program) *Result {
	return NewAnalyzer().Analyze(prog)
}

// AnalyzeSemantics returns only the errors of Analyze.
func AnalyzeSemantics(prog *parser.Program) []string {
	return Analyze(prog).Errors
}

func (a *Analyzer) Analyze(prog *parser.Program) *Result {
	// Builtins live one level above the program scope, so user code may
	// shadow them.
	a.scope = NewScope(newRootScope())
	a.structs = make(map[string]*parser.StructDecl)
	a.loopDepth = 0
	a.result = &Result{}

	for _, imp := range prog.Imports {
		imp.Accept(a)
	}
	for _, fn := range prog.Functions {
		a.declareFunction(fn)
	}
	for _, stmt := range prog.Statements {
		stmt.Accept(a)
	}
	for _, fn := range prog.Functions {
		a.functionBody(fn, "")
	}
	for _, stmt := range prog.MainEntry {
		stmt.Accept(a)
	}
	return a.result
}

func (a *Analyzer) error(pos parser.Position, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	a.result.Errors = append(a.result.Errors, fmt.Sprintf("Semantic error at %d:%d: %s", pos.Line, pos.Column, msg))
}

func (a *Analyzer) warn(pos parser.Position, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	a.result.Warnings = append(a.result.Warnings, fmt.Sprintf("Warning at %d:%d: %s", pos.Line, pos.Column, msg))
}

func (a *Analyzer) enterScope() {
	a.scope = NewScope(a.scope)
}

func (a *Analyzer) exitScope() {
	if parent := a.scope.Parent(); parent != nil {
		a.scope = parent
	}
}

// scoped analyzes body in a child scope. bind runs first, inside the
// new scope.
func (a *Analyzer) scoped(body []parser.Stmt, bind func()) {
	a.enterScope()
	if bind != nil {
		bind()
	}
	for _, stmt := range body {
		stmt.Accept(a)
	}
	a.exitScope()
}

func (a *Analyzer) loop(body []parser.Stmt, bind func()) {
	a.loopDepth++
	a.scoped(body, bind)
	a.loopDepth--
}

func (a *Analyzer) expr(e parser.Expr) string {
	if e == nil {
		return "any"
	}
	if t, ok := e.Accept(a).(string); ok && t != "" {
		return t
	}
	return "any"
}

// ---- statements ----

func (a *Analyzer) VisitLetStmt(stmt *parser.LetStmt) interface{} {
	a.declare(&stmt.DeclStmt)
	return nil
}

func (a *Analyzer) VisitVarStmt(stmt *parser.VarStmt) interface{} {
	a.declare(&stmt.DeclStmt)
	return nil
}

func (a *Analyzer) declare(d *parser.DeclStmt) {
	if a.scope.ExistsInCurrent(d.Name) {
		a.error(d.Pos(), "Variable '%s' already defined", d.Name)
	}
	valueType := a.expr(d.Value)
	if d.Type != "" && !typesCompatible(d.Type, valueType) {
		a.error(d.Pos(), "Type mismatch: expected %s, got %s", d.Type, valueType)
	}
	typ := valueType
	if d.Type != "" {
		typ = normalizeType(d.Type)
	}
	a.scope.Define(&Symbol{Name: d.Name, Type: typ, Mutable: d.Mutable, Line: d.Line, Column: d.Column})
}

func (a *Analyzer) VisitFunctionDecl(stmt *parser.FunctionDecl) interface{} {
	a.declareFunction(stmt)
	a.functionBody(stmt, "")
	return nil
}

func (a *Analyzer) declareFunction(fn *parser.FunctionDecl) {
	if a.scope.ExistsInCurrent(fn.Name) {
		a.error(fn.Pos(), "Function '%s' already defined", fn.Name)
	}
	returns := "any"
	if fn.ReturnType != "" {
		returns = normalizeType(fn.ReturnType)
	}
	a.scope.Define(&Symbol{Name: fn.Name, Type: "fn", IsFunction: true, Returns: returns, Line: fn.Line, Column: fn.Column})
}

// functionBody analyzes parameters and body in a fresh scope. An untyped
// self parameter takes selfType.
func (a *Analyzer) functionBody(fn *parser.FunctionDecl, selfType string) {
	for _, p := range fn.Params {
		if p.Default != nil {
			a.expr(p.Default)
		}
	}
	saved := a.loopDepth
	a.loopDepth = 0
	a.scoped(fn.Body, func() {
		for _, p := range fn.Params {
			typ := "any"
			switch {
			case p.Type != "":
				typ = normalizeType(p.Type)
			case p.Name == "self" && selfType != "":
				typ = selfType
			}
			a.scope.Define(&Symbol{Name: p.Name, Type: typ, Mutable: p.Mode == "ref", Line: fn.Line, Column: fn.Column})
		}
	})
	a.loopDepth = saved
}

func (a *Analyzer) VisitStructDecl(stmt *parser.StructDecl) interface{} {
	if a.scope.ExistsInCurrent(stmt.Name) {
		a.error(stmt.Pos(), "Struct '%s' already defined", stmt.Name)
	}
	a.scope.Define(&Symbol{Name: stmt.Name, Type: "struct", Line: stmt.Line, Column: stmt.Column})
	a.structs[stmt.Name] = stmt

	a.enterScope()
	for _, m := range stmt.Methods {
		a.declareFunction(m)
		a.functionBody(m, stmt.Name)
	}
	a.exitScope()
	return nil
}

func (a *Analyzer) VisitEnumDecl(stmt *parser.EnumDecl) interface{} {
	if a.scope.ExistsInCurrent(stmt.Name) {
		a.error(stmt.Pos(), "Enum '%s' already defined", stmt.Name)
	}
	a.scope.Define(&Symbol{Name: stmt.Name, Type: "enum", Line: stmt.Line, Column: stmt.Column})
	return nil
}

func (a *Analyzer) VisitIfStmt(stmt *parser.IfStmt) interface{} {
	a.expr(stmt.Condition)
	a.scoped(stmt.Then, nil)
	for _, elif := range stmt.Elifs {
		a.expr(elif.Condition)
		a.scoped(elif.Body, nil)
	}
	if len(stmt.Else) > 0 {
		a.scoped(stmt.Else, nil)
	}
	return nil
}

func (a *Analyzer) VisitWhileStmt(stmt *parser.WhileStmt) interface{} {
	a.expr(stmt.Condition)
	a.loop(stmt.Body, nil)
	return nil
}

func (a *Analyzer) VisitForStmt(stmt *parser.ForStmt) interface{} {
	iterType := a.expr(stmt.Iterable)
	elemType := "any"
	if b, ok := parser.Unwrap(stmt.Iterable).(*parser.Binary); ok && b.Op == lexer.TokenRange {
		elemType = "int"
	} else if inner, ok := genericArg(iterType, "list", "set"); ok {
		elemType = inner
	} else if iterType == "str" {
		elemType = "str"
	}
	a.loop(stmt.Body, func() {
		a.scope.Define(&Symbol{Name: stmt.Variable, Type: elemType, Line: stmt.Line, Column: stmt.Column})
	})
	return nil
}

func (a *Analyzer) VisitLoopStmt(stmt *parser.LoopStmt) interface{} {
	a.loop(stmt.Body, nil)
	return nil
}

func (a *Analyzer) VisitMatchStmt(stmt *parser.MatchStmt) interface{} {
	scrutinee := a.expr(stmt.Scrutinee)
	for _, arm := range stmt.Arms {
		arm := arm
		a.scoped(arm.Body, func() { a.pattern(arm.Pattern, scrutinee) })
	}
	return nil
}

// pattern binds a bare unknown name to the scrutinee; anything else is
// analyzed as a value.
func (a *Analyzer) pattern(p parser.Expr, scrutinee string) {
	if id, ok := p.(*parser.Identifier); ok {
		if id.Name == "_" {
			return
		}
		if _, found := a.scope.Resolve(id.Name); !found {
			a.scope.Define(&Symbol{Name: id.Name, Type: scrutinee, Line: id.Line, Column: id.Column})
			return
		}
	}
	a.expr(p)
}

func (a *Analyzer) VisitBreakStmt(stmt *parser.BreakStmt) interface{} {
	if a.loopDepth == 0 {
		a.warn(stmt.Pos(), "'break' outside loop")
	}
	return nil
}

func (a *Analyzer) VisitContinueStmt(stmt *parser.ContinueStmt) interface{} {
	if a.loopDepth == 0 {
		a.warn(stmt.Pos(), "'continue' outside loop")
	}
	return nil
}

func (a *Analyzer) VisitReturnStmt(stmt *parser.ReturnStmt) interface{} {
	if stmt.Value != nil {
		a.expr(stmt.Value)
	}
	return nil
}

func (a *Analyzer) VisitTryStmt(stmt *parser.TryStmt) interface{} {
	a.scoped(stmt.Body, nil)
	if stmt.Catch != nil || stmt.CatchName != "" {
		a.scoped(stmt.Catch, func() {
			if stmt.CatchName != "" {
				a.scope.Define(&Symbol{Name: stmt.CatchName, Type: "any", Line: stmt.Line, Column: stmt.Column})
			}
		})
	}
	if len(stmt.Finally) > 0 {
		a.scoped(stmt.Finally, nil)
	}
	return nil
}

func (a *Analyzer) VisitExpressionStmt(stmt *parser.ExpressionStmt) interface{} {
	a.expr(stmt.Expr)
	return nil
}

func (a *Analyzer) VisitAssignmentStmt(stmt *parser.AssignmentStmt) interface{} {
	a.expr(stmt.Value)

	id, ok := parser.Unwrap(stmt.Target).(*parser.Identifier)
	if !ok {
		a.expr(stmt.Target)
		return nil
	}
	sym, found := a.scope.Resolve(id.Name)
	switch {
	case !found:
		a.error(stmt.Pos(), "Undefined variable '%s'", id.Name)
	case !sym.Mutable:
		a.error(stmt.Pos(), "Cannot assign to immutable variable '%s'", id.Name)
	}
	return nil
}

func (a *Analyzer) VisitImportStmt(stmt *parser.ImportStmt) interface{} {
	for _, mod := range stmt.Modules {
		if len(mod.Path) == 0 {
			a.error(stmt.Pos(), "Empty module path")
			continue
		}
		returns := "any"
		if len(mod.Path) > 1 && mod.Path[len(mod.Path)-1] == "math" {
			returns = "float"
		}
		// Imported names become callables; the last path segment becomes
		// a module handle for attribute access.
		for _, item := range mod.Items {
			if !a.scope.ExistsInCurrent(item) {
				defineBuiltin(a.scope, item, returns)
			}
		}
		name := strings.TrimPrefix(mod.Path[len(mod.Path)-1], "@")
		if !a.scope.ExistsInCurrent(name) {
			a.scope.Define(&Symbol{Name: name, Type: "module", Line: stmt.Line, Column: stmt.Column})
		}
	}
	return nil
}

func (a *Analyzer) VisitForeignCodeBlock(stmt *parser.ForeignCodeBlock) interface{} {
	switch stmt.Language {
	case "python", "rust", "js", "sql":
	default:
		a.warn(stmt.Pos(), "Unknown foreign language '%s'", stmt.Language)
	}
	return nil
}

func (a *Analyzer) VisitPassStmt(stmt *parser.PassStmt) interface{} {
	return nil
}

// ---- expressions ----

func (a *Analyzer) VisitLiteralExpr(expr *parser.Literal) interface{} {
	switch expr.Kind {
	case lexer.TokenInteger:
		return "int"
	case lexer.TokenFloat:
		return "float"
	case lexer.TokenString:
		return "str"
	case lexer.TokenTrue, lexer.TokenFalse:
		return "bool"
	}
	return "any"
}

func (a *Analyzer) VisitIdentifierExpr(expr *parser.Identifier) interface{} {
	if sym, ok := a.scope.Resolve(expr.Name); ok {
		return sym.Type
	}
	if strings.HasPrefix(expr.Name, "@") {
		if typ, ok := constructorType(expr.Name); ok {
			return typ
		}
	}
	a.error(expr.Pos(), "Undefined variable '%s'", expr.Name)
	return "any"
}

func (a *Analyzer) VisitBinaryExpr(expr *parser.Binary) interface{} {
	left := a.expr(expr.Left)
	right := a.expr(expr.Right)

	switch expr.Op {
	case lexer.TokenPlus, lexer.TokenMinus, lexer.TokenStar, lexer.TokenSlash, lexer.TokenPercent:
		if expr.Op == lexer.TokenPlus && (left == "str" || right == "str") {
			return "str"
		}
		if left == "int" && right == "int" {
			return "int"
		}
		if left == "float" || right == "float" {
			return "float"
		}
		return "any"
	case lexer.TokenPower:
		if isNumeric(left) && isNumeric(right) {
			return "float"
		}
		return "any"
	case lexer.TokenDoubleEqual, lexer.TokenNotEqual, lexer.TokenLT, lexer.TokenLE,
		lexer.TokenGT, lexer.TokenGE, lexer.TokenAnd, lexer.TokenOr:
		return "bool"
	case lexer.TokenRange:
		return "range"
	}
	return "any"
}

func (a *Analyzer) VisitUnaryExpr(expr *parser.Unary) interface{} {
	operand := a.expr(expr.Operand)
	if expr.Op == lexer.TokenNot {
		return "bool"
	}
	return operand
}

func (a *Analyzer) VisitCallExpr(expr *parser.Call) interface{} {
	a.expr(expr.Callee)
	for _, arg := range expr.Args {
		a.expr(arg)
	}
	for _, kw := range expr.KwArgs {
		a.expr(kw.Value)
	}

	switch callee := parser.Unwrap(expr.Callee).(type) {
	case *parser.Identifier:
		sym, ok := a.scope.Resolve(callee.Name)
		if !ok {
			return "any"
		}
		if sym.Type == "struct" {
			return callee.Name
		}
		if sym.IsFunction && sym.Returns != "" {
			return sym.Returns
		}
	case *parser.Attribute:
		objType := a.peekType(callee.Object)
		if decl, ok := a.structs[objType]; ok {
			for _, m := range decl.Methods {
				if m.Name == callee.Name && m.ReturnType != "" {
					return normalizeType(m.ReturnType)
				}
			}
		}
	}
	return "any"
}

// peekType infers the type of an identifier without reporting anything.
func (a *Analyzer) peekType(e parser.Expr) string {
	if id, ok := parser.Unwrap(e).(*parser.Identifier); ok {
		if sym, found := a.scope.Resolve(id.Name); found {
			return sym.Type
		}
	}
	return "any"
}

func (a *Analyzer) VisitIndexExpr(expr *parser.Index) interface{} {
	a.expr(expr.Object)
	a.expr(expr.Index)
	return "any"
}

func (a *Analyzer) VisitAttributeExpr(expr *parser.Attribute) interface{} {
	objType := a.expr(expr.Object)
	switch objType {
	case "enum":
		return "int"
	case "table":
		if expr.Name == "col_count" || expr.Name == "row_count" {
			return "int"
		}
	}
	if decl, ok := a.structs[objType]; ok {
		for _, f := range decl.Fields {
			if f.Name == expr.Name && f.Type != "" {
				return normalizeType(f.Type)
			}
		}
	}
	return "any"
}

func (a *Analyzer) elements(elems []parser.Expr) {
	for _, e := range elems {
		a.expr(e)
	}
}

func (a *Analyzer) VisitListExpr(expr *parser.ListExpr) interface{} {
	a.elements(expr.Elements)
	return "list"
}

func (a *Analyzer) VisitTupleExpr(expr *parser.TupleExpr) interface{} {
	a.elements(expr.Elements)
	return "tuple"
}

func (a *Analyzer) VisitSetExpr(expr *parser.SetExpr) interface{} {
	a.elements(expr.Elements)
	return "set"
}

func (a *Analyzer) VisitDictExpr(expr *parser.DictExpr) interface{} {
	for _, pair := range expr.Pairs {
		a.expr(pair.Key)
		a.expr(pair.Value)
	}
	return "dict"
}

func (a *Analyzer) VisitLambdaExpr(expr *parser.Lambda) interface{} {
	a.enterScope()
	for _, p := range expr.Params {
		a.scope.Define(&Symbol{Name: p, Type: "any", Line: expr.Line, Column: expr.Column})
	}
	a.expr(expr.Body)
	a.exitScope()
	return "fn"
}

func (a *Analyzer) VisitMatchExpr(expr *parser.MatchExpr) interface{} {
	scrutinee := a.expr(expr.Scrutinee)
	for _, c := range expr.Cases {
		a.enterScope()
		a.pattern(c.Pattern, scrutinee)
		a.expr(c.Body)
		a.exitScope()
	}
	return "any"
}

func (a *Analyzer) VisitTypeConstructorExpr(expr *parser.TypeConstructor) interface{} {
	a.expr(expr.Arg)
	if typ, ok := constructorType(expr.TypeName); ok {
		return typ
	}
	return expr.TypeName
}

func (a *Analyzer) VisitAwaitExpr(expr *parser.Await) interface{} {
	return a.expr(expr.Inner)
}

func (a *Analyzer) VisitTableExpr(expr *parser.Table) interface{} {
	for _, row := range expr.Rows {
		if len(row.Values) != len(expr.Columns) {
			a.error(expr.Pos(), "Row '%s' has %d values, expected %d (columns)", row.Name, len(row.Values), len(expr.Columns))
		}
		a.elements(row.Values)
	}
	return "table"
}

func (a *Analyzer) VisitDataFrameExpr(expr *parser.DataFrame) interface{} {
	return "frame"
}

func (a *Analyzer) VisitGroupedExpr(expr *parser.Grouped) interface{} {
	return a.expr(expr.Inner)
}

// ---- types ----

func isNumeric(t string) bool {
	return t == "int" || t == "float" || t == "any"
}

func normalizeType(t string) string {
	switch t {
	case "flt":
		return "float"
	case "string":
		return "str"
	case "tabl":
		return "table"
	}
	return t
}

// genericArg extracts T from base<T> for any of the given bases.
func genericArg(t string, bases ...string) (string, bool) {
	for _, base := range bases {
		if strings.HasPrefix(t, base+"<") && strings.HasSuffix(t, ">") {
			return normalizeType(t[len(base)+1 : len(t)-1]), true
		}
	}
	return "", false
}

func typesCompatible(expected, actual string) bool {
	expected, actual = normalizeType(expected), normalizeType(actual)
	switch {
	case expected == actual:
		return true
	case expected == "any" || actual == "any":
		return true
	case expected == "float" && actual == "int":
		return true
	case expected == "str" && (actual == "int" || actual == "float"):
		return true
	case expected == "bool" && actual == "str":
		return true
	case strings.HasPrefix(expected, actual+"<"):
		// list<int> accepts a plain list literal.
		return true
	}
	return false
}
