package formatter

import (
	"strings"

	"gul/internal/lexer"
	"gul/internal/parser"
)

type Formatter struct {
	indent    int
	indentStr string
	output    strings.Builder
	lineBreak string
}

func NewFormatter() *Formatter {
	return &Formatter{
		indent:    0,
		indentStr: "    ", // 4 spaces
		lineBreak: "\n",
	}
}

// Source parses src and renders it in canonical layout. Parse errors are
// returned instead of a partial rendering.
func Source(src, file string) (string, []error) {
	p := parser.NewParserWithSource(lexer.Tokenize(src), src, file)
	prog := p.Parse()
	if len(p.Errors) > 0 {
		return "", p.Errors
	}
	return NewFormatter().Format(prog), nil
}

// Format renders imports, then top-level declarations, then functions and
// finally the mn block.
func (f *Formatter) Format(prog *parser.Program) string {
	f.output.Reset()
	f.indent = 0

	var stmts []parser.Stmt
	for _, imp := range prog.Imports {
		stmts = append(stmts, imp)
	}
	stmts = append(stmts, prog.Statements...)
	for _, fn := range prog.Functions {
		stmts = append(stmts, fn)
	}

	for i, stmt := range stmts {
		f.formatStmt(stmt)
		if i < len(stmts)-1 && f.needsBlankLine(stmt, stmts[i+1]) {
			f.output.WriteString(f.lineBreak)
		}
	}

	if len(prog.MainEntry) > 0 {
		if len(stmts) > 0 {
			f.output.WriteString(f.lineBreak)
		}
		f.output.WriteString("mn:")
		f.body(prog.MainEntry)
	}

	return f.output.String()
}

func (f *Formatter) needsBlankLine(curr, next parser.Stmt) bool {
	if isDecl(curr) || isDecl(next) {
		return true
	}

	// Add blank line between imports and other code
	_, currIsImport := curr.(*parser.ImportStmt)
	_, nextIsImport := next.(*parser.ImportStmt)
	return currIsImport && !nextIsImport
}

func isDecl(s parser.Stmt) bool {
	switch s.(type) {
	case *parser.FunctionDecl, *parser.StructDecl, *parser.EnumDecl:
		return true
	}
	return false
}

func (f *Formatter) writeIndent() {
	for i := 0; i < f.indent; i++ {
		f.output.WriteString(f.indentStr)
	}
}

func (f *Formatter) write(parts ...string) {
	for _, p := range parts {
		f.output.WriteString(p)
	}
}

// body ends the current header line and writes stmts one level deeper.
func (f *Formatter) body(stmts []parser.Stmt) {
	f.output.WriteString(f.lineBreak)
	f.indent++
	if len(stmts) == 0 {
		f.writeIndent()
		f.write("pass", f.lineBreak)
	}
	for _, s := range stmts {
		f.formatStmt(s)
	}
	f.indent--
}

func (f *Formatter) formatStmt(stmt parser.Stmt) {
	if stmt == nil {
		return
	}

	switch s := stmt.(type) {
	case *parser.LetStmt:
		f.writeIndent()
		f.formatDecl("let", s.DeclStmt)

	case *parser.VarStmt:
		f.writeIndent()
		f.formatDecl("var", s.DeclStmt)

	case *parser.FunctionDecl:
		f.formatFunction(s)

	case *parser.StructDecl:
		f.writeIndent()
		f.write("struct ", s.Name, ":", f.lineBreak)
		f.indent++
		if len(s.Fields) == 0 && len(s.Methods) == 0 {
			f.writeIndent()
			f.write("pass", f.lineBreak)
		}
		for _, field := range s.Fields {
			f.writeIndent()
			f.write(field.Name, ": ", typeText(field.Type), f.lineBreak)
		}
		for _, m := range s.Methods {
			f.formatFunction(m)
		}
		f.indent--

	case *parser.EnumDecl:
		f.writeIndent()
		f.write("enum ", s.Name, ":", f.lineBreak)
		f.indent++
		for _, v := range s.Variants {
			f.writeIndent()
			f.write(v, f.lineBreak)
		}
		f.indent--

	case *parser.IfStmt:
		f.writeIndent()
		f.write("if ")
		f.formatExpr(s.Condition)
		f.write(":")
		f.body(s.Then)
		for _, elif := range s.Elifs {
			f.writeIndent()
			f.write("elif ")
			f.formatExpr(elif.Condition)
			f.write(":")
			f.body(elif.Body)
		}
		if s.Else != nil {
			f.writeIndent()
			f.write("else:")
			f.body(s.Else)
		}

	case *parser.WhileStmt:
		f.writeIndent()
		f.write("while ")
		f.formatExpr(s.Condition)
		f.write(":")
		f.body(s.Body)

	case *parser.ForStmt:
		f.writeIndent()
		if s.Parallel {
			f.write("@parallel ")
		}
		f.write("for ", s.Variable, " in ")
		f.formatExpr(s.Iterable)
		f.write(":")
		f.body(s.Body)

	case *parser.LoopStmt:
		f.writeIndent()
		f.write("loop:")
		f.body(s.Body)

	case *parser.MatchStmt:
		f.writeIndent()
		f.write("match ")
		f.formatExpr(s.Scrutinee)
		f.write(":", f.lineBreak)
		f.indent++
		for _, arm := range s.Arms {
			f.writeIndent()
			f.formatExpr(arm.Pattern)
			f.write(" =>:")
			f.body(arm.Body)
		}
		f.indent--

	case *parser.BreakStmt:
		f.writeIndent()
		f.write("break", f.lineBreak)

	case *parser.ContinueStmt:
		f.writeIndent()
		f.write("continue", f.lineBreak)

	case *parser.PassStmt:
		f.writeIndent()
		f.write("pass", f.lineBreak)

	case *parser.ReturnStmt:
		f.writeIndent()
		f.write("return")
		if s.Value != nil {
			f.write(" ")
			f.formatExpr(s.Value)
		}
		f.write(f.lineBreak)

	case *parser.TryStmt:
		f.writeIndent()
		f.write("try:")
		f.body(s.Body)
		if s.Catch != nil || s.CatchName != "" {
			f.writeIndent()
			f.write("catch")
			if s.CatchName != "" {
				f.write(" ", s.CatchName)
			}
			f.write(":")
			f.body(s.Catch)
		}
		if s.Finally != nil {
			f.writeIndent()
			f.write("finally:")
			f.body(s.Finally)
		}

	case *parser.ExpressionStmt:
		f.writeIndent()
		f.formatExpr(s.Expr)
		f.write(f.lineBreak)

	case *parser.AssignmentStmt:
		f.writeIndent()
		f.formatExpr(s.Target)
		f.write(" ", string(s.Op), " ")
		f.formatExpr(s.Value)
		f.write(f.lineBreak)

	case *parser.ImportStmt:
		f.writeIndent()
		f.write("@imp ")
		if len(s.Modules) == 1 {
			f.formatImport(s.Modules[0])
		} else {
			f.write("(")
			for i, m := range s.Modules {
				if i > 0 {
					f.write(", ")
				}
				f.formatImport(m)
			}
			f.write(")")
		}
		f.write(f.lineBreak)

	case *parser.ForeignCodeBlock:
		f.writeIndent()
		f.write("@", s.Language, ":", f.lineBreak)
		for _, line := range strings.Split(s.Code, "\n") {
			if line == "" {
				continue
			}
			f.writeIndent()
			f.write(f.indentStr, line, f.lineBreak)
		}
	}
}

func (f *Formatter) formatDecl(kw string, d parser.DeclStmt) {
	f.write(kw, " ", d.Name)
	if d.Type != "" {
		f.write(": ", typeText(d.Type))
	}
	f.write(" = ")
	f.formatExpr(d.Value)
	f.write(f.lineBreak)
}

func (f *Formatter) formatFunction(fn *parser.FunctionDecl) {
	f.writeIndent()
	if fn.Async {
		f.write("async ")
	}
	f.write("fn ", fn.Name, "(")
	for i, p := range fn.Params {
		if i > 0 {
			f.write(", ")
		}
		f.write(p.Name)
		if p.Type != "" {
			f.write(": ")
			if p.Mode != "" {
				f.write(p.Mode, " ")
			}
			f.write(typeText(p.Type))
		}
		if p.Default != nil {
			f.write(" = ")
			f.formatExpr(p.Default)
		}
	}
	f.write(")")
	if fn.ReturnType != "" {
		f.write(" -> ", typeText(fn.ReturnType))
	}
	f.write(":")
	f.body(fn.Body)
}

func (f *Formatter) formatImport(spec parser.ImportSpec) {
	f.write(strings.Join(spec.Path, "."))
	if len(spec.Items) > 0 {
		f.write("{", strings.Join(spec.Items, ", "), "}")
	}
}

// typeText turns the parser's list<int> back into source form list[int].
func typeText(t string) string {
	r := strings.NewReplacer("<", "[", ">", "]", ",", ", ")
	return r.Replace(t)
}

var wordOps = map[lexer.TokenType]string{
	lexer.TokenAnd: "and",
	lexer.TokenOr:  "or",
	lexer.TokenNot: "not",
}

func opText(op lexer.TokenType) string {
	if w, ok := wordOps[op]; ok {
		return w
	}
	return string(op)
}

func (f *Formatter) formatExprs(exprs []parser.Expr) {
	for i, e := range exprs {
		if i > 0 {
			f.write(", ")
		}
		f.formatExpr(e)
	}
}

func (f *Formatter) formatExpr(expr parser.Expr) {
	if expr == nil {
		return
	}

	switch e := expr.(type) {
	case *parser.Literal:
		switch e.Kind {
		case lexer.TokenString:
			f.write(quote(e.Value))
		default:
			f.write(e.Value)
		}

	case *parser.Identifier:
		f.write(e.Name)

	case *parser.Binary:
		f.formatExpr(e.Left)
		if e.Op == lexer.TokenRange {
			f.write("..")
		} else {
			f.write(" ", opText(e.Op), " ")
		}
		f.formatExpr(e.Right)

	case *parser.Unary:
		f.write(opText(e.Op))
		if e.Op == lexer.TokenNot {
			f.write(" ")
		}
		f.formatExpr(e.Operand)

	case *parser.Call:
		f.formatExpr(e.Callee)
		f.write("(")
		f.formatExprs(e.Args)
		for i, kw := range e.KwArgs {
			if i > 0 || len(e.Args) > 0 {
				f.write(", ")
			}
			f.write(kw.Name, "=")
			f.formatExpr(kw.Value)
		}
		f.write(")")

	case *parser.Index:
		f.formatExpr(e.Object)
		f.write("[")
		f.formatExpr(e.Index)
		f.write("]")

	case *parser.Attribute:
		f.formatExpr(e.Object)
		f.write(".", e.Name)

	case *parser.ListExpr:
		f.write("[")
		f.formatExprs(e.Elements)
		f.write("]")

	case *parser.TupleExpr:
		f.write("(")
		f.formatExprs(e.Elements)
		if len(e.Elements) == 1 {
			f.write(",")
		}
		f.write(")")

	case *parser.SetExpr:
		if len(e.Elements) == 0 {
			f.write("@set{}")
			return
		}
		f.write("{")
		f.formatExprs(e.Elements)
		f.write("}")

	case *parser.DictExpr:
		f.write("{")
		for i, pair := range e.Pairs {
			if i > 0 {
				f.write(", ")
			}
			f.formatExpr(pair.Key)
			f.write(": ")
			f.formatExpr(pair.Value)
		}
		f.write("}")

	case *parser.Lambda:
		f.write("fn(", strings.Join(e.Params, ", "), ") => ")
		f.formatExpr(e.Body)

	case *parser.MatchExpr:
		f.write("match ")
		if simple(e.Scrutinee) {
			f.formatExpr(e.Scrutinee)
		} else {
			f.write("(")
			f.formatExpr(e.Scrutinee)
			f.write(")")
		}
		f.write(" {")
		for i, c := range e.Cases {
			if i > 0 {
				f.write(",")
			}
			f.write(" ")
			f.formatExpr(c.Pattern)
			f.write(" => ")
			f.formatExpr(c.Body)
		}
		f.write(" }")

	case *parser.TypeConstructor:
		f.write("@", e.TypeName, "(")
		f.formatExpr(e.Arg)
		f.write(")")

	case *parser.Await:
		f.write("await ")
		f.formatExpr(e.Inner)

	case *parser.Table:
		f.write("@tabl ")
		if e.Sparse {
			f.write("sparse ")
		}
		f.write("{(")
		for i, c := range e.Columns {
			if i > 0 {
				f.write(", ")
			}
			f.write(name(c))
		}
		f.write("):")
		for i, row := range e.Rows {
			if i > 0 {
				f.write(",")
			}
			f.write(" ", name(row.Name), ": {")
			f.formatExprs(row.Values)
			f.write("}")
		}
		f.write("}")

	case *parser.DataFrame:
		f.write("@frame {columns: (")
		for i, c := range e.Columns {
			if i > 0 {
				f.write(", ")
			}
			f.write(quote(c))
		}
		if len(e.Columns) == 1 {
			f.write(",")
		}
		f.write(")}")

	case *parser.Grouped:
		f.write("(")
		f.formatExpr(e.Inner)
		f.write(")")
	}
}

// simple reports whether e binds at least as tightly as a call.
func simple(e parser.Expr) bool {
	switch e.(type) {
	case *parser.Literal, *parser.Identifier, *parser.Call, *parser.Index,
		*parser.Attribute, *parser.Grouped, *parser.ListExpr, *parser.TupleExpr:
		return true
	}
	return false
}

func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`, "\r", `\r`)
	return `"` + r.Replace(s) + `"`
}

// name writes identifiers bare and anything else quoted.
func name(s string) string {
	if s == "" {
		return `""`
	}
	for i, c := range s {
		if c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || i > 0 && c >= '0' && c <= '9' {
			continue
		}
		return quote(s)
	}
	return s
}
