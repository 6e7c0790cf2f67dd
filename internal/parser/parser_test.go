package parser

import (
	"fmt"
	"strings"
	"testing"

	"gul/internal/lexer"

	"github.com/kr/pretty"
	"github.com/nalgeon/be"
)

func parseString(input string) (*Program, []error) {
	p := NewParser(lexer.Tokenize(input))
	prog := p.Parse()
	return prog, p.Errors
}

func mustParse(t *testing.T, input string) *Program {
	t.Helper()
	prog, errs := parseString(input)
	if len(errs) > 0 {
		t.Fatalf("parse %q: %v", input, errs)
	}
	return prog
}

// sexpr renders an expression as a parenthesized prefix form so tests can
// compare shapes without positions.
func sexpr(e Expr) string {
	switch v := e.(type) {
	case nil:
		return "<nil>"
	case *Literal:
		if v.Kind == lexer.TokenString {
			return fmt.Sprintf("%q", v.Value)
		}
		return v.Value
	case *Identifier:
		return v.Name
	case *Binary:
		return fmt.Sprintf("(%s %s %s)", v.Op, sexpr(v.Left), sexpr(v.Right))
	case *Unary:
		return fmt.Sprintf("(%s %s)", v.Op, sexpr(v.Operand))
	case *Grouped:
		return sexpr(v.Inner)
	case *Call:
		parts := []string{"call", sexpr(v.Callee)}
		for _, a := range v.Args {
			parts = append(parts, sexpr(a))
		}
		for _, kw := range v.KwArgs {
			parts = append(parts, kw.Name+"="+sexpr(kw.Value))
		}
		return "(" + strings.Join(parts, " ") + ")"
	case *Index:
		return fmt.Sprintf("(index %s %s)", sexpr(v.Object), sexpr(v.Index))
	case *Attribute:
		return fmt.Sprintf("(. %s %s)", sexpr(v.Object), v.Name)
	case *ListExpr:
		return "[" + joinExprs(v.Elements) + "]"
	case *TupleExpr:
		return "(tuple " + joinExprs(v.Elements) + ")"
	case *SetExpr:
		return "(set " + joinExprs(v.Elements) + ")"
	case *DictExpr:
		var parts []string
		for _, pair := range v.Pairs {
			parts = append(parts, sexpr(pair.Key)+":"+sexpr(pair.Value))
		}
		return "{" + strings.Join(parts, " ") + "}"
	case *TypeConstructor:
		return fmt.Sprintf("(@%s %s)", v.TypeName, sexpr(v.Arg))
	case *Await:
		return "(await " + sexpr(v.Inner) + ")"
	case *Lambda:
		return fmt.Sprintf("(fn [%s] %s)", strings.Join(v.Params, " "), sexpr(v.Body))
	}
	return fmt.Sprintf("<%T>", e)
}

func joinExprs(es []Expr) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = sexpr(e)
	}
	return strings.Join(parts, " ")
}

func exprOf(t *testing.T, input string) Expr {
	t.Helper()
	prog := mustParse(t, input)
	if len(prog.Statements) != 1 {
		t.Fatalf("want 1 statement, got %d", len(prog.Statements))
	}
	stmt, ok := prog.Statements[0].(*ExpressionStmt)
	if !ok {
		t.Fatalf("want *ExpressionStmt, got %T", prog.Statements[0])
	}
	return stmt.Expr
}

func TestLetStatementTree(t *testing.T) {
	prog := mustParse(t, "let x = 5")
	want := []Stmt{
		&LetStmt{DeclStmt{
			Position: Position{Line: 1, Column: 1},
			Name:     "x",
			Value:    &Literal{Position: Position{Line: 1, Column: 9}, Value: "5", Kind: lexer.TokenInteger},
		}},
	}
	if diff := pretty.Diff(prog.Statements, want); len(diff) > 0 {
		t.Errorf("tree mismatch:\n%s", strings.Join(diff, "\n"))
	}
}

func TestExpressionPrecedence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"factor binds tighter", "1 + 2 * 3", "(+ 1 (* 2 3))"},
		{"left associative", "10 - 4 - 3", "(- (- 10 4) 3)"},
		{"grouping", "(1 + 2) * 3", "(* (+ 1 2) 3)"},
		{"power right associative", "2 ** 3 ** 2", "(** 2 (** 3 2))"},
		{"power over unary operand", "-x ** 2", "(- (** x 2))"},
		{"unary minus before factor", "-a * b", "(* (- a) b)"},
		{"comparison below term", "a + 1 < b", "(< (+ a 1) b)"},
		{"and over or", "a or b and c", "(OR a (AND b c))"},
		{"not", "not a == b", "(NOT (== a b))"},
		{"range", "0..n + 1", "(+ (.. 0 n) 1)"},
		{"modulo", "a % 2 == 0", "(== (% a 2) 0)"},
		{"call and index", "f(x)[0]", "(index (call f x) 0)"},
		{"method call", "p.shift(1, 2)", "(call (. p shift) 1 2)"},
		{"attribute chain", "a.b.c", "(. (. a b) c)"},
		{"keyword arguments", "plot(xs, color=\"red\")", "(call plot xs color=\"red\")"},
		{"pipeline desugars", "x |> f(1)", "(call f x 1)"},
		{"pipeline to bare name", "x |> g", "(call g x)"},
		{"pipeline chain", "x |> f |> g", "(call g (call f x))"},
		{"await", "await fetch(u)", "(await (call fetch u))"},
		{"type constructor", "@int(\"42\")", "(@int \"42\")"},
		{"flt alias", "@flt(x)", "(@float x)"},
		{"lambda", "fn(a, b) => a + b", "(fn [a b] (+ a b))"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			be.Equal(t, sexpr(exprOf(t, test.input)), test.want)
		})
	}
}

func TestCollectionLiterals(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"list", "[1, 2, 3]", "[1 2 3]"},
		{"empty list", "[]", "[]"},
		{"trailing comma", "[1, 2,]", "[1 2]"},
		{"list across lines", "[\n    1,\n    2\n]", "[1 2]"},
		{"typed list", "@list[1, 2]", "[1 2]"},
		{"dict", "{\"a\": 1, \"b\": 2}", "{\"a\":1 \"b\":2}"},
		{"empty braces are a dict", "{}", "{}"},
		{"typed dict with bare keys", "@dict{name: \"x\", age: 3}", "{\"name\":\"x\" \"age\":3}"},
		{"set", "{1, 2}", "(set 1 2)"},
		{"typed set", "@set{1, 2}", "(set 1 2)"},
		{"tuple", "(1, 2)", "(tuple 1 2)"},
		{"empty tuple", "()", "(tuple )"},
		{"nested", "[[1], {\"k\": [2]}]", "[[1] {\"k\":[2]}]"},
		{"call across lines", "f(\n    1,\n    2\n)", "(call f 1 2)"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			be.Equal(t, sexpr(exprOf(t, test.input)), test.want)
		})
	}
}

func TestFunctionDeclarations(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		params     []string
		returnType string
		async      bool
		bodyLen    int
	}{
		{"plain", "fn add(a, b):\n    return a + b\n", []string{"a", "b"}, "", false, 1},
		{"arrow return", "fn add(a: int, b: int) -> int:\n    let c = a + b\n    return c\n", []string{"a", "b"}, "int", false, 2},
		{"leading return type", "fn @int square(x):\n    return x * x\n", []string{"x"}, "int", false, 1},
		{"async", "async fn fetch(url):\n    return url\n", []string{"url"}, "", true, 1},
		{"single line body", "fn id(x): return x\n", []string{"x"}, "", false, 1},
		{"ownership modes", "fn f(a: borrow int, b: move list):\n    pass\n", []string{"a", "b"}, "", false, 1},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			prog := mustParse(t, test.input)
			be.Equal(t, len(prog.Functions), 1)
			fn := prog.Functions[0]
			var names []string
			for _, p := range fn.Params {
				names = append(names, p.Name)
			}
			be.Equal(t, names, test.params)
			be.Equal(t, fn.ReturnType, test.returnType)
			be.Equal(t, fn.Async, test.async)
			be.Equal(t, len(fn.Body), test.bodyLen)
		})
	}
}

func TestParamModesAndDefaults(t *testing.T) {
	prog := mustParse(t, "fn f(a: borrow int, b = 3):\n    pass\n")
	params := prog.Functions[0].Params
	be.Equal(t, params[0].Mode, "borrow")
	be.Equal(t, params[0].Type, "int")
	be.Equal(t, sexpr(params[1].Default), "3")
}

func TestMainEntryAndRouting(t *testing.T) {
	src := `@imp std.math{sin, cos}

fn helper(x):
    return x

let g = 1

mn:
    print(helper(g))
    print(2)
`
	prog := mustParse(t, src)
	be.Equal(t, len(prog.Imports), 1)
	be.Equal(t, prog.Imports[0].Modules[0].Path, []string{"std", "math"})
	be.Equal(t, prog.Imports[0].Modules[0].Items, []string{"sin", "cos"})
	be.Equal(t, len(prog.Functions), 1)
	be.Equal(t, len(prog.Statements), 1)
	be.Equal(t, len(prog.MainEntry), 2)
}

func TestImportShapes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  [][]string
	}{
		{"single", "@imp std.io", [][]string{{"std", "io"}}},
		{"keyword form", "import std.io", [][]string{{"std", "io"}}},
		{"block", "@imp:\n    std.io\n    std.math\n", [][]string{{"std", "io"}, {"std", "math"}}},
		{"grouped", "@imp (std.io, std.math)", [][]string{{"std", "io"}, {"std", "math"}}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			prog := mustParse(t, test.input)
			be.Equal(t, len(prog.Imports), 1)
			var got [][]string
			for _, m := range prog.Imports[0].Modules {
				got = append(got, m.Path)
			}
			be.Equal(t, got, test.want)
		})
	}
}

func TestControlFlow(t *testing.T) {
	src := `mn:
    var i = 0
    while i < 3:
        i += 1
        if i == 2:
            continue
        elif i > 5:
            break
        else:
            print(i)
    for x in 0..3:
        print(x)
    loop:
        break
`
	prog := mustParse(t, src)
	body := prog.MainEntry
	be.Equal(t, len(body), 4)

	w, ok := body[1].(*WhileStmt)
	be.True(t, ok)
	be.Equal(t, sexpr(w.Condition), "(< i 3)")
	be.Equal(t, len(w.Body), 2)

	assign, ok := w.Body[0].(*AssignmentStmt)
	be.True(t, ok)
	be.Equal(t, assign.Op, lexer.TokenPlusEqual)

	ifs, ok := w.Body[1].(*IfStmt)
	be.True(t, ok)
	be.Equal(t, len(ifs.Elifs), 1)
	be.Equal(t, len(ifs.Else), 1)

	f, ok := body[2].(*ForStmt)
	be.True(t, ok)
	be.Equal(t, f.Variable, "x")
	be.Equal(t, sexpr(f.Iterable), "(.. 0 3)")

	_, ok = body[3].(*LoopStmt)
	be.True(t, ok)
}

func TestStructAndEnum(t *testing.T) {
	src := `struct Point:
    x: int
    y: @flt
    fn norm(self):
        return self.x

enum Color:
    Red
    Green
    Blue
`
	prog := mustParse(t, src)
	be.Equal(t, len(prog.Statements), 2)

	s := prog.Statements[0].(*StructDecl)
	be.Equal(t, s.Name, "Point")
	be.Equal(t, len(s.Fields), 2)
	be.Equal(t, s.Fields[1].Type, "float")
	be.Equal(t, len(s.Methods), 1)
	be.Equal(t, s.Methods[0].Name, "norm")

	e := prog.Statements[1].(*EnumDecl)
	be.Equal(t, e.Variants, []string{"Red", "Green", "Blue"})
}

func TestTryAndMatch(t *testing.T) {
	src := `try:
    risky()
catch err:
    print(err)
finally:
    print("done")

match code:
    0 => print("ok")
    _ => :
        print("other")
`
	prog := mustParse(t, src)
	be.Equal(t, len(prog.Statements), 2)

	tr := prog.Statements[0].(*TryStmt)
	be.Equal(t, tr.CatchName, "err")
	be.Equal(t, len(tr.Body), 1)
	be.Equal(t, len(tr.Catch), 1)
	be.Equal(t, len(tr.Finally), 1)

	m := prog.Statements[1].(*MatchStmt)
	be.Equal(t, len(m.Arms), 2)
	be.Equal(t, sexpr(m.Arms[1].Pattern), "_")
	be.Equal(t, len(m.Arms[1].Body), 1)
}

func TestForeignBlock(t *testing.T) {
	src := "@python:\n    def f(x):\n        return x\n\nprint(1)\n"
	prog := mustParse(t, src)
	be.Equal(t, len(prog.Statements), 2)
	fb := prog.Statements[0].(*ForeignCodeBlock)
	be.Equal(t, fb.Language, "python")
	be.Equal(t, fb.Code, "def f ( x ) :\n    return x")
}

func TestTableLiteral(t *testing.T) {
	src := "let t = @tabl {\n    (a, b): r1: {1, 2}, r2: {3, 4}\n}\n"
	prog := mustParse(t, src)
	tbl := prog.Statements[0].(*LetStmt).Value.(*Table)
	be.Equal(t, tbl.Columns, []string{"a", "b"})
	be.Equal(t, len(tbl.Rows), 2)
	be.Equal(t, tbl.Rows[1].Name, "r2")
	be.Equal(t, joinExprs(tbl.Rows[1].Values), "3 4")
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"missing colon", "fn f()\n    return 1\n", "Expected ':' before function body"},
		{"invalid assignment target", "1 = 2", "Invalid assignment target"},
		{"unclosed call", "f(1, 2", "Expected ')' after arguments"},
		{"nested main", "fn f():\n    mn:\n        pass\n", "'mn' block is only allowed at top level"},
		{"stray operator", "let x = *", "Unexpected token '*'"},
		{"lexer error", "let x = $", "unexpected character '$'"},
		{"unterminated string", "let s = \"abc", "LexError: unterminated string"},
		{"inconsistent dedent", "mn:\n    if true:\n        pass\n      pass\n", "LexError: inconsistent indentation: column 6 matches no enclosing block"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, errs := parseString(test.input)
			if len(errs) == 0 {
				t.Fatalf("expected errors for %q", test.input)
			}
			var msgs []string
			for _, err := range errs {
				msgs = append(msgs, err.Error())
			}
			be.True(t, strings.Contains(strings.Join(msgs, "\n"), test.want))
			be.True(t, !strings.Contains(strings.Join(msgs, "\n"), "unexpected character '"+test.want))
		})
	}
}

func TestParseAlwaysTerminates(t *testing.T) {
	inputs := []string{
		")))",
		"fn",
		"let = = =",
		"@tabl {",
		"if x:\n",
		"match x:\n    =>",
		"struct S:\n    1 2 3\n",
		"@dict{1 2}",
		"\t\t\tx\n  y\n",
	}
	for _, input := range inputs {
		prog, _ := parseString(input)
		be.True(t, prog != nil)
	}
}

func TestPositionsFollowSource(t *testing.T) {
	prog := mustParse(t, "let a = 1\nlet b = 2\n\nprint(a + b)\n")
	last := Position{}
	for _, stmt := range prog.Statements {
		pos := stmt.Pos()
		be.True(t, pos.Line > last.Line)
		last = pos
	}
	call := prog.Statements[2].(*ExpressionStmt).Expr.(*Call)
	be.Equal(t, call.Pos(), Position{Line: 4, Column: 1})
	be.Equal(t, call.Args[0].Pos(), Position{Line: 4, Column: 7})
}
