package codegen

import (
	"strings"
	"testing"

	gulerrors "gul/internal/errors"
	"gul/internal/lexer"
	"gul/internal/parser"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"github.com/nalgeon/be"
)

func parse(t *testing.T, src string) *parser.Program {
	t.Helper()
	p := parser.NewParser(lexer.Tokenize(src))
	prog := p.Parse()
	if len(p.Errors) > 0 {
		t.Fatalf("parse errors: %v", p.Errors)
	}
	return prog
}

func emit(t *testing.T, src string) (*Generator, string) {
	t.Helper()
	g := NewGenerator()
	m, err := g.Generate(parse(t, src))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return g, m.String()
}

func TestEmittedIR(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			"hello world",
			"mn:\n    print(\"Hello, World!\")\n",
			[]string{`source_filename = "gul_program"`, `c"Hello, World!\00"`, `@fmt_str`, `@printf(`, `define i32 @main()`, `ret i32 0`},
		},
		{
			"integer arithmetic",
			"mn:\n    let x = 2 + 3 * 4\n    print(x)\n",
			[]string{"mul i64", "add i64", "alloca i64", "@fmt_int"},
		},
		{
			"range loop",
			"mn:\n    for i in 0..3:\n        print(i)\n",
			[]string{"icmp slt i64", "for.cond.", "for.step.", "for.end."},
		},
		{
			"typed function",
			"fn add(a: int, b: int) -> int:\n    return a + b\n\nmn:\n    print(add(40, 2))\n",
			[]string{"define i64 @add(i64 %a, i64 %b)", "call i64 @add(i64 40, i64 2)"},
		},
		{
			"list literal",
			"mn:\n    let xs = [10, 20, 30]\n    print(len(xs))\n    print(xs[1])\n",
			[]string{"@gul_list_alloc(i64 8)", "@gul_list_push(", "@gul_list_len(", "@gul_list_get("},
		},
		{
			"struct fields",
			"struct Point:\n    x: int\n    y: int\n\nmn:\n    let p = Point(3, 4)\n    print(p.y)\n",
			[]string{"@gul_malloc(i64 16)", "inttoptr", "add i64 %", ", 8"},
		},
		{
			"struct method",
			"struct C:\n    n: int\n    fn get(self) -> int:\n        return self.n\n\nmn:\n    let c = C(5)\n    print(c.get())\n",
			[]string{"define i64 @C_get(i64 %self)", "call i64 @C_get("},
		},
		{
			"user main is renamed",
			"fn main():\n    print(1)\n",
			[]string{"define i64 @gul_user_main()", "call i64 @gul_user_main()"},
		},
		{
			"float printing",
			"mn:\n    let f = 1.5\n    print(f * 2)\n",
			[]string{"alloca double", "fmul double", "@gul_print_float(double"},
		},
		{
			"string concat boxes numbers",
			"mn:\n    let s = \"n=\" + 4\n    print(s)\n",
			[]string{"@gul_int_to_string(i64 4)", "@gul_string_concat("},
		},
		{
			"string equality",
			"mn:\n    let a = \"x\"\n    if a == \"x\":\n        print(1)\n",
			[]string{"@gul_string_eq(", "if.then.", "if.end."},
		},
		{
			"power and modulo",
			"mn:\n    print(2 ** 3)\n    print(7 % 3)\n",
			[]string{"@gul_math_pow(double", "srem i64"},
		},
		{
			"enum ordinal",
			"enum Color:\n    Red\n    Green\n\nmn:\n    print(Color.Green)\n",
			[]string{"i64 1)"},
		},
		{
			"typed input",
			"mn:\n    let n = @int(input())\n",
			[]string{"call i64 @gul_input_int()"},
		},
		{
			"str annotation boxes",
			"mn:\n    let s: str = 42\n",
			[]string{"@gul_int_to_string(i64 42)"},
		},
		{
			"bool annotation from string",
			"mn:\n    let b: bool = \"true\"\n",
			[]string{"@gul_str_to_bool("},
		},
		{
			"dict literal boxes keys",
			"mn:\n    let d = {1: 2}\n    print(d[1])\n",
			[]string{"@gul_dict_alloc(i64 8)", "@gul_int_to_string(i64 1)", "@gul_dict_set(", "@gul_dict_get("},
		},
		{
			"imported math",
			"@imp std.math{sqrt}\n\nmn:\n    print(sqrt(2.0))\n    print(math.floor(2.5))\n",
			[]string{"call double @gul_math_sqrt(double 2", "call double @gul_math_floor("},
		},
		{
			"unprefixed builtin",
			"mn:\n    print(ml_sigmoid(0.0))\n",
			[]string{"call double @gul_ml_sigmoid("},
		},
		{
			"foreign block",
			"@python:\n    print(1)\n\nmn:\n    pass\n",
			[]string{"@gul_exec_foreign("},
		},
		{
			"while with break",
			"mn:\n    var i = 0\n    while true:\n        i += 1\n        if i > 3:\n            break\n",
			[]string{"while.cond.", "while.end.", "after.break."},
		},
		{
			"list index assignment",
			"mn:\n    var xs = [1, 2]\n    xs[0] = 5\n",
			[]string{"@gul_list_set("},
		},
		{
			"table literal",
			"mn:\n    let t = @tabl {\n        (a, b): r1: {1, 2}\n    }\n",
			[]string{"@gul_table_alloc(i64 2, i64 1)", "@gul_table_set_col_name(", "store double", "@gul_table_set_row("},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, out := emit(t, test.src)
			for _, want := range test.want {
				if !strings.Contains(out, want) {
					t.Errorf("IR missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestRuntimeDeclaredOnce(t *testing.T) {
	_, out := emit(t, "mn:\n    print(1)\n")
	for _, fn := range RuntimeABI {
		be.Equal(t, strings.Count(out, "@"+fn.name+"("), 1)
	}
	be.True(t, strings.Contains(out, "declare i32 @printf(i64"))
}

func TestWarnings(t *testing.T) {
	g, _ := emit(t, "mn:\n    let f = fn(x) => x\n    try:\n        pass\n    catch e:\n        pass\n")
	be.Equal(t, len(g.Warnings()), 2)
	be.True(t, strings.Contains(g.Warnings()[0], "Lambda"))
	be.True(t, strings.Contains(g.Warnings()[1], "Catch"))
}

func TestSymbolCollision(t *testing.T) {
	for _, name := range []string{"gul_malloc", "printf", "fmt_int", "fmt_str", "fmt_raw"} {
		t.Run(name, func(t *testing.T) {
			_, err := Generate(parse(t, "fn "+name+"(n):\n    return n\n"))
			be.True(t, gulerrors.Is(err, gulerrors.CodegenError))
		})
	}
}

func TestBlockBindingsDoNotLeak(t *testing.T) {
	bodies := map[string]string{
		"if":    "    if true:\n",
		"else":  "    if false:\n        pass\n    else:\n",
		"while": "    while true:\n",
		"loop":  "    loop:\n",
		"for":   "    for i in 0..1:\n",
		"try":   "    try:\n",
	}
	for name, head := range bodies {
		t.Run(name, func(t *testing.T) {
			inner := "mn:\n    let x = 3\n" + head + "        let x = \"inner\"\n        print(x)\n        break\n"
			if name == "if" || name == "else" || name == "try" {
				inner = strings.TrimSuffix(inner, "        break\n")
			}
			_, before := emit(t, inner)
			_, after := emit(t, inner+"    print(x)\n")
			be.Equal(t, strings.Count(after, "@fmt_int"), strings.Count(before, "@fmt_int")+1)
		})
	}
}

func TestEveryBlockTerminated(t *testing.T) {
	src := `fn f(n: int) -> int:
    if n > 0:
        return 1
    elif n < 0:
        return 2
    else:
        return 3

mn:
    loop:
        break
        print(1)
    for x in [1, 2]:
        continue
    print(f(1))
`
	m, err := Generate(parse(t, src))
	be.Err(t, err, nil)
	for _, f := range m.Funcs {
		for _, b := range f.Blocks {
			be.True(t, b.Term != nil)
		}
	}
}

func TestVerifyRejectsOpenBlock(t *testing.T) {
	m := ir.NewModule()
	f := m.NewFunc("f", types.I64)
	f.NewBlock("entry")
	err := Verify(m)
	be.True(t, gulerrors.Is(err, gulerrors.CodegenError))
	be.True(t, strings.Contains(err.Error(), "'entry'"))
	be.True(t, strings.Contains(err.Error(), "'f'"))
}

func TestTypeTags(t *testing.T) {
	g := NewGenerator()
	g.vars = map[string]*variable{"s": {tag: "str"}, "xs": {tag: "list<float>"}}
	tests := []struct {
		src  string
		want string
	}{
		{"1 + 2", "int"},
		{"1 + 2.0", "float"},
		{"s + 1", "str"},
		{"1 < 2", "bool"},
		{"xs[0]", "float"},
		{"s[0]", "str"},
		{"[1, 2]", "list<int>"},
		{"[1, \"a\"]", "list"},
		{"{\"a\": 1.5}", "dict<float>"},
		{"@int(s)", "int"},
		{"len(xs)", "int"},
	}
	for _, test := range tests {
		t.Run(test.src, func(t *testing.T) {
			prog := parse(t, test.src+"\n")
			stmt := prog.Statements[0].(*parser.ExpressionStmt)
			be.Equal(t, g.typeOf(stmt.Expr), test.want)
		})
	}
}
