// Package codegen lowers a parsed GUL program to an LLVM IR module that
// calls into the embedded C runtime.
package codegen

import (
	"fmt"

	"gul/internal/parser"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// ModuleName is the source filename recorded in every generated module.
const ModuleName = "gul_program"

// variable is a stack slot owned by the function being emitted.
type variable struct {
	slot *ir.InstAlloca
	typ  types.Type
	tag  string
}

// function is a user function or struct method declared in pass one.
type function struct {
	ir     *ir.Func
	decl   *parser.FunctionDecl
	params []parser.Param
	tags   []string
	ret    string
}

type field struct {
	name   string
	tag    string
	typ    types.Type
	offset int64
}

type layout struct {
	name    string
	decl    *parser.StructDecl
	fields  []*field
	methods map[string]*function
}

func (l *layout) field(name string) *field {
	for _, f := range l.fields {
		if f.name == name {
			return f
		}
	}
	return nil
}

type loopTarget struct {
	brk  *ir.Block
	cont *ir.Block
}

// Generator owns the module under construction. It is not safe for
// concurrent use.
type Generator struct {
	module  *ir.Module
	printer *ir.Func
	fmtInt  *ir.Global
	fmtStr  *ir.Global
	fmtRaw  *ir.Global
	runtime map[string]*runtimeEntry
	strs    map[string]*ir.Global

	funcs   map[string]*function
	order   []*function
	layouts map[string]*layout
	structs []*layout
	enums   map[string]map[string]int64
	modules map[string]string
	aliases map[string]string

	// per-function state
	cur    *ir.Func
	entry  *ir.Block
	block  *ir.Block
	ret    types.Type
	retTag string
	vars   map[string]*variable
	loops  []loopTarget
	labels int
	locals int

	warnings []string
}

// NewGenerator returns a generator with an empty module.
func NewGenerator() *Generator {
	m := ir.NewModule()
	m.SourceFilename = ModuleName
	return &Generator{
		module:  m,
		runtime: make(map[string]*runtimeEntry),
		strs:    make(map[string]*ir.Global),
		funcs:   make(map[string]*function),
		layouts: make(map[string]*layout),
		enums:   make(map[string]map[string]int64),
		modules: make(map[string]string),
		aliases: make(map[string]string),
	}
}

// Generate lowers prog into a fresh module.
func Generate(prog *parser.Program) (*ir.Module, error) {
	return NewGenerator().Generate(prog)
}

// Warnings returns the non-fatal diagnostics recorded while lowering.
func (g *Generator) Warnings() []string {
	return g.warnings
}

// Generate runs the declaration pass, emits every body and the exported
// main, then verifies the result.
func (g *Generator) Generate(prog *parser.Program) (*ir.Module, error) {
	g.declareRuntime()
	g.fmtInt = g.constString("fmt_int", "%ld\n")
	g.fmtStr = g.constString("fmt_str", "%s\n")
	g.fmtRaw = g.constString("fmt_raw", "%s")

	for _, imp := range prog.Imports {
		g.importModules(imp)
	}
	g.collectTypes(prog.Statements)
	g.collectTypes(prog.MainEntry)

	for _, decl := range prog.Functions {
		if err := g.declareFunction(decl, nil); err != nil {
			return nil, err
		}
	}
	for _, l := range g.structs {
		for _, m := range l.decl.Methods {
			if err := g.declareFunction(m, l); err != nil {
				return nil, err
			}
		}
	}

	for _, fn := range g.order {
		g.emitFunction(fn)
	}
	g.emitMain(prog)

	if err := Verify(g.module); err != nil {
		return nil, err
	}
	return g.module, nil
}

func (g *Generator) constString(name, s string) *ir.Global {
	gbl := g.module.NewGlobalDef(name, constant.NewCharArrayFromString(s+"\x00"))
	gbl.Immutable = true
	gbl.Linkage = enum.LinkagePrivate
	return gbl
}

// str interns a string literal and returns its address as an i64.
func (g *Generator) str(s string) value.Value {
	gbl, ok := g.strs[s]
	if !ok {
		gbl = g.constString(fmt.Sprintf(".str.%d", len(g.strs)), s)
		g.strs[s] = gbl
	}
	return addr(gbl)
}

func addr(gbl *ir.Global) value.Value {
	return constant.NewPtrToInt(gbl, tInt)
}

func (g *Generator) importModules(imp *parser.ImportStmt) {
	for _, spec := range imp.Modules {
		if len(spec.Path) == 0 {
			continue
		}
		mod := spec.Path[len(spec.Path)-1]
		prefix := "gul_" + mod + "_"
		g.modules[mod] = prefix
		for _, item := range spec.Items {
			if _, ok := g.runtime[prefix+item]; ok {
				g.aliases[item] = prefix + item
				continue
			}
			g.warn(imp.Pos(), fmt.Sprintf("Module '%s' has no runtime function '%s'", mod, item))
		}
	}
}

func (g *Generator) collectTypes(stmts []parser.Stmt) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *parser.StructDecl:
			l := &layout{name: s.Name, decl: s, methods: make(map[string]*function)}
			for i, fd := range s.Fields {
				tag := normalizeType(fd.Type)
				l.fields = append(l.fields, &field{
					name:   fd.Name,
					tag:    tag,
					typ:    llvmType(tag),
					offset: int64(i) * 8,
				})
			}
			g.layouts[s.Name] = l
			g.structs = append(g.structs, l)
		case *parser.EnumDecl:
			variants := make(map[string]int64, len(s.Variants))
			for i, v := range s.Variants {
				variants[v] = int64(i)
			}
			g.enums[s.Name] = variants
		}
	}
}
