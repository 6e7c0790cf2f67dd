package codegen

import (
	"fmt"

	gulerrors "gul/internal/errors"
	"gul/internal/parser"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// symbolName is the IR name of a user function. A user main is renamed so
// the exported entry point stays free.
func symbolName(decl *parser.FunctionDecl, owner *layout) string {
	if owner != nil {
		return owner.name + "_" + decl.Name
	}
	if decl.Name == "main" {
		return "gul_user_main"
	}
	return decl.Name
}

// reserved holds module-level symbols the generator defines itself.
var reserved = map[string]bool{
	"printf":  true,
	"main":    true,
	"fmt_int": true,
	"fmt_str": true,
	"fmt_raw": true,
}

func (g *Generator) declareFunction(decl *parser.FunctionDecl, owner *layout) error {
	name := symbolName(decl, owner)
	if _, ok := g.runtime[name]; ok || reserved[name] {
		return gulerrors.NewCodegenError("function '%s' at %d:%d collides with a runtime symbol", name, decl.Line, decl.Column)
	}
	if _, ok := g.funcs[name]; ok {
		return gulerrors.NewCodegenError("function '%s' at %d:%d is already defined", name, decl.Line, decl.Column)
	}

	params := decl.Params
	if owner != nil && (len(params) == 0 || params[0].Name != "self") {
		params = append([]parser.Param{{Name: "self"}}, params...)
	}

	fn := &function{decl: decl, params: params, ret: normalizeType(decl.ReturnType)}
	irParams := make([]*ir.Param, len(params))
	for i, p := range params {
		tag := normalizeType(p.Type)
		if owner != nil && i == 0 {
			tag = owner.name
		}
		fn.tags = append(fn.tags, tag)
		irParams[i] = ir.NewParam(paramName(p.Name), llvmType(tag))
	}
	fn.ir = g.module.NewFunc(name, llvmType(fn.ret), irParams...)

	g.funcs[name] = fn
	g.order = append(g.order, fn)
	if owner != nil {
		owner.methods[decl.Name] = fn
	}
	return nil
}

// paramName keeps parameters out of the block label namespace.
func paramName(name string) string {
	if name == "entry" {
		return "entry.arg"
	}
	return name
}

// userFunction finds a top-level function by its source name.
func (g *Generator) userFunction(name string) (*function, bool) {
	if name == "main" {
		name = "gul_user_main"
	}
	fn, ok := g.funcs[name]
	return fn, ok
}

func (g *Generator) begin(f *ir.Func, retTag string) {
	g.cur = f
	g.entry = f.NewBlock("entry")
	g.block = g.entry
	g.ret = f.Sig.RetType
	g.retTag = retTag
	g.vars = make(map[string]*variable)
	g.loops = nil
}

// finish terminates the last block with a zero return.
func (g *Generator) finish() {
	if g.block.Term == nil {
		g.block.NewRet(zero(g.ret))
	}
}

func (g *Generator) emitFunction(fn *function) {
	g.begin(fn.ir, fn.ret)
	for i, p := range fn.ir.Params {
		g.bind(fn.params[i].Name, p.Typ, fn.tags[i], p)
	}
	for _, stmt := range fn.decl.Body {
		if nested, ok := stmt.(*parser.FunctionDecl); ok {
			g.warn(nested.Pos(), fmt.Sprintf("Nested function '%s' is not supported", nested.Name))
			continue
		}
		g.stmt(stmt)
	}
	g.finish()
}

// emitMain synthesizes the exported i32 main.
func (g *Generator) emitMain(prog *parser.Program) {
	f := g.module.NewFunc("main", types.I32)
	g.begin(f, "int")
	g.stmts(prog.MainEntry)
	if len(prog.MainEntry) == 0 {
		if user, ok := g.funcs["gul_user_main"]; ok {
			g.callUser(user, nil, nil)
		}
	}
	g.stmts(prog.Statements)
	g.finish()
}

// slot allocates a stack slot at the top of the entry block.
func (g *Generator) slot(name string, typ types.Type) *ir.InstAlloca {
	g.locals++
	a := ir.NewAlloca(typ)
	a.SetName(fmt.Sprintf("%s.%d", name, g.locals))
	g.entry.Insts = append([]ir.Instruction{a}, g.entry.Insts...)
	return a
}

func (g *Generator) bind(name string, typ types.Type, tag string, v value.Value) *variable {
	s := g.slot(name, typ)
	vr := &variable{slot: s, typ: typ, tag: tag}
	g.block.NewStore(g.coerce(v, typ), s)
	g.vars[name] = vr
	return vr
}

// label returns a block that is not yet attached to the function.
func (g *Generator) label(prefix string) *ir.Block {
	g.labels++
	return ir.NewBlock(fmt.Sprintf("%s.%d", prefix, g.labels))
}

// enter attaches b to the current function and makes it current.
func (g *Generator) enter(b *ir.Block) {
	b.Parent = g.cur
	g.cur.Blocks = append(g.cur.Blocks, b)
	g.block = b
}

// jump branches to target unless the current block is already terminated.
func (g *Generator) jump(target *ir.Block) {
	if g.block.Term == nil {
		g.block.NewBr(target)
	}
}

// unreachable continues emission in a fresh block after a terminator.
func (g *Generator) unreachable(prefix string) {
	g.enter(g.label(prefix))
}

func (g *Generator) warn(pos parser.Position, msg string) {
	g.warnings = append(g.warnings, fmt.Sprintf("Warning at %d:%d: %s", pos.Line, pos.Column, msg))
}
