package codegen

import (
	"fmt"
	"maps"

	"gul/internal/lexer"
	"gul/internal/parser"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

func (g *Generator) stmt(s parser.Stmt) {
	if s != nil {
		s.Accept(g)
	}
}

func (g *Generator) stmts(body []parser.Stmt) {
	for _, s := range body {
		g.stmt(s)
	}
}

// nested lowers a block body. Bindings it declares go out of scope at its end.
func (g *Generator) nested(body []parser.Stmt) {
	outer := maps.Clone(g.vars)
	g.stmts(body)
	g.vars = outer
}

func (g *Generator) VisitLetStmt(s *parser.LetStmt) interface{} {
	g.declare(&s.DeclStmt)
	return nil
}

func (g *Generator) VisitVarStmt(s *parser.VarStmt) interface{} {
	g.declare(&s.DeclStmt)
	return nil
}

// declare gives the variable a fresh slot whose type is fixed by the
// annotation or, without one, by the value.
func (g *Generator) declare(d *parser.DeclStmt) {
	from := g.typeOf(d.Value)
	v := g.expr(d.Value)

	tag := normalizeType(d.Type)
	if tag == "any" {
		tag = from
	} else {
		v = g.conform(v, from, tag)
	}
	typ := types.Type(tInt)
	if isFloat(v) || tag == "float" {
		typ = tFloat
	}
	g.bind(d.Name, typ, tag, v)
}

var compoundOps = map[lexer.TokenType]lexer.TokenType{
	lexer.TokenPlusEqual:  lexer.TokenPlus,
	lexer.TokenMinusEqual: lexer.TokenMinus,
	lexer.TokenStarEqual:  lexer.TokenStar,
	lexer.TokenSlashEqual: lexer.TokenSlash,
}

// combine applies a compound assignment operator to the current value.
func (g *Generator) combine(op lexer.TokenType, load func() value.Value, curTag string, v value.Value, vTag string) value.Value {
	bin, ok := compoundOps[op]
	if !ok {
		return v
	}
	return g.binary(bin, load(), v, curTag, vTag)
}

func (g *Generator) VisitAssignmentStmt(s *parser.AssignmentStmt) interface{} {
	switch target := parser.Unwrap(s.Target).(type) {
	case *parser.Identifier:
		from := g.typeOf(s.Value)
		v := g.expr(s.Value)
		vr, ok := g.vars[target.Name]
		if !ok {
			typ := types.Type(tInt)
			if isFloat(v) {
				typ = tFloat
			}
			g.bind(target.Name, typ, from, v)
			return nil
		}
		v = g.combine(s.Op, func() value.Value { return g.block.NewLoad(vr.typ, vr.slot) }, vr.tag, v, from)
		if bin, compound := compoundOps[s.Op]; compound {
			from = g.binaryTag(bin, vr.tag, from)
		}
		g.block.NewStore(g.coerce(g.conform(v, from, vr.tag), vr.typ), vr.slot)

	case *parser.Attribute:
		f := g.fieldOf(g.typeOf(target.Object), target.Name)
		if f == nil {
			g.warn(s.Pos(), fmt.Sprintf("Unknown attribute '%s'", target.Name))
			return nil
		}
		obj := g.toInt(g.expr(target.Object))
		from := g.typeOf(s.Value)
		v := g.combine(s.Op, func() value.Value { return g.loadField(obj, f) }, f.tag, g.expr(s.Value), from)
		g.storeField(obj, f, v, from)

	case *parser.Index:
		tag := g.typeOf(target.Object)
		elem := elemType(tag)
		obj := g.toInt(g.expr(target.Object))
		from := g.typeOf(s.Value)
		if base(tag) == "dict" {
			k := g.key(target.Index)
			load := func() value.Value { return g.fromElement(g.callRuntime("gul_dict_get", obj, k), elem) }
			v := g.combine(s.Op, load, elem, g.expr(s.Value), from)
			g.callRuntime("gul_dict_set", obj, k, g.element(v))
			return nil
		}
		idx := g.toInt(g.expr(target.Index))
		load := func() value.Value { return g.fromElement(g.callRuntime("gul_list_get", obj, idx), elem) }
		v := g.combine(s.Op, load, elem, g.expr(s.Value), from)
		g.callRuntime("gul_list_set", obj, idx, g.element(v))

	default:
		g.warn(s.Pos(), "Invalid assignment target")
	}
	return nil
}

// binaryTag is the tag of l op r given the operand tags.
func (g *Generator) binaryTag(op lexer.TokenType, l, r string) string {
	if op == lexer.TokenPlus && (base(l) == "str" || base(r) == "str") {
		return "str"
	}
	if l == "float" || r == "float" {
		return "float"
	}
	return l
}

// cond lowers e to an i1 branch condition.
func (g *Generator) cond(e parser.Expr) value.Value {
	return g.truth(g.expr(e))
}

func (g *Generator) VisitIfStmt(s *parser.IfStmt) interface{} {
	merge := g.label("if.end")

	arm := func(cond parser.Expr, body []parser.Stmt) {
		then := g.label("if.then")
		next := g.label("if.else")
		g.block.NewCondBr(g.cond(cond), then, next)
		g.enter(then)
		g.nested(body)
		g.jump(merge)
		g.enter(next)
	}

	arm(s.Condition, s.Then)
	for _, elif := range s.Elifs {
		arm(elif.Condition, elif.Body)
	}
	g.nested(s.Else)
	g.jump(merge)
	g.enter(merge)
	return nil
}

func (g *Generator) pushLoop(brk, cont *ir.Block) {
	g.loops = append(g.loops, loopTarget{brk: brk, cont: cont})
}

func (g *Generator) popLoop() {
	g.loops = g.loops[:len(g.loops)-1]
}

func (g *Generator) VisitWhileStmt(s *parser.WhileStmt) interface{} {
	header := g.label("while.cond")
	body := g.label("while.body")
	exit := g.label("while.end")

	g.jump(header)
	g.enter(header)
	g.block.NewCondBr(g.cond(s.Condition), body, exit)

	g.enter(body)
	g.pushLoop(exit, header)
	g.nested(s.Body)
	g.popLoop()
	g.jump(header)

	g.enter(exit)
	return nil
}

func (g *Generator) VisitLoopStmt(s *parser.LoopStmt) interface{} {
	body := g.label("loop.body")
	exit := g.label("loop.end")

	g.jump(body)
	g.enter(body)
	g.pushLoop(exit, body)
	g.nested(s.Body)
	g.popLoop()
	g.jump(body)

	g.enter(exit)
	return nil
}

func (g *Generator) VisitForStmt(s *parser.ForStmt) interface{} {
	prev, had := g.vars[s.Variable]
	if r, ok := parser.Unwrap(s.Iterable).(*parser.Binary); ok && r.Op == lexer.TokenRange {
		g.forRange(s, r)
	} else {
		g.forEach(s)
	}
	if had {
		g.vars[s.Variable] = prev
	} else {
		delete(g.vars, s.Variable)
	}
	return nil
}

// forRange counts from the start up to, not including, the end. The end
// is evaluated once.
func (g *Generator) forRange(s *parser.ForStmt, r *parser.Binary) {
	start := g.toInt(g.expr(r.Left))
	end := g.toInt(g.expr(r.Right))
	iv := g.bind(s.Variable, tInt, "int", start)

	g.counted(end, nil, iv, s.Body)
}

// forEach walks a list, set or string by index.
func (g *Generator) forEach(s *parser.ForStmt) {
	tag := g.typeOf(s.Iterable)
	lenFn, getFn, elem := "gul_list_len", "gul_list_get", elemType(tag)
	switch base(tag) {
	case "str":
		lenFn, getFn, elem = "gul_string_len", "gul_string_get", "str"
	case "dict":
		g.warn(s.Pos(), "Iteration over a dict is not supported")
		return
	}

	coll := g.toInt(g.expr(s.Iterable))
	n := g.callRuntime(lenFn, coll)
	idx := &variable{slot: g.slot("for.idx", tInt), typ: tInt, tag: "int"}
	g.block.NewStore(i64(0), idx.slot)

	typ := types.Type(tInt)
	if elem == "float" {
		typ = tFloat
	}
	item := g.bind(s.Variable, typ, elem, zero(typ))

	g.counted(n, func(i value.Value) {
		g.block.NewStore(g.fromElement(g.callRuntime(getFn, coll, i), elem), item.slot)
	}, idx, s.Body)
}

// counted emits the header, body and step blocks of a loop over the
// counter slot ctr, which runs while ctr < end. fetch runs at the top of
// each iteration with the current counter when set.
func (g *Generator) counted(end value.Value, fetch func(i value.Value), ctr *variable, body []parser.Stmt) {
	header := g.label("for.cond")
	bodyBlk := g.label("for.body")
	step := g.label("for.step")
	exit := g.label("for.end")

	g.jump(header)
	g.enter(header)
	cur := g.block.NewLoad(tInt, ctr.slot)
	g.block.NewCondBr(g.block.NewICmp(enum.IPredSLT, cur, end), bodyBlk, exit)

	g.enter(bodyBlk)
	if fetch != nil {
		fetch(g.block.NewLoad(tInt, ctr.slot))
	}
	g.pushLoop(exit, step)
	g.nested(body)
	g.popLoop()
	g.jump(step)

	g.enter(step)
	next := g.block.NewAdd(g.block.NewLoad(tInt, ctr.slot), i64(1))
	g.block.NewStore(next, ctr.slot)
	g.block.NewBr(header)

	g.enter(exit)
}

func (g *Generator) VisitBreakStmt(s *parser.BreakStmt) interface{} {
	if len(g.loops) == 0 {
		g.warn(s.Pos(), "'break' outside loop")
		return nil
	}
	g.block.NewBr(g.loops[len(g.loops)-1].brk)
	g.unreachable("after.break")
	return nil
}

func (g *Generator) VisitContinueStmt(s *parser.ContinueStmt) interface{} {
	if len(g.loops) == 0 {
		g.warn(s.Pos(), "'continue' outside loop")
		return nil
	}
	g.block.NewBr(g.loops[len(g.loops)-1].cont)
	g.unreachable("after.continue")
	return nil
}

func (g *Generator) VisitReturnStmt(s *parser.ReturnStmt) interface{} {
	if s.Value == nil {
		g.block.NewRet(zero(g.ret))
	} else {
		from := g.typeOf(s.Value)
		v := g.conform(g.expr(s.Value), from, g.retTag)
		g.block.NewRet(g.coerce(v, g.ret))
	}
	g.unreachable("after.return")
	return nil
}

func (g *Generator) VisitFunctionDecl(s *parser.FunctionDecl) interface{} {
	g.warn(s.Pos(), fmt.Sprintf("Nested function '%s' is not supported", s.Name))
	return nil
}

// Struct and enum declarations are collected before any body is emitted.
func (g *Generator) VisitStructDecl(s *parser.StructDecl) interface{} { return nil }

func (g *Generator) VisitEnumDecl(s *parser.EnumDecl) interface{} { return nil }

func (g *Generator) VisitMatchStmt(s *parser.MatchStmt) interface{} {
	g.warn(s.Pos(), "Match statements are not supported; skipped")
	return nil
}

func (g *Generator) VisitTryStmt(s *parser.TryStmt) interface{} {
	if s.CatchName != "" || len(s.Catch) > 0 {
		g.warn(s.Pos(), "Catch blocks are not supported; skipped")
	}
	g.nested(s.Body)
	g.nested(s.Finally)
	return nil
}

func (g *Generator) VisitExpressionStmt(s *parser.ExpressionStmt) interface{} {
	g.expr(s.Expr)
	return nil
}

func (g *Generator) VisitImportStmt(s *parser.ImportStmt) interface{} {
	g.importModules(s)
	return nil
}

func (g *Generator) VisitForeignCodeBlock(s *parser.ForeignCodeBlock) interface{} {
	g.callRuntime("gul_exec_foreign", g.str(s.Language), g.str(s.Code))
	return nil
}

func (g *Generator) VisitPassStmt(s *parser.PassStmt) interface{} {
	return nil
}
