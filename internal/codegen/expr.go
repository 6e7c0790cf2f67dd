package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"gul/internal/lexer"
	"gul/internal/parser"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// expr lowers e in the current block.
func (g *Generator) expr(e parser.Expr) value.Value {
	if e == nil {
		return i64(0)
	}
	if v, ok := e.Accept(g).(value.Value); ok && v != nil {
		return v
	}
	return i64(0)
}

func (g *Generator) VisitLiteralExpr(e *parser.Literal) interface{} {
	switch e.Kind {
	case lexer.TokenInteger:
		n, err := strconv.ParseInt(e.Value, 10, 64)
		if err != nil {
			g.warn(e.Pos(), fmt.Sprintf("Integer literal '%s' out of range", e.Value))
			return i64(0)
		}
		return i64(n)
	case lexer.TokenFloat:
		f, err := strconv.ParseFloat(e.Value, 64)
		if err != nil {
			g.warn(e.Pos(), fmt.Sprintf("Invalid float literal '%s'", e.Value))
		}
		return constant.NewFloat(tFloat, f)
	case lexer.TokenString:
		return g.str(e.Value)
	case lexer.TokenTrue:
		return i64(1)
	}
	return i64(0)
}

func (g *Generator) VisitIdentifierExpr(e *parser.Identifier) interface{} {
	if v, ok := g.vars[e.Name]; ok {
		return g.block.NewLoad(v.typ, v.slot)
	}
	return i64(0)
}

func (g *Generator) VisitGroupedExpr(e *parser.Grouped) interface{} {
	return g.expr(e.Inner)
}

func (g *Generator) VisitAwaitExpr(e *parser.Await) interface{} {
	return g.expr(e.Inner)
}

func (g *Generator) VisitUnaryExpr(e *parser.Unary) interface{} {
	v := g.expr(e.Operand)
	switch e.Op {
	case lexer.TokenMinus:
		if isFloat(v) {
			return g.block.NewFNeg(v)
		}
		return g.block.NewSub(i64(0), g.toInt(v))
	case lexer.TokenNot:
		return g.block.NewXor(g.flag(v), i64(1))
	}
	return v
}

func (g *Generator) VisitBinaryExpr(e *parser.Binary) interface{} {
	if e.Op == lexer.TokenRange {
		g.warn(e.Pos(), "Range is only supported as a for-loop iterable")
		return i64(0)
	}
	lt, rt := g.typeOf(e.Left), g.typeOf(e.Right)
	l := g.expr(e.Left)
	r := g.expr(e.Right)
	return g.binary(e.Op, l, r, lt, rt)
}

var intPreds = map[lexer.TokenType]enum.IPred{
	lexer.TokenDoubleEqual: enum.IPredEQ,
	lexer.TokenNotEqual:    enum.IPredNE,
	lexer.TokenLT:          enum.IPredSLT,
	lexer.TokenLE:          enum.IPredSLE,
	lexer.TokenGT:          enum.IPredSGT,
	lexer.TokenGE:          enum.IPredSGE,
}

var floatPreds = map[lexer.TokenType]enum.FPred{
	lexer.TokenDoubleEqual: enum.FPredOEQ,
	lexer.TokenNotEqual:    enum.FPredUNE,
	lexer.TokenLT:          enum.FPredOLT,
	lexer.TokenLE:          enum.FPredOLE,
	lexer.TokenGT:          enum.FPredOGT,
	lexer.TokenGE:          enum.FPredOGE,
}

// binary combines two lowered operands. lt and rt are their type tags.
func (g *Generator) binary(op lexer.TokenType, l, r value.Value, lt, rt string) value.Value {
	switch op {
	case lexer.TokenPlus:
		if base(lt) == "str" || base(rt) == "str" {
			return g.callRuntime("gul_string_concat", g.box(l, lt), g.box(r, rt))
		}
	case lexer.TokenAnd:
		return g.block.NewAnd(g.flag(l), g.flag(r))
	case lexer.TokenOr:
		return g.block.NewOr(g.flag(l), g.flag(r))
	case lexer.TokenPower:
		return g.callRuntime("gul_math_pow", l, r)
	case lexer.TokenDoubleEqual, lexer.TokenNotEqual:
		if base(lt) == "str" && base(rt) == "str" {
			eq := g.callRuntime("gul_string_eq", l, r)
			if op == lexer.TokenNotEqual {
				return g.block.NewXor(eq, i64(1))
			}
			return eq
		}
	}

	if isFloat(l) || isFloat(r) {
		l, r = g.toFloat(l), g.toFloat(r)
		if pred, ok := floatPreds[op]; ok {
			return g.block.NewZExt(g.block.NewFCmp(pred, l, r), tInt)
		}
		switch op {
		case lexer.TokenPlus:
			return g.block.NewFAdd(l, r)
		case lexer.TokenMinus:
			return g.block.NewFSub(l, r)
		case lexer.TokenStar:
			return g.block.NewFMul(l, r)
		case lexer.TokenSlash:
			return g.block.NewFDiv(l, r)
		case lexer.TokenPercent:
			return g.block.NewFRem(l, r)
		}
		return constant.NewFloat(tFloat, 0)
	}

	l, r = g.toInt(l), g.toInt(r)
	if pred, ok := intPreds[op]; ok {
		return g.block.NewZExt(g.block.NewICmp(pred, l, r), tInt)
	}
	switch op {
	case lexer.TokenPlus:
		return g.block.NewAdd(l, r)
	case lexer.TokenMinus:
		return g.block.NewSub(l, r)
	case lexer.TokenStar:
		return g.block.NewMul(l, r)
	case lexer.TokenSlash:
		return g.block.NewSDiv(l, r)
	case lexer.TokenPercent:
		return g.block.NewSRem(l, r)
	}
	return i64(0)
}

// flag is the 0/1 i64 form of v.
func (g *Generator) flag(v value.Value) value.Value {
	return g.block.NewZExt(g.truth(v), tInt)
}

func (g *Generator) VisitCallExpr(e *parser.Call) interface{} {
	switch callee := parser.Unwrap(e.Callee).(type) {
	case *parser.Identifier:
		return g.callNamed(e, callee)
	case *parser.Attribute:
		return g.callMethod(e, callee)
	}
	g.warn(e.Pos(), "Unsupported call target")
	g.discard(e.Args)
	return i64(0)
}

func (g *Generator) discard(args []parser.Expr) {
	for _, a := range args {
		g.expr(a)
	}
}

func (g *Generator) lowerArgs(args []parser.Expr) []value.Value {
	vals := make([]value.Value, len(args))
	for i, a := range args {
		vals[i] = g.expr(a)
	}
	return vals
}

func firstArg(e *parser.Call) parser.Expr {
	if len(e.Args) == 0 {
		return nil
	}
	return e.Args[0]
}

func (g *Generator) callNamed(e *parser.Call, callee *parser.Identifier) value.Value {
	name := callee.Name
	if _, local := g.vars[name]; local {
		g.warn(e.Pos(), fmt.Sprintf("Cannot call variable '%s'", name))
		g.discard(e.Args)
		return i64(0)
	}

	switch name {
	case "print", "println":
		g.print(e.Args)
		return i64(0)
	case "len":
		arg := firstArg(e)
		if arg == nil {
			return i64(0)
		}
		return g.length(g.typeOf(arg), g.expr(arg))
	case "input":
		g.prompt(e.Args)
		return g.callRuntime("gul_input_str")
	case "str", "int", "float", "bool":
		return g.convert(name, firstArg(e))
	}
	if strings.HasPrefix(name, "@") {
		return g.convert(normalizeType(name), firstArg(e))
	}
	if l, ok := g.layouts[name]; ok {
		return g.construct(l, e)
	}
	if fn, ok := g.userFunction(name); ok {
		return g.callUser(fn, e, nil)
	}
	if target, ok := g.aliases[name]; ok {
		return g.callRuntime(target, g.lowerArgs(e.Args)...)
	}
	if target, entry := g.lookupRuntime(name); entry != nil {
		return g.callRuntime(target, g.lowerArgs(e.Args)...)
	}

	g.warn(e.Pos(), fmt.Sprintf("Unknown function '%s'", name))
	g.discard(e.Args)
	return i64(0)
}

// callUser calls a declared function. self is the receiver of a method
// call. Missing arguments take the parameter default or zero.
func (g *Generator) callUser(fn *function, e *parser.Call, self value.Value) value.Value {
	var args []parser.Expr
	var kwargs []parser.KwArg
	if e != nil {
		args, kwargs = e.Args, e.KwArgs
	}

	vals := make([]value.Value, len(fn.params))
	next := 0
	for i, p := range fn.params {
		var v value.Value
		switch {
		case i == 0 && self != nil:
			v = self
		case next < len(args):
			v = g.conform(g.expr(args[next]), g.typeOf(args[next]), fn.tags[i])
			next++
		default:
			if kw := kwarg(kwargs, p.Name); kw != nil {
				v = g.conform(g.expr(kw), g.typeOf(kw), fn.tags[i])
			} else if p.Default != nil {
				v = g.conform(g.expr(p.Default), g.typeOf(p.Default), fn.tags[i])
			} else {
				v = zero(fn.ir.Params[i].Typ)
			}
		}
		vals[i] = g.coerce(v, fn.ir.Params[i].Typ)
	}
	g.discard(args[next:])
	return g.block.NewCall(fn.ir, vals...)
}

func kwarg(kwargs []parser.KwArg, name string) parser.Expr {
	for _, kw := range kwargs {
		if kw.Name == name {
			return kw.Value
		}
	}
	return nil
}

func (g *Generator) print(args []parser.Expr) {
	if len(args) == 0 {
		g.printf(addr(g.fmtStr), g.str(""))
		return
	}
	for _, a := range args {
		tag := g.typeOf(a)
		v := g.expr(a)
		switch {
		case isFloat(v):
			g.callRuntime("gul_print_float", v)
		case base(tag) == "str":
			g.printf(addr(g.fmtStr), v)
		default:
			g.printf(addr(g.fmtInt), g.toInt(v))
		}
	}
}

// prompt writes input prompts without a trailing newline.
func (g *Generator) prompt(args []parser.Expr) {
	for _, a := range args {
		g.printf(addr(g.fmtRaw), g.box(g.expr(a), g.typeOf(a)))
	}
}

func (g *Generator) length(tag string, v value.Value) value.Value {
	switch base(tag) {
	case "dict":
		return g.callRuntime("gul_dict_len", v)
	case "str":
		return g.callRuntime("gul_string_len", v)
	}
	return g.callRuntime("gul_list_len", v)
}

func isInputCall(e parser.Expr) (*parser.Call, bool) {
	call, ok := parser.Unwrap(e).(*parser.Call)
	if !ok {
		return nil, false
	}
	id, ok := parser.Unwrap(call.Callee).(*parser.Identifier)
	return call, ok && id.Name == "input"
}

var typedInput = map[string]string{
	"int":   "gul_input_int",
	"float": "gul_input_flt",
	"str":   "gul_input_str",
}

// convert lowers int(x), @str(x) and the other constructor forms.
func (g *Generator) convert(kind string, arg parser.Expr) value.Value {
	if arg == nil {
		if kind == "float" {
			return constant.NewFloat(tFloat, 0)
		}
		return i64(0)
	}
	if call, ok := isInputCall(arg); ok {
		if fn, ok := typedInput[kind]; ok {
			g.prompt(call.Args)
			return g.callRuntime(fn)
		}
	}

	tag := g.typeOf(arg)
	v := g.expr(arg)
	switch kind {
	case "int":
		if base(tag) == "str" {
			return g.callRuntime("gul_str_to_int", v)
		}
		return g.toInt(v)
	case "float":
		if base(tag) == "str" {
			return g.callRuntime("gul_str_to_float", v)
		}
		return g.toFloat(v)
	case "str":
		return g.box(v, tag)
	case "bool":
		if base(tag) == "str" {
			return g.callRuntime("gul_str_to_bool", v)
		}
		return g.flag(v)
	case "chan":
		return g.callRuntime("gul_chan_create", v)
	case "tensor":
		return g.callRuntime("gul_tensor_alloc", v)
	}
	return v
}

func (g *Generator) VisitTypeConstructorExpr(e *parser.TypeConstructor) interface{} {
	return g.convert(normalizeType(e.TypeName), e.Arg)
}

// construct allocates a struct instance and stores each argument in its
// field slot.
func (g *Generator) construct(l *layout, e *parser.Call) value.Value {
	size := int64(len(l.fields)) * 8
	if size == 0 {
		size = 8
	}
	ptr := g.callRuntime("gul_malloc", i64(size))
	for i, f := range l.fields {
		arg := kwarg(e.KwArgs, f.name)
		if arg == nil && i < len(e.Args) {
			arg = e.Args[i]
		}
		if arg == nil {
			continue
		}
		g.storeField(ptr, f, g.expr(arg), g.typeOf(arg))
	}
	if len(e.Args) > len(l.fields) {
		g.discard(e.Args[len(l.fields):])
	}
	return ptr
}

func (g *Generator) fieldPtr(obj value.Value, f *field) value.Value {
	at := g.block.NewAdd(g.toInt(obj), i64(f.offset))
	return g.block.NewIntToPtr(at, types.NewPointer(f.typ))
}

func (g *Generator) storeField(obj value.Value, f *field, v value.Value, tag string) {
	v = g.coerce(g.conform(v, tag, f.tag), f.typ)
	g.block.NewStore(v, g.fieldPtr(obj, f))
}

func (g *Generator) loadField(obj value.Value, f *field) value.Value {
	return g.block.NewLoad(f.typ, g.fieldPtr(obj, f))
}

func (g *Generator) callMethod(e *parser.Call, attr *parser.Attribute) value.Value {
	if prefix, ok := g.moduleHandle(attr.Object); ok {
		if _, ok := g.runtime[prefix+attr.Name]; ok {
			return g.callRuntime(prefix+attr.Name, g.lowerArgs(e.Args)...)
		}
		g.warn(e.Pos(), fmt.Sprintf("Unknown function '%s%s'", strings.TrimPrefix(prefix, "gul_"), attr.Name))
		g.discard(e.Args)
		return i64(0)
	}

	tag := g.typeOf(attr.Object)
	if l, ok := g.layouts[base(tag)]; ok {
		if m, ok := l.methods[attr.Name]; ok {
			return g.callUser(m, e, g.expr(attr.Object))
		}
	}

	switch attr.Name {
	case "push", "append", "add":
		obj := g.toInt(g.expr(attr.Object))
		fn := "gul_list_push"
		if base(tag) == "set" {
			fn = "gul_set_add"
		}
		for _, a := range e.Args {
			g.callRuntime(fn, obj, g.element(g.expr(a)))
		}
		return i64(0)
	case "len":
		return g.length(tag, g.expr(attr.Object))
	case "get":
		obj := g.toInt(g.expr(attr.Object))
		arg := firstArg(e)
		if base(tag) == "dict" {
			return g.fromElement(g.callRuntime("gul_dict_get", obj, g.key(arg)), elemType(tag))
		}
		return g.fromElement(g.callRuntime("gul_list_get", obj, g.expr(arg)), elemType(tag))
	}

	g.warn(e.Pos(), fmt.Sprintf("Unknown method '%s'", attr.Name))
	g.expr(attr.Object)
	g.discard(e.Args)
	return i64(0)
}

func (g *Generator) VisitAttributeExpr(e *parser.Attribute) interface{} {
	if id, ok := parser.Unwrap(e.Object).(*parser.Identifier); ok {
		if _, local := g.vars[id.Name]; !local {
			if variants, ok := g.enums[id.Name]; ok {
				if n, ok := variants[e.Name]; ok {
					return i64(n)
				}
				g.warn(e.Pos(), fmt.Sprintf("Enum '%s' has no variant '%s'", id.Name, e.Name))
				return i64(0)
			}
		}
	}

	tag := g.typeOf(e.Object)
	if f := g.fieldOf(tag, e.Name); f != nil {
		return g.loadField(g.expr(e.Object), f)
	}
	if e.Name == "len" {
		return g.length(tag, g.expr(e.Object))
	}
	g.warn(e.Pos(), fmt.Sprintf("Unknown attribute '%s'", e.Name))
	return i64(0)
}

// key boxes a dict key to its string form.
func (g *Generator) key(e parser.Expr) value.Value {
	return g.box(g.expr(e), g.typeOf(e))
}

func (g *Generator) VisitIndexExpr(e *parser.Index) interface{} {
	tag := g.typeOf(e.Object)
	obj := g.toInt(g.expr(e.Object))
	switch base(tag) {
	case "dict":
		return g.fromElement(g.callRuntime("gul_dict_get", obj, g.key(e.Index)), elemType(tag))
	case "str":
		return g.callRuntime("gul_string_get", obj, g.expr(e.Index))
	}
	return g.fromElement(g.callRuntime("gul_list_get", obj, g.expr(e.Index)), elemType(tag))
}

func capacity(n int) value.Value {
	if n < 8 {
		n = 8
	}
	return i64(int64(n))
}

func (g *Generator) list(elems []parser.Expr) value.Value {
	l := g.callRuntime("gul_list_alloc", capacity(len(elems)))
	for _, el := range elems {
		g.callRuntime("gul_list_push", l, g.element(g.expr(el)))
	}
	return l
}

func (g *Generator) VisitListExpr(e *parser.ListExpr) interface{} {
	return g.list(e.Elements)
}

func (g *Generator) VisitTupleExpr(e *parser.TupleExpr) interface{} {
	return g.list(e.Elements)
}

func (g *Generator) VisitSetExpr(e *parser.SetExpr) interface{} {
	s := g.callRuntime("gul_set_alloc", capacity(len(e.Elements)))
	for _, el := range e.Elements {
		g.callRuntime("gul_set_add", s, g.element(g.expr(el)))
	}
	return s
}

func (g *Generator) VisitDictExpr(e *parser.DictExpr) interface{} {
	d := g.callRuntime("gul_dict_alloc", capacity(len(e.Pairs)))
	for _, p := range e.Pairs {
		k := g.key(p.Key)
		g.callRuntime("gul_dict_set", d, k, g.element(g.expr(p.Value)))
	}
	return d
}

func (g *Generator) VisitTableExpr(e *parser.Table) interface{} {
	ncols := len(e.Columns)
	t := g.callRuntime("gul_table_alloc", i64(int64(ncols)), i64(int64(len(e.Rows))))
	for i, c := range e.Columns {
		g.callRuntime("gul_table_set_col_name", t, i64(int64(i)), g.str(c))
	}
	width := ncols
	if width == 0 {
		width = 1
	}
	for r, row := range e.Rows {
		buf := g.callRuntime("gul_malloc", i64(int64(width)*8))
		for j, ve := range row.Values {
			if j >= ncols {
				break
			}
			at := g.block.NewAdd(buf, i64(int64(j)*8))
			ptr := g.block.NewIntToPtr(at, types.NewPointer(tFloat))
			g.block.NewStore(g.toFloat(g.expr(ve)), ptr)
		}
		g.callRuntime("gul_table_set_row", t, i64(int64(r)), g.str(row.Name), buf)
	}
	return t
}

func (g *Generator) VisitDataFrameExpr(e *parser.DataFrame) interface{} {
	f := g.callRuntime("gul_frame_create", i64(0), i64(int64(len(e.Columns))))
	for i, c := range e.Columns {
		g.callRuntime("gul_frame_set_column_name", f, i64(int64(i)), g.str(c))
	}
	return f
}

func (g *Generator) VisitLambdaExpr(e *parser.Lambda) interface{} {
	g.warn(e.Pos(), "Lambda expressions are not supported; using 0")
	return i64(0)
}

func (g *Generator) VisitMatchExpr(e *parser.MatchExpr) interface{} {
	g.warn(e.Pos(), "Match expressions are not supported; using 0")
	return i64(0)
}
