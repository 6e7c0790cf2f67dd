package codegen

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

func i64(n int64) *constant.Int {
	return constant.NewInt(tInt, n)
}

func isFloat(v value.Value) bool {
	return v.Type().Equal(tFloat)
}

func (g *Generator) toInt(v value.Value) value.Value {
	t := v.Type()
	switch {
	case t.Equal(tInt):
		return v
	case t.Equal(tFloat):
		return g.block.NewFPToSI(v, tInt)
	case t.Equal(types.I1):
		return g.block.NewZExt(v, tInt)
	case t.Equal(types.I32):
		return g.block.NewSExt(v, tInt)
	}
	return v
}

func (g *Generator) toFloat(v value.Value) value.Value {
	if isFloat(v) {
		return v
	}
	return g.block.NewSIToFP(g.toInt(v), tFloat)
}

// coerce converts a numeric value to the LLVM type t.
func (g *Generator) coerce(v value.Value, t types.Type) value.Value {
	switch {
	case t.Equal(tFloat):
		return g.toFloat(v)
	case t.Equal(types.I32):
		if v.Type().Equal(types.I32) {
			return v
		}
		return g.block.NewTrunc(g.toInt(v), types.I32)
	}
	return g.toInt(v)
}

// truth yields an i1 that is set when v is non-zero.
func (g *Generator) truth(v value.Value) value.Value {
	if isFloat(v) {
		return g.block.NewFCmp(enum.FPredUNE, v, constant.NewFloat(tFloat, 0))
	}
	return g.block.NewICmp(enum.IPredNE, g.toInt(v), i64(0))
}

// box renders a scalar as a runtime string.
func (g *Generator) box(v value.Value, tag string) value.Value {
	switch {
	case base(tag) == "str":
		return g.toInt(v)
	case isFloat(v):
		return g.callRuntime("gul_float_to_string", v)
	}
	return g.callRuntime("gul_int_to_string", g.toInt(v))
}

// conform converts v from tag from to the declared tag to.
func (g *Generator) conform(v value.Value, from, to string) value.Value {
	switch base(to) {
	case "str":
		if base(from) != "str" && (isFloat(v) || from == "int" || from == "bool") {
			return g.box(v, from)
		}
	case "bool":
		if base(from) == "str" {
			return g.callRuntime("gul_str_to_bool", v)
		}
	case "float":
		return g.toFloat(v)
	case "int":
		return g.toInt(v)
	}
	return v
}

// element packs a value into a runtime container cell. Floats keep their
// bit pattern.
func (g *Generator) element(v value.Value) value.Value {
	if isFloat(v) {
		return g.block.NewBitCast(v, tInt)
	}
	return g.toInt(v)
}

func (g *Generator) fromElement(v value.Value, tag string) value.Value {
	if tag == "float" {
		return g.block.NewBitCast(v, tFloat)
	}
	return v
}

// callRuntime calls a runtime symbol, converting and padding arguments to
// its signature. Void calls yield i64 0.
func (g *Generator) callRuntime(name string, args ...value.Value) value.Value {
	fn := g.runtime[name].fn
	params := fn.Sig.Params
	conv := make([]value.Value, len(params))
	for i, pt := range params {
		if i < len(args) {
			conv[i] = g.coerce(args[i], pt)
		} else {
			conv[i] = zero(pt)
		}
	}
	call := g.block.NewCall(fn, conv...)
	if fn.Sig.RetType.Equal(tVoid) {
		return i64(0)
	}
	return call
}

func (g *Generator) printf(format value.Value, v value.Value) {
	g.block.NewCall(g.printer, format, v)
}
