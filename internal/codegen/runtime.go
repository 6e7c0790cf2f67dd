package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
)

var (
	tInt   = types.I64
	tFloat = types.Double
	tVoid  = types.Void
)

// runtimeFunc describes one symbol exported by the embedded C runtime.
// tag is the type tag the generator assigns to the call's result.
type runtimeFunc struct {
	name   string
	ret    types.Type
	params []types.Type
	tag    string
}

func rt(name string, ret types.Type, tag string, params ...types.Type) runtimeFunc {
	return runtimeFunc{name: name, ret: ret, params: params, tag: tag}
}

var mathUnary = []string{
	"sin", "cos", "tan", "asin", "acos", "atan",
	"exp", "log", "log10", "log2", "sqrt", "cbrt",
	"floor", "ceil", "round", "trunc", "abs",
}

var mathBinary = []string{"pow", "atan2", "min", "max"}

// RuntimeABI is the contract between generated code and stdlib.c.
var RuntimeABI = buildABI()

func buildABI() []runtimeFunc {
	abi := []runtimeFunc{
		rt("gul_print_float", types.I32, "int", tFloat),
		rt("gul_input_str", tInt, "str"),
		rt("gul_input_int", tInt, "int"),
		rt("gul_input_flt", tFloat, "float"),
		rt("gul_malloc", tInt, "int", tInt),

		rt("gul_int_to_string", tInt, "str", tInt),
		rt("gul_float_to_string", tInt, "str", tFloat),
		rt("gul_str_to_bool", tInt, "bool", tInt),
		rt("gul_str_to_int", tInt, "int", tInt),
		rt("gul_str_to_float", tFloat, "float", tInt),

		rt("gul_string_concat", tInt, "str", tInt, tInt),
		rt("gul_string_len", tInt, "int", tInt),
		rt("gul_string_get", tInt, "str", tInt, tInt),
		rt("gul_string_substr", tInt, "str", tInt, tInt, tInt),
		rt("gul_string_eq", tInt, "bool", tInt, tInt),

		rt("gul_list_alloc", tInt, "list", tInt),
		rt("gul_list_push", tVoid, "any", tInt, tInt),
		rt("gul_list_get", tInt, "any", tInt, tInt),
		rt("gul_list_set", tVoid, "any", tInt, tInt, tInt),
		rt("gul_list_len", tInt, "int", tInt),

		rt("gul_dict_alloc", tInt, "dict", tInt),
		rt("gul_dict_set", tVoid, "any", tInt, tInt, tInt),
		rt("gul_dict_get", tInt, "any", tInt, tInt),
		rt("gul_dict_len", tInt, "int", tInt),

		rt("gul_set_alloc", tInt, "set", tInt),
		rt("gul_set_add", tVoid, "any", tInt, tInt),

		rt("gul_table_alloc", tInt, "table", tInt, tInt),
		rt("gul_table_set_col_name", tVoid, "any", tInt, tInt, tInt),
		rt("gul_table_set_row", tVoid, "any", tInt, tInt, tInt, tInt),

		rt("gul_frame_create", tInt, "frame", tInt, tInt),
		rt("gul_frame_set_column_name", tVoid, "any", tInt, tInt, tInt),

		rt("gul_ml_sigmoid", tFloat, "float", tFloat),
		rt("gul_ml_tanh", tFloat, "float", tFloat),
		rt("gul_ml_relu", tFloat, "float", tFloat),

		rt("gul_tensor_alloc", tInt, "tensor", tInt),
		rt("gul_tensor_free", tVoid, "any", tInt),
		rt("gul_tensor_fill", tVoid, "any", tInt, tInt, tFloat),
		rt("gul_tensor_add", tVoid, "any", tInt, tInt, tInt, tInt),
		rt("gul_tensor_mul", tVoid, "any", tInt, tInt, tInt, tInt),
		rt("gul_tensor_matmul", tVoid, "any", tInt, tInt, tInt, tInt, tInt, tInt),
		rt("gul_tensor_sum", tFloat, "float", tInt, tInt),
		rt("gul_tensor_mean", tFloat, "float", tInt, tInt),

		rt("gul_file_open", tInt, "int", tInt, tInt),
		rt("gul_file_close", tVoid, "any", tInt),
		rt("gul_file_read_line", tInt, "str", tInt),

		rt("gul_autograd_begin", tVoid, "any"),
		rt("gul_autograd_end", tVoid, "any"),
		rt("gul_make_var", tInt, "int", tFloat),
		rt("gul_var_val", tFloat, "float", tInt),
		rt("gul_var_grad", tFloat, "float", tInt),
		rt("gul_var_add", tInt, "int", tInt, tInt),
		rt("gul_var_mul", tInt, "int", tInt, tInt),
		rt("gul_var_sin", tInt, "int", tInt),
		rt("gul_backward", tVoid, "any", tInt),

		rt("gul_chan_create", tInt, "chan", tInt),
		rt("gul_exec_foreign", tVoid, "any", tInt, tInt),
	}
	for _, name := range mathUnary {
		abi = append(abi, rt("gul_math_"+name, tFloat, "float", tFloat))
	}
	for _, name := range mathBinary {
		abi = append(abi, rt("gul_math_"+name, tFloat, "float", tFloat, tFloat))
	}
	return abi
}

// declareRuntime adds printf and every runtime symbol to the module.
func (g *Generator) declareRuntime() {
	g.printer = g.module.NewFunc("printf", types.I32, ir.NewParam("format", tInt))
	g.printer.Sig.Variadic = true

	for _, fn := range RuntimeABI {
		params := make([]*ir.Param, len(fn.params))
		for i, t := range fn.params {
			params[i] = ir.NewParam(argName(i), t)
		}
		g.runtime[fn.name] = &runtimeEntry{fn: g.module.NewFunc(fn.name, fn.ret, params...), tag: fn.tag}
	}
}

type runtimeEntry struct {
	fn  *ir.Func
	tag string
}

func argName(i int) string {
	return string(rune('a' + i))
}

// lookupRuntime resolves a builtin by its full symbol or without the gul_
// prefix.
func (g *Generator) lookupRuntime(name string) (string, *runtimeEntry) {
	if e, ok := g.runtime[name]; ok {
		return name, e
	}
	if e, ok := g.runtime["gul_"+name]; ok {
		return "gul_" + name, e
	}
	return "", nil
}
