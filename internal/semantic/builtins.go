package semantic

import "strings"

var coreBuiltins = map[string]string{
	"print":   "any",
	"println": "any",
	"input":   "str",
	"len":     "int",
	"str":     "str",
	"int":     "int",
	"float":   "float",
	"bool":    "bool",
}

var mathBuiltins = []string{
	"sin", "cos", "tan", "asin", "acos", "atan", "atan2",
	"exp", "log", "log10", "log2", "pow", "sqrt", "cbrt",
	"floor", "ceil", "round", "trunc", "abs", "min", "max",
}

// runtimeBuiltins maps the remaining runtime entry points to their
// result types.
var runtimeBuiltins = map[string]string{
	"gul_print_float":     "int",
	"gul_ml_sigmoid":      "float",
	"gul_ml_tanh":         "float",
	"gul_ml_relu":         "float",
	"gul_tensor_alloc":    "any",
	"gul_tensor_free":     "any",
	"gul_tensor_fill":     "any",
	"gul_tensor_add":      "any",
	"gul_tensor_mul":      "any",
	"gul_tensor_matmul":   "any",
	"gul_tensor_sum":      "float",
	"gul_tensor_mean":     "float",
	"gul_file_open":       "any",
	"gul_file_close":      "any",
	"gul_file_read_line":  "str",
	"gul_string_len":      "int",
	"gul_string_substr":   "str",
	"gul_string_get":      "str",
	"gul_string_eq":       "bool",
	"gul_str_to_bool":     "bool",
	"gul_str_to_int":      "int",
	"gul_str_to_float":    "float",
	"gul_list_alloc":      "list",
	"gul_list_push":       "any",
	"gul_list_get":        "any",
	"gul_list_set":        "any",
	"gul_list_len":        "int",
	"gul_dict_alloc":      "dict",
	"gul_dict_set":        "any",
	"gul_dict_get":        "any",
	"gul_dict_len":        "int",
	"gul_set_alloc":       "set",
	"gul_set_add":         "any",
	"gul_string_concat":   "str",
	"gul_int_to_string":   "str",
	"gul_float_to_string": "str",
	"gul_malloc":          "any",
	"gul_chan_create":     "any",
	"gul_autograd_begin":  "any",
	"gul_autograd_end":    "any",
	"gul_make_var":        "any",
	"gul_var_val":         "float",
	"gul_var_grad":        "float",
	"gul_var_add":         "any",
	"gul_var_mul":         "any",
	"gul_var_sin":         "any",
	"gul_backward":        "any",
}

func defineBuiltin(scope *Scope, name, returns string) {
	scope.Define(&Symbol{Name: name, Type: "fn", IsFunction: true, Returns: returns})
}

// newRootScope returns a scope holding every builtin. Runtime entry
// points are reachable with and without their gul_ prefix.
func newRootScope() *Scope {
	root := NewScope(nil)
	for name, ret := range coreBuiltins {
		defineBuiltin(root, name, ret)
	}
	for _, name := range mathBuiltins {
		defineBuiltin(root, "gul_math_"+name, "float")
		defineBuiltin(root, "math_"+name, "float")
	}
	for name, ret := range runtimeBuiltins {
		defineBuiltin(root, name, ret)
		defineBuiltin(root, strings.TrimPrefix(name, "gul_"), ret)
	}
	return root
}

// constructorType maps an @-prefixed constructor name to the type it
// produces. The second result is false for unknown names.
func constructorType(name string) (string, bool) {
	switch strings.TrimPrefix(name, "@") {
	case "int":
		return "int", true
	case "flt", "float":
		return "float", true
	case "str", "string":
		return "str", true
	case "bool":
		return "bool", true
	case "tabl":
		return "table", true
	case "list", "tuple", "set", "dict", "tensor", "frame", "chan":
		return strings.TrimPrefix(name, "@"), true
	}
	return "", false
}
