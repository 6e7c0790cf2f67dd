package codegen

import (
	"strings"

	"gul/internal/lexer"
	"gul/internal/parser"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
)

// normalizeType maps an annotation to the tag used for dispatch.
func normalizeType(t string) string {
	t = strings.TrimPrefix(strings.TrimSpace(t), "@")
	switch t {
	case "":
		return "any"
	case "flt":
		return "float"
	case "string":
		return "str"
	case "tabl":
		return "table"
	case "tuple":
		return "list"
	}
	return t
}

// base strips a generic argument: list<int> is a list.
func base(tag string) string {
	if i := strings.IndexByte(tag, '<'); i >= 0 {
		return tag[:i]
	}
	return tag
}

// elemType returns the generic argument of tag, or any.
func elemType(tag string) string {
	i := strings.IndexByte(tag, '<')
	if i < 0 || !strings.HasSuffix(tag, ">") {
		return "any"
	}
	return tag[i+1 : len(tag)-1]
}

func llvmType(tag string) types.Type {
	if tag == "float" {
		return tFloat
	}
	return tInt
}

func zero(t types.Type) constant.Constant {
	switch {
	case t.Equal(tFloat):
		return constant.NewFloat(tFloat, 0)
	case t.Equal(types.I32):
		return constant.NewInt(types.I32, 0)
	}
	return constant.NewInt(tInt, 0)
}

// typeOf recomputes the type tag of e against the current variable table.
func (g *Generator) typeOf(e parser.Expr) string {
	switch e := e.(type) {
	case *parser.Literal:
		switch e.Kind {
		case lexer.TokenInteger:
			return "int"
		case lexer.TokenFloat:
			return "float"
		case lexer.TokenString:
			return "str"
		case lexer.TokenTrue, lexer.TokenFalse:
			return "bool"
		}
	case *parser.Identifier:
		if v, ok := g.vars[e.Name]; ok {
			return v.tag
		}
	case *parser.Grouped:
		return g.typeOf(e.Inner)
	case *parser.Await:
		return g.typeOf(e.Inner)
	case *parser.Unary:
		if e.Op == lexer.TokenNot {
			return "bool"
		}
		return g.typeOf(e.Operand)
	case *parser.Binary:
		return g.binaryType(e)
	case *parser.Call:
		return g.callType(e)
	case *parser.TypeConstructor:
		return normalizeType(e.TypeName)
	case *parser.Index:
		tag := g.typeOf(e.Object)
		if base(tag) == "str" {
			return "str"
		}
		return elemType(tag)
	case *parser.Attribute:
		return g.attributeType(e)
	case *parser.ListExpr:
		return g.collectionType("list", e.Elements)
	case *parser.TupleExpr:
		return g.collectionType("list", e.Elements)
	case *parser.SetExpr:
		return g.collectionType("set", e.Elements)
	case *parser.DictExpr:
		values := make([]parser.Expr, len(e.Pairs))
		for i, p := range e.Pairs {
			values[i] = p.Value
		}
		return g.collectionType("dict", values)
	case *parser.Table:
		return "table"
	case *parser.DataFrame:
		return "frame"
	case *parser.Lambda:
		return "fn"
	}
	return "any"
}

func (g *Generator) binaryType(e *parser.Binary) string {
	switch e.Op {
	case lexer.TokenDoubleEqual, lexer.TokenNotEqual, lexer.TokenLT, lexer.TokenLE,
		lexer.TokenGT, lexer.TokenGE, lexer.TokenAnd, lexer.TokenOr:
		return "bool"
	case lexer.TokenPower:
		return "float"
	case lexer.TokenRange:
		return "range"
	}
	l, r := g.typeOf(e.Left), g.typeOf(e.Right)
	if e.Op == lexer.TokenPlus && (l == "str" || r == "str") {
		return "str"
	}
	if l == "float" || r == "float" {
		return "float"
	}
	return "int"
}

func (g *Generator) callType(e *parser.Call) string {
	switch callee := parser.Unwrap(e.Callee).(type) {
	case *parser.Identifier:
		name := callee.Name
		switch name {
		case "input", "str":
			return "str"
		case "int", "len":
			return "int"
		case "float":
			return "float"
		case "bool":
			return "bool"
		case "print", "println":
			return "any"
		}
		if strings.HasPrefix(name, "@") {
			return normalizeType(name)
		}
		if _, ok := g.layouts[name]; ok {
			return name
		}
		if fn, ok := g.userFunction(name); ok {
			return fn.ret
		}
		if target, ok := g.aliases[name]; ok {
			return g.runtime[target].tag
		}
		if _, entry := g.lookupRuntime(name); entry != nil {
			return entry.tag
		}
	case *parser.Attribute:
		if prefix, ok := g.moduleHandle(callee.Object); ok {
			if entry, ok := g.runtime[prefix+callee.Name]; ok {
				return entry.tag
			}
			return "any"
		}
		tag := g.typeOf(callee.Object)
		if l, ok := g.layouts[base(tag)]; ok {
			if m, ok := l.methods[callee.Name]; ok {
				return m.ret
			}
		}
		switch callee.Name {
		case "len":
			return "int"
		case "get":
			return elemType(tag)
		}
	}
	return "any"
}

func (g *Generator) attributeType(e *parser.Attribute) string {
	if id, ok := parser.Unwrap(e.Object).(*parser.Identifier); ok {
		if _, local := g.vars[id.Name]; !local {
			if _, ok := g.enums[id.Name]; ok {
				return "int"
			}
		}
	}
	if f := g.fieldOf(g.typeOf(e.Object), e.Name); f != nil {
		return f.tag
	}
	if e.Name == "len" {
		return "int"
	}
	return "any"
}

// collectionType is kind<T> when every element has the same scalar tag.
func (g *Generator) collectionType(kind string, elems []parser.Expr) string {
	if len(elems) == 0 {
		return kind
	}
	first := g.typeOf(elems[0])
	switch first {
	case "int", "float", "str", "bool":
	default:
		return kind
	}
	for _, e := range elems[1:] {
		if g.typeOf(e) != first {
			return kind
		}
	}
	return kind + "<" + first + ">"
}

// fieldOf resolves a field by the object's struct type, falling back to
// the first declared struct that has a field of that name.
func (g *Generator) fieldOf(tag, name string) *field {
	if l, ok := g.layouts[base(tag)]; ok {
		return l.field(name)
	}
	// TODO: take the analyzer's resolved type here; two structs sharing a
	// field name resolve to whichever was declared first.
	for _, l := range g.structs {
		if f := l.field(name); f != nil {
			return f
		}
	}
	return nil
}

// moduleHandle reports whether e names an imported module that is not
// shadowed by a local.
func (g *Generator) moduleHandle(e parser.Expr) (string, bool) {
	id, ok := parser.Unwrap(e).(*parser.Identifier)
	if !ok {
		return "", false
	}
	if _, local := g.vars[id.Name]; local {
		return "", false
	}
	prefix, ok := g.modules[id.Name]
	return prefix, ok
}
