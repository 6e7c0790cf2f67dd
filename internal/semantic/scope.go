package semantic

// Symbol is a named entity visible to the analyzer.
type Symbol struct {
	Name       string
	Type       string
	Mutable    bool
	IsFunction bool
	Returns    string // return type for functions, "any" when undeclared
	Line       int
	Column     int
}

// Scope is one level of the lexical scope tree.
type Scope struct {
	symbols map[string]*Symbol
	parent  *Scope
}

func NewScope(parent *Scope) *Scope {
	return &Scope{symbols: make(map[string]*Symbol), parent: parent}
}

func (s *Scope) Parent() *Scope {
	return s.parent
}

// Define binds sym in this scope, replacing any binding of the same name.
func (s *Scope) Define(sym *Symbol) {
	s.symbols[sym.Name] = sym
}

// Resolve walks the parent chain.
func (s *Scope) Resolve(name string) (*Symbol, bool) {
	for scope := s; scope != nil; scope = scope.parent {
		if sym, ok := scope.symbols[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

func (s *Scope) ExistsInCurrent(name string) bool {
	_, ok := s.symbols[name]
	return ok
}
