package codegen

import (
	gulerrors "gul/internal/errors"

	"github.com/llir/llvm/ir"
)

// Verify checks that every block of every defined function ends in a
// terminator.
func Verify(m *ir.Module) error {
	for _, f := range m.Funcs {
		for _, b := range f.Blocks {
			if b.Term == nil {
				return gulerrors.NewCodegenError("block '%s' in function '%s' has no terminator", b.Name(), f.Name())
			}
		}
	}
	return nil
}
