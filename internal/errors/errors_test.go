package errors

import (
	"fmt"
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func TestErrorRendering(t *testing.T) {
	tests := []struct {
		name string
		err  *GulError
		want []string
	}{
		{
			"message only",
			NewCodegenError("block %q has no terminator", "entry"),
			[]string{`CodegenError: block "entry" has no terminator`},
		},
		{
			"location without source",
			NewSyntaxError("Expected ':'", "a.mn", 3, 7),
			[]string{"SyntaxError: Expected ':'", "at a.mn:3:7"},
		},
		{
			"caret under column",
			NewSemanticError("Undefined variable 'y'", "", 2, 5).WithSource("    y = 1"),
			[]string{"at 2:5", "  2 |     y = 1", "          ^"},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := test.err.Error()
			for _, want := range test.want {
				be.True(t, strings.Contains(got, want))
			}
		})
	}
}

func TestWithSourceLines(t *testing.T) {
	lines := []string{"mn:", "    print(x)\r"}
	err := NewSemanticError("Undefined variable 'x'", "", 2, 11).WithSourceLines(lines)
	be.Equal(t, err.Source, "    print(x)")

	outOfRange := NewSemanticError("boom", "", 9, 1).WithSourceLines(lines)
	be.Equal(t, outOfRange.Source, "")
}

func TestIs(t *testing.T) {
	be.True(t, Is(NewLinkError("cc exited with status 1"), LinkError))
	be.True(t, !Is(NewLinkError("x"), CodegenError))
	be.True(t, !Is(fmt.Errorf("plain"), LinkError))
	be.True(t, Is(fmt.Errorf("wrapped: %w", NewCodegenError("x")), CodegenError))
}
