package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nalgeon/be"
)

const doc = "# Basics\n\n" +
	"Some prose.\n\n" +
	"## Test: hello\n\n" +
	"```gul\nmn:\n    print(\"hi\")\n```\n\n" +
	"```output\nhi\n```\n\n" +
	"## Test: echo\n\n" +
	"```gul\nmn:\n    print(input())\n```\n\n" +
	"```input\nabc\n```\n\n" +
	"```output\nabc\n```\n"

func TestExtract(t *testing.T) {
	cases, err := Extract(doc)
	be.Err(t, err, nil)
	be.Equal(t, len(cases), 2)

	be.Equal(t, cases[0].Name, "hello")
	be.Equal(t, cases[0].Source, "mn:\n    print(\"hi\")\n")
	be.Equal(t, cases[0].Output, "hi\n")
	be.Equal(t, cases[0].Stdin, "")

	be.Equal(t, cases[1].Name, "echo")
	be.Equal(t, cases[1].Stdin, "abc\n")
	be.Equal(t, cases[1].Output, "abc\n")
}

func TestExtractErrors(t *testing.T) {
	tests := []struct {
		name string
		md   string
	}{
		{"fence outside test", "```gul\nmn:\n    pass\n```\n"},
		{"missing source", "## Test: empty\n\n```output\n1\n```\n"},
		{"unknown language", "## Test: odd\n\n```gul\nmn:\n    pass\n```\n\n```python\nx\n```\n"},
		{"duplicate source", "## Test: twice\n\n```gul\nmn:\n    pass\n```\n\n```gul\nmn:\n    pass\n```\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(tt.md)
			be.True(t, err != nil)
		})
	}
}

func TestUntaggedFencesIgnored(t *testing.T) {
	cases, err := Extract("```\nnot a test\n```\n")
	be.Err(t, err, nil)
	be.Equal(t, len(cases), 0)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "basics.md"), []byte(doc), 0644)
	be.Err(t, err, nil)

	all, err := Load(dir)
	be.Err(t, err, nil)
	be.Equal(t, len(all["basics"]), 2)
}
