package main

import (
	"os"
	"testing"

	"github.com/nalgeon/be"
	"github.com/rogpeppe/go-internal/testscript"
)

func TestMain(m *testing.M) {
	testscript.Main(m, map[string]func(){
		"gul-compile": main,
	})
}

func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata/script",
		Setup: func(env *testscript.Env) error {
			env.Setenv("NO_COLOR", "1")
			return nil
		},
	})
}

func TestHoistFlags(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"no args", []string{"gul-compile"}, []string{"gul-compile"}},
		{"flags first", []string{"gul-compile", "-o", "out", "a.mn"}, []string{"gul-compile", "-o", "out", "--", "a.mn"}},
		{"flags after input", []string{"gul-compile", "a.mn", "--verbose", "-o", "out"}, []string{"gul-compile", "--verbose", "-o", "out", "--", "a.mn"}},
		{"double dash", []string{"gul-compile", "--keep-obj", "--", "-odd.mn"}, []string{"gul-compile", "--keep-obj", "--", "-odd.mn"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			be.Equal(t, hoistFlags(tt.in), tt.want)
		})
	}
}

func TestRunWithoutArgs(t *testing.T) {
	stdout, err := os.CreateTemp(t.TempDir(), "stdout")
	be.Err(t, err, nil)
	defer stdout.Close()

	be.Equal(t, run([]string{"gul-compile"}, stdout, os.Stderr), 0)
	data, err := os.ReadFile(stdout.Name())
	be.Err(t, err, nil)
	be.True(t, len(data) > 0)
}
