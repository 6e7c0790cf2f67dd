package build

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	gulerrors "gul/internal/errors"
	"gul/internal/scenario"

	"github.com/nalgeon/be"
	"github.com/pkg/errors"
)

func TestDefaultOutput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"hello.mn", "hello"},
		{"dir/prog.mn", "dir/prog"},
		{"script", "script.out"},
		{".mn", ".mn.out"},
		{"notes.mnx", "notes.mnx.out"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			be.Equal(t, DefaultOutput(tt.in), tt.want)
		})
	}
}

func TestConfigOutput(t *testing.T) {
	cfg := &Config{InputFile: "a.mn"}
	be.Equal(t, cfg.Output(), "a")
	cfg.OutputFile = "bin/a"
	be.Equal(t, cfg.Output(), "bin/a")
}

func TestDefaultConfigEnv(t *testing.T) {
	t.Setenv("GUL_LLC", "/opt/llvm/bin/llc")
	t.Setenv("GUL_CC", "")
	cfg := DefaultConfig()
	be.Equal(t, cfg.LLC, "/opt/llvm/bin/llc")
	be.Equal(t, cfg.CC, "cc")
	be.True(t, cfg.CheckSemantics)
}

func TestConfigJSON(t *testing.T) {
	cfg := &Config{InputFile: "x.mn", Verbose: true, Stdout: os.Stdout}
	var decoded map[string]interface{}
	be.Err(t, json.Unmarshal([]byte(cfg.JSON()), &decoded), nil)
	be.Equal(t, decoded["input_file"], "x.mn")
	be.Equal(t, decoded["verbose"], true)
	_, hasWriter := decoded["Stdout"]
	be.True(t, !hasWriter)
}

func TestReporterPlain(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf)
	r.Warning("Warning at 1:1: careful")
	r.Error("Variable 'x' is immutable")
	r.ParseError(gulerrors.NewSyntaxError("Expected ':'", "", 0, 0))
	be.Equal(t, buf.String(), "Warning at 1:1: careful\n"+
		"Variable 'x' is immutable\n"+
		"Parse error: SyntaxError: Expected ':'\n")
}

func TestEmitIR(t *testing.T) {
	ir, err := EmitIR("mn:\n    print(\"Hello, World!\")\n")
	be.Err(t, err, nil)
	be.True(t, strings.Contains(ir, "define i32 @main()"))
	be.True(t, strings.Contains(ir, `c"Hello, World!\00"`))
}

func TestEmitIRNoStatements(t *testing.T) {
	_, err := EmitIR("")
	be.True(t, errors.Cause(err) == ErrNoStatements)
	be.Equal(t, err.Error(), "Parser error: No valid statements found")
}

func TestEmitIRScenarios(t *testing.T) {
	all, err := scenario.Load("testdata")
	be.Err(t, err, nil)
	be.True(t, len(all) > 0)
	for file, cases := range all {
		for _, c := range cases {
			t.Run(file+"/"+c.Name, func(t *testing.T) {
				ir, err := EmitIR(c.Source)
				be.Err(t, err, nil)
				be.True(t, strings.Contains(ir, "define i32 @main()"))
			})
		}
	}
}

func writeSource(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prog.mn")
	be.Err(t, os.WriteFile(path, []byte(src), 0644), nil)
	return path
}

func TestCompileMissingInput(t *testing.T) {
	cfg := &Config{InputFile: filepath.Join(t.TempDir(), "nope.mn")}
	res, err := Compile(context.Background(), cfg)
	be.True(t, err != nil)
	be.True(t, os.IsNotExist(errors.Cause(err)))
	be.True(t, !res.Success)
}

func TestCompileSemanticAbort(t *testing.T) {
	var stderr bytes.Buffer
	cfg := &Config{
		InputFile:      writeSource(t, "mn:\n    let x = 1\n    x = 2\n"),
		CheckSemantics: true,
		LLC:            "llc-must-not-run",
		CC:             "cc-must-not-run",
		Stderr:         &stderr,
	}
	res, err := Compile(context.Background(), cfg)
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "semantic analysis failed with 1 error(s)"))
	be.Equal(t, len(res.Errors), 1)
	be.True(t, strings.Contains(res.Errors[0], "immutable"))
	be.True(t, strings.Contains(stderr.String(), "immutable"))

	_, statErr := os.Stat(cfg.Output() + ".ll")
	be.True(t, os.IsNotExist(statErr))
}

func TestCompileSemanticsDisabled(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("no 'true' binary")
	}
	cfg := &Config{
		InputFile: writeSource(t, "mn:\n    let x = 1\n    x = 2\n    print(x)\n"),
		LLC:       "true",
		CC:        "true",
	}
	res, err := Compile(context.Background(), cfg)
	be.Err(t, err, nil)
	be.True(t, res.Success)
	be.Equal(t, len(res.BuildID), 36)
	be.Equal(t, len(res.Checksum), 64)
}

func TestLinkFailureKeepsObject(t *testing.T) {
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("no 'false' binary")
	}
	cfg := &Config{
		InputFile: writeSource(t, "mn:\n    print(1)\n"),
		LLC:       "true",
		CC:        "false",
	}
	obj := cfg.Output() + ".o"
	be.Err(t, os.WriteFile(obj, []byte("stub"), 0644), nil)

	_, err := Compile(context.Background(), cfg)
	be.True(t, gulerrors.Is(err, gulerrors.LinkError))
	_, statErr := os.Stat(obj)
	be.Err(t, statErr, nil)
}

func TestVerboseProgress(t *testing.T) {
	var out bytes.Buffer
	cfg := &Config{
		InputFile:      writeSource(t, "mn:\n    print(1)\n"),
		CheckSemantics: true,
		Verbose:        true,
		LLC:            "true",
		CC:             "true",
		Stdout:         &out,
	}
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("no 'true' binary")
	}
	_, err := Compile(context.Background(), cfg)
	be.Err(t, err, nil)
	for _, step := range []string{"[1/4] Lexing...", "[2/4] Parsing...", "[3/4] Semantic analysis...", "[4/4] Code generation..."} {
		be.True(t, strings.Contains(out.String(), step))
	}
}

func TestRuntimeEmbedded(t *testing.T) {
	for _, sym := range []string{"gul_print_float", "gul_list_push", "gul_dict_get", "gul_str_to_bool", "gul_backward"} {
		be.True(t, strings.Contains(RuntimeSource, sym))
	}
}

func TestScenariosEndToEnd(t *testing.T) {
	cfg := DefaultConfig()
	if !(Toolchain{LLC: cfg.LLC, CC: cfg.CC}).Available() {
		t.Skip("llc and cc are required")
	}
	all, err := scenario.Load("testdata")
	be.Err(t, err, nil)

	for file, cases := range all {
		for _, c := range cases {
			t.Run(file+"/"+c.Name, func(t *testing.T) {
				run := DefaultConfig()
				run.InputFile = writeSource(t, c.Source)
				run.Stdout, run.Stderr = nil, nil

				res, err := Compile(context.Background(), run)
				be.Err(t, err, nil)
				be.True(t, res.Success)

				cmd := exec.Command(res.OutputFile)
				cmd.Stdin = strings.NewReader(c.Stdin)
				got, err := cmd.Output()
				be.Err(t, err, nil)
				be.Equal(t, string(got), c.Output)
			})
		}
	}
}
