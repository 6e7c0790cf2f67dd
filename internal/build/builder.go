// internal/build/builder.go
package build

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"gul/internal/codegen"
	"gul/internal/lexer"
	"gul/internal/parser"
	"gul/internal/semantic"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/kr/pretty"
	"github.com/pkg/errors"
)

// CompileResult describes the outcome of one compilation
type CompileResult struct {
	Success    bool          `json:"success"`
	OutputFile string        `json:"output_file"`
	Errors     []string      `json:"errors"`
	Warnings   []string      `json:"warnings"`
	IRBytes    int           `json:"ir_bytes"`
	Checksum   string        `json:"checksum"`
	BuildID    string        `json:"build_id"`
	BuildTime  time.Duration `json:"build_time"`
}

// ErrNoStatements is returned when parsing recovers nothing to compile.
var ErrNoStatements = errors.New("Parser error: No valid statements found")

// Builder runs the pipeline for a single source file
type Builder struct {
	config   *Config
	out      io.Writer
	reporter *Reporter
	tools    Toolchain
}

// NewBuilder creates a builder for config
func NewBuilder(config *Config) *Builder {
	return &Builder{
		config:   config,
		out:      config.stdout(),
		reporter: NewReporter(config.stderr()),
		tools:    Toolchain{LLC: config.LLC, CC: config.CC},
	}
}

// Compile builds cfg.InputFile into a native executable.
func Compile(ctx context.Context, cfg *Config) (*CompileResult, error) {
	return NewBuilder(cfg).Compile(ctx)
}

func (b *Builder) step(n int, msg string) {
	if b.config.Verbose {
		fmt.Fprintf(b.out, "[%d/4] %s\n", n, msg)
	}
}

func (b *Builder) logf(format string, args ...interface{}) {
	if b.config.Verbose {
		fmt.Fprintf(b.out, format+"\n", args...)
	}
}

// Compile runs every stage and leaves the executable at the output path.
// Intermediate files are removed on success unless the config keeps them.
func (b *Builder) Compile(ctx context.Context) (*CompileResult, error) {
	start := time.Now()
	output := b.config.Output()
	result := &CompileResult{OutputFile: output, BuildID: uuid.NewString()}

	b.logf("Compiling %s (build %s)", b.config.InputFile, result.BuildID)
	b.logf("%s", b.config.JSON())

	src, err := os.ReadFile(b.config.InputFile)
	if err != nil {
		return result, errors.Wrapf(err, "reading %s", b.config.InputFile)
	}

	ir, err := b.lower(string(src), result)
	if err != nil {
		return result, err
	}
	result.IRBytes = len(ir)
	sum := sha256.Sum256([]byte(ir))
	result.Checksum = hex.EncodeToString(sum[:])

	ll := output + ".ll"
	obj := output + ".o"
	if err := os.WriteFile(ll, []byte(ir), 0644); err != nil {
		return result, errors.Wrapf(err, "writing %s", ll)
	}
	b.logf("Wrote %s (%s)", ll, humanize.Bytes(uint64(len(ir))))

	if err := b.tools.Assemble(ctx, ll, obj); err != nil {
		return result, err
	}
	if err := b.tools.Link(ctx, obj, output); err != nil {
		// the object stays behind for inspection
		return result, err
	}

	if !b.config.EmitLLVM {
		os.Remove(ll)
	}
	if !b.config.KeepObject {
		os.Remove(obj)
	}

	if info, err := os.Stat(output); err == nil {
		b.logf("Wrote %s (%s)", output, humanize.Bytes(uint64(info.Size())))
	}
	result.Success = true
	result.BuildTime = time.Since(start)
	b.logf("Build complete in %s", result.BuildTime.Round(time.Millisecond))
	return result, nil
}

// lower runs the front end, the analyzer and the code generator and
// returns the module as IR text.
func (b *Builder) lower(src string, result *CompileResult) (string, error) {
	b.step(1, "Lexing...")
	tokens := lexer.Tokenize(src)

	b.step(2, "Parsing...")
	p := parser.NewParserWithSource(tokens, src, b.config.InputFile)
	prog := p.Parse()
	for _, err := range p.Errors {
		b.reporter.ParseError(err)
		result.Errors = append(result.Errors, err.Error())
	}
	if len(prog.Statements) == 0 && len(prog.Functions) == 0 && len(prog.MainEntry) == 0 {
		return "", ErrNoStatements
	}
	if b.config.DumpAST {
		pretty.Fprintf(b.out, "%# v\n", prog)
	}

	if b.config.CheckSemantics {
		b.step(3, "Semantic analysis...")
		analysis := semantic.Analyze(prog)
		for _, msg := range analysis.Errors {
			b.reporter.Error(msg)
		}
		for _, msg := range analysis.Warnings {
			b.reporter.Warning(msg)
		}
		result.Errors = append(result.Errors, analysis.Errors...)
		result.Warnings = append(result.Warnings, analysis.Warnings...)
		if !analysis.OK() {
			return "", errors.Errorf("semantic analysis failed with %d error(s)", len(analysis.Errors))
		}
	}

	b.step(4, "Code generation...")
	gen := codegen.NewGenerator()
	m, err := gen.Generate(prog)
	for _, msg := range gen.Warnings() {
		b.reporter.Warning(msg)
	}
	result.Warnings = append(result.Warnings, gen.Warnings()...)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return m.String(), nil
}

// EmitIR runs the front end and code generator on src without invoking
// any external tool.
func EmitIR(src string) (string, error) {
	cfg := &Config{InputFile: "<input>"}
	return NewBuilder(cfg).lower(src, &CompileResult{})
}
