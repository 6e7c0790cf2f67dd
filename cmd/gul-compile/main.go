// cmd/gul-compile/main.go
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"gul/internal/build"
	"gul/internal/formatter"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

const VERSION = "0.1.0"

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

// run is main without the exit, returning the process status.
func run(args []string, stdout, stderr io.Writer) int {
	logger := log.New(stderr, "", 0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := newApp(stdout, stderr)
	if err := app.RunContext(ctx, hoistFlags(args)); err != nil {
		if verboseRequested(args) {
			logger.Printf("Error: %+v", err)
		} else {
			logger.Printf("Error: %v", err)
		}
		return 1
	}
	return 0
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "gul-compile",
		Usage:     "compile GUL programs to native executables",
		UsageText: "gul-compile <input.mn> [-o output] [--verbose] [--no-semantic] [--emit-llvm] [--dump-ast] [--keep-obj] [--format]",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "write the executable to `FILE`",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "print progress for each stage",
			},
			&cli.BoolFlag{
				Name:  "no-semantic",
				Usage: "skip semantic analysis",
			},
			&cli.BoolFlag{
				Name:  "emit-llvm",
				Usage: "keep the generated .ll file",
			},
			&cli.BoolFlag{
				Name:  "dump-ast",
				Usage: "print the parsed AST",
			},
			&cli.BoolFlag{
				Name:  "keep-obj",
				Usage: "keep the intermediate object file",
			},
			&cli.BoolFlag{
				Name:  "format",
				Usage: "print the source in canonical layout instead of compiling",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				showUsage(stdout)
				return nil
			}
			if c.NArg() > 1 {
				return fmt.Errorf("expected one input file, got %d", c.NArg())
			}

			if c.Bool("format") {
				return formatFile(c.Args().First(), stdout, stderr)
			}

			cfg := build.DefaultConfig()
			cfg.InputFile = c.Args().First()
			cfg.OutputFile = c.String("output")
			cfg.Verbose = c.Bool("verbose")
			cfg.CheckSemantics = !c.Bool("no-semantic")
			cfg.EmitLLVM = c.Bool("emit-llvm")
			cfg.DumpAST = c.Bool("dump-ast")
			cfg.KeepObject = c.Bool("keep-obj")
			cfg.Stdout = stdout
			cfg.Stderr = stderr

			result, err := build.Compile(c.Context, cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Compiled %s -> %s\n", cfg.InputFile, result.OutputFile)
			return nil
		},
	}
}

func formatFile(path string, stdout, stderr io.Writer) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading %s", path)
	}
	out, errs := formatter.Source(string(src), path)
	if len(errs) > 0 {
		reporter := build.NewReporter(stderr)
		for _, e := range errs {
			reporter.ParseError(e)
		}
		return errors.Errorf("%s has %d parse error(s)", path, len(errs))
	}
	_, err = io.WriteString(stdout, out)
	return err
}

func showUsage(w io.Writer) {
	fmt.Fprintf(w, "GUL Compiler v%s\n", VERSION)
	fmt.Fprintln(w, "Usage: gul-compile <input.mn> [-o output] [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fmt.Fprintln(w, "  -o, --output FILE   write the executable to FILE")
	fmt.Fprintln(w, "  -v, --verbose       print progress for each stage")
	fmt.Fprintln(w, "  --no-semantic       skip semantic analysis")
	fmt.Fprintln(w, "  --emit-llvm         keep the generated .ll file")
	fmt.Fprintln(w, "  --dump-ast          print the parsed AST")
	fmt.Fprintln(w, "  --keep-obj          keep the intermediate object file")
	fmt.Fprintln(w, "  --format            print the source in canonical layout")
}

// valued lists the flags that consume the following argument.
var valued = map[string]bool{"-o": true, "--o": true, "-output": true, "--output": true}

// hoistFlags moves flags ahead of positional arguments so that
// "gul-compile prog.mn -o prog" parses the same as "gul-compile -o prog prog.mn".
func hoistFlags(args []string) []string {
	if len(args) == 0 {
		return args
	}
	var flags, positional []string
	rest := args[1:]
	for i := 0; i < len(rest); i++ {
		a := rest[i]
		switch {
		case a == "--":
			positional = append(positional, rest[i+1:]...)
			i = len(rest)
		case strings.HasPrefix(a, "-") && a != "-":
			flags = append(flags, a)
			if valued[a] && i+1 < len(rest) {
				flags = append(flags, rest[i+1])
				i++
			}
		default:
			positional = append(positional, a)
		}
	}
	out := append([]string{args[0]}, flags...)
	if len(positional) > 0 {
		out = append(out, "--")
		out = append(out, positional...)
	}
	return out
}

func verboseRequested(args []string) bool {
	if len(args) < 2 {
		return false
	}
	for _, a := range args[1:] {
		if a == "-v" || a == "--verbose" || a == "-verbose" {
			return true
		}
	}
	return false
}
