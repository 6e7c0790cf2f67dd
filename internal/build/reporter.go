// internal/build/reporter.go
package build

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

const (
	red    = "\033[31m"
	yellow = "\033[33m"
	reset  = "\033[0m"
)

// Reporter writes diagnostics, colouring them only on a terminal
type Reporter struct {
	w     io.Writer
	color bool
}

func NewReporter(w io.Writer) *Reporter {
	return &Reporter{w: w, color: isTerminal(w)}
}

func isTerminal(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (r *Reporter) paint(color, msg string) {
	if r.color {
		fmt.Fprintf(r.w, "%s%s%s\n", color, msg, reset)
		return
	}
	fmt.Fprintln(r.w, msg)
}

// ParseError reports a lexer or parser diagnostic.
func (r *Reporter) ParseError(err error) {
	r.paint(red, "Parse error: "+err.Error())
}

func (r *Reporter) Error(msg string) {
	r.paint(red, msg)
}

func (r *Reporter) Warning(msg string) {
	r.paint(yellow, msg)
}
