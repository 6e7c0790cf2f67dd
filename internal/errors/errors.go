// internal/errors/errors.go
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorType represents the pipeline stage that produced an error
type ErrorType string

const (
	LexError      ErrorType = "LexError"
	SyntaxError   ErrorType = "SyntaxError"
	SemanticError ErrorType = "SemanticError"
	CodegenError  ErrorType = "CodegenError"
	LinkError     ErrorType = "LinkError"
)

// SourceLocation represents a location in source code
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

func (l SourceLocation) String() string {
	if l.File == "" {
		return fmt.Sprintf("%d:%d", l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// GulError represents a compiler error with source location information
type GulError struct {
	Type     ErrorType
	Message  string
	Location SourceLocation
	Source   string // The source line where error occurred
}

// Error implements the error interface
func (e *GulError) Error() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s: %s", e.Type, e.Message))

	if e.Location.Line > 0 {
		sb.WriteString(fmt.Sprintf("\n  at %s", e.Location))

		if e.Source != "" {
			gutter := fmt.Sprintf("  %d | ", e.Location.Line)
			sb.WriteString(fmt.Sprintf("\n\n%s%s\n", gutter, e.Source))
			sb.WriteString(strings.Repeat(" ", len(gutter)))
			if e.Location.Column > 0 {
				sb.WriteString(strings.Repeat(" ", e.Location.Column-1))
			}
			sb.WriteString("^")
		}
	}

	return sb.String()
}

func newError(t ErrorType, message, file string, line, column int) *GulError {
	return &GulError{
		Type:    t,
		Message: message,
		Location: SourceLocation{
			File:   file,
			Line:   line,
			Column: column,
		},
	}
}

// NewLexError creates an error for an ERROR token
func NewLexError(message string, file string, line, column int) *GulError {
	return newError(LexError, message, file, line, column)
}

// NewSyntaxError creates a new syntax error
func NewSyntaxError(message string, file string, line, column int) *GulError {
	return newError(SyntaxError, message, file, line, column)
}

// NewSemanticError creates a new semantic error
func NewSemanticError(message string, file string, line, column int) *GulError {
	return newError(SemanticError, message, file, line, column)
}

// NewCodegenError creates an error raised while lowering to IR.
func NewCodegenError(format string, args ...interface{}) *GulError {
	return &GulError{Type: CodegenError, Message: fmt.Sprintf(format, args...)}
}

// NewLinkError creates an error for a failed llc or cc invocation.
func NewLinkError(format string, args ...interface{}) *GulError {
	return &GulError{Type: LinkError, Message: fmt.Sprintf(format, args...)}
}

// WithSource adds source code context to the error
func (e *GulError) WithSource(source string) *GulError {
	e.Source = source
	return e
}

// WithSourceLines picks the offending line out of the full source.
func (e *GulError) WithSourceLines(lines []string) *GulError {
	if e.Location.Line > 0 && e.Location.Line <= len(lines) {
		e.Source = strings.TrimRight(lines[e.Location.Line-1], "\r")
	}
	return e
}

// Is reports whether err, or an error it wraps, is a *GulError of type t.
func Is(err error, t ErrorType) bool {
	var ge *GulError
	return stderrors.As(err, &ge) && ge.Type == t
}
