// internal/build/config.go
package build

import (
	"encoding/json"
	"io"
	"os"
	"strings"
)

// Config is the full set of options for one compiler invocation
type Config struct {
	InputFile      string `json:"input_file"`
	OutputFile     string `json:"output_file"`
	CheckSemantics bool   `json:"check_semantics"`
	Verbose        bool   `json:"verbose"`
	EmitLLVM       bool   `json:"emit_llvm"`
	DumpAST        bool   `json:"dump_ast"`
	KeepObject     bool   `json:"keep_object"`
	LLC            string `json:"llc"`
	CC             string `json:"cc"`

	Stdout io.Writer `json:"-"`
	Stderr io.Writer `json:"-"`
}

// DefaultConfig returns a config that checks semantics and finds llc and
// cc through GUL_LLC and GUL_CC, falling back to PATH.
func DefaultConfig() *Config {
	return &Config{
		CheckSemantics: true,
		LLC:            envOr("GUL_LLC", "llc"),
		CC:             envOr("GUL_CC", "cc"),
		Stdout:         os.Stdout,
		Stderr:         os.Stderr,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// DefaultOutput strips a trailing .mn from the input path, or appends
// .out when there is none.
func DefaultOutput(input string) string {
	if strings.HasSuffix(input, ".mn") && len(input) > len(".mn") {
		return strings.TrimSuffix(input, ".mn")
	}
	return input + ".out"
}

// Output is the executable path this config will produce.
func (c *Config) Output() string {
	if c.OutputFile != "" {
		return c.OutputFile
	}
	return DefaultOutput(c.InputFile)
}

// JSON renders the config for verbose logs.
func (c *Config) JSON() string {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

func (c *Config) stdout() io.Writer {
	if c.Stdout == nil {
		return io.Discard
	}
	return c.Stdout
}

func (c *Config) stderr() io.Writer {
	if c.Stderr == nil {
		return io.Discard
	}
	return c.Stderr
}
