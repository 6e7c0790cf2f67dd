// internal/build/linker.go
package build

import (
	"bytes"
	"context"
	_ "embed"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	gulerrors "gul/internal/errors"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// RuntimeSource is the C runtime every program links against.
//
//go:embed runtime/stdlib.c
var RuntimeSource string

// Toolchain drives the external llc and cc processes
type Toolchain struct {
	LLC string
	CC  string
}

// run executes a tool and turns a failure into a LinkError carrying the
// tool's output.
func run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return errors.Wrapf(ctx.Err(), "%s interrupted", filepath.Base(name))
		}
		msg := strings.TrimSpace(out.String())
		if msg == "" {
			msg = err.Error()
		}
		return errors.WithStack(gulerrors.NewLinkError("%s failed: %s", filepath.Base(name), msg))
	}
	return nil
}

// Assemble turns textual IR into a relocatable object.
func (t Toolchain) Assemble(ctx context.Context, ll, obj string) error {
	return run(ctx, t.LLC, "-filetype=obj", "-relocation-model=pic", "-o", obj, ll)
}

// Link writes the embedded runtime to a temporary file and links it with
// obj into an executable. The temporary file is removed on return.
func (t Toolchain) Link(ctx context.Context, obj, out string) error {
	rt := filepath.Join(os.TempDir(), "gul_runtime_"+uuid.NewString()+".c")
	if err := os.WriteFile(rt, []byte(RuntimeSource), 0644); err != nil {
		return errors.Wrap(err, "writing runtime source")
	}
	defer os.Remove(rt)

	return run(ctx, t.CC, obj, rt, "-o", out, "-lm")
}

// Available reports whether both tools can be found.
func (t Toolchain) Available() bool {
	for _, tool := range []string{t.LLC, t.CC} {
		if _, err := exec.LookPath(tool); err != nil {
			return false
		}
	}
	return true
}
