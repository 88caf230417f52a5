package interpreter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// ErrNotFound is returned by Resolve when none of the candidate names
// resolve to an executable on PATH.
var ErrNotFound = errors.New("interpreter not found in PATH")

// ToolError wraps a failed or unparsable external tool invocation.
// Output carries the captured combined output for diagnostics.
type ToolError struct {
	Cmd    string
	Output string
	Err    error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("external tool %q failed", e.Cmd)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += "\noutput: " + out
	}
	return msg
}

func (e *ToolError) Unwrap() error { return e.Err }

// Executable is a resolved external program plus default leading arguments.
// It is a value type; WithDefaultArgs returns a derived copy so a bootstrap
// interpreter can be shared without mutation.
type Executable struct {
	Path        string
	defaultArgs []string
}

// Resolve tries names in preference order against PATH and returns the
// first match. It is meant to be called once at construction time and the
// result passed down, never looked up ambiently.
func Resolve(names ...string) (Executable, error) {
	for _, n := range names {
		if p, err := exec.LookPath(n); err == nil {
			return Executable{Path: p}, nil
		}
	}
	return Executable{}, fmt.Errorf("%w (tried %s)", ErrNotFound, strings.Join(names, ", "))
}

// New returns an Executable for an explicit path, bypassing PATH lookup.
func New(path string, defaultArgs ...string) Executable {
	return Executable{Path: path, defaultArgs: defaultArgs}
}

// WithDefaultArgs returns a copy whose invocations are prefixed with args.
func (e Executable) WithDefaultArgs(args ...string) Executable {
	d := append(append([]string(nil), e.defaultArgs...), args...)
	return Executable{Path: e.Path, defaultArgs: d}
}

// Args returns the full argument list for the given extra args.
func (e Executable) Args(extra ...string) []string {
	return append(append([]string(nil), e.defaultArgs...), extra...)
}

func (e Executable) String() string {
	if len(e.defaultArgs) == 0 {
		return e.Path
	}
	return e.Path + " " + strings.Join(e.defaultArgs, " ")
}

func (e Executable) command(ctx context.Context, args ...string) *exec.Cmd {
	// ok: intentional execution of a resolved tool path
	// #nosec G204
	return exec.CommandContext(ctx, e.Path, e.Args(args...)...)
}

// Run executes the tool, streaming stdout/stderr to the given writers
// (discarded when nil). Output is always captured for error diagnostics.
// It blocks until the process exits.
func (e Executable) Run(ctx context.Context, stdout, stderr io.Writer, args ...string) error {
	var buf bytes.Buffer
	cmd := e.command(ctx, args...)
	if stdout != nil {
		cmd.Stdout = io.MultiWriter(stdout, &buf)
	} else {
		cmd.Stdout = &buf
	}
	if stderr != nil {
		cmd.Stderr = io.MultiWriter(stderr, &buf)
	} else {
		cmd.Stderr = &buf
	}
	if err := cmd.Run(); err != nil {
		return &ToolError{Cmd: e.String(), Output: buf.String(), Err: err}
	}
	return nil
}

// Output executes the tool and returns captured stdout. Stderr is folded
// into the error on failure.
func (e Executable) Output(ctx context.Context, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := e.command(ctx, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", &ToolError{Cmd: e.String(), Output: stdout.String() + stderr.String(), Err: err}
	}
	return stdout.String(), nil
}
