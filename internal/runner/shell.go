package runner

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Command is one invocation of an external program.
type Command struct {
	Name string
	Args []string
	Dir  string
	// Env entries are appended to the inherited environment.
	Env []string
}

// String renders the command as a copy-pasteable shell line.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, quote(c.Name))
	for _, a := range c.Args {
		parts = append(parts, quote(a))
	}
	return strings.Join(parts, " ")
}

// quote leaves words made only of safe characters bare, so pins such as
// torch==2.1.0 stay readable, and shell-quotes everything else.
func quote(s string) string {
	if s != "" && strings.Trim(s, safeChars) == "" {
		return s
	}
	q, err := syntax.Quote(s, syntax.LangBash)
	if err != nil {
		return strconv.Quote(s)
	}
	return q
}

const safeChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789=._/:-@+,"

// Streams are where a command's output goes. Nil writers discard.
type Streams struct {
	Stdout io.Writer
	Stderr io.Writer
}

// Runner invokes external programs, blocking until they exit.
type Runner interface {
	Run(ctx context.Context, cmd Command, streams Streams) error
}

// ExitError reports a command that ran and exited non-zero, or could not
// be started at all (Code 127).
type ExitError struct {
	Command string
	Code    int
	Err     error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s: exit code %d", e.Command, e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode extracts the exit status from err; 0 for nil, 1 when unknown.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *ExitError
	if stderrors.As(err, &ee) && ee.Code > 0 {
		return ee.Code
	}
	return 1
}

// Exec runs commands as real child processes.
type Exec struct {
	// Environ is the base environment; nil inherits the current process'.
	Environ []string
}

// Run starts cmd and waits for it. There is no timeout; ctx cancellation
// kills the child.
func (e *Exec) Run(ctx context.Context, cmd Command, streams Streams) error {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	if cmd.Dir != "" {
		c.Dir = cmd.Dir
	}
	if e.Environ != nil || len(cmd.Env) > 0 {
		base := e.Environ
		if base == nil {
			base = c.Environ()
		}
		c.Env = append(append([]string{}, base...), cmd.Env...)
	}
	c.Stdout = orDiscard(streams.Stdout)
	c.Stderr = orDiscard(streams.Stderr)

	err := c.Run()
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%s: %w", cmd.Name, ctx.Err())
	}
	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if code <= 0 {
			code = 1
		}
		return &ExitError{Command: cmd.Name, Code: code, Err: err}
	}
	return &ExitError{Command: cmd.Name, Code: 127, Err: err}
}

func orDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}

// DryRun accepts every command without starting anything.
type DryRun struct{}

func (DryRun) Run(context.Context, Command, Streams) error { return nil }

// Recorder passes commands through to Next and remembers them. A non-nil
// Streams replaces whatever the caller passed.
type Recorder struct {
	Next     Runner
	Streams  *Streams
	Commands []Command
}

func (r *Recorder) Run(ctx context.Context, cmd Command, streams Streams) error {
	r.Commands = append(r.Commands, cmd)
	if r.Streams != nil {
		streams = *r.Streams
	}
	return r.Next.Run(ctx, cmd, streams)
}

// Take returns the commands recorded since the last call and resets.
func (r *Recorder) Take() []Command {
	out := r.Commands
	r.Commands = nil
	return out
}
