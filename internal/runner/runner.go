// Package runner executes the external tools devtools drives (phpunit,
// codecept, docker, mysql, wp, vale, ...) and turns their exit status into
// errors that carry the code to relay.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/wpdevtools/devtools/internal/logging"
)

// stderrTail is how much of a failing command's stderr is kept on the
// ExitError.
const stderrTail = 4 << 10

const shellSpecial = " \t\n\"'$`\\;&|<>*?()[]{}~#"

// ExitError reports a command that ran and exited non-zero.
type ExitError struct {
	Command string
	Code    int
	Stderr  string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s: exit status %d", e.Command, e.Code)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		if i := strings.LastIndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		}
		msg += ": " + s
	}
	return msg
}

// ExitCode maps err to the process exit code devtools should exit with: 0
// for nil, the child's code for an ExitError, and 1 for anything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *ExitError
	if errors.As(err, &ee) && ee.Code > 0 {
		return ee.Code
	}
	return 1
}

// Runner runs commands in Dir. The zero value runs in the current
// directory with the parent's stdio.
type Runner struct {
	// Dir is the working directory. Empty means the current directory.
	Dir string
	// Env holds extra KEY=VALUE pairs appended to the parent environment.
	Env []string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// DryRun prints each command line to Stdout instead of running it.
	DryRun bool

	logger *log.Logger
}

// New returns a Runner for dir wired to the process stdio.
func New(dir string) *Runner {
	return &Runner{
		Dir:    dir,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		logger: logging.New("runner"),
	}
}

// Split breaks a configured binary such as "npx wp-env" into the program
// and its leading arguments.
func Split(bin string) (string, []string) {
	fields := strings.Fields(bin)
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], fields[1:]
}

// LookPath reports whether the program behind bin can be found. The error
// wraps exec.ErrNotFound when it cannot.
func LookPath(bin string) (string, error) {
	name, _ := Split(bin)
	if name == "" {
		return "", fmt.Errorf("empty command: %w", exec.ErrNotFound)
	}
	p, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return p, nil
}

// Run executes bin with args, streaming output to the Runner's writers.
// A non-zero exit returns an *ExitError; a missing binary returns an error
// wrapping exec.ErrNotFound.
func (r *Runner) Run(ctx context.Context, bin string, args ...string) error {
	_, err := r.run(ctx, runOpts{}, bin, args)
	return err
}

// RunEnv is Run with extra KEY=VALUE pairs set for this command only. The
// pairs never appear in logs or dry-run output, so they can carry secrets
// that must stay out of argv.
func (r *Runner) RunEnv(ctx context.Context, env []string, bin string, args ...string) error {
	_, err := r.run(ctx, runOpts{env: env}, bin, args)
	return err
}

// RunQuiet is Run with the command's output discarded. A failure still
// returns an *ExitError carrying the stderr tail.
func (r *Runner) RunQuiet(ctx context.Context, bin string, args ...string) error {
	_, err := r.run(ctx, runOpts{quiet: true}, bin, args)
	return err
}

// Output executes bin with args and returns its trimmed stdout. Stderr is
// still streamed. In dry-run mode it returns an empty string.
func (r *Runner) Output(ctx context.Context, bin string, args ...string) (string, error) {
	out, err := r.run(ctx, runOpts{capture: true}, bin, args)
	return strings.TrimSpace(out), err
}

type runOpts struct {
	capture bool
	quiet   bool
	env     []string
}

func (r *Runner) run(ctx context.Context, opts runOpts, bin string, args []string) (string, error) {
	name, lead := Split(bin)
	if name == "" {
		return "", fmt.Errorf("empty command: %w", exec.ErrNotFound)
	}
	argv := append(lead, args...)
	line := CommandLine(name, argv...)

	if r.DryRun {
		fmt.Fprintln(r.stdout(), line)
		return "", nil
	}
	r.log().Debug("exec", "cmd", line, "dir", r.Dir)

	cmd := exec.CommandContext(ctx, name, argv...)
	cmd.Dir = r.Dir
	if len(r.Env) > 0 || len(opts.env) > 0 {
		env := append(os.Environ(), r.Env...)
		cmd.Env = append(env, opts.env...)
	}
	cmd.Stdin = r.Stdin
	setProcGroup(cmd)

	var stdout bytes.Buffer
	switch {
	case opts.capture:
		cmd.Stdout = &stdout
	case opts.quiet:
		cmd.Stdout = io.Discard
	default:
		cmd.Stdout = r.stdout()
	}
	tail := &tailBuffer{max: stderrTail}
	if opts.quiet {
		cmd.Stderr = tail
	} else {
		cmd.Stderr = io.MultiWriter(r.stderr(), tail)
	}

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			return stdout.String(), &ExitError{
				Command: line,
				Code:    exitErr.ExitCode(),
				Stderr:  tail.String(),
			}
		}
		if ctx.Err() != nil {
			return stdout.String(), fmt.Errorf("%s: %w", name, ctx.Err())
		}
		// The process could not be started at all.
		return "", fmt.Errorf("running %s: %w", name, err)
	}
	return stdout.String(), nil
}

func (r *Runner) stdout() io.Writer {
	if r.Stdout == nil {
		return io.Discard
	}
	return r.Stdout
}

func (r *Runner) stderr() io.Writer {
	if r.Stderr == nil {
		return io.Discard
	}
	return r.Stderr
}

func (r *Runner) log() *log.Logger {
	if r.logger == nil {
		r.logger = logging.New("runner")
	}
	return r.logger
}

// CommandLine renders a command for logs and dry runs, quoting arguments
// that a shell would split.
func CommandLine(name string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	for _, a := range append([]string{name}, args...) {
		if a == "" || strings.ContainsAny(a, shellSpecial) {
			a = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	max int
	buf []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string { return string(t.buf) }
