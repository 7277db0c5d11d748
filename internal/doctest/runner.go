// Package doctest executes embedded example code blocks and verifies their
// declared expected output.
package doctest

import (
	"bytes"
	"context"
	stderrors "errors"
	"os/exec"
	"strings"
	"time"

	"git.home.luguber.info/inful/docforge/internal/foundation/errors"
)

// ErrTimeout marks an execution that exceeded the per-block deadline.
// Callers treat it as a check failure, never as a hung build.
var ErrTimeout = stderrors.New("doctest execution timed out")

// Runner executes code blocks through a configured interpreter. Blocks run
// synchronously; one failing or timed-out block never affects another.
type Runner struct {
	// Command is the interpreter argv; the block's code is piped on stdin
	// and stdout+stderr are captured combined.
	Command []string
	Timeout time.Duration
	// NormalizeWhitespace relaxes output comparison to ignore trailing
	// whitespace per line and a trailing newline.
	NormalizeWhitespace bool
}

// Result is one verification outcome. Results are immutable once created.
type Result struct {
	Pass     bool
	Expected string
	Actual   string
	// TimedOut is set when the failure was the per-block deadline.
	TimedOut bool
}

// Run executes code and returns the captured combined output. A non-zero
// exit or deadline overrun returns the output gathered so far plus an error.
func (r *Runner) Run(ctx context.Context, code string) (string, error) {
	if len(r.Command) == 0 {
		return "", errors.New(errors.CategoryConfig, "doctest runner has no interpreter command").Build()
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if r.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, r.Command[0], r.Command[1:]...)
	cmd.Stdin = strings.NewReader(code)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	if runCtx.Err() == context.DeadlineExceeded {
		return out.String(), ErrTimeout
	}
	if err != nil {
		return out.String(), errors.Wrap(err, errors.CategoryExecution, "doctest block execution failed").Build()
	}
	return out.String(), nil
}

// Check runs code and compares the captured output against expected.
func (r *Runner) Check(ctx context.Context, code, expected string) Result {
	actual, err := r.Run(ctx, code)
	if err != nil {
		return Result{
			Pass:     false,
			Expected: expected,
			Actual:   actual + "\n" + err.Error(),
			TimedOut: stderrors.Is(err, ErrTimeout),
		}
	}
	return Result{
		Pass:     r.Equal(expected, actual),
		Expected: expected,
		Actual:   actual,
	}
}

// Equal compares expected against actual output under the runner's
// comparison mode.
func (r *Runner) Equal(expected, actual string) bool {
	if r.NormalizeWhitespace {
		return normalize(expected) == normalize(actual)
	}
	// Tolerate a missing trailing newline on either side even in strict
	// mode; interpreters are inconsistent about it.
	return strings.TrimSuffix(expected, "\n") == strings.TrimSuffix(actual, "\n")
}

func normalize(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t\r")
	}
	out := strings.Join(lines, "\n")
	return strings.TrimSuffix(out, "\n")
}

// SplitBlock separates a doctest block body into code and expected output.
// The two parts are divided by a line containing only "----"; a block without
// the separator has empty expected output, making successful execution the
// only assertion.
func SplitBlock(body string) (code, expected string) {
	lines := strings.Split(body, "\n")
	for i, l := range lines {
		if strings.TrimSpace(l) == "----" {
			return strings.Join(lines[:i], "\n") + "\n", strings.Join(lines[i+1:], "\n")
		}
	}
	return body, ""
}
