// Package executor runs external programs and turns their results into typed
// errors at the boundary.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/go-logr/logr"

	"roadguard/models"
)

type Cmd struct {
	Name  string
	Args  []string
	Stdin []byte
}

func (c Cmd) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Result of a command that ran to completion, whatever its exit status.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Runner runs one command to completion. The returned error is only set when
// the command could not be run at all; a non-zero exit is reported in Result.
type Runner interface {
	Run(ctx context.Context, c Cmd) (Result, error)
}

type OSRunner struct {
	logger logr.Logger
}

func NewOSRunner(logger logr.Logger) *OSRunner {
	return &OSRunner{logger: logger}
}

func (r *OSRunner) Run(ctx context.Context, c Cmd) (Result, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if c.Stdin != nil {
		cmd.Stdin = bytes.NewReader(c.Stdin)
	}

	r.logger.V(1).Info("exec", "cmd", c.String())
	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		res.ExitCode = exitErr.ExitCode()
		r.logger.V(1).Info("exec failed", "cmd", c.String(), "exitCode", res.ExitCode)
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("%w: %s: %w", models.ErrProcessExecution, c.Name, err)
	}
	return res, nil
}

// Check converts a non-zero exit into a *models.ProcessError.
func Check(c Cmd, res Result) error {
	if res.ExitCode == 0 {
		return nil
	}
	return &models.ProcessError{
		Program:  c.Name,
		Args:     c.Args,
		ExitCode: res.ExitCode,
		Stderr:   strings.TrimSpace(string(res.Stderr)),
	}
}

// RunChecked runs c and reports a non-zero exit as an error.
func RunChecked(ctx context.Context, r Runner, c Cmd) ([]byte, error) {
	res, err := r.Run(ctx, c)
	if err != nil {
		return nil, err
	}
	if err := Check(c, res); err != nil {
		return nil, err
	}
	return res.Stdout, nil
}

// Pipe runs producer to completion and then feeds its stdout to consumer's
// stdin. The consumer never starts when the producer fails.
func Pipe(ctx context.Context, r Runner, producer, consumer Cmd) (produced, consumed []byte, err error) {
	produced, err = RunChecked(ctx, r, producer)
	if err != nil {
		return nil, nil, err
	}
	consumer.Stdin = produced
	consumed, err = RunChecked(ctx, r, consumer)
	if err != nil {
		return produced, nil, err
	}
	return produced, consumed, nil
}
