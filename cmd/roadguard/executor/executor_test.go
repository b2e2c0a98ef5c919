package executor

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roadguard/models"
)

func TestOSRunnerCapturesOutput(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	r := NewOSRunner(logr.Discard())

	res, err := r.Run(context.Background(), Cmd{Name: "sh", Args: []string{"-c", "echo out; echo err >&2; exit 3"}})
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "out\n", string(res.Stdout))
	assert.Equal(t, "err\n", string(res.Stderr))
}

func TestOSRunnerStdin(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}
	r := NewOSRunner(logr.Discard())

	res, err := r.Run(context.Background(), Cmd{Name: "cat", Stdin: []byte("piped")})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "piped", string(res.Stdout))
}

func TestOSRunnerMissingProgram(t *testing.T) {
	r := NewOSRunner(logr.Discard())

	_, err := r.Run(context.Background(), Cmd{Name: "roadguard-no-such-binary"})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrProcessExecution)
	assert.ErrorIs(t, err, exec.ErrNotFound)
}

func TestCheck(t *testing.T) {
	c := Cmd{Name: "wg", Args: []string{"show"}}
	require.NoError(t, Check(c, Result{}))

	err := Check(c, Result{ExitCode: 1, Stderr: []byte("Unable to access interface\n")})
	var procErr *models.ProcessError
	require.True(t, errors.As(err, &procErr))
	assert.Equal(t, 1, procErr.ExitCode)
	assert.Equal(t, "Unable to access interface", procErr.Stderr)
}

func TestPipeFeedsProducerStdout(t *testing.T) {
	f := NewFake().
		OnStdout("wg genkey", "PRIV\n").
		OnStdout("wg pubkey", "PUB\n")

	produced, consumed, err := Pipe(context.Background(), f, Cmd{Name: "wg", Args: []string{"genkey"}}, Cmd{Name: "wg", Args: []string{"pubkey"}})
	require.NoError(t, err)
	assert.Equal(t, "PRIV\n", string(produced))
	assert.Equal(t, "PUB\n", string(consumed))
	require.Len(t, f.Calls, 2)
	assert.Equal(t, []byte("PRIV\n"), f.Calls[1].Stdin)
}

func TestPipeStopsOnProducerFailure(t *testing.T) {
	f := NewFake().
		OnFail("wg genkey", 1, "nope").
		OnStdout("wg pubkey", "PUB\n")

	_, _, err := Pipe(context.Background(), f, Cmd{Name: "wg", Args: []string{"genkey"}}, Cmd{Name: "wg", Args: []string{"pubkey"}})
	require.Error(t, err)
	assert.Equal(t, []string{"wg genkey"}, f.CommandLines())
}
