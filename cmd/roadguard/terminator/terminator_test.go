package terminator

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"
)

func TestStopCancels(t *testing.T) {
	ctx, stop := WithSignals(context.Background(), logr.Discard())
	require.NoError(t, ctx.Err())
	stop()
	require.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestSignalCancels(t *testing.T) {
	ctx, stop := WithSignals(context.Background(), logr.Discard())
	defer stop()

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGTERM))

	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context not cancelled by SIGTERM")
	}
}
