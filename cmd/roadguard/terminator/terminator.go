package terminator

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"
)

// WithSignals returns a context cancelled on the first SIGINT or SIGTERM, which
// kills the external command in flight. A second signal exits immediately.
func WithSignals(parent context.Context, logger logr.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 2)
	done := make(chan struct{})
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	go monitor(cancel, sigChan, done, logger)

	return ctx, func() {
		signal.Stop(sigChan)
		close(done)
		cancel()
	}
}

func monitor(cancel context.CancelFunc, sigChan <-chan os.Signal, done <-chan struct{}, logger logr.Logger) {
	select {
	case sig := <-sigChan:
		logger.Info("signal received, stopping gracefully", "signal", sig.String())
		cancel()
	case <-done:
		return
	}

	select {
	case <-sigChan:
		logger.Info("stopping anyway...")
		os.Exit(1)
	case <-done:
	}
}
