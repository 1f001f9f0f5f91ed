package osutil

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// SignalContext is cancelled on the first SIGINT or SIGTERM so running
// requests can stop between pages. A second signal exits immediately.
func SignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-WaitSignals(cancel)
		slog.Warn("interrupted twice, exiting")
		os.Exit(130)
	}()
	return ctx
}

// WaitSignals calls cancel on the first signal and returns a channel that
// receives the second one.
func WaitSignals(cancel context.CancelFunc) <-chan os.Signal {
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	second := make(chan os.Signal, 1)
	go func() {
		sig := <-sigs
		slog.Info("received signal, cancelling", "signal", sig.String())
		cancel()
		second <- <-sigs
	}()
	return second
}
