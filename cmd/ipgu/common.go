package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hrishioa/ipgu/internal/logger"
)

// signalContext returns a context canceled on SIGINT/SIGTERM. In-flight
// external calls observe the cancellation; uploaded remote files are still
// cleaned up by their owners.
func signalContext() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Warn("Cancellation requested")
		cancel()
	}()
	stop := func() {
		signal.Stop(sigCh)
		cancel()
	}
	return ctx, stop
}
