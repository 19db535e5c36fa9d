package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// ShutdownSignals stop the bot gracefully.
var ShutdownSignals = []os.Signal{
	syscall.SIGINT,  // Ctrl+C
	syscall.SIGTERM, // Container stop
}

// SignalHandler turns OS signals into context cancellation.
type SignalHandler struct {
	signals chan os.Signal
	done    chan struct{}
}

// NewSignalHandler creates a new signal handler.
func NewSignalHandler() *SignalHandler {
	return &SignalHandler{
		signals: make(chan os.Signal, 1),
		done:    make(chan struct{}),
	}
}

// Setup registers for the shutdown signals.
func (h *SignalHandler) Setup() {
	signal.Notify(h.signals, ShutdownSignals...)
}

// Wait blocks until a shutdown signal arrives, ctx is done, or Stop is
// called. It returns the signal, or nil when none arrived.
func (h *SignalHandler) Wait(ctx context.Context) os.Signal {
	select {
	case sig := <-h.signals:
		return sig
	case <-ctx.Done():
		return nil
	case <-h.done:
		return nil
	}
}

// Stop unregisters the handler and releases any Wait.
func (h *SignalHandler) Stop() {
	signal.Stop(h.signals)
	select {
	case <-h.done:
	default:
		close(h.done)
	}
}
