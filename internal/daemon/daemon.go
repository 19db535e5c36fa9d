// Package daemon runs the bot process: the webhook HTTP server, the reminder
// scheduler, signal handling and graceful shutdown.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/kipper0508/escape-bot/internal/logging"
)

// DefaultShutdownTimeout bounds graceful shutdown.
const DefaultShutdownTimeout = 10 * time.Second

// Runner is a background component started and stopped with the process.
type Runner interface {
	Start() error
	Stop()
}

// Config configures the process.
type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// Daemon runs the HTTP server and background runners until shutdown.
type Daemon struct {
	cfg       Config
	server    *http.Server
	runners   []Runner
	signals   *SignalHandler
	startedAt time.Time
}

// Status describes a running daemon.
type Status struct {
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
	Uptime    string    `json:"uptime"`
}

// New creates a daemon serving handler on cfg.Addr.
func New(cfg Config, handler http.Handler, runners ...Runner) *Daemon {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	return &Daemon{
		cfg: cfg,
		server: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       2 * time.Minute,
		},
		runners: runners,
		signals: NewSignalHandler(),
	}
}

// Run serves until ctx is done, a shutdown signal arrives, or the listener
// fails. Runners start before the listener and stop after it drains.
func (d *Daemon) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", d.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", d.cfg.Addr, err)
	}
	return d.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (d *Daemon) Serve(ctx context.Context, ln net.Listener) error {
	started := make([]Runner, 0, len(d.runners))
	defer func() {
		for i := len(started) - 1; i >= 0; i-- {
			started[i].Stop()
		}
	}()
	for _, r := range d.runners {
		if err := r.Start(); err != nil {
			ln.Close()
			return err
		}
		started = append(started, r)
	}

	d.signals.Setup()
	defer d.signals.Stop()

	d.startedAt = time.Now()
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- d.server.Serve(ln)
	}()
	logging.Info("server listening", "addr", ln.Addr().String())

	waitCtx, cancelWait := context.WithCancel(ctx)
	defer cancelWait()
	sigCh := make(chan struct{})
	go func() {
		defer close(sigCh)
		if sig := d.signals.Wait(waitCtx); sig != nil {
			logging.Info("received signal", "signal", sig.String())
		}
	}()

	select {
	case err := <-serveErr:
		cancelWait()
		<-sigCh
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-sigCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), d.cfg.ShutdownTimeout)
	defer cancel()

	logging.Info("shutting down", "uptime", formatUptime(time.Since(d.startedAt)))
	if err := d.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Status returns the listen address and uptime.
func (d *Daemon) Status() *Status {
	s := &Status{Addr: d.cfg.Addr, StartedAt: d.startedAt}
	if !d.startedAt.IsZero() {
		s.Uptime = formatUptime(time.Since(d.startedAt))
	}
	return s
}

// formatUptime formats a duration as uptime.
func formatUptime(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		minutes := int(d.Minutes()) % 60
		if minutes > 0 {
			return fmt.Sprintf("%dh %dm", hours, minutes)
		}
		return fmt.Sprintf("%dh", hours)
	}

	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	if hours > 0 {
		return fmt.Sprintf("%dd %dh", days, hours)
	}
	return fmt.Sprintf("%dd", days)
}
