package daemon

import (
	"context"
	"runtime"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/kipper0508/escape-bot/internal/syncutil"
)

// Health states.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// DefaultCheckTimeout bounds each health check.
const DefaultCheckTimeout = 2 * time.Second

// CheckFunc probes one dependency.
type CheckFunc func(ctx context.Context) error

// CheckResult represents the result of a single health check.
type CheckResult struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// HealthStatus is the body served on the health endpoint.
type HealthStatus struct {
	Status        string        `json:"status"`
	Version       string        `json:"version,omitempty"`
	Uptime        string        `json:"uptime"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	MemoryMB      float64       `json:"memory_mb"`
	Goroutines    int           `json:"goroutines"`
	CheckedAt     time.Time     `json:"checked_at"`
	Checks        []CheckResult `json:"checks,omitempty"`
}

// HealthChecker runs registered dependency checks.
type HealthChecker struct {
	mu        syncutil.RWMutex
	clock     clockwork.Clock
	startTime time.Time
	version   string
	timeout   time.Duration
	checks    map[string]CheckFunc
}

// NewHealthChecker creates a new health checker.
func NewHealthChecker(version string) *HealthChecker {
	return NewHealthCheckerWithClock(version, clockwork.NewRealClock())
}

// NewHealthCheckerWithClock creates a health checker on the given clock.
func NewHealthCheckerWithClock(version string, clock clockwork.Clock) *HealthChecker {
	return &HealthChecker{
		clock:     clock,
		startTime: clock.Now(),
		version:   version,
		timeout:   DefaultCheckTimeout,
		checks:    make(map[string]CheckFunc),
	}
}

// AddCheck registers a named check, replacing any check with that name.
func (h *HealthChecker) AddCheck(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// RemoveCheck removes a check.
func (h *HealthChecker) RemoveCheck(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.checks, name)
}

// Check runs every check, each under its own timeout, and reports the
// overall status. Results are sorted by name.
func (h *HealthChecker) Check(ctx context.Context) *HealthStatus {
	h.mu.RLock()
	checks := make(map[string]CheckFunc, len(h.checks))
	for name, c := range h.checks {
		checks[name] = c
	}
	h.mu.RUnlock()

	status := &HealthStatus{Status: StatusHealthy}
	for name, check := range checks {
		result := CheckResult{Name: name, Healthy: true}

		cctx, cancel := context.WithTimeout(ctx, h.timeout)
		if err := check(cctx); err != nil {
			result.Healthy = false
			result.Error = err.Error()
			status.Status = StatusUnhealthy
		}
		cancel()

		status.Checks = append(status.Checks, result)
	}
	sort.Slice(status.Checks, func(i, j int) bool {
		return status.Checks[i].Name < status.Checks[j].Name
	})

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	uptime := h.Uptime()
	status.Version = h.version
	status.Uptime = formatUptime(uptime)
	status.UptimeSeconds = int64(uptime.Seconds())
	status.MemoryMB = float64(memStats.Alloc) / 1024 / 1024
	status.Goroutines = runtime.NumGoroutine()
	status.CheckedAt = h.clock.Now()
	return status
}

// IsHealthy returns true if every check passes.
func (h *HealthChecker) IsHealthy(ctx context.Context) bool {
	return h.Check(ctx).Status == StatusHealthy
}

// Uptime returns how long the checker has existed.
func (h *HealthChecker) Uptime() time.Duration {
	return h.clock.Since(h.startTime)
}
