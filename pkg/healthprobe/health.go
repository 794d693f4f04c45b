package healthprobe

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
)

// CheckFunc reports whether a component is usable.
type CheckFunc func(ctx context.Context) error

// HealthChecker provides health and readiness checks. Readiness also runs
// the registered component checks.
type HealthChecker struct {
	startTime    time.Time
	ready        atomic.Bool
	checkTimeout time.Duration

	mu     sync.RWMutex
	checks map[string]CheckFunc
}

// New creates a new HealthChecker.
func New() *HealthChecker {
	return &HealthChecker{
		startTime:    time.Now(),
		checkTimeout: 2 * time.Second,
		checks:       make(map[string]CheckFunc),
	}
}

// SetReady marks the application as ready to serve traffic.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// Register adds a named component check. Registering a name twice replaces
// the earlier check.
func (h *HealthChecker) Register(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status     string            `json:"status"`
	Uptime     string            `json:"uptime,omitempty"`
	Message    string            `json:"message,omitempty"`
	Components map[string]string `json:"components,omitempty"`
}

// Health returns an HTTP handler for liveness checks.
// Always returns 200 OK if the application is running.
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{
			Status: "healthy",
			Uptime: time.Since(h.startTime).String(),
		})
	}
}

// Ready returns an HTTP handler for readiness checks.
// Returns 503 until SetReady(true) and while any component check fails.
func (h *HealthChecker) Ready() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.ready.Load() {
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
				Status:  "not_ready",
				Message: "application is starting",
			})
			return
		}

		components, healthy := h.runChecks(r.Context())
		if !healthy {
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
				Status:     "degraded",
				Message:    "component check failed",
				Components: components,
			})
			return
		}

		writeJSON(w, http.StatusOK, HealthResponse{
			Status:     "ready",
			Uptime:     time.Since(h.startTime).String(),
			Components: components,
		})
	}
}

func (h *HealthChecker) runChecks(ctx context.Context) (map[string]string, bool) {
	h.mu.RLock()
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	checks := make([]CheckFunc, len(names))
	for i, name := range names {
		checks[i] = h.checks[name]
	}
	h.mu.RUnlock()

	if len(names) == 0 {
		return nil, true
	}

	ctx, cancel := context.WithTimeout(ctx, h.checkTimeout)
	defer cancel()

	components := make(map[string]string, len(names))
	healthy := true
	for i, name := range names {
		err := checks[i](ctx)
		if err != nil {
			components[name] = err.Error()
			healthy = false
			continue
		}
		components[name] = "ok"
	}

	return components, healthy
}

func writeJSON(w http.ResponseWriter, status int, resp HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
