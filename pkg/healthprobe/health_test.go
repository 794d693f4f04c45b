package healthprobe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func serve(t *testing.T, handler http.HandlerFunc) (int, HealthResponse) {
	t.Helper()

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return w.Code, resp
}

func TestHealth(t *testing.T) {
	hc := New()

	// Liveness does not depend on readiness or component checks.
	hc.Register("storage", func(context.Context) error { return errors.New("down") })

	code, resp := serve(t, hc.Health())
	if code != http.StatusOK {
		t.Fatalf("status = %d, want %d", code, http.StatusOK)
	}
	if resp.Status != "healthy" {
		t.Errorf("Status = %q, want healthy", resp.Status)
	}
	if resp.Uptime == "" {
		t.Error("expected uptime to be reported")
	}
}

func TestReady(t *testing.T) {
	storageErr := errors.New("pq: connection refused")

	tests := []struct {
		name           string
		ready          bool
		checks         map[string]CheckFunc
		wantCode       int
		wantStatus     string
		wantComponents map[string]string
	}{
		{
			name:       "starting",
			ready:      false,
			checks:     map[string]CheckFunc{"storage": func(context.Context) error { return nil }},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "not_ready",
		},
		{
			name:       "ready-without-components",
			ready:      true,
			wantCode:   http.StatusOK,
			wantStatus: "ready",
		},
		{
			name:  "ready-with-healthy-components",
			ready: true,
			checks: map[string]CheckFunc{
				"storage":     func(context.Context) error { return nil },
				"ledger-feed": func(context.Context) error { return nil },
			},
			wantCode:       http.StatusOK,
			wantStatus:     "ready",
			wantComponents: map[string]string{"storage": "ok", "ledger-feed": "ok"},
		},
		{
			name:  "storage-unreachable",
			ready: true,
			checks: map[string]CheckFunc{
				"storage":     func(context.Context) error { return storageErr },
				"ledger-feed": func(context.Context) error { return nil },
			},
			wantCode:       http.StatusServiceUnavailable,
			wantStatus:     "degraded",
			wantComponents: map[string]string{"storage": storageErr.Error(), "ledger-feed": "ok"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := New()
			hc.SetReady(tt.ready)
			for name, check := range tt.checks {
				hc.Register(name, check)
			}

			code, resp := serve(t, hc.Ready())
			if code != tt.wantCode {
				t.Errorf("status = %d, want %d", code, tt.wantCode)
			}
			if resp.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", resp.Status, tt.wantStatus)
			}
			if len(resp.Components) != len(tt.wantComponents) {
				t.Fatalf("Components = %v, want %v", resp.Components, tt.wantComponents)
			}
			for name, want := range tt.wantComponents {
				if resp.Components[name] != want {
					t.Errorf("Components[%s] = %q, want %q", name, resp.Components[name], want)
				}
			}
		})
	}
}

func TestReady_ChecksRecoverWithFeed(t *testing.T) {
	hc := New()
	hc.SetReady(true)

	var connected atomic.Bool
	hc.Register("ledger-feed", func(context.Context) error {
		if !connected.Load() {
			return errors.New("ledger feed not connected")
		}
		return nil
	})

	if code, _ := serve(t, hc.Ready()); code != http.StatusServiceUnavailable {
		t.Fatalf("status before connect = %d, want %d", code, http.StatusServiceUnavailable)
	}

	connected.Store(true)

	if code, resp := serve(t, hc.Ready()); code != http.StatusOK || resp.Components["ledger-feed"] != "ok" {
		t.Fatalf("after connect: status = %d components = %v", code, resp.Components)
	}
}

func TestReady_CheckTimeout(t *testing.T) {
	hc := New()
	hc.checkTimeout = 20 * time.Millisecond
	hc.SetReady(true)
	hc.Register("storage", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	start := time.Now()
	code, resp := serve(t, hc.Ready())
	if time.Since(start) > time.Second {
		t.Fatal("check was not bounded by the timeout")
	}
	if code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", code, http.StatusServiceUnavailable)
	}
	if resp.Components["storage"] != context.DeadlineExceeded.Error() {
		t.Errorf("storage = %q, want %q", resp.Components["storage"], context.DeadlineExceeded.Error())
	}
}

func TestRegister_ReplacesCheck(t *testing.T) {
	hc := New()
	hc.SetReady(true)
	hc.Register("storage", func(context.Context) error { return errors.New("stale") })
	hc.Register("storage", func(context.Context) error { return nil })

	code, resp := serve(t, hc.Ready())
	if code != http.StatusOK {
		t.Errorf("status = %d, want %d", code, http.StatusOK)
	}
	if len(resp.Components) != 1 || resp.Components["storage"] != "ok" {
		t.Errorf("Components = %v, want only storage ok", resp.Components)
	}
}

func TestHealthChecker_ConcurrentUse(t *testing.T) {
	hc := New()
	handler := hc.Ready()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			hc.SetReady(i%2 == 0)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			hc.Register("storage", func(context.Context) error { return nil })
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ready", nil))
		}
	}()
	wg.Wait()
}
