package httpserver

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mselser95/claimpool/internal/settlement"
	"github.com/mselser95/claimpool/pkg/healthprobe"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	logger := zap.NewNop()
	healthChecker := healthprobe.New()

	tests := []struct {
		name string
		cfg  *Config
	}{
		{
			name: "valid_config_minimal",
			cfg: &Config{
				Port:          "8080",
				Logger:        logger,
				HealthChecker: healthChecker,
			},
		},
		{
			name: "valid_config_with_view",
			cfg: &Config{
				Port:          "8080",
				Logger:        logger,
				HealthChecker: healthChecker,
				View:          settlement.NewView(nil),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := New(tt.cfg)
			if server == nil {
				t.Fatal("New() returned nil server")
			}
			if server.server == nil {
				t.Error("New() server.server is nil")
			}
			if server.logger != tt.cfg.Logger {
				t.Error("New() logger not set correctly")
			}
			if server.healthChecker != tt.cfg.HealthChecker {
				t.Error("New() healthChecker not set correctly")
			}
		})
	}
}

func TestRoutes(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		ready      bool
		view       bool
		wantStatus int
	}{
		{name: "health", method: http.MethodGet, path: "/health", wantStatus: http.StatusOK},
		{name: "ready-before-startup", method: http.MethodGet, path: "/ready", wantStatus: http.StatusServiceUnavailable},
		{name: "ready-after-startup", method: http.MethodGet, path: "/ready", ready: true, wantStatus: http.StatusOK},
		{name: "metrics", method: http.MethodGet, path: "/metrics", wantStatus: http.StatusOK},
		{name: "api-absent-without-view", method: http.MethodPost, path: "/api/settlements/compute", wantStatus: http.StatusNotFound},
		{name: "compute-rejects-empty-body", method: http.MethodPost, path: "/api/settlements/compute", view: true, wantStatus: http.StatusBadRequest},
		{name: "compute-is-post-only", method: http.MethodGet, path: "/api/settlements/compute", view: true, wantStatus: http.StatusMethodNotAllowed},
		{name: "lookup-absent-without-records", method: http.MethodGet, path: "/api/settlements/1", view: true, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := healthprobe.New()
			hc.SetReady(tt.ready)

			cfg := &Config{Port: "0", Logger: zap.NewNop(), HealthChecker: hc}
			if tt.view {
				cfg.View = settlement.NewView(nil)
			}

			w := httptest.NewRecorder()
			New(cfg).Handler().ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			if w.Code != tt.wantStatus {
				t.Errorf("%s %s status = %d, want %d", tt.method, tt.path, w.Code, tt.wantStatus)
			}
			if tt.name == "metrics" {
				body, err := io.ReadAll(w.Result().Body)
				if err != nil {
					t.Fatalf("read metrics body: %v", err)
				}
				if len(body) == 0 {
					t.Error("metrics endpoint returned empty body")
				}
			}
		})
	}
}
