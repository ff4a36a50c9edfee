package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"
)

type fixedCounter int64

func (f fixedCounter) ConsecutiveErrors() int64 { return int64(f) }

func TestNew_DefaultTimeout(t *testing.T) {
	if got := New(0).timeout; got != DefaultCheckTimeout {
		t.Errorf("timeout = %v, want %v", got, DefaultCheckTimeout)
	}
	if got := New(time.Second).timeout; got != time.Second {
		t.Errorf("timeout = %v, want 1s", got)
	}
}

func TestChecker_RegisterUnregister(t *testing.T) {
	checker := New(time.Second)
	checker.Register("usage", func(context.Context) error { return nil })
	checker.Register("gateway", func(context.Context) error { return nil })
	checker.Register("gateway", func(context.Context) error { return nil })

	if got := checker.Names(); !slices.Equal(got, []string{"gateway", "usage"}) {
		t.Errorf("Names() = %v", got)
	}

	checker.Unregister("usage")
	if got := checker.Names(); !slices.Equal(got, []string{"gateway"}) {
		t.Errorf("Names() after Unregister = %v", got)
	}
}

func TestChecker_Readiness(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]CheckFunc
		wantStatus string
		wantFailed []string
	}{
		{
			name:       "no checks",
			checks:     nil,
			wantStatus: StatusReady,
		},
		{
			name: "all healthy",
			checks: map[string]CheckFunc{
				"gateway": func(context.Context) error { return nil },
				"usage":   func(context.Context) error { return nil },
			},
			wantStatus: StatusReady,
		},
		{
			name: "one failing",
			checks: map[string]CheckFunc{
				"gateway": func(context.Context) error { return errors.New("down") },
				"usage":   func(context.Context) error { return nil },
			},
			wantStatus: StatusDegraded,
			wantFailed: []string{"gateway"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := New(time.Second)
			for name, check := range tt.checks {
				checker.Register(name, check)
			}

			report := checker.Readiness(context.Background())
			if report.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", report.Status, tt.wantStatus)
			}
			if len(report.Checks) != len(tt.checks) {
				t.Errorf("got %d results, want %d", len(report.Checks), len(tt.checks))
			}
			for name, result := range report.Checks {
				failed := slices.Contains(tt.wantFailed, name)
				if failed && result.Status != StatusUnhealthy {
					t.Errorf("%s status = %q, want unhealthy", name, result.Status)
				}
				if !failed && result.Status != StatusOK {
					t.Errorf("%s status = %q, want ok", name, result.Status)
				}
			}
		})
	}
}

func TestChecker_ReadinessTimeout(t *testing.T) {
	checker := New(20 * time.Millisecond)
	checker.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		return nil
	})

	report := checker.Readiness(context.Background())
	result := report.Checks["slow"]
	if result.Status != StatusUnhealthy || result.Message != "health check timeout" {
		t.Errorf("result = %+v, want timeout", result)
	}
}

func TestConsecutiveErrors(t *testing.T) {
	tests := []struct {
		count     int64
		threshold int64
		wantErr   bool
	}{
		{count: 0, threshold: 3, wantErr: false},
		{count: 2, threshold: 3, wantErr: false},
		{count: 3, threshold: 3, wantErr: true},
		{count: 10, threshold: 0, wantErr: false},
	}

	for _, tt := range tests {
		err := ConsecutiveErrors(fixedCounter(tt.count), tt.threshold)(context.Background())
		if (err != nil) != tt.wantErr {
			t.Errorf("count %d threshold %d: err = %v, wantErr %v", tt.count, tt.threshold, err, tt.wantErr)
		}
	}
}

func TestMount(t *testing.T) {
	checker := New(time.Second)
	checker.Register("gateway", ConsecutiveErrors(fixedCounter(5), 5))

	mux := http.NewServeMux()
	checker.Mount(mux, BuildInfo{Version: "0.1.0", Commit: "abc123"})

	tests := []struct {
		method     string
		path       string
		wantStatus int
	}{
		{method: http.MethodGet, path: "/healthz", wantStatus: http.StatusOK},
		{method: http.MethodGet, path: "/readyz", wantStatus: http.StatusServiceUnavailable},
		{method: http.MethodHead, path: "/readyz", wantStatus: http.StatusServiceUnavailable},
		{method: http.MethodGet, path: "/version", wantStatus: http.StatusOK},
		{method: http.MethodPost, path: "/healthz", wantStatus: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.method == http.MethodHead && rec.Body.Len() != 0 {
				t.Error("HEAD response should have no body")
			}
		})
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))
	var info BuildInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatal(err)
	}
	if info.Version != "0.1.0" || info.Commit != "abc123" || info.GoVersion == "" {
		t.Errorf("unexpected build info: %+v", info)
	}
}
