package dashboard

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gogrpc "google.golang.org/grpc"
)

var fixedNow = time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

func quietMonitor(cfg MonitorConfig) *Monitor {
	cfg.Logger = log.New(io.Discard, "", 0)
	cfg.Now = func() time.Time { return fixedNow }
	return NewMonitor(cfg)
}

func TestNewMonitorStartsChecking(t *testing.T) {
	t.Parallel()

	m := quietMonitor(MonitorConfig{Targets: []string{"https://api.example.com/", " ", "ftp://nope", "https://api.example.com"}})
	checks := m.Snapshot()
	if len(checks) != 1 {
		t.Fatalf("checks = %d, want 1", len(checks))
	}
	if checks[0].Name != "api.example.com" || checks[0].Status != StatusChecking {
		t.Fatalf("check = %+v, want api.example.com checking", checks[0])
	}
	if !checks[0].CheckedAt.IsZero() {
		t.Fatalf("CheckedAt = %v, want zero", checks[0].CheckedAt)
	}
}

func TestCheckAllRecordsHTTPProbeResults(t *testing.T) {
	t.Parallel()

	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != httpProbePath {
			t.Errorf("path = %q, want %q", r.URL.Path, httpProbePath)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(healthy.Close)
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(failing.Close)

	m := quietMonitor(MonitorConfig{Targets: []string{healthy.URL, failing.URL}, Timeout: time.Second})
	m.CheckAll(context.Background())

	checks := m.Snapshot()
	if len(checks) != 2 {
		t.Fatalf("checks = %d, want 2", len(checks))
	}
	if checks[0].Status != StatusHealthy {
		t.Fatalf("healthy target status = %q, want %q", checks[0].Status, StatusHealthy)
	}
	if checks[1].Status != StatusUnhealthy {
		t.Fatalf("failing target status = %q, want %q", checks[1].Status, StatusUnhealthy)
	}
	if !checks[0].CheckedAt.Equal(fixedNow) {
		t.Fatalf("CheckedAt = %v, want %v", checks[0].CheckedAt, fixedNow)
	}
}

func TestGRPCTargetDialFailureIsUnhealthy(t *testing.T) {
	t.Parallel()

	m := quietMonitor(MonitorConfig{
		GRPCAddr: "health.internal:9090",
		Dial: func(string, ...gogrpc.DialOption) (*gogrpc.ClientConn, error) {
			return nil, errors.New("dial failure")
		},
	})
	t.Cleanup(func() { _ = m.Close() })
	m.CheckAll(context.Background())

	checks := m.Snapshot()
	if len(checks) != 1 {
		t.Fatalf("checks = %d, want 1", len(checks))
	}
	if checks[0].Name != "health.internal:9090" || checks[0].Status != StatusUnhealthy {
		t.Fatalf("check = %+v, want unhealthy gRPC target", checks[0])
	}
}

func TestRunStopsWithContext(t *testing.T) {
	t.Parallel()

	calls := make(chan struct{}, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		select {
		case calls <- struct{}{}:
		default:
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	m := quietMonitor(MonitorConfig{Targets: []string{srv.URL}, Interval: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	select {
	case <-calls:
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not probe immediately")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not stop after cancel")
	}
}

func TestNilMonitorIsInert(t *testing.T) {
	t.Parallel()

	var m *Monitor
	m.CheckAll(context.Background())
	if got := m.Snapshot(); got != nil {
		t.Fatalf("Snapshot() = %v, want nil", got)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}
