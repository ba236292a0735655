package grpc

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

func TestHealthProbeServing(t *testing.T) {
	addr, _, stop := startHealthServer(t, grpc_health_v1.HealthCheckResponse_SERVING)
	defer stop()

	probe := NewHealthProbe(addr, "", nil)
	defer probe.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := probe.Check(ctx); err != nil {
		t.Fatalf("check: %v", err)
	}
}

func TestHealthProbeTracksStatusChanges(t *testing.T) {
	addr, setStatus, stop := startHealthServer(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	defer stop()

	probe := NewHealthProbe(addr, "", nil)
	defer probe.Close()

	err := probe.Check(context.Background())
	var dialErr *DialError
	if !errors.As(err, &dialErr) {
		t.Fatalf("expected DialError, got %v", err)
	}
	if dialErr.Stage != DialStageHealth {
		t.Fatalf("Stage = %q, want %q", dialErr.Stage, DialStageHealth)
	}

	setStatus(grpc_health_v1.HealthCheckResponse_SERVING)
	if err := probe.Check(context.Background()); err != nil {
		t.Fatalf("check after transition: %v", err)
	}
}

func TestHealthProbeConnectFailure(t *testing.T) {
	t.Parallel()

	probe := NewHealthProbe("unused", "", func(string, ...gogrpc.DialOption) (*gogrpc.ClientConn, error) {
		return nil, errors.New("dial failure")
	})
	err := probe.Check(context.Background())
	var dialErr *DialError
	if !errors.As(err, &dialErr) {
		t.Fatalf("expected DialError, got %T", err)
	}
	if dialErr.Stage != DialStageConnect {
		t.Fatalf("Stage = %q, want %q", dialErr.Stage, DialStageConnect)
	}
}

func TestHealthProbeNilSafe(t *testing.T) {
	t.Parallel()

	var probe *HealthProbe
	if err := probe.Check(context.Background()); err == nil {
		t.Fatal("expected error from nil probe")
	}
	if err := probe.Close(); err != nil {
		t.Fatalf("close nil probe: %v", err)
	}
	if probe.Addr() != "" {
		t.Fatalf("Addr() = %q, want empty", probe.Addr())
	}
}

func TestDialErrorFormatting(t *testing.T) {
	t.Parallel()

	wrapped := &DialError{Stage: DialStageConnect, Err: errors.New("boom")}
	if !strings.Contains(wrapped.Error(), "gRPC connect") {
		t.Fatalf("unexpected error: %s", wrapped.Error())
	}
	if wrapped.Unwrap() == nil {
		t.Fatal("expected wrapped error")
	}

	var nilErr *DialError
	if nilErr.Error() == "" {
		t.Fatal("expected fallback error message")
	}
	if nilErr.Unwrap() != nil {
		t.Fatal("expected nil unwrap for nil error")
	}
}

func TestTargetAddr(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{in: "grpc://api.internal:9090", want: "api.internal:9090", wantOK: true},
		{in: " grpc://api.internal:9090/ ", want: "api.internal:9090", wantOK: true},
		{in: "https://api.example.com", wantOK: false},
		{in: "grpc://", wantOK: false},
	}
	for _, tc := range tests {
		got, ok := TargetAddr(tc.in)
		if ok != tc.wantOK || got != tc.want {
			t.Fatalf("TargetAddr(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}

func startHealthServer(t *testing.T, status grpc_health_v1.HealthCheckResponse_ServingStatus) (string, func(grpc_health_v1.HealthCheckResponse_ServingStatus), func()) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	grpcServer := gogrpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", status)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- grpcServer.Serve(listener)
	}()

	setStatus := func(next grpc_health_v1.HealthCheckResponse_ServingStatus) {
		healthServer.SetServingStatus("", next)
	}

	stop := func() {
		grpcServer.GracefulStop()
		_ = listener.Close()
		select {
		case <-serveErr:
		case <-time.After(2 * time.Second):
		}
	}

	return listener.Addr().String(), setStatus, stop
}
