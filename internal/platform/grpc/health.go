package grpc

import (
	"context"
	"fmt"
	"sync"

	"github.com/casanorte/casanorte/internal/platform/timeouts"
	gogrpc "google.golang.org/grpc"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthProbe checks a remote gRPC health service, reusing one client
// connection across checks.
type HealthProbe struct {
	addr    string
	service string
	dial    DialerFunc

	mu   sync.Mutex
	conn *gogrpc.ClientConn
}

// NewHealthProbe builds a probe for addr. A nil dial uses grpc.NewClient.
func NewHealthProbe(addr, service string, dial DialerFunc) *HealthProbe {
	if dial == nil {
		dial = gogrpc.NewClient
	}
	return &HealthProbe{addr: addr, service: service, dial: dial}
}

// Addr returns the probed address.
func (p *HealthProbe) Addr() string {
	if p == nil {
		return ""
	}
	return p.addr
}

// Check performs one health check and returns nil only when the remote
// reports SERVING.
func (p *HealthProbe) Check(ctx context.Context) error {
	if p == nil {
		return &DialError{Stage: DialStageConnect, Err: fmt.Errorf("probe is not configured")}
	}
	conn, err := p.client()
	if err != nil {
		return &DialError{Stage: DialStageConnect, Err: err}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	callCtx, cancel := context.WithTimeout(ctx, timeouts.GRPCRequest)
	defer cancel()

	status, err := CheckHealth(callCtx, conn, p.service)
	if err != nil {
		return &DialError{Stage: DialStageHealth, Err: err}
	}
	if status != grpc_health_v1.HealthCheckResponse_SERVING {
		return &DialError{Stage: DialStageHealth, Err: fmt.Errorf("status %s", status.String())}
	}
	return nil
}

// Close releases the cached connection.
func (p *HealthProbe) Close() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn = nil
	return err
}

func (p *HealthProbe) client() (*gogrpc.ClientConn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil {
		return p.conn, nil
	}
	conn, err := p.dial(p.addr, DefaultClientDialOptions()...)
	if err != nil {
		return nil, err
	}
	p.conn = conn
	return conn, nil
}

// CheckHealth issues a single health check call on conn.
func CheckHealth(ctx context.Context, conn *gogrpc.ClientConn, service string) (grpc_health_v1.HealthCheckResponse_ServingStatus, error) {
	if conn == nil {
		return grpc_health_v1.HealthCheckResponse_UNKNOWN, fmt.Errorf("gRPC connection is not configured")
	}
	response, err := grpc_health_v1.NewHealthClient(conn).Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: service})
	if err != nil {
		return grpc_health_v1.HealthCheckResponse_UNKNOWN, fmt.Errorf("health check: %w", err)
	}
	return response.GetStatus(), nil
}
